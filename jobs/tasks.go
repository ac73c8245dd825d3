package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskDashboardWarmup precomputes the analytics and overview bundles.
	TaskDashboardWarmup = "analytics:dashboard_warmup"
	// TaskCacheBump invalidates every cached dashboard bundle.
	TaskCacheBump = "analytics:cache_bump"
)

// DashboardWarmupPayload selects the reference month. Empty means the current
// month in the business time zone.
type DashboardWarmupPayload struct {
	Month string `json:"month,omitempty"`
}

// CacheBumpPayload records why the cache was invalidated, for the logs.
type CacheBumpPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewDashboardWarmupTask builds a warmup task. Only one may be queued per
// minute; duplicates are dropped by asynq.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data,
		asynq.Queue(QueueDefault),
		asynq.Unique(time.Minute),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	), nil
}

// NewCacheBumpTask builds a cache invalidation task.
func NewCacheBumpTask(payload CacheBumpPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCacheBump, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}
