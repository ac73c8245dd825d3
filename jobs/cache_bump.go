package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fretehub/fretehub/internal/jobs"
)

// Bumper invalidates cached dashboards.
type Bumper interface {
	Bump(ctx context.Context) error
}

// CacheBumpJob handles TaskCacheBump, typically enqueued after bulk imports.
type CacheBumpJob struct {
	Cache   Bumper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCacheBumpJob wires the cache into the handler.
func NewCacheBumpJob(cache Bumper, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheBumpJob {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	return &CacheBumpJob{Cache: cache, Logger: logger, Metrics: metrics}
}

// Handle bumps the cache version.
func (j *CacheBumpJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Cache == nil {
		return errors.New("cache bump: handler not configured")
	}
	var payload CacheBumpPayload
	if len(t.Payload()) > 0 {
		// A bad reason string is not worth failing the invalidation for.
		_ = json.Unmarshal(t.Payload(), &payload)
	}
	tracker := j.Metrics.Track(TaskCacheBump)
	defer func() { err = tracker.End(err) }()

	if err := j.Cache.Bump(ctx); err != nil {
		j.Logger.Error("cache bump failed", slog.Any("error", err))
		return err
	}
	j.Logger.Info("dashboard cache bumped", slog.String("reason", payload.Reason))
	return nil
}
