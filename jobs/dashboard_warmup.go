package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/fretehub/fretehub/internal/analytics"
	jobmetrics "github.com/fretehub/fretehub/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// DashboardBuilder is the part of analytics.Service the warmup needs.
type DashboardBuilder interface {
	Dashboard(ctx context.Context, now time.Time) (analytics.Dashboard, error)
	Overview(ctx context.Context, now time.Time) (analytics.Overview, error)
	Location() *time.Location
}

// DashboardWarmupJob fills the dashboard cache so the first page view after a
// bump or an expiry does not pay for the build.
type DashboardWarmupJob struct {
	Dashboards DashboardBuilder
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
	Timeout    time.Duration
	clock      func() time.Time
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(dashboards DashboardBuilder, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Dashboards: dashboards,
		Logger:     logger,
		Metrics:    metrics,
		Timeout:    45 * time.Second,
		clock:      time.Now,
	}
}

// Handle processes TaskDashboardWarmup.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Dashboards == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("dashboard warmup: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	ref, err := j.reference(payload.Month)
	if err != nil {
		return fmt.Errorf("dashboard warmup: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	defer func() { err = tracker.End(err) }()

	logger := j.logger().With(slog.String("month", analytics.MonthKey(ref)))
	start := time.Now()

	runCtx, cancel := context.WithTimeout(ctx, j.timeout())
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		if _, err := j.Dashboards.Dashboard(gctx, ref); err != nil {
			return fmt.Errorf("analytics: %w", err)
		}
		j.metrics().AddWarmed("analytics")
		return nil
	})
	g.Go(func() error {
		if _, err := j.Dashboards.Overview(gctx, ref); err != nil {
			return fmt.Errorf("overview: %w", err)
		}
		j.metrics().AddWarmed("overview")
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("dashboard warmup failed", slog.Any("error", err))
		return err
	}
	logger.Info("dashboard warmup completed", slog.Duration("duration", time.Since(start)))
	return nil
}

// reference resolves the month to warm. Past months use their last second so
// the window ends on that month.
func (j *DashboardWarmupJob) reference(month string) (time.Time, error) {
	loc := j.Dashboards.Location()
	now := j.now().In(loc)
	if month == "" || month == analytics.MonthKey(now) {
		return now, nil
	}
	start, err := analytics.ParseMonth(month, loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.AddDate(0, 1, 0).Add(-time.Second), nil
}

func (j *DashboardWarmupJob) timeout() time.Duration {
	if j.Timeout > 0 {
		return j.Timeout
	}
	return 45 * time.Second
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *DashboardWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
