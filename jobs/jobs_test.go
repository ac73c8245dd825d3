package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fretehub/fretehub/internal/analytics"
	jobmetrics "github.com/fretehub/fretehub/internal/jobs"
)

type fakeBuilder struct {
	mu        sync.Mutex
	dashboard []time.Time
	overview  []time.Time
	err       error
}

func (f *fakeBuilder) Dashboard(ctx context.Context, now time.Time) (analytics.Dashboard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dashboard = append(f.dashboard, now)
	return analytics.Dashboard{}, f.err
}

func (f *fakeBuilder) Overview(ctx context.Context, now time.Time) (analytics.Overview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overview = append(f.overview, now)
	return analytics.Overview{}, nil
}

func (f *fakeBuilder) Location() *time.Location { return time.UTC }

func newWarmup(b *fakeBuilder) *DashboardWarmupJob {
	job := NewDashboardWarmupJob(b, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.clock = func() time.Time { return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC) }
	return job
}

func TestDashboardWarmupBuildsBothBundles(t *testing.T) {
	b := &fakeBuilder{}
	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{})
	require.NoError(t, err)

	require.NoError(t, newWarmup(b).Handle(context.Background(), task))
	require.Len(t, b.dashboard, 1)
	require.Len(t, b.overview, 1)
	assert.Equal(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC), b.dashboard[0])
}

func TestDashboardWarmupPastMonthUsesLastSecond(t *testing.T) {
	b := &fakeBuilder{}
	task, err := NewDashboardWarmupTask(DashboardWarmupPayload{Month: "2024-02"})
	require.NoError(t, err)

	require.NoError(t, newWarmup(b).Handle(context.Background(), task))
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), b.dashboard[0])
}

func TestDashboardWarmupRejectsBadPayload(t *testing.T) {
	job := newWarmup(&fakeBuilder{})

	err := job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	data, _ := json.Marshal(DashboardWarmupPayload{Month: "junho"})
	err = job.Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, data))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.ErrorContains(t, err, "invalid reference month")
}

func TestDashboardWarmupPropagatesBuildFailure(t *testing.T) {
	b := &fakeBuilder{err: errors.New("pg down")}
	err := newWarmup(b).Handle(context.Background(), asynq.NewTask(TaskDashboardWarmup, nil))
	assert.ErrorContains(t, err, "pg down")
}

type fakeBumper struct {
	calls int
	err   error
}

func (f *fakeBumper) Bump(ctx context.Context) error {
	f.calls++
	return f.err
}

func TestCacheBumpJob(t *testing.T) {
	bumper := &fakeBumper{}
	job := NewCacheBumpJob(bumper, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewCacheBumpTask(CacheBumpPayload{Reason: "import"})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, bumper.calls)

	bumper.err = errors.New("redis down")
	assert.Error(t, job.Handle(context.Background(), task))

	var unset *CacheBumpJob
	assert.Error(t, unset.Handle(context.Background(), task))
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func getHealth(t *testing.T, h *Handler) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	return rr
}

func TestHealthReportsQueueDepth(t *testing.T) {
	rr := getHealth(t, NewHandler(fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4, Retry: 1}}, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got queueHealth
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, queueHealth{Queue: "default", Pending: 4, Retry: 1}, got)
}

func TestHealthFailures(t *testing.T) {
	rr := getHealth(t, NewHandler(fakeInspector{err: errors.New("dial tcp")}, nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = getHealth(t, NewHandler(fakeInspector{err: asynq.ErrQueueNotFound}, nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = getHealth(t, NewHandler(nil, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNewWorkerRequiresHandlers(t *testing.T) {
	_, err := NewWorker(WorkerConfig{RedisOpts: asynq.RedisClientOpt{Addr: "127.0.0.1:0"}})
	assert.Error(t, err)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type(), Queue: QueueDefault}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

func TestClientEnqueues(t *testing.T) {
	enq := &fakeEnqueuer{}
	client := NewClientWith(enq)
	ctx := context.Background()

	require.NoError(t, client.EnqueueDashboardWarmup(ctx, "2024-05"))
	require.NoError(t, client.EnqueueCacheBump(ctx, "import"))
	require.Len(t, enq.tasks, 2)
	assert.Equal(t, TaskDashboardWarmup, enq.tasks[0].Type())
	assert.JSONEq(t, `{"month":"2024-05"}`, string(enq.tasks[0].Payload()))
	assert.Equal(t, TaskCacheBump, enq.tasks[1].Type())

	enq.err = asynq.ErrDuplicateTask
	assert.NoError(t, client.EnqueueDashboardWarmup(ctx, ""))
	assert.ErrorIs(t, client.EnqueueCacheBump(ctx, ""), asynq.ErrDuplicateTask)
}
