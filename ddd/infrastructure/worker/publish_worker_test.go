package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// workerJobRepo hands out scripted due jobs per platform.
type workerJobRepo struct {
	mu       sync.Mutex
	due      map[string][]*entity.PublishJobEntity
	inFlight []*entity.PublishJobEntity
	queried  []string
	swapped  []string
}

func newWorkerJobRepo() *workerJobRepo {
	return &workerJobRepo{due: make(map[string][]*entity.PublishJobEntity)}
}

func (r *workerJobRepo) addDue(platform string, job *entity.PublishJobEntity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.due[platform] = append(r.due[platform], job)
}

func (r *workerJobRepo) addInFlight(job *entity.PublishJobEntity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight = append(r.inFlight, job)
}

func (r *workerJobRepo) queriedPlatforms() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.queried...)
}

func (r *workerJobRepo) swappedJobs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.swapped...)
}

func (r *workerJobRepo) CreateJob(context.Context, *entity.PublishJobEntity) error { return nil }

func (r *workerJobRepo) GetJobByUUID(context.Context, string) (*entity.PublishJobEntity, error) {
	return nil, nil
}

func (r *workerJobRepo) GetJobsByTask(context.Context, string) ([]*entity.PublishJobEntity, error) {
	return nil, nil
}

func (r *workerJobRepo) UpdateJob(context.Context, *entity.PublishJobEntity) error { return nil }

func (r *workerJobRepo) QueryDueJobs(_ context.Context, platform string, _ time.Time, _ int) ([]*entity.PublishJobEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queried = append(r.queried, platform)
	jobs := r.due[platform]
	r.due[platform] = nil
	return jobs, nil
}

func (r *workerJobRepo) QueryJobsByStatus(_ context.Context, status vo.PublishStatus, _ int) ([]*entity.PublishJobEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status != vo.PublishStatusInFlight {
		return nil, nil
	}
	return append([]*entity.PublishJobEntity(nil), r.inFlight...), nil
}

func (r *workerJobRepo) CompareAndSetStatus(_ context.Context, jobUUID string, _, _ vo.PublishStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swapped = append(r.swapped, jobUUID)
	return true, nil
}

func (r *workerJobRepo) CountPendingByTask(context.Context, string) (int64, error) { return 0, nil }

func (r *workerJobRepo) CountJobsByStatus(context.Context, vo.PublishStatus) (int64, error) {
	return 0, nil
}

// fakeDispatcher records dispatch order and returns scripted outcomes.
type fakeDispatcher struct {
	mu    sync.Mutex
	order []string
	errs  map[string]error
}

func (f *fakeDispatcher) EnqueueClip(context.Context, *entity.HighlightTaskEntity, *entity.ClipEntity, string, *time.Time) (*entity.PublishJobEntity, error) {
	return nil, nil
}

func (f *fakeDispatcher) EnqueueForTask(context.Context, *entity.HighlightTaskEntity, []*entity.ClipEntity) (int, error) {
	return 0, nil
}

func (f *fakeDispatcher) DispatchJob(_ context.Context, job *entity.PublishJobEntity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.order = append(f.order, job.JobUUID())
	return f.errs[job.JobUUID()]
}

func (f *fakeDispatcher) NextOptimalSlot(_ string, now time.Time) time.Time { return now }

func (f *fakeDispatcher) Backoff(int) time.Duration { return 0 }

func (f *fakeDispatcher) dispatched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

type stubPlatformPublisher struct{ name string }

func (s *stubPlatformPublisher) Platform() string { return s.name }

func (s *stubPlatformPublisher) Publish(context.Context, *port.PublishRequest) (*port.PublishResult, error) {
	return &port.PublishResult{}, nil
}

func publishWorkerConfig() *config.Config {
	cfg := &config.Config{}
	// keep the poll ticker out of the test window, only the initial drain runs
	cfg.Publish.PollInterval = time.Hour
	return cfg
}

func dueJob(platform string) *entity.PublishJobEntity {
	return entity.NewPublishJobEntity("task-1", "clip-1", platform, time.Now().Add(-time.Minute), 3)
}

func TestPublishWorkerDispatchesDueJobsInOrder(t *testing.T) {
	jobRepo := newWorkerJobRepo()
	dispatcher := &fakeDispatcher{}
	registry := port.NewPublisherRegistry()
	registry.Register(&stubPlatformPublisher{name: "tiktok"})

	first := dueJob("tiktok")
	second := dueJob("tiktok")
	jobRepo.addDue("tiktok", first)
	jobRepo.addDue("tiktok", second)

	w := NewPublishWorker("test-publish", jobRepo, dispatcher, registry, publishWorkerConfig())
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	require.Eventually(t, func() bool {
		return w.GetStats().ProcessedTasks == 2
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{first.JobUUID(), second.JobUUID()}, dispatcher.dispatched())
	assert.Equal(t, uint64(2), w.GetStats().SuccessfulTasks)

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
}

func TestPublishWorkerCountsDispatchFailures(t *testing.T) {
	jobRepo := newWorkerJobRepo()
	registry := port.NewPublisherRegistry()
	registry.Register(&stubPlatformPublisher{name: "tiktok"})

	good := dueJob("tiktok")
	bad := dueJob("tiktok")
	jobRepo.addDue("tiktok", good)
	jobRepo.addDue("tiktok", bad)

	dispatcher := &fakeDispatcher{errs: map[string]error{bad.JobUUID(): errors.New("endpoint down")}}

	w := NewPublishWorker("test-publish", jobRepo, dispatcher, registry, publishWorkerConfig())
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	require.Eventually(t, func() bool {
		return w.GetStats().ProcessedTasks == 2
	}, 2*time.Second, 10*time.Millisecond)

	stats := w.GetStats()
	assert.Equal(t, uint64(1), stats.SuccessfulTasks)
	assert.Equal(t, uint64(1), stats.FailedTasks)
}

func TestPublishWorkerOnlyDrainsRegisteredPlatforms(t *testing.T) {
	jobRepo := newWorkerJobRepo()
	dispatcher := &fakeDispatcher{}
	registry := port.NewPublisherRegistry()
	registry.Register(&stubPlatformPublisher{name: "tiktok"})

	tiktokJob := dueJob("tiktok")
	jobRepo.addDue("tiktok", tiktokJob)
	jobRepo.addDue("twitter", dueJob("twitter"))

	w := NewPublishWorker("test-publish", jobRepo, dispatcher, registry, publishWorkerConfig())
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	require.Eventually(t, func() bool {
		return len(dispatcher.dispatched()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{tiktokJob.JobUUID()}, dispatcher.dispatched())
	assert.Equal(t, []string{"tiktok"}, jobRepo.queriedPlatforms())
}

func TestPublishWorkerRequeuesStaleInFlightJobs(t *testing.T) {
	jobRepo := newWorkerJobRepo()
	registry := port.NewPublisherRegistry()
	registry.Register(&stubPlatformPublisher{name: "tiktok"})

	// stranded by a scheduler that died mid-dispatch
	stale := entity.RestorePublishJobEntity(1, "job-stale", "task-1", "clip-1", "tiktok",
		time.Now().Add(-2*time.Hour), 1, 3, vo.PublishStatusInFlight, "", "", nil,
		time.Now().Add(-2*time.Hour), time.Now().Add(-time.Hour))
	jobRepo.addInFlight(stale)

	// recently touched rows belong to a live drain loop and must not be reclaimed
	live := entity.NewPublishJobEntity("task-1", "clip-2", "tiktok", time.Now(), 3)
	require.NoError(t, live.BeginAttempt())
	jobRepo.addInFlight(live)

	w := NewPublishWorker("test-publish", jobRepo, &fakeDispatcher{}, registry, publishWorkerConfig())
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	require.Eventually(t, func() bool {
		return w.GetStats().RecoveredTasks == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{stale.JobUUID()}, jobRepo.swappedJobs())
}

func TestPublishWorkerLifecycle(t *testing.T) {
	registry := port.NewPublisherRegistry()
	registry.Register(&stubPlatformPublisher{name: "tiktok"})
	w := NewPublishWorker("test-publish", newWorkerJobRepo(), &fakeDispatcher{}, registry, publishWorkerConfig())

	// stop before start is a no-op
	require.NoError(t, w.Stop())

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())

	err := w.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
}

func TestPublishWorkerNoPlatformsStillRuns(t *testing.T) {
	w := NewPublishWorker("test-publish", newWorkerJobRepo(), &fakeDispatcher{}, port.NewPublisherRegistry(), publishWorkerConfig())

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())
	require.NoError(t, w.Stop())
}
