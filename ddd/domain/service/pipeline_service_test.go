package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/repo"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTaskRepo keeps the status row separately from the entity so tests can
// flip it mid-pipeline the way an API cancel would.
type fakeTaskRepo struct {
	mu       sync.Mutex
	statuses map[string]vo.TaskStatus
	tasks    map[string]*entity.HighlightTaskEntity
	updates  []vo.TaskStatus
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{
		statuses: map[string]vo.TaskStatus{},
		tasks:    map[string]*entity.HighlightTaskEntity{},
	}
}

func (r *fakeTaskRepo) seed(task *entity.HighlightTaskEntity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[task.TaskUUID()] = task.Status()
	r.tasks[task.TaskUUID()] = task
}

func (r *fakeTaskRepo) setStatus(taskUUID string, status vo.TaskStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[taskUUID] = status
}

func (r *fakeTaskRepo) status(taskUUID string) vo.TaskStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statuses[taskUUID]
}

func (r *fakeTaskRepo) CreateTask(ctx context.Context, task *entity.HighlightTaskEntity) error {
	r.seed(task)
	return nil
}

func (r *fakeTaskRepo) GetTaskByUUID(ctx context.Context, taskUUID string) (*entity.HighlightTaskEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks[taskUUID], nil
}

func (r *fakeTaskRepo) GetTaskStatus(ctx context.Context, taskUUID string) (vo.TaskStatus, error) {
	return r.status(taskUUID), nil
}

func (r *fakeTaskRepo) GetTasksByUser(ctx context.Context, userUUID string, limit, offset int) ([]*entity.HighlightTaskEntity, error) {
	return nil, nil
}

func (r *fakeTaskRepo) CountTasksByUser(ctx context.Context, userUUID string) (int64, error) {
	return 0, nil
}

func (r *fakeTaskRepo) UpdateTask(ctx context.Context, task *entity.HighlightTaskEntity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[task.TaskUUID()] = task.Status()
	r.updates = append(r.updates, task.Status())
	return nil
}

func (r *fakeTaskRepo) UpdateTaskProgress(ctx context.Context, taskUUID string, progress int, stageMessage string) error {
	return nil
}

func (r *fakeTaskRepo) CompareAndSetStatus(ctx context.Context, taskUUID string, from, to vo.TaskStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statuses[taskUUID] != from {
		return false, nil
	}
	r.statuses[taskUUID] = to
	return true, nil
}

func (r *fakeTaskRepo) QueryTasksByStatus(ctx context.Context, status vo.TaskStatus, limit int) ([]*entity.HighlightTaskEntity, error) {
	return nil, nil
}

func (r *fakeTaskRepo) CountTasksByStatus(ctx context.Context, status vo.TaskStatus) (int64, error) {
	return 0, nil
}

func (r *fakeTaskRepo) GetTaskStatistics(ctx context.Context) (*repo.TaskStatistics, error) {
	return &repo.TaskStatistics{}, nil
}

type fakeClipRepo struct {
	mu    sync.Mutex
	clips []*entity.ClipEntity
}

func (r *fakeClipRepo) CreateClip(ctx context.Context, clip *entity.ClipEntity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clips = append(r.clips, clip)
	return nil
}

func (r *fakeClipRepo) GetClipByUUID(ctx context.Context, clipUUID string) (*entity.ClipEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clips {
		if c.ClipUUID() == clipUUID {
			return c, nil
		}
	}
	return nil, nil
}

func (r *fakeClipRepo) GetClipsByTask(ctx context.Context, taskUUID string) ([]*entity.ClipEntity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ClipEntity
	for _, c := range r.clips {
		if c.TaskUUID() == taskUUID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeClipRepo) UpdateClip(ctx context.Context, clip *entity.ClipEntity) error {
	return nil
}

func (r *fakeClipRepo) stored() []*entity.ClipEntity {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.ClipEntity, len(r.clips))
	copy(out, r.clips)
	return out
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls int
	fetch func(call int, task *entity.HighlightTaskEntity) (*vo.MediaAsset, error)
}

func (f *fakeFetcher) Fetch(ctx context.Context, task *entity.HighlightTaskEntity) (*vo.MediaAsset, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	return f.fetch(call, task)
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSelector struct {
	segments []vo.Segment
	err      error
	calls    int
}

func (s *fakeSelector) Select(ctx context.Context, asset *vo.MediaAsset, desiredCount int, minSec, maxSec float64) ([]vo.Segment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.segments, nil
}

type fakeRenderer struct {
	mu     sync.Mutex
	calls  map[int]int
	render func(index, attempt int, task *entity.HighlightTaskEntity, seg vo.Segment) (*entity.ClipEntity, error)
}

func newFakeRenderer() *fakeRenderer {
	r := &fakeRenderer{calls: map[int]int{}}
	r.render = func(index, attempt int, task *entity.HighlightTaskEntity, seg vo.Segment) (*entity.ClipEntity, error) {
		return renderedClip(task, index, seg), nil
	}
	return r
}

func (r *fakeRenderer) Render(ctx context.Context, task *entity.HighlightTaskEntity, asset *vo.MediaAsset, index int, seg vo.Segment, progressCb port.ProgressCallback) (*entity.ClipEntity, error) {
	r.mu.Lock()
	r.calls[index]++
	attempt := r.calls[index]
	r.mu.Unlock()
	return r.render(index, attempt, task, seg)
}

func (r *fakeRenderer) attemptCount(index int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[index]
}

func renderedClip(task *entity.HighlightTaskEntity, index int, seg vo.Segment) *entity.ClipEntity {
	clip := entity.NewClipEntity(task.TaskUUID(), index, seg, task.Aspect(), task.Quality())
	objectKey := fmt.Sprintf("clips/%s/clip_%d.mp4", task.TaskUUID(), index)
	clip.SetDurationSeconds(seg.DurationSeconds())
	clip.SetStored(objectKey, "https://cdn.example.com/"+objectKey)
	return clip
}

type fakePublishEnqueuer struct {
	mu         sync.Mutex
	calls      int
	lastClips  []*entity.ClipEntity
	enqueueErr error
}

func (p *fakePublishEnqueuer) EnqueueClip(ctx context.Context, task *entity.HighlightTaskEntity, clip *entity.ClipEntity, platform string, scheduledTime *time.Time) (*entity.PublishJobEntity, error) {
	return nil, nil
}

func (p *fakePublishEnqueuer) EnqueueForTask(ctx context.Context, task *entity.HighlightTaskEntity, clips []*entity.ClipEntity) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.lastClips = clips
	if p.enqueueErr != nil {
		return 0, p.enqueueErr
	}
	return len(clips), nil
}

func (p *fakePublishEnqueuer) DispatchJob(ctx context.Context, job *entity.PublishJobEntity) error {
	return nil
}

func (p *fakePublishEnqueuer) NextOptimalSlot(platform string, now time.Time) time.Time {
	return now
}

func (p *fakePublishEnqueuer) Backoff(attempts int) time.Duration { return 0 }

type fakeProgressSink struct {
	mu          sync.Mutex
	transitions []string
	progress    []int
}

func (s *fakeProgressSink) SaveProgress(ctx context.Context, task *entity.HighlightTaskEntity, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = append(s.progress, progress)
	return nil
}

func (s *fakeProgressSink) SaveTransition(ctx context.Context, task *entity.HighlightTaskEntity, from, to vo.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions = append(s.transitions, fmt.Sprintf("%s->%s", from, to))
	return nil
}

func (s *fakeProgressSink) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.transitions))
	copy(out, s.transitions)
	return out
}

type fakeReporter struct {
	mu        sync.Mutex
	completed []string
	failed    []string
	urls      []string
}

func (r *fakeReporter) ReportCompleted(ctx context.Context, taskUUID string, renderedClips int, clipURLs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, taskUUID)
	r.urls = clipURLs
	return nil
}

func (r *fakeReporter) ReportFailed(ctx context.Context, taskUUID, status, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, fmt.Sprintf("%s:%s", taskUUID, status))
	return nil
}

// pipelineHarness bundles the fakes behind a ready-to-run pipeline service.
type pipelineHarness struct {
	taskRepo *fakeTaskRepo
	clipRepo *fakeClipRepo
	fetcher  *fakeFetcher
	selector *fakeSelector
	renderer *fakeRenderer
	enqueuer *fakePublishEnqueuer
	sink     *fakeProgressSink
	reporter *fakeReporter
	cfg      *config.Config
	svc      PipelineService
}

func newPipelineHarness(t *testing.T) *pipelineHarness {
	h := &pipelineHarness{
		taskRepo: newFakeTaskRepo(),
		clipRepo: &fakeClipRepo{},
		selector: &fakeSelector{},
		renderer: newFakeRenderer(),
		enqueuer: &fakePublishEnqueuer{},
		sink:     &fakeProgressSink{},
		reporter: &fakeReporter{},
		cfg:      &config.Config{},
	}
	h.cfg.Pipeline.FetchAttempts = 2
	h.cfg.Worker.RenderConcurrency = 2
	h.cfg.Publish.Enabled = true

	asset := pipelineAsset(t)
	h.fetcher = &fakeFetcher{fetch: func(call int, task *entity.HighlightTaskEntity) (*vo.MediaAsset, error) {
		return asset, nil
	}}
	h.selector.segments = []vo.Segment{
		{StartSeconds: 10, EndSeconds: 25, Score: 0.9, Evidence: vo.EvidenceAudioEnergy},
		{StartSeconds: 40, EndSeconds: 55, Score: 0.7, Evidence: vo.EvidenceSceneChange},
	}

	h.svc = NewPipelineService(h.taskRepo, h.clipRepo, h.fetcher, h.selector,
		h.renderer, h.enqueuer, []port.ProgressSink{h.sink}, h.reporter, h.cfg)
	return h
}

func pipelineAsset(t *testing.T) *vo.MediaAsset {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.mp4")
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))
	return &vo.MediaAsset{
		SourceID:        "src-pipe",
		SourceURL:       "https://example.com/v.mp4",
		LocalPath:       path,
		DurationSeconds: 120,
		Width:           1920,
		Height:          1080,
		SizeBytes:       7,
	}
}

func pipelineTask() *entity.HighlightTaskEntity {
	return entity.NewHighlightTaskEntity("", "user-1", "https://example.com/v.mp4",
		2, 10, 30, vo.AspectModeMobile, vo.QualityMedium, "")
}

func TestPipelineHappyPathCompletesTask(t *testing.T) {
	h := newPipelineHarness(t)
	task := pipelineTask()
	h.taskRepo.seed(task)

	require.NoError(t, h.svc.ExecuteTask(context.Background(), task))

	assert.Equal(t, vo.TaskStatusCompleted, task.Status())
	assert.Equal(t, 100, task.Progress())
	assert.Equal(t, vo.TaskStatusCompleted, h.taskRepo.status(task.TaskUUID()))

	clips := h.clipRepo.stored()
	require.Len(t, clips, 2)
	for _, c := range clips {
		assert.True(t, c.IsRendered())
	}

	require.Len(t, h.reporter.completed, 1)
	assert.Equal(t, task.TaskUUID(), h.reporter.completed[0])
	assert.Len(t, h.reporter.urls, 2)

	assert.Equal(t, []string{
		"pending->fetching",
		"fetching->selecting",
		"selecting->rendering",
		"rendering->completed",
	}, h.sink.seen())

	// No publish targets, the enqueuer is never consulted.
	assert.Equal(t, 0, h.enqueuer.calls)
}

func TestPipelineRemovesSourceAfterCompletion(t *testing.T) {
	h := newPipelineHarness(t)
	asset := pipelineAsset(t)
	h.fetcher.fetch = func(call int, task *entity.HighlightTaskEntity) (*vo.MediaAsset, error) {
		return asset, nil
	}
	task := pipelineTask()
	h.taskRepo.seed(task)

	require.NoError(t, h.svc.ExecuteTask(context.Background(), task))
	assert.NoFileExists(t, asset.LocalPath)
}

func TestPipelineKeepsCachedSource(t *testing.T) {
	h := newPipelineHarness(t)
	asset := pipelineAsset(t)
	asset.Cached = true
	h.fetcher.fetch = func(call int, task *entity.HighlightTaskEntity) (*vo.MediaAsset, error) {
		return asset, nil
	}
	task := pipelineTask()
	h.taskRepo.seed(task)

	require.NoError(t, h.svc.ExecuteTask(context.Background(), task))
	assert.FileExists(t, asset.LocalPath)
}

func TestPipelineClaimMissIsNoOp(t *testing.T) {
	h := newPipelineHarness(t)
	task := pipelineTask()
	// Another worker already holds the task.
	h.taskRepo.setStatus(task.TaskUUID(), vo.TaskStatusFetching)

	require.NoError(t, h.svc.ExecuteTask(context.Background(), task))

	assert.Equal(t, 0, h.fetcher.callCount())
	assert.Empty(t, h.sink.seen())
	assert.Equal(t, vo.TaskStatusPending, task.Status())
}

func TestPipelineFetchRetriesTransientFailure(t *testing.T) {
	h := newPipelineHarness(t)
	asset := pipelineAsset(t)
	h.fetcher.fetch = func(call int, task *entity.HighlightTaskEntity) (*vo.MediaAsset, error) {
		if call == 1 {
			return nil, vo.NewFetchError(vo.FetchUnreachable, task.SourceURL(), errors.New("timeout"))
		}
		return asset, nil
	}
	task := pipelineTask()
	h.taskRepo.seed(task)

	require.NoError(t, h.svc.ExecuteTask(context.Background(), task))
	assert.Equal(t, 2, h.fetcher.callCount())
	assert.Equal(t, vo.TaskStatusCompleted, task.Status())
}

func TestPipelineFetchUnsupportedFailsWithoutRetry(t *testing.T) {
	h := newPipelineHarness(t)
	h.fetcher.fetch = func(call int, task *entity.HighlightTaskEntity) (*vo.MediaAsset, error) {
		return nil, vo.NewFetchError(vo.FetchUnsupported, task.SourceURL(), errors.New("scheme ftp"))
	}
	task := pipelineTask()
	h.taskRepo.seed(task)

	err := h.svc.ExecuteTask(context.Background(), task)
	require.Error(t, err)
	assert.True(t, vo.IsFetchError(err, vo.FetchUnsupported))
	// Retrying cannot fix an unsupported URL.
	assert.Equal(t, 1, h.fetcher.callCount())
	assert.Equal(t, vo.TaskStatusFailed, task.Status())
	assert.Equal(t, vo.TaskStatusFailed, h.taskRepo.status(task.TaskUUID()))
	require.Len(t, h.reporter.failed, 1)
	assert.Equal(t, 0, h.selector.calls)
}

func TestPipelineFetchExhaustedAttemptsFails(t *testing.T) {
	h := newPipelineHarness(t)
	h.cfg.Pipeline.FetchAttempts = 1
	h.fetcher.fetch = func(call int, task *entity.HighlightTaskEntity) (*vo.MediaAsset, error) {
		return nil, vo.NewFetchError(vo.FetchUnreachable, task.SourceURL(), errors.New("503"))
	}
	task := pipelineTask()
	h.taskRepo.seed(task)

	err := h.svc.ExecuteTask(context.Background(), task)
	require.Error(t, err)
	assert.Equal(t, 1, h.fetcher.callCount())
	assert.Equal(t, vo.TaskStatusFailed, task.Status())
}

func TestPipelineSelectionFailureFailsTask(t *testing.T) {
	h := newPipelineHarness(t)
	h.selector.err = vo.ErrInsufficientSignal
	task := pipelineTask()
	h.taskRepo.seed(task)

	err := h.svc.ExecuteTask(context.Background(), task)
	require.Error(t, err)
	assert.Equal(t, vo.TaskStatusFailed, task.Status())
	assert.Contains(t, task.ErrorMessage(), "selection")
	require.Len(t, h.reporter.failed, 1)
	assert.Contains(t, h.reporter.failed[0], string(vo.TaskStatusFailed))
}

func TestPipelineCancelBetweenStagesAbandons(t *testing.T) {
	h := newPipelineHarness(t)
	asset := pipelineAsset(t)
	task := pipelineTask()
	h.taskRepo.seed(task)

	// A cancel lands in the status row while the fetch is in flight.
	h.fetcher.fetch = func(call int, tk *entity.HighlightTaskEntity) (*vo.MediaAsset, error) {
		h.taskRepo.setStatus(tk.TaskUUID(), vo.TaskStatusCancelled)
		return asset, nil
	}

	err := h.svc.ExecuteTask(context.Background(), task)
	require.ErrorIs(t, err, ErrTaskCancelled)

	assert.Equal(t, 0, h.selector.calls)
	assert.Equal(t, vo.TaskStatusCancelled, h.taskRepo.status(task.TaskUUID()))
	// Cancellation is not a failure, nothing is reported outward.
	assert.Empty(t, h.reporter.failed)
	assert.Empty(t, h.reporter.completed)
	// The working copy is cleaned up on abandon.
	assert.NoFileExists(t, asset.LocalPath)
}

func TestPipelineRenderRetriesTransientFailureOnce(t *testing.T) {
	h := newPipelineHarness(t)
	h.selector.segments = h.selector.segments[:1]
	h.renderer.render = func(index, attempt int, task *entity.HighlightTaskEntity, seg vo.Segment) (*entity.ClipEntity, error) {
		if attempt == 1 {
			return nil, vo.NewRenderError(vo.RenderEncodeFailure, errors.New("ffmpeg exit 1"))
		}
		return renderedClip(task, index, seg), nil
	}
	task := pipelineTask()
	h.taskRepo.seed(task)

	require.NoError(t, h.svc.ExecuteTask(context.Background(), task))
	assert.Equal(t, 2, h.renderer.attemptCount(0))
	assert.Equal(t, vo.TaskStatusCompleted, task.Status())

	clips := h.clipRepo.stored()
	require.Len(t, clips, 1)
	assert.True(t, clips[0].IsRendered())
}

func TestPipelineAspectRejectionNotRetried(t *testing.T) {
	h := newPipelineHarness(t)
	h.selector.segments = h.selector.segments[:1]
	h.renderer.render = func(index, attempt int, task *entity.HighlightTaskEntity, seg vo.Segment) (*entity.ClipEntity, error) {
		return nil, vo.NewRenderError(vo.RenderUnsupportedAspect, errors.New("aspect square"))
	}
	task := pipelineTask()
	h.taskRepo.seed(task)

	err := h.svc.ExecuteTask(context.Background(), task)
	require.Error(t, err)
	assert.Equal(t, 1, h.renderer.attemptCount(0))
	assert.Equal(t, vo.TaskStatusFailed, task.Status())

	// The failed attempt still leaves an auditable clip row.
	clips := h.clipRepo.stored()
	require.Len(t, clips, 1)
	assert.False(t, clips[0].IsRendered())
	assert.NotEmpty(t, clips[0].ErrorMessage())
}

func TestPipelinePartialRenderFailureStillCompletes(t *testing.T) {
	h := newPipelineHarness(t)
	h.renderer.render = func(index, attempt int, task *entity.HighlightTaskEntity, seg vo.Segment) (*entity.ClipEntity, error) {
		if index == 1 {
			return nil, vo.NewRenderError(vo.RenderEncodeFailure, errors.New("ffmpeg exit 1"))
		}
		return renderedClip(task, index, seg), nil
	}
	task := pipelineTask()
	h.taskRepo.seed(task)

	require.NoError(t, h.svc.ExecuteTask(context.Background(), task))
	assert.Equal(t, vo.TaskStatusCompleted, task.Status())
	assert.Equal(t, 1, task.RenderedCount())
	assert.Equal(t, 1, task.FailedCount())

	// The transient failure was retried before giving up.
	assert.Equal(t, 2, h.renderer.attemptCount(1))

	require.Len(t, h.reporter.completed, 1)
	assert.Len(t, h.reporter.urls, 1)

	clips := h.clipRepo.stored()
	require.Len(t, clips, 2)
}

func TestPipelineAllRendersFailedFailsTask(t *testing.T) {
	h := newPipelineHarness(t)
	h.renderer.render = func(index, attempt int, task *entity.HighlightTaskEntity, seg vo.Segment) (*entity.ClipEntity, error) {
		return nil, vo.NewRenderError(vo.RenderEncodeFailure, errors.New("disk full"))
	}
	task := pipelineTask()
	h.taskRepo.seed(task)

	err := h.svc.ExecuteTask(context.Background(), task)
	require.Error(t, err)
	assert.Equal(t, vo.TaskStatusFailed, task.Status())
	assert.Contains(t, task.ErrorMessage(), "rendering")
	require.Len(t, h.reporter.failed, 1)
}

func TestPipelinePublishHandOff(t *testing.T) {
	h := newPipelineHarness(t)
	task := pipelineTask()
	task.SetPublishTargets([]vo.PublishTarget{{Platform: vo.PlatformTikTok}})
	h.taskRepo.seed(task)

	require.NoError(t, h.svc.ExecuteTask(context.Background(), task))

	assert.Equal(t, 1, h.enqueuer.calls)
	assert.Len(t, h.enqueuer.lastClips, 2)
	assert.Equal(t, vo.TaskStatusCompleted, task.Status())

	transitions := h.sink.seen()
	assert.Contains(t, transitions, "rendering->publishing")
	assert.Contains(t, transitions, "publishing->completed")
}

func TestPipelinePublishDisabledSkipsHandOff(t *testing.T) {
	h := newPipelineHarness(t)
	h.cfg.Publish.Enabled = false
	task := pipelineTask()
	task.SetPublishTargets([]vo.PublishTarget{{Platform: vo.PlatformTikTok}})
	h.taskRepo.seed(task)

	require.NoError(t, h.svc.ExecuteTask(context.Background(), task))
	assert.Equal(t, 0, h.enqueuer.calls)
	assert.Contains(t, h.sink.seen(), "rendering->completed")
}

func TestPipelineEnqueueErrorDoesNotFailTask(t *testing.T) {
	h := newPipelineHarness(t)
	h.enqueuer.enqueueErr = errors.New("publish store down")
	task := pipelineTask()
	task.SetPublishTargets([]vo.PublishTarget{{Platform: vo.PlatformTikTok}})
	h.taskRepo.seed(task)

	require.NoError(t, h.svc.ExecuteTask(context.Background(), task))
	assert.Equal(t, vo.TaskStatusCompleted, task.Status())
	assert.Equal(t, 1, h.enqueuer.calls)
}

func TestBlendedRenderProgress(t *testing.T) {
	assert.Equal(t, 35, blendedRenderProgress(nil))
	assert.Equal(t, 35, blendedRenderProgress([]int{0, 0}))
	assert.Equal(t, 85, blendedRenderProgress([]int{100, 100}))
	assert.Equal(t, 60, blendedRenderProgress([]int{50, 50}))
	assert.Equal(t, 60, blendedRenderProgress([]int{100, 0}))
	assert.Equal(t, 85, blendedRenderProgress([]int{100}))
}

func TestBuildTaskResultCollectsClipOutcomes(t *testing.T) {
	task := pipelineTask()
	require.NoError(t, task.BeginFetching())
	require.NoError(t, task.BeginSelecting())
	require.NoError(t, task.BeginRendering())
	task.RecordSelection(2)
	task.RecordRenderOutcome(1, 1)
	require.NoError(t, task.Complete())

	good := renderedClip(task, 0, vo.Segment{StartSeconds: 10, EndSeconds: 25})
	bad := entity.NewClipEntity(task.TaskUUID(), 1, vo.Segment{StartSeconds: 40, EndSeconds: 55}, task.Aspect(), task.Quality())
	bad.MarkFailed("encode failed")

	result := BuildTaskResult(task, []*entity.ClipEntity{good, bad, nil})

	assert.Equal(t, task.TaskUUID(), result.TaskUUID)
	assert.Equal(t, 2, result.RequestedClips)
	assert.Equal(t, 1, result.RenderedCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Len(t, result.Clips, 2)
	assert.True(t, result.Clips[0].Rendered)
	assert.False(t, result.Clips[1].Rendered)
	assert.Equal(t, []string{good.PublicURL()}, result.RenderedURLs())
}
