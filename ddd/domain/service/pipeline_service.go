package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/gateway"
	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/repo"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"
	"highlight-service/pkg/logger"
)

// progress milestones per pipeline stage
const (
	progressClaimed    = 5
	progressSelecting  = 25
	progressSelected   = 35
	progressRenderSpan = 50
	progressRendered   = 85
	progressPublishing = 90
	progressEnqueued   = 99
)

const (
	fetchRetryDelay         = 3 * time.Second
	progressPersistInterval = time.Second
)

// ErrTaskCancelled reported when a cancel request interrupts the pipeline
var ErrTaskCancelled = errors.New("task cancelled")

// PipelineService runs one claimed task through fetch, selection, render
// and publish hand-off
type PipelineService interface {
	ExecuteTask(ctx context.Context, task *entity.HighlightTaskEntity) error
}

type pipelineServiceImpl struct {
	taskRepo    repo.HighlightTaskRepository
	clipRepo    repo.ClipRepository
	fetcher     FetchService
	selector    SelectionService
	renderer    RenderService
	publisher   PublishService
	sinks       []port.ProgressSink
	reporter    gateway.TaskEventReporter
	cfg         *config.Config
	progressMu  sync.Mutex
	lastPersist map[string]time.Time
}

// NewPipelineService wires the stage services into the task orchestrator
func NewPipelineService(
	taskRepo repo.HighlightTaskRepository,
	clipRepo repo.ClipRepository,
	fetcher FetchService,
	selector SelectionService,
	renderer RenderService,
	publisher PublishService,
	sinks []port.ProgressSink,
	reporter gateway.TaskEventReporter,
	cfg *config.Config,
) PipelineService {
	return &pipelineServiceImpl{
		taskRepo:    taskRepo,
		clipRepo:    clipRepo,
		fetcher:     fetcher,
		selector:    selector,
		renderer:    renderer,
		publisher:   publisher,
		sinks:       sinks,
		reporter:    reporter,
		cfg:         cfg,
		lastPersist: make(map[string]time.Time),
	}
}

// ExecuteTask drives a task to a terminal status. Another worker holding the
// task, or a cancel arriving first, makes the call a no-op.
func (s *pipelineServiceImpl) ExecuteTask(ctx context.Context, task *entity.HighlightTaskEntity) error {
	if s.cfg == nil {
		s.cfg = config.GetGlobalConfig()
	}
	logger.Infof("start highlight task task_uuid=%s url=%s clips=%d bounds=[%.0fs,%.0fs] aspect=%s quality=%s",
		task.TaskUUID(), task.SourceURL(), task.ClipCount(),
		task.MinDurationSeconds(), task.MaxDurationSeconds(), task.Aspect(), task.Quality())
	defer s.clearProgressThrottle(task.TaskUUID())

	// The status row is the claim. Losing the swap means another worker or a
	// cancel got there first.
	claimed, err := s.taskRepo.CompareAndSetStatus(ctx, task.TaskUUID(), vo.TaskStatusPending, vo.TaskStatusFetching)
	if err != nil {
		return fmt.Errorf("claim task: %w", err)
	}
	if !claimed {
		logger.Infof("task already claimed or cancelled, skipping task_uuid=%s", task.TaskUUID())
		return nil
	}
	if err := task.BeginFetching(); err != nil {
		return err
	}
	task.SetProgress(progressClaimed)
	task.SetStageMessage("fetching source")
	if err := s.persistTransition(ctx, task, vo.TaskStatusPending); err != nil {
		return err
	}

	asset, err := s.fetchWithRetry(ctx, task)
	if err != nil {
		return s.failTask(ctx, task, nil, "fetch", err)
	}
	if s.isCancelled(ctx, task.TaskUUID()) {
		return s.abandonCancelled(task, asset)
	}

	from := task.Status()
	if err := task.BeginSelecting(); err != nil {
		return s.failTask(ctx, task, asset, "selecting", err)
	}
	task.SetProgress(progressSelecting)
	task.SetStageMessage("selecting segments")
	if err := s.persistTransition(ctx, task, from); err != nil {
		return err
	}

	segments, err := s.selector.Select(ctx, asset, task.ClipCount(), task.MinDurationSeconds(), task.MaxDurationSeconds())
	if err != nil {
		return s.failTask(ctx, task, asset, "selection", err)
	}
	task.RecordSelection(len(segments))
	if shortfall := task.Shortfall(); shortfall > 0 {
		logger.Warnf("selector under target task_uuid=%s requested=%d selected=%d",
			task.TaskUUID(), task.ClipCount(), len(segments))
	}
	if s.isCancelled(ctx, task.TaskUUID()) {
		return s.abandonCancelled(task, asset)
	}

	from = task.Status()
	if err := task.BeginRendering(); err != nil {
		return s.failTask(ctx, task, asset, "rendering", err)
	}
	task.SetProgress(progressSelected)
	task.SetStageMessage("rendering clips")
	if err := s.persistTransition(ctx, task, from); err != nil {
		return err
	}

	clips, cancelled := s.renderAll(ctx, task, asset, segments)
	if cancelled {
		return s.abandonCancelled(task, asset)
	}
	rendered, failed := tallyClips(clips)
	task.RecordRenderOutcome(rendered, failed)
	if rendered == 0 {
		return s.failTask(ctx, task, asset, "rendering", fmt.Errorf("all %d clip renders failed", len(segments)))
	}
	task.SetProgress(progressRendered)

	if task.HasPublishTargets() && s.publisher != nil && s.cfg.Publish.Enabled {
		from = task.Status()
		if err := task.BeginPublishing(); err != nil {
			return s.failTask(ctx, task, asset, "publishing", err)
		}
		task.SetProgress(progressPublishing)
		task.SetStageMessage("scheduling publication")
		if err := s.persistTransition(ctx, task, from); err != nil {
			return err
		}

		// Jobs drain on their own schedule, the task does not wait for them.
		queued, err := s.publisher.EnqueueForTask(ctx, task, clips)
		if err != nil {
			logger.Errorf("publish enqueue failed task_uuid=%s error=%v", task.TaskUUID(), err)
		}
		task.SetProgress(progressEnqueued)
		logger.Infof("publish hand-off done task_uuid=%s queued=%d", task.TaskUUID(), queued)
	}

	from = task.Status()
	if err := task.Complete(); err != nil {
		return s.failTask(ctx, task, asset, "completion", err)
	}
	task.SetStageMessage("done")
	if err := s.persistTransition(ctx, task, from); err != nil {
		return err
	}
	s.reportOutcome(ctx, task, clips)
	s.cleanupAsset(asset)

	logger.Infof("highlight task finished task_uuid=%s rendered=%d failed=%d shortfall=%d",
		task.TaskUUID(), rendered, failed, task.Shortfall())
	return nil
}

// fetchWithRetry retries transient fetch failures. Unsupported URLs fail
// immediately, retrying cannot fix them.
func (s *pipelineServiceImpl) fetchWithRetry(ctx context.Context, task *entity.HighlightTaskEntity) (*vo.MediaAsset, error) {
	attempts := 0
	maxAttempts := s.cfg.Pipeline.FetchAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	var lastErr error
	for attempts < maxAttempts {
		attempts++
		asset, err := s.fetcher.Fetch(ctx, task)
		if err == nil {
			return asset, nil
		}
		lastErr = err
		if vo.IsFetchError(err, vo.FetchUnsupported) {
			return nil, err
		}
		if attempts < maxAttempts {
			logger.Warnf("fetch attempt failed, retrying task_uuid=%s attempt=%d error=%v",
				task.TaskUUID(), attempts, err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(fetchRetryDelay):
			}
		}
	}
	return nil, lastErr
}

// renderAll encodes the selected segments with bounded concurrency. Every
// segment gets a persisted clip row whether its render succeeded or not.
func (s *pipelineServiceImpl) renderAll(ctx context.Context, task *entity.HighlightTaskEntity, asset *vo.MediaAsset, segments []vo.Segment) ([]*entity.ClipEntity, bool) {
	concurrency := s.cfg.Worker.RenderConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex
	clips := make([]*entity.ClipEntity, len(segments))
	perClip := make([]int, len(segments))

	cancelled := false
	for i, seg := range segments {
		if s.isCancelled(ctx, task.TaskUUID()) {
			cancelled = true
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(index int, segment vo.Segment) {
			defer wg.Done()
			defer func() { <-sem }()
			clip := s.renderOne(ctx, task, asset, index, segment, func(percent int) {
				mu.Lock()
				if percent > perClip[index] {
					perClip[index] = percent
				}
				overall := blendedRenderProgress(perClip)
				mu.Unlock()
				s.saveProgress(ctx, task, overall, "rendering clips")
			})
			mu.Lock()
			clips[index] = clip
			perClip[index] = 100
			overall := blendedRenderProgress(perClip)
			mu.Unlock()
			s.saveProgress(ctx, task, overall, "rendering clips")
		}(i, seg)
	}
	wg.Wait()
	return clips, cancelled
}

// renderOne encodes a single segment, retrying once when the failure is
// transient. Aspect rejections are deterministic and not retried.
func (s *pipelineServiceImpl) renderOne(ctx context.Context, task *entity.HighlightTaskEntity, asset *vo.MediaAsset, index int, seg vo.Segment, progressCb port.ProgressCallback) *entity.ClipEntity {
	clip, err := s.renderer.Render(ctx, task, asset, index, seg, progressCb)
	if err != nil && retryableRender(err) && ctx.Err() == nil {
		logger.Warnf("clip render failed, retrying once task_uuid=%s index=%d error=%v",
			task.TaskUUID(), index, err)
		clip, err = s.renderer.Render(ctx, task, asset, index, seg, progressCb)
	}
	if err != nil {
		logger.Errorf("clip render failed task_uuid=%s index=%d segment=[%.1f,%.1f] error=%v",
			task.TaskUUID(), index, seg.StartSeconds, seg.EndSeconds, err)
		clip = entity.NewClipEntity(task.TaskUUID(), index, seg, task.Aspect(), task.Quality())
		clip.MarkFailed(err.Error())
	}
	if createErr := s.clipRepo.CreateClip(ctx, clip); createErr != nil {
		logger.Errorf("persist clip failed task_uuid=%s clip_uuid=%s error=%v",
			task.TaskUUID(), clip.ClipUUID(), createErr)
	}
	return clip
}

func retryableRender(err error) bool {
	return vo.IsRenderError(err, vo.RenderEncodeFailure) || vo.IsRenderError(err, vo.RenderTimeout)
}

// blendedRenderProgress maps per-clip encode percent into the rendering
// slice of the overall progress bar
func blendedRenderProgress(perClip []int) int {
	if len(perClip) == 0 {
		return progressSelected
	}
	total := 0
	for _, p := range perClip {
		total += p
	}
	return progressSelected + total*progressRenderSpan/(len(perClip)*100)
}

func tallyClips(clips []*entity.ClipEntity) (rendered, failed int) {
	for _, c := range clips {
		if c == nil {
			continue
		}
		if c.IsRendered() {
			rendered++
		} else {
			failed++
		}
	}
	return rendered, failed
}

// isCancelled reads the live status row so an API cancel lands between
// stages even while this worker holds the stale entity
func (s *pipelineServiceImpl) isCancelled(ctx context.Context, taskUUID string) bool {
	status, err := s.taskRepo.GetTaskStatus(ctx, taskUUID)
	if err != nil {
		return false
	}
	return status == vo.TaskStatusCancelled
}

// abandonCancelled stops work on a task another writer already cancelled.
// The row is terminal, nothing more is persisted.
func (s *pipelineServiceImpl) abandonCancelled(task *entity.HighlightTaskEntity, asset *vo.MediaAsset) error {
	logger.Infof("task cancelled, abandoning pipeline task_uuid=%s stage=%s", task.TaskUUID(), task.Status())
	s.cleanupAsset(asset)
	return ErrTaskCancelled
}

func (s *pipelineServiceImpl) failTask(ctx context.Context, task *entity.HighlightTaskEntity, asset *vo.MediaAsset, stage string, cause error) error {
	from := task.Status()
	if err := task.Fail(fmt.Sprintf("%s: %v", stage, cause)); err != nil {
		logger.Errorf("mark task failed rejected task_uuid=%s status=%s error=%v",
			task.TaskUUID(), task.Status(), err)
		return cause
	}
	if err := s.taskRepo.UpdateTask(ctx, task); err != nil {
		logger.Errorf("persist failed task task_uuid=%s error=%v", task.TaskUUID(), err)
	}
	s.notifyTransition(ctx, task, from)
	s.reportOutcome(ctx, task, nil)
	s.cleanupAsset(asset)
	logger.Errorf("highlight task failed task_uuid=%s stage=%s error=%v", task.TaskUUID(), stage, cause)
	return cause
}

// persistTransition writes the full task row then fans the change out to
// the progress sinks
func (s *pipelineServiceImpl) persistTransition(ctx context.Context, task *entity.HighlightTaskEntity, from vo.TaskStatus) error {
	if err := s.taskRepo.UpdateTask(ctx, task); err != nil {
		return fmt.Errorf("persist task %s: %w", task.TaskUUID(), err)
	}
	s.notifyTransition(ctx, task, from)
	return nil
}

func (s *pipelineServiceImpl) notifyTransition(ctx context.Context, task *entity.HighlightTaskEntity, from vo.TaskStatus) {
	for _, sink := range s.sinks {
		if err := sink.SaveTransition(ctx, task, from, task.Status()); err != nil {
			logger.Warnf("progress sink transition failed task_uuid=%s error=%v", task.TaskUUID(), err)
		}
	}
}

// saveProgress persists throttled progress updates during long encodes.
// Concurrent render goroutines report through here, the lock keeps their
// writes to the shared entity serialized.
func (s *pipelineServiceImpl) saveProgress(ctx context.Context, task *entity.HighlightTaskEntity, progress int, stage string) {
	s.progressMu.Lock()
	if progress <= task.Progress() {
		s.progressMu.Unlock()
		return
	}
	task.SetProgress(progress)
	task.SetStageMessage(stage)

	last, ok := s.lastPersist[task.TaskUUID()]
	now := time.Now()
	if ok && now.Sub(last) < progressPersistInterval {
		s.progressMu.Unlock()
		return
	}
	s.lastPersist[task.TaskUUID()] = now
	s.progressMu.Unlock()

	for _, sink := range s.sinks {
		if err := sink.SaveProgress(ctx, task, task.Progress()); err != nil {
			logger.Warnf("progress sink failed task_uuid=%s error=%v", task.TaskUUID(), err)
		}
	}
}

func (s *pipelineServiceImpl) clearProgressThrottle(taskUUID string) {
	s.progressMu.Lock()
	delete(s.lastPersist, taskUUID)
	s.progressMu.Unlock()
}

func (s *pipelineServiceImpl) reportOutcome(ctx context.Context, task *entity.HighlightTaskEntity, clips []*entity.ClipEntity) {
	result := BuildTaskResult(task, clips)
	if err := result.ReportOutcome(ctx, s.reporter); err != nil {
		logger.Warnf("result report failed task_uuid=%s error=%v", task.TaskUUID(), err)
	}
}

// cleanupAsset removes the working copy of the source unless caching keeps it
func (s *pipelineServiceImpl) cleanupAsset(asset *vo.MediaAsset) {
	if asset == nil || asset.Cached || asset.LocalPath == "" {
		return
	}
	if err := os.Remove(asset.LocalPath); err != nil && !os.IsNotExist(err) {
		logger.Warnf("failed to clean source file path=%s error=%v", asset.LocalPath, err)
	}
}

// BuildTaskResult assembles the externally visible outcome of a task
func BuildTaskResult(task *entity.HighlightTaskEntity, clips []*entity.ClipEntity) vo.TaskResult {
	result := vo.NewTaskResult(task.TaskUUID(), task.UserUUID(), task.Status())
	result.RequestedClips = task.ClipCount()
	result.SelectedCount = task.SelectedCount()
	result.RenderedCount = task.RenderedCount()
	result.FailedCount = task.FailedCount()
	result.ErrorMessage = task.ErrorMessage()
	for _, c := range clips {
		if c == nil {
			continue
		}
		result.Clips = append(result.Clips, vo.ClipOutcome{
			ClipUUID:        c.ClipUUID(),
			Index:           c.Index(),
			StartSeconds:    c.StartSeconds(),
			EndSeconds:      c.EndSeconds(),
			Rendered:        c.IsRendered(),
			PublicURL:       c.PublicURL(),
			DurationSeconds: c.DurationSeconds(),
			ErrorMessage:    c.ErrorMessage(),
		})
	}
	return result
}
