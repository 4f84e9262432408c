package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/repo"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"
	"highlight-service/pkg/errno"
	"highlight-service/pkg/logger"
)

// optimalSlotMinuteSpread scheduled minutes are spread inside the chosen
// hour so accounts do not all post at :00
const optimalSlotMinuteSpread = 30

// PublishService validates, schedules and dispatches publish jobs
type PublishService interface {
	// EnqueueClip queues one clip for one platform, rejecting constraint
	// violations outright
	EnqueueClip(ctx context.Context, task *entity.HighlightTaskEntity, clip *entity.ClipEntity, platform string, scheduledTime *time.Time) (*entity.PublishJobEntity, error)

	// EnqueueForTask queues every rendered clip of the task for each of its
	// publish targets. Constraint violations become failed_permanent rows
	// instead of errors, publishing never fails the task.
	EnqueueForTask(ctx context.Context, task *entity.HighlightTaskEntity, clips []*entity.ClipEntity) (int, error)

	// DispatchJob performs one attempt of a due job and settles its state
	DispatchJob(ctx context.Context, job *entity.PublishJobEntity) error

	// NextOptimalSlot picks the next posting slot for a platform after now
	NextOptimalSlot(platform string, now time.Time) time.Time

	// Backoff computes the requeue delay after the given attempt count
	Backoff(attempts int) time.Duration
}

type publishServiceImpl struct {
	jobRepo    repo.PublishJobRepository
	clipRepo   repo.ClipRepository
	taskRepo   repo.HighlightTaskRepository
	publishers *port.PublisherRegistry
	cfg        *config.Config
}

// NewPublishService creates the publish scheduler core
func NewPublishService(jobRepo repo.PublishJobRepository, clipRepo repo.ClipRepository, taskRepo repo.HighlightTaskRepository, publishers *port.PublisherRegistry, cfg *config.Config) PublishService {
	return &publishServiceImpl{
		jobRepo:    jobRepo,
		clipRepo:   clipRepo,
		taskRepo:   taskRepo,
		publishers: publishers,
		cfg:        cfg,
	}
}

func (s *publishServiceImpl) EnqueueClip(ctx context.Context, task *entity.HighlightTaskEntity, clip *entity.ClipEntity, platform string, scheduledTime *time.Time) (*entity.PublishJobEntity, error) {
	if s.cfg == nil {
		s.cfg = config.GetGlobalConfig()
	}
	spec, ok := vo.GetPlatformSpec(platform)
	if !ok {
		return nil, errno.ErrUnknownPlatform
	}
	if !clip.IsRendered() {
		return nil, errno.ErrClipNotRendered
	}
	if err := spec.ValidateClip(clip.Aspect(), clip.DurationSeconds()); err != nil {
		return nil, errno.NewBizError(errno.ErrPlatformConstraint, err)
	}

	when := s.resolveSchedule(platform, scheduledTime)
	job := entity.NewPublishJobEntity(task.TaskUUID(), clip.ClipUUID(), platform, when, s.cfg.Publish.MaxAttempts)
	if err := s.jobRepo.CreateJob(ctx, job); err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	logger.Infof("publish job queued job_uuid=%s clip_uuid=%s platform=%s scheduled=%s",
		job.JobUUID(), clip.ClipUUID(), platform, when.Format(time.RFC3339))
	return job, nil
}

func (s *publishServiceImpl) EnqueueForTask(ctx context.Context, task *entity.HighlightTaskEntity, clips []*entity.ClipEntity) (int, error) {
	if s.cfg == nil {
		s.cfg = config.GetGlobalConfig()
	}
	queued := 0
	for _, target := range task.PublishTargets() {
		spec, ok := vo.GetPlatformSpec(target.Platform)
		for _, clip := range clips {
			if !clip.IsRendered() {
				continue
			}
			if !ok {
				rejected := entity.NewRejectedPublishJobEntity(task.TaskUUID(), clip.ClipUUID(), target.Platform,
					fmt.Sprintf("unknown platform %q", target.Platform))
				if err := s.jobRepo.CreateJob(ctx, rejected); err != nil {
					return queued, err
				}
				continue
			}
			if err := spec.ValidateClip(clip.Aspect(), clip.DurationSeconds()); err != nil {
				rejected := entity.NewRejectedPublishJobEntity(task.TaskUUID(), clip.ClipUUID(), target.Platform, err.Error())
				if createErr := s.jobRepo.CreateJob(ctx, rejected); createErr != nil {
					return queued, createErr
				}
				logger.Warnf("publish target rejected task_uuid=%s clip_uuid=%s platform=%s reason=%s",
					task.TaskUUID(), clip.ClipUUID(), target.Platform, err.Error())
				continue
			}

			when := s.resolveSchedule(target.Platform, target.ScheduledTime)
			job := entity.NewPublishJobEntity(task.TaskUUID(), clip.ClipUUID(), target.Platform, when, s.cfg.Publish.MaxAttempts)
			if err := s.jobRepo.CreateJob(ctx, job); err != nil {
				return queued, err
			}
			queued++
		}
	}
	logger.Infof("publish jobs enqueued task_uuid=%s queued=%d targets=%d clips=%d",
		task.TaskUUID(), queued, len(task.PublishTargets()), len(clips))
	return queued, nil
}

// DispatchJob runs one attempt. The repository CAS keeps concurrent drain
// loops from double-dispatching the same job.
func (s *publishServiceImpl) DispatchJob(ctx context.Context, job *entity.PublishJobEntity) error {
	if s.cfg == nil {
		s.cfg = config.GetGlobalConfig()
	}
	swapped, err := s.jobRepo.CompareAndSetStatus(ctx, job.JobUUID(), vo.PublishStatusQueued, vo.PublishStatusInFlight)
	if err != nil {
		return err
	}
	if !swapped {
		return nil
	}
	if err := job.BeginAttempt(); err != nil {
		return err
	}
	if err := s.jobRepo.UpdateJob(ctx, job); err != nil {
		return err
	}

	result, pubErr := s.attempt(ctx, job)
	if pubErr == nil {
		if err := job.Succeed(result.PublishedURL); err != nil {
			return err
		}
		logger.Infof("publish succeeded job_uuid=%s platform=%s attempts=%d url=%s",
			job.JobUUID(), job.Platform(), job.Attempts(), result.PublishedURL)
		return s.jobRepo.UpdateJob(ctx, job)
	}

	if vo.IsRetryablePublishError(pubErr) {
		if err := job.FailRetryable(pubErr.Error()); err != nil {
			return err
		}
		if job.CanRetry() {
			delay := s.Backoff(job.Attempts())
			if err := job.Requeue(time.Now().Add(delay)); err != nil {
				return err
			}
			logger.Warnf("publish failed, retrying job_uuid=%s platform=%s attempts=%d delay=%s error=%v",
				job.JobUUID(), job.Platform(), job.Attempts(), delay, pubErr)
		} else {
			if err := job.FailPermanent(pubErr.Error()); err != nil {
				return err
			}
			logger.Errorf("publish failed permanently, budget exhausted job_uuid=%s platform=%s attempts=%d error=%v",
				job.JobUUID(), job.Platform(), job.Attempts(), pubErr)
		}
		return s.jobRepo.UpdateJob(ctx, job)
	}

	if err := job.FailPermanent(pubErr.Error()); err != nil {
		return err
	}
	logger.Errorf("publish failed permanently job_uuid=%s platform=%s attempts=%d error=%v",
		job.JobUUID(), job.Platform(), job.Attempts(), pubErr)
	return s.jobRepo.UpdateJob(ctx, job)
}

// attempt builds the request context and calls the platform adapter
func (s *publishServiceImpl) attempt(ctx context.Context, job *entity.PublishJobEntity) (*port.PublishResult, error) {
	publisher, ok := s.publishers.Get(job.Platform())
	if !ok {
		return nil, vo.NewPublishError(false, job.Platform(), 0, fmt.Errorf("no publisher registered"))
	}

	clip, err := s.clipRepo.GetClipByUUID(ctx, job.ClipUUID())
	if err != nil {
		return nil, vo.NewPublishError(true, job.Platform(), 0, fmt.Errorf("load clip: %w", err))
	}
	if clip == nil {
		return nil, vo.NewPublishError(false, job.Platform(), 0, fmt.Errorf("clip %s not found", job.ClipUUID()))
	}

	req := &port.PublishRequest{
		JobUUID:         job.JobUUID(),
		TaskUUID:        job.TaskUUID(),
		ClipUUID:        clip.ClipUUID(),
		Platform:        job.Platform(),
		MediaURL:        clip.PublicURL(),
		LocalPath:       clip.LocalPath(),
		DurationSeconds: clip.DurationSeconds(),
		Aspect:          clip.Aspect(),
	}
	if task, err := s.taskRepo.GetTaskByUUID(ctx, job.TaskUUID()); err == nil && task != nil {
		meta := task.PublishMeta()
		req.Title = meta.Title
		req.Description = meta.Description
		req.Tags = meta.Tags
	}

	return publisher.Publish(ctx, req)
}

// resolveSchedule uses the caller's time when given, otherwise the next
// optimal platform slot
func (s *publishServiceImpl) resolveSchedule(platform string, scheduledTime *time.Time) time.Time {
	if scheduledTime != nil {
		return *scheduledTime
	}
	return s.NextOptimalSlot(platform, time.Now())
}

// NextOptimalSlot returns the earliest configured posting hour after now,
// rolling to the next day when today's slots have passed. Minutes are
// randomized inside the hour.
func (s *publishServiceImpl) NextOptimalSlot(platform string, now time.Time) time.Time {
	hours := s.optimalHours(platform)
	minute := rand.Intn(optimalSlotMinuteSpread)

	for _, h := range hours {
		candidate := time.Date(now.Year(), now.Month(), now.Day(), h, minute, 0, 0, now.Location())
		if candidate.After(now) {
			return candidate
		}
	}
	// All of today's slots are in the past, take tomorrow's first.
	next := now.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(), hours[0], minute, 0, 0, now.Location())
}

func (s *publishServiceImpl) optimalHours(platform string) []int {
	if s.cfg == nil {
		s.cfg = config.GetGlobalConfig()
	}
	if pc, ok := s.cfg.Publish.Platforms[platform]; ok && len(pc.OptimalHours) > 0 {
		hours := append([]int(nil), pc.OptimalHours...)
		sort.Ints(hours)
		return hours
	}
	if spec, ok := vo.GetPlatformSpec(platform); ok && len(spec.DefaultHours) > 0 {
		hours := append([]int(nil), spec.DefaultHours...)
		sort.Ints(hours)
		return hours
	}
	return []int{12, 18, 21}
}

// Backoff grows exponentially with the attempt count, capped, with up to
// one extra base interval of jitter.
func (s *publishServiceImpl) Backoff(attempts int) time.Duration {
	if s.cfg == nil {
		s.cfg = config.GetGlobalConfig()
	}
	base := s.cfg.Publish.BackoffBase
	ceiling := s.cfg.Publish.BackoffCap
	if attempts > 20 {
		attempts = 20
	}
	delay := base << uint(attempts)
	if delay > ceiling || delay <= 0 {
		delay = ceiling
	}
	jitter := time.Duration(rand.Int63n(int64(base)))
	return delay + jitter
}
