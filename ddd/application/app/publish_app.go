package app

import (
	"context"
	"sync"

	"highlight-service/ddd/application/cqe"
	"highlight-service/ddd/application/dto"
	"highlight-service/ddd/domain/repo"
	"highlight-service/ddd/domain/service"
	"highlight-service/ddd/infrastructure/database/persistence"
	"highlight-service/ddd/infrastructure/publisher"
	"highlight-service/pkg/assert"
	"highlight-service/pkg/config"
	"highlight-service/pkg/errno"
)

var (
	singlePublishApp PublishApp
	oncePublishApp   sync.Once
)

// PublishApp application service for manual publish job management
type PublishApp interface {
	// EnqueueClip queues one rendered clip for one platform
	EnqueueClip(ctx context.Context, req *cqe.EnqueuePublishReq) (*dto.PublishJobDto, error)

	// GetJob returns one publish job
	GetJob(ctx context.Context, jobUUID string) (*dto.PublishJobDto, error)

	// ListJobsByTask returns the publish jobs of a task
	ListJobsByTask(ctx context.Context, taskUUID string) (*dto.PublishJobListDto, error)
}

type publishAppImpl struct {
	jobRepo        repo.PublishJobRepository
	clipRepo       repo.ClipRepository
	taskRepo       repo.HighlightTaskRepository
	publishService service.PublishService
}

// DefaultPublishApp returns the singleton wired against the default
// repositories and the configured platform registry
func DefaultPublishApp() PublishApp {
	assert.NotCircular()
	oncePublishApp.Do(func() {
		cfg := config.GetGlobalConfig()
		jobRepo := persistence.NewPublishJobRepository()
		clipRepo := persistence.NewHighlightClipRepository()
		taskRepo := persistence.NewHighlightTaskRepository()
		publishers := publisher.BuildRegistry(cfg)
		publishService := service.NewPublishService(jobRepo, clipRepo, taskRepo, publishers, cfg)
		singlePublishApp = NewPublishAppWith(jobRepo, clipRepo, taskRepo, publishService)
	})
	assert.NotNil(singlePublishApp)
	return singlePublishApp
}

// NewPublishAppWith builds the app service with explicit collaborators
func NewPublishAppWith(jobRepo repo.PublishJobRepository, clipRepo repo.ClipRepository, taskRepo repo.HighlightTaskRepository, publishService service.PublishService) PublishApp {
	return &publishAppImpl{
		jobRepo:        jobRepo,
		clipRepo:       clipRepo,
		taskRepo:       taskRepo,
		publishService: publishService,
	}
}

func (a *publishAppImpl) EnqueueClip(ctx context.Context, req *cqe.EnqueuePublishReq) (*dto.PublishJobDto, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	clip, err := a.clipRepo.GetClipByUUID(ctx, req.ClipUUID)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	if clip == nil {
		return nil, errno.ErrClipNotFound
	}

	task, err := a.taskRepo.GetTaskByUUID(ctx, clip.TaskUUID())
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	if task == nil {
		return nil, errno.ErrTaskNotFound
	}

	job, err := a.publishService.EnqueueClip(ctx, task, clip, req.Platform, req.ScheduledTime)
	if err != nil {
		return nil, err
	}
	return dto.NewPublishJobDto(job), nil
}

func (a *publishAppImpl) GetJob(ctx context.Context, jobUUID string) (*dto.PublishJobDto, error) {
	if jobUUID == "" {
		return nil, errno.ErrJobUUIDRequired
	}
	job, err := a.jobRepo.GetJobByUUID(ctx, jobUUID)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	if job == nil {
		return nil, errno.ErrPublishJobNotFound
	}
	return dto.NewPublishJobDto(job), nil
}

func (a *publishAppImpl) ListJobsByTask(ctx context.Context, taskUUID string) (*dto.PublishJobListDto, error) {
	if taskUUID == "" {
		return nil, errno.ErrTaskUUIDRequired
	}
	jobs, err := a.jobRepo.GetJobsByTask(ctx, taskUUID)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return dto.NewPublishJobListDto(jobs), nil
}
