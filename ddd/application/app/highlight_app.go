package app

import (
	"context"
	"sync"

	"highlight-service/ddd/application/cqe"
	"highlight-service/ddd/application/dto"
	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/repo"
	"highlight-service/ddd/domain/vo"
	"highlight-service/ddd/infrastructure/database/persistence"
	"highlight-service/ddd/infrastructure/queue"
	"highlight-service/pkg/assert"
	"highlight-service/pkg/config"
	"highlight-service/pkg/errno"
	"highlight-service/pkg/logger"
)

// cancelRetryAttempts bounds the CAS loop racing the pipeline's own
// stage transitions
const cancelRetryAttempts = 3

var (
	singleHighlightApp HighlightApp
	onceHighlightApp   sync.Once
)

// HighlightApp application service for highlight task submission and queries
type HighlightApp interface {
	// SubmitTask validates, persists and enqueues a new task
	SubmitTask(ctx context.Context, req *cqe.SubmitTaskCqe) (*dto.HighlightTaskDto, error)

	// GetTask returns the full task view
	GetTask(ctx context.Context, taskUUID string) (*dto.HighlightTaskDto, error)

	// GetTaskProgress returns the compact progress view
	GetTaskProgress(ctx context.Context, taskUUID string) (*dto.TaskProgressDto, error)

	// GetTaskResult returns the aggregated outcome of a terminal task
	GetTaskResult(ctx context.Context, taskUUID string) (*dto.TaskResultDto, error)

	// CancelTask requests cooperative cancellation
	CancelTask(ctx context.Context, taskUUID string) error

	// ListTasks pages through a user's tasks, newest first
	ListTasks(ctx context.Context, userUUID string, page, size int) (*dto.HighlightTaskListDto, error)
}

type highlightAppImpl struct {
	taskRepo  repo.HighlightTaskRepository
	clipRepo  repo.ClipRepository
	jobRepo   repo.PublishJobRepository
	taskQueue queue.TaskQueue
	cfg       *config.Config
}

// DefaultHighlightApp returns the singleton wired against the default
// repositories and queue
func DefaultHighlightApp() HighlightApp {
	assert.NotCircular()
	onceHighlightApp.Do(func() {
		singleHighlightApp = NewHighlightAppWith(
			persistence.NewHighlightTaskRepository(),
			persistence.NewHighlightClipRepository(),
			persistence.NewPublishJobRepository(),
			queue.DefaultTaskQueue(),
			config.GetGlobalConfig(),
		)
	})
	assert.NotNil(singleHighlightApp)
	return singleHighlightApp
}

// NewHighlightAppWith builds the app service with explicit collaborators
func NewHighlightAppWith(taskRepo repo.HighlightTaskRepository, clipRepo repo.ClipRepository, jobRepo repo.PublishJobRepository, q queue.TaskQueue, cfg *config.Config) HighlightApp {
	return &highlightAppImpl{
		taskRepo:  taskRepo,
		clipRepo:  clipRepo,
		jobRepo:   jobRepo,
		taskQueue: q,
		cfg:       cfg,
	}
}

func (a *highlightAppImpl) SubmitTask(ctx context.Context, req *cqe.SubmitTaskCqe) (*dto.HighlightTaskDto, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Redelivered submissions carry their own UUID, return the stored row.
	if req.TaskUUID != "" {
		if existing, err := a.taskRepo.GetTaskByUUID(ctx, req.TaskUUID); err == nil && existing != nil {
			return dto.NewHighlightTaskDto(existing), nil
		}
	}

	outputDir := ""
	if a.cfg != nil {
		outputDir = a.cfg.Pipeline.OutputDir
	}

	task := entity.NewHighlightTaskEntity(
		req.TaskUUID,
		req.UserUUID,
		req.SourceURL,
		req.ClipCount,
		req.MinDurationSeconds,
		req.MaxDurationSeconds,
		vo.AspectMode(req.Aspect),
		vo.QualityTier(req.Quality),
		outputDir,
	)
	task.SetPublishTargets(req.Targets())
	task.SetPublishMeta(req.Metadata())
	task.SetCallbackURL(req.CallbackURL)

	if err := a.taskRepo.CreateTask(ctx, task); err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}

	if err := a.taskQueue.Enqueue(ctx, task); err != nil {
		logger.Errorf("task enqueue failed task_uuid=%s error=%v", task.TaskUUID(), err)
		if failErr := task.Fail("enqueue failed: " + err.Error()); failErr == nil {
			_ = a.taskRepo.UpdateTask(ctx, task)
		}
		return nil, errno.ErrQueueFull
	}

	logger.Infof("highlight task submitted task_uuid=%s user_uuid=%s url=%s clips=%d",
		task.TaskUUID(), task.UserUUID(), task.SourceURL(), task.ClipCount())
	return dto.NewHighlightTaskDto(task), nil
}

func (a *highlightAppImpl) GetTask(ctx context.Context, taskUUID string) (*dto.HighlightTaskDto, error) {
	task, err := a.loadTask(ctx, taskUUID)
	if err != nil {
		return nil, err
	}
	return dto.NewHighlightTaskDto(task), nil
}

func (a *highlightAppImpl) GetTaskProgress(ctx context.Context, taskUUID string) (*dto.TaskProgressDto, error) {
	task, err := a.loadTask(ctx, taskUUID)
	if err != nil {
		return nil, err
	}
	return dto.NewTaskProgressDto(task), nil
}

func (a *highlightAppImpl) GetTaskResult(ctx context.Context, taskUUID string) (*dto.TaskResultDto, error) {
	task, err := a.loadTask(ctx, taskUUID)
	if err != nil {
		return nil, err
	}
	if !task.IsTerminal() {
		return nil, errno.ErrTaskNotReady
	}

	clips, err := a.clipRepo.GetClipsByTask(ctx, taskUUID)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}

	var jobs []*entity.PublishJobEntity
	if task.HasPublishTargets() && a.jobRepo != nil {
		jobs, err = a.jobRepo.GetJobsByTask(ctx, taskUUID)
		if err != nil {
			return nil, errno.NewBizError(errno.ErrDatabase, err)
		}
	}
	return dto.NewTaskResultDto(task, clips, jobs), nil
}

// CancelTask flips the status row to cancelled. The pipeline observes the
// row between stages, in-flight work finishes on its own.
func (a *highlightAppImpl) CancelTask(ctx context.Context, taskUUID string) error {
	if taskUUID == "" {
		return errno.ErrTaskUUIDRequired
	}

	for attempt := 0; attempt < cancelRetryAttempts; attempt++ {
		status, err := a.taskRepo.GetTaskStatus(ctx, taskUUID)
		if err != nil {
			return errno.NewBizError(errno.ErrDatabase, err)
		}
		if status == "" {
			return errno.ErrTaskNotFound
		}
		if status.IsFinalStatus() {
			return errno.ErrTaskAlreadyDone
		}

		swapped, err := a.taskRepo.CompareAndSetStatus(ctx, taskUUID, status, vo.TaskStatusCancelled)
		if err != nil {
			return errno.NewBizError(errno.ErrDatabase, err)
		}
		if swapped {
			logger.Infof("highlight task cancelled task_uuid=%s was=%s", taskUUID, status)
			return nil
		}
		// The pipeline moved the task between read and swap, re-read.
	}
	return errno.ErrTaskAlreadyDone
}

func (a *highlightAppImpl) ListTasks(ctx context.Context, userUUID string, page, size int) (*dto.HighlightTaskListDto, error) {
	if userUUID == "" {
		return nil, errno.ErrUserUUIDRequired
	}
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}

	offset := (page - 1) * size
	tasks, err := a.taskRepo.GetTasksByUser(ctx, userUUID, size, offset)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	total, err := a.taskRepo.CountTasksByUser(ctx, userUUID)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return dto.NewHighlightTaskListDto(tasks, total, page, size), nil
}

func (a *highlightAppImpl) loadTask(ctx context.Context, taskUUID string) (*entity.HighlightTaskEntity, error) {
	if taskUUID == "" {
		return nil, errno.ErrTaskUUIDRequired
	}
	task, err := a.taskRepo.GetTaskByUUID(ctx, taskUUID)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	if task == nil {
		return nil, errno.ErrTaskNotFound
	}
	return task, nil
}
