package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/repo"
	"highlight-service/ddd/domain/vo"
	"highlight-service/ddd/infrastructure/database/convertor"
	"highlight-service/ddd/infrastructure/database/dao"
)

type highlightTaskRepositoryImpl struct {
	taskDao   *dao.HighlightTaskDAO
	convertor *convertor.HighlightTaskConvertor
}

func NewHighlightTaskRepository() repo.HighlightTaskRepository {
	return &highlightTaskRepositoryImpl{
		taskDao:   dao.NewHighlightTaskDAO(),
		convertor: convertor.NewHighlightTaskConvertor(),
	}
}

func (r *highlightTaskRepositoryImpl) CreateTask(ctx context.Context, task *entity.HighlightTaskEntity) error {
	taskPo := r.convertor.ToPO(task)
	if err := r.taskDao.Create(ctx, taskPo); err != nil {
		return err
	}
	task.SetID(taskPo.ID)
	return nil
}

func (r *highlightTaskRepositoryImpl) GetTaskByUUID(ctx context.Context, taskUUID string) (*entity.HighlightTaskEntity, error) {
	taskPo, err := r.taskDao.FindByTaskUUID(ctx, taskUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.convertor.ToEntity(taskPo), nil
}

func (r *highlightTaskRepositoryImpl) GetTaskStatus(ctx context.Context, taskUUID string) (vo.TaskStatus, error) {
	status, err := r.taskDao.FindStatusByTaskUUID(ctx, taskUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return vo.TaskStatus(status), nil
}

func (r *highlightTaskRepositoryImpl) GetTasksByUser(ctx context.Context, userUUID string, limit, offset int) ([]*entity.HighlightTaskEntity, error) {
	pos, err := r.taskDao.FindByUserUUID(ctx, userUUID, limit, offset)
	if err != nil {
		return nil, err
	}
	tasks := make([]*entity.HighlightTaskEntity, 0, len(pos))
	for _, p := range pos {
		tasks = append(tasks, r.convertor.ToEntity(p))
	}
	return tasks, nil
}

func (r *highlightTaskRepositoryImpl) CountTasksByUser(ctx context.Context, userUUID string) (int64, error) {
	return r.taskDao.CountByUserUUID(ctx, userUUID)
}

func (r *highlightTaskRepositoryImpl) UpdateTask(ctx context.Context, task *entity.HighlightTaskEntity) error {
	return r.taskDao.Update(ctx, r.convertor.ToPO(task))
}

func (r *highlightTaskRepositoryImpl) UpdateTaskProgress(ctx context.Context, taskUUID string, progress int, stageMessage string) error {
	return r.taskDao.UpdateProgress(ctx, taskUUID, progress, stageMessage)
}

func (r *highlightTaskRepositoryImpl) CompareAndSetStatus(ctx context.Context, taskUUID string, from, to vo.TaskStatus) (bool, error) {
	return r.taskDao.CompareAndSwapStatus(ctx, taskUUID, from.String(), to.String())
}

func (r *highlightTaskRepositoryImpl) QueryTasksByStatus(ctx context.Context, status vo.TaskStatus, limit int) ([]*entity.HighlightTaskEntity, error) {
	pos, err := r.taskDao.QueryByStatus(ctx, status.String(), limit)
	if err != nil {
		return nil, err
	}
	tasks := make([]*entity.HighlightTaskEntity, 0, len(pos))
	for _, p := range pos {
		tasks = append(tasks, r.convertor.ToEntity(p))
	}
	return tasks, nil
}

func (r *highlightTaskRepositoryImpl) CountTasksByStatus(ctx context.Context, status vo.TaskStatus) (int64, error) {
	return r.taskDao.CountByStatus(ctx, status.String())
}

func (r *highlightTaskRepositoryImpl) GetTaskStatistics(ctx context.Context) (*repo.TaskStatistics, error) {
	counts, err := r.taskDao.CountGroupedByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := &repo.TaskStatistics{
		PendingTasks:    counts[vo.TaskStatusPending.String()],
		FetchingTasks:   counts[vo.TaskStatusFetching.String()],
		SelectingTasks:  counts[vo.TaskStatusSelecting.String()],
		RenderingTasks:  counts[vo.TaskStatusRendering.String()],
		PublishingTasks: counts[vo.TaskStatusPublishing.String()],
		CompletedTasks:  counts[vo.TaskStatusCompleted.String()],
		FailedTasks:     counts[vo.TaskStatusFailed.String()],
		CancelledTasks:  counts[vo.TaskStatusCancelled.String()],
	}
	for _, c := range counts {
		stats.TotalTasks += c
	}
	return stats, nil
}
