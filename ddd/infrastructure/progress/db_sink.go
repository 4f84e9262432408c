package progress

import (
	"context"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/repo"
	"highlight-service/ddd/domain/vo"
)

// DBSink writes progress to the task repository. Status transitions are
// persisted by the orchestrator itself, so only progress lands here.
type DBSink struct {
	repo repo.HighlightTaskRepository
}

func NewDBSink(r repo.HighlightTaskRepository) port.ProgressSink {
	return &DBSink{repo: r}
}

func (s *DBSink) SaveProgress(ctx context.Context, task *entity.HighlightTaskEntity, progress int) error {
	if s.repo == nil || task == nil {
		return nil
	}
	return s.repo.UpdateTaskProgress(ctx, task.TaskUUID(), progress, task.StageMessage())
}

func (s *DBSink) SaveTransition(_ context.Context, _ *entity.HighlightTaskEntity, _, _ vo.TaskStatus) error {
	return nil
}
