package port

import (
	"context"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/vo"
)

// ProgressSink persists or forwards task progress updates.
type ProgressSink interface {
	SaveProgress(ctx context.Context, task *entity.HighlightTaskEntity, progress int) error

	// SaveTransition records a status change of the task.
	SaveTransition(ctx context.Context, task *entity.HighlightTaskEntity, from, to vo.TaskStatus) error
}
