package repo

import (
	"context"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/vo"
)

// HighlightTaskRepository persistence port for highlight tasks
type HighlightTaskRepository interface {
	// CreateTask inserts a new task
	CreateTask(ctx context.Context, task *entity.HighlightTaskEntity) error

	// GetTaskByUUID loads a task by its UUID
	GetTaskByUUID(ctx context.Context, taskUUID string) (*entity.HighlightTaskEntity, error)

	// GetTaskStatus reads only the current status, for cheap cancellation checks
	GetTaskStatus(ctx context.Context, taskUUID string) (vo.TaskStatus, error)

	// GetTasksByUser pages through a user's tasks, newest first
	GetTasksByUser(ctx context.Context, userUUID string, limit, offset int) ([]*entity.HighlightTaskEntity, error)

	// CountTasksByUser counts a user's tasks for paging
	CountTasksByUser(ctx context.Context, userUUID string) (int64, error)

	// UpdateTask writes the full mutable state of a task
	UpdateTask(ctx context.Context, task *entity.HighlightTaskEntity) error

	// UpdateTaskProgress writes progress and stage message only
	UpdateTaskProgress(ctx context.Context, taskUUID string, progress int, stageMessage string) error

	// CompareAndSetStatus transitions status only when the stored value still
	// matches from. Returns false when another writer moved the task first.
	CompareAndSetStatus(ctx context.Context, taskUUID string, from, to vo.TaskStatus) (bool, error)

	// QueryTasksByStatus lists tasks in a status, oldest first
	QueryTasksByStatus(ctx context.Context, status vo.TaskStatus, limit int) ([]*entity.HighlightTaskEntity, error)

	// CountTasksByStatus counts tasks in a status
	CountTasksByStatus(ctx context.Context, status vo.TaskStatus) (int64, error)

	// GetTaskStatistics aggregates counts across all statuses
	GetTaskStatistics(ctx context.Context) (*TaskStatistics, error)
}

// TaskStatistics per-status task counts
type TaskStatistics struct {
	TotalTasks      int64 `json:"total_tasks"`
	PendingTasks    int64 `json:"pending_tasks"`
	FetchingTasks   int64 `json:"fetching_tasks"`
	SelectingTasks  int64 `json:"selecting_tasks"`
	RenderingTasks  int64 `json:"rendering_tasks"`
	PublishingTasks int64 `json:"publishing_tasks"`
	CompletedTasks  int64 `json:"completed_tasks"`
	FailedTasks     int64 `json:"failed_tasks"`
	CancelledTasks  int64 `json:"cancelled_tasks"`
}
