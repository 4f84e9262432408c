package repo

import (
	"context"
	"time"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/vo"
)

// PublishJobRepository persistence port for publish jobs
type PublishJobRepository interface {
	// CreateJob inserts a queued job
	CreateJob(ctx context.Context, job *entity.PublishJobEntity) error

	// GetJobByUUID loads a job by its UUID
	GetJobByUUID(ctx context.Context, jobUUID string) (*entity.PublishJobEntity, error)

	// GetJobsByTask lists the jobs belonging to a task
	GetJobsByTask(ctx context.Context, taskUUID string) ([]*entity.PublishJobEntity, error)

	// UpdateJob writes the mutable state of a job
	UpdateJob(ctx context.Context, job *entity.PublishJobEntity) error

	// QueryDueJobs lists queued jobs of one platform whose scheduled time has
	// passed, strictly in scheduled-time order
	QueryDueJobs(ctx context.Context, platform string, now time.Time, limit int) ([]*entity.PublishJobEntity, error)

	// QueryJobsByStatus lists jobs in a status, least recently updated first
	QueryJobsByStatus(ctx context.Context, status vo.PublishStatus, limit int) ([]*entity.PublishJobEntity, error)

	// CompareAndSetStatus transitions status only when the stored value still
	// matches from. Guards each job against concurrent drain loops.
	CompareAndSetStatus(ctx context.Context, jobUUID string, from, to vo.PublishStatus) (bool, error)

	// CountPendingByTask counts the non-terminal jobs of a task
	CountPendingByTask(ctx context.Context, taskUUID string) (int64, error)

	// CountJobsByStatus counts jobs in a status
	CountJobsByStatus(ctx context.Context, status vo.PublishStatus) (int64, error)
}
