package repo

import (
	"context"

	"highlight-service/ddd/domain/entity"
)

// ClipRepository persistence port for rendered clips
type ClipRepository interface {
	// CreateClip inserts a clip row
	CreateClip(ctx context.Context, clip *entity.ClipEntity) error

	// GetClipByUUID loads a clip by its UUID
	GetClipByUUID(ctx context.Context, clipUUID string) (*entity.ClipEntity, error)

	// GetClipsByTask lists the clips of a task ordered by clip index
	GetClipsByTask(ctx context.Context, taskUUID string) ([]*entity.ClipEntity, error)

	// UpdateClip writes the mutable state of a clip
	UpdateClip(ctx context.Context, clip *entity.ClipEntity) error
}
