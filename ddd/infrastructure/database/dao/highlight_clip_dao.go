package dao

import (
	"context"

	"gorm.io/gorm"

	"highlight-service/ddd/infrastructure/database/po"
	"highlight-service/internal/resource"
)

type HighlightClipDAO struct {
	db *gorm.DB
}

func NewHighlightClipDAO() *HighlightClipDAO {
	return &HighlightClipDAO{db: resource.DefaultMysqlResource().MainDB()}
}

func (d *HighlightClipDAO) Create(ctx context.Context, clip *po.HighlightClip) error {
	return d.db.WithContext(ctx).Model(&po.HighlightClip{}).Create(clip).Error
}

func (d *HighlightClipDAO) FindByClipUUID(ctx context.Context, clipUUID string) (*po.HighlightClip, error) {
	var clip po.HighlightClip
	if err := d.db.WithContext(ctx).Where("clip_uuid = ?", clipUUID).First(&clip).Error; err != nil {
		return nil, err
	}
	return &clip, nil
}

func (d *HighlightClipDAO) FindByTaskUUID(ctx context.Context, taskUUID string) ([]*po.HighlightClip, error) {
	var clips []*po.HighlightClip
	err := d.db.WithContext(ctx).Where("task_uuid = ?", taskUUID).
		Order("clip_index ASC").Find(&clips).Error
	if err != nil {
		return nil, err
	}
	return clips, nil
}

func (d *HighlightClipDAO) Update(ctx context.Context, clip *po.HighlightClip) error {
	return d.db.WithContext(ctx).Model(&po.HighlightClip{}).
		Where("clip_uuid = ?", clip.ClipUUID).Updates(clip).Error
}
