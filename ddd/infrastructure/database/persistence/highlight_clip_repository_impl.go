package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/repo"
	"highlight-service/ddd/infrastructure/database/convertor"
	"highlight-service/ddd/infrastructure/database/dao"
)

type highlightClipRepositoryImpl struct {
	clipDao   *dao.HighlightClipDAO
	convertor *convertor.HighlightClipConvertor
}

func NewHighlightClipRepository() repo.ClipRepository {
	return &highlightClipRepositoryImpl{
		clipDao:   dao.NewHighlightClipDAO(),
		convertor: convertor.NewHighlightClipConvertor(),
	}
}

func (r *highlightClipRepositoryImpl) CreateClip(ctx context.Context, clip *entity.ClipEntity) error {
	clipPo := r.convertor.ToPO(clip)
	if err := r.clipDao.Create(ctx, clipPo); err != nil {
		return err
	}
	clip.SetID(clipPo.ID)
	return nil
}

func (r *highlightClipRepositoryImpl) GetClipByUUID(ctx context.Context, clipUUID string) (*entity.ClipEntity, error) {
	clipPo, err := r.clipDao.FindByClipUUID(ctx, clipUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.convertor.ToEntity(clipPo), nil
}

func (r *highlightClipRepositoryImpl) GetClipsByTask(ctx context.Context, taskUUID string) ([]*entity.ClipEntity, error) {
	pos, err := r.clipDao.FindByTaskUUID(ctx, taskUUID)
	if err != nil {
		return nil, err
	}
	clips := make([]*entity.ClipEntity, 0, len(pos))
	for _, p := range pos {
		clips = append(clips, r.convertor.ToEntity(p))
	}
	return clips, nil
}

func (r *highlightClipRepositoryImpl) UpdateClip(ctx context.Context, clip *entity.ClipEntity) error {
	return r.clipDao.Update(ctx, r.convertor.ToPO(clip))
}
