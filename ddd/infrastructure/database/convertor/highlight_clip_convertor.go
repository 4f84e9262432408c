package convertor

import (
	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/vo"
	"highlight-service/ddd/infrastructure/database/po"
)

type HighlightClipConvertor struct{}

func NewHighlightClipConvertor() *HighlightClipConvertor { return &HighlightClipConvertor{} }

func (c *HighlightClipConvertor) ToEntity(clipPo *po.HighlightClip) *entity.ClipEntity {
	if clipPo == nil {
		return nil
	}
	errorMessage := ""
	if clipPo.ErrorMessage != nil {
		errorMessage = *clipPo.ErrorMessage
	}
	return entity.RestoreClipEntity(
		clipPo.ID,
		clipPo.ClipUUID, clipPo.TaskUUID,
		clipPo.ClipIndex,
		clipPo.StartSeconds, clipPo.EndSeconds, clipPo.Score,
		clipPo.Evidence, clipPo.Status, clipPo.LocalPath, clipPo.ObjectKey, clipPo.PublicURL,
		clipPo.DurationSec,
		vo.AspectMode(clipPo.Aspect),
		vo.QualityTier(clipPo.Quality),
		errorMessage,
		clipPo.CreatedAt, clipPo.UpdatedAt,
	)
}

func (c *HighlightClipConvertor) ToPO(e *entity.ClipEntity) *po.HighlightClip {
	if e == nil {
		return nil
	}
	var errorMessage *string
	if msg := e.ErrorMessage(); msg != "" {
		errorMessage = &msg
	}
	return &po.HighlightClip{
		BaseModel:    po.BaseModel{ID: e.ID(), CreatedAt: e.CreatedAt(), UpdatedAt: e.UpdatedAt()},
		ClipUUID:     e.ClipUUID(),
		TaskUUID:     e.TaskUUID(),
		ClipIndex:    e.Index(),
		StartSeconds: e.StartSeconds(),
		EndSeconds:   e.EndSeconds(),
		Score:        e.Score(),
		Evidence:     e.Evidence(),
		Status:       e.Status(),
		LocalPath:    e.LocalPath(),
		ObjectKey:    e.ObjectKey(),
		PublicURL:    e.PublicURL(),
		DurationSec:  e.DurationSeconds(),
		Aspect:       string(e.Aspect()),
		Quality:      string(e.Quality()),
		ErrorMessage: errorMessage,
	}
}
