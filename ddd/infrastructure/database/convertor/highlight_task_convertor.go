package convertor

import (
	"encoding/json"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/vo"
	"highlight-service/ddd/infrastructure/database/po"
)

type HighlightTaskConvertor struct{}

func NewHighlightTaskConvertor() *HighlightTaskConvertor { return &HighlightTaskConvertor{} }

func (c *HighlightTaskConvertor) ToEntity(taskPo *po.HighlightTask) *entity.HighlightTaskEntity {
	if taskPo == nil {
		return nil
	}
	errorMessage := ""
	if taskPo.ErrorMessage != nil {
		errorMessage = *taskPo.ErrorMessage
	}
	e := entity.RestoreHighlightTaskEntity(
		taskPo.ID,
		taskPo.TaskUUID, taskPo.UserUUID, taskPo.SourceURL,
		taskPo.ClipCount,
		taskPo.MinDurationSec, taskPo.MaxDurationSec,
		vo.AspectMode(taskPo.Aspect),
		vo.QualityTier(taskPo.Quality),
		taskPo.OutputDir,
		vo.TaskStatus(taskPo.Status),
		taskPo.Progress,
		taskPo.StageMessage, errorMessage,
		taskPo.SelectedCount, taskPo.RenderedCount, taskPo.FailedCount,
		taskPo.CreatedAt, taskPo.UpdatedAt,
	)
	e.SetStageTimes(taskPo.StartedAt, taskPo.CompletedAt)
	e.SetCallbackURL(taskPo.CallbackURL)

	if taskPo.TargetsJSON != nil && *taskPo.TargetsJSON != "" {
		var targets []vo.PublishTarget
		if err := json.Unmarshal([]byte(*taskPo.TargetsJSON), &targets); err == nil {
			e.SetPublishTargets(targets)
		}
	}
	if taskPo.MetaJSON != nil && *taskPo.MetaJSON != "" {
		var meta vo.PublishMetadata
		if err := json.Unmarshal([]byte(*taskPo.MetaJSON), &meta); err == nil {
			e.SetPublishMeta(meta)
		}
	}
	return e
}

func (c *HighlightTaskConvertor) ToPO(e *entity.HighlightTaskEntity) *po.HighlightTask {
	if e == nil {
		return nil
	}
	var targetsJSON *string
	if targets := e.PublishTargets(); len(targets) > 0 {
		if raw, err := json.Marshal(targets); err == nil {
			s := string(raw)
			targetsJSON = &s
		}
	}
	var metaJSON *string
	if meta := e.PublishMeta(); meta.Title != "" || meta.Description != "" || len(meta.Tags) > 0 {
		if raw, err := json.Marshal(meta); err == nil {
			s := string(raw)
			metaJSON = &s
		}
	}
	var errorMessage *string
	if msg := e.ErrorMessage(); msg != "" {
		errorMessage = &msg
	}
	return &po.HighlightTask{
		BaseModel:      po.BaseModel{ID: e.ID(), CreatedAt: e.CreatedAt(), UpdatedAt: e.UpdatedAt()},
		TaskUUID:       e.TaskUUID(),
		UserUUID:       e.UserUUID(),
		SourceURL:      e.SourceURL(),
		ClipCount:      e.ClipCount(),
		MinDurationSec: e.MinDurationSeconds(),
		MaxDurationSec: e.MaxDurationSeconds(),
		Aspect:         string(e.Aspect()),
		Quality:        string(e.Quality()),
		OutputDir:      e.OutputDir(),
		TargetsJSON:    targetsJSON,
		MetaJSON:       metaJSON,
		CallbackURL:    e.CallbackURL(),
		Status:         e.Status().String(),
		Progress:       e.Progress(),
		StageMessage:   e.StageMessage(),
		ErrorMessage:   errorMessage,
		SelectedCount:  e.SelectedCount(),
		RenderedCount:  e.RenderedCount(),
		FailedCount:    e.FailedCount(),
		StartedAt:      e.StartedAt(),
		CompletedAt:    e.CompletedAt(),
	}
}
