package convertor

import (
	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/vo"
	"highlight-service/ddd/infrastructure/database/po"
)

type PublishJobConvertor struct{}

func NewPublishJobConvertor() *PublishJobConvertor { return &PublishJobConvertor{} }

func (c *PublishJobConvertor) ToEntity(jobPo *po.PublishJob) *entity.PublishJobEntity {
	if jobPo == nil {
		return nil
	}
	lastError := ""
	if jobPo.LastError != nil {
		lastError = *jobPo.LastError
	}
	return entity.RestorePublishJobEntity(
		jobPo.ID,
		jobPo.JobUUID, jobPo.TaskUUID, jobPo.ClipUUID, jobPo.Platform,
		jobPo.ScheduledTime,
		jobPo.Attempts, jobPo.MaxAttempts,
		vo.PublishStatus(jobPo.Status),
		lastError, jobPo.PublishedURL,
		jobPo.PublishedAt,
		jobPo.CreatedAt, jobPo.UpdatedAt,
	)
}

func (c *PublishJobConvertor) ToPO(e *entity.PublishJobEntity) *po.PublishJob {
	if e == nil {
		return nil
	}
	var lastError *string
	if msg := e.LastError(); msg != "" {
		lastError = &msg
	}
	return &po.PublishJob{
		BaseModel:     po.BaseModel{ID: e.ID(), CreatedAt: e.CreatedAt(), UpdatedAt: e.UpdatedAt()},
		JobUUID:       e.JobUUID(),
		TaskUUID:      e.TaskUUID(),
		ClipUUID:      e.ClipUUID(),
		Platform:      e.Platform(),
		ScheduledTime: e.ScheduledTime(),
		Attempts:      e.Attempts(),
		MaxAttempts:   e.MaxAttempts(),
		Status:        e.Status().String(),
		LastError:     lastError,
		PublishedURL:  e.PublishedURL(),
		PublishedAt:   e.PublishedAt(),
	}
}
