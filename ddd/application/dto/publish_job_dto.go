package dto

import (
	"time"

	"highlight-service/ddd/domain/entity"
)

// PublishJobDto externally visible state of a publish job
type PublishJobDto struct {
	JobUUID       string     `json:"job_uuid"`
	TaskUUID      string     `json:"task_uuid"`
	ClipUUID      string     `json:"clip_uuid"`
	Platform      string     `json:"platform"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	Status        string     `json:"status"`
	LastError     string     `json:"last_error,omitempty"`
	PublishedURL  string     `json:"published_url,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewPublishJobDto maps a publish job entity to its DTO
func NewPublishJobDto(job *entity.PublishJobEntity) *PublishJobDto {
	if job == nil {
		return nil
	}
	return &PublishJobDto{
		JobUUID:       job.JobUUID(),
		TaskUUID:      job.TaskUUID(),
		ClipUUID:      job.ClipUUID(),
		Platform:      job.Platform(),
		ScheduledTime: job.ScheduledTime(),
		Attempts:      job.Attempts(),
		MaxAttempts:   job.MaxAttempts(),
		Status:        job.Status().String(),
		LastError:     job.LastError(),
		PublishedURL:  job.PublishedURL(),
		PublishedAt:   job.PublishedAt(),
		CreatedAt:     job.CreatedAt(),
		UpdatedAt:     job.UpdatedAt(),
	}
}

// PublishJobListDto jobs of one task
type PublishJobListDto struct {
	Jobs  []PublishJobDto `json:"jobs"`
	Total int             `json:"total"`
}

// NewPublishJobListDto builds the job list DTO
func NewPublishJobListDto(jobs []*entity.PublishJobEntity) *PublishJobListDto {
	items := make([]PublishJobDto, 0, len(jobs))
	for _, job := range jobs {
		if d := NewPublishJobDto(job); d != nil {
			items = append(items, *d)
		}
	}
	return &PublishJobListDto{
		Jobs:  items,
		Total: len(items),
	}
}
