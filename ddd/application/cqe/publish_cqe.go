package cqe

import (
	"time"

	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/errno"
)

// EnqueuePublishReq queues one rendered clip for one platform
type EnqueuePublishReq struct {
	ClipUUID      string     `json:"clip_uuid" binding:"required"`
	Platform      string     `json:"platform" binding:"required"`
	ScheduledTime *time.Time `json:"scheduled_time"`
}

func (req *EnqueuePublishReq) Validate() error {
	if req.ClipUUID == "" {
		return errno.ErrClipUUIDRequired
	}
	if req.Platform == "" {
		return errno.ErrPlatformRequired
	}
	if _, ok := vo.GetPlatformSpec(req.Platform); !ok {
		return errno.ErrUnknownPlatform
	}
	if req.ScheduledTime != nil && req.ScheduledTime.Before(time.Now().Add(-time.Minute)) {
		return errno.ErrInvalidScheduledTime
	}
	return nil
}

// QueryPublishJobReq single publish job lookup
type QueryPublishJobReq struct {
	JobUUID string `uri:"job_uuid" binding:"required"`
}

func (req *QueryPublishJobReq) Validate() error {
	if req.JobUUID == "" {
		return errno.ErrJobUUIDRequired
	}
	return nil
}

// ListPublishJobsReq lists the publish jobs of one task
type ListPublishJobsReq struct {
	TaskUUID string `form:"task_uuid" binding:"required"`
}

func (req *ListPublishJobsReq) Validate() error {
	if req.TaskUUID == "" {
		return errno.ErrTaskUUIDRequired
	}
	return nil
}
