package cqe

import (
	"time"

	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/errno"
)

// Submission defaults applied when the caller leaves a field empty.
const (
	DefaultClipCount          = 3
	DefaultMinDurationSeconds = 15.0
	DefaultMaxDurationSeconds = 180.0

	maxClipCount = 10
)

// SubmitTaskCqe highlight task submission request
type SubmitTaskCqe struct {
	// TaskUUID lets idempotent producers (Kafka) supply their own id
	TaskUUID string `json:"task_uuid"`
	UserUUID string `json:"user_uuid"`

	SourceURL          string  `json:"source_url" binding:"required"`
	ClipCount          int     `json:"clip_count"`
	MinDurationSeconds float64 `json:"min_duration_seconds"`
	MaxDurationSeconds float64 `json:"max_duration_seconds"`
	Aspect             string  `json:"aspect"`
	Quality            string  `json:"quality"`

	PublishTargets []PublishTargetReq `json:"publish_targets"`
	Title          string             `json:"title"`
	Description    string             `json:"description"`
	Tags           []string           `json:"tags"`
	CallbackURL    string             `json:"callback_url"`
}

// PublishTargetReq one requested publication of the rendered clips
type PublishTargetReq struct {
	Platform      string     `json:"platform" binding:"required"`
	ScheduledTime *time.Time `json:"scheduled_time"`
}

// Validate normalizes defaults and rejects out-of-range submissions before
// they reach the queue
func (req *SubmitTaskCqe) Validate() error {
	if req.UserUUID == "" {
		return errno.ErrUserUUIDRequired
	}
	if req.SourceURL == "" {
		return errno.ErrSourceURLRequired
	}

	if req.ClipCount == 0 {
		req.ClipCount = DefaultClipCount
	}
	if req.ClipCount < 1 || req.ClipCount > maxClipCount {
		return errno.ErrInvalidClipCount
	}

	if req.MinDurationSeconds == 0 {
		req.MinDurationSeconds = DefaultMinDurationSeconds
	}
	if req.MaxDurationSeconds == 0 {
		req.MaxDurationSeconds = DefaultMaxDurationSeconds
	}
	if req.MinDurationSeconds <= 0 || req.MaxDurationSeconds <= 0 ||
		req.MinDurationSeconds > req.MaxDurationSeconds {
		return errno.ErrInvalidClipBounds
	}

	if req.Aspect == "" {
		req.Aspect = vo.AspectModeMobile.String()
	}
	if !vo.AspectMode(req.Aspect).IsValid() {
		return errno.ErrInvalidAspectMode
	}

	if req.Quality == "" {
		req.Quality = vo.QualityMedium.String()
	}
	if !vo.QualityTier(req.Quality).IsValid() {
		return errno.ErrInvalidQualityTier
	}

	for _, target := range req.PublishTargets {
		if target.Platform == "" {
			return errno.ErrPlatformRequired
		}
		if _, ok := vo.GetPlatformSpec(target.Platform); !ok {
			return errno.ErrUnknownPlatform
		}
	}

	return nil
}

// Targets converts the request targets into domain publish targets
func (req *SubmitTaskCqe) Targets() []vo.PublishTarget {
	if len(req.PublishTargets) == 0 {
		return nil
	}
	targets := make([]vo.PublishTarget, 0, len(req.PublishTargets))
	for _, t := range req.PublishTargets {
		targets = append(targets, vo.PublishTarget{
			Platform:      t.Platform,
			ScheduledTime: t.ScheduledTime,
		})
	}
	return targets
}

// Metadata collects the optional publish metadata fields
func (req *SubmitTaskCqe) Metadata() vo.PublishMetadata {
	return vo.PublishMetadata{
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	}
}

// QueryTaskReq single task lookup request
type QueryTaskReq struct {
	TaskUUID string `uri:"task_uuid" binding:"required"`
	UserUUID string `header:"X-User-UUID"`
}

func (req *QueryTaskReq) Validate() error {
	if req.TaskUUID == "" {
		return errno.ErrTaskUUIDRequired
	}
	return nil
}

// GetTaskResultReq aggregated result lookup request
type GetTaskResultReq struct {
	TaskUUID string `uri:"task_uuid" binding:"required"`
	UserUUID string `header:"X-User-UUID"`
}

func (req *GetTaskResultReq) Validate() error {
	if req.TaskUUID == "" {
		return errno.ErrTaskUUIDRequired
	}
	return nil
}

// CancelTaskReq cancellation request
type CancelTaskReq struct {
	TaskUUID string `uri:"task_uuid" binding:"required"`
	UserUUID string `header:"X-User-UUID"`
}

func (req *CancelTaskReq) Validate() error {
	if req.TaskUUID == "" {
		return errno.ErrTaskUUIDRequired
	}
	return nil
}

// ListTasksReq paged listing of a user's tasks
type ListTasksReq struct {
	UserUUID string `form:"user_uuid" header:"X-User-UUID"`
	Page     int    `form:"page"`
	Size     int    `form:"size"`
}

func (req *ListTasksReq) Validate() error {
	if req.UserUUID == "" {
		return errno.ErrUserUUIDRequired
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Size <= 0 || req.Size > 100 {
		req.Size = 10
	}
	return nil
}
