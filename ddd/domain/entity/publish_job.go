package entity

import (
	"time"

	"highlight-service/ddd/domain/vo"

	"github.com/google/uuid"
)

// DefaultPublishMaxAttempts dispatch budget per job when unconfigured
const DefaultPublishMaxAttempts = 3

// PublishJobEntity one scheduled dispatch of a clip to a platform
type PublishJobEntity struct {
	id            uint64
	jobUUID       string
	taskUUID      string
	clipUUID      string
	platform      string
	scheduledTime time.Time
	attempts      int
	maxAttempts   int
	status        vo.PublishStatus
	lastError     string
	publishedURL  string
	publishedAt   *time.Time
	createdAt     time.Time
	updatedAt     time.Time
}

// NewPublishJobEntity creates a queued job for a rendered clip
func NewPublishJobEntity(taskUUID, clipUUID, platform string, scheduledTime time.Time, maxAttempts int) *PublishJobEntity {
	if maxAttempts <= 0 {
		maxAttempts = DefaultPublishMaxAttempts
	}
	now := time.Now()
	return &PublishJobEntity{
		jobUUID:       uuid.New().String(),
		taskUUID:      taskUUID,
		clipUUID:      clipUUID,
		platform:      platform,
		scheduledTime: scheduledTime,
		attempts:      0,
		maxAttempts:   maxAttempts,
		status:        vo.PublishStatusQueued,
		createdAt:     now,
		updatedAt:     now,
	}
}

// NewRejectedPublishJobEntity records a job that failed platform validation
// before it could ever be queued. Visible to the caller, never dispatched.
func NewRejectedPublishJobEntity(taskUUID, clipUUID, platform, reason string) *PublishJobEntity {
	now := time.Now()
	return &PublishJobEntity{
		jobUUID:       uuid.New().String(),
		taskUUID:      taskUUID,
		clipUUID:      clipUUID,
		platform:      platform,
		scheduledTime: now,
		attempts:      0,
		maxAttempts:   DefaultPublishMaxAttempts,
		status:        vo.PublishStatusFailedPermanent,
		lastError:     reason,
		createdAt:     now,
		updatedAt:     now,
	}
}

// RestorePublishJobEntity rebuilds a job from persisted state
func RestorePublishJobEntity(
	id uint64,
	jobUUID, taskUUID, clipUUID, platform string,
	scheduledTime time.Time,
	attempts, maxAttempts int,
	status vo.PublishStatus,
	lastError, publishedURL string,
	publishedAt *time.Time,
	createdAt, updatedAt time.Time,
) *PublishJobEntity {
	return &PublishJobEntity{
		id:            id,
		jobUUID:       jobUUID,
		taskUUID:      taskUUID,
		clipUUID:      clipUUID,
		platform:      platform,
		scheduledTime: scheduledTime,
		attempts:      attempts,
		maxAttempts:   maxAttempts,
		status:        status,
		lastError:     lastError,
		publishedURL:  publishedURL,
		publishedAt:   publishedAt,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

func (j *PublishJobEntity) ID() uint64                { return j.id }
func (j *PublishJobEntity) JobUUID() string           { return j.jobUUID }
func (j *PublishJobEntity) TaskUUID() string          { return j.taskUUID }
func (j *PublishJobEntity) ClipUUID() string          { return j.clipUUID }
func (j *PublishJobEntity) Platform() string          { return j.platform }
func (j *PublishJobEntity) ScheduledTime() time.Time  { return j.scheduledTime }
func (j *PublishJobEntity) Attempts() int             { return j.attempts }
func (j *PublishJobEntity) MaxAttempts() int          { return j.maxAttempts }
func (j *PublishJobEntity) Status() vo.PublishStatus  { return j.status }
func (j *PublishJobEntity) LastError() string         { return j.lastError }
func (j *PublishJobEntity) PublishedURL() string      { return j.publishedURL }
func (j *PublishJobEntity) PublishedAt() *time.Time   { return j.publishedAt }
func (j *PublishJobEntity) CreatedAt() time.Time      { return j.createdAt }
func (j *PublishJobEntity) UpdatedAt() time.Time      { return j.updatedAt }

func (j *PublishJobEntity) SetID(id uint64)  { j.id = id }
func (j *PublishJobEntity) IsTerminal() bool { return j.status.IsTerminal() }

// IsDue checks whether the job may be dispatched now
func (j *PublishJobEntity) IsDue(now time.Time) bool {
	return j.status == vo.PublishStatusQueued && !now.Before(j.scheduledTime)
}

// BeginAttempt moves the job in flight and consumes one attempt
func (j *PublishJobEntity) BeginAttempt() error {
	if !j.status.CanTransitionTo(vo.PublishStatusInFlight) {
		return NewDomainError("cannot dispatch publish job in status " + j.status.String())
	}
	if j.attempts >= j.maxAttempts {
		return NewDomainError("publish attempt budget exhausted")
	}
	j.attempts++
	j.status = vo.PublishStatusInFlight
	j.updatedAt = time.Now()
	return nil
}

// Succeed records platform acceptance
func (j *PublishJobEntity) Succeed(publishedURL string) error {
	if !j.status.CanTransitionTo(vo.PublishStatusSucceeded) {
		return NewDomainError("cannot succeed publish job in status " + j.status.String())
	}
	now := time.Now()
	j.status = vo.PublishStatusSucceeded
	j.publishedURL = publishedURL
	j.publishedAt = &now
	j.lastError = ""
	j.updatedAt = now
	return nil
}

// FailRetryable records a transient failure
func (j *PublishJobEntity) FailRetryable(errMsg string) error {
	if !j.status.CanTransitionTo(vo.PublishStatusFailedRetryable) {
		return NewDomainError("cannot mark retryable in status " + j.status.String())
	}
	j.status = vo.PublishStatusFailedRetryable
	j.lastError = errMsg
	j.updatedAt = time.Now()
	return nil
}

// FailPermanent records a failure that ends the job
func (j *PublishJobEntity) FailPermanent(errMsg string) error {
	if !j.status.CanTransitionTo(vo.PublishStatusFailedPermanent) {
		return NewDomainError("cannot mark permanent in status " + j.status.String())
	}
	j.status = vo.PublishStatusFailedPermanent
	j.lastError = errMsg
	j.updatedAt = time.Now()
	return nil
}

// CanRetry checks whether attempt budget remains after a retryable failure
func (j *PublishJobEntity) CanRetry() bool {
	return j.status == vo.PublishStatusFailedRetryable && j.attempts < j.maxAttempts
}

// Requeue schedules the next attempt after a retryable failure
func (j *PublishJobEntity) Requeue(nextTime time.Time) error {
	if !j.status.CanTransitionTo(vo.PublishStatusQueued) {
		return NewDomainError("cannot requeue publish job in status " + j.status.String())
	}
	if j.attempts >= j.maxAttempts {
		return NewDomainError("publish attempt budget exhausted")
	}
	j.status = vo.PublishStatusQueued
	j.scheduledTime = nextTime
	j.updatedAt = time.Now()
	return nil
}
