package entity

import (
	"time"

	"highlight-service/ddd/domain/vo"

	"github.com/google/uuid"
)

// HighlightTaskEntity highlight processing task aggregate
type HighlightTaskEntity struct {
	id             uint64 // database primary key
	taskUUID       string
	userUUID       string
	sourceURL      string
	clipCount      int
	minDurationSec float64
	maxDurationSec float64
	aspect         vo.AspectMode
	quality        vo.QualityTier
	outputDir      string
	publishTargets []vo.PublishTarget
	publishMeta    vo.PublishMetadata
	callbackURL    string
	status         vo.TaskStatus
	progress       int
	stageMessage   string
	errorMessage   string
	selectedCount  int
	renderedCount  int
	failedCount    int
	createdAt      time.Time
	updatedAt      time.Time
	startedAt      *time.Time
	completedAt    *time.Time
}

// NewHighlightTaskEntity creates a pending task. An empty taskUUID is
// replaced with a generated one so both HTTP and Kafka submissions work.
func NewHighlightTaskEntity(
	taskUUID, userUUID, sourceURL string,
	clipCount int,
	minDurationSec, maxDurationSec float64,
	aspect vo.AspectMode,
	quality vo.QualityTier,
	outputDir string,
) *HighlightTaskEntity {
	if taskUUID == "" {
		taskUUID = uuid.New().String()
	}
	now := time.Now()
	return &HighlightTaskEntity{
		taskUUID:       taskUUID,
		userUUID:       userUUID,
		sourceURL:      sourceURL,
		clipCount:      clipCount,
		minDurationSec: minDurationSec,
		maxDurationSec: maxDurationSec,
		aspect:         aspect,
		quality:        quality,
		outputDir:      outputDir,
		status:         vo.TaskStatusPending,
		progress:       0,
		createdAt:      now,
		updatedAt:      now,
	}
}

// RestoreHighlightTaskEntity rebuilds a task from persisted state
func RestoreHighlightTaskEntity(
	id uint64,
	taskUUID, userUUID, sourceURL string,
	clipCount int,
	minDurationSec, maxDurationSec float64,
	aspect vo.AspectMode,
	quality vo.QualityTier,
	outputDir string,
	status vo.TaskStatus,
	progress int,
	stageMessage, errorMessage string,
	selectedCount, renderedCount, failedCount int,
	createdAt, updatedAt time.Time,
) *HighlightTaskEntity {
	return &HighlightTaskEntity{
		id:             id,
		taskUUID:       taskUUID,
		userUUID:       userUUID,
		sourceURL:      sourceURL,
		clipCount:      clipCount,
		minDurationSec: minDurationSec,
		maxDurationSec: maxDurationSec,
		aspect:         aspect,
		quality:        quality,
		outputDir:      outputDir,
		status:         status,
		progress:       progress,
		stageMessage:   stageMessage,
		errorMessage:   errorMessage,
		selectedCount:  selectedCount,
		renderedCount:  renderedCount,
		failedCount:    failedCount,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

func (t *HighlightTaskEntity) ID() uint64                         { return t.id }
func (t *HighlightTaskEntity) TaskUUID() string                   { return t.taskUUID }
func (t *HighlightTaskEntity) UserUUID() string                   { return t.userUUID }
func (t *HighlightTaskEntity) SourceURL() string                  { return t.sourceURL }
func (t *HighlightTaskEntity) ClipCount() int                     { return t.clipCount }
func (t *HighlightTaskEntity) MinDurationSeconds() float64        { return t.minDurationSec }
func (t *HighlightTaskEntity) MaxDurationSeconds() float64        { return t.maxDurationSec }
func (t *HighlightTaskEntity) Aspect() vo.AspectMode              { return t.aspect }
func (t *HighlightTaskEntity) Quality() vo.QualityTier            { return t.quality }
func (t *HighlightTaskEntity) OutputDir() string                  { return t.outputDir }
func (t *HighlightTaskEntity) PublishTargets() []vo.PublishTarget { return t.publishTargets }
func (t *HighlightTaskEntity) PublishMeta() vo.PublishMetadata    { return t.publishMeta }
func (t *HighlightTaskEntity) CallbackURL() string                { return t.callbackURL }
func (t *HighlightTaskEntity) Status() vo.TaskStatus              { return t.status }
func (t *HighlightTaskEntity) Progress() int                      { return t.progress }
func (t *HighlightTaskEntity) StageMessage() string               { return t.stageMessage }
func (t *HighlightTaskEntity) ErrorMessage() string               { return t.errorMessage }
func (t *HighlightTaskEntity) SelectedCount() int                 { return t.selectedCount }
func (t *HighlightTaskEntity) RenderedCount() int                 { return t.renderedCount }
func (t *HighlightTaskEntity) FailedCount() int                   { return t.failedCount }
func (t *HighlightTaskEntity) CreatedAt() time.Time               { return t.createdAt }
func (t *HighlightTaskEntity) UpdatedAt() time.Time               { return t.updatedAt }
func (t *HighlightTaskEntity) StartedAt() *time.Time              { return t.startedAt }
func (t *HighlightTaskEntity) CompletedAt() *time.Time            { return t.completedAt }

// SetID sets the database primary key after insert
func (t *HighlightTaskEntity) SetID(id uint64) { t.id = id }

// SetPublishTargets attaches the requested publish destinations
func (t *HighlightTaskEntity) SetPublishTargets(targets []vo.PublishTarget) {
	t.publishTargets = targets
	t.updatedAt = time.Now()
}

// SetPublishMeta attaches caption metadata for published clips
func (t *HighlightTaskEntity) SetPublishMeta(meta vo.PublishMetadata) {
	t.publishMeta = meta
	t.updatedAt = time.Now()
}

// SetCallbackURL attaches the terminal-state webhook destination
func (t *HighlightTaskEntity) SetCallbackURL(url string) {
	t.callbackURL = url
	t.updatedAt = time.Now()
}

// SetTimestamps restores persisted timestamps
func (t *HighlightTaskEntity) SetTimestamps(createdAt, updatedAt time.Time) {
	t.createdAt = createdAt
	t.updatedAt = updatedAt
}

// SetStageTimes restores persisted started/completed markers
func (t *HighlightTaskEntity) SetStageTimes(startedAt, completedAt *time.Time) {
	t.startedAt = startedAt
	t.completedAt = completedAt
}

// SetProgress clamps and records pipeline progress
func (t *HighlightTaskEntity) SetProgress(progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	t.progress = progress
	t.updatedAt = time.Now()
}

// SetStageMessage records a human-readable stage description
func (t *HighlightTaskEntity) SetStageMessage(msg string) {
	t.stageMessage = msg
	t.updatedAt = time.Now()
}

// RecordSelection stores how many segments the selector produced
func (t *HighlightTaskEntity) RecordSelection(selected int) {
	t.selectedCount = selected
	t.updatedAt = time.Now()
}

// RecordRenderOutcome stores the final per-clip tallies
func (t *HighlightTaskEntity) RecordRenderOutcome(rendered, failed int) {
	t.renderedCount = rendered
	t.failedCount = failed
	t.updatedAt = time.Now()
}

// HasPublishTargets checks whether the task requested publication
func (t *HighlightTaskEntity) HasPublishTargets() bool {
	return len(t.publishTargets) > 0
}

// Shortfall requested clips the selector could not provide
func (t *HighlightTaskEntity) Shortfall() int {
	if t.selectedCount >= t.clipCount {
		return 0
	}
	return t.clipCount - t.selectedCount
}

// BeginFetching moves the task into the fetching stage
func (t *HighlightTaskEntity) BeginFetching() error {
	if !t.status.CanTransitionTo(vo.TaskStatusFetching) {
		return NewDomainError("cannot start fetching in status " + t.status.String())
	}
	now := time.Now()
	t.status = vo.TaskStatusFetching
	t.startedAt = &now
	t.updatedAt = now
	return nil
}

// BeginSelecting moves the task into the selecting stage
func (t *HighlightTaskEntity) BeginSelecting() error {
	if !t.status.CanTransitionTo(vo.TaskStatusSelecting) {
		return NewDomainError("cannot start selecting in status " + t.status.String())
	}
	t.status = vo.TaskStatusSelecting
	t.updatedAt = time.Now()
	return nil
}

// BeginRendering moves the task into the rendering stage
func (t *HighlightTaskEntity) BeginRendering() error {
	if !t.status.CanTransitionTo(vo.TaskStatusRendering) {
		return NewDomainError("cannot start rendering in status " + t.status.String())
	}
	t.status = vo.TaskStatusRendering
	t.updatedAt = time.Now()
	return nil
}

// BeginPublishing moves the task into the publishing stage
func (t *HighlightTaskEntity) BeginPublishing() error {
	if !t.status.CanTransitionTo(vo.TaskStatusPublishing) {
		return NewDomainError("cannot start publishing in status " + t.status.String())
	}
	t.status = vo.TaskStatusPublishing
	t.updatedAt = time.Now()
	return nil
}

// Complete marks the task finished with at least one rendered clip
func (t *HighlightTaskEntity) Complete() error {
	if !t.status.CanTransitionTo(vo.TaskStatusCompleted) {
		return NewDomainError("cannot complete in status " + t.status.String())
	}
	now := time.Now()
	t.status = vo.TaskStatusCompleted
	t.progress = 100
	t.completedAt = &now
	t.updatedAt = now
	return nil
}

// Fail marks the task failed with the given reason
func (t *HighlightTaskEntity) Fail(errorMessage string) error {
	if !t.status.CanTransitionTo(vo.TaskStatusFailed) {
		return NewDomainError("cannot fail in status " + t.status.String())
	}
	now := time.Now()
	t.status = vo.TaskStatusFailed
	t.errorMessage = errorMessage
	t.completedAt = &now
	t.updatedAt = now
	return nil
}

// Cancel stops the task before it reaches a terminal state
func (t *HighlightTaskEntity) Cancel() error {
	if t.status.IsFinalStatus() {
		return NewDomainError("cannot cancel task in final status " + t.status.String())
	}
	now := time.Now()
	t.status = vo.TaskStatusCancelled
	t.completedAt = &now
	t.updatedAt = now
	return nil
}

func (t *HighlightTaskEntity) IsCompleted() bool { return t.status == vo.TaskStatusCompleted }
func (t *HighlightTaskEntity) IsFailed() bool    { return t.status == vo.TaskStatusFailed }
func (t *HighlightTaskEntity) IsCancelled() bool { return t.status == vo.TaskStatusCancelled }
func (t *HighlightTaskEntity) IsPending() bool   { return t.status == vo.TaskStatusPending }
func (t *HighlightTaskEntity) IsTerminal() bool  { return t.status.IsFinalStatus() }

// DomainError invariant violation raised by entity transitions
type DomainError struct {
	message string
}

func NewDomainError(message string) *DomainError {
	return &DomainError{message: message}
}

func (e *DomainError) Error() string {
	return e.message
}
