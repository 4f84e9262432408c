package entity

import (
	"time"

	"highlight-service/ddd/domain/vo"

	"github.com/google/uuid"
)

// Clip row statuses.
const (
	ClipStatusRendered = "rendered"
	ClipStatusFailed   = "failed"
)

// ClipEntity one rendered (or failed) clip of a highlight task
type ClipEntity struct {
	id           uint64
	clipUUID     string
	taskUUID     string
	index        int
	startSeconds float64
	endSeconds   float64
	score        float64
	evidence     string
	status       string
	localPath    string
	objectKey    string
	publicURL    string
	durationSec  float64
	aspect       vo.AspectMode
	quality      vo.QualityTier
	errorMessage string
	createdAt    time.Time
	updatedAt    time.Time
}

// NewClipEntity creates a rendered clip record for a segment
func NewClipEntity(taskUUID string, index int, seg vo.Segment, aspect vo.AspectMode, quality vo.QualityTier) *ClipEntity {
	now := time.Now()
	return &ClipEntity{
		clipUUID:     uuid.New().String(),
		taskUUID:     taskUUID,
		index:        index,
		startSeconds: seg.StartSeconds,
		endSeconds:   seg.EndSeconds,
		score:        seg.Score,
		evidence:     seg.Evidence,
		status:       ClipStatusRendered,
		aspect:       aspect,
		quality:      quality,
		createdAt:    now,
		updatedAt:    now,
	}
}

// RestoreClipEntity rebuilds a clip from persisted state
func RestoreClipEntity(
	id uint64,
	clipUUID, taskUUID string,
	index int,
	startSeconds, endSeconds, score float64,
	evidence, status, localPath, objectKey, publicURL string,
	durationSec float64,
	aspect vo.AspectMode,
	quality vo.QualityTier,
	errorMessage string,
	createdAt, updatedAt time.Time,
) *ClipEntity {
	return &ClipEntity{
		id:           id,
		clipUUID:     clipUUID,
		taskUUID:     taskUUID,
		index:        index,
		startSeconds: startSeconds,
		endSeconds:   endSeconds,
		score:        score,
		evidence:     evidence,
		status:       status,
		localPath:    localPath,
		objectKey:    objectKey,
		publicURL:    publicURL,
		durationSec:  durationSec,
		aspect:       aspect,
		quality:      quality,
		errorMessage: errorMessage,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (c *ClipEntity) ID() uint64               { return c.id }
func (c *ClipEntity) ClipUUID() string         { return c.clipUUID }
func (c *ClipEntity) TaskUUID() string         { return c.taskUUID }
func (c *ClipEntity) Index() int               { return c.index }
func (c *ClipEntity) StartSeconds() float64    { return c.startSeconds }
func (c *ClipEntity) EndSeconds() float64      { return c.endSeconds }
func (c *ClipEntity) Score() float64           { return c.score }
func (c *ClipEntity) Evidence() string         { return c.evidence }
func (c *ClipEntity) Status() string           { return c.status }
func (c *ClipEntity) LocalPath() string        { return c.localPath }
func (c *ClipEntity) ObjectKey() string        { return c.objectKey }
func (c *ClipEntity) PublicURL() string        { return c.publicURL }
func (c *ClipEntity) DurationSeconds() float64 { return c.durationSec }
func (c *ClipEntity) Aspect() vo.AspectMode    { return c.aspect }
func (c *ClipEntity) Quality() vo.QualityTier  { return c.quality }
func (c *ClipEntity) ErrorMessage() string     { return c.errorMessage }
func (c *ClipEntity) CreatedAt() time.Time     { return c.createdAt }
func (c *ClipEntity) UpdatedAt() time.Time     { return c.updatedAt }

func (c *ClipEntity) IsRendered() bool { return c.status == ClipStatusRendered }

func (c *ClipEntity) SetID(id uint64) { c.id = id }

func (c *ClipEntity) SetLocalPath(path string) {
	c.localPath = path
	c.updatedAt = time.Now()
}

func (c *ClipEntity) SetDurationSeconds(d float64) {
	c.durationSec = d
	c.updatedAt = time.Now()
}

// SetStored records where the uploaded artifact lives
func (c *ClipEntity) SetStored(objectKey, publicURL string) {
	c.objectKey = objectKey
	c.publicURL = publicURL
	c.updatedAt = time.Now()
}

// MarkFailed flips the clip to failed with the render error
func (c *ClipEntity) MarkFailed(errorMessage string) {
	c.status = ClipStatusFailed
	c.errorMessage = errorMessage
	c.updatedAt = time.Now()
}

// Segment rebuilds the segment this clip was rendered from
func (c *ClipEntity) Segment() vo.Segment {
	return vo.Segment{
		StartSeconds: c.startSeconds,
		EndSeconds:   c.endSeconds,
		Score:        c.score,
		Evidence:     c.evidence,
	}
}
