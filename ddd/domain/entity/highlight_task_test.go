package entity

import (
	"testing"

	"highlight-service/ddd/domain/vo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTask() *HighlightTaskEntity {
	return NewHighlightTaskEntity("", "user-1", "https://example.com/video.mp4",
		3, 15, 60, vo.AspectModeMobile, vo.QualityMedium, "")
}

func TestNewHighlightTaskDefaults(t *testing.T) {
	task := newTestTask()

	assert.NotEmpty(t, task.TaskUUID())
	assert.Equal(t, vo.TaskStatusPending, task.Status())
	assert.Equal(t, 0, task.Progress())
	assert.Nil(t, task.StartedAt())
	assert.Nil(t, task.CompletedAt())

	withUUID := NewHighlightTaskEntity("fixed-id", "user-1", "https://example.com/v.mp4",
		1, 15, 60, vo.AspectModeNative, vo.QualityLow, "")
	assert.Equal(t, "fixed-id", withUUID.TaskUUID())
}

func TestHighlightTaskFullLifecycle(t *testing.T) {
	task := newTestTask()

	require.NoError(t, task.BeginFetching())
	assert.Equal(t, vo.TaskStatusFetching, task.Status())
	assert.NotNil(t, task.StartedAt())

	require.NoError(t, task.BeginSelecting())
	require.NoError(t, task.BeginRendering())
	require.NoError(t, task.BeginPublishing())
	require.NoError(t, task.Complete())

	assert.Equal(t, vo.TaskStatusCompleted, task.Status())
	assert.Equal(t, 100, task.Progress())
	assert.NotNil(t, task.CompletedAt())
}

func TestHighlightTaskCompleteWithoutPublishing(t *testing.T) {
	task := newTestTask()
	require.NoError(t, task.BeginFetching())
	require.NoError(t, task.BeginSelecting())
	require.NoError(t, task.BeginRendering())

	// Tasks without publish targets complete straight from rendering.
	require.NoError(t, task.Complete())
	assert.True(t, task.IsCompleted())
}

func TestHighlightTaskRejectsSkippedStages(t *testing.T) {
	task := newTestTask()

	assert.Error(t, task.BeginSelecting())
	assert.Error(t, task.BeginRendering())
	assert.Error(t, task.BeginPublishing())
	assert.Error(t, task.Complete())

	require.NoError(t, task.BeginFetching())
	assert.Error(t, task.BeginRendering())
	assert.Error(t, task.Complete())
}

func TestHighlightTaskFailFromAnyActiveStage(t *testing.T) {
	task := newTestTask()
	require.NoError(t, task.Fail("queue rejected"))
	assert.Equal(t, vo.TaskStatusFailed, task.Status())
	assert.Equal(t, "queue rejected", task.ErrorMessage())
	assert.NotNil(t, task.CompletedAt())

	running := newTestTask()
	require.NoError(t, running.BeginFetching())
	require.NoError(t, running.BeginSelecting())
	require.NoError(t, running.Fail("no segments"))
	assert.Equal(t, vo.TaskStatusFailed, running.Status())
}

func TestHighlightTaskCancelOnlyBeforeTerminal(t *testing.T) {
	task := newTestTask()
	require.NoError(t, task.Cancel())
	assert.Equal(t, vo.TaskStatusCancelled, task.Status())

	// Terminal tasks reject further transitions including cancel.
	assert.Error(t, task.Cancel())
	assert.Error(t, task.Fail("late failure"))
	assert.Error(t, task.BeginFetching())

	done := newTestTask()
	require.NoError(t, done.BeginFetching())
	require.NoError(t, done.BeginSelecting())
	require.NoError(t, done.BeginRendering())
	require.NoError(t, done.Complete())
	assert.Error(t, done.Cancel())
}

func TestHighlightTaskShortfall(t *testing.T) {
	task := newTestTask()

	task.RecordSelection(3)
	assert.Equal(t, 0, task.Shortfall())

	task.RecordSelection(1)
	assert.Equal(t, 2, task.Shortfall())

	task.RecordSelection(5)
	assert.Equal(t, 0, task.Shortfall())
}

func TestHighlightTaskProgressClamped(t *testing.T) {
	task := newTestTask()

	task.SetProgress(42)
	assert.Equal(t, 42, task.Progress())

	task.SetProgress(150)
	assert.Equal(t, 100, task.Progress())

	task.SetProgress(-10)
	assert.Equal(t, 0, task.Progress())
}

func TestHighlightTaskPublishTargets(t *testing.T) {
	task := newTestTask()
	assert.False(t, task.HasPublishTargets())

	task.SetPublishTargets([]vo.PublishTarget{{Platform: vo.PlatformTikTok}})
	assert.True(t, task.HasPublishTargets())

	task.SetPublishMeta(vo.PublishMetadata{Title: "best bits", Tags: []string{"golf"}})
	assert.Equal(t, "best bits", task.PublishMeta().Title)
}

func TestHighlightTaskRecordRenderOutcome(t *testing.T) {
	task := newTestTask()
	task.RecordRenderOutcome(2, 1)
	assert.Equal(t, 2, task.RenderedCount())
	assert.Equal(t, 1, task.FailedCount())
}
