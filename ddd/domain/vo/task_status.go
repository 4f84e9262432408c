package vo

// TaskStatus lifecycle state of a highlight task
type TaskStatus string

const (
	// TaskStatusPending accepted, waiting for a pipeline worker
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusFetching downloading the source video
	TaskStatusFetching TaskStatus = "fetching"
	// TaskStatusSelecting scoring windows and picking segments
	TaskStatusSelecting TaskStatus = "selecting"
	// TaskStatusRendering encoding clips from the selected segments
	TaskStatusRendering TaskStatus = "rendering"
	// TaskStatusPublishing dispatching rendered clips to platforms
	TaskStatusPublishing TaskStatus = "publishing"
	// TaskStatusCompleted finished with at least one rendered clip
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed no usable output
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusCancelled stopped on caller request
	TaskStatusCancelled TaskStatus = "cancelled"
)

// IsValid checks whether the status is a known one
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusFetching, TaskStatusSelecting,
		TaskStatusRendering, TaskStatusPublishing,
		TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the status string
func (s TaskStatus) String() string {
	return string(s)
}

// IsFinalStatus checks whether the status is terminal
func (s TaskStatus) IsFinalStatus() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

// CanTransitionTo checks whether the pipeline may move to the target status.
// Stages advance strictly forward; any non-terminal status may fail or be cancelled.
func (s TaskStatus) CanTransitionTo(target TaskStatus) bool {
	switch s {
	case TaskStatusPending:
		return target == TaskStatusFetching || target == TaskStatusFailed || target == TaskStatusCancelled
	case TaskStatusFetching:
		return target == TaskStatusSelecting || target == TaskStatusFailed || target == TaskStatusCancelled
	case TaskStatusSelecting:
		return target == TaskStatusRendering || target == TaskStatusFailed || target == TaskStatusCancelled
	case TaskStatusRendering:
		return target == TaskStatusPublishing || target == TaskStatusCompleted ||
			target == TaskStatusFailed || target == TaskStatusCancelled
	case TaskStatusPublishing:
		return target == TaskStatusCompleted || target == TaskStatusFailed || target == TaskStatusCancelled
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return false
	default:
		return false
	}
}
