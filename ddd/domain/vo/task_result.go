package vo

import (
	"context"

	"highlight-service/ddd/domain/gateway"
)

// ClipOutcome per-clip slice of a task result
type ClipOutcome struct {
	ClipUUID        string
	Index           int
	StartSeconds    float64
	EndSeconds      float64
	Rendered        bool
	PublicURL       string
	DurationSeconds float64
	ErrorMessage    string
}

// TaskResult aggregated outcome of a highlight task
type TaskResult struct {
	TaskUUID       string
	UserUUID       string
	Status         TaskStatus
	RequestedClips int
	SelectedCount  int
	RenderedCount  int
	FailedCount    int
	Clips          []ClipOutcome
	ErrorMessage   string
}

// NewTaskResult builds the result wrapper for reporter calls
func NewTaskResult(taskUUID, userUUID string, status TaskStatus) TaskResult {
	return TaskResult{
		TaskUUID: taskUUID,
		UserUUID: userUUID,
		Status:   status,
	}
}

// Shortfall number of requested clips the selector could not provide
func (r TaskResult) Shortfall() int {
	if r.SelectedCount >= r.RequestedClips {
		return 0
	}
	return r.RequestedClips - r.SelectedCount
}

// RenderedURLs public URLs of the successfully rendered clips
func (r TaskResult) RenderedURLs() []string {
	urls := make([]string, 0, len(r.Clips))
	for _, c := range r.Clips {
		if c.Rendered && c.PublicURL != "" {
			urls = append(urls, c.PublicURL)
		}
	}
	return urls
}

// ReportOutcome forwards the terminal state to the reporter.
// A nil reporter is a no-op so callers do not guard.
func (r TaskResult) ReportOutcome(ctx context.Context, reporter gateway.TaskEventReporter) error {
	if reporter == nil {
		return nil
	}
	if r.Status == TaskStatusCompleted {
		return reporter.ReportCompleted(ctx, r.TaskUUID, r.RenderedCount, r.RenderedURLs())
	}
	return reporter.ReportFailed(ctx, r.TaskUUID, r.Status.String(), r.ErrorMessage)
}
