package gateway

import "context"

// TaskEventReporter notifies external callers about terminal task outcomes.
type TaskEventReporter interface {
	ReportCompleted(ctx context.Context, taskUUID string, renderedClips int, clipURLs []string) error
	ReportFailed(ctx context.Context, taskUUID, status, errorMessage string) error
}
