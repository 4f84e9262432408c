package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"highlight-service/ddd/domain/gateway"
	"highlight-service/ddd/domain/repo"
	"highlight-service/pkg/config"
	"highlight-service/pkg/logger"
)

const (
	eventTaskCompleted = "highlight.task.completed"
	eventTaskFailed    = "highlight.task.failed"

	defaultCallbackTimeout = 10 * time.Second
)

// webhookReporter posts terminal task outcomes to an HTTP callback. The
// task's own callback URL wins, the configured global URL is the fallback.
type webhookReporter struct {
	taskRepo repo.HighlightTaskRepository
	cfg      *config.Config
	client   *http.Client
}

var (
	reporterOnce      sync.Once
	singletonReporter gateway.TaskEventReporter
)

// DefaultTaskEventReporter returns a singleton webhook reporter. Returns nil
// when callbacks are disabled and no task supplies its own URL either.
func DefaultTaskEventReporter(taskRepo repo.HighlightTaskRepository) gateway.TaskEventReporter {
	reporterOnce.Do(func() {
		singletonReporter = NewWebhookReporter(taskRepo, config.GetGlobalConfig())
	})
	return singletonReporter
}

// NewWebhookReporter builds a reporter with the provided repository and config.
func NewWebhookReporter(taskRepo repo.HighlightTaskRepository, cfg *config.Config) gateway.TaskEventReporter {
	timeout := defaultCallbackTimeout
	if cfg != nil && cfg.Callback.Timeout > 0 {
		timeout = cfg.Callback.Timeout
	}
	return &webhookReporter{
		taskRepo: taskRepo,
		cfg:      cfg,
		client:   &http.Client{Timeout: timeout},
	}
}

// callbackPayload is the JSON body posted to the callback endpoint.
type callbackPayload struct {
	Event         string   `json:"event"`
	TaskUUID      string   `json:"task_uuid"`
	Status        string   `json:"status"`
	RenderedClips int      `json:"rendered_clips,omitempty"`
	ClipURLs      []string `json:"clip_urls,omitempty"`
	ErrorMessage  string   `json:"error_message,omitempty"`
	OccurredAt    string   `json:"occurred_at"`
}

func (r *webhookReporter) ReportCompleted(ctx context.Context, taskUUID string, renderedClips int, clipURLs []string) error {
	payload := callbackPayload{
		Event:         eventTaskCompleted,
		TaskUUID:      taskUUID,
		Status:        "completed",
		RenderedClips: renderedClips,
		ClipURLs:      clipURLs,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	return r.post(ctx, taskUUID, payload)
}

func (r *webhookReporter) ReportFailed(ctx context.Context, taskUUID, status, errorMessage string) error {
	if errorMessage == "" {
		errorMessage = "highlight task failed"
	}
	payload := callbackPayload{
		Event:        eventTaskFailed,
		TaskUUID:     taskUUID,
		Status:       status,
		ErrorMessage: errorMessage,
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	}
	return r.post(ctx, taskUUID, payload)
}

func (r *webhookReporter) post(ctx context.Context, taskUUID string, payload callbackPayload) error {
	url := r.resolveURL(ctx, taskUUID)
	if url == "" {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal callback payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build callback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		logger.Error("Task callback failed", map[string]interface{}{
			"task_uuid": taskUUID,
			"url":       url,
			"error":     err.Error(),
		})
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Error("Task callback rejected", map[string]interface{}{
			"task_uuid": taskUUID,
			"url":       url,
			"status":    resp.StatusCode,
		})
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}

	logger.Infof("task callback delivered task_uuid=%s event=%s url=%s", taskUUID, payload.Event, url)
	return nil
}

// resolveURL prefers the URL the task was submitted with over the global one
func (r *webhookReporter) resolveURL(ctx context.Context, taskUUID string) string {
	if r.taskRepo != nil {
		if task, err := r.taskRepo.GetTaskByUUID(ctx, taskUUID); err == nil && task != nil {
			if url := strings.TrimSpace(task.CallbackURL()); url != "" {
				return url
			}
		}
	}
	if r.cfg != nil && r.cfg.Callback.Enabled {
		return strings.TrimSpace(r.cfg.Callback.URL)
	}
	return ""
}
