package dto

import "time"

// WorkerStatDto counters of one background worker
type WorkerStatDto struct {
	Name             string `json:"name"`
	Running          bool   `json:"running"`
	ProcessedTasks   uint64 `json:"processed_tasks"`
	SuccessfulTasks  uint64 `json:"successful_tasks"`
	FailedTasks      uint64 `json:"failed_tasks"`
	CancelledTasks   uint64 `json:"cancelled_tasks"`
	RecoveredTasks   uint64 `json:"recovered_tasks"`
	CurrentlyRunning int    `json:"currently_running"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	LastTaskTime     string `json:"last_task_time,omitempty"`
}

// QueueMetricsDto task queue counters
type QueueMetricsDto struct {
	EnqueueCount uint64 `json:"enqueue_count"`
	DequeueCount uint64 `json:"dequeue_count"`
	MaxSize      int    `json:"max_size"`
	CurrentSize  int    `json:"current_size"`
}

// TaskStatisticsDto per-status task counts
type TaskStatisticsDto struct {
	TotalTasks      int64 `json:"total_tasks"`
	PendingTasks    int64 `json:"pending_tasks"`
	FetchingTasks   int64 `json:"fetching_tasks"`
	SelectingTasks  int64 `json:"selecting_tasks"`
	RenderingTasks  int64 `json:"rendering_tasks"`
	PublishingTasks int64 `json:"publishing_tasks"`
	CompletedTasks  int64 `json:"completed_tasks"`
	FailedTasks     int64 `json:"failed_tasks"`
	CancelledTasks  int64 `json:"cancelled_tasks"`
}

// WorkerStatsResponse aggregated view for the stats endpoint
type WorkerStatsResponse struct {
	Workers []WorkerStatDto    `json:"workers"`
	Queue   QueueMetricsDto    `json:"queue"`
	Tasks   *TaskStatisticsDto `json:"tasks,omitempty"`
}

// FormatTime renders a timestamp for DTO string fields, empty for zero times
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
