package dto

import (
	"time"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/vo"
)

// HighlightTaskDto externally visible state of a highlight task
type HighlightTaskDto struct {
	TaskUUID           string     `json:"task_uuid"`
	UserUUID           string     `json:"user_uuid"`
	SourceURL          string     `json:"source_url"`
	ClipCount          int        `json:"clip_count"`
	MinDurationSeconds float64    `json:"min_duration_seconds"`
	MaxDurationSeconds float64    `json:"max_duration_seconds"`
	Aspect             string     `json:"aspect"`
	Quality            string     `json:"quality"`
	Status             string     `json:"status"`
	Progress           int        `json:"progress"`
	StageMessage       string     `json:"stage_message,omitempty"`
	ErrorMessage       string     `json:"error_message,omitempty"`
	SelectedCount      int        `json:"selected_count"`
	RenderedCount      int        `json:"rendered_count"`
	FailedCount        int        `json:"failed_count"`
	PublishTargets     []string   `json:"publish_targets,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// NewHighlightTaskDto maps a task entity to its DTO
func NewHighlightTaskDto(task *entity.HighlightTaskEntity) *HighlightTaskDto {
	if task == nil {
		return nil
	}

	var platforms []string
	for _, t := range task.PublishTargets() {
		platforms = append(platforms, t.Platform)
	}

	return &HighlightTaskDto{
		TaskUUID:           task.TaskUUID(),
		UserUUID:           task.UserUUID(),
		SourceURL:          task.SourceURL(),
		ClipCount:          task.ClipCount(),
		MinDurationSeconds: task.MinDurationSeconds(),
		MaxDurationSeconds: task.MaxDurationSeconds(),
		Aspect:             task.Aspect().String(),
		Quality:            task.Quality().String(),
		Status:             task.Status().String(),
		Progress:           task.Progress(),
		StageMessage:       task.StageMessage(),
		ErrorMessage:       task.ErrorMessage(),
		SelectedCount:      task.SelectedCount(),
		RenderedCount:      task.RenderedCount(),
		FailedCount:        task.FailedCount(),
		PublishTargets:     platforms,
		CreatedAt:          task.CreatedAt(),
		UpdatedAt:          task.UpdatedAt(),
		StartedAt:          task.StartedAt(),
		CompletedAt:        task.CompletedAt(),
	}
}

// HighlightTaskListDto one page of a user's tasks
type HighlightTaskListDto struct {
	Tasks      []HighlightTaskDto `json:"tasks"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Size       int                `json:"size"`
	TotalPages int                `json:"total_pages"`
}

// NewHighlightTaskListDto builds the paged list DTO
func NewHighlightTaskListDto(tasks []*entity.HighlightTaskEntity, total int64, page, size int) *HighlightTaskListDto {
	items := make([]HighlightTaskDto, 0, len(tasks))
	for _, task := range tasks {
		if d := NewHighlightTaskDto(task); d != nil {
			items = append(items, *d)
		}
	}

	totalPages := int(total) / size
	if int(total)%size > 0 {
		totalPages++
	}

	return &HighlightTaskListDto{
		Tasks:      items,
		Total:      total,
		Page:       page,
		Size:       size,
		TotalPages: totalPages,
	}
}

// TaskProgressDto compact status poll response
type TaskProgressDto struct {
	TaskUUID     string `json:"task_uuid"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	StageMessage string `json:"stage_message,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// NewTaskProgressDto maps a task entity to the progress DTO
func NewTaskProgressDto(task *entity.HighlightTaskEntity) *TaskProgressDto {
	if task == nil {
		return nil
	}
	return &TaskProgressDto{
		TaskUUID:     task.TaskUUID(),
		Status:       task.Status().String(),
		Progress:     task.Progress(),
		StageMessage: task.StageMessage(),
		ErrorMessage: task.ErrorMessage(),
	}
}

// ClipOutcomeDto per-clip slice of the aggregated result
type ClipOutcomeDto struct {
	ClipUUID        string  `json:"clip_uuid"`
	Index           int     `json:"index"`
	StartSeconds    float64 `json:"start_seconds"`
	EndSeconds      float64 `json:"end_seconds"`
	Score           float64 `json:"score"`
	Evidence        string  `json:"evidence,omitempty"`
	Rendered        bool    `json:"rendered"`
	PublicURL       string  `json:"public_url,omitempty"`
	DurationSeconds float64 `json:"duration_seconds"`
	ErrorMessage    string  `json:"error_message,omitempty"`
}

// TaskResultDto aggregated outcome of a finished task
type TaskResultDto struct {
	TaskUUID       string           `json:"task_uuid"`
	UserUUID       string           `json:"user_uuid"`
	Status         string           `json:"status"`
	RequestedClips int              `json:"requested_clips"`
	SelectedCount  int              `json:"selected_count"`
	RenderedCount  int              `json:"rendered_count"`
	FailedCount    int              `json:"failed_count"`
	Shortfall      int              `json:"shortfall"`
	Clips          []ClipOutcomeDto `json:"clips"`
	PublishJobs    []PublishJobDto  `json:"publish_jobs,omitempty"`
	ErrorMessage   string           `json:"error_message,omitempty"`
}

// NewTaskResultDto assembles the result from the task, its clips and its
// publish jobs. jobs may be nil for tasks that never requested publication.
func NewTaskResultDto(task *entity.HighlightTaskEntity, clips []*entity.ClipEntity, jobs []*entity.PublishJobEntity) *TaskResultDto {
	if task == nil {
		return nil
	}

	result := vo.NewTaskResult(task.TaskUUID(), task.UserUUID(), task.Status())
	result.RequestedClips = task.ClipCount()
	result.SelectedCount = task.SelectedCount()

	outcomes := make([]ClipOutcomeDto, 0, len(clips))
	for _, clip := range clips {
		if clip == nil {
			continue
		}
		outcomes = append(outcomes, ClipOutcomeDto{
			ClipUUID:        clip.ClipUUID(),
			Index:           clip.Index(),
			StartSeconds:    clip.StartSeconds(),
			EndSeconds:      clip.EndSeconds(),
			Score:           clip.Score(),
			Evidence:        clip.Evidence(),
			Rendered:        clip.IsRendered(),
			PublicURL:       clip.PublicURL(),
			DurationSeconds: clip.DurationSeconds(),
			ErrorMessage:    clip.ErrorMessage(),
		})
	}

	jobOutcomes := make([]PublishJobDto, 0, len(jobs))
	for _, job := range jobs {
		if d := NewPublishJobDto(job); d != nil {
			jobOutcomes = append(jobOutcomes, *d)
		}
	}

	return &TaskResultDto{
		TaskUUID:       task.TaskUUID(),
		UserUUID:       task.UserUUID(),
		Status:         task.Status().String(),
		RequestedClips: task.ClipCount(),
		SelectedCount:  task.SelectedCount(),
		RenderedCount:  task.RenderedCount(),
		FailedCount:    task.FailedCount(),
		Shortfall:      result.Shortfall(),
		Clips:          outcomes,
		PublishJobs:    jobOutcomes,
		ErrorMessage:   task.ErrorMessage(),
	}
}
