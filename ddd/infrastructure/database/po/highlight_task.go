package po

import "time"

// HighlightTask highlight task row
type HighlightTask struct {
	BaseModel
	TaskUUID       string     `gorm:"column:task_uuid;type:varchar(36);uniqueIndex" json:"task_uuid"`
	UserUUID       string     `gorm:"column:user_uuid;type:varchar(36);index" json:"user_uuid"`
	SourceURL      string     `gorm:"column:source_url;type:varchar(1024)" json:"source_url"`
	ClipCount      int        `gorm:"column:clip_count;type:int;default:3" json:"clip_count"`
	MinDurationSec float64    `gorm:"column:min_duration_sec;type:double" json:"min_duration_sec"`
	MaxDurationSec float64    `gorm:"column:max_duration_sec;type:double" json:"max_duration_sec"`
	Aspect         string     `gorm:"column:aspect;type:varchar(20)" json:"aspect"` // native, mobile_9x16
	Quality        string     `gorm:"column:quality;type:varchar(20)" json:"quality"`
	OutputDir      string     `gorm:"column:output_dir;type:varchar(512)" json:"output_dir"`
	TargetsJSON    *string    `gorm:"column:targets_json;type:json" json:"targets_json,omitempty"`
	MetaJSON       *string    `gorm:"column:meta_json;type:json" json:"meta_json,omitempty"`
	CallbackURL    string     `gorm:"column:callback_url;type:varchar(1024)" json:"callback_url"`
	Status         string     `gorm:"column:status;type:varchar(20);index" json:"status"`
	Progress       int        `gorm:"column:progress;type:int;default:0" json:"progress"`
	StageMessage   string     `gorm:"column:stage_message;type:varchar(255)" json:"stage_message"`
	ErrorMessage   *string    `gorm:"column:error_message;type:varchar(500)" json:"error_message,omitempty"`
	SelectedCount  int        `gorm:"column:selected_count;type:int;default:0" json:"selected_count"`
	RenderedCount  int        `gorm:"column:rendered_count;type:int;default:0" json:"rendered_count"`
	FailedCount    int        `gorm:"column:failed_count;type:int;default:0" json:"failed_count"`
	StartedAt      *time.Time `gorm:"column:started_at;type:timestamp" json:"started_at,omitempty"`
	CompletedAt    *time.Time `gorm:"column:completed_at;type:timestamp" json:"completed_at,omitempty"`
}

// TableName specifies the table name
func (HighlightTask) TableName() string {
	return "highlight_tasks"
}
