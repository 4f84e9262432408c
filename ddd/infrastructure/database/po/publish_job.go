package po

import "time"

// PublishJob scheduled platform publication row
type PublishJob struct {
	BaseModel
	JobUUID       string     `gorm:"column:job_uuid;type:varchar(36);uniqueIndex" json:"job_uuid"`
	TaskUUID      string     `gorm:"column:task_uuid;type:varchar(36);index" json:"task_uuid"`
	ClipUUID      string     `gorm:"column:clip_uuid;type:varchar(36);index" json:"clip_uuid"`
	Platform      string     `gorm:"column:platform;type:varchar(50);index" json:"platform"`
	ScheduledTime time.Time  `gorm:"column:scheduled_time;type:timestamp;index" json:"scheduled_time"`
	Attempts      int        `gorm:"column:attempts;type:int;default:0" json:"attempts"`
	MaxAttempts   int        `gorm:"column:max_attempts;type:int;default:3" json:"max_attempts"`
	Status        string     `gorm:"column:status;type:varchar(30);index" json:"status"`
	LastError     *string    `gorm:"column:last_error;type:varchar(500)" json:"last_error,omitempty"`
	PublishedURL  string     `gorm:"column:published_url;type:varchar(1024)" json:"published_url"`
	PublishedAt   *time.Time `gorm:"column:published_at;type:timestamp" json:"published_at,omitempty"`
}

// TableName specifies the table name
func (PublishJob) TableName() string {
	return "publish_jobs"
}
