package po

// HighlightClip rendered clip row, one per selected segment
type HighlightClip struct {
	BaseModel
	ClipUUID     string  `gorm:"column:clip_uuid;type:varchar(36);uniqueIndex" json:"clip_uuid"`
	TaskUUID     string  `gorm:"column:task_uuid;type:varchar(36);index" json:"task_uuid"`
	ClipIndex    int     `gorm:"column:clip_index;type:int" json:"clip_index"`
	StartSeconds float64 `gorm:"column:start_seconds;type:double" json:"start_seconds"`
	EndSeconds   float64 `gorm:"column:end_seconds;type:double" json:"end_seconds"`
	Score        float64 `gorm:"column:score;type:double" json:"score"`
	Evidence     string  `gorm:"column:evidence;type:varchar(50)" json:"evidence"` // audio_energy, scene_change, uniform
	Status       string  `gorm:"column:status;type:varchar(20);index" json:"status"`
	LocalPath    string  `gorm:"column:local_path;type:varchar(512)" json:"local_path"`
	ObjectKey    string  `gorm:"column:object_key;type:varchar(512)" json:"object_key"`
	PublicURL    string  `gorm:"column:public_url;type:varchar(1024)" json:"public_url"`
	DurationSec  float64 `gorm:"column:duration_sec;type:double" json:"duration_sec"`
	Aspect       string  `gorm:"column:aspect;type:varchar(20)" json:"aspect"`
	Quality      string  `gorm:"column:quality;type:varchar(20)" json:"quality"`
	ErrorMessage *string `gorm:"column:error_message;type:varchar(500)" json:"error_message,omitempty"`
}

// TableName specifies the table name
func (HighlightClip) TableName() string {
	return "highlight_clips"
}
