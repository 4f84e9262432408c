package vo

import (
	"fmt"
	"time"
)

// PublishTarget requested destination for the rendered clips of a task
type PublishTarget struct {
	Platform      string     `json:"platform"`
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
}

// Validate checks the target names a known platform
func (t PublishTarget) Validate() error {
	if t.Platform == "" {
		return fmt.Errorf("publish target platform is empty")
	}
	if _, ok := GetPlatformSpec(t.Platform); !ok {
		return fmt.Errorf("unknown publish platform: %s", t.Platform)
	}
	return nil
}

// PublishMetadata caption fields attached to published clips
type PublishMetadata struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}
