package progress

import (
	"context"
	"encoding/json"
	"time"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"
	"highlight-service/pkg/kafka"
	"highlight-service/pkg/logger"
)

// KafkaEventSink publishes task state transitions to the task events topic
// so external consumers can follow the pipeline without polling.
type KafkaEventSink struct {
	topic string
}

func NewKafkaEventSink(cfg *config.Config) port.ProgressSink {
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}
	topic := "highlight.task.events"
	if cfg != nil && cfg.Kafka.Topics.TaskEvents != "" {
		topic = cfg.Kafka.Topics.TaskEvents
	}
	return &KafkaEventSink{topic: topic}
}

// taskEvent wire format of one transition event
type taskEvent struct {
	TaskUUID     string `json:"task_uuid"`
	UserUUID     string `json:"user_uuid,omitempty"`
	FromStatus   string `json:"from_status"`
	ToStatus     string `json:"to_status"`
	Progress     int    `json:"progress"`
	StageMessage string `json:"stage_message,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}

// SaveProgress is a no-op; intermediate percentages stay out of the event
// stream to keep it one event per transition.
func (s *KafkaEventSink) SaveProgress(_ context.Context, _ *entity.HighlightTaskEntity, _ int) error {
	return nil
}

func (s *KafkaEventSink) SaveTransition(ctx context.Context, task *entity.HighlightTaskEntity, from, to vo.TaskStatus) error {
	if task == nil {
		return nil
	}
	event := taskEvent{
		TaskUUID:     task.TaskUUID(),
		UserUUID:     task.UserUUID(),
		FromStatus:   from.String(),
		ToStatus:     to.String(),
		Progress:     task.Progress(),
		StageMessage: task.StageMessage(),
		ErrorMessage: task.ErrorMessage(),
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := kafka.DefaultClient().Produce(ctx, s.topic, []byte(task.TaskUUID()), value); err != nil {
		logger.Warnf("task event produce failed task_uuid=%s to=%s error=%v", task.TaskUUID(), to.String(), err)
		return err
	}
	return nil
}
