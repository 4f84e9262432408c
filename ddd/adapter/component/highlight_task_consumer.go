package component

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	appsvc "highlight-service/ddd/application/app"
	"highlight-service/ddd/application/cqe"
	"highlight-service/pkg/config"
	pkgkafka "highlight-service/pkg/kafka"
	"highlight-service/pkg/logger"
	"highlight-service/pkg/manager"
)

// HighlightTaskConsumerPlugin consumes task submissions from Kafka so
// upstream services can enqueue highlight work without calling the HTTP API.
type HighlightTaskConsumerPlugin struct{}

func (p *HighlightTaskConsumerPlugin) Name() string { return "highlightTaskConsumer" }

func (p *HighlightTaskConsumerPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	var highlightApp appsvc.HighlightApp
	if deps != nil {
		if v, ok := deps.HighlightAppService.(appsvc.HighlightApp); ok {
			highlightApp = v
		}
	}
	if highlightApp == nil {
		highlightApp = appsvc.DefaultHighlightApp()
	}
	cfg := config.GetGlobalConfig()
	if deps != nil && deps.Config != nil {
		cfg = deps.Config
	}
	return &highlightTaskConsumer{app: highlightApp, cfg: cfg}
}

type highlightTaskConsumer struct {
	app    appsvc.HighlightApp
	cfg    *config.Config
	ctx    context.Context
	cancel context.CancelFunc
}

func (c *highlightTaskConsumer) Start() error {
	if c.cfg == nil || !c.cfg.Kafka.Enabled {
		logger.Infof("Kafka consumer disabled by config")
		return nil
	}

	topic := c.cfg.Kafka.Topics.HighlightTasks
	groupID := c.cfg.Kafka.GroupID

	client := pkgkafka.DefaultClient()
	if err := client.EnsureTopic(topic, 1, 1); err != nil {
		logger.Warnf("Kafka topic ensure failed topic=%s error=%s", topic, err.Error())
	}
	if err := client.EnsureTopic(c.cfg.Kafka.Topics.TaskEvents, 1, 1); err != nil {
		logger.Warnf("Kafka topic ensure failed topic=%s error=%s", c.cfg.Kafka.Topics.TaskEvents, err.Error())
	}

	c.ctx, c.cancel = context.WithCancel(context.Background())
	reader := client.Reader(topic, groupID)
	go func() {
		defer reader.Close()
		logger.Infof("Kafka consumer started topic=%s group=%s", topic, groupID)
		for {
			msg, err := reader.ReadMessage(c.ctx)
			if err != nil {
				if c.ctx.Err() != nil {
					return
				}
				if errors.Is(err, io.EOF) || strings.Contains(err.Error(), "EOF") {
					logger.Debug("Kafka reader EOF")
				} else {
					logger.Warnf("Kafka read error error=%s", err.Error())
				}
				continue
			}

			var req cqe.SubmitTaskCqe
			if err := json.Unmarshal(msg.Value, &req); err != nil {
				logger.Warnf("Kafka message unmarshal error error=%s", err.Error())
				continue
			}
			logger.Infof("Kafka submission received task_uuid=%s user_uuid=%s source_url=%s",
				req.TaskUUID, req.UserUUID, req.SourceURL)

			// Message context, not consumer context: an in-flight submission
			// should finish even while the consumer is shutting down.
			if _, err := c.app.SubmitTask(context.Background(), &req); err != nil {
				logger.Warnf("Kafka submission rejected task_uuid=%s error=%s", req.TaskUUID, err.Error())
			}
		}
	}()
	return nil
}

func (c *highlightTaskConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *highlightTaskConsumer) GetName() string { return "highlightTaskConsumer" }
