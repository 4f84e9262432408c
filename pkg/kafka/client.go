package kafka

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"highlight-service/pkg/config"
	"highlight-service/pkg/logger"
)

// Client is the process-wide kafka-go handle. Writers are created lazily per
// topic and reused; readers are created per consumer group.
type Client struct {
	brokers  []string
	clientID string
	dialer   *kafka.Dialer
	writers  sync.Map // topic -> *kafka.Writer
}

var (
	once      sync.Once
	singleton *Client
)

// DefaultClient returns the shared client. MustOpen must run before any
// producer or reader is used.
func DefaultClient() *Client {
	once.Do(func() {
		singleton = &Client{}
	})
	return singleton
}

// dockerResolver maps loopback broker names onto the docker host, so the
// same dev config works inside and outside a container.
type dockerResolver struct{}

func (dockerResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	switch host {
	case "localhost", "127.0.0.1", "::1":
		return net.DefaultResolver.LookupHost(ctx, "host.docker.internal")
	default:
		return net.DefaultResolver.LookupHost(ctx, host)
	}
}

// MustOpen binds the client to the configured brokers. Connection problems
// surface on first produce/consume, not here.
func (c *Client) MustOpen() {
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before Kafka client")
	}
	c.brokers = cfg.Kafka.BootstrapServers
	c.clientID = cfg.Kafka.ClientID
	c.dialer = &kafka.Dialer{
		Timeout:  10 * time.Second,
		ClientID: c.clientID,
		Resolver: dockerResolver{},
	}
	logger.Infof("Kafka client opened brokers=%v client_id=%s", c.brokers, c.clientID)
}

// Close flushes and closes every cached writer.
func (c *Client) Close() {
	c.writers.Range(func(_, value interface{}) bool {
		if w, ok := value.(*kafka.Writer); ok {
			_ = w.Close()
		}
		return true
	})
}

// Writer returns the shared writer for a topic.
func (c *Client) Writer(topic string) *kafka.Writer {
	if v, ok := c.writers.Load(topic); ok {
		return v.(*kafka.Writer)
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(c.brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
	actual, _ := c.writers.LoadOrStore(topic, w)
	return actual.(*kafka.Writer)
}

// Produce publishes one keyed message. Task events key on the task UUID so
// one task's events stay ordered within a partition.
func (c *Client) Produce(ctx context.Context, topic string, key, value []byte) error {
	return c.Writer(topic).WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
		Time:  time.Now(),
	})
}

// Reader creates a consumer-group reader for a topic.
func (c *Client) Reader(topic, groupID string) *kafka.Reader {
	logger.Infof("Kafka reader created topic=%s group=%s brokers=%v", topic, groupID, c.brokers)
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.brokers,
		GroupID:  groupID,
		Topic:    topic,
		Dialer:   c.dialer,
		MinBytes: 1,
		MaxBytes: 10 << 20,
	})
}

// EnsureTopic creates the topic on the cluster controller when it does not
// exist yet. Safe to call on every startup.
func (c *Client) EnsureTopic(topic string, numPartitions, replicationFactor int) error {
	if len(c.brokers) == 0 {
		return nil
	}
	conn, err := kafka.Dial("tcp", c.brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	ctrlConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return err
	}
	defer ctrlConn.Close()

	return ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     numPartitions,
		ReplicationFactor: replicationFactor,
	})
}
