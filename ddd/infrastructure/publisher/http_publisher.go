package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"
	"highlight-service/pkg/logger"
	"highlight-service/pkg/registry"
)

// defaultPublishTimeout per-dispatch HTTP deadline when unconfigured
const defaultPublishTimeout = 30 * time.Second

// HTTPPublisher dispatches clips to one platform's ingest endpoint. Every
// configured platform gets its own instance with its own token and timeout.
// Platforms fronted by an internal gateway carry a serviceName instead of a
// static endpoint; the address is then resolved through etcd per dispatch.
type HTTPPublisher struct {
	platform    string
	endpoint    string
	serviceName string
	discovery   *registry.ServiceDiscovery
	token       string
	client      *http.Client
}

func NewHTTPPublisher(platform string, platformCfg config.PlatformConfig, discovery *registry.ServiceDiscovery) *HTTPPublisher {
	timeout := platformCfg.Timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &HTTPPublisher{
		platform:    platform,
		endpoint:    platformCfg.Endpoint,
		serviceName: platformCfg.ServiceName,
		discovery:   discovery,
		token:       platformCfg.AccessToken,
		client:      &http.Client{Timeout: timeout},
	}
}

// resolveEndpoint returns the dispatch URL. A discovered gateway address is
// joined with the configured path; resolution failures are retryable, the
// gateway may simply not have registered yet.
func (p *HTTPPublisher) resolveEndpoint() (string, error) {
	if p.serviceName == "" || p.discovery == nil {
		return p.endpoint, nil
	}
	addr, err := p.discovery.PickAddress(p.serviceName)
	if err != nil {
		return "", vo.NewPublishError(true, p.platform, 0, fmt.Errorf("resolve gateway %s: %w", p.serviceName, err))
	}
	return "http://" + addr + p.endpoint, nil
}

func (p *HTTPPublisher) Platform() string {
	return p.platform
}

// publishPayload request body sent to the platform ingest endpoint
type publishPayload struct {
	JobUUID         string   `json:"job_uuid"`
	TaskUUID        string   `json:"task_uuid"`
	ClipUUID        string   `json:"clip_uuid"`
	MediaURL        string   `json:"media_url"`
	DurationSeconds float64  `json:"duration_seconds"`
	Aspect          string   `json:"aspect"`
	Title           string   `json:"title,omitempty"`
	Description     string   `json:"description,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// publishResponse platform acknowledgement body
type publishResponse struct {
	URL          string `json:"url"`
	PublishedURL string `json:"published_url"`
	Ref          string `json:"ref"`
	Message      string `json:"message"`
}

// Publish performs one dispatch attempt. HTTP 408/429/5xx and transport
// errors come back as retryable PublishErrors, other 4xx as permanent.
func (p *HTTPPublisher) Publish(ctx context.Context, req *port.PublishRequest) (*port.PublishResult, error) {
	endpoint, err := p.resolveEndpoint()
	if err != nil {
		return nil, err
	}
	if endpoint == "" {
		return nil, vo.NewPublishError(false, p.platform, 0, fmt.Errorf("no endpoint configured"))
	}

	payload := publishPayload{
		JobUUID:         req.JobUUID,
		TaskUUID:        req.TaskUUID,
		ClipUUID:        req.ClipUUID,
		MediaURL:        req.MediaURL,
		DurationSeconds: req.DurationSeconds,
		Aspect:          req.Aspect.String(),
		Title:           req.Title,
		Description:     req.Description,
		Tags:            req.Tags,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, vo.NewPublishError(false, p.platform, 0, fmt.Errorf("marshal payload: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, vo.NewPublishError(false, p.platform, 0, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, vo.NewPublishError(true, p.platform, 0, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var ack publishResponse
		_ = json.Unmarshal(respBody, &ack)
		publishedURL := ack.PublishedURL
		if publishedURL == "" {
			publishedURL = ack.URL
		}
		logger.Infof("publish accepted platform=%s job_uuid=%s url=%s", p.platform, req.JobUUID, publishedURL)
		return &port.PublishResult{
			PublishedURL: publishedURL,
			PlatformRef:  ack.Ref,
		}, nil
	}

	cause := fmt.Errorf("platform returned %d: %s", resp.StatusCode, truncateBody(respBody, 200))
	return nil, vo.NewPublishError(RetryableStatus(resp.StatusCode), p.platform, resp.StatusCode, cause)
}

// RetryableStatus classifies an HTTP status for retry purposes. Timeouts,
// throttling and server faults may clear up, other client errors will not.
func RetryableStatus(statusCode int) bool {
	if statusCode == http.StatusRequestTimeout || statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode >= 500
}

func truncateBody(body []byte, max int) string {
	s := string(body)
	if len(s) > max {
		return s[:max]
	}
	return s
}

// BuildRegistry creates one publisher per configured platform. Platforms
// without an entry in the constraint table are skipped with a warning. A
// shared discovery client is opened only when some platform routes through a
// registered gateway.
func BuildRegistry(cfg *config.Config) *port.PublisherRegistry {
	publishers := port.NewPublisherRegistry()
	if cfg == nil {
		return publishers
	}

	var discovery *registry.ServiceDiscovery
	for platform, platformCfg := range cfg.Publish.Platforms {
		if _, known := vo.GetPlatformSpec(platform); !known {
			logger.Warnf("skipping unknown publish platform name=%s", platform)
			continue
		}
		if platformCfg.ServiceName != "" && discovery == nil {
			var err error
			discovery, err = registry.NewServiceDiscovery(registry.RegistryConfig{
				Endpoints:   cfg.ServiceRegistry.Endpoints,
				DialTimeout: cfg.ServiceRegistry.DialTimeout,
				Username:    cfg.ServiceRegistry.Username,
				Password:    cfg.ServiceRegistry.Password,
			})
			if err != nil {
				logger.Warnf("gateway discovery unavailable, discovered platforms will fail until etcd is reachable error=%v", err)
			}
		}
		if platformCfg.ServiceName != "" && discovery != nil {
			discovery.Watch(platformCfg.ServiceName)
		}
		publishers.Register(NewHTTPPublisher(platform, platformCfg, discovery))
	}
	return publishers
}

var _ port.Publisher = (*HTTPPublisher)(nil)
