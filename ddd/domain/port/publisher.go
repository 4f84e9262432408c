package port

import (
	"context"
	"sync"

	"highlight-service/ddd/domain/vo"
)

// PublishRequest everything a platform adapter needs for one dispatch.
type PublishRequest struct {
	JobUUID         string
	TaskUUID        string
	ClipUUID        string
	Platform        string
	MediaURL        string
	LocalPath       string
	DurationSeconds float64
	Aspect          vo.AspectMode
	Title           string
	Description     string
	Tags            []string
}

// PublishResult platform acknowledgement of a successful dispatch.
type PublishResult struct {
	PublishedURL string
	PlatformRef  string
}

// Publisher dispatches a clip to one external platform. Failures are
// reported as *vo.PublishError so the scheduler can decide on retry.
type Publisher interface {
	// Platform returns the platform id this adapter serves.
	Platform() string

	// Publish performs one dispatch attempt.
	Publish(ctx context.Context, req *PublishRequest) (*PublishResult, error)
}

// PublisherRegistry maps platform ids to their adapters.
type PublisherRegistry struct {
	mu         sync.RWMutex
	publishers map[string]Publisher
}

func NewPublisherRegistry() *PublisherRegistry {
	return &PublisherRegistry{publishers: make(map[string]Publisher)}
}

// Register adds or replaces the adapter for a platform
func (r *PublisherRegistry) Register(p Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers[p.Platform()] = p
}

// Get looks up the adapter for a platform
func (r *PublisherRegistry) Get(platform string) (Publisher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.publishers[platform]
	return p, ok
}

// Platforms lists the registered platform ids
func (r *PublisherRegistry) Platforms() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.publishers))
	for platform := range r.publishers {
		out = append(out, platform)
	}
	return out
}
