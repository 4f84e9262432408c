package gateway

import (
	"context"
	"time"
)

// RenderCache maps render inputs to already-stored clip artifacts so
// identical renders skip the encoder.
type RenderCache interface {
	// Get returns the cached object key and whether it exists
	Get(ctx context.Context, key string) (string, bool, error)

	// Put stores the object key for a render input key
	Put(ctx context.Context, key, objectKey string, ttl time.Duration) error
}
