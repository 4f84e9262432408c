package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"highlight-service/ddd/domain/gateway"
)

// RedisRenderCache maps render input keys to stored object keys so identical
// renders reuse the existing artifact instead of re-encoding.
type RedisRenderCache struct {
	client *redis.Client
}

func NewRedisRenderCache(client *redis.Client) *RedisRenderCache {
	return &RedisRenderCache{client: client}
}

func (c *RedisRenderCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c.client == nil {
		return "", false, nil
	}
	objectKey, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return objectKey, true, nil
}

func (c *RedisRenderCache) Put(ctx context.Context, key, objectKey string, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, key, objectKey, ttl).Err()
}

var _ gateway.RenderCache = (*RedisRenderCache)(nil)
