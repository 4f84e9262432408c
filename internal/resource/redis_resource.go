package resource

import (
	"sync"

	"github.com/redis/go-redis/v9"

	"highlight-service/pkg/assert"
	"highlight-service/pkg/config"
	"highlight-service/pkg/manager"
	"highlight-service/pkg/redisclient"
)

var (
	redisResourceOnce sync.Once
	redisSingleton    *RedisResource
)

// RedisResource owns the shared Redis client backing the render cache.
type RedisResource struct {
	client *redisclient.Client
}

// DefaultRedisResource returns the process-wide Redis resource.
func DefaultRedisResource() *RedisResource {
	assert.NotCircular()
	redisResourceOnce.Do(func() {
		redisSingleton = &RedisResource{}
	})
	assert.NotNil(redisSingleton)
	return redisSingleton
}

// MustOpen connects using the global configuration. Called once by the
// resource manager during bootstrap.
func (r *RedisResource) MustOpen() {
	if r.client != nil {
		return
	}

	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized")
	}

	client, err := redisclient.New(cfg.Redis)
	if err != nil {
		panic("failed to connect redis: " + err.Error())
	}

	r.client = client
}

// Close releases the pooled connections.
func (r *RedisResource) Close() {
	if r.client != nil {
		_ = r.client.Close()
	}
}

// Client exposes the raw go-redis client for cache call sites.
func (r *RedisResource) Client() *redis.Client {
	if r.client == nil {
		return nil
	}
	return r.client.Raw()
}

// RedisResourcePlugin wires the resource into the manager.
type RedisResourcePlugin struct{}

// Name identifies the resource slot.
func (p *RedisResourcePlugin) Name() string {
	return "redis"
}

// MustCreateResource hands the singleton to the manager.
func (p *RedisResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultRedisResource()
}
