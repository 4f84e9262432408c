package redisclient

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"

	"highlight-service/pkg/config"
)

const (
	defaultDialTimeout  = 5 * time.Second
	defaultReadTimeout  = 3 * time.Second
	defaultWriteTimeout = 3 * time.Second
	pingTimeout         = 3 * time.Second
)

// Client wraps go-redis so call sites depend on this package, not on the
// driver version.
type Client struct {
	native *redis.Client
}

// New opens a pooled connection from service configuration and pings it, a
// misconfigured Redis should fail at startup rather than on first cache hit.
func New(cfg config.RedisConfig) (*Client, error) {
	opts := &redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  orDefault(cfg.DialTimeout, defaultDialTimeout),
		ReadTimeout:  orDefault(cfg.ReadTimeout, defaultReadTimeout),
		WriteTimeout: orDefault(cfg.WriteTimeout, defaultWriteTimeout),
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	cli := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := cli.Ping(ctx).Err(); err != nil {
		_ = cli.Close()
		return nil, err
	}
	return &Client{native: cli}, nil
}

// Raw exposes the underlying go-redis client.
func (c *Client) Raw() *redis.Client {
	return c.native
}

// Close releases pooled connections.
func (c *Client) Close() error {
	return c.native.Close()
}

func orDefault(v, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}
