package registry

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"highlight-service/pkg/logger"
)

// ServiceDiscovery resolves sibling services (upload, transcode, trend
// analysis) registered in etcd, with a local cache refreshed by watches.
type ServiceDiscovery struct {
	client *clientv3.Client
	cache  map[string][]string
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServiceDiscovery opens an etcd client for lookups.
func NewServiceDiscovery(cfg RegistryConfig) (*ServiceDiscovery, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("etcd client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ServiceDiscovery{
		client: client,
		cache:  make(map[string][]string),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func servicePrefix(serviceName string) string {
	return fmt.Sprintf("/services/%s/", serviceName)
}

// Resolve reads the live instance list from etcd and refreshes the cache.
func (sd *ServiceDiscovery) Resolve(serviceName string) ([]string, error) {
	resp, err := sd.client.Get(sd.ctx, servicePrefix(serviceName), clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("resolve service %s: %w", serviceName, err)
	}

	addrs := make([]string, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		addrs = append(addrs, string(kv.Value))
	}

	sd.mu.Lock()
	sd.cache[serviceName] = addrs
	sd.mu.Unlock()
	return addrs, nil
}

// Cached returns the last known instance list without touching etcd.
func (sd *ServiceDiscovery) Cached(serviceName string) []string {
	sd.mu.RLock()
	defer sd.mu.RUnlock()
	return sd.cache[serviceName]
}

// Watch keeps the cache for one service fresh until Close.
func (sd *ServiceDiscovery) Watch(serviceName string) {
	ch := sd.client.Watch(sd.ctx, servicePrefix(serviceName), clientv3.WithPrefix())
	go func() {
		for {
			select {
			case <-sd.ctx.Done():
				return
			case resp := <-ch:
				for _, ev := range resp.Events {
					logger.Infof("service instance change type=%s key=%s", ev.Type, string(ev.Kv.Key))
				}
				if _, err := sd.Resolve(serviceName); err != nil {
					logger.Warnf("service cache refresh failed service=%s error=%v", serviceName, err)
				}
			}
		}
	}()
}

// PickAddress returns one instance address, resolving on a cache miss.
// Selection rotates with time, good enough for the handful of instances a
// deployment runs.
func (sd *ServiceDiscovery) PickAddress(serviceName string) (string, error) {
	addrs := sd.Cached(serviceName)
	if len(addrs) == 0 {
		var err error
		addrs, err = sd.Resolve(serviceName)
		if err != nil {
			return "", err
		}
		if len(addrs) == 0 {
			return "", fmt.Errorf("no instances registered for service %s", serviceName)
		}
	}
	return addrs[int(time.Now().UnixNano())%len(addrs)], nil
}

// Close stops watches and releases the etcd client.
func (sd *ServiceDiscovery) Close() error {
	sd.cancel()
	return sd.client.Close()
}

// SplitHostPort validates and splits a registered address.
func SplitHostPort(address string) (string, string, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return "", "", fmt.Errorf("invalid service address %q: %w", address, err)
	}
	return host, port, nil
}
