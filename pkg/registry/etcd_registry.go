package registry

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"highlight-service/pkg/logger"
)

// RegistryConfig holds the etcd connection settings.
type RegistryConfig struct {
	Endpoints      []string      `yaml:"endpoints"`
	DialTimeout    time.Duration `yaml:"dial_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	Username       string        `yaml:"username"`
	Password       string        `yaml:"password"`
}

// ServiceConfig identifies this instance in the registry.
type ServiceConfig struct {
	ServiceName     string        `yaml:"service_name"`
	ServiceID       string        `yaml:"service_id"`
	TTL             time.Duration `yaml:"ttl"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// ServiceRegistry announces one service instance in etcd under a leased key
// and keeps the lease alive until Deregister.
type ServiceRegistry struct {
	client  *clientv3.Client
	name    string
	id      string
	addr    string
	ttl     int64
	leaseID clientv3.LeaseID
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewServiceRegistry connects to etcd; the instance is not announced until
// Register is called.
func NewServiceRegistry(regCfg RegistryConfig, svcCfg ServiceConfig, addr string) (*ServiceRegistry, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   regCfg.Endpoints,
		DialTimeout: regCfg.DialTimeout,
		Username:    regCfg.Username,
		Password:    regCfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("etcd client: %w", err)
	}

	ttl := int64(svcCfg.TTL.Seconds())
	if ttl <= 0 {
		ttl = 30
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ServiceRegistry{
		client: client,
		name:   svcCfg.ServiceName,
		id:     svcCfg.ServiceID,
		addr:   addr,
		ttl:    ttl,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

func (r *ServiceRegistry) key() string {
	return fmt.Sprintf("/services/%s/%s", r.name, r.id)
}

// Register writes the instance key under a lease and starts the keep-alive
// loop. Losing the lease makes the key expire on its own.
func (r *ServiceRegistry) Register() error {
	lease, err := r.client.Grant(r.ctx, r.ttl)
	if err != nil {
		return fmt.Errorf("grant lease: %w", err)
	}
	r.leaseID = lease.ID

	if _, err := r.client.Put(r.ctx, r.key(), r.addr, clientv3.WithLease(r.leaseID)); err != nil {
		return fmt.Errorf("put service key: %w", err)
	}

	go r.keepAlive()
	logger.Infof("service registered key=%s addr=%s ttl=%ds", r.key(), r.addr, r.ttl)
	return nil
}

func (r *ServiceRegistry) keepAlive() {
	ch, err := r.client.KeepAlive(r.ctx, r.leaseID)
	if err != nil {
		logger.Warnf("lease keep-alive failed lease=%d error=%v", r.leaseID, err)
		return
	}
	for {
		select {
		case <-r.ctx.Done():
			return
		case ka, ok := <-ch:
			if !ok || ka == nil {
				logger.Warnf("lease keep-alive channel closed key=%s", r.key())
				return
			}
		}
	}
}

// Deregister revokes the lease so the key disappears immediately instead of
// waiting out the TTL, then closes the client.
func (r *ServiceRegistry) Deregister() error {
	r.cancel()
	if r.leaseID != 0 {
		if _, err := r.client.Revoke(context.Background(), r.leaseID); err != nil {
			logger.Warnf("lease revoke failed lease=%d error=%v", r.leaseID, err)
		}
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("close etcd client: %w", err)
	}
	logger.Infof("service deregistered key=%s", r.key())
	return nil
}
