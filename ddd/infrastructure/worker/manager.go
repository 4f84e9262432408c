package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ManagedWorker the lifecycle surface shared by pipeline and publish workers
type ManagedWorker interface {
	Start(ctx context.Context) error
	Stop() error
	IsRunning() bool
	GetStats() WorkerStats
}

// WorkerManager tracks the named workers of this process for the stats
// endpoint and for grouped start/stop
type WorkerManager struct {
	workers map[string]ManagedWorker
	mu      sync.RWMutex
}

var (
	managerOnce      sync.Once
	singletonManager *WorkerManager
)

// DefaultWorkerManager returns the process-wide worker manager
func DefaultWorkerManager() *WorkerManager {
	managerOnce.Do(func() {
		singletonManager = NewWorkerManager()
	})
	return singletonManager
}

func NewWorkerManager() *WorkerManager {
	return &WorkerManager{
		workers: make(map[string]ManagedWorker),
	}
}

// AddWorker registers a worker under a stable name
func (wm *WorkerManager) AddWorker(name string, worker ManagedWorker) {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	wm.workers[name] = worker
}

// StartAll starts every registered worker
func (wm *WorkerManager) StartAll(ctx context.Context) error {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	for name, worker := range wm.workers {
		if err := worker.Start(ctx); err != nil {
			return fmt.Errorf("failed to start worker %s: %w", name, err)
		}
	}
	return nil
}

// StopAll stops every registered worker
func (wm *WorkerManager) StopAll() error {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	var errs []error
	for _, worker := range wm.workers {
		if err := worker.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to stop some workers: %v", errs)
	}
	return nil
}

// GetAllStats snapshots every worker's counters keyed by worker name
func (wm *WorkerManager) GetAllStats() map[string]WorkerStats {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	stats := make(map[string]WorkerStats, len(wm.workers))
	for name, worker := range wm.workers {
		stats[name] = worker.GetStats()
	}
	return stats
}

// RunningStates reports each worker's running flag keyed by name
func (wm *WorkerManager) RunningStates() map[string]bool {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	states := make(map[string]bool, len(wm.workers))
	for name, worker := range wm.workers {
		states[name] = worker.IsRunning()
	}
	return states
}

// Names lists registered worker names in stable order
func (wm *WorkerManager) Names() []string {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	names := make([]string, 0, len(wm.workers))
	for name := range wm.workers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
