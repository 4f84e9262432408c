package task

import (
	"context"
	"fmt"
	"sync"
)

// BackgroundTask is a long-running process owned by the lifecycle of the
// service: a queue worker, a Kafka consumer, the publish drain loop.
type BackgroundTask interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
}

var (
	mu      sync.Mutex
	tasks   []BackgroundTask
	cancel  context.CancelFunc
	started bool
)

// Register adds a task to the lifecycle. Call during component assembly,
// before StartAll.
func Register(task BackgroundTask) {
	if task == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	tasks = append(tasks, task)
}

// StartAll starts every registered task under a shared cancellable context.
// A second call while running is a no-op. The first task that fails to start
// aborts the rest.
func StartAll(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()
	if started {
		return nil
	}
	runCtx, stop := context.WithCancel(ctx)
	cancel = stop
	for _, t := range tasks {
		if err := t.Start(runCtx); err != nil {
			stop()
			return fmt.Errorf("start background task %s: %w", t.Name(), err)
		}
	}
	started = true
	return nil
}

// StopAll cancels the shared context and stops tasks in reverse registration
// order, so consumers drain before the workers they feed shut down.
func StopAll() {
	mu.Lock()
	defer mu.Unlock()
	if cancel != nil {
		cancel()
		cancel = nil
	}
	for i := len(tasks) - 1; i >= 0; i-- {
		_ = tasks[i].Stop()
	}
	started = false
}
