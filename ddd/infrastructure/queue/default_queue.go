package queue

import (
	"sync"

	"highlight-service/pkg/config"
)

var (
	queueOnce    sync.Once
	defaultQueue TaskQueue
)

// DefaultTaskQueue returns the shared pipeline intake queue
func DefaultTaskQueue() TaskQueue {
	queueOnce.Do(func() {
		capacity := 100
		if cfg := config.GetGlobalConfig(); cfg != nil {
			if cfg.Worker.QueueCapacity > 0 {
				capacity = cfg.Worker.QueueCapacity
			}
		}
		defaultQueue = NewMemoryTaskQueue(capacity)
	})
	return defaultQueue
}

// CloseDefaultTaskQueue closes the shared queue during shutdown
func CloseDefaultTaskQueue() {
	if defaultQueue != nil {
		_ = defaultQueue.Close()
	}
}
