package queue

import (
	"context"
	"fmt"
	"sync"

	"highlight-service/ddd/domain/entity"
)

// TaskQueue hands submitted highlight tasks to the pipeline workers.
type TaskQueue interface {
	// Enqueue adds a task, failing fast when the queue is full
	Enqueue(ctx context.Context, task *entity.HighlightTaskEntity) error

	// Dequeue blocks until a task or context cancellation
	Dequeue(ctx context.Context) (*entity.HighlightTaskEntity, error)

	// TryDequeue returns nil immediately when the queue is empty
	TryDequeue(ctx context.Context) (*entity.HighlightTaskEntity, error)

	// Size reports the number of waiting tasks
	Size() int

	// IsEmpty checks whether any task is waiting
	IsEmpty() bool

	// Close stops the queue
	Close() error

	// IsClosed checks whether the queue has been closed
	IsClosed() bool

	// GetMetrics snapshots the queue counters
	GetMetrics() QueueMetrics
}

// MemoryTaskQueue channel-backed in-process queue
type MemoryTaskQueue struct {
	queue   chan *entity.HighlightTaskEntity
	closed  bool
	mu      sync.RWMutex
	metrics *QueueMetrics
}

// QueueMetrics counters exposed through the worker stats endpoint
type QueueMetrics struct {
	EnqueueCount uint64
	DequeueCount uint64
	MaxSize      int
	CurrentSize  int
	mu           sync.RWMutex
}

// NewMemoryTaskQueue creates a bounded in-memory queue
func NewMemoryTaskQueue(capacity int) TaskQueue {
	if capacity <= 0 {
		capacity = 1000
	}

	return &MemoryTaskQueue{
		queue: make(chan *entity.HighlightTaskEntity, capacity),
		metrics: &QueueMetrics{
			MaxSize: capacity,
		},
	}
}

func (q *MemoryTaskQueue) Enqueue(ctx context.Context, task *entity.HighlightTaskEntity) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if task == nil {
		return fmt.Errorf("task cannot be nil")
	}

	select {
	case q.queue <- task:
		q.updateEnqueueMetrics()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("queue is full")
	}
}

func (q *MemoryTaskQueue) Dequeue(ctx context.Context) (*entity.HighlightTaskEntity, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return nil, fmt.Errorf("queue is closed")
	}

	select {
	case task := <-q.queue:
		q.updateDequeueMetrics()
		return task, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryTaskQueue) TryDequeue(ctx context.Context) (*entity.HighlightTaskEntity, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return nil, fmt.Errorf("queue is closed")
	}

	select {
	case task := <-q.queue:
		q.updateDequeueMetrics()
		return task, nil
	default:
		return nil, nil
	}
}

func (q *MemoryTaskQueue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return 0
	}

	return len(q.queue)
}

func (q *MemoryTaskQueue) IsEmpty() bool {
	return q.Size() == 0
}

func (q *MemoryTaskQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	q.closed = true
	close(q.queue)
	return nil
}

func (q *MemoryTaskQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// GetMetrics snapshots the queue counters
func (q *MemoryTaskQueue) GetMetrics() QueueMetrics {
	q.metrics.mu.RLock()
	defer q.metrics.mu.RUnlock()

	metrics := QueueMetrics{
		EnqueueCount: q.metrics.EnqueueCount,
		DequeueCount: q.metrics.DequeueCount,
		MaxSize:      q.metrics.MaxSize,
	}
	metrics.CurrentSize = q.Size()
	return metrics
}

func (q *MemoryTaskQueue) updateEnqueueMetrics() {
	q.metrics.mu.Lock()
	defer q.metrics.mu.Unlock()
	q.metrics.EnqueueCount++
}

func (q *MemoryTaskQueue) updateDequeueMetrics() {
	q.metrics.mu.Lock()
	defer q.metrics.mu.Unlock()
	q.metrics.DequeueCount++
}
