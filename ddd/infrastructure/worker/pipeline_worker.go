package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"highlight-service/ddd/domain/entity"
	"highlight-service/ddd/domain/repo"
	"highlight-service/ddd/domain/service"
	"highlight-service/ddd/domain/vo"
	"highlight-service/ddd/infrastructure/queue"
	"highlight-service/pkg/logger"
)

const (
	// stuckTaskThreshold tasks in-flight with no row update for this long
	// are presumed orphaned by a dead worker
	stuckTaskThreshold = 30 * time.Minute

	recoveryInterval  = 30 * time.Second
	recoveryBatchSize = 100
)

// inFlightStatuses non-terminal statuses a crashed worker can strand a task in
var inFlightStatuses = []vo.TaskStatus{
	vo.TaskStatusFetching,
	vo.TaskStatusSelecting,
	vo.TaskStatusRendering,
	vo.TaskStatusPublishing,
}

// PipelineWorker drains the task queue and runs the highlight pipeline
type PipelineWorker interface {
	// Start launches the worker goroutines
	Start(ctx context.Context) error

	// Stop halts the worker and waits for in-flight tasks
	Stop() error

	// IsRunning reports whether the worker is active
	IsRunning() bool

	// GetStats returns a snapshot of the worker counters
	GetStats() WorkerStats
}

// WorkerStats worker counters exposed on the stats endpoint
type WorkerStats struct {
	ProcessedTasks   uint64
	SuccessfulTasks  uint64
	FailedTasks      uint64
	CancelledTasks   uint64
	RecoveredTasks   uint64
	CurrentlyRunning int
	StartTime        time.Time
	LastTaskTime     time.Time
}

type pipelineWorkerImpl struct {
	id              string
	taskQueue       queue.TaskQueue
	pipelineService service.PipelineService
	taskRepo        repo.HighlightTaskRepository
	workerCount     int
	running         bool
	cancel          context.CancelFunc
	stats           WorkerStats
	mu              sync.RWMutex
	wg              sync.WaitGroup
}

// NewPipelineWorker creates the highlight pipeline worker
func NewPipelineWorker(
	id string,
	taskQueue queue.TaskQueue,
	pipelineService service.PipelineService,
	taskRepo repo.HighlightTaskRepository,
	workerCount int,
) PipelineWorker {
	if workerCount <= 0 {
		workerCount = 1
	}

	return &pipelineWorkerImpl{
		id:              id,
		taskQueue:       taskQueue,
		pipelineService: pipelineService,
		taskRepo:        taskRepo,
		workerCount:     workerCount,
		stats: WorkerStats{
			StartTime: time.Now(),
		},
	}
}

func (w *pipelineWorkerImpl) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("worker %s is already running", w.id)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.stats.StartTime = time.Now()

	logger.Infof("starting pipeline worker id=%s goroutines=%d", w.id, w.workerCount)

	// Requeue the backlog first so a restart does not strand submitted tasks.
	go w.requeuePendingTasks(workerCtx)

	for i := 0; i < w.workerCount; i++ {
		w.wg.Add(1)
		go w.workerLoop(workerCtx, i)
	}

	w.wg.Add(1)
	go w.recoveryLoop(workerCtx)

	return nil
}

func (w *pipelineWorkerImpl) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}

	logger.Infof("stopping pipeline worker id=%s", w.id)

	if w.cancel != nil {
		w.cancel()
	}
	w.running = false
	// Wait outside the lock, draining goroutines still touch the stats.
	w.mu.Unlock()

	w.wg.Wait()
	logger.Infof("pipeline worker stopped id=%s", w.id)

	return nil
}

func (w *pipelineWorkerImpl) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *pipelineWorkerImpl) GetStats() WorkerStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *pipelineWorkerImpl) workerLoop(ctx context.Context, workerID int) {
	defer w.wg.Done()

	logger.Infof("worker loop started id=%s-%d", w.id, workerID)
	defer logger.Infof("worker loop stopped id=%s-%d", w.id, workerID)

	for {
		select {
		case <-ctx.Done():
			return
		default:
			task, err := w.taskQueue.Dequeue(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return
				}
				logger.Warnf("dequeue failed id=%s-%d error=%v", w.id, workerID, err)
				time.Sleep(time.Second)
				continue
			}
			if task == nil {
				continue
			}

			w.processTask(ctx, task, workerID)
		}
	}
}

func (w *pipelineWorkerImpl) processTask(ctx context.Context, task *entity.HighlightTaskEntity, workerID int) {
	logger.Infof("worker picked task id=%s-%d task_uuid=%s", w.id, workerID, task.TaskUUID())

	// The queued entity can be stale after a restart, the row is the truth.
	if w.taskRepo != nil {
		if fresh, err := w.taskRepo.GetTaskByUUID(ctx, task.TaskUUID()); err == nil && fresh != nil {
			task = fresh
		}
	}
	if task.IsTerminal() {
		logger.Infof("skipping terminal task id=%s-%d task_uuid=%s status=%s",
			w.id, workerID, task.TaskUUID(), task.Status())
		return
	}

	w.updateStats(func(stats *WorkerStats) {
		stats.CurrentlyRunning++
		stats.LastTaskTime = time.Now()
	})
	defer w.updateStats(func(stats *WorkerStats) {
		stats.CurrentlyRunning--
		stats.ProcessedTasks++
	})

	err := w.pipelineService.ExecuteTask(ctx, task)
	switch {
	case err == nil:
		w.updateStats(func(stats *WorkerStats) { stats.SuccessfulTasks++ })
	case errors.Is(err, service.ErrTaskCancelled):
		logger.Infof("task cancelled mid-pipeline id=%s-%d task_uuid=%s", w.id, workerID, task.TaskUUID())
		w.updateStats(func(stats *WorkerStats) { stats.CancelledTasks++ })
	default:
		logger.Errorf("task failed id=%s-%d task_uuid=%s error=%v", w.id, workerID, task.TaskUUID(), err)
		w.updateStats(func(stats *WorkerStats) { stats.FailedTasks++ })
	}
}

// requeuePendingTasks pushes tasks still pending in the database back onto
// the in-memory queue after a restart
func (w *pipelineWorkerImpl) requeuePendingTasks(ctx context.Context) {
	if w.taskRepo == nil {
		return
	}
	tasks, err := w.taskRepo.QueryTasksByStatus(ctx, vo.TaskStatusPending, recoveryBatchSize)
	if err != nil {
		logger.Warnf("pending backlog query failed id=%s error=%v", w.id, err)
		return
	}
	requeued := 0
	for _, t := range tasks {
		if err := w.taskQueue.Enqueue(ctx, t); err != nil {
			logger.Warnf("pending backlog enqueue failed id=%s task_uuid=%s error=%v", w.id, t.TaskUUID(), err)
			continue
		}
		requeued++
	}
	if requeued > 0 {
		logger.Infof("pending backlog requeued id=%s count=%d", w.id, requeued)
	}
}

// recoveryLoop periodically reclaims tasks a dead worker left in-flight
func (w *pipelineWorkerImpl) recoveryLoop(ctx context.Context) {
	defer w.wg.Done()

	w.recoverStuckTasks(ctx)

	ticker := time.NewTicker(recoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.recoverStuckTasks(ctx)
		}
	}
}

// recoverStuckTasks resets orphaned in-flight tasks to pending and requeues
// them. The CAS skips rows a live worker is still updating.
func (w *pipelineWorkerImpl) recoverStuckTasks(ctx context.Context) {
	if w.taskRepo == nil {
		return
	}
	cutoff := time.Now().Add(-stuckTaskThreshold)

	for _, status := range inFlightStatuses {
		tasks, err := w.taskRepo.QueryTasksByStatus(ctx, status, recoveryBatchSize)
		if err != nil {
			logger.Warnf("stuck task query failed id=%s status=%s error=%v", w.id, status, err)
			continue
		}
		for _, task := range tasks {
			if task.UpdatedAt().After(cutoff) {
				continue
			}

			swapped, err := w.taskRepo.CompareAndSetStatus(ctx, task.TaskUUID(), status, vo.TaskStatusPending)
			if err != nil {
				logger.Warnf("stuck task reset failed id=%s task_uuid=%s error=%v", w.id, task.TaskUUID(), err)
				continue
			}
			if !swapped {
				continue
			}
			if err := w.taskQueue.Enqueue(ctx, task); err != nil {
				logger.Warnf("stuck task enqueue failed id=%s task_uuid=%s error=%v", w.id, task.TaskUUID(), err)
				continue
			}
			w.updateStats(func(stats *WorkerStats) { stats.RecoveredTasks++ })
			logger.Infof("recovered stuck task id=%s task_uuid=%s was=%s", w.id, task.TaskUUID(), status)
		}
	}
}

func (w *pipelineWorkerImpl) updateStats(updateFunc func(*WorkerStats)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	updateFunc(&w.stats)
}
