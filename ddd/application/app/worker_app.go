package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"highlight-service/ddd/application/dto"
	"highlight-service/ddd/domain/repo"
	"highlight-service/ddd/infrastructure/database/persistence"
	"highlight-service/ddd/infrastructure/queue"
	"highlight-service/ddd/infrastructure/worker"
	"highlight-service/pkg/assert"
	"highlight-service/pkg/logger"
)

var (
	singleWorkerApp WorkerApp
	onceWorkerApp   sync.Once
)

// WorkerApp exposes the background worker and queue counters
type WorkerApp interface {
	// GetWorkerStats snapshots worker, queue and task counters
	GetWorkerStats(ctx context.Context) (*dto.WorkerStatsResponse, error)
}

type workerAppImpl struct {
	taskRepo repo.HighlightTaskRepository
}

// DefaultWorkerApp returns the singleton stats app
func DefaultWorkerApp() WorkerApp {
	assert.NotCircular()
	onceWorkerApp.Do(func() {
		singleWorkerApp = NewWorkerAppWith(persistence.NewHighlightTaskRepository())
	})
	assert.NotNil(singleWorkerApp)
	return singleWorkerApp
}

// NewWorkerAppWith builds the stats app with an explicit repository
func NewWorkerAppWith(taskRepo repo.HighlightTaskRepository) WorkerApp {
	return &workerAppImpl{taskRepo: taskRepo}
}

func (a *workerAppImpl) GetWorkerStats(ctx context.Context) (*dto.WorkerStatsResponse, error) {
	mgr := worker.DefaultWorkerManager()
	allStats := mgr.GetAllStats()
	runningStates := mgr.RunningStates()

	names := make([]string, 0, len(allStats))
	for name := range allStats {
		names = append(names, name)
	}
	sort.Strings(names)

	workers := make([]dto.WorkerStatDto, 0, len(names))
	now := time.Now()
	for _, name := range names {
		s := allStats[name]
		uptime := int64(0)
		if !s.StartTime.IsZero() {
			uptime = int64(now.Sub(s.StartTime).Seconds())
		}
		workers = append(workers, dto.WorkerStatDto{
			Name:             name,
			Running:          runningStates[name],
			ProcessedTasks:   s.ProcessedTasks,
			SuccessfulTasks:  s.SuccessfulTasks,
			FailedTasks:      s.FailedTasks,
			CancelledTasks:   s.CancelledTasks,
			RecoveredTasks:   s.RecoveredTasks,
			CurrentlyRunning: s.CurrentlyRunning,
			UptimeSeconds:    uptime,
			LastTaskTime:     dto.FormatTime(s.LastTaskTime),
		})
	}

	metrics := queue.DefaultTaskQueue().GetMetrics()
	resp := &dto.WorkerStatsResponse{
		Workers: workers,
		Queue: dto.QueueMetricsDto{
			EnqueueCount: metrics.EnqueueCount,
			DequeueCount: metrics.DequeueCount,
			MaxSize:      metrics.MaxSize,
			CurrentSize:  metrics.CurrentSize,
		},
	}

	if a.taskRepo != nil {
		if stats, err := a.taskRepo.GetTaskStatistics(ctx); err != nil {
			logger.Warnf("task statistics query failed error=%v", err)
		} else if stats != nil {
			resp.Tasks = &dto.TaskStatisticsDto{
				TotalTasks:      stats.TotalTasks,
				PendingTasks:    stats.PendingTasks,
				FetchingTasks:   stats.FetchingTasks,
				SelectingTasks:  stats.SelectingTasks,
				RenderingTasks:  stats.RenderingTasks,
				PublishingTasks: stats.PublishingTasks,
				CompletedTasks:  stats.CompletedTasks,
				FailedTasks:     stats.FailedTasks,
				CancelledTasks:  stats.CancelledTasks,
			}
		}
	}

	return resp, nil
}
