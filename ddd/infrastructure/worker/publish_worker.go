package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/repo"
	"highlight-service/ddd/domain/service"
	"highlight-service/ddd/domain/vo"
	"highlight-service/pkg/config"
	"highlight-service/pkg/logger"
)

const (
	dueJobBatchSize = 50

	// stuckJobThreshold jobs in flight with no row update for this long are
	// presumed orphaned by a dead scheduler
	stuckJobThreshold   = 30 * time.Minute
	jobRecoveryInterval = 30 * time.Second
	jobRecoveryBatch    = 100
)

// PublishWorker drains due publish jobs, one serial loop per platform
type PublishWorker interface {
	Start(ctx context.Context) error
	Stop() error
	IsRunning() bool
	GetStats() WorkerStats
}

type publishWorkerImpl struct {
	id             string
	jobRepo        repo.PublishJobRepository
	publishService service.PublishService
	publishers     *port.PublisherRegistry
	cfg            *config.Config
	running        bool
	cancel         context.CancelFunc
	stats          WorkerStats
	mu             sync.RWMutex
	wg             sync.WaitGroup
}

func NewPublishWorker(id string, jobRepo repo.PublishJobRepository, publishService service.PublishService, publishers *port.PublisherRegistry, cfg *config.Config) PublishWorker {
	return &publishWorkerImpl{
		id:             id,
		jobRepo:        jobRepo,
		publishService: publishService,
		publishers:     publishers,
		cfg:            cfg,
		stats:          WorkerStats{StartTime: time.Now()},
	}
}

func (w *publishWorkerImpl) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("worker %s is already running", w.id)
	}

	platforms := w.publishers.Platforms()
	sort.Strings(platforms)
	if len(platforms) == 0 {
		logger.Warnf("publish worker has no platforms configured id=%s", w.id)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.stats.StartTime = time.Now()

	logger.Infof("starting publish worker id=%s platforms=%v interval=%s", w.id, platforms, w.pollInterval())

	// One goroutine per platform keeps dispatch within a platform strictly
	// sequential while platforms proceed independently.
	w.wg.Add(len(platforms))
	for _, platform := range platforms {
		go w.platformLoop(workerCtx, platform)
	}
	w.wg.Add(1)
	go w.recoveryLoop(workerCtx)
	return nil
}

func (w *publishWorkerImpl) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	if w.cancel != nil {
		w.cancel()
	}
	w.running = false
	// Wait outside the lock, draining goroutines still touch the stats.
	w.mu.Unlock()

	w.wg.Wait()
	logger.Infof("publish worker stopped id=%s", w.id)
	return nil
}

func (w *publishWorkerImpl) IsRunning() bool       { w.mu.RLock(); defer w.mu.RUnlock(); return w.running }
func (w *publishWorkerImpl) GetStats() WorkerStats { w.mu.RLock(); defer w.mu.RUnlock(); return w.stats }

func (w *publishWorkerImpl) platformLoop(ctx context.Context, platform string) {
	defer w.wg.Done()

	w.drainPlatform(ctx, platform)

	ticker := time.NewTicker(w.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drainPlatform(ctx, platform)
		}
	}
}

// drainPlatform dispatches every due job of one platform in scheduled order
func (w *publishWorkerImpl) drainPlatform(ctx context.Context, platform string) {
	jobs, err := w.jobRepo.QueryDueJobs(ctx, platform, time.Now(), dueJobBatchSize)
	if err != nil {
		logger.Warnf("due job query failed id=%s platform=%s error=%v", w.id, platform, err)
		return
	}
	if len(jobs) == 0 {
		return
	}
	logger.Infof("draining due publish jobs id=%s platform=%s count=%d", w.id, platform, len(jobs))

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		w.updateStats(func(s *WorkerStats) { s.CurrentlyRunning++; s.LastTaskTime = time.Now() })
		err := w.publishService.DispatchJob(ctx, job)
		w.updateStats(func(s *WorkerStats) {
			s.CurrentlyRunning--
			s.ProcessedTasks++
			if err != nil {
				s.FailedTasks++
			} else {
				s.SuccessfulTasks++
			}
		})
		if err != nil {
			logger.Errorf("publish dispatch failed id=%s platform=%s job_uuid=%s error=%v",
				w.id, platform, job.JobUUID(), err)
		}
	}
}

// recoveryLoop periodically reclaims jobs a crashed scheduler left in flight
func (w *publishWorkerImpl) recoveryLoop(ctx context.Context) {
	defer w.wg.Done()

	w.recoverStuckJobs(ctx)

	ticker := time.NewTicker(jobRecoveryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.recoverStuckJobs(ctx)
		}
	}
}

// recoverStuckJobs requeues in-flight jobs whose row has gone stale. The CAS
// skips rows a live drain loop is still updating, and the consumed attempt
// stays consumed so the retry budget holds across crashes.
func (w *publishWorkerImpl) recoverStuckJobs(ctx context.Context) {
	jobs, err := w.jobRepo.QueryJobsByStatus(ctx, vo.PublishStatusInFlight, jobRecoveryBatch)
	if err != nil {
		logger.Warnf("stuck job query failed id=%s error=%v", w.id, err)
		return
	}
	cutoff := time.Now().Add(-stuckJobThreshold)

	for _, job := range jobs {
		if job.UpdatedAt().After(cutoff) {
			continue
		}

		swapped, err := w.jobRepo.CompareAndSetStatus(ctx, job.JobUUID(), vo.PublishStatusInFlight, vo.PublishStatusQueued)
		if err != nil {
			logger.Warnf("stuck job reset failed id=%s job_uuid=%s error=%v", w.id, job.JobUUID(), err)
			continue
		}
		if !swapped {
			continue
		}
		w.updateStats(func(s *WorkerStats) { s.RecoveredTasks++ })
		logger.Infof("requeued stuck publish job id=%s job_uuid=%s platform=%s", w.id, job.JobUUID(), job.Platform())
	}
}

func (w *publishWorkerImpl) pollInterval() time.Duration {
	cfg := w.cfg
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}
	if cfg != nil && cfg.Publish.PollInterval > 0 {
		return cfg.Publish.PollInterval
	}
	return time.Minute
}

func (w *publishWorkerImpl) updateStats(f func(*WorkerStats)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f(&w.stats)
}
