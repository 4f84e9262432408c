package worker

import (
	"context"

	"highlight-service/ddd/domain/port"
	"highlight-service/ddd/domain/service"
	"highlight-service/ddd/infrastructure/cache"
	"highlight-service/ddd/infrastructure/database/persistence"
	"highlight-service/ddd/infrastructure/downloader"
	"highlight-service/ddd/infrastructure/executor"
	"highlight-service/ddd/infrastructure/progress"
	"highlight-service/ddd/infrastructure/publisher"
	"highlight-service/ddd/infrastructure/queue"
	"highlight-service/ddd/infrastructure/reporter"
	"highlight-service/ddd/infrastructure/signal"
	"highlight-service/ddd/infrastructure/storage"
	"highlight-service/internal/resource"
	"highlight-service/pkg/config"
	"highlight-service/pkg/logger"
	"highlight-service/pkg/manager"
	"highlight-service/pkg/task"
)

// HighlightWorkerComponentPlugin wires the pipeline and publish workers
type HighlightWorkerComponentPlugin struct{}

func (p *HighlightWorkerComponentPlugin) Name() string {
	return "highlightWorkerComponent"
}

func (p *HighlightWorkerComponentPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	taskRepo := persistence.NewHighlightTaskRepository()
	clipRepo := persistence.NewHighlightClipRepository()
	jobRepo := persistence.NewPublishJobRepository()
	queueInstance := queue.DefaultTaskQueue()
	cfg := deps.Config
	if cfg == nil {
		cfg = config.GetGlobalConfig()
	}

	storageGateway := storage.NewMinioStorage(resource.DefaultMinioResource(), cfg)
	renderCache := cache.NewRedisRenderCache(resource.DefaultRedisResource().Client())

	prober := executor.NewFFprobeProber(cfg)
	encoder := executor.NewFFmpegClipEncoder(cfg)

	downloaders := port.NewDownloaderRegistry()
	downloaders.Register(downloader.NewYtDlpDownloader(cfg))
	downloaders.Register(downloader.NewLocalFileDownloader())

	scorers := port.NewScorerRegistry()
	scorers.Register(signal.NewAudioEnergyScorer(cfg))
	scorers.Register(signal.NewSceneChangeScorer(cfg))
	scorers.Register(signal.NewUniformScorer())

	publishers := publisher.BuildRegistry(cfg)

	fetchSvc := service.NewFetchService(downloaders, prober, cfg)
	selectSvc := service.NewSelectionService(scorers, cfg)
	renderSvc := service.NewRenderService(encoder, prober, storageGateway, renderCache, cfg)
	publishSvc := service.NewPublishService(jobRepo, clipRepo, taskRepo, publishers, cfg)

	sinks := []port.ProgressSink{
		progress.NewDBSink(taskRepo),
		progress.NewKafkaEventSink(cfg),
	}
	eventReporter := reporter.DefaultTaskEventReporter(taskRepo)

	pipelineSvc := service.NewPipelineService(
		taskRepo, clipRepo, fetchSvc, selectSvc, renderSvc, publishSvc, sinks, eventReporter, cfg)

	workerCount := 1
	workerID := "highlight-worker"
	if cfg != nil {
		if cfg.Worker.MaxConcurrentTasks > 0 {
			workerCount = cfg.Worker.MaxConcurrentTasks
		}
		if cfg.Worker.WorkerID != "" {
			workerID = cfg.Worker.WorkerID
		}
	}

	mgr := DefaultWorkerManager()
	component := &highlightWorkerComponent{
		name:  "highlightWorker",
		queue: queueInstance,
	}

	if cfg == nil || cfg.Worker.Enabled {
		pipelineWorker := NewPipelineWorker(workerID, queueInstance, pipelineSvc, taskRepo, workerCount)
		mgr.AddWorker("pipeline", pipelineWorker)
		component.pipelineWorker = pipelineWorker
	}

	if cfg != nil && cfg.Publish.Enabled {
		publishWorker := NewPublishWorker(workerID+"-publish", jobRepo, publishSvc, publishers, cfg)
		mgr.AddWorker("publish", publishWorker)
		component.publishWorker = publishWorker
	}

	return component
}

type highlightWorkerComponent struct {
	name           string
	queue          queue.TaskQueue
	pipelineWorker PipelineWorker
	publishWorker  PublishWorker
	cancel         context.CancelFunc
}

func (c *highlightWorkerComponent) Start() error {
	if c.pipelineWorker == nil && c.publishWorker == nil {
		logger.Infof("highlight worker component disabled by config name=%s", c.name)
		return nil
	}

	// Background tasks start together once the app finished wiring.
	if c.pipelineWorker != nil {
		task.Register(&backgroundTaskAdapter{name: c.name, startFunc: c.pipelineWorker.Start, stopFunc: c.pipelineWorker.Stop})
	}
	if c.publishWorker != nil {
		task.Register(&backgroundTaskAdapter{name: c.name + "-publish", startFunc: c.publishWorker.Start, stopFunc: c.publishWorker.Stop})
	}
	logger.Infof("highlight worker component registered background tasks name=%s", c.name)
	return nil
}

func (c *highlightWorkerComponent) Stop() error {
	// task.StopAll stops the registered workers, keep this idempotent.
	if c.cancel != nil {
		c.cancel()
	}
	queue.CloseDefaultTaskQueue()
	logger.Infof("highlight worker component stopped name=%s", c.name)
	return nil
}

func (c *highlightWorkerComponent) GetName() string {
	return c.name
}

// backgroundTaskAdapter adapts Start/Stop functions to the BackgroundTask interface.
type backgroundTaskAdapter struct {
	name      string
	startFunc func(ctx context.Context) error
	stopFunc  func() error
}

func (b *backgroundTaskAdapter) Name() string                    { return b.name }
func (b *backgroundTaskAdapter) Start(ctx context.Context) error { return b.startFunc(ctx) }
func (b *backgroundTaskAdapter) Stop() error                     { return b.stopFunc() }
