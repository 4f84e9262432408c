package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"highlight-service/ddd/application/app"
	"highlight-service/pkg/assert"
	"highlight-service/pkg/manager"
	"highlight-service/pkg/restapi"
)

var (
	workerControllerOnce      sync.Once
	singletonWorkerController *workerController
)

// WorkerControllerPlugin mounts the worker observability routes.
type WorkerControllerPlugin struct{}

func (p *WorkerControllerPlugin) Name() string {
	return "workerController"
}

func (p *WorkerControllerPlugin) MustCreateController(deps *manager.Dependencies) manager.Controller {
	assert.NotCircular()
	workerControllerOnce.Do(func() {
		singletonWorkerController = &workerController{
			workerApp: app.DefaultWorkerApp(),
		}
	})
	assert.NotNil(singletonWorkerController)
	return singletonWorkerController
}

type workerController struct {
	workerApp app.WorkerApp
}

func (c *workerController) RegisterRoutes(engine *gin.Engine) {
	v1 := engine.Group("/api/v1")
	workers := v1.Group("/workers")
	{
		workers.GET("/stats", c.GetWorkerStats)
	}

	engine.GET("/health", c.Health)
}

// GetWorkerStats snapshots the pipeline and publish worker counters together
// with the in-memory queue metrics and the task table statistics.
func (c *workerController) GetWorkerStats(ctx *gin.Context) {
	stats, err := c.workerApp.GetWorkerStats(ctx.Request.Context())
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}

	restapi.Success(ctx, stats)
}

// Health liveness probe.
func (c *workerController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   "highlight-service",
		"timestamp": time.Now().Unix(),
	})
}
