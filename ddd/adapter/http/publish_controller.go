package http

import (
	"sync"

	"github.com/gin-gonic/gin"

	"highlight-service/ddd/application/app"
	"highlight-service/ddd/application/cqe"
	"highlight-service/pkg/assert"
	"highlight-service/pkg/manager"
	"highlight-service/pkg/restapi"
)

var (
	publishControllerOnce      sync.Once
	singletonPublishController *publishController
)

// PublishControllerPlugin mounts the publish scheduling routes.
type PublishControllerPlugin struct{}

func (p *PublishControllerPlugin) Name() string {
	return "publishController"
}

func (p *PublishControllerPlugin) MustCreateController(deps *manager.Dependencies) manager.Controller {
	assert.NotCircular()
	publishControllerOnce.Do(func() {
		publishApp, _ := deps.PublishAppService.(app.PublishApp)
		if publishApp == nil {
			publishApp = app.DefaultPublishApp()
		}
		singletonPublishController = &publishController{
			publishApp: publishApp,
		}
	})
	assert.NotNil(singletonPublishController)
	return singletonPublishController
}

type publishController struct {
	publishApp app.PublishApp
}

func (c *publishController) RegisterRoutes(engine *gin.Engine) {
	v1 := engine.Group("/api/v1")
	publish := v1.Group("/publish")
	{
		publish.POST("", c.EnqueueClip)
		publish.GET("", c.ListJobsByTask)
		publish.GET("/:job_uuid", c.GetJob)
	}
}

// EnqueueClip schedules one rendered clip for one platform.
func (c *publishController) EnqueueClip(ctx *gin.Context) {
	var req cqe.EnqueuePublishReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		restapi.Failed(ctx, err)
		return
	}

	jobDto, err := c.publishApp.EnqueueClip(ctx.Request.Context(), &req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}

	restapi.Success(ctx, jobDto)
}

// GetJob returns the state of one publish job.
func (c *publishController) GetJob(ctx *gin.Context) {
	req := cqe.QueryPublishJobReq{JobUUID: ctx.Param("job_uuid")}
	if err := req.Validate(); err != nil {
		restapi.Failed(ctx, err)
		return
	}

	jobDto, err := c.publishApp.GetJob(ctx.Request.Context(), req.JobUUID)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}

	restapi.Success(ctx, jobDto)
}

// ListJobsByTask returns every publish job spawned by a task.
func (c *publishController) ListJobsByTask(ctx *gin.Context) {
	req := cqe.ListPublishJobsReq{TaskUUID: ctx.Query("task_uuid")}
	if err := req.Validate(); err != nil {
		restapi.Failed(ctx, err)
		return
	}

	listDto, err := c.publishApp.ListJobsByTask(ctx.Request.Context(), req.TaskUUID)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}

	restapi.Success(ctx, listDto)
}
