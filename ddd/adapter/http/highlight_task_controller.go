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
	highlightTaskControllerOnce      sync.Once
	singletonHighlightTaskController *highlightTaskController
)

// HighlightTaskControllerPlugin mounts the task submission and query routes.
type HighlightTaskControllerPlugin struct{}

func (p *HighlightTaskControllerPlugin) Name() string {
	return "highlightTaskController"
}

func (p *HighlightTaskControllerPlugin) MustCreateController(deps *manager.Dependencies) manager.Controller {
	assert.NotCircular()
	highlightTaskControllerOnce.Do(func() {
		highlightApp, _ := deps.HighlightAppService.(app.HighlightApp)
		if highlightApp == nil {
			highlightApp = app.DefaultHighlightApp()
		}
		singletonHighlightTaskController = &highlightTaskController{
			highlightApp: highlightApp,
		}
	})
	assert.NotNil(singletonHighlightTaskController)
	return singletonHighlightTaskController
}

type highlightTaskController struct {
	highlightApp app.HighlightApp
}

func (c *highlightTaskController) RegisterRoutes(engine *gin.Engine) {
	v1 := engine.Group("/api/v1")
	tasks := v1.Group("/tasks")
	{
		tasks.POST("", c.SubmitTask)
		tasks.GET("", c.ListTasks)
		tasks.GET("/:task_uuid", c.GetTask)
		tasks.GET("/:task_uuid/progress", c.GetTaskProgress)
		tasks.GET("/:task_uuid/result", c.GetTaskResult)
		tasks.POST("/:task_uuid/cancel", c.CancelTask)
	}
}

// SubmitTask accepts a highlight task and enqueues it for the pipeline.
func (c *highlightTaskController) SubmitTask(ctx *gin.Context) {
	var req cqe.SubmitTaskCqe
	if err := ctx.ShouldBindJSON(&req); err != nil {
		restapi.Failed(ctx, err)
		return
	}
	if req.UserUUID == "" {
		req.UserUUID = ctx.GetString("user_uuid")
	}

	taskDto, err := c.highlightApp.SubmitTask(ctx.Request.Context(), &req)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}

	restapi.Success(ctx, taskDto)
}

// GetTask returns the task detail including progress.
func (c *highlightTaskController) GetTask(ctx *gin.Context) {
	req := cqe.QueryTaskReq{TaskUUID: ctx.Param("task_uuid")}
	if err := req.Validate(); err != nil {
		restapi.Failed(ctx, err)
		return
	}

	taskDto, err := c.highlightApp.GetTask(ctx.Request.Context(), req.TaskUUID)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}

	restapi.Success(ctx, taskDto)
}

// GetTaskProgress returns the compact polling view of a task.
func (c *highlightTaskController) GetTaskProgress(ctx *gin.Context) {
	req := cqe.QueryTaskReq{TaskUUID: ctx.Param("task_uuid")}
	if err := req.Validate(); err != nil {
		restapi.Failed(ctx, err)
		return
	}

	progressDto, err := c.highlightApp.GetTaskProgress(ctx.Request.Context(), req.TaskUUID)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}

	restapi.Success(ctx, progressDto)
}

// GetTaskResult returns the aggregated outcome once the task is terminal.
func (c *highlightTaskController) GetTaskResult(ctx *gin.Context) {
	req := cqe.GetTaskResultReq{TaskUUID: ctx.Param("task_uuid")}
	if err := req.Validate(); err != nil {
		restapi.Failed(ctx, err)
		return
	}

	resultDto, err := c.highlightApp.GetTaskResult(ctx.Request.Context(), req.TaskUUID)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}

	restapi.Success(ctx, resultDto)
}

// CancelTask requests cooperative cancellation of a queued or running task.
func (c *highlightTaskController) CancelTask(ctx *gin.Context) {
	req := cqe.CancelTaskReq{TaskUUID: ctx.Param("task_uuid")}
	if err := req.Validate(); err != nil {
		restapi.Failed(ctx, err)
		return
	}

	if err := c.highlightApp.CancelTask(ctx.Request.Context(), req.TaskUUID); err != nil {
		restapi.Failed(ctx, err)
		return
	}

	restapi.Success(ctx, gin.H{"task_uuid": req.TaskUUID, "status": "cancelling"})
}

// ListTasks pages through the caller's tasks, newest first.
func (c *highlightTaskController) ListTasks(ctx *gin.Context) {
	var req cqe.ListTasksReq
	if err := ctx.ShouldBindQuery(&req); err != nil {
		restapi.Failed(ctx, err)
		return
	}
	if req.UserUUID == "" {
		req.UserUUID = ctx.GetString("user_uuid")
	}
	if err := req.Validate(); err != nil {
		restapi.Failed(ctx, err)
		return
	}

	listDto, err := c.highlightApp.ListTasks(ctx.Request.Context(), req.UserUUID, req.Page, req.Size)
	if err != nil {
		restapi.Failed(ctx, err)
		return
	}

	restapi.Success(ctx, listDto)
}
