package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"highlight-service/ddd/application/cqe"
	"highlight-service/ddd/application/dto"
	"highlight-service/pkg/errno"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublishApp struct {
	enqueueReq *cqe.EnqueuePublishReq
	jobDto     *dto.PublishJobDto
	enqueueErr error

	getJobUUID string
	getErr     error

	listTask string
	listDto  *dto.PublishJobListDto
	listErr  error
}

func (f *fakePublishApp) EnqueueClip(_ context.Context, req *cqe.EnqueuePublishReq) (*dto.PublishJobDto, error) {
	f.enqueueReq = req
	return f.jobDto, f.enqueueErr
}

func (f *fakePublishApp) GetJob(_ context.Context, jobUUID string) (*dto.PublishJobDto, error) {
	f.getJobUUID = jobUUID
	return f.jobDto, f.getErr
}

func (f *fakePublishApp) ListJobsByTask(_ context.Context, taskUUID string) (*dto.PublishJobListDto, error) {
	f.listTask = taskUUID
	return f.listDto, f.listErr
}

func publishRouter(app *fakePublishApp) *gin.Engine {
	engine := gin.New()
	(&publishController{publishApp: app}).RegisterRoutes(engine)
	return engine
}

func TestEnqueueClipReturnsJob(t *testing.T) {
	app := &fakePublishApp{jobDto: &dto.PublishJobDto{JobUUID: "job-1", Platform: "tiktok", Status: "queued"}}
	engine := publishRouter(app)

	rec := performRequest(t, engine, http.MethodPost, "/api/v1/publish", gin.H{
		"clip_uuid": "clip-1",
		"platform":  "tiktok",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeBody(t, rec)
	require.Equal(t, errno.OK.Code, env.Code)

	var got dto.PublishJobDto
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "job-1", got.JobUUID)
	assert.Equal(t, "queued", got.Status)

	require.NotNil(t, app.enqueueReq)
	assert.Equal(t, "clip-1", app.enqueueReq.ClipUUID)
	assert.Equal(t, "tiktok", app.enqueueReq.Platform)
}

func TestEnqueueClipBindingFailure(t *testing.T) {
	app := &fakePublishApp{}
	engine := publishRouter(app)

	// platform carries binding:"required"
	rec := performRequest(t, engine, http.MethodPost, "/api/v1/publish", gin.H{"clip_uuid": "clip-1"})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeBody(t, rec)
	assert.Equal(t, errno.ErrUnknown.Code, env.Code)
	assert.Nil(t, app.enqueueReq)
}

func TestEnqueueClipAppError(t *testing.T) {
	app := &fakePublishApp{enqueueErr: errno.ErrClipNotRendered}
	engine := publishRouter(app)

	rec := performRequest(t, engine, http.MethodPost, "/api/v1/publish", gin.H{
		"clip_uuid": "clip-1",
		"platform":  "tiktok",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeBody(t, rec)
	assert.Equal(t, 20022, env.Code)
}

func TestGetJob(t *testing.T) {
	app := &fakePublishApp{jobDto: &dto.PublishJobDto{JobUUID: "job-1", Status: "published", PublishedURL: "https://platform.example/v/1"}}
	engine := publishRouter(app)

	rec := performRequest(t, engine, http.MethodGet, "/api/v1/publish/job-1", nil)

	env := decodeBody(t, rec)
	require.Equal(t, errno.OK.Code, env.Code)
	assert.Equal(t, "job-1", app.getJobUUID)

	var got dto.PublishJobDto
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "published", got.Status)
	assert.Equal(t, "https://platform.example/v/1", got.PublishedURL)
}

func TestGetJobNotFound(t *testing.T) {
	app := &fakePublishApp{getErr: errno.ErrPublishJobNotFound}
	engine := publishRouter(app)

	rec := performRequest(t, engine, http.MethodGet, "/api/v1/publish/absent", nil)

	env := decodeBody(t, rec)
	assert.Equal(t, 20020, env.Code)
}

func TestListJobsByTask(t *testing.T) {
	app := &fakePublishApp{listDto: &dto.PublishJobListDto{Jobs: []dto.PublishJobDto{{JobUUID: "job-1"}}, Total: 1}}
	engine := publishRouter(app)

	rec := performRequest(t, engine, http.MethodGet, "/api/v1/publish?task_uuid=task-1", nil)

	env := decodeBody(t, rec)
	require.Equal(t, errno.OK.Code, env.Code)
	assert.Equal(t, "task-1", app.listTask)

	var got dto.PublishJobListDto
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 1, got.Total)
}

func TestListJobsRequiresTaskUUID(t *testing.T) {
	app := &fakePublishApp{}
	engine := publishRouter(app)

	rec := performRequest(t, engine, http.MethodGet, "/api/v1/publish", nil)

	env := decodeBody(t, rec)
	assert.Equal(t, 20003, env.Code)
	assert.Empty(t, app.listTask)
}
