package http

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"highlight-service/ddd/application/dto"
	"highlight-service/pkg/errno"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWorkerApp struct {
	stats *dto.WorkerStatsResponse
	err   error
}

func (f *fakeWorkerApp) GetWorkerStats(context.Context) (*dto.WorkerStatsResponse, error) {
	return f.stats, f.err
}

func workerRouter(app *fakeWorkerApp) *gin.Engine {
	engine := gin.New()
	(&workerController{workerApp: app}).RegisterRoutes(engine)
	return engine
}

func TestGetWorkerStats(t *testing.T) {
	app := &fakeWorkerApp{stats: &dto.WorkerStatsResponse{
		Workers: []dto.WorkerStatDto{{Name: "pipeline-worker", Running: true, ProcessedTasks: 7}},
		Queue:   dto.QueueMetricsDto{MaxSize: 100, CurrentSize: 3},
		Tasks:   &dto.TaskStatisticsDto{TotalTasks: 10, CompletedTasks: 7},
	}}
	engine := workerRouter(app)

	rec := performRequest(t, engine, http.MethodGet, "/api/v1/workers/stats", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeBody(t, rec)
	require.Equal(t, errno.OK.Code, env.Code)

	var got dto.WorkerStatsResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got.Workers, 1)
	assert.Equal(t, "pipeline-worker", got.Workers[0].Name)
	assert.True(t, got.Workers[0].Running)
	assert.Equal(t, 100, got.Queue.MaxSize)
	require.NotNil(t, got.Tasks)
	assert.Equal(t, int64(7), got.Tasks.CompletedTasks)
}

func TestGetWorkerStatsError(t *testing.T) {
	app := &fakeWorkerApp{err: errno.NewBizError(errno.ErrDatabase, nil)}
	engine := workerRouter(app)

	rec := performRequest(t, engine, http.MethodGet, "/api/v1/workers/stats", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeBody(t, rec)
	assert.Equal(t, 501, env.Code)
}

func TestHealthEndpoint(t *testing.T) {
	engine := workerRouter(&fakeWorkerApp{})

	rec := performRequest(t, engine, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "highlight-service", body["service"])
	assert.NotZero(t, body["timestamp"])
}
