package restapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"highlight-service/pkg/errno"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSuccessEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Success(ctx, gin.H{"task_uuid": "task-1"})

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, errno.OK.Code, resp.Code)
	assert.Equal(t, errno.OK.Message, resp.Message)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "task-1", data["task_uuid"])
}

func TestSuccessNilDataOmitted(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Success(ctx, nil)

	assert.NotContains(t, rec.Body.String(), `"data"`)
}

func TestFailedClientErrorKeepsHTTPStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Failed(ctx, errno.ErrInvalidParam)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, 400, resp.Code)
	assert.Equal(t, "Invalid parameter", resp.Message)
}

func TestFailedBusinessCodeRidesOnOK(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Failed(ctx, errno.ErrTaskNotFound)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, 20001, resp.Code)
	assert.Equal(t, "Highlight task not found", resp.Message)
}

func TestFailedServerErrorMapsTo500(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Failed(ctx, errno.ErrInternalServer)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, 500, resp.Code)
}

func TestFailedUnknownErrorMapsTo500(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Failed(ctx, errors.New("something odd"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, errno.ErrUnknown.Code, resp.Code)
	assert.Equal(t, "something odd", resp.Message)
}

func TestFailedBizErrorCarriesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)

	Failed(ctx, errno.NewBizError(errno.ErrDatabase, errors.New("connection reset")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, 501, resp.Code)
	assert.Equal(t, "Database error: connection reset", resp.Message)
}
