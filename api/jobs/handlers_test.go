package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezclip/ezclip-api/api/types"
	"github.com/ezclip/ezclip-api/internal/database"
	"github.com/ezclip/ezclip-api/internal/models"
	jobsservice "github.com/ezclip/ezclip-api/internal/services/jobs"
)

func setupTestRouter(t *testing.T) (*gin.Engine, jobsservice.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Initialize(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	t.Cleanup(func() { _ = db.Close() })

	jobSvc := jobsservice.NewService(jobsservice.NewRepository(db.DB))

	router := gin.New()
	RegisterRoutes(router, &types.Dependencies{DB: db, JobService: jobSvc})
	return router, jobSvc
}

func getJob(t *testing.T, router *gin.Engine, jobID uint) (*httptest.ResponseRecorder, types.JobResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/jobs/%d", jobID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp types.JobResponse
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestGetJob(t *testing.T) {
	router, jobSvc := setupTestRouter(t)
	ctx := context.Background()

	job, err := jobSvc.EnqueueJob(ctx, models.JobTypeTranscriptionPipeline, models.JobPayload{"media_file_id": 1})
	require.NoError(t, err)

	w, resp := getJob(t, router, job.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, job.ID, resp.JobID)
	assert.Equal(t, string(models.JobTypeTranscriptionPipeline), resp.Type)
	assert.Equal(t, string(models.JobStatusPending), resp.JobStatus)
	assert.Equal(t, 0, resp.Progress)
	assert.Empty(t, resp.Error)
}

func TestGetJobNotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	w, _ := getJob(t, router, 9999)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/jobs/not-a-number", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJobReportsFailure(t *testing.T) {
	router, jobSvc := setupTestRouter(t)
	ctx := context.Background()

	job, err := jobSvc.EnqueueJob(ctx, models.JobTypeClipExport, models.JobPayload{"media_file_id": 1})
	require.NoError(t, err)

	claimed, err := jobSvc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypeClipExport})
	require.NoError(t, err)
	require.NoError(t, jobSvc.FailJob(ctx, claimed.ID,
		models.NewJobError(models.JobErrorTypeMedia, "edit mask keeps nothing", false)))

	w, resp := getJob(t, router, job.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.JobStatusFailed), resp.JobStatus)
	assert.Equal(t, "edit mask keeps nothing", resp.Error)
	assert.Equal(t, 1, resp.RetryCount)
}

func TestGetJobReportsResult(t *testing.T) {
	router, jobSvc := setupTestRouter(t)
	ctx := context.Background()

	job, err := jobSvc.EnqueueJob(ctx, models.JobTypeClipExport, models.JobPayload{"media_file_id": 1})
	require.NoError(t, err)

	claimed, err := jobSvc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypeClipExport})
	require.NoError(t, err)
	require.NoError(t, jobSvc.CompleteJob(ctx, claimed.ID,
		models.JobResult{"output_path": "/exports/interview_edit_abc123.mp4"}))

	w, resp := getJob(t, router, job.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, string(models.JobStatusCompleted), resp.JobStatus)
	assert.Equal(t, 100, resp.Progress)

	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "/exports/interview_edit_abc123.mp4", result["output_path"])
}
