package exports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
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

func get(router *gin.Engine, jobID uint) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/exports/%d", jobID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDownloadCompletedExport(t *testing.T) {
	router, jobSvc := setupTestRouter(t)
	ctx := context.Background()

	outputPath := filepath.Join(t.TempDir(), "talk_edit_abc123.mp4")
	require.NoError(t, os.WriteFile(outputPath, []byte("rendered clip"), 0o644))

	job, err := jobSvc.EnqueueJob(ctx, models.JobTypeClipExport, models.JobPayload{"media_file_id": 1})
	require.NoError(t, err)
	claimed, err := jobSvc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypeClipExport})
	require.NoError(t, err)
	require.NoError(t, jobSvc.CompleteJob(ctx, claimed.ID, models.JobResult{"output_path": outputPath}))

	w := get(router, job.ID)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rendered clip", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "talk_edit_abc123.mp4")
}

func TestDownloadPendingExportReportsStatus(t *testing.T) {
	router, jobSvc := setupTestRouter(t)

	job, err := jobSvc.EnqueueJob(context.Background(), models.JobTypeClipExport, models.JobPayload{"media_file_id": 1})
	require.NoError(t, err)

	w := get(router, job.ID)
	require.Equal(t, http.StatusOK, w.Code)

	var resp types.JobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, types.StatusProcessing, resp.Status)
	assert.Equal(t, string(models.JobStatusPending), resp.JobStatus)
}

func TestDownloadNotFound(t *testing.T) {
	router, jobSvc := setupTestRouter(t)

	w := get(router, 9999)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Pipeline jobs are not exports
	job, err := jobSvc.EnqueueJob(context.Background(), models.JobTypeTranscriptionPipeline, models.JobPayload{"media_file_id": 1})
	require.NoError(t, err)
	w = get(router, job.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadMissingFile(t *testing.T) {
	router, jobSvc := setupTestRouter(t)
	ctx := context.Background()

	job, err := jobSvc.EnqueueJob(ctx, models.JobTypeClipExport, models.JobPayload{"media_file_id": 1})
	require.NoError(t, err)
	claimed, err := jobSvc.ClaimNextJob(ctx, "worker-1", []models.JobType{models.JobTypeClipExport})
	require.NoError(t, err)
	require.NoError(t, jobSvc.CompleteJob(ctx, claimed.ID, models.JobResult{"output_path": "/gone/away.mp4"}))

	w := get(router, job.ID)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
