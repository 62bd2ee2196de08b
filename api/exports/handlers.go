package exports

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/ezclip/ezclip-api/api/types"
	"github.com/ezclip/ezclip-api/internal/models"
	jobservice "github.com/ezclip/ezclip-api/internal/services/jobs"
)

// Download handles GET /exports/:id
// When the export job has finished this serves the rendered file; while the
// job is still running it reports its status instead.
func Download(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		job, err := deps.JobService.GetJob(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, jobservice.ErrJobNotFound) {
				types.SendNotFound(c, "Export not found")
				return
			}
			types.SendInternalError(c, "Failed to fetch export job")
			return
		}
		if job.Type != models.JobTypeClipExport {
			types.SendNotFound(c, "Export not found")
			return
		}

		if job.Status != models.JobStatusCompleted {
			resp := types.JobResponse{
				BaseResponse: types.BaseResponse{Status: types.StatusProcessing},
				JobID:        job.ID,
				Type:         string(job.Type),
				JobStatus:    string(job.Status),
				Progress:     job.Progress,
			}
			if jobErr, err := job.GetStructuredError(); err == nil {
				resp.Status = types.StatusFailed
				resp.Error = jobErr.Message
			}
			types.SendSuccess(c, resp)
			return
		}

		outputPath, ok := job.Result["output_path"].(string)
		if !ok || outputPath == "" {
			types.SendInternalError(c, "Export job has no output")
			return
		}
		if _, err := os.Stat(outputPath); err != nil {
			types.SendNotFound(c, "Export file no longer exists")
			return
		}

		c.Header("Content-Description", "File Transfer")
		c.FileAttachment(outputPath, filepath.Base(outputPath))
	}
}
