package jobs

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/ezclip/ezclip-api/api/types"
	"github.com/ezclip/ezclip-api/internal/models"
	jobservice "github.com/ezclip/ezclip-api/internal/services/jobs"
)

// GetJob handles GET /jobs/:id
func GetJob(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		job, err := deps.JobService.GetJob(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, jobservice.ErrJobNotFound) {
				types.SendNotFound(c, "Job not found")
				return
			}
			types.SendInternalError(c, "Failed to fetch job")
			return
		}

		types.SendSuccess(c, toJobResponse(job))
	}
}

func toJobResponse(job *models.Job) types.JobResponse {
	resp := types.JobResponse{
		BaseResponse: types.BaseResponse{Status: types.StatusOK},
		JobID:        job.ID,
		Type:         string(job.Type),
		JobStatus:    string(job.Status),
		Progress:     job.Progress,
		RetryCount:   job.RetryCount,
	}
	if jobErr, err := job.GetStructuredError(); err == nil {
		resp.Error = jobErr.Message
	}
	if len(job.Result) > 0 {
		resp.Result = job.Result
	}
	return resp
}
