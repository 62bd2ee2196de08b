package jobs

import (
	"github.com/gin-gonic/gin"

	"github.com/ezclip/ezclip-api/api/types"
)

// RegisterRoutes registers job status endpoints
func RegisterRoutes(router gin.IRouter, deps *types.Dependencies) {
	jobs := router.Group("/jobs")
	{
		jobs.GET("/:id", GetJob(deps))
	}
}
