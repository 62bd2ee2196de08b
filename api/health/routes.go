package health

import (
	"github.com/gin-gonic/gin"

	"github.com/ezclip/ezclip-api/api/types"
)

// RegisterRoutes registers health check endpoints
func RegisterRoutes(router gin.IRouter, deps *types.Dependencies) {
	router.GET("/health", Get(deps))
}
