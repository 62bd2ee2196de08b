package exports

import (
	"github.com/gin-gonic/gin"

	"github.com/ezclip/ezclip-api/api/types"
)

// RegisterRoutes registers export download endpoints
func RegisterRoutes(router gin.IRouter, deps *types.Dependencies) {
	exports := router.Group("/exports")
	{
		exports.GET("/:id", Download(deps))
	}
}
