package version

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers version endpoints
func RegisterRoutes(router gin.IRouter) {
	router.GET("/version", Get())
}
