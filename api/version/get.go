package version

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Build information, set via ldflags at build time.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Get returns version information for the running server
func Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":       "ezclip-api",
			"version":    Version,
			"commit":     Commit,
			"build_date": BuildDate,
		})
	}
}
