package media

import (
	"github.com/gin-gonic/gin"

	"github.com/ezclip/ezclip-api/api/types"
)

// RegisterRoutes registers media library endpoints
func RegisterRoutes(router gin.IRouter, deps *types.Dependencies) {
	media := router.Group("/media")
	{
		media.POST("", RegisterMedia(deps))
		media.GET("", ListMedia(deps))
		media.GET("/:id", GetMedia(deps))
		media.DELETE("/:id", DeleteMedia(deps))

		media.GET("/:id/transcript", GetTranscript(deps))
		media.PUT("/:id/speakers", RenameSpeakers(deps))
		media.PATCH("/:id/words/:index", UpdateWord(deps))

		media.GET("/:id/mask", GetMask(deps))
		media.PUT("/:id/mask", ReplaceMask(deps))
		media.PUT("/:id/mask/words/:index", ToggleMaskWord(deps))
		media.DELETE("/:id/mask", ResetMask(deps))

		media.GET("/:id/ranges", GetRanges(deps))
		media.POST("/:id/export", ExportMedia(deps))
	}
}
