package api

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/ezclip/ezclip-api/api/exports"
	"github.com/ezclip/ezclip-api/api/health"
	"github.com/ezclip/ezclip-api/api/jobs"
	"github.com/ezclip/ezclip-api/api/media"
	"github.com/ezclip/ezclip-api/api/types"
	"github.com/ezclip/ezclip-api/api/version"
	"github.com/ezclip/ezclip-api/internal/services/export"
	jobsService "github.com/ezclip/ezclip-api/internal/services/jobs"
	masksService "github.com/ezclip/ezclip-api/internal/services/masks"
	mediaService "github.com/ezclip/ezclip-api/internal/services/media"
	transcriptsService "github.com/ezclip/ezclip-api/internal/services/transcripts"
	"github.com/ezclip/ezclip-api/pkg/config"
	"github.com/ezclip/ezclip-api/pkg/download"
	"github.com/ezclip/ezclip-api/pkg/ffmpeg"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(engine *gin.Engine, deps *types.Dependencies, rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once) error {
	if deps == nil {
		deps = &types.Dependencies{}
	}

	// Public routes (no rate limiting)
	health.RegisterRoutes(engine, deps)
	version.RegisterRoutes(engine)

	// Setup 404 handler
	engine.NoRoute(NotFoundHandler())

	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize services from the database when the caller did not wire
	// them (normal server startup path).
	if deps.DB != nil && deps.DB.DB != nil {
		initializeServices(deps, cfg)
	}

	if deps.GlueGap <= 0 {
		deps.GlueGap = cfg.Export.GlueGap
	}

	rps := cfg.RateLimiting.RequestsPerSecond
	burst := cfg.RateLimiting.Burst
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 20
	}

	// API v1 routes, rate limited per client
	v1 := engine.Group("/api/v1")
	if cfg.RateLimiting.Enabled {
		v1.Use(PerClientRateLimit(rateLimiters, cleanupStop, cleanupInitialized, rps, burst))
	}

	media.RegisterRoutes(v1, deps)
	jobs.RegisterRoutes(v1, deps)
	exports.RegisterRoutes(v1, deps)

	return nil
}

// initializeServices wires the default service stack on top of deps.DB for
// any service the caller left unset.
func initializeServices(deps *types.Dependencies, cfg *config.Config) {
	db := deps.DB.DB
	ff := ffmpeg.New(cfg.Processing.FFmpegPath, cfg.Processing.FFprobePath, cfg.Processing.FFmpegTimeout)

	if deps.JobService == nil {
		deps.JobService = jobsService.NewService(jobsService.NewRepository(db))
	}
	if deps.MediaService == nil {
		fetchOpts := download.DefaultOptions()
		fetchOpts.DestDir = cfg.Storage.CacheDir
		deps.MediaService = mediaService.NewService(mediaService.NewRepository(db), deps.JobService,
			mediaService.WithFetcher(download.NewDownloader(fetchOpts)),
			mediaService.WithValidator(ff))
	}
	if deps.TranscriptService == nil {
		deps.TranscriptService = transcriptsService.NewService(transcriptsService.NewRepository(db))
	}
	if deps.MaskService == nil {
		deps.MaskService = masksService.NewService(masksService.NewRepository(db), deps.TranscriptService)
	}
	if deps.ExportService == nil {
		deps.ExportService = export.NewService(deps.MediaService, deps.MaskService, ff, cfg.Export.OutputDir, cfg.Storage.TempDir)
	}
}

// NotFoundHandler handles 404 errors
func NotFoundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(404, gin.H{
			"status":  "error",
			"message": "The requested endpoint was not found",
			"path":    c.Request.URL.Path,
		})
	}
}
