package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ezclip/ezclip-api/api"
	"github.com/ezclip/ezclip-api/api/types"
	"github.com/ezclip/ezclip-api/internal/database"
	"github.com/ezclip/ezclip-api/internal/services/cleanup"
	"github.com/ezclip/ezclip-api/internal/services/export"
	"github.com/ezclip/ezclip-api/internal/services/jobs"
	"github.com/ezclip/ezclip-api/internal/services/masks"
	"github.com/ezclip/ezclip-api/internal/services/media"
	"github.com/ezclip/ezclip-api/internal/services/pipeline"
	"github.com/ezclip/ezclip-api/internal/services/transcripts"
	"github.com/ezclip/ezclip-api/internal/services/workers"
	"github.com/ezclip/ezclip-api/pkg/config"
	"github.com/ezclip/ezclip-api/pkg/download"
	"github.com/ezclip/ezclip-api/pkg/ffmpeg"
	"github.com/ezclip/ezclip-api/pkg/reconcile"
)

var (
	serverHost string
	serverPort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and job workers",
	Long: `Start the ezclip API server with the configured settings.

The server handles media registration, transcript editing, and edit mask
operations over HTTP while a background worker pool runs the transcription
pipeline and clip export jobs.

Example:
  ezclip-api serve
  ezclip-api serve --port 9090
  ezclip-api serve --host 0.0.0.0 --port 8080`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if serverHost == "" {
		serverHost = cfg.Server.Host
	}
	if serverPort == 0 {
		serverPort = cfg.Server.Port
	}

	db, err := database.Initialize(cfg.Database.Path, cfg.Database.LogQueries)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	deps, pool := buildDependencies(db, cfg)

	// Claims from a previous process are meaningless now.
	if _, err := deps.JobService.ReleaseOrphanedJobs(context.Background()); err != nil {
		return fmt.Errorf("failed to release orphaned jobs: %w", err)
	}
	if _, err := deps.JobService.CleanupOldJobs(context.Background(), 30); err != nil {
		log.Warn().Err(err).Msg("Failed to clean up old jobs")
	}

	address := fmt.Sprintf("%s:%d", serverHost, serverPort)
	server := api.NewServer(address)
	server.SetDependencies(deps)
	if err := server.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	// Cancelled on shutdown so in-flight external processes get killed
	// instead of being waited out.
	workCtx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()

	if err := pool.Start(workCtx); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}
	defer pool.Stop()

	sweeper := cleanup.NewService(cfg.Storage.TempDir, time.Hour, 15*time.Minute)
	sweeper.Start(workCtx)
	defer sweeper.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	log.Info().Str("address", address).Int("workers", cfg.Processing.Workers).Msg("Server ready")

	select {
	case <-stop:
		log.Info().Msg("Shutting down")
	case err := <-serverErr:
		log.Error().Err(err).Msg("Server error")
	}
	cancelWork()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}

// buildDependencies wires the full service stack and the worker pool that
// processes transcription and export jobs.
func buildDependencies(db *database.DB, cfg *config.Config) (*types.Dependencies, *workers.WorkerPool) {
	jobService := jobs.NewService(jobs.NewRepository(db.DB))

	ff := ffmpeg.New(cfg.Processing.FFmpegPath, cfg.Processing.FFprobePath, cfg.Processing.FFmpegTimeout)
	if err := ff.ValidateBinaries(); err != nil {
		log.Warn().Err(err).Msg("ffmpeg binaries not found, processing jobs will fail")
	}

	fetchOpts := download.DefaultOptions()
	fetchOpts.DestDir = cfg.Storage.CacheDir
	fetcher := download.NewDownloader(fetchOpts)
	mediaService := media.NewService(media.NewRepository(db.DB), jobService,
		media.WithFetcher(fetcher), media.WithValidator(ff))
	transcriptService := transcripts.NewService(transcripts.NewRepository(db.DB))
	maskService := masks.NewService(masks.NewRepository(db.DB), transcriptService)

	transcriber := pipeline.NewWhisperTranscriber(
		"",
		cfg.Transcription.ModelSize,
		cfg.Transcription.Language,
		cfg.Transcription.BatchSize,
		cfg.Processing.JobTimeout,
	)

	var diarizer pipeline.Diarizer = pipeline.NopDiarizer{}
	if cfg.Diarization.Enabled {
		diarizer = pipeline.NewPyannoteDiarizer(
			"",
			cfg.Diarization.MinSpeakers,
			cfg.Diarization.MaxSpeakers,
			cfg.Diarization.HFToken,
			cfg.Processing.JobTimeout,
		)
	}

	reconciler := reconcile.New(pipeline.OverlapAligner{}, reconcile.DefaultConfig())
	pipelineService := pipeline.NewService(
		mediaService,
		transcriptService,
		transcriber,
		diarizer,
		reconciler,
		ff,
		cfg.Transcription.ModelSize,
		cfg.Storage.TempDir,
	)

	exportService := export.NewService(mediaService, maskService, ff, cfg.Export.OutputDir, cfg.Storage.TempDir)

	pool := workers.NewWorkerPool(jobService, cfg.Processing.Workers, cfg.Processing.PollInterval)
	pool.RegisterProcessor(workers.NewPipelineProcessor(jobService, pipelineService))
	pool.RegisterProcessor(workers.NewExportProcessor(jobService, exportService, cfg.Export.GlueGap))

	return &types.Dependencies{
		DB:                db,
		MediaService:      mediaService,
		TranscriptService: transcriptService,
		MaskService:       maskService,
		ExportService:     exportService,
		JobService:        jobService,
		WorkerPool:        pool,
		GlueGap:           cfg.Export.GlueGap,
	}, pool
}
