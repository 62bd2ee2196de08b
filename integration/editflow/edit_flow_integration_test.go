package editflow_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ezclip/ezclip-api/internal/models"
	"github.com/ezclip/ezclip-api/internal/services/export"
	"github.com/ezclip/ezclip-api/internal/services/jobs"
	"github.com/ezclip/ezclip-api/internal/services/masks"
	"github.com/ezclip/ezclip-api/internal/services/media"
	"github.com/ezclip/ezclip-api/internal/services/pipeline"
	"github.com/ezclip/ezclip-api/internal/services/transcripts"
	"github.com/ezclip/ezclip-api/internal/services/workers"
	"github.com/ezclip/ezclip-api/pkg/editmask"
	"github.com/ezclip/ezclip-api/pkg/ffmpeg"
	"github.com/ezclip/ezclip-api/pkg/reconcile"
)

// Exercises the whole edit flow through real services and the worker pool:
// register a file, let the pipeline job produce a transcript, cut words
// from the mask, then run an export job and check the rendered output.

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(ctx context.Context, audioPath string) (*pipeline.TranscriptionResult, error) {
	return &pipeline.TranscriptionResult{
		Language: "en",
		Segments: []pipeline.TranscribedSegment{
			{
				Start: 0.0,
				End:   2.0,
				Text:  "hello there friend",
				Words: []pipeline.TranscribedWord{
					{Text: "hello", Start: 0.0, End: 0.6, Score: 0.99},
					{Text: "there", Start: 0.6, End: 1.2, Score: 0.97},
					{Text: "friend", Start: 1.2, End: 2.0, Score: 0.95},
				},
			},
			{
				Start: 2.2,
				End:   4.0,
				Text:  "goodbye now",
				Words: []pipeline.TranscribedWord{
					{Text: "goodbye", Start: 2.2, End: 3.1, Score: 0.98},
					{Text: "now", Start: 3.2, End: 4.0, Score: 0.96},
				},
			},
		},
	}, nil
}

type stubDiarizer struct{}

func (stubDiarizer) Diarize(ctx context.Context, audioPath string) ([]reconcile.Turn, error) {
	return []reconcile.Turn{
		{Start: 0.0, End: 2.1, Speaker: "SPEAKER_00"},
		{Start: 2.1, End: 4.0, Speaker: "SPEAKER_01"},
	}, nil
}

type stubProcessor struct {
	tempDir string
}

func (p stubProcessor) GetMetadata(ctx context.Context, filePath string) (*ffmpeg.MediaMetadata, error) {
	return &ffmpeg.MediaMetadata{Duration: 4.0, Format: "mp4", HasVideo: true}, nil
}

func (p stubProcessor) ExtractAudio(ctx context.Context, mediaPath, tempDir string) (string, error) {
	f, err := os.CreateTemp(p.tempDir, "ezclip_audio_*.wav")
	if err != nil {
		return "", err
	}
	defer f.Close()
	return f.Name(), nil
}

// fileRenderer fakes ffmpeg by writing marker files for clips and joins.
type fileRenderer struct{}

func (fileRenderer) ExtractClip(ctx context.Context, srcPath, dstPath string, start, end float64) error {
	return os.WriteFile(dstPath, []byte(fmt.Sprintf("clip %.2f-%.2f\n", start, end)), 0o644)
}

func (fileRenderer) ConcatClips(ctx context.Context, clipPaths []string, dstPath string) error {
	var joined []byte
	for _, p := range clipPaths {
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		joined = append(joined, data...)
	}
	return os.WriteFile(dstPath, joined, 0o644)
}

type editFlowSuite struct {
	jobService    jobs.Service
	mediaService  media.Service
	transcriptSvc transcripts.Service
	maskService   masks.Service
	exportService export.Service
	pool          *workers.WorkerPool
	outputDir     string
}

func setupEditFlowSuite(t *testing.T) *editFlowSuite {
	t.Helper()

	tempDir := t.TempDir()

	// File-backed database: workers use their own connections, and an
	// in-memory sqlite database is per-connection.
	db, err := gorm.Open(sqlite.Open(filepath.Join(tempDir, "editflow.db")+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	outputDir := filepath.Join(tempDir, "exports")

	jobService := jobs.NewService(jobs.NewRepository(db))
	mediaService := media.NewService(media.NewRepository(db), jobService)
	transcriptSvc := transcripts.NewService(transcripts.NewRepository(db))
	maskService := masks.NewService(masks.NewRepository(db), transcriptSvc)

	reconciler := reconcile.New(pipeline.OverlapAligner{}, reconcile.DefaultConfig())
	pipelineSvc := pipeline.NewService(
		mediaService,
		transcriptSvc,
		stubTranscriber{},
		stubDiarizer{},
		reconciler,
		stubProcessor{tempDir: tempDir},
		"medium",
		tempDir,
	)
	exportService := export.NewService(mediaService, maskService, fileRenderer{}, outputDir, tempDir)

	pool := workers.NewWorkerPool(jobService, 2, 50*time.Millisecond)
	pool.RegisterProcessor(workers.NewPipelineProcessor(jobService, pipelineSvc))
	pool.RegisterProcessor(workers.NewExportProcessor(jobService, exportService, editmask.DefaultGlueGap))

	require.NoError(t, pool.Start(context.Background()))
	t.Cleanup(pool.Stop)

	return &editFlowSuite{
		jobService:    jobService,
		mediaService:  mediaService,
		transcriptSvc: transcriptSvc,
		maskService:   maskService,
		exportService: exportService,
		pool:          pool,
		outputDir:     outputDir,
	}
}

func (s *editFlowSuite) waitForJob(t *testing.T, jobID uint) *models.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := s.jobService.GetJob(context.Background(), jobID)
		require.NoError(t, err)
		if job.IsTerminal() {
			return job
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("job %d did not finish in time", jobID)
	return nil
}

func TestEditFlow(t *testing.T) {
	suite := setupEditFlowSuite(t)
	ctx := context.Background()

	mediaPath := filepath.Join(t.TempDir(), "talk.mp4")
	require.NoError(t, os.WriteFile(mediaPath, []byte("source media"), 0o644))

	// Register and wait for the transcription pipeline
	mediaFile, job, err := suite.mediaService.Register(ctx, mediaPath)
	require.NoError(t, err)
	require.NotNil(t, job)

	done := suite.waitForJob(t, job.ID)
	assert.Equal(t, models.JobStatusCompleted, done.Status)

	mediaFile, err = suite.mediaService.GetByID(ctx, mediaFile.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MediaStatusDone, mediaFile.Status)
	assert.InDelta(t, 4.0, mediaFile.Duration, 1e-9)

	// Transcript carries aligned speakers and flattened word indices
	transcript, err := suite.transcriptSvc.Get(ctx, mediaFile.ID)
	require.NoError(t, err)
	assert.Equal(t, "aligned", transcript.Method)
	require.Len(t, transcript.Segments, 2)
	assert.Equal(t, "00", transcript.Segments[0].Speaker)
	assert.Equal(t, "01", transcript.Segments[1].Speaker)

	words, err := suite.transcriptSvc.Words(ctx, mediaFile.ID)
	require.NoError(t, err)
	require.Len(t, words, 5)

	// Cut "there" and "friend"
	_, err = suite.maskService.Toggle(ctx, mediaFile.ID, 1, false)
	require.NoError(t, err)
	_, err = suite.maskService.Toggle(ctx, mediaFile.ID, 2, false)
	require.NoError(t, err)

	ranges, err := suite.maskService.Ranges(ctx, mediaFile.ID, editmask.DefaultGlueGap)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.InDelta(t, 0.0, ranges[0].Start, 1e-9)
	assert.InDelta(t, 0.6, ranges[0].End, 1e-9)
	assert.InDelta(t, 2.2, ranges[1].Start, 1e-9)
	assert.InDelta(t, 4.0, ranges[1].End, 1e-9)

	// Export through the job queue
	exportJob, err := suite.jobService.EnqueueJob(ctx, models.JobTypeClipExport,
		models.JobPayload{"media_file_id": mediaFile.ID})
	require.NoError(t, err)

	done = suite.waitForJob(t, exportJob.ID)
	require.Equal(t, models.JobStatusCompleted, done.Status)

	outputPath, ok := done.Result["output_path"].(string)
	require.True(t, ok, "export job should record the output path")
	assert.Contains(t, outputPath, "talk_edit_")

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "clip 0.00-0.60")
	assert.Contains(t, string(data), "clip 2.20-4.00")
}

func TestEditFlowTrivialMaskCopies(t *testing.T) {
	suite := setupEditFlowSuite(t)
	ctx := context.Background()

	mediaPath := filepath.Join(t.TempDir(), "short.mp4")
	require.NoError(t, os.WriteFile(mediaPath, []byte("original bytes"), 0o644))

	_, job, err := suite.mediaService.Register(ctx, mediaPath)
	require.NoError(t, err)
	done := suite.waitForJob(t, job.ID)
	require.Equal(t, models.JobStatusCompleted, done.Status)

	mediaID, err := done.MediaFileID()
	require.NoError(t, err)

	exportJob, err := suite.jobService.EnqueueJob(ctx, models.JobTypeClipExport,
		models.JobPayload{"media_file_id": mediaID})
	require.NoError(t, err)

	done = suite.waitForJob(t, exportJob.ID)
	require.Equal(t, models.JobStatusCompleted, done.Status)

	outputPath := done.Result["output_path"].(string)
	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "original bytes", string(data))
}
