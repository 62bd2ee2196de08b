package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ezclip/ezclip-api/internal/models"
	"github.com/ezclip/ezclip-api/internal/services/jobs"
	"github.com/ezclip/ezclip-api/internal/services/media"
	"github.com/ezclip/ezclip-api/internal/services/transcripts"
	"github.com/ezclip/ezclip-api/pkg/ffmpeg"
	"github.com/ezclip/ezclip-api/pkg/reconcile"
)

type stubTranscriber struct {
	result *TranscriptionResult
	err    error
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audioPath string) (*TranscriptionResult, error) {
	return s.result, s.err
}

type stubDiarizer struct {
	turns []reconcile.Turn
	err   error
}

func (s *stubDiarizer) Diarize(ctx context.Context, audioPath string) ([]reconcile.Turn, error) {
	return s.turns, s.err
}

type stubProcessor struct {
	duration float64
	probeErr error
}

func (s *stubProcessor) GetMetadata(ctx context.Context, filePath string) (*ffmpeg.MediaMetadata, error) {
	if s.probeErr != nil {
		return nil, s.probeErr
	}
	return &ffmpeg.MediaMetadata{Duration: s.duration, SampleRate: 16000, Channels: 1}, nil
}

func (s *stubProcessor) ExtractAudio(ctx context.Context, mediaPath, tempDir string) (string, error) {
	f, err := os.CreateTemp(tempDir, "audio-*.wav")
	if err != nil {
		return "", err
	}
	f.Close()
	return f.Name(), nil
}

type testEnv struct {
	media       media.Service
	transcripts transcripts.Service
}

func setupEnv(t *testing.T) (*testEnv, uint) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	jobService := jobs.NewService(jobs.NewRepository(db))
	mediaService := media.NewService(media.NewRepository(db), jobService)
	transcriptService := transcripts.NewService(transcripts.NewRepository(db))

	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("fake"), 0644))

	mediaFile, _, err := mediaService.Register(context.Background(), path)
	require.NoError(t, err)

	return &testEnv{media: mediaService, transcripts: transcriptService}, mediaFile.ID
}

func twoSpeakerResult() *TranscriptionResult {
	return &TranscriptionResult{
		Language: "en",
		Segments: []TranscribedSegment{
			{
				Start: 0.0, End: 2.0, Text: "hello there",
				Words: []TranscribedWord{
					{Text: "hello", Start: 0.0, End: 0.9, Score: 0.9},
					{Text: "there", Start: 1.0, End: 2.0, Score: 0.9},
				},
			},
			{
				Start: 2.5, End: 4.0, Text: "general kenobi",
				Words: []TranscribedWord{
					{Text: "general", Start: 2.5, End: 3.2, Score: 0.9},
					{Text: "kenobi", Start: 3.3, End: 4.0, Score: 0.9},
				},
			},
		},
	}
}

func newPipeline(env *testEnv, tr Transcriber, di Diarizer, proc MediaProcessor) Service {
	return NewService(env.media, env.transcripts, tr, di,
		reconcile.New(OverlapAligner{}, reconcile.DefaultConfig()),
		proc, "medium", "")
}

func TestRunTwoSpeakers(t *testing.T) {
	env, mediaID := setupEnv(t)
	ctx := context.Background()

	turns := []reconcile.Turn{
		{Start: 0.0, End: 2.2, Speaker: "SPEAKER_00"},
		{Start: 2.3, End: 4.0, Speaker: "SPEAKER_01"},
	}

	svc := newPipeline(env,
		&stubTranscriber{result: twoSpeakerResult()},
		&stubDiarizer{turns: turns},
		&stubProcessor{duration: 4.0})

	var milestones []int
	err := svc.Run(ctx, mediaID, func(p int) { milestones = append(milestones, p) })
	require.NoError(t, err)
	assert.Equal(t, []int{5, 65, 90, 100}, milestones)

	mediaFile, err := env.media.GetByID(ctx, mediaID)
	require.NoError(t, err)
	assert.Equal(t, models.MediaStatusDone, mediaFile.Status)
	assert.Equal(t, 100.0, mediaFile.Progress)
	assert.Equal(t, 4.0, mediaFile.Duration)

	tr, err := env.transcripts.Get(ctx, mediaID)
	require.NoError(t, err)
	assert.Equal(t, string(reconcile.MethodAligned), tr.Method)
	assert.Equal(t, "en", tr.Language)
	require.Len(t, tr.Segments, 2)
	assert.Equal(t, "00", tr.Segments[0].Speaker)
	assert.Equal(t, "01", tr.Segments[1].Speaker)

	// Words are numbered across segments.
	words := tr.FlattenWords()
	require.Len(t, words, 4)
	for i, w := range words {
		assert.Equal(t, i, w.Index)
	}
}

func TestRunSingleSpeaker(t *testing.T) {
	env, mediaID := setupEnv(t)
	ctx := context.Background()

	svc := newPipeline(env,
		&stubTranscriber{result: twoSpeakerResult()},
		&stubDiarizer{turns: nil},
		&stubProcessor{duration: 4.0})

	require.NoError(t, svc.Run(ctx, mediaID, nil))

	tr, err := env.transcripts.Get(ctx, mediaID)
	require.NoError(t, err)
	assert.Equal(t, string(reconcile.MethodSingleSpeaker), tr.Method)
	assert.Equal(t, "SPEAKER_1", tr.Segments[0].Speaker)
	assert.Equal(t, "SPEAKER_1", tr.Segments[1].Speaker)
}

func TestRunDiarizerFailureDegrades(t *testing.T) {
	env, mediaID := setupEnv(t)
	ctx := context.Background()

	svc := newPipeline(env,
		&stubTranscriber{result: twoSpeakerResult()},
		&stubDiarizer{err: errors.New("pyannote exploded")},
		&stubProcessor{duration: 4.0})

	require.NoError(t, svc.Run(ctx, mediaID, nil))

	tr, err := env.transcripts.Get(ctx, mediaID)
	require.NoError(t, err)
	assert.Equal(t, string(reconcile.MethodSingleSpeaker), tr.Method)
}

func TestRunTranscriberFailure(t *testing.T) {
	env, mediaID := setupEnv(t)
	ctx := context.Background()

	svc := newPipeline(env,
		&stubTranscriber{err: errors.New("model not found")},
		&stubDiarizer{},
		&stubProcessor{duration: 4.0})

	err := svc.Run(ctx, mediaID, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcribing")

	mediaFile, err := env.media.GetByID(ctx, mediaID)
	require.NoError(t, err)
	assert.Equal(t, models.MediaStatusError, mediaFile.Status)
	assert.Contains(t, mediaFile.ErrorMessage, "model not found")
}

func TestRunProbeFailure(t *testing.T) {
	env, mediaID := setupEnv(t)
	ctx := context.Background()

	svc := newPipeline(env,
		&stubTranscriber{result: twoSpeakerResult()},
		&stubDiarizer{},
		&stubProcessor{probeErr: errors.New("no such file")})

	err := svc.Run(ctx, mediaID, nil)
	require.Error(t, err)

	mediaFile, err := env.media.GetByID(ctx, mediaID)
	require.NoError(t, err)
	assert.Equal(t, models.MediaStatusError, mediaFile.Status)
}

func TestRunUnknownMedia(t *testing.T) {
	env, _ := setupEnv(t)

	svc := newPipeline(env,
		&stubTranscriber{result: twoSpeakerResult()},
		&stubDiarizer{},
		&stubProcessor{duration: 1.0})

	err := svc.Run(context.Background(), 9999, nil)
	assert.True(t, media.IsNotFound(err))
}

func TestOverlapAligner(t *testing.T) {
	aligner := OverlapAligner{}
	ctx := context.Background()

	segments := []reconcile.Segment{
		{Start: 0.0, End: 2.0},
		{Start: 2.0, End: 4.0},
	}
	turns := []reconcile.Turn{
		{Start: 0.0, End: 2.1, Speaker: "SPEAKER_00"},
		{Start: 1.9, End: 4.0, Speaker: "SPEAKER_01"},
	}

	speakers, err := aligner.Align(ctx, segments, turns)
	require.NoError(t, err)
	assert.Equal(t, []string{"SPEAKER_00", "SPEAKER_01"}, speakers)

	// A segment past all turns aborts alignment.
	_, err = aligner.Align(ctx, []reconcile.Segment{{Start: 10, End: 11}}, turns)
	assert.Error(t, err)

	_, err = aligner.Align(ctx, segments, nil)
	assert.Error(t, err)
}
