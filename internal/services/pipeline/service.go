package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ezclip/ezclip-api/internal/models"
	"github.com/ezclip/ezclip-api/internal/services/media"
	"github.com/ezclip/ezclip-api/internal/services/transcripts"
	"github.com/ezclip/ezclip-api/pkg/ffmpeg"
	"github.com/ezclip/ezclip-api/pkg/reconcile"
)

// Progress milestones for the stages of one pipeline run.
const (
	ProgressAudioReady  = 5
	ProgressTranscribed = 65
	ProgressReconciled  = 90
	ProgressDone        = 100
)

// ProgressFunc receives milestone updates while a pipeline run advances.
type ProgressFunc func(progress int)

// Service runs the full transcription pipeline for one media file:
// probe, extract audio, transcribe, diarize, reconcile speakers, persist.
type Service interface {
	Run(ctx context.Context, mediaFileID uint, report ProgressFunc) error
}

// MediaProcessor abstracts the ffmpeg operations the pipeline needs.
// *ffmpeg.FFmpeg satisfies it.
type MediaProcessor interface {
	GetMetadata(ctx context.Context, filePath string) (*ffmpeg.MediaMetadata, error)
	ExtractAudio(ctx context.Context, mediaPath, tempDir string) (string, error)
}

type service struct {
	media       media.Service
	transcripts transcripts.Service
	transcriber Transcriber
	diarizer    Diarizer
	reconciler  *reconcile.Reconciler
	ffmpeg      MediaProcessor
	modelSize   string
	tempDir     string
}

// Ensure service implements Service interface
var _ Service = (*service)(nil)

func NewService(
	mediaService media.Service,
	transcriptService transcripts.Service,
	transcriber Transcriber,
	diarizer Diarizer,
	reconciler *reconcile.Reconciler,
	ff MediaProcessor,
	modelSize string,
	tempDir string,
) Service {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &service{
		media:       mediaService,
		transcripts: transcriptService,
		transcriber: transcriber,
		diarizer:    diarizer,
		reconciler:  reconciler,
		ffmpeg:      ff,
		modelSize:   modelSize,
		tempDir:     tempDir,
	}
}

func (s *service) Run(ctx context.Context, mediaFileID uint, report ProgressFunc) error {
	if report == nil {
		report = func(int) {}
	}

	mediaFile, err := s.media.GetByID(ctx, mediaFileID)
	if err != nil {
		return err
	}

	if err := s.media.MarkRunning(ctx, mediaFileID); err != nil {
		return err
	}

	runErr := s.run(ctx, mediaFile, report)
	if runErr != nil {
		if err := s.media.MarkFailed(ctx, mediaFileID, runErr.Error()); err != nil {
			log.Error().Err(err).Uint("media_id", mediaFileID).Msg("Failed to record pipeline failure")
		}
		return runErr
	}

	if err := s.media.MarkDone(ctx, mediaFileID); err != nil {
		return err
	}
	report(ProgressDone)

	return nil
}

func (s *service) run(ctx context.Context, mediaFile *models.MediaFile, report ProgressFunc) error {
	metadata, err := s.ffmpeg.GetMetadata(ctx, mediaFile.Path)
	if err != nil {
		return fmt.Errorf("probing media: %w", err)
	}
	if err := s.media.SetDuration(ctx, mediaFile.ID, metadata.Duration); err != nil {
		return err
	}

	audioPath, err := s.ffmpeg.ExtractAudio(ctx, mediaFile.Path, s.tempDir)
	if err != nil {
		return fmt.Errorf("extracting audio: %w", err)
	}
	defer os.Remove(audioPath)

	s.reportBoth(ctx, mediaFile.ID, ProgressAudioReady, report)

	result, err := s.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return fmt.Errorf("transcribing: %w", err)
	}

	s.reportBoth(ctx, mediaFile.ID, ProgressTranscribed, report)

	// A diarization failure downgrades the result to single-speaker
	// instead of losing the transcription.
	turns, err := s.diarizer.Diarize(ctx, audioPath)
	if err != nil {
		log.Warn().
			Err(err).
			Uint("media_id", mediaFile.ID).
			Msg("Diarization failed, continuing without speakers")
		turns = nil
	}

	segments := make([]reconcile.Segment, len(result.Segments))
	for i, seg := range result.Segments {
		segments[i] = reconcile.Segment{Start: seg.Start, End: seg.End}
	}

	assignment := s.reconciler.Assign(ctx, segments, turns)

	s.reportBoth(ctx, mediaFile.ID, ProgressReconciled, report)

	transcript := s.buildTranscript(mediaFile.ID, metadata.Duration, result, assignment)
	if err := s.transcripts.Save(ctx, transcript); err != nil {
		return fmt.Errorf("saving transcript: %w", err)
	}

	log.Info().
		Uint("media_id", mediaFile.ID).
		Str("method", string(assignment.Method)).
		Int("segments", len(transcript.Segments)).
		Msg("Pipeline complete")

	return nil
}

// buildTranscript converts transcriber output plus the speaker assignment
// into the persistence model, numbering words by their position in the
// flattened sequence.
func (s *service) buildTranscript(mediaFileID uint, duration float64, result *TranscriptionResult, assignment reconcile.Result) *models.Transcript {
	transcript := &models.Transcript{
		MediaFileID: mediaFileID,
		Duration:    duration,
		Language:    result.Language,
		ModelSize:   s.modelSize,
		Method:      string(assignment.Method),
	}

	wordIndex := 0
	for i, seg := range result.Segments {
		speaker := assignment.Speakers[i]

		segment := models.Segment{
			Position: i,
			Speaker:  speaker,
			Start:    seg.Start,
			End:      seg.End,
			Text:     strings.TrimSpace(seg.Text),
		}
		for _, w := range seg.Words {
			segment.Words = append(segment.Words, models.Word{
				Index:   wordIndex,
				Text:    strings.TrimSpace(w.Text),
				Start:   w.Start,
				End:     w.End,
				Score:   w.Score,
				Speaker: speaker,
			})
			wordIndex++
		}
		transcript.Segments = append(transcript.Segments, segment)
	}

	return transcript
}

func (s *service) reportBoth(ctx context.Context, mediaFileID uint, progress int, report ProgressFunc) {
	report(progress)
	if err := s.media.ReportProgress(ctx, mediaFileID, float64(progress)); err != nil {
		log.Warn().Err(err).Uint("media_id", mediaFileID).Msg("Failed to update media progress")
	}
}
