package masks

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ezclip/ezclip-api/internal/models"
	"github.com/ezclip/ezclip-api/internal/services/transcripts"
	"github.com/ezclip/ezclip-api/pkg/editmask"
)

type service struct {
	repo        Repository
	transcripts transcripts.Service
}

// Ensure service implements Service interface
var _ Service = (*service)(nil)

func NewService(repo Repository, transcriptService transcripts.Service) Service {
	return &service{
		repo:        repo,
		transcripts: transcriptService,
	}
}

func (s *service) Get(ctx context.Context, mediaFileID uint) (*editmask.Mask, error) {
	totalWords, err := s.transcripts.WordCount(ctx, mediaFileID)
	if err != nil {
		return nil, err
	}
	if totalWords == 0 {
		return nil, NewValidationError("media_file_id", fmt.Sprintf("media file %d has no transcript words", mediaFileID))
	}
	return s.load(ctx, mediaFileID, totalWords)
}

// load reads the stored mask, reconciling it with the current word count.
// A missing record yields a trivial all-kept mask.
func (s *service) load(ctx context.Context, mediaFileID uint, totalWords int) (*editmask.Mask, error) {
	record, err := s.repo.GetRecord(ctx, mediaFileID)
	if err != nil {
		if errors.Is(err, ErrMaskNotFound) {
			return editmask.New(mediaFileID, totalWords), nil
		}
		return nil, err
	}

	mask, err := record.Decode(totalWords)
	if err != nil {
		// A corrupt payload should not brick editing. Start over.
		log.Warn().
			Err(err).
			Uint("media_id", mediaFileID).
			Msg("Discarding unreadable edit mask")
		return editmask.New(mediaFileID, totalWords), nil
	}
	return mask, nil
}

func (s *service) Toggle(ctx context.Context, mediaFileID uint, wordIndex int, keep bool) (*editmask.Mask, error) {
	mask, err := s.Get(ctx, mediaFileID)
	if err != nil {
		return nil, err
	}

	if err := mask.Toggle(wordIndex, keep); err != nil {
		return nil, NewValidationError("word_index", err.Error())
	}

	if err := s.persist(ctx, mask); err != nil {
		return nil, err
	}

	log.Debug().
		Uint("media_id", mediaFileID).
		Int("word_index", wordIndex).
		Bool("keep", keep).
		Msg("Toggled word")

	return mask, nil
}

func (s *service) Replace(ctx context.Context, mediaFileID uint, keep []bool) (*editmask.Mask, error) {
	totalWords, err := s.transcripts.WordCount(ctx, mediaFileID)
	if err != nil {
		return nil, err
	}
	if len(keep) != totalWords {
		return nil, NewValidationError("keep", fmt.Sprintf("mask has %d entries, media has %d words", len(keep), totalWords))
	}

	mask := editmask.New(mediaFileID, totalWords)
	copy(mask.Keep, keep)

	if err := s.persist(ctx, mask); err != nil {
		return nil, err
	}
	return mask, nil
}

func (s *service) Reset(ctx context.Context, mediaFileID uint) error {
	err := s.repo.DeleteRecord(ctx, mediaFileID)
	if err != nil && !errors.Is(err, ErrMaskNotFound) {
		return err
	}
	return nil
}

func (s *service) Ranges(ctx context.Context, mediaFileID uint, glueGap float64) ([]editmask.TimeRange, error) {
	if glueGap < 0 {
		return nil, NewValidationError("glue_gap", "glue gap cannot be negative")
	}

	words, err := s.transcripts.Words(ctx, mediaFileID)
	if err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, NewValidationError("media_file_id", fmt.Sprintf("media file %d has no transcript words", mediaFileID))
	}

	mask, err := s.load(ctx, mediaFileID, len(words))
	if err != nil {
		return nil, err
	}

	timed := make([]editmask.Word, len(words))
	for i, w := range words {
		timed[i] = editmask.Word{Start: w.Start, End: w.End}
	}

	return mask.BuildRanges(timed, glueGap)
}

func (s *service) persist(ctx context.Context, mask *editmask.Mask) error {
	record := &models.EditMaskRecord{}
	if err := record.Encode(mask); err != nil {
		return fmt.Errorf("encoding mask: %w", err)
	}
	return s.repo.SaveRecord(ctx, record)
}
