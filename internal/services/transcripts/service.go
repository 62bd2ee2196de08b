package transcripts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"github.com/ezclip/ezclip-api/internal/models"
	"github.com/ezclip/ezclip-api/pkg/transcript"
)

type service struct {
	repo Repository
}

// Ensure service implements Service interface
var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Save(ctx context.Context, t *models.Transcript) error {
	if t.MediaFileID == 0 {
		return NewValidationError("media_file_id", "media file reference is required")
	}

	// Segment text is defined as the join of its word texts; callers that
	// supply words only (the pipeline does) still get text persisted.
	for i := range t.Segments {
		if len(t.Segments[i].Words) > 0 {
			t.Segments[i].RegenerateText()
		}
	}
	t.FullText = renderFullText(t)

	if err := s.repo.SaveTranscript(ctx, t); err != nil {
		return err
	}

	log.Info().
		Uint("media_id", t.MediaFileID).
		Int("segments", len(t.Segments)).
		Str("method", t.Method).
		Msg("Saved transcript")

	return nil
}

func (s *service) Get(ctx context.Context, mediaFileID uint) (*models.Transcript, error) {
	return s.repo.GetTranscriptByMediaID(ctx, mediaFileID)
}

func (s *service) Words(ctx context.Context, mediaFileID uint) ([]models.Word, error) {
	t, err := s.repo.GetTranscriptByMediaID(ctx, mediaFileID)
	if err != nil {
		return nil, err
	}
	return t.FlattenWords(), nil
}

func (s *service) WordCount(ctx context.Context, mediaFileID uint) (int, error) {
	return s.repo.CountWords(ctx, mediaFileID)
}

func (s *service) UpdateWordText(ctx context.Context, mediaFileID uint, wordIndex int, text string) (*models.Transcript, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewValidationError("text", "word text cannot be empty")
	}

	t, err := s.repo.GetTranscriptByMediaID(ctx, mediaFileID)
	if err != nil {
		return nil, err
	}

	seg, word := findWord(t, wordIndex)
	if word == nil {
		return nil, NewNotFoundError("word", wordIndex)
	}

	word.Text = text
	if err := s.repo.UpdateWord(ctx, word); err != nil {
		return nil, err
	}

	seg.RegenerateText()
	if err := s.repo.UpdateSegmentText(ctx, seg.ID, seg.Text); err != nil {
		return nil, err
	}

	fullText := renderFullText(t)
	if err := s.repo.UpdateTranscriptFields(ctx, t.ID, map[string]interface{}{
		"full_text": fullText,
	}); err != nil {
		return nil, err
	}
	t.FullText = fullText

	log.Debug().
		Uint("media_id", mediaFileID).
		Int("word_index", wordIndex).
		Msg("Updated word text")

	return t, nil
}

func (s *service) RenameSpeakers(ctx context.Context, mediaFileID uint, names map[string]string) (*models.Transcript, error) {
	if len(names) == 0 {
		return nil, NewValidationError("speakers", "no speaker names provided")
	}
	for label, name := range names {
		if strings.TrimSpace(name) == "" {
			return nil, NewValidationError("speakers", fmt.Sprintf("empty name for label %q", label))
		}
	}

	t, err := s.repo.GetTranscriptByMediaID(ctx, mediaFileID)
	if err != nil {
		return nil, err
	}

	// Merge into any existing overlay so renaming one speaker does not
	// reset the others.
	merged := decodeSpeakerNames(t.SpeakerNames)
	for label, name := range names {
		merged[label] = name
	}

	encoded, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encoding speaker names: %w", err)
	}
	t.SpeakerNames = datatypes.JSON(encoded)

	fullText := renderFullText(t)
	if err := s.repo.UpdateTranscriptFields(ctx, t.ID, map[string]interface{}{
		"speaker_names": t.SpeakerNames,
		"full_text":     fullText,
	}); err != nil {
		return nil, err
	}
	t.FullText = fullText

	log.Info().
		Uint("media_id", mediaFileID).
		Int("renamed", len(names)).
		Msg("Renamed speakers")

	return t, nil
}

// findWord locates the word at the given flattened position, along with its
// parent segment.
func findWord(t *models.Transcript, wordIndex int) (*models.Segment, *models.Word) {
	for i := range t.Segments {
		seg := &t.Segments[i]
		for j := range seg.Words {
			if seg.Words[j].Index == wordIndex {
				return seg, &seg.Words[j]
			}
		}
	}
	return nil, nil
}

// renderFullText produces the markdown rendering of the transcript with the
// speaker rename overlay applied.
func renderFullText(t *models.Transcript) string {
	lines := make([]transcript.Line, 0, len(t.Segments))
	for _, seg := range t.Segments {
		lines = append(lines, transcript.Line{
			Start:   seg.Start,
			Speaker: seg.Speaker,
			Text:    seg.Text,
		})
	}

	names := decodeSpeakerNames(t.SpeakerNames)
	if len(names) > 0 {
		return transcript.FormatMarkdownWithSpeakers(lines, names)
	}
	return transcript.FormatMarkdown(lines)
}

func decodeSpeakerNames(raw datatypes.JSON) map[string]string {
	names := make(map[string]string)
	if len(raw) == 0 {
		return names
	}
	if err := json.Unmarshal(raw, &names); err != nil {
		log.Warn().Err(err).Msg("Ignoring malformed speaker names overlay")
		return make(map[string]string)
	}
	return names
}
