package transcripts

import (
	"context"

	"github.com/ezclip/ezclip-api/internal/models"
)

// Repository defines the interface for transcript persistence
type Repository interface {
	// SaveTranscript replaces any existing transcript for the media file
	SaveTranscript(ctx context.Context, transcript *models.Transcript) error

	// Read operations
	GetTranscriptByMediaID(ctx context.Context, mediaFileID uint) (*models.Transcript, error)
	CountWords(ctx context.Context, mediaFileID uint) (int, error)

	// Update operations
	UpdateWord(ctx context.Context, word *models.Word) error
	UpdateSegmentText(ctx context.Context, segmentID uint, text string) error
	UpdateTranscriptFields(ctx context.Context, transcriptID uint, updates map[string]interface{}) error
}

// Service defines the business logic interface for transcript operations
type Service interface {
	// Save stores a freshly produced transcript, replacing any previous
	// one, and computes the rendered full text.
	Save(ctx context.Context, transcript *models.Transcript) error

	Get(ctx context.Context, mediaFileID uint) (*models.Transcript, error)

	// Words returns the media item's flattened, time-ordered word sequence.
	Words(ctx context.Context, mediaFileID uint) ([]models.Word, error)
	WordCount(ctx context.Context, mediaFileID uint) (int, error)

	// UpdateWordText edits the text of the word at the given position in
	// the flattened sequence, regenerating the segment and full text.
	UpdateWordText(ctx context.Context, mediaFileID uint, wordIndex int, text string) (*models.Transcript, error)

	// RenameSpeakers stores a display-name overlay for raw speaker labels
	// and re-renders the full text with it.
	RenameSpeakers(ctx context.Context, mediaFileID uint, names map[string]string) (*models.Transcript, error)
}
