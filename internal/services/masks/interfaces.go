package masks

import (
	"context"

	"github.com/ezclip/ezclip-api/internal/models"
	"github.com/ezclip/ezclip-api/pkg/editmask"
)

// Repository defines the interface for edit mask persistence
type Repository interface {
	GetRecord(ctx context.Context, mediaFileID uint) (*models.EditMaskRecord, error)
	SaveRecord(ctx context.Context, record *models.EditMaskRecord) error
	DeleteRecord(ctx context.Context, mediaFileID uint) error
}

// Service defines the business logic interface for edit mask operations.
// A media file without a stored mask behaves as if everything is kept.
type Service interface {
	// Get returns the media file's mask, sized to its current word count.
	Get(ctx context.Context, mediaFileID uint) (*editmask.Mask, error)

	// Toggle flips one word between kept and cut and persists the result.
	Toggle(ctx context.Context, mediaFileID uint, wordIndex int, keep bool) (*editmask.Mask, error)

	// Replace overwrites the whole keep vector.
	Replace(ctx context.Context, mediaFileID uint, keep []bool) (*editmask.Mask, error)

	// Reset drops the stored mask, returning the media to all-kept.
	Reset(ctx context.Context, mediaFileID uint) error

	// Ranges computes the kept time ranges for the current mask, with
	// near-adjacent ranges glued together.
	Ranges(ctx context.Context, mediaFileID uint, glueGap float64) ([]editmask.TimeRange, error)
}
