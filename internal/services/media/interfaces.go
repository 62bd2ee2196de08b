package media

import (
	"context"

	"github.com/ezclip/ezclip-api/internal/models"
)

// Repository defines the interface for media file persistence
type Repository interface {
	// Create operations
	CreateMediaFile(ctx context.Context, media *models.MediaFile) error

	// Read operations
	GetMediaFileByID(ctx context.Context, id uint) (*models.MediaFile, error)
	GetMediaFileByPath(ctx context.Context, path string) (*models.MediaFile, error)
	ListMediaFiles(ctx context.Context, page, limit int) ([]models.MediaFile, int64, error)

	// Update operations
	UpdateStatus(ctx context.Context, id uint, status models.MediaStatus) error
	UpdateProgress(ctx context.Context, id uint, progress float64) error
	UpdateDuration(ctx context.Context, id uint, duration float64) error
	SetError(ctx context.Context, id uint, message string) error

	// Delete operations
	DeleteMediaFile(ctx context.Context, id uint) error
}

// Service defines the business logic interface for media operations
type Service interface {
	// Register adds a media file to the library and queues it for
	// transcription. Registering an already-known path returns the
	// existing record.
	Register(ctx context.Context, path string) (*models.MediaFile, *models.Job, error)

	GetByID(ctx context.Context, id uint) (*models.MediaFile, error)
	List(ctx context.Context, page, limit int) ([]models.MediaFile, int64, error)

	// Pipeline progress reporting (used by workers)
	MarkRunning(ctx context.Context, id uint) error
	ReportProgress(ctx context.Context, id uint, progress float64) error
	MarkDone(ctx context.Context, id uint) error
	MarkFailed(ctx context.Context, id uint, message string) error
	SetDuration(ctx context.Context, id uint, duration float64) error

	Delete(ctx context.Context, id uint) error
}
