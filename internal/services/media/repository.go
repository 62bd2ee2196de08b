package media

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ezclip/ezclip-api/internal/models"
)

type repository struct {
	db *gorm.DB
}

// Ensure repository implements Repository interface
var _ Repository = (*repository)(nil)

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateMediaFile(ctx context.Context, media *models.MediaFile) error {
	if err := r.db.WithContext(ctx).Create(media).Error; err != nil {
		return fmt.Errorf("creating media file: %w", err)
	}
	return nil
}

func (r *repository) GetMediaFileByID(ctx context.Context, id uint) (*models.MediaFile, error) {
	var media models.MediaFile
	if err := r.db.WithContext(ctx).First(&media, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError(id)
		}
		return nil, fmt.Errorf("getting media file: %w", err)
	}
	return &media, nil
}

func (r *repository) GetMediaFileByPath(ctx context.Context, path string) (*models.MediaFile, error) {
	var media models.MediaFile
	if err := r.db.WithContext(ctx).Where("path = ?", path).First(&media).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError(path)
		}
		return nil, fmt.Errorf("getting media file by path: %w", err)
	}
	return &media, nil
}

func (r *repository) ListMediaFiles(ctx context.Context, page, limit int) ([]models.MediaFile, int64, error) {
	var files []models.MediaFile
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.MediaFile{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("counting media files: %w", err)
	}

	query := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
		if page > 1 {
			query = query.Offset((page - 1) * limit)
		}
	}

	if err := query.Find(&files).Error; err != nil {
		return nil, 0, fmt.Errorf("listing media files: %w", err)
	}

	return files, total, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uint, status models.MediaStatus) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"status": status})
}

func (r *repository) UpdateProgress(ctx context.Context, id uint, progress float64) error {
	if progress < 0 {
		progress = 0
	} else if progress > 100 {
		progress = 100
	}
	return r.updateColumns(ctx, id, map[string]interface{}{"progress": progress})
}

func (r *repository) UpdateDuration(ctx context.Context, id uint, duration float64) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"duration": duration})
}

func (r *repository) SetError(ctx context.Context, id uint, message string) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"status":        models.MediaStatusError,
		"error_message": message,
	})
}

func (r *repository) DeleteMediaFile(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.MediaFile{}, id)
	if result.Error != nil {
		return fmt.Errorf("deleting media file: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return NewNotFoundError(id)
	}
	return nil
}

func (r *repository) updateColumns(ctx context.Context, id uint, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.MediaFile{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("updating media file: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return NewNotFoundError(id)
	}
	return nil
}
