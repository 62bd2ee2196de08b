package masks

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

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

func (r *repository) GetRecord(ctx context.Context, mediaFileID uint) (*models.EditMaskRecord, error) {
	var record models.EditMaskRecord
	err := r.db.WithContext(ctx).
		Where("media_file_id = ?", mediaFileID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError{MediaFileID: mediaFileID}
		}
		return nil, fmt.Errorf("getting edit mask: %w", err)
	}
	return &record, nil
}

func (r *repository) SaveRecord(ctx context.Context, record *models.EditMaskRecord) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "media_file_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"kind", "payload", "updated_at"}),
		}).
		Create(record).Error
	if err != nil {
		return fmt.Errorf("saving edit mask: %w", err)
	}
	return nil
}

func (r *repository) DeleteRecord(ctx context.Context, mediaFileID uint) error {
	result := r.db.WithContext(ctx).
		Unscoped().
		Where("media_file_id = ?", mediaFileID).
		Delete(&models.EditMaskRecord{})
	if result.Error != nil {
		return fmt.Errorf("deleting edit mask: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return NotFoundError{MediaFileID: mediaFileID}
	}
	return nil
}
