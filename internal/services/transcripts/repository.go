package transcripts

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

func (r *repository) SaveTranscript(ctx context.Context, transcript *models.Transcript) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Transcript
		err := tx.Where("media_file_id = ?", transcript.MediaFileID).First(&existing).Error
		if err == nil {
			// Replace wholesale. Select(clause.Associations) would leave
			// orphaned words behind, so delete bottom-up.
			var segmentIDs []uint
			if err := tx.Model(&models.Segment{}).
				Where("transcript_id = ?", existing.ID).
				Pluck("id", &segmentIDs).Error; err != nil {
				return fmt.Errorf("collecting segments: %w", err)
			}
			if len(segmentIDs) > 0 {
				if err := tx.Unscoped().Where("segment_id IN ?", segmentIDs).
					Delete(&models.Word{}).Error; err != nil {
					return fmt.Errorf("deleting words: %w", err)
				}
				if err := tx.Unscoped().Where("id IN ?", segmentIDs).
					Delete(&models.Segment{}).Error; err != nil {
					return fmt.Errorf("deleting segments: %w", err)
				}
			}
			if err := tx.Unscoped().Delete(&existing).Error; err != nil {
				return fmt.Errorf("deleting transcript: %w", err)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("checking existing transcript: %w", err)
		}

		if err := tx.Create(transcript).Error; err != nil {
			return fmt.Errorf("creating transcript: %w", err)
		}
		return nil
	})
}

func (r *repository) GetTranscriptByMediaID(ctx context.Context, mediaFileID uint) (*models.Transcript, error) {
	var transcript models.Transcript
	err := r.db.WithContext(ctx).
		Preload("Segments", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Segments.Words", func(db *gorm.DB) *gorm.DB {
			return db.Order("`index` ASC")
		}).
		Where("media_file_id = ?", mediaFileID).
		First(&transcript).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("transcript", mediaFileID)
		}
		return nil, fmt.Errorf("getting transcript: %w", err)
	}
	return &transcript, nil
}

func (r *repository) CountWords(ctx context.Context, mediaFileID uint) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Word{}).
		Joins("JOIN segments ON segments.id = words.segment_id").
		Joins("JOIN transcripts ON transcripts.id = segments.transcript_id").
		Where("transcripts.media_file_id = ?", mediaFileID).
		Where("words.deleted_at IS NULL").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting words: %w", err)
	}
	return int(count), nil
}

func (r *repository) UpdateWord(ctx context.Context, word *models.Word) error {
	result := r.db.WithContext(ctx).Save(word)
	if result.Error != nil {
		return fmt.Errorf("updating word: %w", result.Error)
	}
	return nil
}

func (r *repository) UpdateSegmentText(ctx context.Context, segmentID uint, text string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Segment{}).
		Where("id = ?", segmentID).
		Update("text", text)
	if result.Error != nil {
		return fmt.Errorf("updating segment text: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return NewNotFoundError("segment", segmentID)
	}
	return nil
}

func (r *repository) UpdateTranscriptFields(ctx context.Context, transcriptID uint, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.Transcript{}).
		Where("id = ?", transcriptID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("updating transcript: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return NewNotFoundError("transcript", transcriptID)
	}
	return nil
}
