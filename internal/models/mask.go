package models

import (
	"gorm.io/gorm"

	"github.com/ezclip/ezclip-api/pkg/editmask"
)

// EditMaskRecord is the persisted form of an edit mask: the compact
// removed-span encoding produced by editmask.Mask.Marshal. The full keep
// vector is reconstructed on load against the current word count, so words
// added by a later re-transcription default to kept.
type EditMaskRecord struct {
	gorm.Model
	MediaFileID uint   `json:"media_file_id" gorm:"uniqueIndex;not null"`
	Kind        string `json:"kind" gorm:"default:'mask-v1'"`
	Payload     string `json:"payload" gorm:"type:text"`
}

// EditMask is kept as an alias-style name for relations; the table stores
// records, the domain logic lives in pkg/editmask.
type EditMask = EditMaskRecord

// TableName specifies the table name for EditMaskRecord
func (EditMaskRecord) TableName() string {
	return "edit_masks"
}

// Decode reconstructs the full-length mask for totalWords words.
func (r *EditMaskRecord) Decode(totalWords int) (*editmask.Mask, error) {
	return editmask.Unmarshal(r.MediaFileID, r.Payload, totalWords)
}

// Encode stores the mask's serialized form on the record.
func (r *EditMaskRecord) Encode(m *editmask.Mask) error {
	payload, err := m.Marshal()
	if err != nil {
		return err
	}
	r.MediaFileID = m.MediaID
	r.Kind = m.Kind
	r.Payload = payload
	return nil
}
