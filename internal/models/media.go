package models

import (
	"gorm.io/gorm"
)

// MediaStatus tracks a media file through the pipeline
type MediaStatus string

const (
	MediaStatusQueued  MediaStatus = "queued"
	MediaStatusRunning MediaStatus = "running"
	MediaStatusDone    MediaStatus = "done"
	MediaStatusError   MediaStatus = "error"
)

// MediaFile represents one registered media item (video or audio)
type MediaFile struct {
	gorm.Model
	Path         string      `json:"path" gorm:"uniqueIndex;not null"`
	Status       MediaStatus `json:"status" gorm:"default:'queued';index"`
	Progress     float64     `json:"progress" gorm:"default:0"` // 0-100
	Duration     float64     `json:"duration"`                  // seconds, known after probing
	ErrorMessage string      `json:"error_message,omitempty"`

	Transcript *Transcript `json:"transcript,omitempty" gorm:"foreignKey:MediaFileID"`
	Mask       *EditMask   `json:"mask,omitempty" gorm:"foreignKey:MediaFileID"`
}

// IsTerminal returns true once the pipeline finished, successfully or not
func (m *MediaFile) IsTerminal() bool {
	return m.Status == MediaStatusDone || m.Status == MediaStatusError
}

// TableName specifies the table name for MediaFile
func (MediaFile) TableName() string {
	return "media_files"
}
