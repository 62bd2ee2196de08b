package models

import (
	"sort"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Transcript is the complete transcription result for one media file.
// FullText is regenerated from the current segments on every save, so edits
// and speaker renames are always reflected.
type Transcript struct {
	gorm.Model
	MediaFileID uint    `json:"media_file_id" gorm:"uniqueIndex;not null"`
	FullText    string  `json:"full_text" gorm:"type:text"`
	Duration    float64 `json:"duration"` // seconds
	Language    string  `json:"language"`
	ModelSize   string  `json:"model_size"`
	// Method records which reconciliation tier labeled the speakers:
	// aligned, voted, or single_speaker.
	Method string `json:"method"`
	// SpeakerNames is the user's display rename overlay, a JSON object of
	// raw label -> display name.
	SpeakerNames datatypes.JSON `json:"speaker_names,omitempty"`

	Segments []Segment `json:"segments,omitempty" gorm:"foreignKey:TranscriptID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Transcript
func (Transcript) TableName() string {
	return "transcripts"
}

// Segment is a contiguous span of transcript text attributed to one speaker
type Segment struct {
	gorm.Model
	TranscriptID uint    `json:"transcript_id" gorm:"index;not null"`
	Position     int     `json:"position" gorm:"not null"` // order within the transcript
	Speaker      string  `json:"speaker"`
	Start        float64 `json:"start"` // seconds
	End          float64 `json:"end"`   // seconds
	Text         string  `json:"text" gorm:"type:text"`

	Words []Word `json:"words,omitempty" gorm:"foreignKey:SegmentID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Segment
func (Segment) TableName() string {
	return "segments"
}

// RegenerateText rebuilds the segment text by joining the current word
// texts. Called after per-word edits so the stored text tracks the words.
func (s *Segment) RegenerateText() {
	parts := make([]string, 0, len(s.Words))
	for _, w := range s.Words {
		if t := strings.TrimSpace(w.Text); t != "" {
			parts = append(parts, t)
		}
	}
	s.Text = strings.Join(parts, " ")
}

// Word is the smallest timestamped transcription unit. Words are immutable
// once produced by transcription except for the speaker label, attached by
// reconciliation.
type Word struct {
	gorm.Model
	SegmentID uint `json:"segment_id" gorm:"index;not null"`
	// Index is the word's position in the media item's flattened,
	// time-ordered word sequence. Edit masks index into this sequence.
	Index   int     `json:"index" gorm:"not null;index"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"` // seconds
	End     float64 `json:"end"`   // seconds
	Score   float64 `json:"score"` // confidence in [0,1]
	Speaker string  `json:"speaker,omitempty"`
}

// TableName specifies the table name for Word
func (Word) TableName() string {
	return "words"
}

// FlattenWords projects the transcript's words into one sequence ordered by
// start time, the substrate edit masks index into.
func (t *Transcript) FlattenWords() []Word {
	var words []Word
	for _, seg := range t.Segments {
		words = append(words, seg.Words...)
	}
	sort.SliceStable(words, func(i, j int) bool {
		return words[i].Start < words[j].Start
	})
	return words
}
