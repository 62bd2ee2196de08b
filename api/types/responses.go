package types

// Status constants for API responses
const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusProcessing = "processing"
	StatusFailed     = "failed"
	StatusQueued     = "queued"
)

// BaseResponse contains fields common to all API responses
type BaseResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for detailed error information
type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// MediaResponse describes one media file
type MediaResponse struct {
	ID           uint    `json:"id"`
	Path         string  `json:"path"`
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	Duration     float64 `json:"duration,omitempty"`
	ErrorMessage string  `json:"error_message,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// MediaListResponse for the media library listing
type MediaListResponse struct {
	BaseResponse
	Media []MediaResponse `json:"media"`
	Count int             `json:"count"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
}

// RegisterMediaResponse for media registration
type RegisterMediaResponse struct {
	BaseResponse
	Media MediaResponse `json:"media"`
	JobID uint          `json:"job_id,omitempty"`
}

// WordResponse is one word of a transcript
type WordResponse struct {
	Index   int     `json:"index"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Score   float64 `json:"score,omitempty"`
	Speaker string  `json:"speaker,omitempty"`
}

// SegmentResponse is one speaker-attributed transcript segment
type SegmentResponse struct {
	Position int            `json:"position"`
	Speaker  string         `json:"speaker"`
	Start    float64        `json:"start"`
	End      float64        `json:"end"`
	Text     string         `json:"text"`
	Words    []WordResponse `json:"words,omitempty"`
}

// TranscriptResponse for transcript retrieval
type TranscriptResponse struct {
	BaseResponse
	MediaFileID  uint              `json:"media_file_id"`
	FullText     string            `json:"full_text"`
	Language     string            `json:"language,omitempty"`
	ModelSize    string            `json:"model_size,omitempty"`
	Method       string            `json:"method,omitempty"`
	Duration     float64           `json:"duration,omitempty"`
	SpeakerNames map[string]string `json:"speaker_names,omitempty"`
	Segments     []SegmentResponse `json:"segments,omitempty"`
}

// MaskResponse for edit mask retrieval
type MaskResponse struct {
	BaseResponse
	MediaFileID uint   `json:"media_file_id"`
	Keep        []bool `json:"keep"`
	Trivial     bool   `json:"trivial"`
}

// RangeResponse is one kept time range
type RangeResponse struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// RangesResponse for the kept-ranges preview
type RangesResponse struct {
	BaseResponse
	MediaFileID uint            `json:"media_file_id"`
	GlueGap     float64         `json:"glue_gap"`
	Ranges      []RangeResponse `json:"ranges"`
}

// JobResponse for async job status
type JobResponse struct {
	BaseResponse
	JobID      uint        `json:"job_id"`
	Type       string      `json:"type"`
	JobStatus  string      `json:"job_status"`
	Progress   int         `json:"progress"`
	RetryCount int         `json:"retry_count,omitempty"`
	Error      string      `json:"error,omitempty"`
	Result     interface{} `json:"result,omitempty"`
}
