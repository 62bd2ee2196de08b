package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// JobType identifies what a queued job does.
type JobType string

const (
	// JobTypeTranscriptionPipeline runs the full transcribe/diarize/reconcile
	// pipeline for one media file.
	JobTypeTranscriptionPipeline JobType = "transcription_pipeline"
	// JobTypeClipExport renders the kept ranges of an edit mask to a new file.
	JobTypeClipExport JobType = "clip_export"
)

// JobStatus tracks a job through its lifecycle.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// JobPayload carries the job's input parameters as JSON.
type JobPayload map[string]interface{}

func (p JobPayload) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func (p *JobPayload) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JobPayload", value)
	}

	return json.Unmarshal(data, p)
}

// JobResult carries the job's output as JSON.
type JobResult map[string]interface{}

func (r JobResult) Value() (driver.Value, error) {
	if r == nil {
		return nil, nil
	}
	return json.Marshal(r)
}

func (r *JobResult) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JobResult", value)
	}

	return json.Unmarshal(data, r)
}

// JobErrorType classifies failures for retry decisions.
type JobErrorType string

const (
	JobErrorTypeMedia      JobErrorType = "media"
	JobErrorTypeProcessing JobErrorType = "processing"
	JobErrorTypeSystem     JobErrorType = "system"
	JobErrorTypeNotFound   JobErrorType = "not_found"
)

// StructuredJobError is the persisted form of a job failure.
type StructuredJobError struct {
	Type      JobErrorType `json:"type"`
	Message   string       `json:"message"`
	Retryable bool         `json:"retryable"`
	Timestamp time.Time    `json:"timestamp"`
}

func (e StructuredJobError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func NewJobError(errType JobErrorType, message string, retryable bool) StructuredJobError {
	return StructuredJobError{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now(),
	}
}

// Job is a row in the background work queue. Workers claim pending jobs
// transactionally and report progress back through UpdateProgress.
type Job struct {
	gorm.Model
	Type        JobType    `gorm:"not null;index" json:"type"`
	Status      JobStatus  `gorm:"not null;index;default:'pending'" json:"status"`
	Priority    int        `gorm:"default:0;index" json:"priority"`
	Payload     JobPayload `gorm:"type:text" json:"payload"`
	Result      JobResult  `gorm:"type:text" json:"result,omitempty"`
	Progress    int        `gorm:"default:0" json:"progress"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	RetryCount  int        `gorm:"default:0" json:"retry_count"`
	MaxRetries  int        `gorm:"default:3" json:"max_retries"`
	NextRetryAt *time.Time `gorm:"index" json:"next_retry_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	WorkerID    string     `gorm:"index" json:"worker_id,omitempty"`
}

func (Job) TableName() string {
	return "jobs"
}

// IsTerminal reports whether the job has finished for good.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// IsRetryable reports whether the job may be attempted again.
func (j *Job) IsRetryable() bool {
	return j.RetryCount < j.MaxRetries && !j.IsTerminal()
}

// NextRetryDelay returns an exponential backoff for the next attempt,
// based on the failures recorded so far.
func (j *Job) NextRetryDelay() time.Duration {
	base := 30 * time.Second
	delay := base * time.Duration(1<<uint(j.RetryCount))
	if max := 10 * time.Minute; delay > max {
		delay = max
	}
	return delay
}

// SetStructuredError stores a structured failure on the job, overwriting
// any previous error.
func (j *Job) SetStructuredError(jobErr StructuredJobError) {
	data, err := json.Marshal(jobErr)
	if err != nil {
		j.Error = jobErr.Message
		return
	}
	j.Error = string(data)
}

// GetStructuredError parses the stored error. Falls back to a system error
// wrapping the raw string when the field predates structured errors.
func (j *Job) GetStructuredError() (StructuredJobError, error) {
	if j.Error == "" {
		return StructuredJobError{}, errors.New("job has no error")
	}
	var jobErr StructuredJobError
	if err := json.Unmarshal([]byte(j.Error), &jobErr); err != nil {
		return StructuredJobError{
			Type:      JobErrorTypeSystem,
			Message:   j.Error,
			Retryable: false,
			Timestamp: j.UpdatedAt,
		}, nil
	}
	return jobErr, nil
}

// MediaFileID extracts the media file reference common to both job types.
func (j *Job) MediaFileID() (uint, error) {
	raw, ok := j.Payload["media_file_id"]
	if !ok {
		return 0, errors.New("payload missing media_file_id")
	}
	switch v := raw.(type) {
	case float64:
		return uint(v), nil
	case int:
		return uint(v), nil
	case uint:
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected media_file_id type %T", raw)
	}
}
