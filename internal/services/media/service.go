package media

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/ezclip/ezclip-api/internal/models"
	"github.com/ezclip/ezclip-api/internal/services/jobs"
	"github.com/ezclip/ezclip-api/pkg/download"
)

// Fetcher pulls a remote URL down to local storage. *download.Downloader
// satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*download.Result, error)
}

// Validator checks that a file is processable media before it enters the
// library. *ffmpeg.FFmpeg satisfies it.
type Validator interface {
	ValidateMediaFile(ctx context.Context, path string) error
}

type service struct {
	repo      Repository
	jobs      jobs.Service
	fetcher   Fetcher
	validator Validator
}

// Ensure service implements Service interface
var _ Service = (*service)(nil)

// ServiceOption configures optional service behavior
type ServiceOption func(*service)

// WithFetcher enables registering http(s) URLs, which are downloaded to
// local storage before the pipeline runs.
func WithFetcher(f Fetcher) ServiceOption {
	return func(s *service) {
		s.fetcher = f
	}
}

// WithValidator rejects files without a usable audio stream at registration
// instead of letting the pipeline job fail later.
func WithValidator(v Validator) ServiceOption {
	return func(s *service) {
		s.validator = v
	}
}

func NewService(repo Repository, jobService jobs.Service, opts ...ServiceOption) Service {
	s := &service{
		repo: repo,
		jobs: jobService,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Register(ctx context.Context, path string) (*models.MediaFile, *models.Job, error) {
	if path == "" {
		return nil, nil, NewValidationError("path", "path is required")
	}

	if download.IsURL(path) {
		if s.fetcher == nil {
			return nil, nil, NewValidationError("path", "URL registration is not enabled")
		}
		result, err := s.fetcher.Fetch(ctx, path)
		if err != nil {
			return nil, nil, NewValidationError("path", fmt.Sprintf("download failed: %v", err))
		}
		log.Info().Str("url", path).Str("path", result.FilePath).Msg("Fetched remote media")
		path = result.FilePath
	}

	if _, err := os.Stat(path); err != nil {
		return nil, nil, NewValidationError("path", fmt.Sprintf("file not accessible: %v", err))
	}

	if s.validator != nil {
		if err := s.validator.ValidateMediaFile(ctx, path); err != nil {
			return nil, nil, NewValidationError("path", fmt.Sprintf("not a processable media file: %v", err))
		}
	}

	// Re-registering a known path reuses the record; a fresh pipeline job
	// is only queued when the previous run failed.
	existing, err := s.repo.GetMediaFileByPath(ctx, path)
	if err == nil {
		if existing.Status != models.MediaStatusError {
			job, _ := s.jobs.GetJobForMedia(ctx, models.JobTypeTranscriptionPipeline, existing.ID)
			return existing, job, nil
		}
		if err := s.repo.UpdateStatus(ctx, existing.ID, models.MediaStatusQueued); err != nil {
			return nil, nil, err
		}
		existing.Status = models.MediaStatusQueued
		job, err := s.enqueuePipeline(ctx, existing.ID)
		if err != nil {
			return nil, nil, err
		}
		return existing, job, nil
	}
	if !IsNotFound(err) {
		return nil, nil, err
	}

	media := &models.MediaFile{
		Path:   path,
		Status: models.MediaStatusQueued,
	}
	if err := s.repo.CreateMediaFile(ctx, media); err != nil {
		return nil, nil, err
	}

	job, err := s.enqueuePipeline(ctx, media.ID)
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Uint("media_id", media.ID).
		Str("path", path).
		Uint("job_id", job.ID).
		Msg("Registered media file")

	return media, job, nil
}

func (s *service) enqueuePipeline(ctx context.Context, mediaID uint) (*models.Job, error) {
	job, err := s.jobs.EnqueueUniqueJob(ctx, models.JobTypeTranscriptionPipeline,
		models.JobPayload{"media_file_id": mediaID}, "media_file_id")
	if err != nil {
		return nil, fmt.Errorf("enqueueing pipeline job: %w", err)
	}
	return job, nil
}

func (s *service) GetByID(ctx context.Context, id uint) (*models.MediaFile, error) {
	return s.repo.GetMediaFileByID(ctx, id)
}

func (s *service) List(ctx context.Context, page, limit int) ([]models.MediaFile, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.ListMediaFiles(ctx, page, limit)
}

func (s *service) MarkRunning(ctx context.Context, id uint) error {
	return s.repo.UpdateStatus(ctx, id, models.MediaStatusRunning)
}

func (s *service) ReportProgress(ctx context.Context, id uint, progress float64) error {
	return s.repo.UpdateProgress(ctx, id, progress)
}

func (s *service) MarkDone(ctx context.Context, id uint) error {
	if err := s.repo.UpdateProgress(ctx, id, 100); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, id, models.MediaStatusDone)
}

func (s *service) MarkFailed(ctx context.Context, id uint, message string) error {
	return s.repo.SetError(ctx, id, message)
}

func (s *service) SetDuration(ctx context.Context, id uint, duration float64) error {
	return s.repo.UpdateDuration(ctx, id, duration)
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.repo.DeleteMediaFile(ctx, id)
}
