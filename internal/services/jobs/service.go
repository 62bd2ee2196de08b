package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ezclip/ezclip-api/internal/models"
)

const (
	DefaultMaxRetries = 3
	DefaultPriority   = 0
)

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{
		repo: repo,
	}
}

func (s *service) EnqueueJob(ctx context.Context, jobType models.JobType, payload models.JobPayload, opts ...JobOption) (*models.Job, error) {
	cfg := &jobConfig{
		Priority:   DefaultPriority,
		MaxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	job := &models.Job{
		Type:       jobType,
		Status:     models.JobStatusPending,
		Payload:    payload,
		Priority:   cfg.Priority,
		MaxRetries: cfg.MaxRetries,
	}

	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	log.Debug().
		Str("type", string(jobType)).
		Uint("job_id", job.ID).
		Int("priority", job.Priority).
		Msg("Enqueued job")

	return job, nil
}

func (s *service) EnqueueUniqueJob(ctx context.Context, jobType models.JobType, payload models.JobPayload, uniqueKey string, opts ...JobOption) (*models.Job, error) {
	uniqueValue, ok := payload[uniqueKey]
	if !ok {
		return nil, fmt.Errorf("unique key %s not found in payload", uniqueKey)
	}

	existingJob, err := s.repo.GetJobByTypeAndPayload(ctx, jobType, uniqueKey, uniqueValue)
	if err == nil && existingJob != nil {
		if !existingJob.IsTerminal() {
			log.Debug().
				Str("type", string(jobType)).
				Str("key", uniqueKey).
				Uint("job_id", existingJob.ID).
				Str("status", string(existingJob.Status)).
				Msg("Job already exists")
			return existingJob, nil
		}
	}

	return s.EnqueueJob(ctx, jobType, payload, opts...)
}

func (s *service) GetJob(ctx context.Context, jobID uint) (*models.Job, error) {
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting job: %w", err)
	}
	return job, nil
}

func (s *service) GetJobStatus(ctx context.Context, jobID uint) (models.JobStatus, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	return job.Status, nil
}

func (s *service) GetJobForMedia(ctx context.Context, jobType models.JobType, mediaFileID uint) (*models.Job, error) {
	job, err := s.repo.GetJobByTypeAndPayload(ctx, jobType, "media_file_id", mediaFileID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("getting job for media: %w", err)
	}
	return job, nil
}

func (s *service) ClaimNextJob(ctx context.Context, workerID string, jobTypes []models.JobType) (*models.Job, error) {
	job, err := s.repo.ClaimNextJob(ctx, workerID, jobTypes)
	if err != nil {
		if errors.Is(err, ErrNoJobsAvailable) {
			return nil, err
		}
		return nil, fmt.Errorf("claiming job: %w", err)
	}

	log.Debug().
		Str("worker", workerID).
		Str("type", string(job.Type)).
		Uint("job_id", job.ID).
		Msg("Worker claimed job")

	return job, nil
}

func (s *service) UpdateProgress(ctx context.Context, jobID uint, progress int) error {
	if err := s.repo.UpdateJobProgress(ctx, jobID, progress); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("updating job progress: %w", err)
	}

	return nil
}

func (s *service) CompleteJob(ctx context.Context, jobID uint, result models.JobResult) error {
	if err := s.repo.CompleteJob(ctx, jobID, result); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("completing job: %w", err)
	}

	log.Debug().Uint("job_id", jobID).Msg("Job completed")

	return nil
}

func (s *service) FailJob(ctx context.Context, jobID uint, jobErr models.StructuredJobError) error {
	if err := s.repo.FailJob(ctx, jobID, jobErr); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("failing job: %w", err)
	}

	job, _ := s.repo.GetJob(ctx, jobID)
	if job != nil && job.IsRetryable() {
		log.Error().
			Uint("job_id", jobID).
			Int("retry", job.RetryCount).
			Int("max_retries", job.MaxRetries).
			Str("error", jobErr.Message).
			Msg("Job failed, will retry")
	} else {
		log.Error().
			Uint("job_id", jobID).
			Str("error", jobErr.Message).
			Msg("Job failed permanently")
	}

	return nil
}

func (s *service) ReleaseJob(ctx context.Context, jobID uint) error {
	if err := s.repo.ReleaseJob(ctx, jobID); err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return err
		}
		return fmt.Errorf("releasing job: %w", err)
	}

	log.Debug().Uint("job_id", jobID).Msg("Job released back to pending")

	return nil
}

func (s *service) ReleaseOrphanedJobs(ctx context.Context) (int64, error) {
	released, err := s.repo.ReleaseOrphanedJobs(ctx)
	if err != nil {
		return 0, err
	}

	if released > 0 {
		log.Warn().Int64("released", released).Msg("Requeued jobs orphaned by a previous shutdown")
	}

	return released, nil
}

func (s *service) CleanupOldJobs(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retention days must be positive")
	}

	cutoffTime := time.Now().AddDate(0, 0, -retentionDays)

	deleted, err := s.repo.DeleteOldJobs(ctx, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("cleaning up old jobs: %w", err)
	}

	if deleted > 0 {
		log.Debug().Int64("deleted", deleted).Int("retention_days", retentionDays).Msg("Deleted old jobs")
	}

	return deleted, nil
}
