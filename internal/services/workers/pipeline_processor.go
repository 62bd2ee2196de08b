package workers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ezclip/ezclip-api/internal/models"
	"github.com/ezclip/ezclip-api/internal/services/jobs"
	"github.com/ezclip/ezclip-api/internal/services/pipeline"
)

// PipelineProcessor processes transcription pipeline jobs
type PipelineProcessor struct {
	jobService jobs.Service
	pipeline   pipeline.Service
}

// NewPipelineProcessor creates a new pipeline processor
func NewPipelineProcessor(jobService jobs.Service, pipelineService pipeline.Service) *PipelineProcessor {
	return &PipelineProcessor{
		jobService: jobService,
		pipeline:   pipelineService,
	}
}

// CanProcess returns true if this processor can handle the job type
func (p *PipelineProcessor) CanProcess(jobType models.JobType) bool {
	return jobType == models.JobTypeTranscriptionPipeline
}

// ProcessJob processes a transcription pipeline job
func (p *PipelineProcessor) ProcessJob(ctx context.Context, job *models.Job) error {
	if !p.CanProcess(job.Type) {
		return fmt.Errorf("unsupported job type: %s", job.Type)
	}

	mediaFileID, err := job.MediaFileID()
	if err != nil {
		return models.NewJobError(models.JobErrorTypeNotFound,
			fmt.Sprintf("invalid job payload: %v", err), false)
	}

	log.Debug().
		Uint("job_id", job.ID).
		Uint("media_id", mediaFileID).
		Msg("Processing transcription pipeline job")

	report := func(progress int) {
		if err := p.jobService.UpdateProgress(ctx, job.ID, progress); err != nil {
			log.Warn().Err(err).Uint("job_id", job.ID).Msg("Failed to update job progress")
		}
	}

	if err := p.pipeline.Run(ctx, mediaFileID, report); err != nil {
		return models.NewJobError(models.JobErrorTypeProcessing, err.Error(), true)
	}

	return p.jobService.CompleteJob(ctx, job.ID, models.JobResult{
		"media_file_id": mediaFileID,
	})
}
