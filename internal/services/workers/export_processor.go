package workers

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ezclip/ezclip-api/internal/models"
	"github.com/ezclip/ezclip-api/internal/services/export"
	"github.com/ezclip/ezclip-api/internal/services/jobs"
)

// ExportProcessor processes clip export jobs
type ExportProcessor struct {
	jobService jobs.Service
	export     export.Service
	glueGap    float64
}

// NewExportProcessor creates a new export processor
func NewExportProcessor(jobService jobs.Service, exportService export.Service, glueGap float64) *ExportProcessor {
	return &ExportProcessor{
		jobService: jobService,
		export:     exportService,
		glueGap:    glueGap,
	}
}

// CanProcess returns true if this processor can handle the job type
func (p *ExportProcessor) CanProcess(jobType models.JobType) bool {
	return jobType == models.JobTypeClipExport
}

// ProcessJob processes a clip export job
func (p *ExportProcessor) ProcessJob(ctx context.Context, job *models.Job) error {
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
		Msg("Processing clip export job")

	glueGap := p.glueGap
	if raw, ok := job.Payload["glue_gap"]; ok {
		if v, ok := raw.(float64); ok && v >= 0 {
			glueGap = v
		}
	}

	if err := p.jobService.UpdateProgress(ctx, job.ID, 10); err != nil {
		log.Warn().Err(err).Uint("job_id", job.ID).Msg("Failed to update job progress")
	}

	outputPath, err := p.export.Export(ctx, mediaFileID, glueGap)
	if err != nil {
		// An all-cut mask will stay all-cut on retry.
		if errors.Is(err, export.ErrNothingKept) {
			return models.NewJobError(models.JobErrorTypeMedia, err.Error(), false)
		}
		return models.NewJobError(models.JobErrorTypeProcessing, err.Error(), true)
	}

	return p.jobService.CompleteJob(ctx, job.ID, models.JobResult{
		"media_file_id": mediaFileID,
		"output_path":   outputPath,
	})
}
