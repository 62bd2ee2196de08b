package types

import (
	"github.com/ezclip/ezclip-api/internal/database"
	"github.com/ezclip/ezclip-api/internal/services/export"
	"github.com/ezclip/ezclip-api/internal/services/jobs"
	"github.com/ezclip/ezclip-api/internal/services/masks"
	"github.com/ezclip/ezclip-api/internal/services/media"
	"github.com/ezclip/ezclip-api/internal/services/transcripts"
	"github.com/ezclip/ezclip-api/internal/services/workers"
)

// Dependencies holds all the dependencies needed by handlers
type Dependencies struct {
	DB                *database.DB
	MediaService      media.Service
	TranscriptService transcripts.Service
	MaskService       masks.Service
	ExportService     export.Service
	JobService        jobs.Service
	WorkerPool        *workers.WorkerPool

	// GlueGap is the default export glue gap in seconds.
	GlueGap float64
}
