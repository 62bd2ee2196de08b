package media

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/ezclip/ezclip-api/api/types"
	"github.com/ezclip/ezclip-api/internal/models"
	"github.com/ezclip/ezclip-api/internal/services/masks"
	mediaservice "github.com/ezclip/ezclip-api/internal/services/media"
	"github.com/ezclip/ezclip-api/internal/services/transcripts"
	"github.com/ezclip/ezclip-api/pkg/editmask"
)

// RegisterMediaRequest is the body for registering a media file
type RegisterMediaRequest struct {
	Path string `json:"path" binding:"required"`
}

// RenameSpeakersRequest maps raw speaker labels to display names
type RenameSpeakersRequest struct {
	Names map[string]string `json:"names" binding:"required"`
}

// UpdateWordRequest carries the replacement text for one word
type UpdateWordRequest struct {
	Text string `json:"text" binding:"required"`
}

// ReplaceMaskRequest carries a full keep vector
type ReplaceMaskRequest struct {
	Keep []bool `json:"keep" binding:"required"`
}

// ToggleWordRequest flips one word between kept and cut
type ToggleWordRequest struct {
	Keep *bool `json:"keep" binding:"required"`
}

// ExportRequest optionally overrides the glue gap for this export
type ExportRequest struct {
	GlueGap *float64 `json:"glue_gap"`
}

// RegisterMedia handles POST /media
// Registers a file path in the library and queues the transcription pipeline.
func RegisterMedia(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterMediaRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		mediaFile, job, err := deps.MediaService.Register(c.Request.Context(), req.Path)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		resp := types.RegisterMediaResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusQueued},
			Media:        toMediaResponse(mediaFile),
		}
		if job != nil {
			resp.JobID = job.ID
		}
		types.SendAccepted(c, resp)
	}
}

// ListMedia handles GET /media
func ListMedia(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

		files, total, err := deps.MediaService.List(c.Request.Context(), page, limit)
		if err != nil {
			log.Error().Err(err).Msg("Failed to list media files")
			types.SendInternalError(c, "Failed to list media files")
			return
		}

		items := make([]types.MediaResponse, 0, len(files))
		for i := range files {
			items = append(items, toMediaResponse(&files[i]))
		}
		types.SendSuccess(c, types.MediaListResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			Media:        items,
			Count:        len(items),
			Total:        total,
			Page:         page,
		})
	}
}

// GetMedia handles GET /media/:id
func GetMedia(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		mediaFile, err := deps.MediaService.GetByID(c.Request.Context(), id)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		types.SendSuccess(c, toMediaResponse(mediaFile))
	}
}

// DeleteMedia handles DELETE /media/:id
func DeleteMedia(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		if err := deps.MediaService.Delete(c.Request.Context(), id); err != nil {
			respondServiceError(c, err)
			return
		}
		types.SendSuccess(c, types.BaseResponse{Status: types.StatusOK, Message: "Media deleted"})
	}
}

// GetTranscript handles GET /media/:id/transcript
func GetTranscript(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		transcript, err := deps.TranscriptService.Get(c.Request.Context(), id)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		types.SendSuccess(c, toTranscriptResponse(transcript))
	}
}

// RenameSpeakers handles PUT /media/:id/speakers
func RenameSpeakers(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}
		var req RenameSpeakersRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		transcript, err := deps.TranscriptService.RenameSpeakers(c.Request.Context(), id, req.Names)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		types.SendSuccess(c, toTranscriptResponse(transcript))
	}
}

// UpdateWord handles PATCH /media/:id/words/:index
// The index addresses the flattened, time-ordered word sequence.
func UpdateWord(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}
		index, ok := types.ParseIntParam(c, "index")
		if !ok {
			return
		}
		var req UpdateWordRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		transcript, err := deps.TranscriptService.UpdateWordText(c.Request.Context(), id, index, req.Text)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		types.SendSuccess(c, toTranscriptResponse(transcript))
	}
}

// GetMask handles GET /media/:id/mask
func GetMask(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		mask, err := deps.MaskService.Get(c.Request.Context(), id)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		types.SendSuccess(c, toMaskResponse(id, mask))
	}
}

// ReplaceMask handles PUT /media/:id/mask
func ReplaceMask(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}
		var req ReplaceMaskRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		mask, err := deps.MaskService.Replace(c.Request.Context(), id, req.Keep)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		types.SendSuccess(c, toMaskResponse(id, mask))
	}
}

// ToggleMaskWord handles PUT /media/:id/mask/words/:index
func ToggleMaskWord(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}
		index, ok := types.ParseIntParam(c, "index")
		if !ok {
			return
		}
		var req ToggleWordRequest
		if !types.BindJSONOrError(c, &req) {
			return
		}

		mask, err := deps.MaskService.Toggle(c.Request.Context(), id, index, *req.Keep)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		types.SendSuccess(c, toMaskResponse(id, mask))
	}
}

// ResetMask handles DELETE /media/:id/mask
func ResetMask(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		if err := deps.MaskService.Reset(c.Request.Context(), id); err != nil {
			respondServiceError(c, err)
			return
		}
		types.SendSuccess(c, types.BaseResponse{Status: types.StatusOK, Message: "Mask reset"})
	}
}

// GetRanges handles GET /media/:id/ranges
// Returns the kept time ranges the current mask would export.
func GetRanges(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		glueGap := deps.GlueGap
		if raw := c.Query("glue_gap"); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				types.SendBadRequest(c, "Invalid glue_gap")
				return
			}
			glueGap = parsed
		}

		ranges, err := deps.MaskService.Ranges(c.Request.Context(), id, glueGap)
		if err != nil {
			respondServiceError(c, err)
			return
		}

		items := make([]types.RangeResponse, 0, len(ranges))
		for _, r := range ranges {
			items = append(items, types.RangeResponse{Start: r.Start, End: r.End})
		}
		types.SendSuccess(c, types.RangesResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusOK},
			MediaFileID:  id,
			GlueGap:      glueGap,
			Ranges:       items,
		})
	}
}

// ExportMedia handles POST /media/:id/export
// Queues a clip export job for the media file's current mask.
func ExportMedia(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := types.ParseUintParam(c, "id")
		if !ok {
			return
		}

		var req ExportRequest
		if c.Request.ContentLength > 0 {
			if !types.BindJSONOrError(c, &req) {
				return
			}
		}

		// Reject early so the client learns about a missing file
		// synchronously instead of from a failed job.
		if _, err := deps.MediaService.GetByID(c.Request.Context(), id); err != nil {
			respondServiceError(c, err)
			return
		}

		payload := models.JobPayload{"media_file_id": id}
		if req.GlueGap != nil {
			if *req.GlueGap < 0 {
				types.SendBadRequest(c, "glue_gap must be non-negative")
				return
			}
			payload["glue_gap"] = *req.GlueGap
		}

		job, err := deps.JobService.EnqueueUniqueJob(c.Request.Context(), models.JobTypeClipExport, payload, "media_file_id")
		if err != nil {
			log.Error().Err(err).Uint("media_file_id", id).Msg("Failed to enqueue export job")
			types.SendInternalError(c, "Failed to queue export")
			return
		}

		types.SendAccepted(c, types.JobResponse{
			BaseResponse: types.BaseResponse{Status: types.StatusQueued},
			JobID:        job.ID,
			Type:         string(job.Type),
			JobStatus:    string(job.Status),
			Progress:     job.Progress,
		})
	}
}

// respondServiceError maps service errors to HTTP responses
func respondServiceError(c *gin.Context, err error) {
	switch {
	case mediaservice.IsNotFound(err),
		transcripts.IsNotFound(err),
		errors.Is(err, masks.ErrMaskNotFound):
		types.SendNotFound(c, err.Error())
	case errors.Is(err, mediaservice.ErrInvalidInput),
		errors.Is(err, transcripts.ErrInvalidInput),
		errors.Is(err, masks.ErrInvalidInput):
		types.SendBadRequest(c, err.Error())
	default:
		log.Error().Err(err).Msg("Unhandled service error")
		types.SendInternalError(c, "Internal server error")
	}
}

func toMediaResponse(m *models.MediaFile) types.MediaResponse {
	return types.MediaResponse{
		ID:           m.ID,
		Path:         m.Path,
		Status:       string(m.Status),
		Progress:     m.Progress,
		Duration:     m.Duration,
		ErrorMessage: m.ErrorMessage,
		CreatedAt:    m.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    m.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toTranscriptResponse(t *models.Transcript) types.TranscriptResponse {
	resp := types.TranscriptResponse{
		BaseResponse: types.BaseResponse{Status: types.StatusOK},
		MediaFileID:  t.MediaFileID,
		FullText:     t.FullText,
		Language:     t.Language,
		ModelSize:    t.ModelSize,
		Method:       t.Method,
		Duration:     t.Duration,
	}
	if len(t.SpeakerNames) > 0 {
		names := map[string]string{}
		if err := json.Unmarshal(t.SpeakerNames, &names); err == nil && len(names) > 0 {
			resp.SpeakerNames = names
		}
	}
	for _, seg := range t.Segments {
		segResp := types.SegmentResponse{
			Position: seg.Position,
			Speaker:  seg.Speaker,
			Start:    seg.Start,
			End:      seg.End,
			Text:     seg.Text,
		}
		for _, w := range seg.Words {
			segResp.Words = append(segResp.Words, types.WordResponse{
				Index:   w.Index,
				Text:    w.Text,
				Start:   w.Start,
				End:     w.End,
				Score:   w.Score,
				Speaker: w.Speaker,
			})
		}
		resp.Segments = append(resp.Segments, segResp)
	}
	return resp
}

func toMaskResponse(mediaFileID uint, mask *editmask.Mask) types.MaskResponse {
	return types.MaskResponse{
		BaseResponse: types.BaseResponse{Status: types.StatusOK},
		MediaFileID:  mediaFileID,
		Keep:         mask.Keep,
		Trivial:      mask.IsTrivial(),
	}
}
