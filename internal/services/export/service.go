package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ezclip/ezclip-api/internal/services/masks"
	"github.com/ezclip/ezclip-api/internal/services/media"
)

// Errors
var (
	ErrNothingKept = errors.New("edit mask keeps nothing")
)

// ClipRenderer abstracts the ffmpeg operations exporting needs.
// *ffmpeg.FFmpeg satisfies it.
type ClipRenderer interface {
	ExtractClip(ctx context.Context, srcPath, dstPath string, start, end float64) error
	ConcatClips(ctx context.Context, clips []string, dstPath string) error
}

// Service renders the kept portion of a media file to a new file.
type Service interface {
	// Export cuts the media file down to its kept ranges and returns the
	// output path. A trivial mask produces a plain copy.
	Export(ctx context.Context, mediaFileID uint, glueGap float64) (string, error)
}

type service struct {
	media     media.Service
	masks     masks.Service
	renderer  ClipRenderer
	outputDir string
	tempDir   string
}

// Ensure service implements Service interface
var _ Service = (*service)(nil)

func NewService(mediaService media.Service, maskService masks.Service, renderer ClipRenderer, outputDir, tempDir string) Service {
	if outputDir == "" {
		outputDir = "./exports"
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &service{
		media:     mediaService,
		masks:     maskService,
		renderer:  renderer,
		outputDir: outputDir,
		tempDir:   tempDir,
	}
}

func (s *service) Export(ctx context.Context, mediaFileID uint, glueGap float64) (string, error) {
	mediaFile, err := s.media.GetByID(ctx, mediaFileID)
	if err != nil {
		return "", err
	}

	mask, err := s.masks.Get(ctx, mediaFileID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	outputPath := s.outputPath(mediaFile.Path)

	// An untouched mask means nothing to cut.
	if mask.IsTrivial() {
		if err := copyFile(mediaFile.Path, outputPath); err != nil {
			return "", fmt.Errorf("copying media: %w", err)
		}
		log.Info().
			Uint("media_id", mediaFileID).
			Str("output", outputPath).
			Msg("Exported untouched media as copy")
		return outputPath, nil
	}

	ranges, err := s.masks.Ranges(ctx, mediaFileID, glueGap)
	if err != nil {
		return "", err
	}
	if len(ranges) == 0 {
		return "", ErrNothingKept
	}

	clips := make([]string, 0, len(ranges))
	defer func() {
		for _, clip := range clips {
			os.Remove(clip)
		}
	}()

	ext := filepath.Ext(mediaFile.Path)
	for i, r := range ranges {
		clipPath := filepath.Join(s.tempDir, fmt.Sprintf("clip-%s-%d%s", uuid.NewString(), i, ext))
		if err := s.renderer.ExtractClip(ctx, mediaFile.Path, clipPath, r.Start, r.End); err != nil {
			return "", fmt.Errorf("extracting range %d (%.2f-%.2f): %w", i, r.Start, r.End, err)
		}
		clips = append(clips, clipPath)
	}

	if err := s.renderer.ConcatClips(ctx, clips, outputPath); err != nil {
		return "", fmt.Errorf("concatenating clips: %w", err)
	}

	log.Info().
		Uint("media_id", mediaFileID).
		Int("ranges", len(ranges)).
		Str("output", outputPath).
		Msg("Exported edited media")

	return outputPath, nil
}

// outputPath derives a collision-free export filename from the source name.
func (s *service) outputPath(srcPath string) string {
	ext := filepath.Ext(srcPath)
	base := strings.TrimSuffix(filepath.Base(srcPath), ext)
	name := fmt.Sprintf("%s_edit_%s%s", base, uuid.NewString()[:8], ext)
	return filepath.Join(s.outputDir, name)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
