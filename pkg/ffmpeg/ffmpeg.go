// Package ffmpeg wraps the ffmpeg and ffprobe binaries for audio extraction
// and trim-and-concatenate clip exports.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// FFmpeg wraps ffmpeg and ffprobe functionality
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// New creates a new FFmpeg instance
func New(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
	}
}

// ValidateBinaries checks if ffmpeg and ffprobe are available
func (f *FFmpeg) ValidateBinaries() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}
	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, f.ffprobePath)
	}
	return nil
}

// ExtractAudio demuxes a media file into a 16kHz mono PCM WAV suitable for
// the speech models. The output file is created under tempDir and the caller
// owns its cleanup.
func (f *FFmpeg) ExtractAudio(ctx context.Context, mediaPath, tempDir string) (string, error) {
	out, err := os.CreateTemp(tempDir, "ezclip_audio_*.wav")
	if err != nil {
		return "", NewProcessingError("temp_file_creation", mediaPath, err, "")
	}
	outPath := out.Name()
	out.Close()

	args := []string{
		"-i", mediaPath,
		"-vn", // Drop any video stream
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		outPath,
	}

	if err := f.run(ctx, "audio_extraction", mediaPath, args); err != nil {
		os.Remove(outPath)
		return "", err
	}
	return outPath, nil
}

// ExtractClip trims a media file to [start, end) with stream copy, no
// re-encode.
func (f *FFmpeg) ExtractClip(ctx context.Context, srcPath, dstPath string, start, end float64) error {
	if end <= start {
		return fmt.Errorf("invalid time range: start=%f, end=%f", start, end)
	}

	args := []string{
		"-ss", fmt.Sprintf("%.3f", start),
		"-to", fmt.Sprintf("%.3f", end),
		"-i", srcPath,
		"-c", "copy",
		"-y",
		dstPath,
	}
	return f.run(ctx, "clip_trim", srcPath, args)
}

// ConcatClips joins same-codec clips into one output using the concat
// demuxer. clips must share codec parameters since streams are copied.
func (f *FFmpeg) ConcatClips(ctx context.Context, clips []string, dstPath string) error {
	if len(clips) == 0 {
		return ErrNoRanges
	}

	var list strings.Builder
	for _, clip := range clips {
		abs, err := filepath.Abs(clip)
		if err != nil {
			abs = clip
		}
		fmt.Fprintf(&list, "file '%s'\n", abs)
	}

	listFile, err := os.CreateTemp(filepath.Dir(dstPath), "concat_*.txt")
	if err != nil {
		return NewProcessingError("temp_file_creation", dstPath, err, "")
	}
	listPath := listFile.Name()
	defer os.Remove(listPath)

	if _, err := listFile.WriteString(list.String()); err != nil {
		listFile.Close()
		return NewProcessingError("concat_list_write", dstPath, err, "")
	}
	listFile.Close()

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		"-y",
		dstPath,
	}
	return f.run(ctx, "clip_concat", dstPath, args)
}

// run executes ffmpeg with a timeout, surfacing stderr on failure.
func (f *FFmpeg) run(ctx context.Context, operation, file string, args []string) error {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return NewProcessingError(operation, file, ErrProcessingTimeout, stderr.String())
		}
		return NewProcessingError(operation, file, err, stderr.String())
	}
	return nil
}
