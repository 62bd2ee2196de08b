package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// WhisperTranscriber shells out to the whisperx CLI, which writes a JSON
// transcript with word-level timestamps next to the audio file.
type WhisperTranscriber struct {
	binaryPath string
	modelSize  string
	language   string
	batchSize  int
	timeout    time.Duration
}

// Ensure WhisperTranscriber implements Transcriber
var _ Transcriber = (*WhisperTranscriber)(nil)

// NewWhisperTranscriber creates a transcriber for the given whisperx binary.
// An empty binaryPath resolves from PATH.
func NewWhisperTranscriber(binaryPath, modelSize, language string, batchSize int, timeout time.Duration) *WhisperTranscriber {
	if binaryPath == "" {
		binaryPath = "whisperx"
	}
	if modelSize == "" {
		modelSize = "medium"
	}
	if batchSize <= 0 {
		batchSize = 16
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &WhisperTranscriber{
		binaryPath: binaryPath,
		modelSize:  modelSize,
		language:   language,
		batchSize:  batchSize,
		timeout:    timeout,
	}
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (*TranscriptionResult, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file not accessible: %w", err)
	}

	outputDir, err := os.MkdirTemp("", "whisperx-*")
	if err != nil {
		return nil, fmt.Errorf("creating output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	args := []string{
		audioPath,
		"--model", t.modelSize,
		"--batch_size", strconv.Itoa(t.batchSize),
		"--output_format", "json",
		"--output_dir", outputDir,
	}
	if t.language != "" {
		args = append(args, "--language", t.language)
	}

	runCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, t.binaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Debug().
		Str("binary", t.binaryPath).
		Str("model", t.modelSize).
		Str("audio", audioPath).
		Msg("Running transcription")

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("transcription timed out after %s", t.timeout)
		}
		return nil, fmt.Errorf("transcription failed: %w (stderr: %s)", err, truncate(stderr.String(), 500))
	}

	result, err := t.readResult(outputDir, audioPath)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("audio", audioPath).
		Int("segments", len(result.Segments)).
		Dur("elapsed", time.Since(start)).
		Msg("Transcription complete")

	return result, nil
}

// readResult locates and parses the JSON file whisperx wrote for the audio
// file's basename.
func (t *WhisperTranscriber) readResult(outputDir, audioPath string) (*TranscriptionResult, error) {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outputDir, base+".json")

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("reading transcription output: %w", err)
	}

	var result TranscriptionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parsing transcription output: %w", err)
	}
	if len(result.Segments) == 0 {
		return nil, fmt.Errorf("transcription produced no segments")
	}

	return &result, nil
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
