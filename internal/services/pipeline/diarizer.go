package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ezclip/ezclip-api/pkg/reconcile"
)

// PyannoteDiarizer shells out to a pyannote helper that prints speaker turns
// as JSON on stdout. The helper needs a HuggingFace token for the gated
// diarization model.
type PyannoteDiarizer struct {
	binaryPath  string
	minSpeakers int
	maxSpeakers int
	hfToken     string
	timeout     time.Duration
}

// Ensure PyannoteDiarizer implements Diarizer
var _ Diarizer = (*PyannoteDiarizer)(nil)

// diarizerOutput is the helper's stdout schema.
type diarizerOutput struct {
	Turns []struct {
		Start   float64 `json:"start"`
		End     float64 `json:"end"`
		Speaker string  `json:"speaker"`
	} `json:"turns"`
}

func NewPyannoteDiarizer(binaryPath string, minSpeakers, maxSpeakers int, hfToken string, timeout time.Duration) *PyannoteDiarizer {
	if binaryPath == "" {
		binaryPath = "ezclip-diarize"
	}
	if minSpeakers <= 0 {
		minSpeakers = 1
	}
	if maxSpeakers < minSpeakers {
		maxSpeakers = minSpeakers
	}
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &PyannoteDiarizer{
		binaryPath:  binaryPath,
		minSpeakers: minSpeakers,
		maxSpeakers: maxSpeakers,
		hfToken:     hfToken,
		timeout:     timeout,
	}
}

func (d *PyannoteDiarizer) Diarize(ctx context.Context, audioPath string) ([]reconcile.Turn, error) {
	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	args := []string{
		audioPath,
		"--min-speakers", fmt.Sprintf("%d", d.minSpeakers),
		"--max-speakers", fmt.Sprintf("%d", d.maxSpeakers),
	}

	cmd := exec.CommandContext(runCtx, d.binaryPath, args...)
	if d.hfToken != "" {
		cmd.Env = append(cmd.Environ(), "HF_TOKEN="+d.hfToken)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debug().
		Str("binary", d.binaryPath).
		Str("audio", audioPath).
		Msg("Running diarization")

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("diarization timed out after %s", d.timeout)
		}
		return nil, fmt.Errorf("diarization failed: %w (stderr: %s)", err, truncate(stderr.String(), 500))
	}

	var output diarizerOutput
	if err := json.Unmarshal(stdout.Bytes(), &output); err != nil {
		return nil, fmt.Errorf("parsing diarization output: %w", err)
	}

	turns := make([]reconcile.Turn, 0, len(output.Turns))
	for _, t := range output.Turns {
		turns = append(turns, reconcile.Turn{
			Start:   t.Start,
			End:     t.End,
			Speaker: t.Speaker,
		})
	}

	log.Info().
		Str("audio", audioPath).
		Int("turns", len(turns)).
		Msg("Diarization complete")

	return turns, nil
}

// NopDiarizer is used when diarization is disabled. It reports zero turns,
// which downstream treats as a single-speaker recording.
type NopDiarizer struct{}

var _ Diarizer = (*NopDiarizer)(nil)

func (NopDiarizer) Diarize(ctx context.Context, audioPath string) ([]reconcile.Turn, error) {
	return nil, nil
}
