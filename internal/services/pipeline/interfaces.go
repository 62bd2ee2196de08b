package pipeline

import (
	"context"

	"github.com/ezclip/ezclip-api/pkg/reconcile"
)

// TranscribedWord is one timestamped word from the transcriber.
type TranscribedWord struct {
	Text  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Score float64 `json:"score"`
}

// TranscribedSegment is one segment of transcriber output.
type TranscribedSegment struct {
	Start float64           `json:"start"`
	End   float64           `json:"end"`
	Text  string            `json:"text"`
	Words []TranscribedWord `json:"words"`
}

// TranscriptionResult is the transcriber's complete output for one audio file.
type TranscriptionResult struct {
	Language string               `json:"language"`
	Segments []TranscribedSegment `json:"segments"`
}

// Transcriber produces a word-timestamped transcript from an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*TranscriptionResult, error)
}

// Diarizer produces speaker turns from an audio file. Returning zero turns
// means diarization found a single speaker or is disabled.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]reconcile.Turn, error)
}
