package pipeline

import (
	"context"
	"fmt"

	"github.com/ezclip/ezclip-api/pkg/reconcile"
)

// OverlapAligner assigns each segment the speaker whose diarization turns
// overlap it the most. It is the primary alignment path; segments with no
// overlapping turn at all make it bail so the voting fallback can take over.
type OverlapAligner struct{}

// Ensure OverlapAligner implements reconcile.Aligner
var _ reconcile.Aligner = (*OverlapAligner)(nil)

func (OverlapAligner) Align(ctx context.Context, segments []reconcile.Segment, turns []reconcile.Turn) ([]string, error) {
	if len(turns) == 0 {
		return nil, fmt.Errorf("no diarization turns to align against")
	}

	speakers := make([]string, len(segments))
	for i, seg := range segments {
		overlap := make(map[string]float64)
		for _, turn := range turns {
			start := seg.Start
			if turn.Start > start {
				start = turn.Start
			}
			end := seg.End
			if turn.End < end {
				end = turn.End
			}
			if end > start {
				overlap[turn.Speaker] += end - start
			}
		}

		best, bestDur := "", 0.0
		for speaker, dur := range overlap {
			if dur > bestDur || (dur == bestDur && best != "" && speaker < best) {
				best, bestDur = speaker, dur
			}
		}
		if best == "" {
			return nil, fmt.Errorf("segment %d (%.2f-%.2f) overlaps no turn", i, seg.Start, seg.End)
		}
		speakers[i] = best
	}

	return speakers, nil
}
