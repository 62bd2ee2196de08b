// Package reconcile attaches speaker labels to transcribed segments using
// independently-produced diarization turns.
//
// Reconciliation always succeeds: when the primary aligner fails it degrades
// to a deterministic time-bucket voting scheme, and when diarization produced
// no turns at all it collapses to single-speaker mode. Transcription is never
// discarded because speaker attribution failed.
package reconcile

import (
	"context"
	"sort"
	"strings"
)

// Method identifies which reconciliation tier produced the assignment.
type Method string

const (
	// MethodAligned means the primary aligner succeeded.
	MethodAligned Method = "aligned"
	// MethodVoted means the time-bucket voting fallback was used.
	MethodVoted Method = "voted"
	// MethodSingleSpeaker means diarization produced no turns and every
	// segment was assigned the single-speaker label.
	MethodSingleSpeaker Method = "single_speaker"
)

// LabelPrefix is the diarizer label convention stripped from turn labels so
// callers receive bare identifiers and apply display formatting themselves.
const LabelPrefix = "SPEAKER_"

// Turn is one diarizer output unit: a time interval carrying an opaque
// speaker label. Turns are independent of word and segment boundaries and may
// overlap.
type Turn struct {
	Start   float64
	End     float64
	Speaker string
}

// Segment is the minimal view of a transcribed segment the reconciler needs.
type Segment struct {
	Start float64
	End   float64
}

// Result is the outcome of one reconciliation pass. Speakers is aligned by
// index with the input segments.
type Result struct {
	Method   Method
	Speakers []string
}

// Aligner is the primary, library-level alignment path. Implementations map
// each input segment to a speaker label. Any error triggers the voting
// fallback; the error type is not load-bearing.
type Aligner interface {
	Align(ctx context.Context, segments []Segment, turns []Turn) ([]string, error)
}

// Config holds the fallback calibration constants. The tick and distance
// values are inherited from observed behavior, not derived; they are
// configurable rather than hard invariants.
type Config struct {
	// TickInterval is the voting resolution in seconds.
	TickInterval float64
	// MaxTickDistance is how far (seconds) a segment tick may be from the
	// nearest stamped tick and still cast a vote. Strictly less-than.
	MaxTickDistance float64
	// UnknownLabel is assigned when a segment collects zero votes.
	UnknownLabel string
	// SingleSpeakerLabel is assigned to every segment when diarization
	// produced no turns at all.
	SingleSpeakerLabel string
}

// DefaultConfig returns the calibration constants the fallback was observed
// with: 0.5s ticks, 1.0s tolerance.
func DefaultConfig() Config {
	return Config{
		TickInterval:       0.5,
		MaxTickDistance:    1.0,
		UnknownLabel:       "SPEAKER_UNKNOWN",
		SingleSpeakerLabel: "SPEAKER_1",
	}
}

// Reconciler assigns a speaker to every segment. A nil aligner skips the
// primary path and goes straight to voting.
type Reconciler struct {
	aligner Aligner
	cfg     Config
}

// New creates a Reconciler. Zero-valued config fields fall back to defaults.
func New(aligner Aligner, cfg Config) *Reconciler {
	def := DefaultConfig()
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.MaxTickDistance <= 0 {
		cfg.MaxTickDistance = def.MaxTickDistance
	}
	if cfg.UnknownLabel == "" {
		cfg.UnknownLabel = def.UnknownLabel
	}
	if cfg.SingleSpeakerLabel == "" {
		cfg.SingleSpeakerLabel = def.SingleSpeakerLabel
	}
	return &Reconciler{aligner: aligner, cfg: cfg}
}

// Assign produces a speaker label for every segment.
//
// With no turns at all the result is single-speaker mode. Otherwise the
// primary aligner runs first; on any failure the deterministic voting
// fallback takes over. Assign never returns an error: each tier trades
// precision for availability.
func (r *Reconciler) Assign(ctx context.Context, segments []Segment, turns []Turn) Result {
	if len(turns) == 0 {
		speakers := make([]string, len(segments))
		for i := range speakers {
			speakers[i] = r.cfg.SingleSpeakerLabel
		}
		return Result{Method: MethodSingleSpeaker, Speakers: speakers}
	}

	if r.aligner != nil {
		if speakers, err := r.aligner.Align(ctx, segments, turns); err == nil && len(speakers) == len(segments) {
			for i, s := range speakers {
				speakers[i] = BareLabel(s)
			}
			return Result{Method: MethodAligned, Speakers: speakers}
		}
	}

	return Result{Method: MethodVoted, Speakers: r.vote(segments, turns)}
}

// vote implements the time-bucket fallback: stamp every tick covered by a
// turn with that turn's speaker (last write wins across overlapping turns),
// then let each segment's own ticks vote for their nearest stamp.
func (r *Reconciler) vote(segments []Segment, turns []Turn) []string {
	stamps := make(map[float64]string)
	for _, turn := range turns {
		for tick := turn.Start; tick < turn.End; tick += r.cfg.TickInterval {
			stamps[tick] = BareLabel(turn.Speaker)
		}
	}

	keys := make([]float64, 0, len(stamps))
	for k := range stamps {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	speakers := make([]string, len(segments))
	for i, seg := range segments {
		speakers[i] = r.voteSegment(seg, keys, stamps)
	}
	return speakers
}

func (r *Reconciler) voteSegment(seg Segment, keys []float64, stamps map[float64]string) string {
	counts := make(map[string]int)
	var order []string

	for tick := seg.Start; tick < seg.End; tick += r.cfg.TickInterval {
		key, ok := nearest(keys, tick)
		if !ok || abs(key-tick) >= r.cfg.MaxTickDistance {
			continue
		}
		speaker := stamps[key]
		if counts[speaker] == 0 {
			order = append(order, speaker)
		}
		counts[speaker]++
	}

	if len(order) == 0 {
		return r.cfg.UnknownLabel
	}

	// Ties break toward the speaker whose votes were counted first. This
	// non-uniqueness is accepted, not a bug.
	best := order[0]
	for _, speaker := range order[1:] {
		if counts[speaker] > counts[best] {
			best = speaker
		}
	}
	return best
}

// nearest returns the stamped tick closest to t. Equal distances resolve to
// the earlier tick, keeping the walk deterministic.
func nearest(keys []float64, t float64) (float64, bool) {
	if len(keys) == 0 {
		return 0, false
	}
	i := sort.SearchFloat64s(keys, t)
	if i == 0 {
		return keys[0], true
	}
	if i == len(keys) {
		return keys[len(keys)-1], true
	}
	if abs(keys[i-1]-t) <= abs(keys[i]-t) {
		return keys[i-1], true
	}
	return keys[i], true
}

// BareLabel strips the diarizer's SPEAKER_ prefix convention from a label,
// leaving sentinel labels that carry no suffix untouched.
func BareLabel(label string) string {
	bare := strings.TrimPrefix(label, LabelPrefix)
	if bare == "" {
		return label
	}
	return bare
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
