// Package editmask tracks which words of a transcript survive editing and
// converts the surviving words into exportable time ranges.
package editmask

import (
	"encoding/json"
	"fmt"
)

// DefaultKind is the current serialization format version tag.
const DefaultKind = "mask-v1"

// DefaultGlueGap is the maximum silence (seconds) between two kept words that
// is still bridged into a single range.
const DefaultGlueGap = 0.12

// Word carries the timing information the range builder needs. Start and End
// are in seconds, Start <= End.
type Word struct {
	Start float64
	End   float64
}

// TimeRange is a merged (start, end) interval of retained audio in seconds.
// Ranges are transient: always recomputed from the mask, never persisted.
type TimeRange struct {
	Start float64
	End   float64
}

// Mask is a boolean keep/cut vector aligned 1:1, in time order, with the
// flattened word sequence of one media item. The mask is owned by a single
// controller at a time; access must be serialized by the caller.
type Mask struct {
	MediaID uint
	Keep    []bool
	Kind    string
}

// New returns an all-kept mask for a media item with totalWords words.
func New(mediaID uint, totalWords int) *Mask {
	keep := make([]bool, totalWords)
	for i := range keep {
		keep[i] = true
	}
	return &Mask{MediaID: mediaID, Keep: keep, Kind: DefaultKind}
}

// Toggle sets the keep flag for a single word. Indices outside the mask are a
// caller bug and are rejected.
func (m *Mask) Toggle(index int, keep bool) error {
	if index < 0 || index >= len(m.Keep) {
		return fmt.Errorf("word index %d out of range [0,%d)", index, len(m.Keep))
	}
	m.Keep[index] = keep
	return nil
}

// IsTrivial reports whether every word is kept, meaning no re-encode is
// needed and consumers can use the original media as-is.
func (m *Mask) IsTrivial() bool {
	for _, k := range m.Keep {
		if !k {
			return false
		}
	}
	return true
}

// BuildRanges collapses the mask into a minimal ordered list of disjoint
// (start, end) ranges covering exactly the kept words. Gaps of at most
// glueGap seconds between consecutive kept words are bridged, gap included;
// larger gaps split the range even when both sides are kept.
//
// words must be the full word sequence the mask indexes into.
func (m *Mask) BuildRanges(words []Word, glueGap float64) ([]TimeRange, error) {
	if len(words) != len(m.Keep) {
		return nil, fmt.Errorf("mask length %d does not match word count %d", len(m.Keep), len(words))
	}

	var ranges []TimeRange
	var cur *TimeRange
	for i, w := range words {
		if m.Keep[i] {
			if cur != nil && w.Start-cur.End <= glueGap {
				cur.End = w.End
				continue
			}
			if cur != nil {
				ranges = append(ranges, *cur)
			}
			cur = &TimeRange{Start: w.Start, End: w.End}
		} else if cur != nil {
			ranges = append(ranges, *cur)
			cur = nil
		}
	}
	if cur != nil {
		ranges = append(ranges, *cur)
	}
	return ranges, nil
}

// payload is the persisted wire shape. Spans are half-open [start,end) word
// index intervals listing only the cut runs, ascending.
type payload struct {
	Kind   string   `json:"kind"`
	Remove [][2]int `json:"remove"`
}

// Marshal serializes the mask as a removed-span run-length encoding,
// specialized for mostly-kept masks.
func (m *Mask) Marshal() (string, error) {
	p := payload{Kind: m.Kind, Remove: [][2]int{}}
	start := -1
	for i, k := range m.Keep {
		if !k && start < 0 {
			start = i
		}
		if k && start >= 0 {
			p.Remove = append(p.Remove, [2]int{start, i})
			start = -1
		}
	}
	if start >= 0 {
		p.Remove = append(p.Remove, [2]int{start, len(m.Keep)})
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Unmarshal reconstructs a full-length mask from its serialized form. The
// mask starts all-kept, so words added after the mask was saved (a
// re-transcription, say) default to kept. A payload without a remove key is
// treated as "no cuts" rather than an error; the kind tag is the
// forward-compatibility hook. Spans beyond totalWords are clamped.
func Unmarshal(mediaID uint, serialized string, totalWords int) (*Mask, error) {
	m := New(mediaID, totalWords)
	if serialized == "" {
		return m, nil
	}

	var p payload
	if err := json.Unmarshal([]byte(serialized), &p); err != nil {
		return nil, fmt.Errorf("decoding edit mask: %w", err)
	}
	if p.Kind != "" {
		m.Kind = p.Kind
	}
	for _, span := range p.Remove {
		start, end := span[0], span[1]
		if start < 0 {
			start = 0
		}
		if end > totalWords {
			end = totalWords
		}
		for i := start; i < end; i++ {
			m.Keep[i] = false
		}
	}
	return m, nil
}
