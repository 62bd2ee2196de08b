// Package transcript turns flat, time-ordered speaker-labeled segments into
// human-readable grouped text.
package transcript

import (
	"sort"
	"strings"
)

// UnknownSpeaker is the label used when a segment carries no speaker.
const UnknownSpeaker = "SPEAKER_UNKNOWN"

// Line is one formatted input unit: a segment reduced to the fields the
// formatter needs.
type Line struct {
	Start   float64
	Speaker string
	Text    string
}

// FormatMarkdown renders lines as speaker-attributed Markdown paragraphs.
//
// Lines are stably sorted by start time, then consecutive lines from the same
// speaker are merged into one paragraph of the form "**<speaker>:** <text>",
// paragraphs separated by a blank line. Empty-text lines contribute nothing
// but do not force a paragraph break on their own. Empty input yields "".
//
// The function is pure and idempotent; the app regenerates the formatted
// text on every load after edits.
func FormatMarkdown(lines []Line) string {
	return FormatMarkdownWithSpeakers(lines, nil)
}

// FormatMarkdownWithSpeakers is FormatMarkdown with a display rename overlay:
// speakers present in the map are shown under their mapped name.
func FormatMarkdownWithSpeakers(lines []Line, speakerNames map[string]string) string {
	if len(lines) == 0 {
		return ""
	}

	sorted := make([]Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var paragraphs []string
	var buffer []string
	currentSpeaker := ""
	haveSpeaker := false

	flush := func() {
		if len(buffer) == 0 {
			return
		}
		text := strings.TrimSpace(strings.Join(buffer, " "))
		paragraphs = append(paragraphs, "**"+displayName(currentSpeaker, speakerNames)+":** "+text)
		buffer = buffer[:0]
	}

	for _, line := range sorted {
		speaker := line.Speaker
		if speaker == "" {
			speaker = UnknownSpeaker
		}
		if !haveSpeaker || speaker != currentSpeaker {
			flush()
			currentSpeaker = speaker
			haveSpeaker = true
		}
		if text := strings.TrimSpace(line.Text); text != "" {
			buffer = append(buffer, text)
		}
	}
	flush()

	return strings.Join(paragraphs, "\n\n")
}

func displayName(speaker string, names map[string]string) string {
	if name, ok := names[speaker]; ok && name != "" {
		return name
	}
	return speaker
}
