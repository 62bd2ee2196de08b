package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		lines []Line
		want  string
	}{
		{
			name: "single speaker collapse",
			lines: []Line{
				{Start: 0, Speaker: "00", Text: "hello"},
				{Start: 1.5, Speaker: "00", Text: "world"},
			},
			want: "**00:** hello world",
		},
		{
			name: "speaker switch",
			lines: []Line{
				{Start: 0, Speaker: "A", Text: "foo"},
				{Start: 1, Speaker: "B", Text: "bar"},
			},
			want: "**A:** foo\n\n**B:** bar",
		},
		{
			name:  "empty input",
			lines: nil,
			want:  "",
		},
		{
			name: "out of order input is sorted by start",
			lines: []Line{
				{Start: 5, Speaker: "B", Text: "second"},
				{Start: 0, Speaker: "A", Text: "first"},
			},
			want: "**A:** first\n\n**B:** second",
		},
		{
			name: "missing speaker defaults to unknown",
			lines: []Line{
				{Start: 0, Text: "who said this"},
			},
			want: "**SPEAKER_UNKNOWN:** who said this",
		},
		{
			name: "empty text contributes nothing",
			lines: []Line{
				{Start: 0, Speaker: "A", Text: "keep"},
				{Start: 1, Speaker: "A", Text: "   "},
				{Start: 2, Speaker: "A", Text: "going"},
			},
			want: "**A:** keep going",
		},
		{
			name: "speaker with only empty text emits no paragraph",
			lines: []Line{
				{Start: 0, Speaker: "A", Text: "hello"},
				{Start: 1, Speaker: "B", Text: ""},
				{Start: 2, Speaker: "A", Text: "again"},
			},
			want: "**A:** hello\n\n**A:** again",
		},
		{
			name: "whitespace trimmed from fragments",
			lines: []Line{
				{Start: 0, Speaker: "A", Text: "  padded  "},
			},
			want: "**A:** padded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMarkdown(tt.lines))
		})
	}
}

func TestFormatMarkdownIdempotent(t *testing.T) {
	lines := []Line{
		{Start: 0, Speaker: "00", Text: "hello"},
		{Start: 1.5, Speaker: "00", Text: "world"},
		{Start: 3, Speaker: "01", Text: "reply"},
	}

	first := FormatMarkdown(lines)
	second := FormatMarkdown(lines)
	assert.Equal(t, first, second)
}

func TestFormatMarkdownDoesNotMutateInput(t *testing.T) {
	lines := []Line{
		{Start: 5, Speaker: "B", Text: "second"},
		{Start: 0, Speaker: "A", Text: "first"},
	}

	FormatMarkdown(lines)
	assert.Equal(t, 5.0, lines[0].Start, "input order must be preserved")
}

func TestFormatMarkdownWithSpeakers(t *testing.T) {
	lines := []Line{
		{Start: 0, Speaker: "00", Text: "hello"},
		{Start: 1, Speaker: "01", Text: "hi"},
	}

	names := map[string]string{"00": "Alice"}
	got := FormatMarkdownWithSpeakers(lines, names)
	assert.Equal(t, "**Alice:** hello\n\n**01:** hi", got)

	// Empty mapped names fall back to the raw label.
	got = FormatMarkdownWithSpeakers(lines, map[string]string{"00": ""})
	assert.Equal(t, "**00:** hello\n\n**01:** hi", got)
}
