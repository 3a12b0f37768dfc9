package captions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/scribe/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVTT = `WEBVTT
Kind: captions
Language: en

00:00:00.000 --> 00:00:05.000 align:start position:0%
intro <c>music</c>

00:00:10.000 --> 00:00:20.000
today we solve
two sum

00:00:25.000 --> 00:00:40.000
thanks for watching
`

func mustParser(t *testing.T, opts ...Option) *Parser {
	t.Helper()
	p, err := NewParser(opts...)
	require.NoError(t, err)
	return p
}

func TestParse_Basic(t *testing.T) {
	result, err := mustParser(t).Parse(strings.NewReader(sampleVTT))
	require.NoError(t, err)
	require.Len(t, result.Cues, 3)

	assert.Equal(t, core.Cue{Seq: 1, ID: "utt_000001", Text: "intro music", Start: 0, End: 5}, result.Cues[0])
	assert.Equal(t, "today we solve two sum", result.Cues[1].Text)
	assert.Equal(t, 10.0, result.Cues[1].Start)
	assert.Equal(t, 20.0, result.Cues[1].End)
	assert.Equal(t, "thanks for watching", result.Cues[2].Text)
	assert.Empty(t, result.Anomalies)
	assert.Equal(t, "intro music today we solve two sum thanks for watching", result.Text())
}

func TestParse_Window(t *testing.T) {
	result, err := mustParser(t, WithWindow(8, 30)).Parse(strings.NewReader(sampleVTT))
	require.NoError(t, err)
	require.Len(t, result.Cues, 1)
	assert.Equal(t, 10.0, result.Cues[0].Start)
	assert.Equal(t, 20.0, result.Cues[0].End)
	assert.Equal(t, "utt_000001", result.Cues[0].ID)
}

func TestParse_WindowBounds(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		start, end float64
		kept       bool
	}{
		{"ends at offset", []Option{WithStartOffset(5)}, 0, 5, false},
		{"ends after offset", []Option{WithStartOffset(5)}, 4, 6, true},
		{"starts at max end", []Option{WithMaxEnd(30)}, 30, 35, false},
		{"straddles max end", []Option{WithMaxEnd(30)}, 25, 31, false},
		{"ends at max end", []Option{WithMaxEnd(30)}, 25, 30, true},
		{"open window", nil, 100, 200, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kept, mustParser(t, tt.opts...).inWindow(tt.start, tt.end))
		})
	}
}

func TestParse_IDsContiguousAfterDrops(t *testing.T) {
	input := `WEBVTT

00:00:01.000 --> 00:00:02.000
<c></c>

00:00:03.000 --> 00:00:04.000
first

00:00:05.000 --> 00:00:06.000

00:00:07.000 --> 00:00:08.000
second

00:00:50.000 --> 00:00:55.000
late

00:00:09.000 --> 00:00:10.000
third
`
	result, err := mustParser(t, WithMaxEnd(20)).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Cues, 3)
	for i, cue := range result.Cues {
		assert.Equal(t, i+1, cue.Seq)
		assert.Equal(t, core.CueID(i+1), cue.ID)
	}
	assert.Equal(t, []string{"first", "second", "third"}, []string{result.Cues[0].Text, result.Cues[1].Text, result.Cues[2].Text})
}

func TestParse_NoCueDedup(t *testing.T) {
	input := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nhello\n\n00:00:02.000 --> 00:00:03.000\nhello\n"
	result, err := mustParser(t).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Cues, 2)
	assert.Equal(t, result.Cues[0].Text, result.Cues[1].Text)
}

func TestParse_HeaderAndReservedLinesDiscarded(t *testing.T) {
	input := "\ufeffWEBVTT\nKind: captions\nLanguage: en\n\nNOTE produced by a tool\n\n" +
		"1:02:03.500 --> 1:02:04.000\nSTYLE ignored\nspoken words\n"
	result, err := mustParser(t).Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Cues, 1)
	assert.Equal(t, "spoken words", result.Cues[0].Text)
	assert.InDelta(t, 3723.5, result.Cues[0].Start, 1e-9)
}

func TestParse_MalformedTimestamp(t *testing.T) {
	input := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nfirst\n00:03.000 --> 00:04.000\nsecond\n"

	t.Run("tolerant keeps line as text", func(t *testing.T) {
		result, err := mustParser(t).Parse(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, result.Cues, 1)
		assert.Equal(t, "first 00:03.000 --> 00:04.000 second", result.Cues[0].Text)
		require.Len(t, result.Anomalies, 1)
		assert.Equal(t, 5, result.Anomalies[0].Line)
	})

	t.Run("strict fails with location", func(t *testing.T) {
		_, err := mustParser(t, WithStrict()).Parse(strings.NewReader(input))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrParseAnomaly)
		assert.Contains(t, err.Error(), "captions:5")
	})
}

func TestParse_InvertedRange(t *testing.T) {
	input := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000\nfirst\n\n00:00:10.000 --> 00:00:05.000\nbackwards\n\n00:00:12.000 --> 00:00:13.000\nsecond\n"

	t.Run("tolerant drops cue without consuming an id", func(t *testing.T) {
		result, err := mustParser(t).Parse(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, result.Cues, 2)
		assert.Equal(t, "first", result.Cues[0].Text)
		assert.Equal(t, "second", result.Cues[1].Text)
		assert.Equal(t, core.CueID(2), result.Cues[1].ID)
		for _, cue := range result.Cues {
			assert.LessOrEqual(t, cue.Start, cue.End)
		}
		require.Len(t, result.Anomalies, 1)
		assert.Equal(t, 6, result.Anomalies[0].Line)
	})

	t.Run("strict fails with location", func(t *testing.T) {
		_, err := mustParser(t, WithStrict()).Parse(strings.NewReader(input))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrParseAnomaly)
		assert.Contains(t, err.Error(), "captions:6")
	})
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source.en.vtt")
	require.NoError(t, os.WriteFile(path, []byte(sampleVTT), 0o644))

	result, err := mustParser(t).ParseFile(path)
	require.NoError(t, err)
	assert.Len(t, result.Cues, 3)

	_, err = mustParser(t).ParseFile(filepath.Join(t.TempDir(), "missing.vtt"))
	assert.Error(t, err)
}

func TestNewParser_InvalidWindow(t *testing.T) {
	_, err := NewParser(WithStartOffset(-1))
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = NewParser(WithWindow(30, 10))
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = NewParser(WithWindow(10, 0))
	assert.NoError(t, err)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "awaiting_cue", AwaitingCue.String())
	assert.Equal(t, "buffering_text", BufferingText.String())
}
