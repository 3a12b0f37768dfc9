package captions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean_ConsecutiveDuplicates(t *testing.T) {
	input := `WEBVTT
Kind: captions
Language: en

00:00:00.000 --> 00:00:01.000
hello world

00:00:01.000 --> 00:00:02.000
hello world
hello world

00:00:02.000 --> 00:00:03.000
goodbye
`
	got, err := Clean(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "hello world goodbye", got)
}

func TestClean_DropRules(t *testing.T) {
	input := strings.Join([]string{
		"WEBVTT",
		"Kind: captions",
		"Language: en",
		"00:00:00.000 --> 00:00:01.000",
		"first line",
		"00:01.500",
		"<00:00:01.000><c> rolling</c>",
		"1234 5678",
		"...",
		"second line",
		"first line",
	}, "\n")

	got, err := Clean(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "first line second line first line", got)
}

func TestClean_NormalizesBeforeComparing(t *testing.T) {
	composed := "caf\u00e9 time"
	decomposed := "cafe\u0301 time"
	input := "h1\nh2\nh3\nh4\n" + composed + "\n" + decomposed + "\n"

	got, err := Clean(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, composed, got)
}

func TestClean_ShortInput(t *testing.T) {
	got, err := Clean(strings.NewReader("WEBVTT\n\nKind: captions\n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClean_Deterministic(t *testing.T) {
	a, err := Clean(strings.NewReader(sampleVTT))
	require.NoError(t, err)
	b, err := Clean(strings.NewReader(sampleVTT))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "today we solve two sum thanks for watching", a)
}

func TestCleanFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "captions.norm.en.vtt")
	require.NoError(t, os.WriteFile(path, []byte(sampleVTT), 0o644))

	got, err := CleanFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	_, err = CleanFile(filepath.Join(t.TempDir(), "nope.vtt"))
	assert.Error(t, err)
}
