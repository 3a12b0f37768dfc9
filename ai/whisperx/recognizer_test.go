package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/scribe/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWAV(t *testing.T, size int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	return path
}

func TestTranscribe(t *testing.T) {
	audio := writeWAV(t, 4096)
	r := NewRecognizer(ai.DefaultConfig())

	var gotName string
	var gotArgs []string
	r.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotName, gotArgs = name, args
		out := filepath.Join(filepath.Dir(audio), OutputDirName, "audio.json")
		return os.WriteFile(out, []byte(`{"segments":[{"text":" hello there "},{"text":""},{"text":"general kenobi"}]}`), 0o644)
	})

	text, err := r.Transcribe(context.Background(), audio)
	require.NoError(t, err)
	assert.Equal(t, "hello there general kenobi", text)

	assert.Equal(t, UVXCommand, gotName)
	assert.Equal(t, []string{
		"whisperx", audio,
		"--model", "small",
		"--output_dir", filepath.Join(filepath.Dir(audio), OutputDirName),
		"--output_format", "json",
		"--device", "cpu",
		"--compute_type", "int8",
		"--language", "en",
	}, gotArgs)
	assert.NoDirExists(t, filepath.Join(filepath.Dir(audio), OutputDirName))
	assert.FileExists(t, audio)
}

func TestTranscribe_SmallAudio(t *testing.T) {
	audio := writeWAV(t, 100)
	r := NewRecognizer(nil)
	called := false
	r.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		called = true
		return nil
	})

	_, err := r.Transcribe(context.Background(), audio)
	assert.ErrorIs(t, err, ai.ErrAudioUnusable)
	assert.False(t, called)
}

func TestTranscribe_RunnerFailure(t *testing.T) {
	audio := writeWAV(t, 4096)
	r := NewRecognizer(ai.NewConfig(ai.WithSpeechDevice("cuda")))
	boom := errors.New("exit status 2")
	r.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		assert.NotContains(t, args, "--compute_type")
		return boom
	})

	_, err := r.Transcribe(context.Background(), audio)
	assert.ErrorIs(t, err, ai.ErrRecognitionFailed)
	assert.ErrorIs(t, err, boom)
	assert.NoDirExists(t, filepath.Join(filepath.Dir(audio), OutputDirName))
}

func TestTranscribe_MissingOutput(t *testing.T) {
	audio := writeWAV(t, 4096)
	r := NewRecognizer(nil)
	r.WithCommandRunner(func(ctx context.Context, name string, args ...string) error { return nil })

	_, err := r.Transcribe(context.Background(), audio)
	assert.ErrorIs(t, err, ai.ErrRecognitionFailed)
}
