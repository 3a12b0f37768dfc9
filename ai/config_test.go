package ai

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
	assert.Equal(t, "small", cfg.SpeechModel)
	assert.Equal(t, "en", cfg.SpeechLanguage)
	assert.Equal(t, "cpu", cfg.SpeechDevice)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://custom:8080/v1"),
			WithEmbeddingModel("custom-embed"),
			WithEmbeddingToken("sk-test"),
			WithSpeechModel("medium"),
			WithSpeechLanguage("de"),
			WithSpeechDevice("cuda"),
		)

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "sk-test", cfg.EmbeddingToken)
		assert.Equal(t, "medium", cfg.SpeechModel)
		assert.Equal(t, "de", cfg.SpeechLanguage)
		assert.Equal(t, "cuda", cfg.SpeechDevice)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"adds v1 suffix", "http://localhost:11434", "http://localhost:11434/v1"},
		{"strips trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"keeps existing suffix", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"leaves empty host", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host, SpeechDevice: " CPU "}
			cfg.Normalize()
			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
			assert.Equal(t, "none", cfg.EmbeddingToken)
			assert.Equal(t, "cpu", cfg.SpeechDevice)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"missing host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost is required"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel is required"},
		{"missing speech model", func(c *Config) { c.SpeechModel = "" }, "SpeechModel is required"},
		{"bad device", func(c *Config) { c.SpeechDevice = "tpu" }, "SpeechDevice must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckAudio(t *testing.T) {
	dir := t.TempDir()

	_, err := os.Stat(filepath.Join(dir, "missing.wav"))
	require.Error(t, err)
	assert.ErrorIs(t, CheckAudio(filepath.Join(dir, "missing.wav")), ErrAudioUnusable)

	small := filepath.Join(dir, "small.wav")
	require.NoError(t, os.WriteFile(small, make([]byte, MinAudioBytes-1), 0o644))
	assert.ErrorIs(t, CheckAudio(small), ErrAudioUnusable)

	ok := filepath.Join(dir, "ok.wav")
	require.NoError(t, os.WriteFile(ok, []byte(strings.Repeat("x", MinAudioBytes)), 0o644))
	assert.NoError(t, CheckAudio(ok))
}
