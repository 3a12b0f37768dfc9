// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for the embedding and speech recognition services.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "embeddinggemma", "text-embedding-3-small"
	EmbeddingModel string

	// EmbeddingToken is the API key sent to the embedding service.
	// Local servers accept any value.
	EmbeddingToken string

	// SpeechModel is the whisper model size used for ASR fallback.
	// Default: "small"
	SpeechModel string

	// SpeechLanguage is the ISO 639-1 language passed to the recognizer.
	SpeechLanguage string

	// SpeechDevice selects "cpu" or "cuda" for the recognizer.
	SpeechDevice string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithEmbeddingToken sets the embedding API key.
func WithEmbeddingToken(token string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingToken = token
	}
}

// WithSpeechModel sets the recognizer model size.
func WithSpeechModel(model string) ConfigOption {
	return func(c *Config) {
		c.SpeechModel = model
	}
}

// WithSpeechLanguage sets the recognizer language.
func WithSpeechLanguage(lang string) ConfigOption {
	return func(c *Config) {
		c.SpeechLanguage = lang
	}
}

// WithSpeechDevice sets the recognizer device.
func WithSpeechDevice(device string) ConfigOption {
	return func(c *Config) {
		c.SpeechDevice = device
	}
}

// DefaultConfig returns a Config with sensible defaults for local services.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:  "http://localhost:11434/v1",
		EmbeddingModel: "embeddinggemma",
		EmbeddingToken: "none",
		SpeechModel:    "small",
		SpeechLanguage: "en",
		SpeechDevice:   "cpu",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithEmbeddingHost("http://localhost:11434"),
//       WithSpeechModel("medium"),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the embedding host if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.EmbeddingHost != "" && !strings.HasSuffix(c.EmbeddingHost, "/v1") {
		c.EmbeddingHost = strings.TrimSuffix(c.EmbeddingHost, "/") + "/v1"
	}
	if c.EmbeddingToken == "" {
		c.EmbeddingToken = "none"
	}
	c.SpeechDevice = strings.ToLower(strings.TrimSpace(c.SpeechDevice))
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	if c.SpeechModel == "" {
		return errors.New("ai config: SpeechModel is required")
	}
	if c.SpeechDevice != "cpu" && c.SpeechDevice != "cuda" {
		return errors.New("ai config: SpeechDevice must be cpu or cuda")
	}
	return nil
}
