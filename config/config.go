package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Paths contains directory configuration.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	DataDir string `toml:"data_dir"`
}

// Pipeline contains ingestion and transcript settings.
type Pipeline struct {
	Namespace         string  `toml:"namespace"`
	ProcessingVersion string  `toml:"processing_version"`
	KeepSource        bool    `toml:"keep_source"`
	CleanScratch      bool    `toml:"clean_scratch"`
	CaptionLangs      string  `toml:"caption_langs"`
	CueStartOffset    float64 `toml:"cue_start_offset"`
	CueMaxEnd         float64 `toml:"cue_max_end"` // 0 leaves the cue window open
	StrictCaptions    bool    `toml:"strict_captions"`
}

// Tools names the external binaries.
type Tools struct {
	YTDLP   string `toml:"ytdlp"`
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Metadata selects the record store.
type Metadata struct {
	Backend    string `toml:"backend"` // badger, sqlite, postgres or mongo
	DSN        string `toml:"dsn"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Blobs selects the artifact store.
type Blobs struct {
	Backend     string `toml:"backend"` // badger or supabase
	SupabaseURL string `toml:"supabase_url"`
	SupabaseKey string `toml:"supabase_key"`
	Bucket      string `toml:"bucket"`
}

// ASR contains speech recognition settings.
type ASR struct {
	Enabled  bool   `toml:"enabled"`
	Model    string `toml:"model"`
	Language string `toml:"language"`
	Device   string `toml:"device"`
}

// Embedding contains the OpenAI-compatible embedding endpoint and chunking.
type Embedding struct {
	Host         string `toml:"host"`
	Model        string `toml:"model"`
	Token        string `toml:"token"`
	ChunkSize    int    `toml:"chunk_size"`
	ChunkOverlap int    `toml:"chunk_overlap"`
}

// Batch contains batch runner settings.
type Batch struct {
	Concurrency       int  `toml:"concurrency"`
	MaxAttempts       int  `toml:"max_attempts"`
	RetryDelaySeconds int  `toml:"retry_delay_seconds"`
	RecordFailures    bool `toml:"record_failures"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level string `toml:"level"`
}

// Config encapsulates all configuration values for scribe.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Pipeline  Pipeline  `toml:"pipeline"`
	Tools     Tools     `toml:"tools"`
	Metadata  Metadata  `toml:"metadata"`
	Blobs     Blobs     `toml:"blobs"`
	ASR       ASR       `toml:"asr"`
	Embedding Embedding `toml:"embedding"`
	Batch     Batch     `toml:"batch"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scribe/config.toml")
}

// Load locates, parses, and validates a configuration file. An empty path
// tries ./scribe.toml and then the default location; a missing file is not
// an error. It returns the config, the resolved path and whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("scribe.toml")
	if err != nil {
		return "", false, err
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	for _, candidate := range []string{projectPath, defaultPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

// Encode writes cfg as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// WriteSample writes the default configuration to path.
func WriteSample(path string) error {
	cfg := Default()
	data, err := cfg.Encode()
	if err != nil {
		return fmt.Errorf("encode sample config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// BadgerPath is the embedded database directory under DataDir.
func (c *Config) BadgerPath() string {
	return filepath.Join(c.Paths.DataDir, "scribe.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}
