package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// envStrings maps environment variables onto string fields.
func (c *Config) envStrings() map[string]*string {
	return map[string]*string{
		"SCRIBE_WORK_DIR":         &c.Paths.WorkDir,
		"SCRIBE_DATA_DIR":         &c.Paths.DataDir,
		"SCRIBE_NAMESPACE":        &c.Pipeline.Namespace,
		"PROCESSING_VERSION":      &c.Pipeline.ProcessingVersion,
		"CAPTION_LANGS":           &c.Pipeline.CaptionLangs,
		"SCRIBE_METADATA_BACKEND": &c.Metadata.Backend,
		"SCRIBE_METADATA_DSN":     &c.Metadata.DSN,
		"SCRIBE_BLOB_BACKEND":     &c.Blobs.Backend,
		"SUPABASE_URL":            &c.Blobs.SupabaseURL,
		"SUPABASE_KEY":            &c.Blobs.SupabaseKey,
		"SUPABASE_BUCKET":         &c.Blobs.Bucket,
		"EMBEDDING_HOST":          &c.Embedding.Host,
		"EMBEDDING_MODEL":         &c.Embedding.Model,
		"EMBEDDING_TOKEN":         &c.Embedding.Token,
		"WHISPER_MODEL":           &c.ASR.Model,
		"SCRIBE_LOG_LEVEL":        &c.Logging.Level,
	}
}

func (c *Config) applyEnv() error {
	for name, field := range c.envStrings() {
		if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
			*field = strings.TrimSpace(value)
		}
	}
	if value, ok := os.LookupEnv("KEEP_SOURCE"); ok && strings.TrimSpace(value) != "" {
		keep, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("KEEP_SOURCE: %w", err)
		}
		c.Pipeline.KeepSource = keep
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.WorkDir, err = expandPath(strings.TrimSpace(c.Paths.WorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}

	c.Metadata.Backend = strings.ToLower(strings.TrimSpace(c.Metadata.Backend))
	if c.Metadata.Backend == "" {
		c.Metadata.Backend = BackendBadger
	}
	if c.Metadata.Backend == BackendSQLite && c.Metadata.DSN == "" {
		c.Metadata.DSN = "file:" + filepath.Join(c.Paths.DataDir, "records.sqlite")
	}
	c.Blobs.Backend = strings.ToLower(strings.TrimSpace(c.Blobs.Backend))
	if c.Blobs.Backend == "" {
		c.Blobs.Backend = BackendBadger
	}
	c.Blobs.SupabaseURL = strings.TrimRight(strings.TrimSpace(c.Blobs.SupabaseURL), "/")

	if strings.TrimSpace(c.Pipeline.Namespace) == "" {
		c.Pipeline.Namespace = defaultNamespace
	}
	if strings.TrimSpace(c.Pipeline.CaptionLangs) == "" {
		c.Pipeline.CaptionLangs = defaultCaptionLangs
	}
	c.ASR.Device = strings.ToLower(strings.TrimSpace(c.ASR.Device))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
