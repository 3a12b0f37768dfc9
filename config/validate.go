package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStores(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateStores() error {
	switch c.Metadata.Backend {
	case BackendBadger:
	case BackendSQLite, BackendPostgres:
		if c.Metadata.DSN == "" {
			return fmt.Errorf("metadata.dsn is required for the %s backend. Set SCRIBE_METADATA_DSN", c.Metadata.Backend)
		}
	case BackendMongo:
		if c.Metadata.DSN == "" {
			return errors.New("metadata.dsn (mongodb URI) is required for the mongo backend")
		}
		if c.Metadata.Database == "" {
			return errors.New("metadata.database is required for the mongo backend")
		}
	default:
		return fmt.Errorf("metadata.backend %q is not one of badger, sqlite, postgres, mongo", c.Metadata.Backend)
	}

	switch c.Blobs.Backend {
	case BackendBadger:
	case BackendSupabase:
		if c.Blobs.SupabaseURL == "" || c.Blobs.SupabaseKey == "" || c.Blobs.Bucket == "" {
			return errors.New("blobs.supabase_url, blobs.supabase_key and blobs.bucket are required for the supabase backend")
		}
	default:
		return fmt.Errorf("blobs.backend %q is not one of badger, supabase", c.Blobs.Backend)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if strings.ContainsAny(c.Pipeline.Namespace, "/\\") {
		return fmt.Errorf("pipeline.namespace %q must be a single key segment", c.Pipeline.Namespace)
	}
	if c.Pipeline.CueStartOffset < 0 {
		return errors.New("pipeline.cue_start_offset must be >= 0")
	}
	if c.Pipeline.CueMaxEnd != 0 && c.Pipeline.CueMaxEnd <= c.Pipeline.CueStartOffset {
		return errors.New("pipeline.cue_max_end must be greater than pipeline.cue_start_offset")
	}
	if c.ASR.Device != "cpu" && c.ASR.Device != "cuda" {
		return fmt.Errorf("asr.device must be cpu or cuda, got %q", c.ASR.Device)
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.Concurrency < 1 {
		return errors.New("batch.concurrency must be at least 1")
	}
	if c.Batch.MaxAttempts < 1 {
		return errors.New("batch.max_attempts must be at least 1")
	}
	if c.Batch.RetryDelaySeconds < 0 {
		return errors.New("batch.retry_delay_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	if c.Embedding.ChunkSize < 1 {
		return errors.New("embedding.chunk_size must be at least 1")
	}
	if c.Embedding.ChunkOverlap < 0 || c.Embedding.ChunkOverlap >= c.Embedding.ChunkSize {
		return errors.New("embedding.chunk_overlap must be >= 0 and smaller than embedding.chunk_size")
	}
	return nil
}
