package storage

import (
	"context"
	"io"

	"github.com/poiesic/scribe/core"
)

// BlobStore is a content store addressed by hierarchical keys.
// Implementations must be safe for concurrent use on independent keys.
type BlobStore interface {
	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Upload stores the contents of r under key, replacing any previous object.
	// Callers that need idempotency check Exists first.
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error

	// Download writes the object stored under key to w.
	// Returns ErrNotFound if no object exists.
	Download(ctx context.Context, key string, w io.Writer) error

	// URI returns the canonical address of key for recording in metadata.
	URI(key string) string

	// Close releases resources held by the store.
	Close() error
}

// MetadataStore holds one IngestRecord per source id.
// Implementations must be safe for concurrent use on independent keys.
type MetadataStore interface {
	// Upsert merges patch into the stored record for patch.SourceID, creating it
	// if absent. Zero-valued fields in patch never overwrite stored values.
	// Returns the merged record.
	Upsert(ctx context.Context, patch *core.IngestRecord) (*core.IngestRecord, error)

	// Get retrieves the record for id.
	// Returns ErrNotFound if the record doesn't exist.
	Get(ctx context.Context, id string) (*core.IngestRecord, error)

	// List returns records with the given status ordered by source id.
	// An empty status returns every record.
	List(ctx context.Context, status core.Status) ([]*core.IngestRecord, error)

	// Close releases resources held by the store.
	Close() error
}

// ChunkRepository stores embedded transcript chunks for retrieval.
type ChunkRepository interface {
	// ReplaceChunks removes every chunk of sourceID and stores chunks in their place.
	ReplaceChunks(ctx context.Context, sourceID string, chunks ...*core.Chunk) error

	// GetChunks returns the chunks of sourceID ordered by Seq.
	GetChunks(ctx context.Context, sourceID string) ([]*core.Chunk, error)

	// FindSimilar finds chunks similar to the given vector.
	// Returns chunks with similarity >= minSimilarity, up to limit results.
	// Results are ordered by similarity score (highest first).
	FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error)

	// Close releases resources held by the repository.
	Close() error
}

// RunRepository records batch invocations.
type RunRepository interface {
	// SaveRun persists run, replacing any earlier state with the same ID.
	SaveRun(ctx context.Context, run *core.Run) error

	// LoadRun retrieves a run by ID.
	// Returns ErrNotFound if the run doesn't exist.
	LoadRun(ctx context.Context, id string) (*core.Run, error)

	// RecentRuns returns up to limit runs, most recently started first.
	RecentRuns(ctx context.Context, limit int) ([]*core.Run, error)
}
