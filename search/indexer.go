package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/scribe/ai"
	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/storage"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the number of characters shared by adjacent chunks.
	DefaultChunkOverlap = 150
)

// Indexer chunks and embeds stored transcripts.
type Indexer struct {
	blobs        storage.BlobStore
	records      storage.MetadataStore
	chunks       storage.ChunkRepository
	embedder     ai.Embedder
	chunkSize    int
	chunkOverlap int
	namespace    string
	splitter     textsplitter.TextSplitter
	logger       *slog.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer) error

// WithChunking sets the chunk size and overlap in characters.
func WithChunking(size, overlap int) IndexerOption {
	return func(ix *Indexer) error {
		if size < 1 || overlap < 0 || overlap >= size {
			return fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidChunking, size, overlap)
		}
		ix.chunkSize = size
		ix.chunkOverlap = overlap
		return nil
	}
}

// WithIndexNamespace sets the blob key namespace transcripts are read from.
func WithIndexNamespace(namespace string) IndexerOption {
	return func(ix *Indexer) error {
		if namespace != "" {
			ix.namespace = namespace
		}
		return nil
	}
}

// WithIndexLogger sets a custom logger.
// Default is slog.Default().
func WithIndexLogger(logger *slog.Logger) IndexerOption {
	return func(ix *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

// NewIndexer creates an indexer reading transcripts from blobs and records.
func NewIndexer(
	blobs storage.BlobStore,
	records storage.MetadataStore,
	chunks storage.ChunkRepository,
	embedder ai.Embedder,
	opts ...IndexerOption,
) (*Indexer, error) {
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}
	if records == nil {
		return nil, ErrMetadataStoreRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	ix := &Indexer{
		blobs:        blobs,
		records:      records,
		chunks:       chunks,
		embedder:     embedder,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
		namespace:    storage.DefaultNamespace,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	ix.splitter = textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(ix.chunkSize),
		textsplitter.WithChunkOverlap(ix.chunkOverlap),
	)
	ix.logger = ix.logger.With("component", "indexer")
	return ix, nil
}

// Split breaks text into the chunks Index would store for it.
func (ix *Indexer) Split(text string) ([]string, error) {
	parts, err := ix.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

// Index replaces the chunk set of sourceID with freshly embedded chunks of its
// stored transcript and returns the number of chunks written.
func (ix *Indexer) Index(ctx context.Context, sourceID string) (int, error) {
	record, err := ix.records.Get(ctx, sourceID)
	if err != nil {
		return 0, err
	}
	if record.Status != core.StatusTranscribed {
		return 0, fmt.Errorf("%w: %s", ErrNotTranscribed, sourceID)
	}

	key := storage.BlobKey(ix.namespace, sourceID, storage.RoleDerived, storage.AssetTranscriptTXT)
	var buf bytes.Buffer
	if err := ix.blobs.Download(ctx, key, &buf); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, fmt.Errorf("%w: %s", ErrNotTranscribed, sourceID)
		}
		return 0, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
	}

	texts, err := ix.Split(buf.String())
	if err != nil {
		return 0, fmt.Errorf("split transcript: %w", err)
	}

	var vectors [][]float32
	if len(texts) > 0 {
		vectors, err = ix.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			ix.logger.Error("error generating embeddings", "source_id", sourceID, "err", err)
			return 0, err
		}
		if len(vectors) != len(texts) {
			return 0, fmt.Errorf("embedding result mismatch. expected %d, received %d", len(texts), len(vectors))
		}
	}

	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		seq := i + 1
		chunks[i] = &core.Chunk{
			ID:       core.ChunkID(sourceID, seq),
			SourceID: sourceID,
			Seq:      seq,
			Text:     text,
			Vector:   NormalizeVector(vectors[i]),
		}
	}
	if err := ix.chunks.ReplaceChunks(ctx, sourceID, chunks...); err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
	}
	ix.logger.Info("transcript indexed", "source_id", sourceID, "chunks", len(chunks))
	return len(chunks), nil
}

// IndexAll indexes every transcribed record. Failures are logged, collected
// and returned joined; they do not stop the pass.
func (ix *Indexer) IndexAll(ctx context.Context) (int, error) {
	records, err := ix.records.List(ctx, core.StatusTranscribed)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
	}
	var (
		indexed int
		errs    []error
	)
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if _, err := ix.Index(ctx, record.SourceID); err != nil {
			ix.logger.Warn("index failed", "source_id", record.SourceID, "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", record.SourceID, err))
			continue
		}
		indexed++
	}
	return indexed, errors.Join(errs...)
}
