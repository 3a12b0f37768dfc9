package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/storage"
)

// ChunkRepository implements storage.ChunkRepository for BadgerDB.
type ChunkRepository struct {
	backend *Backend
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(backend *Backend) storage.ChunkRepository {
	return &ChunkRepository{backend: backend}
}

// Close is a no-op; the backend owns the database.
func (r *ChunkRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *ChunkRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// ReplaceChunks swaps the chunk set of a source in one transaction.
func (r *ChunkRepository) ReplaceChunks(ctx context.Context, sourceID string, chunks ...*core.Chunk) error {
	if err := core.ValidateSourceID(sourceID); err != nil {
		return err
	}
	return r.backend.update(func(tx *badger.Txn) error {
		stale, err := chunkKeys(tx, sourceID)
		if err != nil {
			return err
		}
		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		for _, chunk := range chunks {
			chunk.SourceID = sourceID
			if chunk.ID == 0 {
				chunk.ID = core.ChunkID(sourceID, chunk.Seq)
			}
			if err := tx.Set(makeChunkKey(sourceID, chunk.Seq), storage.MarshalChunk(chunk)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetChunks returns the chunks of a source in Seq order.
func (r *ChunkRepository) GetChunks(ctx context.Context, sourceID string) ([]*core.Chunk, error) {
	var chunks []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkSourcePrefix(sourceID)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				chunk, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				chunks = append(chunks, chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	return chunks, err
}

func chunkKeys(tx *badger.Txn, sourceID string) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeChunkSourcePrefix(sourceID)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys, nil
}
