package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/storage"
)

// RecordStore implements storage.MetadataStore for BadgerDB.
type RecordStore struct {
	backend *Backend
}

var _ storage.MetadataStore = (*RecordStore)(nil)

// NewRecordStore creates a metadata store on backend.
func NewRecordStore(backend *Backend) storage.MetadataStore {
	return &RecordStore{backend: backend}
}

// Close is a no-op; the backend owns the database.
func (r *RecordStore) Close() error {
	return nil
}

// Upsert merges patch into the stored record inside a single transaction.
// Badger detects conflicting concurrent writers on the same key at commit.
func (r *RecordStore) Upsert(ctx context.Context, patch *core.IngestRecord) (*core.IngestRecord, error) {
	if err := core.ValidateRecord(patch); err != nil {
		return nil, err
	}

	var merged *core.IngestRecord
	err := r.backend.update(func(tx *badger.Txn) error {
		key := makeRecordKey(patch.SourceID)
		old, err := readRecord(tx, key)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		merged = old.Merge(patch)
		merged.UpdatedAt = now
		if merged.IngestedAt.IsZero() {
			merged.IngestedAt = now
		}

		return tx.Set(key, storage.MarshalRecord(merged))
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// Get retrieves the record for id.
func (r *RecordStore) Get(ctx context.Context, id string) (*core.IngestRecord, error) {
	var result *core.IngestRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeRecordKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: record %s", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// List returns records in key order, which is source id order.
func (r *RecordStore) List(ctx context.Context, status core.Status) ([]*core.IngestRecord, error) {
	var records []*core.IngestRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.IngestRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if status == "" || record.Status == status {
				records = append(records, record)
			}
		}
		return nil
	}, false)
	return records, err
}

// readRecord returns nil, nil when key is absent.
func readRecord(tx *badger.Txn, key []byte) (*core.IngestRecord, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record *core.IngestRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalRecord(val)
		return err
	})
	return record, err
}
