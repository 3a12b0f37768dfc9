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


package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/storage"
)

// RunRepository implements storage.RunRepository for BadgerDB.
type RunRepository struct {
	backend *Backend
}

var _ storage.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new RunRepository.
func NewRunRepository(backend *Backend) *RunRepository {
	return &RunRepository{
		backend: backend,
	}
}

// SaveRun persists a run and keeps the recency index in step.
func (r *RunRepository) SaveRun(ctx context.Context, run *core.Run) error {
	return r.backend.update(func(tx *badger.Txn) error {
		key := makeRunKey(run.ID)
		old, err := readRun(tx, key)
		if err != nil {
			return err
		}
		if old != nil && !old.StartedAt.Equal(run.StartedAt) {
			if err := tx.Delete(makeRunStartedKey(old.StartedAt, old.ID)); err != nil {
				return err
			}
		}
		if err := tx.Set(key, storage.MarshalRun(run)); err != nil {
			return err
		}
		return tx.Set(makeRunStartedKey(run.StartedAt, run.ID), []byte(run.ID))
	})
}

// LoadRun retrieves a run by ID.
func (r *RunRepository) LoadRun(ctx context.Context, id string) (*core.Run, error) {
	var run *core.Run
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		run, err = readRun(tx, makeRunKey(id))
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("%w: run %s", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return run, err
}

// RecentRuns walks the recency index backwards.
func (r *RunRepository) RecentRuns(ctx context.Context, limit int) ([]*core.Run, error) {
	var runs []*core.Run
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(runStartedIndex)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		seek := append(append([]byte{}, prefix...), 0xFF)
		for iter.Seek(seek); iter.Valid(); iter.Next() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			id, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			run, err := readRun(tx, makeRunKey(string(id)))
			if err != nil {
				return err
			}
			if run != nil {
				runs = append(runs, run)
			}
		}
		return nil
	}, false)
	return runs, err
}

// readRun returns nil, nil when key is absent.
func readRun(tx *badger.Txn, key []byte) (*core.Run, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var run *core.Run
	err = item.Value(func(val []byte) error {
		var err error
		run, err = storage.UnmarshalRun(val)
		return err
	})
	return run, err
}
