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

import "github.com/poiesic/scribe/storage"

// Stores bundles every badger-backed store sharing one backend.
type Stores struct {
	Backend *Backend
	Records storage.MetadataStore
	Blobs   storage.BlobStore
	Chunks  storage.ChunkRepository
	Runs    storage.RunRepository
}

// NewStores opens (or creates) a database at path and builds every store on it.
// Caller must call Close when done.
func NewStores(path string) (*Stores, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newStores(backend), nil
}

// NewMemoryStores creates in-memory stores for testing.
// Caller must call Close when done.
func NewMemoryStores() (*Stores, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	return newStores(backend), nil
}

func newStores(backend *Backend) *Stores {
	return &Stores{
		Backend: backend,
		Records: NewRecordStore(backend),
		Blobs:   NewBlobStore(backend),
		Chunks:  NewChunkRepository(backend),
		Runs:    NewRunRepository(backend),
	}
}

// Close closes the shared backend.
func (s *Stores) Close() error {
	return s.Backend.Close()
}
