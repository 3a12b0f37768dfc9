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


// Package storage provides the storage abstraction layer for scribe.
//
// Two kinds of store back the pipeline: a BlobStore for raw and derived
// artifacts, addressed by keys of the form
//
//	<namespace>/<source_id>/<role>/<asset_name>
//
// and a MetadataStore holding one merge-upserted IngestRecord per source.
// ChunkRepository and RunRepository hold the retrieval index and batch
// history.
//
// # Constructor Return Type Pattern
//
// Public constructors in backend packages return the interfaces defined
// here so callers never couple to a specific backend:
//
//	records, err := sqlstore.Open(ctx, "sqlite", "scribe.db") // storage.MetadataStore
//
// # Backends
//
//   - badger: embedded; implements every interface and is the default
//   - sqlstore: SQLite or Postgres metadata via database/sql
//   - mongo: MongoDB metadata
//   - supabase: Supabase Storage blobs
//
// # Thread Safety
//
// All implementations must be safe for concurrent use on independent keys.
// Two writers racing on the same key is outside the contract.
package storage
