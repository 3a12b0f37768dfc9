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


package core

import "errors"

// Pipeline failure classes. Every error surfaced by the ingestion and
// transcript layers wraps exactly one of these.
var (
	// ErrFetchFailure indicates the source could not be downloaded or no
	// audio file was found after the fetch.
	ErrFetchFailure = errors.New("fetch failure")

	// ErrDerivationFailure indicates probing or transcoding of the source failed.
	ErrDerivationFailure = errors.New("derivation failure")

	// ErrParseAnomaly indicates a malformed caption line.
	ErrParseAnomaly = errors.New("caption parse anomaly")

	// ErrTranscriptUnresolved indicates neither captions nor ASR produced text.
	// It is a terminal outcome, not a pipeline failure.
	ErrTranscriptUnresolved = errors.New("transcript unresolved")

	// ErrStoreFailure indicates a blob or metadata store operation failed.
	ErrStoreFailure = errors.New("store failure")
)

// Domain validation errors
var (
	// ErrInvalidSourceItem indicates a SourceItem failed validation.
	ErrInvalidSourceItem = errors.New("invalid source item")

	// ErrInvalidRecord indicates an IngestRecord failed validation.
	ErrInvalidRecord = errors.New("invalid ingest record")

	// ErrEmptySourceID indicates the source id is empty.
	ErrEmptySourceID = errors.New("source id cannot be empty")

	// ErrInvalidSourceID indicates the source id contains path or key separators.
	ErrInvalidSourceID = errors.New("source id contains invalid characters")

	// ErrInvalidStatus indicates an unknown Status value.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidOrigin indicates an unknown Origin value.
	ErrInvalidOrigin = errors.New("invalid transcript origin")

	// ErrCorruptEncoding indicates a stored record could not be decoded.
	ErrCorruptEncoding = errors.New("corrupt record encoding")
)
