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

import (
	"fmt"
	"strings"
)

// ValidateSourceItem checks that an item can be used to build blob keys and scratch paths.
func ValidateSourceItem(item SourceItem) error {
	if err := ValidateSourceID(item.ID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSourceItem, err)
	}
	return nil
}

// ValidateSourceID rejects empty ids and ids that would escape a key segment.
func ValidateSourceID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptySourceID
	}
	if strings.ContainsAny(id, "/\\") || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSourceID, id)
	}
	return nil
}

// ValidateRecord checks a record patch before it is written.
func ValidateRecord(record *IngestRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if err := ValidateSourceID(record.SourceID); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	if err := ValidateStatus(record.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	if err := ValidateOrigin(record.TranscriptOrigin); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	return nil
}

// ValidateStatus accepts the known statuses and the empty "unchanged" value.
func ValidateStatus(status Status) error {
	switch status {
	case "", StatusAudioIngested, StatusTranscribed, StatusFailed:
		return nil
	}
	return fmt.Errorf("%w: value %q", ErrInvalidStatus, status)
}

// ValidateOrigin accepts the known origins and the empty "unchanged" value.
func ValidateOrigin(origin Origin) error {
	switch origin {
	case "", OriginNone, OriginCaption, OriginASR:
		return nil
	}
	return fmt.Errorf("%w: value %q", ErrInvalidOrigin, origin)
}
