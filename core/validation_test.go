package core

import (
	"errors"
	"testing"
)

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  *IngestRecord
		wantErr error
	}{
		{
			name:    "valid record",
			record:  &IngestRecord{SourceID: "abc123", Status: StatusAudioIngested},
			wantErr: nil,
		},
		{
			name:    "valid patch with no status",
			record:  &IngestRecord{SourceID: "abc123", Title: "Leetcode 1 Two Sum"},
			wantErr: nil,
		},
		{
			name:    "nil record",
			record:  nil,
			wantErr: ErrInvalidRecord,
		},
		{
			name:    "empty source id",
			record:  &IngestRecord{SourceID: "  "},
			wantErr: ErrEmptySourceID,
		},
		{
			name:    "source id with slash",
			record:  &IngestRecord{SourceID: "a/b"},
			wantErr: ErrInvalidSourceID,
		},
		{
			name:    "unknown status",
			record:  &IngestRecord{SourceID: "abc", Status: Status("done")},
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "unknown origin",
			record:  &IngestRecord{SourceID: "abc", TranscriptOrigin: Origin("human")},
			wantErr: ErrInvalidOrigin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecord(tt.record)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateRecord() error = %v, want nil", err)
				}
				return
			}

			if err == nil {
				t.Errorf("ValidateRecord() error = nil, want %v", tt.wantErr)
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRecord() error = %v, want %v", err, tt.wantErr)
			}
			if tt.record != nil && !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("ValidateRecord() error = %v, want wrapped %v", err, ErrInvalidRecord)
			}
		})
	}
}

func TestValidateSourceItem(t *testing.T) {
	if err := ValidateSourceItem(SourceItem{ID: "dQw4w9WgXcQ"}); err != nil {
		t.Errorf("ValidateSourceItem() error = %v, want nil", err)
	}
	err := ValidateSourceItem(SourceItem{ID: ".."})
	if !errors.Is(err, ErrInvalidSourceItem) || !errors.Is(err, ErrInvalidSourceID) {
		t.Errorf("ValidateSourceItem() error = %v, want %v", err, ErrInvalidSourceID)
	}
}
