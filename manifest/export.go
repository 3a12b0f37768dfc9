package manifest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/storage"
)

// ExportHeader is the column layout of a transcript export.
var ExportHeader = []string{"video_id", "title", "problem_id", "transcript_origin", "transcript"}

var problemPattern = regexp.MustCompile(`(?i)leetcode\s+(\d+)`)

// ProblemID extracts the problem number from titles like "Leetcode 123 - Two Sum".
// It returns "" when the title names no problem.
func ProblemID(title string) string {
	m := problemPattern.FindStringSubmatch(title)
	if m == nil {
		return ""
	}
	return m[1]
}

// Export writes one row per stored record, ordered by source id. Records
// without a transcript get empty origin and transcript cells.
func Export(ctx context.Context, w io.Writer, records storage.MetadataStore, blobs storage.BlobStore, namespace string) (int, error) {
	if namespace == "" {
		namespace = storage.DefaultNamespace
	}
	list, err := records.List(ctx, "")
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(ExportHeader); err != nil {
		return 0, err
	}
	for _, record := range list {
		var origin, text string
		if record.Status == core.StatusTranscribed {
			var buf bytes.Buffer
			key := storage.BlobKey(namespace, record.SourceID, storage.RoleDerived, storage.AssetTranscriptTXT)
			err := blobs.Download(ctx, key, &buf)
			switch {
			case err == nil:
				origin, text = string(record.TranscriptOrigin), buf.String()
			case errors.Is(err, storage.ErrNotFound):
			default:
				return 0, fmt.Errorf("%w: %s: %w", core.ErrStoreFailure, key, err)
			}
		}
		row := []string{record.SourceID, record.Title, ProblemID(record.Title), origin, text}
		if err := writer.Write(row); err != nil {
			return 0, err
		}
	}
	writer.Flush()
	return len(list), writer.Error()
}
