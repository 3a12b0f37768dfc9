package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/poiesic/scribe/core"
)

// Column names.
const (
	ColumnVideoID = "video_id"
	ColumnTitle   = "title"
	ColumnURL     = "url"
)

var (
	// ErrMissingColumn is returned when the header lacks video_id.
	ErrMissingColumn = errors.New("manifest header missing video_id column")

	// ErrInvalidRow is returned for a row with an unusable video id.
	ErrInvalidRow = errors.New("invalid manifest row")
)

// Read parses a manifest. Rows with a repeated video id are dropped, keeping
// the first occurrence. Blank lines are ignored.
func Read(r io.Reader) ([]core.SourceItem, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrMissingColumn
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		columns[name] = i
	}
	idCol, ok := columns[ColumnVideoID]
	if !ok {
		return nil, ErrMissingColumn
	}
	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var items []core.SourceItem
	seen := make(map[string]bool)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if idCol >= len(row) {
			return nil, fmt.Errorf("%w: line %d: no video_id", ErrInvalidRow, line)
		}
		item := core.SourceItem{
			ID:    strings.TrimSpace(row[idCol]),
			Title: field(row, ColumnTitle),
			URL:   field(row, ColumnURL),
		}
		if item.ID == "" && item.Title == "" && item.URL == "" {
			continue
		}
		if err := core.ValidateSourceItem(item); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrInvalidRow, line, err)
		}
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		items = append(items, item)
	}
	return items, nil
}

// ReadFile parses the manifest at path.
func ReadFile(path string) ([]core.SourceItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Write emits items as a manifest. The url column is written only when some
// item carries an explicit URL.
func Write(w io.Writer, items []core.SourceItem) error {
	withURL := false
	for _, item := range items {
		if item.URL != "" {
			withURL = true
			break
		}
	}

	writer := csv.NewWriter(w)
	header := []string{ColumnVideoID, ColumnTitle}
	if withURL {
		header = append(header, ColumnURL)
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, item := range items {
		row := []string{item.ID, item.Title}
		if withURL {
			row = append(row, item.URL)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes items to path, creating parent directories.
func WriteFile(path string, items []core.SourceItem) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, items); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// IDs returns the ids of items in order.
func IDs(items []core.SourceItem) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}
