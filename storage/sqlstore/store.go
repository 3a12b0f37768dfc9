package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/storage"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Store implements storage.MetadataStore on a SQL database.
type Store struct {
	db       *sql.DB
	postgres bool
	logger   *slog.Logger
}

var _ storage.MetadataStore = (*Store)(nil)

// Open connects to dsn with the named driver and applies the schema.
func Open(ctx context.Context, driver, dsn string) (storage.MetadataStore, error) {
	return open(ctx, driver, dsn)
}

func open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: sql driver %q", storage.ErrUnknownBackend, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}

	s := &Store{
		db:       db,
		postgres: driver == DriverPostgres,
		logger:   slog.Default().With("component", "sqlstore", "driver", driver),
	}

	if !s.postgres {
		// SQLite allows one writer; serialize through a single connection.
		db.SetMaxOpenConns(1)
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout = 5000",
		}
		for _, pragma := range pragmas {
			if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
				_ = db.Close()
				return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
			}
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}

	for _, stmt := range []string{createRecordsTable, createStatusIndex} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Upsert reads, merges and writes the record in one transaction.
func (s *Store) Upsert(ctx context.Context, patch *core.IngestRecord) (*core.IngestRecord, error) {
	if err := core.ValidateRecord(patch); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := "SELECT " + strings.Join(recordColumns, ", ") + " FROM ingest_records WHERE source_id = ?"
	if s.postgres {
		query += " FOR UPDATE"
	}
	old, err := scanRecord(tx.QueryRowContext(ctx, s.rebind(query), patch.SourceID))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load record %s: %w", patch.SourceID, err)
	}

	now := time.Now().UTC()
	merged := old.Merge(patch)
	merged.UpdatedAt = now
	if merged.IngestedAt.IsZero() {
		merged.IngestedAt = now
	}

	if _, err := tx.ExecContext(ctx, s.rebind(upsertStatement()), recordArgs(merged)...); err != nil {
		return nil, fmt.Errorf("upsert record %s: %w", patch.SourceID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return merged, nil
}

// Get retrieves the record for id.
func (s *Store) Get(ctx context.Context, id string) (*core.IngestRecord, error) {
	query := "SELECT " + strings.Join(recordColumns, ", ") + " FROM ingest_records WHERE source_id = ?"
	record, err := scanRecord(s.db.QueryRowContext(ctx, s.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: record %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return record, nil
}

// List returns records ordered by source id.
func (s *Store) List(ctx context.Context, status core.Status) ([]*core.IngestRecord, error) {
	query := "SELECT " + strings.Join(recordColumns, ", ") + " FROM ingest_records"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY source_id"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*core.IngestRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func upsertStatement() string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(recordColumns)), ", ")
	updates := make([]string, 0, len(recordColumns)-1)
	for _, col := range recordColumns[1:] {
		updates = append(updates, col+" = excluded."+col)
	}
	return "INSERT INTO ingest_records (" + strings.Join(recordColumns, ", ") + ") VALUES (" +
		placeholders + ") ON CONFLICT (source_id) DO UPDATE SET " + strings.Join(updates, ", ")
}

// rebind rewrites '?' placeholders to '$n' for Postgres.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func recordArgs(r *core.IngestRecord) []any {
	return []any{
		r.SourceID,
		r.Title,
		r.URL,
		string(r.Status),
		r.Assets.AudioWAV,
		r.Assets.MetadataJSON,
		r.Assets.FFProbeJSON,
		r.Assets.CaptionsRaw,
		r.Assets.CaptionsNormVTT,
		r.Assets.TranscriptTXT,
		r.Assets.CuesJSON,
		r.Assets.HashesJSON,
		r.Assets.ProvenanceJSON,
		r.ContentHash,
		r.CaptionsHash,
		r.HasCaptions,
		r.ProcessingVersion,
		r.Pipeline,
		r.ChannelID,
		r.ChannelTitle,
		r.DurationSec,
		string(r.TranscriptOrigin),
		r.TranscriptHash,
		r.LastRunID,
		r.LastError,
		formatTime(r.IngestedAt),
		formatTime(r.UpdatedAt),
		formatTime(r.TranscribedAt),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*core.IngestRecord, error) {
	var (
		r                                    core.IngestRecord
		status, origin                       string
		ingestedAt, updatedAt, transcribedAt string
	)
	err := row.Scan(
		&r.SourceID,
		&r.Title,
		&r.URL,
		&status,
		&r.Assets.AudioWAV,
		&r.Assets.MetadataJSON,
		&r.Assets.FFProbeJSON,
		&r.Assets.CaptionsRaw,
		&r.Assets.CaptionsNormVTT,
		&r.Assets.TranscriptTXT,
		&r.Assets.CuesJSON,
		&r.Assets.HashesJSON,
		&r.Assets.ProvenanceJSON,
		&r.ContentHash,
		&r.CaptionsHash,
		&r.HasCaptions,
		&r.ProcessingVersion,
		&r.Pipeline,
		&r.ChannelID,
		&r.ChannelTitle,
		&r.DurationSec,
		&origin,
		&r.TranscriptHash,
		&r.LastRunID,
		&r.LastError,
		&ingestedAt,
		&updatedAt,
		&transcribedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = core.Status(status)
	r.TranscriptOrigin = core.Origin(origin)
	r.IngestedAt = parseTime(ingestedAt)
	r.UpdatedAt = parseTime(updatedAt)
	r.TranscribedAt = parseTime(transcribedAt)
	return &r, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
