// Package supabase implements storage.BlobStore on Supabase Storage.
package supabase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	storage_go "github.com/supabase-community/storage-go"
	supabase "github.com/supabase-community/supabase-go"

	"github.com/poiesic/scribe/storage"
)

// objectAPI is the subset of the storage-go client the blob store uses.
type objectAPI interface {
	UploadFile(bucketID string, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
	DownloadFile(bucketID string, filePath string, urlOptions ...storage_go.UrlOptions) ([]byte, error)
	ListFiles(bucketID string, queryPath string, options storage_go.FileSearchOptions) ([]storage_go.FileObject, error)
}

// Config holds the Supabase project coordinates.
type Config struct {
	// URL is the project URL, e.g. "https://[project-ref].supabase.co".
	URL string
	// Key is a service role key; uploads need write access to Bucket.
	Key string
	// Bucket receives every object.
	Bucket string
}

// BlobStore implements storage.BlobStore on one Supabase Storage bucket.
type BlobStore struct {
	api     objectAPI
	bucket  string
	baseURL string
	logger  *slog.Logger
}

var _ storage.BlobStore = (*BlobStore)(nil)

// NewBlobStore initializes the Supabase SDK client for cfg.
func NewBlobStore(cfg Config) (storage.BlobStore, error) {
	if cfg.URL == "" || cfg.Key == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("supabase blob store: url, key and bucket are required")
	}
	client, err := supabase.NewClient(cfg.URL, cfg.Key, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase SDK: %w", err)
	}
	return newBlobStore(client.Storage, cfg.Bucket, cfg.URL), nil
}

func newBlobStore(api objectAPI, bucket, baseURL string) *BlobStore {
	return &BlobStore{
		api:     api,
		bucket:  bucket,
		baseURL: baseURL,
		logger:  slog.Default().With("component", "supabase-blobs", "bucket", bucket),
	}
}

// Close is a no-op; the SDK holds no persistent connections.
func (s *BlobStore) Close() error {
	return nil
}

// URI returns the storage address of key inside the bucket.
func (s *BlobStore) URI(key string) string {
	return fmt.Sprintf("supabase://%s/%s", s.bucket, key)
}

// Exists lists the parent prefix and looks for the object name.
// Each role directory holds a handful of objects, so one page suffices.
func (s *BlobStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	dir, name := path.Split(key)
	objects, err := s.api.ListFiles(s.bucket, dir, storage_go.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return false, fmt.Errorf("list %s: %w", dir, err)
	}
	for _, obj := range objects {
		if obj.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// Upload sends r under key, replacing any existing object so a retry after a
// lost response succeeds.
func (s *BlobStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	if _, err := storage.ParseBlobKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	upsert := true
	_, err := s.api.UploadFile(s.bucket, key, r, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	s.logger.Debug("uploaded object", "key", key)
	return nil
}

// Download fetches the whole object and copies it to w.
func (s *BlobStore) Download(ctx context.Context, key string, w io.Writer) error {
	ok, err := s.Exists(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: blob %s", storage.ErrNotFound, key)
	}
	data, err := s.api.DownloadFile(s.bucket, key)
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	_, err = io.Copy(w, bytes.NewReader(data))
	return err
}
