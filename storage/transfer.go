package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// UploadFileIfAbsent uploads the file at path under key unless an object is
// already stored there. It reports whether an upload happened.
func UploadFileIfAbsent(ctx context.Context, store BlobStore, key, path, contentType string) (bool, error) {
	exists, err := store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", key, err)
	}
	if exists {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := store.Upload(ctx, key, f, contentType); err != nil {
		return false, fmt.Errorf("upload %s: %w", key, err)
	}
	return true, nil
}

// UploadBytesIfAbsent is UploadFileIfAbsent for an in-memory payload.
func UploadBytesIfAbsent(ctx context.Context, store BlobStore, key string, data []byte, contentType string) (bool, error) {
	exists, err := store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check %s: %w", key, err)
	}
	if exists {
		return false, nil
	}
	if err := store.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return false, fmt.Errorf("upload %s: %w", key, err)
	}
	return true, nil
}

// DownloadFile writes the object under key to path. The file only appears
// once the download completed. Returns ErrNotFound if no object exists.
func DownloadFile(ctx context.Context, store BlobStore, key, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := store.Download(ctx, key, tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// IsNotFound reports whether err means a missing record or object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
