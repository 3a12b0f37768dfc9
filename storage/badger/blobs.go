package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/scribe/storage"
)

// DefaultPartSize bounds the size of a single stored value. Badger rejects
// transactions larger than a fraction of the memtable, so audio is split.
const DefaultPartSize = 4 << 20

// BlobStore implements storage.BlobStore on BadgerDB.
//
// An object is written as numbered parts followed by a manifest key holding
// its size, part count and content type. The manifest is written last, so
// Exists never observes a partially uploaded object.
type BlobStore struct {
	backend  *Backend
	partSize int
}

var _ storage.BlobStore = (*BlobStore)(nil)

// NewBlobStore creates a blob store on backend.
func NewBlobStore(backend *Backend) storage.BlobStore {
	return newBlobStore(backend, DefaultPartSize)
}

func newBlobStore(backend *Backend, partSize int) *BlobStore {
	if partSize <= 0 {
		partSize = DefaultPartSize
	}
	return &BlobStore{backend: backend, partSize: partSize}
}

type blobManifest struct {
	size        uint64
	parts       uint32
	contentType string
}

func (m blobManifest) marshal() []byte {
	buf := make([]byte, 12+len(m.contentType))
	binary.BigEndian.PutUint64(buf, m.size)
	binary.BigEndian.PutUint32(buf[8:], m.parts)
	copy(buf[12:], m.contentType)
	return buf
}

func unmarshalManifest(data []byte) (blobManifest, error) {
	if len(data) < 12 {
		return blobManifest{}, storage.ErrSerializationFailed
	}
	return blobManifest{
		size:        binary.BigEndian.Uint64(data),
		parts:       binary.BigEndian.Uint32(data[8:]),
		contentType: string(data[12:]),
	}, nil
}

// Close is a no-op; the backend owns the database.
func (s *BlobStore) Close() error {
	return nil
}

// URI returns a badger-scheme address for key.
func (s *BlobStore) URI(key string) string {
	return "badger://" + key
}

// Exists reports whether a complete object is stored under key.
func (s *BlobStore) Exists(ctx context.Context, key string) (bool, error) {
	var found bool
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		m, err := readManifest(tx, key)
		found = m != nil
		return err
	}, false)
	return found, err
}

// Upload streams r into parts of at most partSize bytes.
func (s *BlobStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	if _, err := storage.ParseBlobKey(key); err != nil {
		return err
	}

	var previous *blobManifest
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		previous, err = readManifest(tx, key)
		return err
	}, false)
	if err != nil {
		return err
	}

	wb := s.backend.db.NewWriteBatch()
	defer wb.Cancel()

	buf := make([]byte, s.partSize)
	var parts uint32
	var size uint64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			value := make([]byte, n)
			copy(value, buf[:n])
			if err := wb.Set(makeBlobPartKey(key, parts), value); err != nil {
				return err
			}
			parts++
			size += uint64(n)
		}
		if readErr == io.EOF || errors.Is(readErr, io.ErrUnexpectedEOF) {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read upload %s: %w", key, readErr)
		}
	}
	if err := wb.Flush(); err != nil {
		return err
	}

	manifest := blobManifest{size: size, parts: parts, contentType: contentType}
	return s.backend.update(func(tx *badger.Txn) error {
		if err := tx.Set(makeBlobKey(key), manifest.marshal()); err != nil {
			return err
		}
		// Drop trailing parts left by a larger previous object.
		if previous != nil {
			for p := parts; p < previous.parts; p++ {
				if err := tx.Delete(makeBlobPartKey(key, p)); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Download writes the object under key to w part by part.
func (s *BlobStore) Download(ctx context.Context, key string, w io.Writer) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		m, err := readManifest(tx, key)
		if err != nil {
			return err
		}
		if m == nil {
			return fmt.Errorf("%w: blob %s", storage.ErrNotFound, key)
		}
		for p := uint32(0); p < m.parts; p++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			item, err := tx.Get(makeBlobPartKey(key, p))
			if err != nil {
				return fmt.Errorf("blob %s part %d: %w", key, p, err)
			}
			err = item.Value(func(val []byte) error {
				_, err := w.Write(val)
				return err
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// readManifest returns nil, nil when no object exists under key.
func readManifest(tx *badger.Txn, key string) (*blobManifest, error) {
	item, err := tx.Get(makeBlobKey(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var m blobManifest
	err = item.Value(func(val []byte) error {
		var err error
		m, err = unmarshalManifest(val)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}
