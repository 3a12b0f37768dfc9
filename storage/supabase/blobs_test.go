package supabase

import (
	"errors"
	"io"
	"path"
	"strings"
	"sync"
	"testing"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/poiesic/scribe/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObjects mimics bucket semantics: uploads without upsert fail on existing paths.
type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	upserts []bool
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) UploadFile(bucketID, relativePath string, data io.Reader, opts ...storage_go.FileOptions) (storage_go.FileUploadResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	upsert := len(opts) > 0 && opts[0].Upsert != nil && *opts[0].Upsert
	f.upserts = append(f.upserts, upsert)
	if _, ok := f.objects[relativePath]; ok && !upsert {
		return storage_go.FileUploadResponse{}, errors.New("The resource already exists")
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return storage_go.FileUploadResponse{}, err
	}
	f.objects[relativePath] = b
	if len(opts) > 0 && opts[0].ContentType != nil {
		f.types[relativePath] = *opts[0].ContentType
	}
	return storage_go.FileUploadResponse{}, nil
}

func (f *fakeObjects) DownloadFile(bucketID, filePath string, _ ...storage_go.UrlOptions) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[filePath]
	if !ok {
		return nil, errors.New("Object not found")
	}
	return b, nil
}

func (f *fakeObjects) ListFiles(bucketID, queryPath string, opts storage_go.FileSearchOptions) ([]storage_go.FileObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage_go.FileObject
	for p := range f.objects {
		dir, name := path.Split(p)
		if dir == queryPath {
			out = append(out, storage_go.FileObject{Name: name})
		}
	}
	return out, nil
}

func TestBlobStore_Conformance(t *testing.T) {
	storagetest.BlobStore(t, newBlobStore(newFakeObjects(), "media", "https://example.supabase.co"))
}

func TestBlobStore_NameCollisionInListing(t *testing.T) {
	fake := newFakeObjects()
	store := newBlobStore(fake, "media", "")
	fake.objects["yt/vid-a/raw/metadata.json.bak"] = []byte("x")

	ok, err := store.Exists(t.Context(), "yt/vid-a/raw/metadata.json")
	require.NoError(t, err)
	assert.False(t, ok, "prefix matches must not count as existence")
}

func TestBlobStore_UploadSetsContentType(t *testing.T) {
	fake := newFakeObjects()
	store := newBlobStore(fake, "media", "")

	require.NoError(t, store.Upload(t.Context(), "yt/vid-a/derived/audio.wav", strings.NewReader("RIFF"), "audio/wav"))
	assert.Equal(t, "audio/wav", fake.types["yt/vid-a/derived/audio.wav"])
	assert.Equal(t, "supabase://media/yt/vid-a/derived/audio.wav", store.URI("yt/vid-a/derived/audio.wav"))
}

func TestBlobStore_UploadRetrySucceeds(t *testing.T) {
	fake := newFakeObjects()
	store := newBlobStore(fake, "media", "")
	key := "yt/vid-a/derived/transcript.txt"

	require.NoError(t, store.Upload(t.Context(), key, strings.NewReader("one"), "text/plain"))
	require.NoError(t, store.Upload(t.Context(), key, strings.NewReader("two"), "text/plain"))
	assert.Equal(t, []byte("two"), fake.objects[key])
	assert.Equal(t, []bool{true, true}, fake.upserts)
}

func TestNewBlobStore_RequiresConfig(t *testing.T) {
	_, err := NewBlobStore(Config{URL: "https://example.supabase.co"})
	assert.Error(t, err)
}
