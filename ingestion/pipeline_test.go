package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/media"
	"github.com/poiesic/scribe/storage"
	"github.com/poiesic/scribe/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVTT = `WEBVTT
Kind: captions
Language: en

00:00:01.000 --> 00:00:03.000
hello and welcome
`

// testFetcher writes a canned yt-dlp download into the scratch directory.
type testFetcher struct {
	mu       sync.Mutex
	calls    int
	captions map[string]string
	noAudio  bool
	err      error
}

func (f *testFetcher) Fetch(ctx context.Context, item core.SourceItem, dir string) (*core.FetchedAssets, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	files := map[string]string{
		media.InfoName: `{"channel_id":"UC1","channel":"Algo Talk","duration":61,"http_headers":{"ETag":"abc"}}`,
	}
	if !f.noAudio {
		files["source.m4a"] = "m4a-bytes"
	}
	for name, body := range f.captions {
		files[name] = body
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			return nil, err
		}
	}
	return media.ScanDir(dir)
}

// testTranscoder copies the source into the WAV and returns a fixed probe.
type testTranscoder struct {
	probeErr error
	wavErr   error
}

func (t *testTranscoder) Probe(ctx context.Context, src string) ([]byte, error) {
	if t.probeErr != nil {
		return nil, t.probeErr
	}
	return []byte(`{"format":{"duration":"61.5"}}`), nil
}

func (t *testTranscoder) ToWAV(ctx context.Context, src, dest string) error {
	if t.wavErr != nil {
		return t.wavErr
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, append([]byte("RIFF"), data...), 0o644)
}

// testTranscriber records AttachDir calls.
type testTranscriber struct {
	err   error
	calls []string
}

func (t *testTranscriber) AttachDir(ctx context.Context, sourceID, dir string) (*core.Transcript, error) {
	t.calls = append(t.calls, dir)
	if t.err != nil {
		return nil, t.err
	}
	return &core.Transcript{SourceID: sourceID, Text: "hello and welcome", Origin: core.OriginCaption}, nil
}

func newTestStores(t *testing.T) *badger.Stores {
	t.Helper()
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })
	return stores
}

func newTestPipeline(t *testing.T, stores *badger.Stores, fetcher media.Fetcher, opts ...Option) (*Pipeline, string) {
	t.Helper()
	workDir := t.TempDir()
	opts = append([]Option{WithWorkDir(workDir)}, opts...)
	p, err := NewPipeline(fetcher, &testTranscoder{}, stores.Blobs, stores.Records, opts...)
	require.NoError(t, err)
	return p, workDir
}

var testItem = core.SourceItem{ID: "abc123", Title: "Leetcode 1 Two Sum"}

func TestNewPipeline(t *testing.T) {
	stores := newTestStores(t)
	fetcher := &testFetcher{}
	transcoder := &testTranscoder{}

	_, err := NewPipeline(nil, transcoder, stores.Blobs, stores.Records)
	assert.Equal(t, ErrFetcherRequired, err)

	_, err = NewPipeline(fetcher, nil, stores.Blobs, stores.Records)
	assert.Equal(t, ErrTranscoderRequired, err)

	_, err = NewPipeline(fetcher, transcoder, nil, stores.Records)
	assert.Equal(t, ErrBlobStoreRequired, err)

	_, err = NewPipeline(fetcher, transcoder, stores.Blobs, nil)
	assert.Equal(t, ErrMetadataStoreRequired, err)

	p, err := NewPipeline(fetcher, transcoder, stores.Blobs, stores.Records, WithLogger(nil))
	require.NoError(t, err)
	assert.Equal(t, DefaultWorkDir, p.workDir)
	assert.Equal(t, DefaultProcessingVersion, p.processingVersion)
	assert.Equal(t, storage.DefaultNamespace, p.namespace)
}

func TestIngest_UploadsAndRecords(t *testing.T) {
	stores := newTestStores(t)
	fetcher := &testFetcher{captions: map[string]string{
		"source.en.vtt":      testVTT,
		"source.en-orig.vtt": testVTT,
	}}
	p, workDir := newTestPipeline(t, stores, fetcher, WithProcessingVersion("v9"))
	ctx := context.Background()

	result, err := p.Ingest(ctx, testItem, &IngestOptions{RunID: "run-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"yt/abc123/raw/metadata.json",
		"yt/abc123/raw/ffprobe.json",
		"yt/abc123/raw/source.en.vtt",
		"yt/abc123/derived/audio.wav",
		"yt/abc123/derived/captions.norm.en.vtt",
		"yt/abc123/derived/hashes.json",
		"yt/abc123/raw/provenance.json",
	}, result.Uploaded)
	assert.Empty(t, result.Skipped)

	record := result.Record
	assert.Equal(t, core.StatusAudioIngested, record.Status)
	assert.Equal(t, "Leetcode 1 Two Sum", record.Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", record.URL)
	assert.Equal(t, core.PipelineName, record.Pipeline)
	assert.Equal(t, "v9", record.ProcessingVersion)
	assert.Equal(t, "UC1", record.ChannelID)
	assert.Equal(t, "Algo Talk", record.ChannelTitle)
	assert.Equal(t, float64(61), record.DurationSec)
	assert.Equal(t, "run-1", record.LastRunID)
	assert.True(t, record.HasCaptions)
	assert.False(t, record.IngestedAt.IsZero())
	assert.Equal(t, core.HashBytes([]byte("RIFFm4a-bytes")), record.ContentHash)
	assert.Equal(t, core.HashBytes([]byte(testVTT)), record.CaptionsHash)
	assert.Equal(t, stores.Blobs.URI("yt/abc123/derived/audio.wav"), record.Assets.AudioWAV)
	assert.Equal(t, stores.Blobs.URI("yt/abc123/raw/source.en.vtt"), record.Assets.CaptionsRaw)
	assert.Empty(t, record.Assets.TranscriptTXT)

	var buf bytes.Buffer
	require.NoError(t, stores.Blobs.Download(ctx, "yt/abc123/derived/hashes.json", &buf))
	var hashes hashesDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &hashes))
	assert.Equal(t, HashAlgorithm, hashes.Algorithm)
	assert.Equal(t, record.ContentHash, hashes.ContentHash)
	assert.Equal(t, record.ContentHash, hashes.AudioWAV)

	buf.Reset()
	require.NoError(t, stores.Blobs.Download(ctx, "yt/abc123/raw/provenance.json", &buf))
	var provenance provenanceDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &provenance))
	assert.Equal(t, "abc", provenance.ETag)
	assert.Equal(t, "v9", provenance.ProcessingVersion)

	dir := filepath.Join(workDir, testItem.ID)
	assert.NoFileExists(t, filepath.Join(dir, "source.m4a"))
	assert.FileExists(t, filepath.Join(dir, storage.AssetAudioWAV))
	assert.FileExists(t, filepath.Join(dir, storage.AssetCaptionsNormVTT))
}

func TestIngest_Idempotent(t *testing.T) {
	stores := newTestStores(t)
	fetcher := &testFetcher{captions: map[string]string{"source.en.vtt": testVTT}}
	p, _ := newTestPipeline(t, stores, fetcher)
	ctx := context.Background()

	first, err := p.Ingest(ctx, testItem, nil)
	require.NoError(t, err)
	require.NotEmpty(t, first.Uploaded)

	second, err := p.Ingest(ctx, testItem, &IngestOptions{RunID: "run-2"})
	require.NoError(t, err)
	assert.Empty(t, second.Uploaded)
	assert.ElementsMatch(t, first.Uploaded, second.Skipped)

	assert.Equal(t, first.Record.ContentHash, second.Record.ContentHash)
	assert.True(t, first.Record.IngestedAt.Equal(second.Record.IngestedAt))
	assert.Equal(t, first.Record.Assets, second.Record.Assets)
	assert.Equal(t, "run-2", second.Record.LastRunID)
	assert.Equal(t, 2, fetcher.calls)
}

func TestIngest_DoesNotRegressTranscribedStatus(t *testing.T) {
	stores := newTestStores(t)
	p, _ := newTestPipeline(t, stores, &testFetcher{})
	ctx := context.Background()

	_, err := stores.Records.Upsert(ctx, &core.IngestRecord{SourceID: testItem.ID, Status: core.StatusTranscribed, TranscriptOrigin: core.OriginASR})
	require.NoError(t, err)

	result, err := p.Ingest(ctx, testItem, nil)
	require.NoError(t, err)
	assert.Equal(t, core.StatusTranscribed, result.Record.Status)
	assert.Equal(t, core.OriginASR, result.Record.TranscriptOrigin)
	assert.False(t, result.Record.HasCaptions)
}

func TestIngest_SuccessClearsLastError(t *testing.T) {
	for _, status := range []core.Status{core.StatusTranscribed, core.StatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			stores := newTestStores(t)
			p, _ := newTestPipeline(t, stores, &testFetcher{})
			ctx := context.Background()

			_, err := stores.Records.Upsert(ctx, &core.IngestRecord{SourceID: testItem.ID, Status: status, LastError: "boom"})
			require.NoError(t, err)

			result, err := p.Ingest(ctx, testItem, nil)
			require.NoError(t, err)
			assert.Empty(t, result.Record.LastError)

			record, err := stores.Records.Get(ctx, testItem.ID)
			require.NoError(t, err)
			assert.Empty(t, record.LastError)
			if status == core.StatusTranscribed {
				assert.Equal(t, core.StatusTranscribed, record.Status)
			} else {
				assert.Equal(t, core.StatusAudioIngested, record.Status)
			}
		})
	}
}

func TestIngest_NoCaptions(t *testing.T) {
	stores := newTestStores(t)
	p, _ := newTestPipeline(t, stores, &testFetcher{captions: map[string]string{"source.de.vtt": testVTT}})

	result, err := p.Ingest(context.Background(), testItem, nil)
	require.NoError(t, err)
	assert.False(t, result.Record.HasCaptions)
	assert.Empty(t, result.Record.CaptionsHash)
	assert.Empty(t, result.Record.Assets.CaptionsNormVTT)
	assert.NotContains(t, result.Uploaded, "yt/abc123/derived/captions.norm.en.vtt")
	assert.Len(t, result.Uploaded, 5)
}

func TestIngest_Failures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name       string
		fetcher    *testFetcher
		transcoder *testTranscoder
		want       error
	}{
		{"fetch error", &testFetcher{err: boom}, &testTranscoder{}, core.ErrFetchFailure},
		{"no audio", &testFetcher{noAudio: true}, &testTranscoder{}, core.ErrFetchFailure},
		{"probe error", &testFetcher{}, &testTranscoder{probeErr: boom}, core.ErrDerivationFailure},
		{"transcode error", &testFetcher{}, &testTranscoder{wavErr: boom}, core.ErrDerivationFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stores := newTestStores(t)
			p, err := NewPipeline(tt.fetcher, tt.transcoder, stores.Blobs, stores.Records, WithWorkDir(t.TempDir()))
			require.NoError(t, err)

			_, err = p.Ingest(context.Background(), testItem, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			_, err = stores.Records.Get(context.Background(), testItem.ID)
			assert.ErrorIs(t, err, storage.ErrNotFound, "failed items must not write metadata")
		})
	}
}

func TestIngest_InvalidItem(t *testing.T) {
	stores := newTestStores(t)
	p, _ := newTestPipeline(t, stores, &testFetcher{})

	_, err := p.Ingest(context.Background(), core.SourceItem{ID: "../etc"}, nil)
	assert.Error(t, err)
}

func TestIngest_KeepSourceAndCleanScratch(t *testing.T) {
	stores := newTestStores(t)
	p, workDir := newTestPipeline(t, stores, &testFetcher{}, WithKeepSource(true))
	_, err := p.Ingest(context.Background(), testItem, nil)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(workDir, testItem.ID, "source.m4a"))

	stores = newTestStores(t)
	p, workDir = newTestPipeline(t, stores, &testFetcher{}, WithCleanScratch(true))
	_, err = p.Ingest(context.Background(), testItem, nil)
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(workDir, testItem.ID))
}

func TestIngest_InlineTranscriber(t *testing.T) {
	stores := newTestStores(t)
	transcriber := &testTranscriber{}
	p, workDir := newTestPipeline(t, stores, &testFetcher{}, WithTranscriber(transcriber))

	result, err := p.Ingest(context.Background(), testItem, nil)
	require.NoError(t, err)
	require.NotNil(t, result.Transcript)
	assert.Equal(t, core.OriginCaption, result.Transcript.Origin)
	assert.Equal(t, []string{filepath.Join(workDir, testItem.ID)}, transcriber.calls)
}

func TestIngest_InlineTranscriberUnresolved(t *testing.T) {
	stores := newTestStores(t)
	transcriber := &testTranscriber{err: core.ErrTranscriptUnresolved}
	p, _ := newTestPipeline(t, stores, &testFetcher{}, WithTranscriber(transcriber))

	result, err := p.Ingest(context.Background(), testItem, nil)
	require.NoError(t, err)
	assert.Nil(t, result.Transcript)
	assert.Equal(t, core.StatusAudioIngested, result.Record.Status)

	transcriber.err = io.ErrUnexpectedEOF
	_, err = p.Ingest(context.Background(), testItem, nil)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
