package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/scribe/ai/mock"
	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/storage"
	"github.com/poiesic/scribe/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const captionVTT = `WEBVTT
Kind: captions
Language: en

00:00:01.000 --> 00:00:04.000
welcome back

00:00:04.000 --> 00:00:08.000
today two sum
`

func newTestStores(t *testing.T) *badger.Stores {
	t.Helper()
	stores, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { stores.Close() })
	return stores
}

func writeScratch(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestNewOrchestrator(t *testing.T) {
	stores := newTestStores(t)

	_, err := NewOrchestrator(nil, stores.Records)
	assert.Equal(t, ErrBlobStoreRequired, err)

	_, err = NewOrchestrator(stores.Blobs, nil)
	assert.Equal(t, ErrMetadataStoreRequired, err)

	_, err = NewOrchestrator(stores.Blobs, stores.Records, WithCueWindow(30, 10))
	assert.Error(t, err)

	o, err := NewOrchestrator(stores.Blobs, stores.Records, WithLogger(nil), WithWorkDir(t.TempDir()))
	require.NoError(t, err)
	assert.NotNil(t, o)
}

func TestResolve_CaptionFirst(t *testing.T) {
	stores := newTestStores(t)
	recognizer := mock.NewMockRecognizer("from audio")
	o, err := NewOrchestrator(stores.Blobs, stores.Records, WithRecognizer(recognizer))
	require.NoError(t, err)

	dir := t.TempDir()
	writeScratch(t, dir, storage.AssetCaptionsNormVTT, captionVTT)

	tr, state, err := o.Resolve(context.Background(), "vid", dir)
	require.NoError(t, err)
	assert.Equal(t, Resolved, state)
	assert.Equal(t, core.OriginCaption, tr.Origin)
	assert.Equal(t, "welcome back today two sum", tr.Text)
	assert.Empty(t, recognizer.Calls(), "asr must not run when captions resolve")
}

func TestResolve_EmptyCaptionFallsBackToASR(t *testing.T) {
	stores := newTestStores(t)
	recognizer := mock.NewMockRecognizer("from audio")
	o, err := NewOrchestrator(stores.Blobs, stores.Records, WithRecognizer(recognizer))
	require.NoError(t, err)

	dir := t.TempDir()
	writeScratch(t, dir, storage.AssetCaptionsNormVTT, "WEBVTT\nKind: captions\nLanguage: en\n\n00:00:01.000 --> 00:00:02.000\n\u266a\u266a\n")
	writeScratch(t, dir, storage.AssetAudioWAV, strings.Repeat("\x00", 4096))

	tr, state, err := o.Resolve(context.Background(), "vid", dir)
	require.NoError(t, err)
	assert.Equal(t, Resolved, state)
	assert.Equal(t, core.OriginASR, tr.Origin)
	assert.Equal(t, "from audio", tr.Text)
	assert.Equal(t, []string{filepath.Join(dir, storage.AssetAudioWAV)}, recognizer.Calls())
}

func TestAttachDir_Unresolved(t *testing.T) {
	stores := newTestStores(t)
	recognizer := mock.NewFailingRecognizer(errors.New("model crashed"))
	o, err := NewOrchestrator(stores.Blobs, stores.Records, WithRecognizer(recognizer))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = stores.Records.Upsert(ctx, &core.IngestRecord{SourceID: "vid", Status: core.StatusAudioIngested})
	require.NoError(t, err)

	dir := t.TempDir()
	writeScratch(t, dir, storage.AssetAudioWAV, strings.Repeat("\x00", 4096))

	tr, err := o.AttachDir(ctx, "vid", dir)
	assert.Nil(t, tr)
	assert.ErrorIs(t, err, core.ErrTranscriptUnresolved)
	assert.True(t, IsUnresolved(err))

	exists, err := stores.Blobs.Exists(ctx, storage.BlobKey(storage.DefaultNamespace, "vid", storage.RoleDerived, storage.AssetTranscriptTXT))
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoFileExists(t, filepath.Join(dir, storage.AssetTranscriptTXT))

	record, err := stores.Records.Get(ctx, "vid")
	require.NoError(t, err)
	assert.Equal(t, core.StatusAudioIngested, record.Status)
	assert.Empty(t, record.TranscriptOrigin)
}

func TestAttachDir_NoRecognizer(t *testing.T) {
	stores := newTestStores(t)
	o, err := NewOrchestrator(stores.Blobs, stores.Records)
	require.NoError(t, err)

	_, err = o.AttachDir(context.Background(), "vid", t.TempDir())
	assert.ErrorIs(t, err, core.ErrTranscriptUnresolved)
}

func TestAttachDir_CaptionWritesTranscriptAndCues(t *testing.T) {
	stores := newTestStores(t)
	o, err := NewOrchestrator(stores.Blobs, stores.Records, WithCueWindow(2, 0))
	require.NoError(t, err)

	ctx := context.Background()
	dir := t.TempDir()
	writeScratch(t, dir, storage.AssetCaptionsNormVTT, captionVTT)

	tr, err := o.AttachDir(ctx, "vid", dir)
	require.NoError(t, err)
	assert.Equal(t, core.OriginCaption, tr.Origin)

	var buf bytes.Buffer
	require.NoError(t, stores.Blobs.Download(ctx, "yt/vid/derived/transcript.txt", &buf))
	assert.Equal(t, "welcome back today two sum", buf.String())

	buf.Reset()
	require.NoError(t, stores.Blobs.Download(ctx, "yt/vid/derived/cues.json", &buf))
	var cues []cueDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &cues))
	require.Len(t, cues, 2)
	assert.Equal(t, "utt_000001", cues[0].ID)
	assert.Equal(t, "welcome back", cues[0].Text)
	assert.Equal(t, "utt_000002", cues[1].ID)

	record, err := stores.Records.Get(ctx, "vid")
	require.NoError(t, err)
	assert.Equal(t, core.StatusTranscribed, record.Status)
	assert.Equal(t, core.OriginCaption, record.TranscriptOrigin)
	assert.Equal(t, core.HashBytes([]byte(tr.Text)), record.TranscriptHash)
	assert.Equal(t, stores.Blobs.URI("yt/vid/derived/transcript.txt"), record.Assets.TranscriptTXT)
	assert.Equal(t, stores.Blobs.URI("yt/vid/derived/cues.json"), record.Assets.CuesJSON)
	assert.False(t, record.TranscribedAt.IsZero())
}

func TestAttachDir_ASRSkipsCues(t *testing.T) {
	stores := newTestStores(t)
	o, err := NewOrchestrator(stores.Blobs, stores.Records, WithRecognizer(mock.NewMockRecognizer("spoken")))
	require.NoError(t, err)

	ctx := context.Background()
	dir := t.TempDir()
	writeScratch(t, dir, storage.AssetAudioWAV, strings.Repeat("\x00", 4096))

	tr, err := o.AttachDir(ctx, "vid", dir)
	require.NoError(t, err)
	assert.Equal(t, core.OriginASR, tr.Origin)

	exists, err := stores.Blobs.Exists(ctx, "yt/vid/derived/cues.json")
	require.NoError(t, err)
	assert.False(t, exists)

	record, err := stores.Records.Get(ctx, "vid")
	require.NoError(t, err)
	assert.Equal(t, core.OriginASR, record.TranscriptOrigin)
	assert.Empty(t, record.Assets.CuesJSON)
}

func TestAttach_RestoresFromBlobStore(t *testing.T) {
	stores := newTestStores(t)
	workDir := t.TempDir()
	o, err := NewOrchestrator(stores.Blobs, stores.Records, WithWorkDir(workDir))
	require.NoError(t, err)

	ctx := context.Background()
	key := storage.BlobKey(storage.DefaultNamespace, "vid", storage.RoleDerived, storage.AssetCaptionsNormVTT)
	require.NoError(t, stores.Blobs.Upload(ctx, key, strings.NewReader(captionVTT), "text/vtt"))

	tr, err := o.Attach(ctx, "vid")
	require.NoError(t, err)
	assert.Equal(t, core.OriginCaption, tr.Origin)

	assert.NoFileExists(t, filepath.Join(workDir, "vid", storage.AssetCaptionsNormVTT))

	again, err := o.Attach(ctx, "vid")
	require.NoError(t, err)
	assert.Equal(t, tr.Text, again.Text)
}

func TestAttachDir_ReattachKeepsRecordAndBlobInStep(t *testing.T) {
	stores := newTestStores(t)
	recognizer := mock.NewMockRecognizer("asr words here")
	o, err := NewOrchestrator(stores.Blobs, stores.Records, WithRecognizer(recognizer))
	require.NoError(t, err)

	ctx := context.Background()
	dir := t.TempDir()
	writeScratch(t, dir, storage.AssetAudioWAV, strings.Repeat("\x00", 4096))

	first, err := o.AttachDir(ctx, "vid", dir)
	require.NoError(t, err)
	assert.Equal(t, core.OriginASR, first.Origin)

	writeScratch(t, dir, storage.AssetCaptionsNormVTT, captionVTT)
	second, err := o.AttachDir(ctx, "vid", dir)
	require.NoError(t, err)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, core.OriginASR, second.Origin)
	assert.Len(t, recognizer.Calls(), 1)

	var buf bytes.Buffer
	require.NoError(t, stores.Blobs.Download(ctx, "yt/vid/derived/transcript.txt", &buf))
	record, err := stores.Records.Get(ctx, "vid")
	require.NoError(t, err)
	assert.Equal(t, core.HashBytes(buf.Bytes()), record.TranscriptHash)
	assert.Equal(t, core.OriginASR, record.TranscriptOrigin)
}

func TestAttachDir_RewritesDivergedTranscript(t *testing.T) {
	stores := newTestStores(t)
	o, err := NewOrchestrator(stores.Blobs, stores.Records)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = stores.Records.Upsert(ctx, &core.IngestRecord{
		SourceID:         "vid",
		Status:           core.StatusTranscribed,
		TranscriptOrigin: core.OriginASR,
		TranscriptHash:   core.HashBytes([]byte("something else")),
	})
	require.NoError(t, err)
	require.NoError(t, stores.Blobs.Upload(ctx, "yt/vid/derived/transcript.txt", strings.NewReader("asr words here"), "text/plain"))

	dir := t.TempDir()
	writeScratch(t, dir, storage.AssetCaptionsNormVTT, captionVTT)
	tr, err := o.AttachDir(ctx, "vid", dir)
	require.NoError(t, err)
	assert.Equal(t, core.OriginCaption, tr.Origin)

	var buf bytes.Buffer
	require.NoError(t, stores.Blobs.Download(ctx, "yt/vid/derived/transcript.txt", &buf))
	assert.Equal(t, "welcome back today two sum", buf.String())
	record, err := stores.Records.Get(ctx, "vid")
	require.NoError(t, err)
	assert.Equal(t, core.HashBytes(buf.Bytes()), record.TranscriptHash)
	assert.Equal(t, core.OriginCaption, record.TranscriptOrigin)
}
