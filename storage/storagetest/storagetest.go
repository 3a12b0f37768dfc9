// Package storagetest holds behavioural tests shared by every storage backend.
package storagetest

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MetadataStore exercises the merge-upsert contract against a fresh, empty store.
func MetadataStore(t *testing.T, store storage.MetadataStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("upsert creates then merges", func(t *testing.T) {
		created, err := store.Upsert(ctx, &core.IngestRecord{
			SourceID:          "vid-b",
			Title:             "Leetcode 1 Two Sum",
			Status:            core.StatusAudioIngested,
			ContentHash:       "abc",
			HasCaptions:       true,
			ProcessingVersion: "v0.1.0",
			DurationSec:       90,
			Assets: core.AssetURIs{
				AudioWAV:        "mem://yt/vid-b/derived/audio.wav",
				CaptionsNormVTT: "mem://yt/vid-b/derived/captions.norm.en.vtt",
			},
		})
		require.NoError(t, err)
		assert.False(t, created.IngestedAt.IsZero())
		assert.False(t, created.UpdatedAt.IsZero())

		merged, err := store.Upsert(ctx, &core.IngestRecord{
			SourceID:         "vid-b",
			Status:           core.StatusTranscribed,
			TranscriptOrigin: core.OriginCaption,
			Assets:           core.AssetURIs{TranscriptTXT: "mem://yt/vid-b/derived/transcript.txt"},
		})
		require.NoError(t, err)
		assert.Equal(t, core.StatusTranscribed, merged.Status)

		got, err := store.Get(ctx, "vid-b")
		require.NoError(t, err)
		assert.Equal(t, "Leetcode 1 Two Sum", got.Title)
		assert.Equal(t, "abc", got.ContentHash)
		assert.True(t, got.HasCaptions)
		assert.Equal(t, 90.0, got.DurationSec)
		assert.Equal(t, core.StatusTranscribed, got.Status)
		assert.Equal(t, core.OriginCaption, got.TranscriptOrigin)
		assert.Equal(t, "mem://yt/vid-b/derived/audio.wav", got.Assets.AudioWAV)
		assert.Equal(t, "mem://yt/vid-b/derived/transcript.txt", got.Assets.TranscriptTXT)
		assert.Equal(t, created.IngestedAt.UnixMilli(), got.IngestedAt.UnixMilli())
	})

	t.Run("repeated upsert is stable", func(t *testing.T) {
		patch := &core.IngestRecord{SourceID: "vid-a", Title: "A", Status: core.StatusAudioIngested, ContentHash: "h"}
		_, err := store.Upsert(ctx, patch)
		require.NoError(t, err)
		first, err := store.Get(ctx, "vid-a")
		require.NoError(t, err)

		_, err = store.Upsert(ctx, patch)
		require.NoError(t, err)
		second, err := store.Get(ctx, "vid-a")
		require.NoError(t, err)

		assert.Equal(t, first.Title, second.Title)
		assert.Equal(t, first.ContentHash, second.ContentHash)
		assert.Equal(t, first.Status, second.Status)
		assert.Equal(t, first.IngestedAt.UnixMilli(), second.IngestedAt.UnixMilli())
	})

	t.Run("list filters by status in id order", func(t *testing.T) {
		all, err := store.List(ctx, "")
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "vid-a", all[0].SourceID)
		assert.Equal(t, "vid-b", all[1].SourceID)

		ingested, err := store.List(ctx, core.StatusAudioIngested)
		require.NoError(t, err)
		require.Len(t, ingested, 1)
		assert.Equal(t, "vid-a", ingested[0].SourceID)
	})

	t.Run("rejects invalid patch", func(t *testing.T) {
		_, err := store.Upsert(ctx, &core.IngestRecord{SourceID: ""})
		assert.ErrorIs(t, err, core.ErrInvalidRecord)
	})
}

// BlobStore exercises existence, upload and download against a fresh, empty store.
func BlobStore(t *testing.T, store storage.BlobStore) {
	t.Helper()
	ctx := context.Background()
	key := storage.BlobKey(storage.DefaultNamespace, "vid-a", storage.RoleDerived, storage.AssetTranscriptTXT)

	t.Run("missing object", func(t *testing.T) {
		ok, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok)

		var buf bytes.Buffer
		err = store.Download(ctx, key, &buf)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("upload then download", func(t *testing.T) {
		payload := strings.Repeat("hello world ", 1000)
		require.NoError(t, store.Upload(ctx, key, strings.NewReader(payload), "text/plain"))

		ok, err := store.Exists(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok)

		var buf bytes.Buffer
		require.NoError(t, store.Download(ctx, key, &buf))
		assert.Equal(t, payload, buf.String())
	})

	t.Run("upload replaces existing object", func(t *testing.T) {
		require.NoError(t, store.Upload(ctx, key, strings.NewReader("first"), "text/plain"))
		require.NoError(t, store.Upload(ctx, key, strings.NewReader("second"), "text/plain"))

		var buf bytes.Buffer
		require.NoError(t, store.Download(ctx, key, &buf))
		assert.Equal(t, "second", buf.String())
	})

	t.Run("sibling keys are independent", func(t *testing.T) {
		other := storage.BlobKey(storage.DefaultNamespace, "vid-a", storage.RoleDerived, storage.AssetCuesJSON)
		ok, err := store.Exists(ctx, other)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("uri embeds key", func(t *testing.T) {
		assert.Contains(t, store.URI(key), key)
	})
}
