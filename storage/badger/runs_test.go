package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRepository(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	repo := NewRunRepository(backend)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, repo.SaveRun(ctx, &core.Run{
			ID:        id,
			Command:   "ingest",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			Total:     i + 1,
		}))
	}

	t.Run("load", func(t *testing.T) {
		run, err := repo.LoadRun(ctx, "run-2")
		require.NoError(t, err)
		assert.Equal(t, 2, run.Total)
		assert.Equal(t, "ingest", run.Command)
	})

	t.Run("load missing", func(t *testing.T) {
		_, err := repo.LoadRun(ctx, "run-9")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("recent first", func(t *testing.T) {
		runs, err := repo.RecentRuns(ctx, 2)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "run-3", runs[0].ID)
		assert.Equal(t, "run-2", runs[1].ID)
	})

	t.Run("resave updates in place", func(t *testing.T) {
		require.NoError(t, repo.SaveRun(ctx, &core.Run{
			ID:         "run-3",
			Command:    "ingest",
			StartedAt:  base.Add(2 * time.Minute),
			FinishedAt: base.Add(5 * time.Minute),
			Total:      3,
			Succeeded:  2,
			Failed:     1,
		}))
		runs, err := repo.RecentRuns(ctx, 0)
		require.NoError(t, err)
		require.Len(t, runs, 3)
		assert.Equal(t, 1, runs[0].Failed)
	})
}

func TestChunkRepository_Replace(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	repo := NewChunkRepository(backend)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceChunks(ctx, "vid-a",
		&core.Chunk{Seq: 1, Text: "one"}, &core.Chunk{Seq: 2, Text: "two"}, &core.Chunk{Seq: 3, Text: "three"}))
	require.NoError(t, repo.ReplaceChunks(ctx, "vid-ab", &core.Chunk{Seq: 1, Text: "other"}))
	require.NoError(t, repo.ReplaceChunks(ctx, "vid-a", &core.Chunk{Seq: 1, Text: "uno"}))

	chunks, err := repo.GetChunks(ctx, "vid-a")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "uno", chunks[0].Text)
	assert.Equal(t, core.ChunkID("vid-a", 1), chunks[0].ID)

	other, err := repo.GetChunks(ctx, "vid-ab")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}
