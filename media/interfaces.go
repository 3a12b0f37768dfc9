package media

import (
	"context"

	"github.com/poiesic/scribe/core"
)

// Fetcher downloads one source item into a scratch directory.
type Fetcher interface {
	// Fetch downloads item into dir and reports what was found there.
	// dir is created if needed and is owned by the caller.
	Fetch(ctx context.Context, item core.SourceItem, dir string) (*core.FetchedAssets, error)
}

// Transcoder derives probe data and canonical audio from a downloaded file.
type Transcoder interface {
	// Probe returns the ffprobe JSON document describing src.
	Probe(ctx context.Context, src string) ([]byte, error)

	// ToWAV writes src to dest as mono 16 kHz signed 16-bit PCM.
	ToWAV(ctx context.Context, src, dest string) error
}

// Compile-time interface checks
var (
	_ Fetcher    = (*YTDLPFetcher)(nil)
	_ Transcoder = (*FFmpegTranscoder)(nil)
)
