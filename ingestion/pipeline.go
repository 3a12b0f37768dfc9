package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/scribe/captions"
	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/media"
	"github.com/poiesic/scribe/storage"
	"github.com/poiesic/scribe/workspace"
)

const (
	// DefaultWorkDir is the scratch root used when none is configured.
	DefaultWorkDir = "work"

	// DefaultProcessingVersion tags records when no version is configured.
	DefaultProcessingVersion = "v0.1.0"

	// HashAlgorithm names the digest recorded in hashes.json.
	HashAlgorithm = "blake2b-256"
)

// Transcriber resolves and persists a transcript from an item's scratch
// directory. *transcript.Orchestrator satisfies it.
type Transcriber interface {
	AttachDir(ctx context.Context, sourceID, dir string) (*core.Transcript, error)
}

// Pipeline ingests source items one at a time. A Pipeline holds no per-item
// state and may be shared by concurrent callers working on different items.
type Pipeline struct {
	fetcher           media.Fetcher
	transcoder        media.Transcoder
	blobs             storage.BlobStore
	records           storage.MetadataStore
	transcriber       Transcriber
	workDir           string
	namespace         string
	processingVersion string
	keepSource        bool
	cleanScratch      bool
	logger            *slog.Logger
	now               func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithWorkDir sets the scratch root. Default is DefaultWorkDir.
func WithWorkDir(dir string) Option {
	return func(p *Pipeline) error {
		if dir != "" {
			p.workDir = dir
		}
		return nil
	}
}

// WithNamespace sets the blob key namespace. Default is storage.DefaultNamespace.
func WithNamespace(namespace string) Option {
	return func(p *Pipeline) error {
		if namespace != "" {
			p.namespace = namespace
		}
		return nil
	}
}

// WithProcessingVersion sets the version recorded on every record.
func WithProcessingVersion(version string) Option {
	return func(p *Pipeline) error {
		if version != "" {
			p.processingVersion = version
		}
		return nil
	}
}

// WithKeepSource keeps the fetched source audio in scratch after ingestion.
func WithKeepSource(keep bool) Option {
	return func(p *Pipeline) error {
		p.keepSource = keep
		return nil
	}
}

// WithCleanScratch removes the whole scratch directory once an item is done.
func WithCleanScratch(clean bool) Option {
	return func(p *Pipeline) error {
		p.cleanScratch = clean
		return nil
	}
}

// WithTranscriber resolves the transcript inline, right after the record is
// written, while the derived assets are still in scratch.
func WithTranscriber(transcriber Transcriber) Option {
	return func(p *Pipeline) error {
		p.transcriber = transcriber
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	fetcher media.Fetcher,
	transcoder media.Transcoder,
	blobs storage.BlobStore,
	records storage.MetadataStore,
	opts ...Option,
) (*Pipeline, error) {
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if transcoder == nil {
		return nil, ErrTranscoderRequired
	}
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}
	if records == nil {
		return nil, ErrMetadataStoreRequired
	}

	p := &Pipeline{
		fetcher:           fetcher,
		transcoder:        transcoder,
		blobs:             blobs,
		records:           records,
		workDir:           DefaultWorkDir,
		namespace:         storage.DefaultNamespace,
		processingVersion: DefaultProcessingVersion,
		logger:            slog.Default(),
		now:               func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	return p, nil
}

// IngestOptions holds optional parameters for ingestion.
type IngestOptions struct {
	RunID string // recorded as LastRunID when set
}

// Result describes what one Ingest call did.
type Result struct {
	SourceID   string
	Record     *core.IngestRecord
	Uploaded   []string // keys written by this run
	Skipped    []string // keys that already existed
	Transcript *core.Transcript
}

// Ingest runs the pipeline for item. Every failure wraps one of
// core.ErrFetchFailure, core.ErrDerivationFailure or core.ErrStoreFailure.
// An unresolved inline transcript is logged and is not an error.
func (p *Pipeline) Ingest(ctx context.Context, item core.SourceItem, opts *IngestOptions) (*Result, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}
	if err := core.ValidateSourceItem(item); err != nil {
		return nil, err
	}
	logger := p.logger.With("source_id", item.ID)

	dir, err := workspace.Acquire(p.workDir, item.ID)
	if err != nil {
		return nil, err
	}
	defer dir.Release()

	logger.Info("fetching source", "url", item.WatchURL())
	fetched, err := p.fetcher.Fetch(ctx, item, dir.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrFetchFailure, item.ID, err)
	}
	if fetched.AudioPath == "" {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrFetchFailure, item.ID, media.ErrNoAudio)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	probe, err := p.transcoder.Probe(ctx, fetched.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("%w: probe %s: %w", core.ErrDerivationFailure, item.ID, err)
	}
	if err := os.WriteFile(dir.File(storage.AssetFFProbeJSON), probe, 0o644); err != nil {
		return nil, fmt.Errorf("%w: write probe: %w", core.ErrDerivationFailure, err)
	}

	wavPath := dir.File(storage.AssetAudioWAV)
	if err := p.transcoder.ToWAV(ctx, fetched.AudioPath, wavPath); err != nil {
		return nil, fmt.Errorf("%w: transcode %s: %w", core.ErrDerivationFailure, item.ID, err)
	}
	contentHash, err := core.HashFile(wavPath)
	if err != nil {
		return nil, fmt.Errorf("%w: hash audio: %w", core.ErrDerivationFailure, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	caption, hasCaption := captions.SelectBest(fetched.CaptionCandidates)
	var captionsHash string
	if hasCaption {
		normPath := dir.File(storage.AssetCaptionsNormVTT)
		if err := copyFile(dir.File(caption), normPath); err != nil {
			return nil, fmt.Errorf("%w: normalize captions: %w", core.ErrDerivationFailure, err)
		}
		if captionsHash, err = core.HashFile(normPath); err != nil {
			return nil, fmt.Errorf("%w: hash captions: %w", core.ErrDerivationFailure, err)
		}
		logger.Debug("selected caption", "file", caption)
	} else {
		logger.Info("no english caption available")
	}

	now := p.now()
	hashes, err := json.MarshalIndent(hashesDocument{
		Algorithm:       HashAlgorithm,
		AudioWAV:        contentHash,
		CaptionsNormVTT: captionsHash,
		ContentHash:     contentHash,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode hashes: %w", core.ErrDerivationFailure, err)
	}
	provenance, err := json.MarshalIndent(provenanceDocument{
		SourceID:          item.ID,
		URL:               item.WatchURL(),
		DownloadedAt:      now.Format(time.RFC3339),
		ProcessingVersion: p.processingVersion,
		ETag:              fetched.Info.ETag,
		Pipeline:          core.PipelineName,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode provenance: %w", core.ErrDerivationFailure, err)
	}

	result := &Result{SourceID: item.ID}
	patch := &core.IngestRecord{
		SourceID:          item.ID,
		Title:             item.Title,
		URL:               item.WatchURL(),
		ContentHash:       contentHash,
		CaptionsHash:      captionsHash,
		HasCaptions:       hasCaption,
		ProcessingVersion: p.processingVersion,
		Pipeline:          core.PipelineName,
		ChannelID:         fetched.Info.ChannelID,
		ChannelTitle:      fetched.Info.ChannelTitle,
		DurationSec:       fetched.Info.DurationSec,
		LastRunID:         opts.RunID,
		UpdatedAt:         now,
	}
	if patch.DurationSec == 0 {
		patch.DurationSec = media.ProbeDuration(probe)
	}

	uploads := []upload{
		{role: storage.RoleRaw, name: storage.AssetMetadataJSON, path: fetched.InfoPath, contentType: "application/json", uri: &patch.Assets.MetadataJSON},
		{role: storage.RoleRaw, name: storage.AssetFFProbeJSON, data: probe, contentType: "application/json", uri: &patch.Assets.FFProbeJSON},
	}
	if hasCaption {
		uploads = append(uploads,
			upload{role: storage.RoleRaw, name: caption, path: dir.File(caption), contentType: "text/vtt", uri: &patch.Assets.CaptionsRaw},
		)
	}
	uploads = append(uploads,
		upload{role: storage.RoleDerived, name: storage.AssetAudioWAV, path: wavPath, contentType: "audio/wav", uri: &patch.Assets.AudioWAV},
	)
	if hasCaption {
		uploads = append(uploads,
			upload{role: storage.RoleDerived, name: storage.AssetCaptionsNormVTT, path: dir.File(storage.AssetCaptionsNormVTT), contentType: "text/vtt", uri: &patch.Assets.CaptionsNormVTT},
		)
	}
	uploads = append(uploads,
		upload{role: storage.RoleDerived, name: storage.AssetHashesJSON, data: hashes, contentType: "application/json", uri: &patch.Assets.HashesJSON},
		upload{role: storage.RoleRaw, name: storage.AssetProvenanceJSON, data: provenance, contentType: "application/json", uri: &patch.Assets.ProvenanceJSON},
	)

	for _, u := range uploads {
		if u.path == "" && u.data == nil {
			continue
		}
		key := storage.BlobKey(p.namespace, item.ID, u.role, u.name)
		var uploaded bool
		if u.data != nil {
			uploaded, err = storage.UploadBytesIfAbsent(ctx, p.blobs, key, u.data, u.contentType)
		} else {
			uploaded, err = storage.UploadFileIfAbsent(ctx, p.blobs, key, u.path, u.contentType)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
		}
		if uploaded {
			result.Uploaded = append(result.Uploaded, key)
		} else {
			result.Skipped = append(result.Skipped, key)
		}
		*u.uri = p.blobs.URI(key)
	}
	logger.Info("artifacts stored", "uploaded", len(result.Uploaded), "skipped", len(result.Skipped))

	existing, err := p.records.Get(ctx, item.ID)
	switch {
	case err == nil:
		patch.Status = core.StatusAudioIngested
		if existing.Status == core.StatusTranscribed {
			patch.Status = existing.Status
		}
	case errors.Is(err, storage.ErrNotFound):
		patch.Status = core.StatusAudioIngested
		patch.IngestedAt = now
	default:
		return nil, fmt.Errorf("%w: load record: %w", core.ErrStoreFailure, err)
	}
	record, err := p.records.Upsert(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: upsert record: %w", core.ErrStoreFailure, err)
	}
	result.Record = record

	if !p.keepSource && filepath.Base(fetched.AudioPath) != storage.AssetAudioWAV {
		if err := os.Remove(fetched.AudioPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to remove source audio", "path", fetched.AudioPath, "err", err)
		}
	}

	if p.transcriber != nil {
		transcript, err := p.transcriber.AttachDir(ctx, item.ID, dir.Path)
		switch {
		case err == nil:
			result.Transcript = transcript
			if updated, getErr := p.records.Get(ctx, item.ID); getErr == nil {
				result.Record = updated
			}
		case errors.Is(err, core.ErrTranscriptUnresolved):
			logger.Info("inline transcript unresolved")
		default:
			return result, err
		}
	}

	if p.cleanScratch {
		if err := dir.Clear(); err != nil {
			logger.Warn("failed to clear scratch", "dir", dir.Path, "err", err)
		}
	}

	logger.Info("item ingested", "status", string(result.Record.Status), "has_captions", hasCaption)
	return result, nil
}

type upload struct {
	role        storage.Role
	name        string
	path        string
	data        []byte
	contentType string
	uri         *string
}

// hashesDocument is the JSON shape of derived/hashes.json.
type hashesDocument struct {
	Algorithm       string `json:"algorithm"`
	AudioWAV        string `json:"audio_wav"`
	CaptionsNormVTT string `json:"captions_norm_vtt,omitempty"`
	ContentHash     string `json:"content_hash"`
}

// provenanceDocument is the JSON shape of raw/provenance.json.
type provenanceDocument struct {
	SourceID          string `json:"source_id"`
	URL               string `json:"url"`
	DownloadedAt      string `json:"downloaded_at"`
	ProcessingVersion string `json:"processing_version"`
	ETag              string `json:"etag,omitempty"`
	Pipeline          string `json:"pipeline"`
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
