package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/scribe/ai"
	"github.com/poiesic/scribe/captions"
	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/storage"
	"github.com/poiesic/scribe/workspace"
)

// DefaultWorkDir is the scratch root used when none is configured.
const DefaultWorkDir = "work"

// Orchestrator resolves the transcript of an ingested item and persists it.
type Orchestrator struct {
	blobs      storage.BlobStore
	records    storage.MetadataStore
	recognizer ai.SpeechRecognizer
	parser     *captions.Parser
	workDir    string
	namespace  string
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithRecognizer sets the speech recognizer used when captions yield nothing.
// Without one, items lacking captions end unresolved.
func WithRecognizer(recognizer ai.SpeechRecognizer) Option {
	return func(o *Orchestrator) error {
		o.recognizer = recognizer
		return nil
	}
}

// WithCueWindow restricts the cues written to cues.json to a time range.
// A zero maxEnd leaves the range open-ended.
func WithCueWindow(startOffset, maxEnd float64) Option {
	return func(o *Orchestrator) error {
		parser, err := captions.NewParser(captions.WithWindow(startOffset, maxEnd), captions.WithLogger(o.logger))
		if err != nil {
			return err
		}
		o.parser = parser
		return nil
	}
}

// WithParser sets a fully configured cue parser.
func WithParser(parser *captions.Parser) Option {
	return func(o *Orchestrator) error {
		if parser != nil {
			o.parser = parser
		}
		return nil
	}
}

// WithWorkDir sets the scratch root.
func WithWorkDir(dir string) Option {
	return func(o *Orchestrator) error {
		if dir != "" {
			o.workDir = dir
		}
		return nil
	}
}

// WithNamespace sets the blob key namespace.
func WithNamespace(namespace string) Option {
	return func(o *Orchestrator) error {
		if namespace != "" {
			o.namespace = namespace
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) error {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
		return nil
	}
}

// NewOrchestrator creates an orchestrator writing to blobs and records.
func NewOrchestrator(blobs storage.BlobStore, records storage.MetadataStore, opts ...Option) (*Orchestrator, error) {
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}
	if records == nil {
		return nil, ErrMetadataStoreRequired
	}

	o := &Orchestrator{
		blobs:     blobs,
		records:   records,
		workDir:   DefaultWorkDir,
		namespace: storage.DefaultNamespace,
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.parser == nil {
		parser, err := captions.NewParser(captions.WithLogger(o.logger))
		if err != nil {
			return nil, err
		}
		o.parser = parser
	}
	o.logger = o.logger.With("component", "transcript")
	return o, nil
}

// Resolve tries the caption file in dir, then speech recognition on the WAV
// in dir. It never runs both sources concurrently and never calls ASR once
// captions produced text. The returned transcript is nil unless the final
// state is Resolved.
func (o *Orchestrator) Resolve(ctx context.Context, sourceID, dir string) (*core.Transcript, State, error) {
	logger := o.logger.With("source_id", sourceID)
	state := NoAttempt

	for !state.Terminal() {
		if err := ctx.Err(); err != nil {
			return nil, state, err
		}

		var attempt Attempt
		switch Next(state) {
		case SourceCaption:
			attempt = o.tryCaptions(dir)
		case SourceASR:
			attempt = o.tryASR(ctx, dir)
		default:
			attempt = Attempt{Source: SourceNone}
		}
		if attempt.Source != SourceNone && !attempt.Succeeded() {
			logger.Info("transcript source yielded nothing", "state", state.String(), "source", attempt.Source.String(), "err", attempt.Err)
		}

		next, origin := Advance(state, attempt)
		if next == Resolved {
			return &core.Transcript{SourceID: sourceID, Text: attempt.Text, Origin: origin}, next, nil
		}
		state = next
	}
	return nil, state, nil
}

func (o *Orchestrator) tryCaptions(dir string) Attempt {
	path := filepath.Join(dir, storage.AssetCaptionsNormVTT)
	if _, err := os.Stat(path); err != nil {
		return Attempt{Source: SourceCaption, Err: ErrNoCaptions}
	}
	text, err := captions.CleanFile(path)
	return Attempt{Source: SourceCaption, Text: text, Err: err}
}

func (o *Orchestrator) tryASR(ctx context.Context, dir string) Attempt {
	if o.recognizer == nil {
		return Attempt{Source: SourceASR, Err: ErrNoRecognizer}
	}
	text, err := o.recognizer.Transcribe(ctx, filepath.Join(dir, storage.AssetAudioWAV))
	return Attempt{Source: SourceASR, Text: text, Err: err}
}

// Attach is the batch entry point. It locks the item's scratch directory,
// restores the caption and audio assets from the blob store when they are
// not present locally, and then behaves like AttachDir. Files it restored
// are removed again afterwards.
func (o *Orchestrator) Attach(ctx context.Context, sourceID string) (*core.Transcript, error) {
	dir, err := workspace.Acquire(o.workDir, sourceID)
	if err != nil {
		return nil, err
	}
	defer dir.Release()

	var restored []string
	defer func() {
		for _, name := range restored {
			if err := dir.Remove(name); err != nil {
				o.logger.Warn("failed to remove restored asset", "source_id", sourceID, "file", name, "err", err)
			}
		}
	}()

	for _, name := range []string{storage.AssetCaptionsNormVTT, storage.AssetAudioWAV} {
		if dir.Exists(name) {
			continue
		}
		key := o.key(sourceID, name)
		err := storage.DownloadFile(ctx, o.blobs, key, dir.File(name))
		switch {
		case err == nil:
			restored = append(restored, name)
		case storage.IsNotFound(err):
		default:
			return nil, fmt.Errorf("%w: restore %s: %w", core.ErrStoreFailure, key, err)
		}
	}

	return o.AttachDir(ctx, sourceID, dir.Path)
}

// AttachDir resolves the transcript from the assets in dir and persists it.
// The caller must hold the scratch directory. An item whose record is
// transcribed and whose stored transcript matches the recorded hash is
// returned as stored without consulting any source. Otherwise the transcript
// and, for caption transcripts, the cue list are written and the record is
// marked transcribed. When no source yields text nothing is written and the
// error wraps core.ErrTranscriptUnresolved.
func (o *Orchestrator) AttachDir(ctx context.Context, sourceID, dir string) (*core.Transcript, error) {
	logger := o.logger.With("source_id", sourceID)

	stored, err := o.stored(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		logger.Debug("transcript already attached", "origin", string(stored.Origin))
		return stored, nil
	}

	transcript, state, err := o.Resolve(ctx, sourceID, dir)
	if err != nil {
		return nil, err
	}
	if state != Resolved {
		logger.Warn("transcript unresolved")
		return nil, fmt.Errorf("%w: %s", core.ErrTranscriptUnresolved, sourceID)
	}

	var cuesJSON []byte
	if transcript.Origin == core.OriginCaption {
		cuesJSON, err = o.buildCues(filepath.Join(dir, storage.AssetCaptionsNormVTT))
		if err != nil {
			return nil, err
		}
	}

	patch := &core.IngestRecord{
		SourceID:         sourceID,
		Status:           core.StatusTranscribed,
		TranscriptOrigin: transcript.Origin,
		TranscriptHash:   core.HashBytes([]byte(transcript.Text)),
		TranscribedAt:    o.now(),
	}

	textPath := filepath.Join(dir, storage.AssetTranscriptTXT)
	if err := os.WriteFile(textPath, []byte(transcript.Text), 0o644); err != nil {
		return nil, fmt.Errorf("write transcript: %w", err)
	}
	textKey := o.key(sourceID, storage.AssetTranscriptTXT)
	if err := o.upload(ctx, textKey, []byte(transcript.Text), "text/plain; charset=utf-8"); err != nil {
		return nil, err
	}
	patch.Assets.TranscriptTXT = o.blobs.URI(textKey)

	if cuesJSON != nil {
		cuesKey := o.key(sourceID, storage.AssetCuesJSON)
		if err := o.upload(ctx, cuesKey, cuesJSON, "application/json"); err != nil {
			return nil, err
		}
		patch.Assets.CuesJSON = o.blobs.URI(cuesKey)
	}

	if _, err := o.records.Upsert(ctx, patch); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrStoreFailure, err)
	}
	logger.Info("transcript attached", "origin", string(transcript.Origin), "chars", len(transcript.Text))
	return transcript, nil
}

// stored returns the persisted transcript when the record is transcribed and
// the transcript object hashes to TranscriptHash. A missing or diverged
// object yields nil so the caller resolves and rewrites it.
func (o *Orchestrator) stored(ctx context.Context, sourceID string) (*core.Transcript, error) {
	record, err := o.records.Get(ctx, sourceID)
	switch {
	case storage.IsNotFound(err):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%w: load record: %w", core.ErrStoreFailure, err)
	}
	if record.Status != core.StatusTranscribed || record.TranscriptHash == "" {
		return nil, nil
	}

	var buf bytes.Buffer
	err = o.blobs.Download(ctx, o.key(sourceID, storage.AssetTranscriptTXT), &buf)
	switch {
	case storage.IsNotFound(err):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("%w: load transcript: %w", core.ErrStoreFailure, err)
	}
	if core.HashBytes(buf.Bytes()) != record.TranscriptHash {
		o.logger.Warn("stored transcript diverged from record", "source_id", sourceID)
		return nil, nil
	}
	return &core.Transcript{SourceID: sourceID, Text: buf.String(), Origin: record.TranscriptOrigin}, nil
}

// upload replaces key with data. Derived transcript objects must always match
// the record written after them.
func (o *Orchestrator) upload(ctx context.Context, key string, data []byte, contentType string) error {
	if err := o.blobs.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
		return fmt.Errorf("%w: upload %s: %w", core.ErrStoreFailure, key, err)
	}
	return nil
}

// cueDocument is the JSON shape of one entry in cues.json.
type cueDocument struct {
	ID    string  `json:"id"`
	Seq   int     `json:"seq"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func (o *Orchestrator) buildCues(path string) ([]byte, error) {
	result, err := o.parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	docs := make([]cueDocument, len(result.Cues))
	for i, cue := range result.Cues {
		docs[i] = cueDocument{ID: cue.ID, Seq: cue.Seq, Start: cue.Start, End: cue.End, Text: cue.Text}
	}
	data, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode cues: %w", err)
	}
	return data, nil
}

func (o *Orchestrator) key(sourceID, name string) string {
	return storage.BlobKey(o.namespace, sourceID, storage.RoleDerived, name)
}

// IsUnresolved reports whether err means no transcript source produced text.
func IsUnresolved(err error) bool {
	return errors.Is(err, core.ErrTranscriptUnresolved)
}
