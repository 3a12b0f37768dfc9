// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package scribe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/scribe/ai"
	"github.com/poiesic/scribe/ai/openai"
	"github.com/poiesic/scribe/ai/whisperx"
	"github.com/poiesic/scribe/batch"
	"github.com/poiesic/scribe/captions"
	"github.com/poiesic/scribe/config"
	"github.com/poiesic/scribe/ingestion"
	"github.com/poiesic/scribe/media"
	"github.com/poiesic/scribe/search"
	"github.com/poiesic/scribe/storage"
	"github.com/poiesic/scribe/storage/badger"
	"github.com/poiesic/scribe/storage/mongo"
	"github.com/poiesic/scribe/storage/sqlstore"
	"github.com/poiesic/scribe/storage/supabase"
	"github.com/poiesic/scribe/transcript"
)

// Scribe wires the configured stores and services together.
type Scribe struct {
	cfg        *config.Config
	local      *badger.Stores
	records    storage.MetadataStore
	blobs      storage.BlobStore
	embedder   ai.Embedder
	recognizer ai.SpeechRecognizer
	fetcher    media.Fetcher
	transcoder media.Transcoder
	logger     *slog.Logger
}

// Option configures a Scribe.
type Option func(*options)

type options struct {
	embedder   ai.Embedder
	recognizer ai.SpeechRecognizer
	fetcher    media.Fetcher
	transcoder media.Transcoder
	logger     *slog.Logger
}

// WithEmbedder replaces the OpenAI-compatible embedder.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(o *options) {
		o.embedder = embedder
	}
}

// WithRecognizer replaces the WhisperX recognizer.
func WithRecognizer(recognizer ai.SpeechRecognizer) Option {
	return func(o *options) {
		o.recognizer = recognizer
	}
}

// WithFetcher replaces the yt-dlp fetcher.
func WithFetcher(fetcher media.Fetcher) Option {
	return func(o *options) {
		o.fetcher = fetcher
	}
}

// WithTranscoder replaces the ffmpeg transcoder.
func WithTranscoder(transcoder media.Transcoder) Option {
	return func(o *options) {
		o.transcoder = transcoder
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open validates cfg and opens every store it names. The embedded badger
// database under cfg.Paths.DataDir always holds chunks and runs; records and
// blobs live there too unless another backend is selected.
// Caller must call Close when done.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*Scribe, error) {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	local, err := badger.NewStores(cfg.BadgerPath())
	if err != nil {
		return nil, err
	}

	s := &Scribe{
		cfg:        cfg,
		local:      local,
		records:    local.Records,
		blobs:      local.Blobs,
		embedder:   o.embedder,
		recognizer: o.recognizer,
		fetcher:    o.fetcher,
		transcoder: o.transcoder,
		logger:     o.logger.With("component", "scribe"),
	}

	if err := s.openRecords(ctx); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.openBlobs(); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.openServices(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Scribe) openRecords(ctx context.Context) error {
	var (
		records storage.MetadataStore
		err     error
	)
	switch s.cfg.Metadata.Backend {
	case config.BackendBadger:
		return nil
	case config.BackendSQLite:
		records, err = sqlstore.Open(ctx, sqlstore.DriverSQLite, s.cfg.Metadata.DSN)
	case config.BackendPostgres:
		records, err = sqlstore.Open(ctx, sqlstore.DriverPostgres, s.cfg.Metadata.DSN)
	case config.BackendMongo:
		collection := s.cfg.Metadata.Collection
		if collection == "" {
			collection = mongo.DefaultCollection
		}
		records, err = mongo.Open(ctx, s.cfg.Metadata.DSN, s.cfg.Metadata.Database, collection)
	default:
		return fmt.Errorf("%w: %q", storage.ErrUnknownBackend, s.cfg.Metadata.Backend)
	}
	if err != nil {
		return err
	}
	s.records = records
	return nil
}

func (s *Scribe) openBlobs() error {
	switch s.cfg.Blobs.Backend {
	case config.BackendBadger:
		return nil
	case config.BackendSupabase:
		blobs, err := supabase.NewBlobStore(supabase.Config{
			URL:    s.cfg.Blobs.SupabaseURL,
			Key:    s.cfg.Blobs.SupabaseKey,
			Bucket: s.cfg.Blobs.Bucket,
		})
		if err != nil {
			return err
		}
		s.blobs = blobs
		return nil
	default:
		return fmt.Errorf("%w: %q", storage.ErrUnknownBackend, s.cfg.Blobs.Backend)
	}
}

func (s *Scribe) openServices() error {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(s.cfg.Embedding.Host),
		ai.WithEmbeddingModel(s.cfg.Embedding.Model),
		ai.WithEmbeddingToken(s.cfg.Embedding.Token),
		ai.WithSpeechModel(s.cfg.ASR.Model),
		ai.WithSpeechLanguage(s.cfg.ASR.Language),
		ai.WithSpeechDevice(s.cfg.ASR.Device),
	)
	if s.embedder == nil {
		embedder, err := openai.NewEmbedder(aiConfig)
		if err != nil {
			return err
		}
		s.embedder = embedder
	}
	if s.recognizer == nil && s.cfg.ASR.Enabled {
		s.recognizer = whisperx.NewRecognizer(aiConfig)
	}
	if s.fetcher == nil {
		s.fetcher = media.NewYTDLPFetcher(
			media.WithBinary(s.cfg.Tools.YTDLP),
			media.WithCaptionLangs(s.cfg.Pipeline.CaptionLangs),
			media.WithFetchLogger(s.logger),
		)
	}
	if s.transcoder == nil {
		s.transcoder = media.NewFFmpegTranscoder(s.cfg.Tools.FFmpeg, s.cfg.Tools.FFprobe)
	}
	return nil
}

// Close releases every store. Errors are logged and the first is returned.
func (s *Scribe) Close() error {
	var first error
	keep := func(what string, err error) {
		if err == nil {
			return
		}
		s.logger.Error("error closing "+what, "err", err)
		if first == nil {
			first = err
		}
	}

	if s.records != nil && s.records != s.local.Records {
		keep("metadata store", s.records.Close())
	}
	if s.blobs != nil && s.blobs != s.local.Blobs {
		keep("blob store", s.blobs.Close())
	}
	keep("backend storage", s.local.Close())
	return first
}

// Config returns the configuration the stores were opened with.
func (s *Scribe) Config() *config.Config {
	return s.cfg
}

// Records returns the metadata store.
func (s *Scribe) Records() storage.MetadataStore {
	return s.records
}

// Blobs returns the artifact store.
func (s *Scribe) Blobs() storage.BlobStore {
	return s.blobs
}

// Chunks returns the embedded chunk repository.
func (s *Scribe) Chunks() storage.ChunkRepository {
	return s.local.Chunks
}

// Runs returns the batch run history.
func (s *Scribe) Runs() storage.RunRepository {
	return s.local.Runs
}

// NewOrchestrator creates a transcript orchestrator on the configured stores.
// opts are applied after the configured ones.
func (s *Scribe) NewOrchestrator(opts ...transcript.Option) (*transcript.Orchestrator, error) {
	parserOpts := []captions.Option{
		captions.WithWindow(s.cfg.Pipeline.CueStartOffset, s.cfg.Pipeline.CueMaxEnd),
		captions.WithLogger(s.logger),
	}
	if s.cfg.Pipeline.StrictCaptions {
		parserOpts = append(parserOpts, captions.WithStrict())
	}
	parser, err := captions.NewParser(parserOpts...)
	if err != nil {
		return nil, err
	}

	base := []transcript.Option{
		transcript.WithLogger(s.logger),
		transcript.WithParser(parser),
		transcript.WithWorkDir(s.cfg.Paths.WorkDir),
		transcript.WithNamespace(s.cfg.Pipeline.Namespace),
	}
	if s.recognizer != nil {
		base = append(base, transcript.WithRecognizer(s.recognizer))
	}
	return transcript.NewOrchestrator(s.blobs, s.records, append(base, opts...)...)
}

// NewIngestionPipeline creates an ingestion pipeline on the configured stores.
// With transcribe set, each ingested item is transcribed before its scratch
// directory is released.
func (s *Scribe) NewIngestionPipeline(transcribe bool, opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	base := []ingestion.Option{
		ingestion.WithLogger(s.logger),
		ingestion.WithWorkDir(s.cfg.Paths.WorkDir),
		ingestion.WithNamespace(s.cfg.Pipeline.Namespace),
		ingestion.WithProcessingVersion(s.cfg.Pipeline.ProcessingVersion),
		ingestion.WithKeepSource(s.cfg.Pipeline.KeepSource),
		ingestion.WithCleanScratch(s.cfg.Pipeline.CleanScratch),
	}
	if transcribe {
		orchestrator, err := s.NewOrchestrator()
		if err != nil {
			return nil, err
		}
		base = append(base, ingestion.WithTranscriber(orchestrator))
	}
	return ingestion.NewPipeline(s.fetcher, s.transcoder, s.blobs, s.records, append(base, opts...)...)
}

// NewIndexer creates a chunk indexer using the configured chunking.
func (s *Scribe) NewIndexer(opts ...search.IndexerOption) (*search.Indexer, error) {
	base := []search.IndexerOption{
		search.WithIndexLogger(s.logger),
		search.WithChunking(s.cfg.Embedding.ChunkSize, s.cfg.Embedding.ChunkOverlap),
		search.WithIndexNamespace(s.cfg.Pipeline.Namespace),
	}
	return search.NewIndexer(s.blobs, s.records, s.local.Chunks, s.embedder, append(base, opts...)...)
}

// NewSearcher creates a searcher over the indexed chunks.
func (s *Scribe) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(s.local.Chunks, s.embedder, append([]search.Option{search.WithLogger(s.logger)}, opts...)...)
}

// NewRunner creates a batch runner recording runs and failures in the
// configured stores. A nil progress writer disables progress output.
func (s *Scribe) NewRunner(progress io.Writer, opts ...batch.Option) (*batch.Runner, error) {
	cfg := &batch.Config{
		Concurrency:    s.cfg.Batch.Concurrency,
		MaxAttempts:    s.cfg.Batch.MaxAttempts,
		RetryDelay:     time.Duration(s.cfg.Batch.RetryDelaySeconds) * time.Second,
		ReportInterval: 1,
		RecordFailures: s.cfg.Batch.RecordFailures,
	}
	base := []batch.Option{
		batch.WithLogger(s.logger),
		batch.WithRunRepository(s.local.Runs),
		batch.WithMetadataStore(s.records),
	}
	if progress != nil {
		base = append(base, batch.WithProgress(progress))
	}
	return batch.NewRunner(cfg, append(base, opts...)...)
}
