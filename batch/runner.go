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


package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/storage"
)

// Config holds configuration for a batch run.
type Config struct {
	// Concurrency is the number of items processed at once
	Concurrency int

	// MaxAttempts is the number of tries per item. 1 disables retries.
	MaxAttempts int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// ReportInterval is how often to report progress (number of items)
	ReportInterval int

	// RecordFailures writes LastError, and status failed for items without a
	// record, to the metadata store when an item fails
	RecordFailures bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Concurrency:    1,
		MaxAttempts:    1,
		RetryDelay:     2 * time.Second,
		ReportInterval: 1,
		RecordFailures: true,
	}
}

// Validate checks the config for values the runner cannot use.
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}
	return nil
}

// Task processes one item of a run.
type Task func(ctx context.Context, runID, id string) error

// Runner fans a list of items out over a bounded worker pool. A failing item
// never stops the others.
type Runner struct {
	config   *Config
	runs     storage.RunRepository
	records  storage.MetadataStore
	progress io.Writer
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner) error

// WithRunRepository persists a summary of every run.
func WithRunRepository(runs storage.RunRepository) Option {
	return func(r *Runner) error {
		r.runs = runs
		return nil
	}
}

// WithMetadataStore enables failure recording on item records.
func WithMetadataStore(records storage.MetadataStore) Option {
	return func(r *Runner) error {
		r.records = records
		return nil
	}
}

// WithProgress sets where progress lines go. Default discards them.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) error {
		r.progress = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRunner creates a runner. A nil config means DefaultConfig.
func NewRunner(config *Config, opts ...Option) (*Runner, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{
		config:   config,
		progress: io.Discard,
		logger:   slog.Default(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "batch")
	return r, nil
}

// Run executes task once per id and returns the run summary. The returned
// error joins every item failure, each prefixed with its id; it is nil when
// all items succeeded or were skipped.
func (r *Runner) Run(ctx context.Context, command string, ids []string, task Task) (*core.Run, error) {
	run := &core.Run{
		ID:        uuid.NewString(),
		Command:   command,
		StartedAt: r.now(),
		Total:     len(ids),
	}
	logger := r.logger.With("run_id", run.ID, "command", command)
	r.saveRun(ctx, run)

	pool, err := ants.NewPool(r.config.Concurrency)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	tracker := NewProgressTracker(r.progress, len(ids), r.config.ReportInterval)
	tracker.Start()

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		errs []error
	)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			err := RetryWithBackoff(ctx, func() error {
				return task(ctx, run.ID, id)
			}, r.config.MaxAttempts, r.config.RetryDelay)

			mu.Lock()
			switch {
			case err == nil:
				run.Succeeded++
			case errors.Is(err, ErrSkipped):
				run.Skipped++
			default:
				run.Failed++
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
			}
			mu.Unlock()

			if err != nil && !errors.Is(err, ErrSkipped) {
				logger.Error("item failed", "source_id", id, "err", err)
				r.recordFailure(ctx, run.ID, id, err)
			}
			tracker.Done(err)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			run.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", id, submitErr))
			mu.Unlock()
		}
	}
	wg.Wait()
	tracker.Finish()

	run.FinishedAt = r.now()
	r.saveRun(context.WithoutCancel(ctx), run)
	logger.Info("run finished",
		"total", run.Total, "succeeded", run.Succeeded, "failed", run.Failed, "skipped", run.Skipped,
		"elapsed", tracker.Elapsed().Round(time.Millisecond))

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return run, errors.Join(errs...)
}

func (r *Runner) saveRun(ctx context.Context, run *core.Run) {
	if r.runs == nil {
		return
	}
	if err := r.runs.SaveRun(ctx, run); err != nil {
		r.logger.Warn("failed to save run", "run_id", run.ID, "err", err)
	}
}

// recordFailure notes err on the item's record. Items that already have a
// record keep their status and assets; only items never ingested are marked
// failed.
func (r *Runner) recordFailure(ctx context.Context, runID, id string, err error) {
	if r.records == nil || !r.config.RecordFailures {
		return
	}
	if core.ValidateSourceID(id) != nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	patch := &core.IngestRecord{
		SourceID:  id,
		LastError: err.Error(),
		LastRunID: runID,
		UpdatedAt: r.now(),
	}
	_, getErr := r.records.Get(ctx, id)
	switch {
	case getErr == nil:
	case errors.Is(getErr, storage.ErrNotFound):
		patch.Status = core.StatusFailed
	default:
		r.logger.Warn("failed to load record for failure", "source_id", id, "err", getErr)
		return
	}
	if _, upsertErr := r.records.Upsert(ctx, patch); upsertErr != nil {
		r.logger.Warn("failed to record failure", "source_id", id, "err", upsertErr)
	}
}
