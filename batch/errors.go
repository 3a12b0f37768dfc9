package batch

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrInvalidConcurrency is returned when the worker count is <= 0
	ErrInvalidConcurrency = errors.New("concurrency must be greater than 0")

	// ErrSkipped marks an item a task chose not to process. Tasks wrap it to
	// have the item counted as skipped instead of failed.
	ErrSkipped = errors.New("item skipped")
)
