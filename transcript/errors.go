package transcript

import "errors"

var (
	// ErrBlobStoreRequired is returned when a blob store is not provided.
	ErrBlobStoreRequired = errors.New("blob store required")

	// ErrMetadataStoreRequired is returned when a metadata store is not provided.
	ErrMetadataStoreRequired = errors.New("metadata store required")

	// ErrNoRecognizer is the attempt error when ASR is needed but none is configured.
	ErrNoRecognizer = errors.New("no speech recognizer configured")

	// ErrNoCaptions is the attempt error when the item has no normalized caption file.
	ErrNoCaptions = errors.New("no captions available")
)
