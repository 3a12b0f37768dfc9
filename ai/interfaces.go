package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// SpeechRecognizer turns a local audio file into transcript text.
// Implementations must be thread-safe for concurrent use.
type SpeechRecognizer interface {
	// Transcribe recognizes speech in the WAV file at audioPath.
	// It returns ErrAudioUnusable when the file is missing or too small
	// to contain speech. An empty string with a nil error means the
	// recognizer ran but heard nothing.
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
