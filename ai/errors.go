package ai

import (
	"errors"
	"fmt"
	"os"
)

// MinAudioBytes is the smallest WAV file worth sending to a recognizer.
// Anything smaller is a header with no meaningful samples.
const MinAudioBytes = 2000

var (
	// ErrAudioUnusable indicates the audio file is missing or too small.
	ErrAudioUnusable = errors.New("audio unusable")

	// ErrRecognitionFailed indicates the speech recognizer itself failed.
	ErrRecognitionFailed = errors.New("speech recognition failed")
)

// CheckAudio verifies that path exists and is large enough to transcribe.
func CheckAudio(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAudioUnusable, err)
	}
	if info.Size() < MinAudioBytes {
		return fmt.Errorf("%w: %s is %d bytes", ErrAudioUnusable, path, info.Size())
	}
	return nil
}
