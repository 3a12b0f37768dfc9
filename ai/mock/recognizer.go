package mock

import (
	"context"
	"sync"

	"github.com/poiesic/scribe/ai"
)

// MockRecognizer is a test double for ai.SpeechRecognizer.
type MockRecognizer struct {
	// TranscribeFunc is called by Transcribe if set.
	TranscribeFunc func(ctx context.Context, audioPath string) (string, error)

	// Text is returned when TranscribeFunc is nil.
	Text string

	// Err is returned when TranscribeFunc is nil.
	Err error

	// CheckAudio applies the real size check before answering.
	CheckAudio bool

	mu    sync.Mutex
	paths []string
}

var _ ai.SpeechRecognizer = (*MockRecognizer)(nil)

// NewMockRecognizer creates a recognizer that always answers text.
func NewMockRecognizer(text string) *MockRecognizer {
	return &MockRecognizer{Text: text}
}

// NewFailingRecognizer creates a recognizer that always fails with err.
func NewFailingRecognizer(err error) *MockRecognizer {
	return &MockRecognizer{Err: err}
}

// Transcribe records audioPath and returns the configured outcome.
func (m *MockRecognizer) Transcribe(ctx context.Context, audioPath string) (string, error) {
	m.mu.Lock()
	m.paths = append(m.paths, audioPath)
	m.mu.Unlock()

	if m.CheckAudio {
		if err := ai.CheckAudio(audioPath); err != nil {
			return "", err
		}
	}
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audioPath)
	}
	return m.Text, m.Err
}

// Calls returns the audio paths passed to Transcribe, in call order.
func (m *MockRecognizer) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}
