// Package mock provides test doubles for the ai interfaces.
//
// MockEmbedder returns deterministic unit vectors derived from a hash of the
// input text. MockRecognizer returns a fixed transcript or error and records
// the audio paths it was asked to transcribe. Both allow behavior injection
// through function fields and are safe for concurrent use.
//
//	recognizer := mock.NewMockRecognizer("spoken words")
//	recognizer.TranscribeFunc = func(ctx context.Context, path string) (string, error) {
//	    return "", errors.New("model unavailable")
//	}
package mock
