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


// Package ai provides abstractions for the machine learning services scribe uses.
//
// Two interfaces are defined here:
//
//   - Embedder: generates vector embeddings for transcript chunks
//   - SpeechRecognizer: produces a transcript from audio when captions are missing
//
// # Implementation Packages
//
//   - ai/openai: Embedder backed by OpenAI-compatible APIs through langchaingo
//   - ai/whisperx: SpeechRecognizer that runs WhisperX via uvx
//   - ai/mock: deterministic test doubles for both interfaces
//
// Public constructors of production implementations return the interface
// types. Mock constructors return concrete types so tests can inject behavior
// and inspect call counts.
//
//	embedder, err := openai.NewEmbedder(ai.DefaultConfig())
//	recognizer := whisperx.NewRecognizer(ai.DefaultConfig())
//	text, err := recognizer.Transcribe(ctx, "work/abc123/audio.wav")
package ai
