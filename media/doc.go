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


// Package media wraps the external programs that download and derive audio.
//
// YTDLPFetcher drives yt-dlp to pull the best audio stream, caption tracks and
// the info document of one source item into a scratch directory.
// FFmpegTranscoder probes the downloaded file with ffprobe and derives the
// canonical mono 16 kHz PCM WAV that the content hash is computed over.
//
// Both accept a CommandRunner so tests can substitute the external programs.
package media
