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


// Package captions turns WebVTT caption files into cues and flat transcripts.
//
// Three pieces live here:
//   - SelectBest picks the preferred English track from the files a fetch produced
//   - Parser walks a caption file as a two-state machine and emits windowed cues
//   - Clean flattens a caption file into a single normalized transcript string
//
// All three are pure with respect to their inputs and safe for concurrent use.
package captions
