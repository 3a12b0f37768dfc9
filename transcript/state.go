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


package transcript

import (
	"strings"

	"github.com/poiesic/scribe/core"
)

// State is a step of the transcript fallback machine.
type State int

const (
	// NoAttempt is the initial state; the caption source is tried next.
	NoAttempt State = iota
	// CaptionTried means captions were missing or produced no text; ASR is tried next.
	CaptionTried
	// ASRTried means speech recognition failed as well.
	ASRTried
	// Resolved is terminal: a transcript was produced.
	Resolved
	// Unresolved is terminal: no source produced text.
	Unresolved
)

func (s State) String() string {
	switch s {
	case NoAttempt:
		return "no_attempt"
	case CaptionTried:
		return "caption_tried"
	case ASRTried:
		return "asr_tried"
	case Resolved:
		return "resolved"
	case Unresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further attempts can change s.
func (s State) Terminal() bool {
	return s == Resolved || s == Unresolved
}

// Source names a transcript source.
type Source int

const (
	// SourceNone is used to close out a machine with nothing left to try.
	SourceNone Source = iota
	SourceCaption
	SourceASR
)

func (s Source) String() string {
	switch s {
	case SourceCaption:
		return "caption"
	case SourceASR:
		return "asr"
	default:
		return "none"
	}
}

// Attempt is the outcome of trying one source.
type Attempt struct {
	Source Source
	Text   string
	Err    error
}

// Succeeded reports whether the attempt produced usable text.
func (a Attempt) Succeeded() bool {
	return a.Err == nil && strings.TrimSpace(a.Text) != ""
}

// Next returns the source that should be tried in state s, or SourceNone
// when the machine only needs to be closed out.
func Next(s State) Source {
	switch s {
	case NoAttempt:
		return SourceCaption
	case CaptionTried:
		return SourceASR
	default:
		return SourceNone
	}
}

// Advance applies attempt to state and returns the new state and the origin
// of the transcript on the transition into Resolved.
//
// Sources are tried strictly in order: captions, then ASR. An attempt for
// a source other than Next(state) leaves the state unchanged. Terminal
// states never move.
func Advance(state State, attempt Attempt) (State, core.Origin) {
	switch state {
	case NoAttempt:
		if attempt.Source != SourceCaption {
			return state, core.OriginNone
		}
		if attempt.Succeeded() {
			return Resolved, core.OriginCaption
		}
		return CaptionTried, core.OriginNone
	case CaptionTried:
		if attempt.Source != SourceASR {
			return state, core.OriginNone
		}
		if attempt.Succeeded() {
			return Resolved, core.OriginASR
		}
		return ASRTried, core.OriginNone
	case ASRTried:
		return Unresolved, core.OriginNone
	default:
		return state, core.OriginNone
	}
}
