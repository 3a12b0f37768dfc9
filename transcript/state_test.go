package transcript

import (
	"errors"
	"testing"

	"github.com/poiesic/scribe/core"
	"github.com/stretchr/testify/assert"
)

func TestAdvance(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name       string
		state      State
		attempt    Attempt
		wantState  State
		wantOrigin core.Origin
	}{
		{"caption text resolves", NoAttempt, Attempt{Source: SourceCaption, Text: "hi"}, Resolved, core.OriginCaption},
		{"empty caption falls through", NoAttempt, Attempt{Source: SourceCaption, Text: "  "}, CaptionTried, core.OriginNone},
		{"missing caption falls through", NoAttempt, Attempt{Source: SourceCaption, Err: boom}, CaptionTried, core.OriginNone},
		{"asr before caption ignored", NoAttempt, Attempt{Source: SourceASR, Text: "hi"}, NoAttempt, core.OriginNone},
		{"asr text resolves", CaptionTried, Attempt{Source: SourceASR, Text: "hi"}, Resolved, core.OriginASR},
		{"asr failure", CaptionTried, Attempt{Source: SourceASR, Err: boom}, ASRTried, core.OriginNone},
		{"asr text with error fails", CaptionTried, Attempt{Source: SourceASR, Text: "hi", Err: boom}, ASRTried, core.OriginNone},
		{"caption retry ignored", CaptionTried, Attempt{Source: SourceCaption, Text: "hi"}, CaptionTried, core.OriginNone},
		{"exhausted closes out", ASRTried, Attempt{Source: SourceNone}, Unresolved, core.OriginNone},
		{"resolved is terminal", Resolved, Attempt{Source: SourceCaption, Text: "x"}, Resolved, core.OriginNone},
		{"unresolved is terminal", Unresolved, Attempt{Source: SourceASR, Text: "x"}, Unresolved, core.OriginNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, origin := Advance(tt.state, tt.attempt)
			assert.Equal(t, tt.wantState, state)
			assert.Equal(t, tt.wantOrigin, origin)
		})
	}
}

func TestNext(t *testing.T) {
	assert.Equal(t, SourceCaption, Next(NoAttempt))
	assert.Equal(t, SourceASR, Next(CaptionTried))
	assert.Equal(t, SourceNone, Next(ASRTried))
	assert.Equal(t, SourceNone, Next(Resolved))
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "caption_tried", CaptionTried.String())
	assert.Equal(t, "unresolved", Unresolved.String())
	assert.True(t, Resolved.Terminal())
	assert.False(t, ASRTried.Terminal())
	assert.Equal(t, "asr", SourceASR.String())
}
