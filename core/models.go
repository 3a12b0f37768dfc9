package core

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a compact identifier for index entries such as transcript chunks.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DefaultWatchURL is the URL template for items whose manifest row has no URL.
const DefaultWatchURL = "https://www.youtube.com/watch?v=%s"

// SourceItem identifies one remote video. It is immutable once read from a manifest.
type SourceItem struct {
	ID    string
	Title string
	URL   string
}

// WatchURL returns the item's URL, falling back to the default watch page.
func (s SourceItem) WatchURL() string {
	if s.URL != "" {
		return s.URL
	}
	return fmt.Sprintf(DefaultWatchURL, s.ID)
}

// SourceInfo holds the subset of the fetcher's info document that ends up on the record.
type SourceInfo struct {
	ChannelID    string
	ChannelTitle string
	DurationSec  float64
	ETag         string
}

// FetchedAssets is the local result of a fetch. It is owned by a single pipeline run.
type FetchedAssets struct {
	Dir               string   // per-item scratch directory
	AudioPath         string   // best-effort located audio file
	InfoPath          string   // fetcher metadata document, may be empty
	CaptionCandidates []string // caption files in Dir, base names
	Info              SourceInfo
}

// Origin records where a transcript came from.
type Origin string

const (
	OriginNone    Origin = "none"
	OriginCaption Origin = "caption"
	OriginASR     Origin = "asr"
)

// Status is the processing state persisted on an IngestRecord.
type Status string

const (
	StatusAudioIngested Status = "audio_ingested"
	StatusTranscribed   Status = "transcribed"
	StatusFailed        Status = "failed"
)

// Succeeded reports whether s marks a completed pipeline stage.
func (s Status) Succeeded() bool {
	return s == StatusAudioIngested || s == StatusTranscribed
}

// PipelineName tags records produced by the ingestion pipeline.
const PipelineName = "audio-first"

// Cue is one timed caption unit.
type Cue struct {
	Seq   int // 1-based, contiguous across surviving cues
	ID    string
	Text  string
	Start float64 // seconds
	End   float64 // seconds
}

// CueID formats the stable identifier for the cue at position seq.
func CueID(seq int) string {
	return fmt.Sprintf("utt_%06d", seq)
}

// Transcript is the normalized text of one source item.
type Transcript struct {
	SourceID string
	Text     string
	Origin   Origin
}

// Empty reports whether the transcript has no usable text.
func (t *Transcript) Empty() bool {
	return t == nil || strings.TrimSpace(t.Text) == ""
}

// AssetURIs records where each persisted artifact of an item lives.
// An empty field means the artifact was never written.
type AssetURIs struct {
	AudioWAV        string `json:"audio_wav,omitempty" bson:"audio_wav,omitempty"`
	MetadataJSON    string `json:"metadata_json,omitempty" bson:"metadata_json,omitempty"`
	FFProbeJSON     string `json:"ffprobe_json,omitempty" bson:"ffprobe_json,omitempty"`
	CaptionsRaw     string `json:"captions_raw,omitempty" bson:"captions_raw,omitempty"`
	CaptionsNormVTT string `json:"captions_norm_vtt,omitempty" bson:"captions_norm_vtt,omitempty"`
	TranscriptTXT   string `json:"transcript_txt,omitempty" bson:"transcript_txt,omitempty"`
	CuesJSON        string `json:"cues_json,omitempty" bson:"cues_json,omitempty"`
	HashesJSON      string `json:"hashes_json,omitempty" bson:"hashes_json,omitempty"`
	ProvenanceJSON  string `json:"provenance_json,omitempty" bson:"provenance_json,omitempty"`
}

// Merge returns a copy of a with every non-empty field of patch applied.
func (a AssetURIs) Merge(patch AssetURIs) AssetURIs {
	pick := func(old, new string) string {
		if new != "" {
			return new
		}
		return old
	}
	return AssetURIs{
		AudioWAV:        pick(a.AudioWAV, patch.AudioWAV),
		MetadataJSON:    pick(a.MetadataJSON, patch.MetadataJSON),
		FFProbeJSON:     pick(a.FFProbeJSON, patch.FFProbeJSON),
		CaptionsRaw:     pick(a.CaptionsRaw, patch.CaptionsRaw),
		CaptionsNormVTT: pick(a.CaptionsNormVTT, patch.CaptionsNormVTT),
		TranscriptTXT:   pick(a.TranscriptTXT, patch.TranscriptTXT),
		CuesJSON:        pick(a.CuesJSON, patch.CuesJSON),
		HashesJSON:      pick(a.HashesJSON, patch.HashesJSON),
		ProvenanceJSON:  pick(a.ProvenanceJSON, patch.ProvenanceJSON),
	}
}

// IngestRecord is the keyed metadata document for one source item.
// Zero-valued fields are treated as "not set" when a record is used as a patch.
type IngestRecord struct {
	SourceID          string
	Title             string
	URL               string
	Status            Status
	Assets            AssetURIs
	ContentHash       string // hex digest of derived/audio.wav
	CaptionsHash      string
	HasCaptions       bool
	ProcessingVersion string
	Pipeline          string
	ChannelID         string
	ChannelTitle      string
	DurationSec       float64
	TranscriptOrigin  Origin
	TranscriptHash    string
	LastRunID         string
	LastError         string
	IngestedAt        time.Time
	UpdatedAt         time.Time
	TranscribedAt     time.Time
}

// Merge applies patch on top of r and returns the result as a new record.
// Fields left at their zero value in patch keep the value from r.
// HasCaptions can only be raised by a patch, never cleared. A successful
// status clears LastError.
func (r *IngestRecord) Merge(patch *IngestRecord) *IngestRecord {
	if r == nil {
		out := *patch
		return &out
	}
	out := *r
	if patch == nil {
		return &out
	}
	str := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	tm := func(dst *time.Time, v time.Time) {
		if !v.IsZero() {
			*dst = v
		}
	}
	str(&out.Title, patch.Title)
	str(&out.URL, patch.URL)
	if patch.Status != "" {
		out.Status = patch.Status
	}
	out.Assets = out.Assets.Merge(patch.Assets)
	str(&out.ContentHash, patch.ContentHash)
	str(&out.CaptionsHash, patch.CaptionsHash)
	out.HasCaptions = out.HasCaptions || patch.HasCaptions
	str(&out.ProcessingVersion, patch.ProcessingVersion)
	str(&out.Pipeline, patch.Pipeline)
	str(&out.ChannelID, patch.ChannelID)
	str(&out.ChannelTitle, patch.ChannelTitle)
	if patch.DurationSec != 0 {
		out.DurationSec = patch.DurationSec
	}
	if patch.TranscriptOrigin != "" {
		out.TranscriptOrigin = patch.TranscriptOrigin
	}
	str(&out.TranscriptHash, patch.TranscriptHash)
	str(&out.LastRunID, patch.LastRunID)
	str(&out.LastError, patch.LastError)
	if patch.Status.Succeeded() {
		out.LastError = ""
	}
	tm(&out.IngestedAt, patch.IngestedAt)
	tm(&out.UpdatedAt, patch.UpdatedAt)
	tm(&out.TranscribedAt, patch.TranscribedAt)
	return &out
}

// Chunk is an embedded slice of a transcript used for retrieval.
type Chunk struct {
	ID       ID
	SourceID string
	Seq      int
	Text     string
	Vector   []float32
}

// ChunkID derives the stable ID of the seq-th chunk of a source.
func ChunkID(sourceID string, seq int) ID {
	return IDFromContent(fmt.Sprintf("%s#%d", sourceID, seq))
}

// SearchResult pairs a chunk with its similarity score.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}

// Run summarizes one batch invocation.
type Run struct {
	ID         string
	Command    string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Succeeded  int
	Failed     int
	Skipped    int
}
