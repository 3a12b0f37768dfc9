package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/poiesic/scribe/core"
)

// recordDoc is the stored shape of an IngestRecord.
type recordDoc struct {
	SourceID          string         `bson:"_id"`
	Title             string         `bson:"title,omitempty"`
	URL               string         `bson:"url,omitempty"`
	Status            string         `bson:"status,omitempty"`
	Assets            core.AssetURIs `bson:"assets,omitempty"`
	ContentHash       string         `bson:"content_hash,omitempty"`
	CaptionsHash      string         `bson:"captions_hash,omitempty"`
	HasCaptions       bool           `bson:"has_captions"`
	ProcessingVersion string         `bson:"processing_version,omitempty"`
	Pipeline          string         `bson:"pipeline,omitempty"`
	ChannelID         string         `bson:"channel_id,omitempty"`
	ChannelTitle      string         `bson:"channel_title,omitempty"`
	DurationSec       float64        `bson:"dur_sec,omitempty"`
	TranscriptOrigin  string         `bson:"transcript_origin,omitempty"`
	TranscriptHash    string         `bson:"transcript_hash,omitempty"`
	LastRunID         string         `bson:"last_run_id,omitempty"`
	LastError         string         `bson:"last_error,omitempty"`
	IngestedAt        time.Time      `bson:"ingested_at,omitempty"`
	UpdatedAt         time.Time      `bson:"updated_at,omitempty"`
	TranscribedAt     time.Time      `bson:"transcribed_at,omitempty"`
}

func (d *recordDoc) toRecord() *core.IngestRecord {
	utc := func(t time.Time) time.Time {
		if t.IsZero() {
			return t
		}
		return t.UTC()
	}
	return &core.IngestRecord{
		SourceID:          d.SourceID,
		Title:             d.Title,
		URL:               d.URL,
		Status:            core.Status(d.Status),
		Assets:            d.Assets,
		ContentHash:       d.ContentHash,
		CaptionsHash:      d.CaptionsHash,
		HasCaptions:       d.HasCaptions,
		ProcessingVersion: d.ProcessingVersion,
		Pipeline:          d.Pipeline,
		ChannelID:         d.ChannelID,
		ChannelTitle:      d.ChannelTitle,
		DurationSec:       d.DurationSec,
		TranscriptOrigin:  core.Origin(d.TranscriptOrigin),
		TranscriptHash:    d.TranscriptHash,
		LastRunID:         d.LastRunID,
		LastError:         d.LastError,
		IngestedAt:        utc(d.IngestedAt),
		UpdatedAt:         utc(d.UpdatedAt),
		TranscribedAt:     utc(d.TranscribedAt),
	}
}

// buildUpdate translates a patch into a $set/$setOnInsert update. The two
// operators never name the same field.
func buildUpdate(p *core.IngestRecord, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	onInsert := bson.M{}

	str := func(field, value string) {
		if value != "" {
			set[field] = value
		}
	}
	str("title", p.Title)
	str("url", p.URL)
	str("status", string(p.Status))
	str("assets.audio_wav", p.Assets.AudioWAV)
	str("assets.metadata_json", p.Assets.MetadataJSON)
	str("assets.ffprobe_json", p.Assets.FFProbeJSON)
	str("assets.captions_raw", p.Assets.CaptionsRaw)
	str("assets.captions_norm_vtt", p.Assets.CaptionsNormVTT)
	str("assets.transcript_txt", p.Assets.TranscriptTXT)
	str("assets.cues_json", p.Assets.CuesJSON)
	str("assets.hashes_json", p.Assets.HashesJSON)
	str("assets.provenance_json", p.Assets.ProvenanceJSON)
	str("content_hash", p.ContentHash)
	str("captions_hash", p.CaptionsHash)
	str("processing_version", p.ProcessingVersion)
	str("pipeline", p.Pipeline)
	str("channel_id", p.ChannelID)
	str("channel_title", p.ChannelTitle)
	str("transcript_origin", string(p.TranscriptOrigin))
	str("transcript_hash", p.TranscriptHash)
	str("last_run_id", p.LastRunID)
	str("last_error", p.LastError)
	if p.Status.Succeeded() {
		set["last_error"] = ""
	}

	if p.HasCaptions {
		set["has_captions"] = true
	} else {
		onInsert["has_captions"] = false
	}
	if p.DurationSec != 0 {
		set["dur_sec"] = p.DurationSec
	}
	if !p.IngestedAt.IsZero() {
		set["ingested_at"] = p.IngestedAt
	} else {
		onInsert["ingested_at"] = now
	}
	if !p.TranscribedAt.IsZero() {
		set["transcribed_at"] = p.TranscribedAt
	}

	update := bson.M{"$set": set}
	if len(onInsert) > 0 {
		update["$setOnInsert"] = onInsert
	}
	return update
}
