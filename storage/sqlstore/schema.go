package sqlstore

// recordColumns lists the ingest_records columns in scan order.
var recordColumns = []string{
	"source_id",
	"title",
	"url",
	"status",
	"asset_audio_wav",
	"asset_metadata_json",
	"asset_ffprobe_json",
	"asset_captions_raw",
	"asset_captions_norm_vtt",
	"asset_transcript_txt",
	"asset_cues_json",
	"asset_hashes_json",
	"asset_provenance_json",
	"content_hash",
	"captions_hash",
	"has_captions",
	"processing_version",
	"pipeline",
	"channel_id",
	"channel_title",
	"duration_sec",
	"transcript_origin",
	"transcript_hash",
	"last_run_id",
	"last_error",
	"ingested_at",
	"updated_at",
	"transcribed_at",
}

const createRecordsTable = `CREATE TABLE IF NOT EXISTS ingest_records (
    source_id TEXT PRIMARY KEY,
    title TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT '',
    asset_audio_wav TEXT NOT NULL DEFAULT '',
    asset_metadata_json TEXT NOT NULL DEFAULT '',
    asset_ffprobe_json TEXT NOT NULL DEFAULT '',
    asset_captions_raw TEXT NOT NULL DEFAULT '',
    asset_captions_norm_vtt TEXT NOT NULL DEFAULT '',
    asset_transcript_txt TEXT NOT NULL DEFAULT '',
    asset_cues_json TEXT NOT NULL DEFAULT '',
    asset_hashes_json TEXT NOT NULL DEFAULT '',
    asset_provenance_json TEXT NOT NULL DEFAULT '',
    content_hash TEXT NOT NULL DEFAULT '',
    captions_hash TEXT NOT NULL DEFAULT '',
    has_captions BOOLEAN NOT NULL DEFAULT FALSE,
    processing_version TEXT NOT NULL DEFAULT '',
    pipeline TEXT NOT NULL DEFAULT '',
    channel_id TEXT NOT NULL DEFAULT '',
    channel_title TEXT NOT NULL DEFAULT '',
    duration_sec DOUBLE PRECISION NOT NULL DEFAULT 0,
    transcript_origin TEXT NOT NULL DEFAULT '',
    transcript_hash TEXT NOT NULL DEFAULT '',
    last_run_id TEXT NOT NULL DEFAULT '',
    last_error TEXT NOT NULL DEFAULT '',
    ingested_at TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL DEFAULT '',
    transcribed_at TEXT NOT NULL DEFAULT ''
)`

const createStatusIndex = `CREATE INDEX IF NOT EXISTS ingest_records_status ON ingest_records (status)`
