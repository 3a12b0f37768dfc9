// Package ingestion provides the per-item pipeline that turns a source video
// into stored artifacts and a metadata record.
//
// A Pipeline run for one item:
//   - locks the item's scratch directory
//   - fetches audio, captions and the info document
//   - probes the audio and derives canonical mono 16 kHz audio.wav
//   - selects and normalizes the best English caption
//   - hashes the derived assets
//   - uploads raw and derived artifacts, skipping keys that already exist
//   - upserts the item's IngestRecord
//
// Re-running an item is safe: existing blobs are never rewritten and the
// record merge never clears fields set by earlier runs. Steps run strictly in
// order and nothing is rolled back on failure.
package ingestion
