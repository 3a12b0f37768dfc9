// Package transcript decides where an item's transcript comes from and persists it.
//
// The decision is a small state machine (State, Advance) that tries the
// normalized caption file first and falls back to speech recognition over the
// derived WAV. Advance is pure; Orchestrator supplies the attempts, writes
// transcript.txt and cues.json through the blob store and marks the record
// transcribed.
package transcript
