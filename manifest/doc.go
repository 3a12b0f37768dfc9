// Package manifest reads and writes the CSV lists that drive batch runs.
//
// A manifest has the header "video_id,title" and an optional "url" column.
// Discoverer builds manifests from YouTube RSS/Atom feeds, and Export writes
// the stored transcripts back out as one CSV row per item.
package manifest
