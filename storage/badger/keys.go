package badger

import (
	"encoding/binary"
	"time"
)

// Key prefixes for different data types
const (
	recordPrefix    = "ingrec:"
	blobPrefix      = "blob:"
	blobPartPrefix  = "blobp:"
	chunkPrefix     = "chunk:"
	runPrefix       = "run:"
	runStartedIndex = "rund:"
)

// makeRecordKey generates a key for an ingest record by source id.
func makeRecordKey(sourceID string) []byte {
	return []byte(recordPrefix + sourceID)
}

// makeBlobKey generates the manifest key of a blob.
func makeBlobKey(key string) []byte {
	return []byte(blobPrefix + key)
}

// makeBlobPartKey generates the key of one stored part of a blob.
// Format: prefix:key#part, part in BigEndian so parts sort in order.
func makeBlobPartKey(key string, part uint32) []byte {
	prefix := blobPartPrefix + key + "#"
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], part)
	return buf
}

// makeChunkSourcePrefix generates the prefix shared by every chunk of a source.
// Source ids never contain '/', so the prefix cannot match a longer id.
func makeChunkSourcePrefix(sourceID string) []byte {
	return []byte(chunkPrefix + sourceID + "/")
}

// makeChunkKey generates a key for a chunk.
// Format: prefix:sourceID/seq
func makeChunkKey(sourceID string, seq int) []byte {
	prefix := makeChunkSourcePrefix(sourceID)
	buf := make([]byte, len(prefix)+4)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint32(buf[offset:], uint32(seq))
	return buf
}

// makeRunKey generates a key for a run by ID.
func makeRunKey(id string) []byte {
	return []byte(runPrefix + id)
}

// makeRunStartedKey generates a composite key for the run recency index.
// Format: prefix:timestamp:id
func makeRunStartedKey(startedAt time.Time, id string) []byte {
	prefix := runStartedIndex
	buf := make([]byte, len(prefix)+8+len(id))
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(startedAt.UnixMicro()))
	offset += 8
	copy(buf[offset:], id)
	return buf
}
