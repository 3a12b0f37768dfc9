package core

import (
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Binary codecs for the records kept in the embedded store. Field order is
// part of the on-disk format; append new fields at the end only.

// IngestRecordMUS serializes IngestRecord values.
var IngestRecordMUS = ingestRecordMUS{}

// ChunkMUS serializes Chunk values.
var ChunkMUS = chunkMUS{}

// RunMUS serializes Run values.
var RunMUS = runMUS{}

type ingestRecordMUS struct{}

func recordStrings(r *IngestRecord) []*string {
	return []*string{
		&r.SourceID,
		&r.Title,
		&r.URL,
		(*string)(&r.Status),
		&r.Assets.AudioWAV,
		&r.Assets.MetadataJSON,
		&r.Assets.FFProbeJSON,
		&r.Assets.CaptionsRaw,
		&r.Assets.CaptionsNormVTT,
		&r.Assets.TranscriptTXT,
		&r.Assets.CuesJSON,
		&r.Assets.HashesJSON,
		&r.Assets.ProvenanceJSON,
		&r.ContentHash,
		&r.CaptionsHash,
		&r.ProcessingVersion,
		&r.Pipeline,
		&r.ChannelID,
		&r.ChannelTitle,
		(*string)(&r.TranscriptOrigin),
		&r.TranscriptHash,
		&r.LastRunID,
		&r.LastError,
	}
}

func recordTimes(r *IngestRecord) []*time.Time {
	return []*time.Time{&r.IngestedAt, &r.UpdatedAt, &r.TranscribedAt}
}

func (ingestRecordMUS) Size(v IngestRecord) (size int) {
	size = sizeStrings(recordStrings(&v))
	size += ord.Bool.Size(v.HasCaptions)
	size += varint.Uint64.Size(math.Float64bits(v.DurationSec))
	return size + sizeTimes(recordTimes(&v))
}

func (ingestRecordMUS) Marshal(v IngestRecord, bs []byte) (n int) {
	n = marshalStrings(recordStrings(&v), bs)
	n += ord.Bool.Marshal(v.HasCaptions, bs[n:])
	n += varint.Uint64.Marshal(math.Float64bits(v.DurationSec), bs[n:])
	return n + marshalTimes(recordTimes(&v), bs[n:])
}

func (ingestRecordMUS) Unmarshal(bs []byte) (v IngestRecord, n int, err error) {
	n, err = unmarshalStrings(recordStrings(&v), bs)
	if err != nil {
		return
	}
	var n1 int
	v.HasCaptions, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var bits uint64
	bits, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.DurationSec = math.Float64frombits(bits)
	n1, err = unmarshalTimes(recordTimes(&v), bs[n:])
	n += n1
	return
}

type chunkMUS struct{}

func (chunkMUS) Size(v Chunk) (size int) {
	size = varint.Uint64.Size(uint64(v.ID))
	size += sizeStrings([]*string{&v.SourceID, &v.Text})
	size += varint.Int.Size(v.Seq)
	size += varint.Int.Size(len(v.Vector))
	for _, f := range v.Vector {
		size += varint.Uint32.Size(math.Float32bits(f))
	}
	return size
}

func (chunkMUS) Marshal(v Chunk, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(v.ID), bs)
	n += marshalStrings([]*string{&v.SourceID, &v.Text}, bs[n:])
	n += varint.Int.Marshal(v.Seq, bs[n:])
	n += varint.Int.Marshal(len(v.Vector), bs[n:])
	for _, f := range v.Vector {
		n += varint.Uint32.Marshal(math.Float32bits(f), bs[n:])
	}
	return n
}

func (chunkMUS) Unmarshal(bs []byte) (v Chunk, n int, err error) {
	var id uint64
	id, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v.ID = ID(id)
	var n1 int
	n1, err = unmarshalStrings([]*string{&v.SourceID, &v.Text}, bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Seq, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var length int
	length, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	if length < 0 || length > len(bs)-n {
		err = ErrCorruptEncoding
		return
	}
	if length > 0 {
		v.Vector = make([]float32, length)
	}
	for i := range length {
		var bits uint32
		bits, n1, err = varint.Uint32.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		v.Vector[i] = math.Float32frombits(bits)
	}
	return
}

type runMUS struct{}

func runStrings(r *Run) []*string { return []*string{&r.ID, &r.Command} }

func runCounts(r *Run) []*int { return []*int{&r.Total, &r.Succeeded, &r.Failed, &r.Skipped} }

func runTimes(r *Run) []*time.Time { return []*time.Time{&r.StartedAt, &r.FinishedAt} }

func (runMUS) Size(v Run) (size int) {
	size = sizeStrings(runStrings(&v))
	for _, c := range runCounts(&v) {
		size += varint.Int.Size(*c)
	}
	return size + sizeTimes(runTimes(&v))
}

func (runMUS) Marshal(v Run, bs []byte) (n int) {
	n = marshalStrings(runStrings(&v), bs)
	for _, c := range runCounts(&v) {
		n += varint.Int.Marshal(*c, bs[n:])
	}
	return n + marshalTimes(runTimes(&v), bs[n:])
}

func (runMUS) Unmarshal(bs []byte) (v Run, n int, err error) {
	n, err = unmarshalStrings(runStrings(&v), bs)
	if err != nil {
		return
	}
	var n1 int
	for _, c := range runCounts(&v) {
		*c, n1, err = varint.Int.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = unmarshalTimes(runTimes(&v), bs[n:])
	n += n1
	return
}

func sizeStrings(fields []*string) (size int) {
	for _, f := range fields {
		size += ord.String.Size(*f)
	}
	return size
}

func marshalStrings(fields []*string, bs []byte) (n int) {
	for _, f := range fields {
		n += ord.String.Marshal(*f, bs[n:])
	}
	return n
}

func unmarshalStrings(fields []*string, bs []byte) (n int, err error) {
	var n1 int
	for _, f := range fields {
		*f, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// Times are stored as Unix microseconds in UTC; the zero time maps to 0.
func unixMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromUnixMicro(us int64) time.Time {
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}

func sizeTimes(fields []*time.Time) (size int) {
	for _, f := range fields {
		size += varint.Int64.Size(unixMicro(*f))
	}
	return size
}

func marshalTimes(fields []*time.Time, bs []byte) (n int) {
	for _, f := range fields {
		n += varint.Int64.Marshal(unixMicro(*f), bs[n:])
	}
	return n
}

func unmarshalTimes(fields []*time.Time, bs []byte) (n int, err error) {
	var n1 int
	var us int64
	for _, f := range fields {
		us, n1, err = varint.Int64.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return n, err
		}
		*f = fromUnixMicro(us)
	}
	return n, nil
}
