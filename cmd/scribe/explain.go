package main

import (
	"fmt"
	"io"

	"github.com/poiesic/scribe/core"
	"github.com/poiesic/scribe/search"
)

// explainMonitor prints each search stage for --explain.
type explainMonitor struct {
	w io.Writer
}

var _ search.SearchMonitor = (*explainMonitor)(nil)

func (m *explainMonitor) Start(query string) {
	fmt.Fprintf(m.w, "query: %q\n", query)
}

func (m *explainMonitor) AfterSemanticSearch(ids []uint64) {
	fmt.Fprintf(m.w, "semantic candidates: %d\n", len(ids))
}

func (m *explainMonitor) SemanticHit(chunk *core.Chunk, score float32) {
	fmt.Fprintf(m.w, "  %s#%d similarity %.3f\n", chunk.SourceID, chunk.Seq, score)
}

func (m *explainMonitor) VerbatimHit(chunk *core.Chunk) {
	fmt.Fprintf(m.w, "  %s#%d verbatim +%.1f\n", chunk.SourceID, chunk.Seq, search.VerbatimBoost)
}

func (m *explainMonitor) Finish(results []*core.SearchResult) {
	fmt.Fprintf(m.w, "results: %d\n", len(results))
}
