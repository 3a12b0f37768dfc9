package search

import (
	"github.com/poiesic/scribe/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterSemanticSearch(ids []uint64)
	SemanticHit(chunk *core.Chunk, score float32)
	VerbatimHit(chunk *core.Chunk)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                       {}
func (n *noopMonitor) AfterSemanticSearch(_ []uint64)       {}
func (n *noopMonitor) SemanticHit(_ *core.Chunk, _ float32) {}
func (n *noopMonitor) VerbatimHit(_ *core.Chunk)            {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)        {}
