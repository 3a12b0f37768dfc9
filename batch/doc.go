// Package batch runs a per-item task over many source items.
//
// Runner submits one task per item to an ants worker pool, isolates failures,
// optionally retries with exponential backoff and records a core.Run summary.
// ProgressTracker prints a single updating progress line, which callers
// usually route through TerminalWriter so pipes and log files stay clean.
package batch
