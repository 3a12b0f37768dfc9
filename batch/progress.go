package batch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// ProgressTracker prints a single self-overwriting status line for a run.
// It is safe for concurrent use by the workers of one run.
type ProgressTracker struct {
	mu sync.Mutex

	w        io.Writer
	total    int
	interval int

	done, failed, skipped int
	lastLine              int
	startedAt             time.Time
	now                   func() time.Time
}

// NewProgressTracker creates a tracker for total items that prints every
// interval finished items. A nil writer discards output.
func NewProgressTracker(w io.Writer, total, interval int) *ProgressTracker {
	if w == nil {
		w = io.Discard
	}
	return &ProgressTracker{
		w:        w,
		total:    total,
		interval: max(interval, 1),
		now:      time.Now,
	}
}

// TerminalWriter returns f when it is an interactive terminal and
// io.Discard otherwise, so redirected output stays free of progress lines.
func TerminalWriter(f *os.File) io.Writer {
	if f != nil && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return f
	}
	return io.Discard
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startedAt = p.now()
	p.done, p.failed, p.skipped, p.lastLine = 0, 0, 0, 0
}

// Done counts one finished item by the error its task returned. Calls before
// Start are ignored.
func (p *ProgressTracker) Done(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.startedAt.IsZero() || p.done >= p.total {
		return
	}
	p.done++
	switch {
	case err == nil:
	case errors.Is(err, ErrSkipped):
		p.skipped++
	default:
		p.failed++
	}
	if p.done-p.lastLine >= p.interval {
		p.print()
		p.lastLine = p.done
	}
}

// Finish prints the final line and ends it.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.startedAt.IsZero() {
		return
	}
	p.print()
	fmt.Fprintln(p.w)
}

// Elapsed is the time since Start, or zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.startedAt.IsZero() {
		return 0
	}
	return p.now().Sub(p.startedAt)
}

// print writes the status line. Caller holds p.mu.
func (p *ProgressTracker) print() {
	elapsed := p.now().Sub(p.startedAt)
	pct := 100.0
	if p.total > 0 {
		pct = float64(p.done) * 100 / float64(p.total)
	}

	eta := "-"
	if p.done > 0 && p.done < p.total {
		remaining := elapsed / time.Duration(p.done) * time.Duration(p.total-p.done)
		eta = remaining.Round(time.Second).String()
	}

	fmt.Fprintf(p.w, "\r%d/%d (%.1f%%) %d failed, %d skipped, eta %s   ",
		p.done, p.total, pct, p.failed, p.skipped, eta)
}
