package captions

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/scribe/core"
)

// ErrInvalidWindow is returned when a parser window is negative or empty.
var ErrInvalidWindow = errors.New("invalid cue window")

// State is the position of the cue parser between lines.
type State int

const (
	// AwaitingCue means no timestamp has been seen yet.
	AwaitingCue State = iota
	// BufferingText means text lines are collected for the current cue.
	BufferingText
)

func (s State) String() string {
	switch s {
	case AwaitingCue:
		return "awaiting_cue"
	case BufferingText:
		return "buffering_text"
	default:
		return "unknown"
	}
}

var (
	timestampPattern = regexp.MustCompile(`(\d+):(\d{2}):(\d{2}\.\d{3})\s*-->\s*(\d+):(\d{2}):(\d{2}\.\d{3})`)
	markupPattern    = regexp.MustCompile(`<[^>]*>`)
	reservedPrefixes = []string{"NOTE", "STYLE", "WEBVTT"}
)

const maxLineBytes = 1 << 20

// Anomaly is a line that looked like a timestamp but did not parse as one,
// or a timing line whose end lies before its start. The cue of an inverted
// timing line is dropped.
type Anomaly struct {
	Line int
	Text string
}

// Result is the outcome of parsing one caption file.
type Result struct {
	Cues      []core.Cue
	Anomalies []Anomaly
}

// Text joins the text of every cue with single spaces.
func (r *Result) Text() string {
	parts := make([]string, 0, len(r.Cues))
	for _, cue := range r.Cues {
		parts = append(parts, cue.Text)
	}
	return strings.Join(parts, " ")
}

// Parser converts caption files into windowed cues.
type Parser struct {
	startOffset float64
	maxEnd      float64
	hasMaxEnd   bool
	strict      bool
	logger      *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser) error

// WithStartOffset drops cues that end at or before sec.
func WithStartOffset(sec float64) Option {
	return func(p *Parser) error {
		if sec < 0 {
			return fmt.Errorf("%w: negative start offset %v", ErrInvalidWindow, sec)
		}
		p.startOffset = sec
		return nil
	}
}

// WithMaxEnd drops cues that are not fully contained before sec.
func WithMaxEnd(sec float64) Option {
	return func(p *Parser) error {
		if sec <= 0 {
			return fmt.Errorf("%w: max end %v must be positive", ErrInvalidWindow, sec)
		}
		p.maxEnd = sec
		p.hasMaxEnd = true
		return nil
	}
}

// WithWindow is shorthand for WithStartOffset and WithMaxEnd. A zero maxEnd
// leaves the window open-ended.
func WithWindow(startOffset, maxEnd float64) Option {
	return func(p *Parser) error {
		if err := WithStartOffset(startOffset)(p); err != nil {
			return err
		}
		if maxEnd == 0 {
			return nil
		}
		return WithMaxEnd(maxEnd)(p)
	}
}

// WithStrict makes malformed timestamp lines fail the parse instead of being
// kept as cue text.
func WithStrict() Option {
	return func(p *Parser) error {
		p.strict = true
		return nil
	}
}

// WithLogger sets a custom logger for the parser.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) error {
		if logger != nil {
			p.logger = logger
		}
		return nil
	}
}

// NewParser creates a Parser with the given options.
func NewParser(opts ...Option) (*Parser, error) {
	p := &Parser{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.hasMaxEnd && p.maxEnd <= p.startOffset {
		return nil, fmt.Errorf("%w: max end %v not after start offset %v", ErrInvalidWindow, p.maxEnd, p.startOffset)
	}
	p.logger = p.logger.With("component", "cue-parser")
	return p, nil
}

// ParseFile parses the caption file at path.
func (p *Parser) ParseFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open captions: %w", err)
	}
	defer f.Close()
	return p.parse(filepath.Base(path), f)
}

// Parse reads a caption document from r.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	return p.parse("captions", r)
}

type pendingCue struct {
	start, end float64
	lines      []string
	inverted   bool
}

func (p *Parser) parse(name string, r io.Reader) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	result := &Result{}
	state := AwaitingCue
	var cur pendingCue
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if m := timestampPattern.FindStringSubmatch(line); m != nil {
			if state == BufferingText {
				p.emit(result, cur)
			}
			cur = pendingCue{start: seconds(m[1], m[2], m[3]), end: seconds(m[4], m[5], m[6])}
			if cur.end < cur.start {
				if p.strict {
					return nil, fmt.Errorf("%w: %s:%d: end before start: %q", core.ErrParseAnomaly, name, lineNo, line)
				}
				p.logger.Debug("inverted cue dropped", "file", name, "line", lineNo)
				result.Anomalies = append(result.Anomalies, Anomaly{Line: lineNo, Text: line})
				cur.inverted = true
			}
			state = BufferingText
			continue
		}

		if strings.Contains(line, "-->") {
			if p.strict {
				return nil, fmt.Errorf("%w: %s:%d: %q", core.ErrParseAnomaly, name, lineNo, line)
			}
			p.logger.Debug("malformed timestamp kept as text", "file", name, "line", lineNo)
			result.Anomalies = append(result.Anomalies, Anomaly{Line: lineNo, Text: line})
		}

		if state == AwaitingCue || line == "" || isReserved(line) {
			continue
		}
		cur.lines = append(cur.lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if state == BufferingText {
		p.emit(result, cur)
	}
	return result, nil
}

func (p *Parser) emit(result *Result, cue pendingCue) {
	text := strings.Join(strings.Fields(markupPattern.ReplaceAllString(strings.Join(cue.lines, " "), "")), " ")
	if cue.inverted || text == "" || !p.inWindow(cue.start, cue.end) {
		return
	}
	seq := len(result.Cues) + 1
	result.Cues = append(result.Cues, core.Cue{
		Seq:   seq,
		ID:    core.CueID(seq),
		Text:  text,
		Start: cue.start,
		End:   cue.end,
	})
}

// inWindow keeps cues ending after the start offset and, when a max end is
// set, lying entirely before it.
func (p *Parser) inWindow(start, end float64) bool {
	if end <= p.startOffset {
		return false
	}
	if p.hasMaxEnd && (start >= p.maxEnd || end > p.maxEnd) {
		return false
	}
	return true
}

func isReserved(line string) bool {
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// seconds converts regex-validated H, MM and SS.mmm parts to seconds.
func seconds(h, m, s string) float64 {
	hours, _ := strconv.Atoi(h)
	minutes, _ := strconv.Atoi(m)
	secs, _ := strconv.ParseFloat(s, 64)
	return float64(hours*3600+minutes*60) + secs
}
