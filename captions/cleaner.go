package captions

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// headerLines is the number of leading non-empty lines treated as the file
// preamble (WEBVTT, Kind, Language and the first cue timing on yt-dlp output).
const headerLines = 4

var (
	cueTimingPattern = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?\.\d{3}`)
	letterPattern    = regexp.MustCompile(`[A-Za-z]`)
)

// Clean flattens a caption document into one line of transcript text.
//
// Timing lines, markup lines, lines without letters and consecutive repeats
// of the last kept line are dropped; the rest are joined with single spaces.
func Clean(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var (
		kept    []string
		last    string
		skipped int
	)
	for scanner.Scan() {
		line := norm.NFC.String(strings.TrimSpace(scanner.Text()))
		if line == "" {
			continue
		}
		if skipped < headerLines {
			skipped++
			continue
		}
		if cueTimingPattern.MatchString(line) || strings.Contains(line, "-->") {
			continue
		}
		if strings.ContainsAny(line, "<>") {
			continue
		}
		if !letterPattern.MatchString(line) {
			continue
		}
		if line == last {
			continue
		}
		kept = append(kept, line)
		last = line
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read captions: %w", err)
	}
	return strings.TrimSpace(strings.Join(kept, " ")), nil
}

// CleanFile runs Clean over the caption file at path.
func CleanFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open captions: %w", err)
	}
	defer f.Close()
	return Clean(f)
}
