package captions

import (
	"path/filepath"
	"slices"
	"strings"
)

// Track tiers, best first.
const (
	tierHuman = iota
	tierAuto
	tierNone
)

// SelectBest picks the preferred English caption file from candidates.
//
// Candidates follow the downloader's naming convention <base>.<lang>[.auto].vtt.
// Human-authored English tracks win over auto-generated ones; ties are broken
// by the lexicographically smallest file name. Non-English and non-VTT files
// are ignored. The second return value is false when nothing qualifies.
func SelectBest(candidates []string) (string, bool) {
	best := ""
	bestTier := tierNone
	for _, candidate := range candidates {
		tier := classify(filepath.Base(candidate))
		if tier == tierNone {
			continue
		}
		if tier < bestTier || (tier == bestTier && filepath.Base(candidate) < filepath.Base(best)) {
			best, bestTier = candidate, tier
		}
	}
	return best, bestTier != tierNone
}

// IsCaptionFile reports whether name looks like a caption track.
func IsCaptionFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".vtt")
}

func classify(name string) int {
	if !IsCaptionFile(name) {
		return tierNone
	}
	segments := strings.Split(strings.TrimSuffix(name, filepath.Ext(name)), ".")
	if len(segments) < 2 {
		return tierNone
	}
	tags := segments[1:]

	lang := ""
	for _, tag := range tags {
		if isEnglish(tag) {
			lang = tag
			break
		}
	}
	if lang == "" {
		return tierNone
	}
	if slices.Contains(tags, "auto") || strings.HasSuffix(strings.ToLower(lang), "-orig") {
		return tierAuto
	}
	return tierHuman
}

func isEnglish(tag string) bool {
	tag = strings.ToLower(tag)
	return tag == "en" || strings.HasPrefix(tag, "en-")
}
