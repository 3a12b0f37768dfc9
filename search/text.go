package search

import (
	"strings"
	"unicode"
)

// ignoredWords never count toward a verbatim match. Besides common English
// function words it holds the filler that speech transcripts are full of.
var ignoredWords = wordSet(
	"the", "a", "an", "be", "is", "are", "was", "to", "of", "and", "in",
	"that", "have", "it", "for", "not", "on", "with", "as", "you", "do",
	"at", "this", "but", "by", "from",
	"um", "uh", "so", "okay", "like", "just",
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// keywords lowercases text, splits it on anything that is not a letter, digit
// or apostrophe, and drops ignored words.
func keywords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f == "" {
			continue
		}
		if _, skip := ignoredWords[f]; skip {
			continue
		}
		out = append(out, f)
	}
	return out
}

// containsAllQueryWords reports whether every keyword of query occurs in text.
// A query made only of ignored words never matches.
func containsAllQueryWords(text, query string) bool {
	want := keywords(query)
	if len(want) == 0 {
		return false
	}
	have := wordSet(keywords(text)...)
	for _, w := range want {
		if _, ok := have[w]; !ok {
			return false
		}
	}
	return true
}
