// Package metrics derives privacy-preserving counts and search terms from text.
package metrics

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Features holds basic local text features derived from an input string.
type Features struct {
	Bytes int
	Runes int
	Words int
	Lines int
	Terms int // distinct search terms after stopword removal
}

// CountFeatures computes byte, rune, word, line and distinct-term counts.
func CountFeatures(s string) Features {
	return Features{
		Bytes: len(s),
		Runes: utf8.RuneCountInString(s),
		Words: len(strings.Fields(s)),
		Lines: countLines(s),
		Terms: len(Terms(s)),
	}
}

// countLines returns 0 for empty strings; otherwise 1 plus the number of '\n' runes.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return 1 + strings.Count(s, "\n")
}

// stopwords are dropped from search terms. Kept short: question words and
// glue that appear in nearly every regulations query.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"can": {}, "do": {}, "does": {}, "for": {}, "from": {}, "how": {}, "i": {},
	"if": {}, "in": {}, "is": {}, "it": {}, "me": {}, "my": {}, "of": {}, "on": {},
	"or": {}, "so": {}, "that": {}, "the": {}, "there": {}, "this": {}, "to": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "why": {},
	"will": {}, "with": {}, "you": {}, "your": {}, "about": {}, "tell": {},
	"please": {}, "any": {}, "have": {}, "has": {}, "was": {}, "were": {},
}

// Tokens splits s into lower-cased runs of letters and digits, in order.
func Tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Terms returns the distinct non-stopword tokens of s in first-seen order.
// Single letters are dropped; single digits are kept (e.g. "semester 3").
func Terms(s string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range Tokens(s) {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		if utf8.RuneCountInString(tok) == 1 && !unicode.IsDigit([]rune(tok)[0]) {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
