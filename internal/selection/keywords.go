// Package selection implements the account selection decision engine:
// an AI-primary, deterministic-fallback protocol that assigns a billing
// account to an issue-linked unit of work.
package selection

import (
	"strings"
	"unicode"
)

// stopWords are common words carrying no signal for account matching.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {}, "from": {}, "as": {}, "into": {}, "about": {},
	"is": {}, "was": {}, "are": {}, "were": {}, "been": {}, "be": {},
	"have": {}, "has": {}, "had": {}, "do": {}, "does": {}, "did": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "may": {},
	"might": {}, "can": {}, "shall": {}, "must": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "there": {},
	"it": {}, "its": {}, "they": {}, "them": {}, "their": {},
	"we": {}, "us": {}, "our": {}, "you": {}, "your": {},
	"he": {}, "she": {}, "him": {}, "her": {}, "his": {},
	"i": {}, "me": {}, "my": {}, "what": {}, "which": {}, "who": {},
	"when": {}, "where": {}, "how": {}, "all": {}, "each": {},
	"other": {}, "some": {}, "such": {}, "than": {}, "then": {},
	"also": {}, "very": {}, "just": {}, "more": {}, "most": {},
}

// ExtractKeywords normalizes free text into comparable significant words:
// lower-cased, non-alphanumeric characters stripped in place (so "won't"
// becomes "wont"), tokens shorter than three characters and stop words
// discarded. Order of surviving tokens is preserved. Never fails; empty
// text yields no tokens.
func ExtractKeywords(text string) []string {
	var out []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		var b strings.Builder
		for _, r := range field {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				b.WriteRune(r)
			}
		}
		word := b.String()
		if len(word) < 3 {
			continue
		}
		if _, ok := stopWords[word]; ok {
			continue
		}
		out = append(out, word)
	}
	return out
}
