// Package tokenizer provides the shared text tokenization for indexing and
// queries. It lower-cases input, splits on non-alphanumeric boundaries, and
// optionally removes English stop-words. Documents and queries must go
// through the same Tokenizer so scores stay comparable.
package tokenizer

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

type Tokenizer struct {
	removeStopwords bool
}

func New(removeStopwords bool) *Tokenizer {
	return &Tokenizer{removeStopwords: removeStopwords}
}

// Tokenize breaks text into lowercased terms. Single-character terms are
// kept; dropping them would make some queries unanswerable.
func (t *Tokenizer) Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if t.removeStopwords {
			if _, isStop := stopWords[word]; isStop {
				continue
			}
		}
		terms = append(terms, word)
	}
	return terms
}
