// Package tokenizer splits lines of text into words for the word index. It
// keeps the original casing, splits on anything that is not a letter, digit or
// inner apostrophe, and can optionally drop stop-words and apply the porter2
// stemmer.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/surgebase/porter2"
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

// Options controls word filtering.
type Options struct {
	// MinLength drops words with fewer bytes. Values below 1 mean 1.
	MinLength int
	// StopWords drops common English function words.
	StopWords bool
	// Stem reduces every word to its porter2 stem. Stems are lower-case.
	Stem bool
}

// Tokenizer turns lines into words. The zero value keeps every word.
type Tokenizer struct {
	opts Options
}

func New(opts Options) *Tokenizer {
	if opts.MinLength < 1 {
		opts.MinLength = 1
	}
	return &Tokenizer{opts: opts}
}

// Words returns the words of line in the order they appear.
func (t *Tokenizer) Words(line string) []string {
	fields := strings.FieldsFunc(line, isSeparator)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.Trim(f, "'")
		if w == "" {
			continue
		}
		if t.opts.StopWords {
			if _, isStop := stopWords[strings.ToLower(w)]; isStop {
				continue
			}
		}
		if t.opts.Stem {
			w = porter2.Stem(strings.ToLower(w))
		}
		if len(w) < t.opts.MinLength {
			continue
		}
		words = append(words, w)
	}
	return words
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
}

// IsStopWord reports whether w is in the stop-word list, ignoring case.
func IsStopWord(w string) bool {
	_, ok := stopWords[strings.ToLower(w)]
	return ok
}
