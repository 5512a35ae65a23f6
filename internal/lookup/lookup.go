// Package lookup answers point queries against a word index and suggests
// near misses ranked by edit distance.
package lookup

import (
	"slices"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/index"
	"github.com/hbollon/go-edlib"
)

// MaxDistance is the largest edit distance a suggestion may have.
const MaxDistance = 2

// Index is the read side of a word index.
type Index interface {
	Lookup(word string) (index.Entry, bool)
	Entries() []index.Entry
}

// Suggestion is an entry close to the queried word.
type Suggestion struct {
	Entry    index.Entry
	Distance int
}

// Find returns the entry for word under case-insensitive matching.
func Find(idx Index, word string) (index.Entry, bool) {
	return idx.Lookup(word)
}

// Suggest returns up to max entries within MaxDistance of word, compared on
// ASCII-folded text. Closer entries come first; ties keep index order.
func Suggest(idx Index, word string, max int) []Suggestion {
	if max <= 0 || word == "" {
		return nil
	}
	folded := index.FoldKey(word)
	var out []Suggestion
	for _, e := range idx.Entries() {
		d := edlib.LevenshteinDistance(folded, index.FoldKey(e.Key))
		if d <= MaxDistance {
			out = append(out, Suggestion{Entry: e, Distance: d})
		}
	}
	slices.SortStableFunc(out, func(a, b Suggestion) int {
		return a.Distance - b.Distance
	})
	if len(out) > max {
		out = out[:max]
	}
	return out
}
