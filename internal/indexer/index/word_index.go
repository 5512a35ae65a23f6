// Package index implements the word index: an unbalanced binary search tree
// keyed by ASCII case-insensitive word identity. Every node keeps the word as
// first seen, its occurrence count and the line numbers it was recorded at in
// insertion order.
//
// The tree is never rebalanced, so its shape is a direct function of the
// insertion order. Sorted input produces a chain whose height equals the
// number of distinct words; all walks are iterative so such chains cannot
// exhaust the goroutine stack.
//
// An Index is not safe for concurrent use.
package index

import (
	"fmt"
	"iter"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/errors"
)

var (
	// ErrEmptyWord is returned by Insert for a zero-length word.
	ErrEmptyWord = fmt.Errorf("%w: empty word", apperrors.ErrInvalidInput)
	// ErrCapacityExceeded is returned by Insert when a configured entry or
	// occurrence limit would be exceeded.
	ErrCapacityExceeded = fmt.Errorf("%w: index capacity exceeded", apperrors.ErrAllocation)
)

// EmitFunc receives one entry during Traverse. occurrences is a copy in
// insertion order.
type EmitFunc func(word string, count int, occurrences []int)

// Observer is notified about the outcome of every Insert call.
type Observer interface {
	Inserted(created bool, depth int)
	Rejected(err error)
}

type Option func(*Index)

// WithMaxEntries caps the number of distinct words. Zero means unlimited.
func WithMaxEntries(n int) Option {
	return func(ix *Index) { ix.maxEntries = n }
}

// WithMaxOccurrences caps the occurrences recorded for a single word. Zero
// means unlimited.
func WithMaxOccurrences(n int) Option {
	return func(ix *Index) { ix.maxOccurrences = n }
}

func WithObserver(o Observer) Option {
	return func(ix *Index) { ix.observer = o }
}

type Index struct {
	root           *node
	size           int
	height         int
	maxEntries     int
	maxOccurrences int
	observer       Observer
}

func New(opts ...Option) *Index {
	ix := &Index{}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Insert records one occurrence of word at line. A word equal to an existing
// key under ASCII case folding updates that entry and keeps its original
// casing; otherwise a new leaf is attached. On error the tree is unchanged.
func (ix *Index) Insert(word string, line int) error {
	if word == "" {
		return ix.reject(ErrEmptyWord)
	}

	link := &ix.root
	depth := 1
	for *link != nil {
		n := *link
		c := CompareFold(word, n.key)
		if c == 0 {
			if ix.maxOccurrences > 0 && n.count >= ix.maxOccurrences {
				return ix.reject(fmt.Errorf("%w: word %q already has %d occurrences", ErrCapacityExceeded, n.key, n.count))
			}
			n.record(line)
			ix.notify(false, depth)
			return nil
		}
		if c < 0 {
			link = &n.left
		} else {
			link = &n.right
		}
		depth++
	}

	if ix.maxEntries > 0 && ix.size >= ix.maxEntries {
		return ix.reject(fmt.Errorf("%w: %d distinct words", ErrCapacityExceeded, ix.size))
	}
	*link = newNode(word, line)
	ix.size++
	if depth > ix.height {
		ix.height = depth
	}
	ix.notify(true, depth)
	return nil
}

// Traverse calls emit once per entry in ascending case-insensitive key
// order. It does not modify the index and emits nothing when it is empty.
func (ix *Index) Traverse(emit EmitFunc) {
	ix.walk(func(n *node) bool {
		e := n.entry()
		emit(e.Key, e.Count, e.Occurrences)
		return true
	})
}

// All returns an iterator over the entries in traversal order.
func (ix *Index) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		ix.walk(func(n *node) bool {
			return yield(n.entry())
		})
	}
}

// Entries returns a snapshot of every entry in traversal order.
func (ix *Index) Entries() []Entry {
	entries := make([]Entry, 0, ix.size)
	for e := range ix.All() {
		entries = append(entries, e)
	}
	return entries
}

// Lookup finds the entry whose key equals word under ASCII case folding.
func (ix *Index) Lookup(word string) (Entry, bool) {
	n := ix.root
	for n != nil {
		c := CompareFold(word, n.key)
		switch {
		case c == 0:
			return n.entry(), true
		case c < 0:
			n = n.left
		default:
			n = n.right
		}
	}
	return Entry{}, false
}

// Release drops every node and returns the index to the empty state. The
// index stays usable afterwards and behaves like a freshly created one.
func (ix *Index) Release() {
	stack := make([]*node, 0, 16)
	if ix.root != nil {
		stack = append(stack, ix.root)
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.left != nil {
			stack = append(stack, n.left)
		}
		if n.right != nil {
			stack = append(stack, n.right)
		}
		n.left, n.right, n.occurrences = nil, nil, nil
	}
	ix.root = nil
	ix.size = 0
	ix.height = 0
}

// Len returns the number of distinct words.
func (ix *Index) Len() int {
	return ix.size
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (ix *Index) Height() int {
	return ix.height
}

func (ix *Index) State() State {
	if ix.root == nil {
		return StateEmpty
	}
	return StatePopulated
}

// walk visits nodes in order using an explicit stack and stops as soon as
// visit returns false.
func (ix *Index) walk(visit func(*node) bool) {
	var stack []*node
	n := ix.root
	for n != nil || len(stack) > 0 {
		for n != nil {
			stack = append(stack, n)
			n = n.left
		}
		n = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visit(n) {
			return
		}
		n = n.right
	}
}

func (ix *Index) reject(err error) error {
	if ix.observer != nil {
		ix.observer.Rejected(err)
	}
	return err
}

func (ix *Index) notify(created bool, depth int) {
	if ix.observer != nil {
		ix.observer.Inserted(created, depth)
	}
}
