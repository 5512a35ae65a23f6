package index

import "slices"

// Entry is a read-only view of one distinct word in the index.
type Entry struct {
	Key         string `json:"word"`
	Count       int    `json:"count"`
	Occurrences []int  `json:"occurrences"`
}

// node is one tree record. occurrences always has exactly count elements.
type node struct {
	key         string
	count       int
	occurrences []int
	left        *node
	right       *node
}

func newNode(word string, line int) *node {
	return &node{
		key:         word,
		count:       1,
		occurrences: []int{line},
	}
}

func (n *node) record(line int) {
	n.count++
	n.occurrences = append(n.occurrences, line)
}

func (n *node) entry() Entry {
	return Entry{
		Key:         n.key,
		Count:       n.count,
		Occurrences: slices.Clone(n.occurrences),
	}
}

// State is the lifecycle phase of an Index.
type State int

const (
	StateEmpty State = iota
	StatePopulated
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	default:
		return "unknown"
	}
}
