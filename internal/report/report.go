// Package report turns the contents of a word index into output: text and
// JSON renderings, and the sinks (writer, Redis, SQL, Kafka) that a Publisher
// fans a finished report out to.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/index"
	"github.com/cespare/xxhash/v2"
)

// Report is an immutable snapshot of an index taken for publication.
type Report struct {
	RunID       string        `json:"runId"`
	GeneratedAt time.Time     `json:"generatedAt"`
	Entries     []index.Entry `json:"entries"`
}

// New snapshots idx in traversal order.
func New(runID string, idx *index.Index) Report {
	return Report{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Entries:     idx.Entries(),
	}
}

// FormatEntry renders one entry as "word (count): l1, l2, ...".
func FormatEntry(word string, count int, occurrences []int) string {
	var b strings.Builder
	b.WriteString(word)
	b.WriteString(" (")
	b.WriteString(strconv.Itoa(count))
	b.WriteString("): ")
	for i, line := range occurrences {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(line))
	}
	return b.String()
}

// Lines renders idx through its traversal, one string per entry.
func Lines(idx *index.Index) []string {
	var out []string
	idx.Traverse(func(word string, count int, occurrences []int) {
		out = append(out, FormatEntry(word, count, occurrences))
	})
	return out
}

// Render writes one text line per entry. An empty report writes nothing.
func Render(w io.Writer, entries []index.Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		bw.WriteString(FormatEntry(e.Key, e.Count, e.Occurrences))
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// RenderJSON writes the entries as an indented JSON array. An empty report
// is written as [].
func RenderJSON(w io.Writer, entries []index.Entry) error {
	if entries == nil {
		entries = []index.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// Fingerprint hashes the rendered text of the entries. Two reports with the
// same content share a fingerprint regardless of when they were generated.
func (r Report) Fingerprint() string {
	h := xxhash.New()
	_ = Render(h, r.Entries)
	return fmt.Sprintf("%016x", h.Sum64())
}
