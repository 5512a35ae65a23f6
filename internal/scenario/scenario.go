// Package scenario holds canned insertion runs used to exercise the word
// index end to end: sorted, reverse-sorted and random word streams over the
// NATO phonetic alphabet, plus small fixed cases.
package scenario

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/report"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/wordindex/pkg/logger"
)

// DefaultSeed seeds the random scenarios.
const DefaultSeed = 41

// Words is the fixed vocabulary of the numbered scenarios.
var Words = [...]string{
	"alfa", "bravo", "charlie", "delta", "echo", "foxtrot",
	"golf", "hotel", "india", "juliett", "kilo", "lima",
	"mike", "november", "oscar", "papa", "quebec", "romeo",
	"sierra", "tango", "uniform", "victor", "whiskey", "xray",
	"yankee", "zulu",
}

// Scenario fills an empty index.
type Scenario struct {
	ID   string
	Name string
	Fill func(ix *index.Index, rng *rand.Rand) error
}

var numbered = []Scenario{
	{ID: "1", Name: "ascending", Fill: ascending},
	{ID: "2", Name: "descending", Fill: descending},
	{ID: "3", Name: "random", Fill: random},
}

var named = []Scenario{
	{ID: "a", Name: "repeat", Fill: insertAll(pair{"alfa", 1}, pair{"bravo", 1}, pair{"alfa", 2})},
	{ID: "b", Name: "casing", Fill: insertAll(pair{"Bravo", 5}, pair{"bravo", 9})},
	{ID: "c", Name: "sorted chain", Fill: sortedChain},
	{ID: "d", Name: "empty", Fill: func(*index.Index, *rand.Rand) error { return nil }},
}

// Lookup finds a scenario by ID. Named scenarios match exactly; numbered
// ones are selected by the leading integer of id, so "01" and "2x" select
// #1 and #2.
func Lookup(id string) (Scenario, error) {
	for _, s := range named {
		if s.ID == id {
			return s, nil
		}
	}
	if n, ok := leadingInt(id); ok && n >= 1 && n <= len(numbered) {
		return numbered[n-1], nil
	}
	return Scenario{}, fmt.Errorf("%w: %q", apperrors.ErrUnknownScenario, id)
}

func leadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	return n, err == nil
}

// Numbered returns the IDs run when no selection is given.
func Numbered() []string {
	ids := make([]string, len(numbered))
	for i, s := range numbered {
		ids[i] = s.ID
	}
	return ids
}

// Runner executes scenarios in order against fresh indexes. All scenarios of
// one Runner draw from the same random stream.
type Runner struct {
	out    io.Writer
	rng    *rand.Rand
	opts   []index.Option
	logger *slog.Logger
}

func NewRunner(out io.Writer, seed uint64, opts ...index.Option) *Runner {
	return &Runner{
		out:    out,
		rng:    rand.New(rand.NewPCG(seed, 0)),
		opts:   opts,
		logger: logger.WithComponent("scenario"),
	}
}

// Run executes the selected scenarios, or all numbered ones when ids is
// empty. Unknown IDs are reported on the output and skipped.
func (r *Runner) Run(ids []string) error {
	if len(ids) == 0 {
		ids = Numbered()
	}
	for _, id := range ids {
		s, err := Lookup(id)
		if err != nil {
			r.logger.Warn("skipping scenario", "id", id, "error", err)
			if _, err := fmt.Fprintf(r.out, "\n'%s' is not a valid test number. Valid numbers are 1 through %d.\n", id, len(numbered)); err != nil {
				return err
			}
			continue
		}
		if err := r.RunScenario(s); err != nil {
			return err
		}
	}
	return nil
}

// RunScenario fills a fresh index, writes its traversal and releases it.
func (r *Runner) RunScenario(s Scenario) error {
	if _, err := fmt.Fprintf(r.out, "\nRunning test #%s.\n", s.ID); err != nil {
		return err
	}
	ix := index.New(r.opts...)
	defer ix.Release()
	if err := s.Fill(ix, r.rng); err != nil {
		return fmt.Errorf("scenario %s: %w", s.ID, err)
	}
	r.logger.Debug("scenario filled", "id", s.ID, "name", s.Name, "distinct", ix.Len(), "height", ix.Height())
	return report.Render(r.out, ix.Entries())
}

type pair struct {
	word string
	line int
}

func insertAll(pairs ...pair) func(*index.Index, *rand.Rand) error {
	return func(ix *index.Index, _ *rand.Rand) error {
		for _, p := range pairs {
			if err := ix.Insert(p.word, p.line); err != nil {
				return err
			}
		}
		return nil
	}
}

// reinsert adds n random words, advancing the line by 0 to 2 each time.
func reinsert(ix *index.Index, rng *rand.Rand, n, line int) error {
	for range n {
		w := Words[rng.IntN(len(Words))]
		line += rng.IntN(3)
		if err := ix.Insert(w, line); err != nil {
			return err
		}
	}
	return nil
}

func ascending(ix *index.Index, rng *rand.Rand) error {
	for _, w := range Words {
		if err := ix.Insert(w, 1); err != nil {
			return err
		}
	}
	return reinsert(ix, rng, 5, 2)
}

func descending(ix *index.Index, rng *rand.Rand) error {
	for i := len(Words) - 1; i >= 0; i-- {
		if err := ix.Insert(Words[i], 1); err != nil {
			return err
		}
	}
	return reinsert(ix, rng, 5, 2)
}

func random(ix *index.Index, rng *rand.Rand) error {
	line := 1
	for range 100 {
		if err := ix.Insert(Words[rng.IntN(len(Words))], line); err != nil {
			return err
		}
		line++
	}
	return reinsert(ix, rng, 100, line)
}

func sortedChain(ix *index.Index, _ *rand.Rand) error {
	for i, w := range Words {
		if err := ix.Insert(w, i+1); err != nil {
			return err
		}
	}
	return nil
}
