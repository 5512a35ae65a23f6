package scenario

import (
	"bytes"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, ids ...string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, NewRunner(&buf, DefaultSeed).Run(ids))
	return buf.String()
}

func TestNamedScenarios(t *testing.T) {
	assert.Equal(t, "\nRunning test #a.\nalfa (2): 1, 2\nbravo (1): 1\n", run(t, "a"))
	assert.Equal(t, "\nRunning test #b.\nBravo (2): 5, 9\n", run(t, "b"))
	assert.Equal(t, "\nRunning test #d.\n", run(t, "d"))
}

func TestSortedChainDegenerates(t *testing.T) {
	s, err := Lookup("c")
	require.NoError(t, err)
	ix := index.New()
	require.NoError(t, s.Fill(ix, nil))
	assert.Equal(t, len(Words), ix.Height())
	assert.Equal(t, len(Words), ix.Len())
}

func TestAscendingScenario(t *testing.T) {
	out := run(t, "1")
	lines := strings.Split(strings.TrimPrefix(out, "\nRunning test #1.\n"), "\n")
	require.Len(t, lines, len(Words)+1)
	assert.Empty(t, lines[len(Words)])

	total := 0
	for i, l := range lines[:len(Words)] {
		assert.True(t, strings.HasPrefix(l, Words[i]+" ("), l)
		assert.Contains(t, l, "): 1")
		total += strings.Count(l, ",") + 1
	}
	assert.Equal(t, len(Words)+5, total)
}

func TestRandomScenarioIsDeterministic(t *testing.T) {
	first := run(t, "3")
	assert.Equal(t, first, run(t, "3"))
	assert.True(t, strings.HasPrefix(first, "\nRunning test #3.\n"))

	s, _ := Lookup("3")
	ix := index.New()
	require.NoError(t, s.Fill(ix, rand.New(rand.NewPCG(DefaultSeed, 0))))
	count := 0
	prev := ""
	for e := range ix.All() {
		count += e.Count
		assert.Len(t, e.Occurrences, e.Count)
		if prev != "" {
			assert.Negative(t, index.CompareFold(prev, e.Key))
		}
		prev = e.Key
	}
	assert.Equal(t, 200, count)
}

func TestRunAllSharesRandomStream(t *testing.T) {
	all := run(t)
	assert.Equal(t, 3, strings.Count(all, "Running test #"))
	assert.True(t, strings.HasPrefix(all, run(t, "1")))
}

func TestInvalidSelectorContinues(t *testing.T) {
	out := run(t, "7", "a")
	assert.True(t, strings.HasPrefix(out, "\n'7' is not a valid test number. Valid numbers are 1 through 3.\n"))
	assert.Contains(t, out, "Running test #a.")

	_, err := Lookup("7")
	assert.ErrorIs(t, err, apperrors.ErrUnknownScenario)
}

func TestLookupParsesLeadingNumber(t *testing.T) {
	for _, id := range []string{"01", "2x", " 3", "+1"} {
		s, err := Lookup(id)
		require.NoError(t, err, id)
		assert.Contains(t, []string{"1", "2", "3"}, s.ID, id)
	}
	s, _ := Lookup("2x")
	assert.Equal(t, "2", s.ID)

	for _, id := range []string{"0", "-1", "x2", "", "99999999999999999999"} {
		_, err := Lookup(id)
		assert.ErrorIs(t, err, apperrors.ErrUnknownScenario, id)
	}
	assert.Contains(t, run(t, "01"), "Running test #1.")
}
