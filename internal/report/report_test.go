package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/wordindex/internal/indexer/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func buildIndex(t *testing.T, pairs ...any) *index.Index {
	t.Helper()
	idx := index.New()
	for i := 0; i < len(pairs); i += 2 {
		require.NoError(t, idx.Insert(pairs[i].(string), pairs[i+1].(int)))
	}
	return idx
}

func TestRender(t *testing.T) {
	idx := buildIndex(t, "apple", 1, "Banana", 2, "APPLE", 3)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, idx.Entries()))
	assert.Equal(t, "apple (2): 1, 3\nBanana (1): 2\n", buf.String())
	assert.Equal(t, []string{"apple (2): 1, 3", "Banana (1): 2"}, Lines(idx))
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil))
	assert.Empty(t, buf.String())
	assert.Empty(t, Lines(index.New()))

	require.NoError(t, RenderJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestFormatEntry(t *testing.T) {
	assert.Equal(t, "word (0): ", FormatEntry("word", 0, nil))
	assert.Equal(t, "x (3): 7, 7, 2", FormatEntry("x", 3, []int{7, 7, 2}))
}

func TestRenderJSON(t *testing.T) {
	idx := buildIndex(t, "cat", 1, "Cat", 1)
	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, idx.Entries()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "cat", got[0]["word"])
	assert.EqualValues(t, 2, got[0]["count"])
	assert.Equal(t, []any{1.0, 1.0}, got[0]["occurrences"])
}

func TestFingerprint(t *testing.T) {
	a := New("run-1", buildIndex(t, "alpha", 1))
	b := New("run-2", buildIndex(t, "ALPHA", 1))
	c := New("run-1", buildIndex(t, "alpha", 2))

	assert.Len(t, a.Fingerprint(), 16)
	assert.Equal(t, a.Fingerprint(), New("run-3", buildIndex(t, "alpha", 1)).Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
