package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		line string
		want []string
	}{
		{
			name: "keeps casing and order",
			line: "The quick Brown fox, the LAZY dog.",
			want: []string{"The", "quick", "Brown", "fox", "the", "LAZY", "dog"},
		},
		{
			name: "inner apostrophes survive",
			line: "'don't' stop-believin' o'clock",
			want: []string{"don't", "stop", "believin", "o'clock"},
		},
		{
			name: "digits are word characters",
			line: "route 66 to x2",
			want: []string{"route", "66", "to", "x2"},
		},
		{
			name: "empty line",
			line: "   ...  ",
			want: []string{},
		},
		{
			name: "min length",
			opts: Options{MinLength: 3},
			line: "a an the zulu",
			want: []string{"the", "zulu"},
		},
		{
			name: "negative min length keeps single letters",
			opts: Options{MinLength: -4},
			line: "a bc",
			want: []string{"a", "bc"},
		},
		{
			name: "stop words ignore case",
			opts: Options{StopWords: true},
			line: "The index OF words",
			want: []string{"index", "words"},
		},
		{
			name: "stemming lowers",
			opts: Options{Stem: true},
			line: "Running indexes",
			want: []string{"run", "index"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.opts).Words(tt.line)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestZeroValueTokenizer(t *testing.T) {
	var tok Tokenizer
	assert.Equal(t, []string{"a", "b"}, tok.Words("a b"))
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("The"))
	assert.False(t, IsStopWord("zulu"))
}
