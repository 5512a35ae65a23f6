package source

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

type markdownSource struct {
	path string
}

// Markdown returns a source that strips Markdown syntax (emphasis markers,
// link targets, raw HTML) while keeping every word on its original line.
func Markdown(path string) Source {
	return markdownSource{path: path}
}

func (m markdownSource) Name() string { return m.path }

func (m markdownSource) Open() (io.ReadCloser, error) {
	src, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", m.path, err)
	}
	out, err := MarkdownText(src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", m.path, err)
	}
	return io.NopCloser(strings.NewReader(out)), nil
}

// MarkdownText renders the text content of a Markdown document. The result
// has as many lines as src and each fragment sits on the line it came from.
func MarkdownText(src []byte) (string, error) {
	starts := lineStarts(src)
	lines := make([][]byte, len(starts))
	ends := make([]int, len(starts))
	place := func(seg text.Segment) {
		i := sort.Search(len(starts), func(i int) bool { return starts[i] > seg.Start }) - 1
		raw := seg.Value(src)
		v := bytes.TrimSpace(raw)
		if len(v) == 0 {
			return
		}
		start := seg.Start + bytes.Index(raw, v)
		// Fragments split only by inline markup belong to the same word.
		if len(lines[i]) > 0 && (start < ends[i] || bytes.ContainsFunc(src[ends[i]:start], unicode.IsSpace)) {
			lines[i] = append(lines[i], ' ')
		}
		lines[i] = append(lines[i], v...)
		ends[i] = start + len(v)
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			segs := node.Lines()
			for i := 0; i < segs.Len(); i++ {
				place(segs.At(i))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			place(node.Segment)
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", err
	}
	return string(bytes.Join(lines, []byte("\n"))), nil
}

func lineStarts(src []byte) []int {
	starts := []int{0}
	for i, c := range src {
		if c == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return starts
}
