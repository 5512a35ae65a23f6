package source

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

const maxHTMLSize = 10 * 1024 * 1024

type htmlSource struct {
	path string
}

// HTML returns a source that extracts the readable article text of an HTML
// page. Line numbers refer to the extracted text, not the markup.
func HTML(path string) Source {
	return htmlSource{path: path}
}

func (h htmlSource) Name() string { return h.path }

func (h htmlSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(h.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", h.path, err)
	}
	defer f.Close()

	body, err := io.ReadAll(io.LimitReader(f, maxHTMLSize))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", h.path, err)
	}
	abs, err := filepath.Abs(h.path)
	if err != nil {
		abs = h.path
	}
	pageURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return nil, fmt.Errorf("extracting article from %s: %w", h.path, err)
	}
	text := article.TextContent
	if article.Title != "" && !strings.Contains(text, article.Title) {
		text = article.Title + "\n" + text
	}
	return io.NopCloser(strings.NewReader(text)), nil
}
