// Package source opens the inputs fed to the word index. Every Source yields
// plain text whose line numbers match the original file, so occurrences
// recorded in the index point back at the lines a reader would see.
package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/wordindex/pkg/errors"
	"github.com/bmatcuk/doublestar/v4"
)

// Source is a named input that can be opened for reading.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// LineFunc receives one line of text and its 1-based line number.
type LineFunc func(line int, text string) error

type fileSource struct {
	path string
}

// File returns a plain-text source backed by path.
func File(path string) Source {
	return fileSource{path: path}
}

func (f fileSource) Name() string { return f.path }

func (f fileSource) Open() (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.path, err)
	}
	return file, nil
}

type readerSource struct {
	name string
	r    io.Reader
}

// Reader wraps an already open stream such as stdin. It can be opened once.
func Reader(name string, r io.Reader) Source {
	return readerSource{name: name, r: r}
}

func (s readerSource) Name() string { return s.name }

func (s readerSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(s.r), nil
}

// ForFile picks the source kind from the file extension.
func ForFile(path string) Source {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return HTML(path)
	case ".md", ".markdown":
		return Markdown(path)
	case ".pdf":
		return PDF(path)
	case ".docx":
		return DOCX(path)
	default:
		return File(path)
	}
}

// Scan opens src and calls fn for each line, numbering from first. It stops
// at the first error from fn or when ctx is done, and returns the number of
// lines read.
func Scan(ctx context.Context, src Source, first int, fn LineFunc) (int, error) {
	rc, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	n := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if err := fn(first+n, scanner.Text()); err != nil {
			return n, err
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("reading %s: %w", src.Name(), err)
	}
	return n, nil
}

// ExpandGlobs resolves doublestar patterns into a sorted, de-duplicated list
// of files. A pattern that matches nothing is an error.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitUsage, "bad pattern %q: %v", p, err)
		}
		if len(matches) == 0 {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitUsage, "no files match %q", p)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}
