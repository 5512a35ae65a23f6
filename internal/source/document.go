package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
	pdflib "github.com/ledongthuc/pdf"
)

type pdfSource struct {
	path string
}

// PDF returns a source reading the plain text of every page in order. Line
// numbers run across pages.
func PDF(path string) Source {
	return pdfSource{path: path}
}

func (p pdfSource) Name() string { return p.path }

func (p pdfSource) Open() (io.ReadCloser, error) {
	f, reader, err := pdflib.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", p.path, err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("reading page %d of %s: %w", i, p.path, err)
		}
		b.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			b.WriteByte('\n')
		}
	}
	return io.NopCloser(strings.NewReader(b.String())), nil
}

type docxSource struct {
	path string
}

// DOCX returns a source with one line per paragraph of a Word document.
func DOCX(path string) Source {
	return docxSource{path: path}
}

func (d docxSource) Name() string { return d.path }

func (d docxSource) Open() (io.ReadCloser, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", d.path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", d.path, err)
	}
	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parsing docx %s: %w", d.path, err)
	}

	var b strings.Builder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			for _, rc := range run.Children {
				if t, ok := rc.(*docx.Text); ok {
					b.WriteString(t.Text)
				}
			}
		}
		b.WriteByte('\n')
	}
	return io.NopCloser(strings.NewReader(b.String())), nil
}
