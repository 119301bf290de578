package ingest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/hupe1980/lyceum/core"
)

// DefaultMaxBytes bounds an accepted document.
const DefaultMaxBytes = 4 << 20

// Document is an extracted anchor text.
type Document struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	Text string `json:"-"`
	Size int    `json:"size"`
	// Pages is set for paginated formats.
	Pages int `json:"pages,omitempty"`
}

// Options configures an Extractor.
type Options struct {
	MaxBytes int
}

// Extractor converts raw uploads to text.
type Extractor struct {
	opts Options
}

// NewExtractor creates an Extractor.
func NewExtractor(optFns ...func(o *Options)) *Extractor {
	opts := Options{MaxBytes: DefaultMaxBytes}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Extractor{opts: opts}
}

// Extract sniffs data and returns its text content.
func (e *Extractor) Extract(name string, data []byte) (Document, error) {
	doc := Document{Name: filepath.Base(name), Size: len(data)}

	if len(data) == 0 {
		return doc, fmt.Errorf("%w: %s is empty", core.ErrIngestion, doc.Name)
	}
	if e.opts.MaxBytes > 0 && len(data) > e.opts.MaxBytes {
		return doc, fmt.Errorf("%w: %s exceeds %d bytes", core.ErrIngestion, doc.Name, e.opts.MaxBytes)
	}

	mtype := mimetype.Detect(data)
	doc.MIME = mtype.String()

	if mtype.Is("application/pdf") {
		text, pages, err := extractPDF(data)
		if err != nil {
			return doc, fmt.Errorf("%w: %s: %v", core.ErrIngestion, doc.Name, err)
		}
		if strings.TrimSpace(text) == "" {
			return doc, fmt.Errorf("%w: %s has no extractable text", core.ErrIngestion, doc.Name)
		}
		doc.Text, doc.Pages = text, pages
		return doc, nil
	}

	if !isText(mtype) {
		return doc, fmt.Errorf("%w: %s has unsupported type %s", core.ErrIngestion, doc.Name, doc.MIME)
	}

	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return doc, fmt.Errorf("%w: %s is not valid UTF-8", core.ErrIngestion, doc.Name)
	}

	doc.Text = strings.ReplaceAll(string(data), "\r\n", "\n")

	return doc, nil
}

// ExtractFile reads and extracts a document from disk.
func (e *Extractor) ExtractFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{Name: filepath.Base(path)}, fmt.Errorf("%w: %v", core.ErrIngestion, err)
	}
	return e.Extract(path, data)
}

func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

// extractPDF returns the plain text of every page, pages separated by a
// blank line. A page whose text cannot be decoded contributes nothing.
func extractPDF(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, pages, err = "", 0, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}

	pages = r.NumPage()
	parts := make([]string, 0, pages)

	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			parts = append(parts, "")
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			content = ""
		}
		parts = append(parts, content)
	}

	return strings.Join(parts, "\n\n"), pages, nil
}
