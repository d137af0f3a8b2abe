// Package pdf extracts plain text from PDF uploads.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/paperqa/internal/core/domain"
	"github.com/custodia-labs/paperqa/internal/core/ports/driven"
	"github.com/custodia-labs/paperqa/internal/logger"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrMalformedPDF indicates the file could not be parsed as a PDF.
var ErrMalformedPDF = errors.New("malformed pdf")

// Extractor returns the text of each page of a PDF.
type Extractor interface {
	Pages(ctx context.Context, data []byte) ([]string, error)
}

// Normaliser handles PDF documents.
type Normaliser struct {
	extractor Extractor
}

// New creates a PDF normaliser backed by ledongthuc/pdf.
func New() *Normaliser {
	return &Normaliser{extractor: ledongthucExtractor{}}
}

// NewWithExtractor creates a normaliser with a custom extractor (for testing).
func NewWithExtractor(extractor Extractor) *Normaliser {
	return &Normaliser{extractor: extractor}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{domain.MIMETypePDF}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the text of every page, one page per line block.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if !raw.IsPDF() {
		return nil, domain.ErrUnsupportedType
	}

	pages, err := n.extractor.Pages(ctx, raw.Content)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", raw.Filename, err)
	}

	texts := make([]string, 0, len(pages))
	for _, page := range pages {
		if text := cleanText(page); text != "" {
			texts = append(texts, text)
		}
	}
	content := strings.Join(texts, "\n")
	logger.Debug("pdf: %s has %d pages, %d with text", raw.Filename, len(pages), len(texts))

	return &driven.NormaliseResult{
		Document: domain.Document{
			Title:   raw.Filename,
			Content: content,
		},
		PageCount: len(pages),
	}, nil
}

var (
	horizontalSpace = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	blankLines      = regexp.MustCompile(`\n{3,}`)
)

// cleanText drops NUL bytes, collapses runs of spaces and blank lines,
// and trims each line.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = horizontalSpace.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(s)
}

// ledongthucExtractor reads PDFs in memory with github.com/ledongthuc/pdf.
type ledongthucExtractor struct{}

// Pages returns the plain text of each page. The parser panics on some
// malformed input, so panics are turned into ErrMalformedPDF.
func (ledongthucExtractor) Pages(ctx context.Context, data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrMalformedPDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPDF, err)
	}

	total := reader.NumPage()
	pages = make([]string, 0, total)
	fonts := make(map[string]*pdf.Font)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("pdf: page %d: %v", i, err)
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
