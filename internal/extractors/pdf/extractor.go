// Package pdf extracts text from PDF files page by page.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/vaultd/internal/core/domain"
	"github.com/custodia-labs/vaultd/internal/core/ports/driven"
	"github.com/custodia-labs/vaultd/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads PDFs with the ledongthuc/pdf reader.
type Extractor struct{}

// New creates a PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedTypes returns the handled file extensions.
func (e *Extractor) SupportedTypes() []string {
	return []string{"pdf"}
}

// Extract pulls plain text from every page and joins pages with a blank
// line. Pages that fail to parse are skipped rather than failing the whole
// document; the returned unit count is the page count.
func (e *Extractor) Extract(_ context.Context, path string) (string, int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("%w: open PDF %s: %w", domain.ErrExtraction, path, err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	texts := make([]string, 0, numPages)

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Debug("PDF %s: page %d failed to parse: %v", path, i, err)
			continue
		}
		texts = append(texts, text)
	}

	return strings.Join(texts, "\n\n"), numPages, nil
}
