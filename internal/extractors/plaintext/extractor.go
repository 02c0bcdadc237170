// Package plaintext extracts text from TXT and Markdown files.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/vaultd/internal/core/domain"
	"github.com/custodia-labs/vaultd/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor reads text files as-is.
type Extractor struct{}

// New creates a plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedTypes returns the handled file extensions.
func (e *Extractor) SupportedTypes() []string {
	return []string{"txt", "md", "markdown"}
}

// Extract reads the whole file. Invalid UTF-8 sequences are dropped rather
// than failing the document. The unit count for text files is always 1.
func (e *Extractor) Extract(_ context.Context, path string) (string, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("%w: read %s: %w", domain.ErrExtraction, path, err)
	}
	return strings.ToValidUTF8(string(data), ""), 1, nil
}
