package extractors

import (
	"context"
	"strings"

	"github.com/custodia-labs/vaultd/internal/core/ports/driven"
	"github.com/custodia-labs/vaultd/internal/extractors/docx"
	"github.com/custodia-labs/vaultd/internal/extractors/pdf"
	"github.com/custodia-labs/vaultd/internal/extractors/plaintext"
	"github.com/custodia-labs/vaultd/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches extraction by file extension.
type Registry struct {
	byType   map[string]driven.Extractor
	fallback driven.Extractor
}

// NewRegistry creates a registry with the built-in extractors registered:
// PDF, DOCX, and plain text. Plain text doubles as the fallback.
func NewRegistry() *Registry {
	r := &Registry{
		byType:   make(map[string]driven.Extractor),
		fallback: plaintext.New(),
	}
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(r.fallback)
	return r
}

// Register adds an extractor for each of its supported types.
func (r *Registry) Register(e driven.Extractor) {
	for _, t := range e.SupportedTypes() {
		r.byType[t] = e
	}
}

// Extract selects the extractor for fileType and runs it.
// Unknown types are read as plain text, matching upload validation which
// only admits text-like extensions beyond pdf/docx.
func (r *Registry) Extract(ctx context.Context, path, fileType string) (string, int, error) {
	fileType = strings.ToLower(fileType)
	e, ok := r.byType[fileType]
	if !ok {
		logger.Debug("No extractor for type %q, reading as plain text", fileType)
		e = r.fallback
	}
	return e.Extract(ctx, path)
}
