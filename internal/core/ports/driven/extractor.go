package driven

import "context"

// Extractor converts one file format into plain text.
type Extractor interface {
	// Extract reads the file at path and returns its text content plus a
	// page/unit count (pages for PDF, 1 for single-unit formats).
	Extract(ctx context.Context, path string) (text string, units int, err error)

	// SupportedTypes returns the lower-cased file extensions this
	// extractor handles, without the leading dot.
	SupportedTypes() []string
}

// ExtractorRegistry dispatches extraction by file type.
type ExtractorRegistry interface {
	// Extract selects an extractor for fileType and runs it.
	// Unregistered types fall back to plain-text extraction.
	Extract(ctx context.Context, path, fileType string) (text string, units int, err error)
}
