package driving

import (
	"context"

	"github.com/custodia-labs/vaultd/internal/core/domain"
)

// IngestRequest describes an accepted upload handed to the pipeline.
type IngestRequest struct {
	// FilePath is the stored file location on disk.
	FilePath string

	// OriginalName is the user-visible file name.
	OriginalName string

	// FileType is the lower-cased extension without the dot.
	FileType string

	// FileSize is the upload size in bytes.
	FileSize int64
}

// VaultService manages the document vault: ingestion, listing, deletion.
type VaultService interface {
	// Ingest registers the document and schedules background processing.
	// It returns the new document id immediately; it never blocks on
	// extraction, embedding, or LLM latency.
	Ingest(ctx context.Context, req IngestRequest) (string, error)

	// List returns all document records, including failed ones.
	List(ctx context.Context) ([]domain.Document, error)

	// Get returns one document record or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// Delete removes the document's vectors from the index and its record
	// from the registry. Returns false for unknown ids. Index deletion
	// failures are logged and swallowed; the record is removed regardless.
	Delete(ctx context.Context, id string) (bool, error)

	// Stats aggregates registry state for the stats endpoint.
	Stats(ctx context.Context) (domain.VaultStats, error)
}
