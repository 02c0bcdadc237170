package driven

import (
	"context"

	"github.com/custodia-labs/vaultd/internal/core/domain"
)

// DocumentRegistry is the single source of truth for document records and
// ingestion progress. The ingestion pipeline is the only mutator; the API
// layer and graph builder only read.
//
// The registry is volatile by design: records do not survive a restart.
// Implementations must be safe for concurrent use, and Update must apply
// its mutation atomically so a reader never observes a torn record.
type DocumentRegistry interface {
	// Create registers a new record. Fails with domain.ErrAlreadyExists
	// if the id is taken.
	Create(ctx context.Context, doc domain.Document) error

	// Get returns a copy of the record, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns copies of all records in creation order.
	List(ctx context.Context) ([]domain.Document, error)

	// Update applies fn to the record under the registry's lock and
	// bumps UpdatedAt. Returns domain.ErrNotFound for unknown ids.
	Update(ctx context.Context, id string, fn func(*domain.Document)) error

	// Delete removes the record. Returns domain.ErrNotFound for unknown ids.
	Delete(ctx context.Context, id string) error
}
