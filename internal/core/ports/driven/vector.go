package driven

import (
	"context"

	"github.com/custodia-labs/vaultd/internal/core/domain"
)

// VectorIndex is the nearest-neighbour store for chunk embeddings.
// Implementations must return cosine distance in [0, 2] so the retrieval
// engine's max(0, 1-distance) relevance clamp holds, and must return hits
// in ascending distance order.
type VectorIndex interface {
	// Upsert writes chunks (vector, text, metadata) keyed by chunk ID.
	// Writing an existing ID replaces the previous entry.
	Upsert(ctx context.Context, chunks []domain.Chunk) error

	// Query returns the k nearest neighbours to the query vector,
	// optionally restricted by filter. k larger than the index size
	// returns every match. Querying an empty index returns no hits.
	Query(ctx context.Context, vector []float32, k int, filter *VectorFilter) ([]VectorHit, error)

	// DeleteWhere removes all entries matching the filter and reports how
	// many were removed. Zero matches is not an error.
	DeleteWhere(ctx context.Context, filter VectorFilter) (int, error)

	// Count returns the total number of indexed chunks.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// VectorFilter restricts queries and deletes to a document-id set.
// Empty DocumentIDs matches everything on query, nothing on delete.
type VectorFilter struct {
	// DocumentIDs is a membership filter over chunk metadata.
	DocumentIDs []string
}

// Matches reports whether a chunk satisfies the filter.
func (f *VectorFilter) Matches(c domain.Chunk) bool {
	if f == nil || len(f.DocumentIDs) == 0 {
		return true
	}
	for _, id := range f.DocumentIDs {
		if c.DocumentID == id {
			return true
		}
	}
	return false
}

// VectorHit is a single nearest-neighbour match.
type VectorHit struct {
	// Chunk is the stored chunk, embedding omitted.
	Chunk domain.Chunk

	// Distance is the cosine distance to the query vector, in [0, 2].
	Distance float64
}
