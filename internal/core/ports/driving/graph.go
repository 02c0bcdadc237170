package driving

import (
	"context"

	"github.com/custodia-labs/vaultd/internal/core/domain"
)

// GraphService projects registry state into a knowledge graph.
type GraphService interface {
	// Build recomputes the full graph from the current registry snapshot.
	// Only documents with StatusReady contribute nodes and edges.
	Build(ctx context.Context) (domain.KnowledgeGraph, error)
}
