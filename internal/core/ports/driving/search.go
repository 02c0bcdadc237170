package driving

import (
	"context"

	"github.com/custodia-labs/vaultd/internal/core/domain"
)

// SearchService performs semantic search over the vault.
type SearchService interface {
	// Search returns up to topK results, best match first, with scores
	// in [0,1]. A non-empty documentIDs restricts the search to those
	// documents. An empty index yields an empty result, not an error.
	Search(ctx context.Context, query string, documentIDs []string, topK int) ([]domain.SearchResult, error)
}

// ChatService answers questions grounded in retrieved vault context.
type ChatService interface {
	// Ask retrieves context for the question and generates an answer.
	// Without relevant context or without an LLM configured it returns a
	// canned response, never a fabricated answer.
	Ask(ctx context.Context, question string, documentIDs []string, history []domain.ChatMessage) (domain.Answer, error)

	// AskStream is the streaming variant. The returned channel emits, in
	// strict order: one EventSources, zero or more EventToken, and exactly
	// one EventDone, then closes. Cancelling ctx stops generation promptly.
	AskStream(ctx context.Context, question string, documentIDs []string, history []domain.ChatMessage) (<-chan domain.ChatEvent, error)
}
