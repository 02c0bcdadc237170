package driven

import (
	"context"

	"github.com/custodia-labs/vaultd/internal/core/domain"
)

// LLMService provides text completion for summarisation and chat.
// This is an optional service: a missing API credential is a configuration
// state, not a runtime error. Callers hold nil and degrade to placeholder
// responses rather than invoking a misconfigured backend.
type LLMService interface {
	// Complete produces a full completion for the conversation.
	Complete(ctx context.Context, messages []domain.ChatMessage) (string, error)

	// Stream produces a completion incrementally, invoking fn once per
	// text delta. A non-nil error from fn, or ctx cancellation, stops
	// generation promptly.
	Stream(ctx context.Context, messages []domain.ChatMessage, fn func(token string) error) error

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
