package domain

// SearchResult is a single ranked hit from semantic search.
// Results are ephemeral: produced per query, never persisted.
type SearchResult struct {
	// ChunkID is the matched chunk's identifier.
	ChunkID string `json:"chunk_id"`

	// DocumentID is the owning document.
	DocumentID string `json:"document_id"`

	// DocumentName is the owning document's original name.
	DocumentName string `json:"document_name"`

	// Content is the chunk text.
	Content string `json:"content"`

	// Score is the relevance in [0,1], higher is more relevant.
	// Derived from cosine distance as max(0, 1-distance).
	Score float64 `json:"score"`

	// PageNumber is reserved for page-level attribution. Chunking does not
	// track page spans, so it serializes as null; the field keeps the
	// response shape stable for clients.
	PageNumber *int `json:"page_number"`

	// ChunkIndex is the chunk's zero-based position in its document.
	ChunkIndex int `json:"chunk_index"`
}

// ChatMessage is one turn of a conversation with the assistant.
type ChatMessage struct {
	// Role is "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// Answer is the non-streaming chat response: generated text plus the
// context chunks it was grounded on.
type Answer struct {
	Answer  string         `json:"answer"`
	Sources []SearchResult `json:"sources"`
}

// ChatEventType discriminates streaming chat events.
type ChatEventType string

// Streaming event kinds, emitted in strict order:
// one sources event, zero or more token events, exactly one done event.
const (
	EventSources ChatEventType = "sources"
	EventToken   ChatEventType = "token"
	EventDone    ChatEventType = "done"
)

// ChatEvent is a single element of a streaming chat response.
type ChatEvent struct {
	Type ChatEventType `json:"type"`

	// Sources is set on EventSources.
	Sources []SearchResult `json:"sources,omitempty"`

	// Token is the incremental text on EventToken.
	Token string `json:"token,omitempty"`
}
