package services

import (
	"context"
	"fmt"
	"math"

	"github.com/custodia-labs/vaultd/internal/core/domain"
	"github.com/custodia-labs/vaultd/internal/core/ports/driven"
	"github.com/custodia-labs/vaultd/internal/core/ports/driving"
	"github.com/custodia-labs/vaultd/internal/logger"
	"github.com/custodia-labs/vaultd/internal/metrics"
)

// Ensure RetrievalService implements the interfaces.
var (
	_ driving.SearchService = (*RetrievalService)(nil)
	_ driving.ChatService   = (*RetrievalService)(nil)
)

// Retrieval tuning constants.
const (
	// chatTopK is how many chunks are retrieved for a chat turn.
	chatTopK = 4
	// contextChunks is how many of those feed the prompt context.
	contextChunks = 3
	// contextCharLimit truncates each context block so a handful of large
	// chunks cannot blow up the prompt.
	contextCharLimit = 400
	// historyWindow is how many prior conversation messages are replayed
	// on a non-streaming chat turn.
	historyWindow = 6
	// streamHistoryWindow is the tighter replay window for streaming turns.
	streamHistoryWindow = 4
)

const noResultsAnswer = "I couldn't find relevant information in your vault for this question. Try uploading related documents first."

const noLLMAnswer = "AI chat requires an OpenAI API key. Please add the key to the vaultd config. The semantic search results show the most relevant content from your vault."

const chatSystemPrompt = "You are a knowledge assistant. Answer concisely from the provided vault context. Cite document names when relevant."

// RetrievalService implements semantic search and retrieval-augmented chat
// over the vector index. The LLM is optional: without one, chat degrades to
// a configuration hint plus raw search results.
type RetrievalService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	llm      driven.LLMService
}

// NewRetrievalService creates the retrieval service. llm may be nil.
func NewRetrievalService(embedder driven.EmbeddingService, index driven.VectorIndex, llm driven.LLMService) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		index:    index,
		llm:      llm,
	}
}

// Search embeds the query and returns the topK nearest chunks, optionally
// restricted to the given documents. Scores are 1 - cosine distance,
// clamped at zero and rounded to four decimals, so callers can treat them
// as a 0..1 relevance.
func (s *RetrievalService) Search(ctx context.Context, query string, documentIDs []string, topK int) ([]domain.SearchResult, error) {
	metrics.SearchesServed.Inc()

	count, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("index count: %w", err)
	}
	if count == 0 || topK <= 0 {
		return []domain.SearchResult{}, nil
	}
	if topK > count {
		topK = count
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	var filter *driven.VectorFilter
	if len(documentIDs) > 0 {
		filter = &driven.VectorFilter{DocumentIDs: documentIDs}
	}

	hits, err := s.index.Query(ctx, vector, topK, filter)
	if err != nil {
		return nil, fmt.Errorf("index query: %w", err)
	}

	results := make([]domain.SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = domain.SearchResult{
			ChunkID:      hit.Chunk.ID,
			DocumentID:   hit.Chunk.DocumentID,
			DocumentName: hit.Chunk.DocumentName,
			Content:      hit.Chunk.Content,
			Score:        relevanceScore(hit.Distance),
			ChunkIndex:   hit.Chunk.Index,
		}
	}
	return results, nil
}

// Ask answers a question from vault context in one shot.
func (s *RetrievalService) Ask(ctx context.Context, query string, documentIDs []string, history []domain.ChatMessage) (domain.Answer, error) {
	chunks, err := s.Search(ctx, query, documentIDs, chatTopK)
	if err != nil {
		return domain.Answer{}, err
	}

	if len(chunks) == 0 {
		return domain.Answer{
			Answer:  noResultsAnswer,
			Sources: []domain.SearchResult{},
		}, nil
	}

	if s.llm == nil {
		return domain.Answer{
			Answer:  noLLMAnswer,
			Sources: headResults(chunks, 5),
		}, nil
	}

	messages := buildMessages(chatSystemPrompt, history, historyWindow,
		fmt.Sprintf("Vault context:\n%s\n\nQ: %s", buildContext(chunks), query))

	answer, err := s.llm.Complete(ctx, messages)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err)
	}

	return domain.Answer{
		Answer:  answer,
		Sources: headResults(chunks, contextChunks),
	}, nil
}

// AskStream answers a question as an ordered event stream: one sources
// event, then zero or more token events, then exactly one done event. The
// channel is closed after the done event. Cancelling ctx stops generation.
func (s *RetrievalService) AskStream(ctx context.Context, query string, documentIDs []string, history []domain.ChatMessage) (<-chan domain.ChatEvent, error) {
	chunks, err := s.Search(ctx, query, documentIDs, chatTopK)
	if err != nil {
		return nil, err
	}

	events := make(chan domain.ChatEvent)
	go func() {
		defer close(events)

		sources := headResults(chunks, contextChunks)
		if !emit(ctx, events, domain.ChatEvent{Type: domain.EventSources, Sources: sources}) {
			return
		}

		if s.llm == nil {
			emit(ctx, events, domain.ChatEvent{Type: domain.EventToken, Token: noLLMAnswer})
			emit(ctx, events, domain.ChatEvent{Type: domain.EventDone})
			return
		}

		contextBlock := "No specific documents found."
		if len(chunks) > 0 {
			contextBlock = buildContext(chunks)
		}
		messages := buildMessages(chatSystemPrompt, history, streamHistoryWindow,
			fmt.Sprintf("Context:\n%s\n\nQuestion: %s", contextBlock, query))

		err := s.llm.Stream(ctx, messages, func(token string) error {
			if !emit(ctx, events, domain.ChatEvent{Type: domain.EventToken, Token: token}) {
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			logger.Warn("Chat stream: %v", err)
		}

		emit(ctx, events, domain.ChatEvent{Type: domain.EventDone})
	}()

	return events, nil
}

// buildContext renders the top context chunks as labelled, truncated
// blocks separated by a horizontal rule.
func buildContext(chunks []domain.SearchResult) string {
	out := ""
	for i, c := range headResults(chunks, contextChunks) {
		if i > 0 {
			out += "\n\n---\n\n"
		}
		out += fmt.Sprintf("[%s]\n%s", c.DocumentName, excerpt(c.Content, contextCharLimit))
	}
	return out
}

// buildMessages assembles the prompt: system message, a bounded replay of
// prior conversation, then the user turn carrying the context.
func buildMessages(system string, history []domain.ChatMessage, window int, userTurn string) []domain.ChatMessage {
	messages := []domain.ChatMessage{{Role: "system", Content: system}}
	if len(history) > window {
		history = history[len(history)-window:]
	}
	for _, msg := range history {
		if msg.Role == "user" || msg.Role == "assistant" {
			messages = append(messages, msg)
		}
	}
	return append(messages, domain.ChatMessage{Role: "user", Content: userTurn})
}

// headResults returns at most n results. Always non-nil so JSON encodes
// an empty array rather than null.
func headResults(results []domain.SearchResult, n int) []domain.SearchResult {
	if len(results) > n {
		results = results[:n]
	}
	out := make([]domain.SearchResult, len(results))
	copy(out, results)
	return out
}

// relevanceScore maps a cosine distance in [0,2] to a 0..1 score.
func relevanceScore(distance float64) float64 {
	score := 1.0 - distance
	if score < 0 {
		score = 0
	}
	return math.Round(score*10000) / 10000
}

// emit sends an event unless ctx is cancelled. Reports whether the event
// was delivered.
func emit(ctx context.Context, events chan<- domain.ChatEvent, ev domain.ChatEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
