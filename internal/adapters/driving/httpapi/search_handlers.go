package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/custodia-labs/vaultd/internal/core/domain"
	"github.com/custodia-labs/vaultd/internal/logger"
)

// Search request bounds.
const (
	defaultTopK = 10
	maxTopK     = 50
)

// searchRequest is the search endpoint's payload.
type searchRequest struct {
	Query       string   `json:"query"`
	DocumentIDs []string `json:"document_ids"`
	TopK        int      `json:"top_k"`
}

// chatRequest is the chat endpoints' payload.
type chatRequest struct {
	Message             string               `json:"message"`
	DocumentIDs         []string             `json:"document_ids"`
	ConversationHistory []domain.ChatMessage `json:"conversation_history"`
}

// handleSearch runs a semantic search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Query == "" {
		writeDetail(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}
	if req.TopK > maxTopK {
		req.TopK = maxTopK
	}

	results, err := s.search.Search(r.Context(), req.Query, req.DocumentIDs, req.TopK)
	if err != nil {
		logger.Warn("Search: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Search failed.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":   req.Query,
		"results": results,
		"total":   len(results),
	})
}

// handleChat answers a question in one shot.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Message == "" {
		writeDetail(w, http.StatusBadRequest, "message is required")
		return
	}

	answer, err := s.chat.Ask(r.Context(), req.Message, req.DocumentIDs, req.ConversationHistory)
	if err != nil {
		logger.Warn("Chat: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Chat failed.")
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// handleChatStream answers a question as server-sent events, one JSON
// object per event, in the order sources, token*, done.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Message == "" {
		writeDetail(w, http.StatusBadRequest, "message is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeDetail(w, http.StatusInternalServerError, "Streaming not supported.")
		return
	}

	events, err := s.chat.AskStream(r.Context(), req.Message, req.DocumentIDs, req.ConversationHistory)
	if err != nil {
		logger.Warn("Chat stream: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Chat failed.")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

// handleGraph returns the knowledge graph projection.
func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := s.graph.Build(r.Context())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "Could not build graph.")
		return
	}
	writeJSON(w, http.StatusOK, graph)
}
