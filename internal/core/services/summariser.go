package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/vaultd/internal/core/domain"
	"github.com/custodia-labs/vaultd/internal/core/ports/driven"
	"github.com/custodia-labs/vaultd/internal/logger"
)

// DocumentAnalysis is the summariser's output: a short summary plus tag and
// concept labels used for faceting and graph construction.
type DocumentAnalysis struct {
	Summary     string   `json:"summary"`
	Tags        []string `json:"tags"`
	KeyConcepts []string `json:"key_concepts"`
}

// Summariser derives a summary, tags, and key concepts from a document
// excerpt using the LLM. It degrades to placeholder metadata when the LLM
// is unconfigured or fails: summarisation is never fatal to a document.
type Summariser struct {
	llm driven.LLMService
}

// NewSummariser creates a summariser. llm may be nil.
func NewSummariser(llm driven.LLMService) *Summariser {
	return &Summariser{llm: llm}
}

const summarisePrompt = `You are an expert knowledge analyst. Analyze the following document excerpt and respond ONLY with valid JSON.

Document: %q

Text:
%s

Respond with this exact JSON structure:
{
  "summary": "A clear 2-3 sentence summary of this document",
  "tags": ["tag1", "tag2", "tag3", "tag4", "tag5"],
  "key_concepts": ["concept1", "concept2", "concept3", "concept4", "concept5"]
}

Rules:
- summary: 2-3 sentences, informative and clear
- tags: 3-8 relevant lowercase tags
- key_concepts: 3-8 key technical or thematic concepts from the text
`

// SummariseAndTag analyses a bounded excerpt of the document text.
// Any LLM or parse failure yields the indexed-placeholder analysis.
func (s *Summariser) SummariseAndTag(ctx context.Context, excerpt, documentName string) DocumentAnalysis {
	if s.llm == nil {
		return DocumentAnalysis{
			Summary:     "AI features require an API key. Set the OpenAI key in the vaultd config to enable summaries.",
			Tags:        []string{"document", "knowledge"},
			KeyConcepts: []string{},
		}
	}

	prompt := fmt.Sprintf(summarisePrompt, documentName, excerpt)
	response, err := s.llm.Complete(ctx, []domain.ChatMessage{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		logger.Warn("Summariser: LLM call failed: %v", err)
		return fallbackAnalysis(documentName)
	}

	var analysis DocumentAnalysis
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &analysis); err != nil {
		logger.Warn("Summariser: unparseable response: %v", err)
		return fallbackAnalysis(documentName)
	}
	return analysis
}

// fallbackAnalysis is the degraded metadata used when summarisation fails.
func fallbackAnalysis(documentName string) DocumentAnalysis {
	return DocumentAnalysis{
		Summary:     fmt.Sprintf("Document %q has been indexed and is ready for AI queries.", documentName),
		Tags:        []string{"document"},
		KeyConcepts: []string{},
	}
}

// stripCodeFence unwraps a JSON payload from markdown code fences, which
// chat models add despite instructions not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}
	if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+len("```"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
		return strings.TrimSpace(s)
	}
	return s
}
