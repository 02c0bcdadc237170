package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummariseWithoutLLM(t *testing.T) {
	s := NewSummariser(nil)

	analysis := s.SummariseAndTag(context.Background(), "text", "doc.txt")

	assert.Contains(t, analysis.Summary, "API key")
	assert.Equal(t, []string{"document", "knowledge"}, analysis.Tags)
	assert.Empty(t, analysis.KeyConcepts)
}

func TestSummariseParsesResponse(t *testing.T) {
	llm := &mockLLM{response: `{"summary":"About distributed systems.","tags":["systems","consensus"],"key_concepts":["Raft","Paxos"]}`}
	s := NewSummariser(llm)

	analysis := s.SummariseAndTag(context.Background(), "raft paxos", "sys.pdf")

	assert.Equal(t, "About distributed systems.", analysis.Summary)
	assert.Equal(t, []string{"systems", "consensus"}, analysis.Tags)
	assert.Equal(t, []string{"Raft", "Paxos"}, analysis.KeyConcepts)
}

func TestSummariseParsesFencedResponse(t *testing.T) {
	llm := &mockLLM{response: "```json\n{\"summary\":\"Fenced.\",\"tags\":[\"a\"],\"key_concepts\":[]}\n```"}
	s := NewSummariser(llm)

	analysis := s.SummariseAndTag(context.Background(), "text", "doc.txt")

	assert.Equal(t, "Fenced.", analysis.Summary)
	assert.Equal(t, []string{"a"}, analysis.Tags)
}

func TestSummariseFallsBackOnGarbage(t *testing.T) {
	llm := &mockLLM{response: "I will not produce JSON today."}
	s := NewSummariser(llm)

	analysis := s.SummariseAndTag(context.Background(), "text", "doc.txt")

	assert.Contains(t, analysis.Summary, `"doc.txt"`)
	assert.Contains(t, analysis.Summary, "indexed")
	assert.Equal(t, []string{"document"}, analysis.Tags)
}

func TestSummariseFallsBackOnLLMError(t *testing.T) {
	llm := &mockLLM{completeErr: errors.New("rate limited")}
	s := NewSummariser(llm)

	analysis := s.SummariseAndTag(context.Background(), "text", "doc.txt")

	assert.Contains(t, analysis.Summary, "indexed")
	assert.Equal(t, []string{"document"}, analysis.Tags)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"anonymous fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading prose", "Here you go: ```json\n{\"a\":1}\n```", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.in))
		})
	}
}
