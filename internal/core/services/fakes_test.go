package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	memvector "github.com/custodia-labs/vaultd/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/vaultd/internal/core/domain"
)

// --- Mock implementations ---

const fakeDims = 64

// hashEmbed produces a deterministic bag-of-words embedding. Texts sharing
// vocabulary land close together, which is enough signal for ranking tests.
func hashEmbed(text string) []float32 {
	vec := make([]float32, fakeDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%fakeDims]++
	}
	return vec
}

// fakeEmbedder implements driven.EmbeddingService with hash embeddings.
type fakeEmbedder struct {
	embedErr error
	calls    int
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	f.calls++
	return hashEmbed(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	f.calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = hashEmbed(text)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int   { return fakeDims }
func (f *fakeEmbedder) ModelName() string { return "hash-embed-test" }
func (f *fakeEmbedder) Close() error      { return nil }

// mockExtractorRegistry implements driven.ExtractorRegistry with canned
// output per file path.
type mockExtractorRegistry struct {
	texts      map[string]string
	units      int
	extractErr error
}

func (m *mockExtractorRegistry) Extract(_ context.Context, path, _ string) (string, int, error) {
	if m.extractErr != nil {
		return "", 0, m.extractErr
	}
	units := m.units
	if units == 0 {
		units = 1
	}
	return m.texts[path], units, nil
}

// gatedExtractorRegistry blocks every Extract call until released and
// records how many ran at once.
type gatedExtractorRegistry struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	release  chan struct{}
}

func newGatedExtractorRegistry() *gatedExtractorRegistry {
	return &gatedExtractorRegistry{release: make(chan struct{})}
}

func (g *gatedExtractorRegistry) Extract(ctx context.Context, _, _ string) (string, int, error) {
	g.mu.Lock()
	g.inFlight++
	if g.inFlight > g.peak {
		g.peak = g.inFlight
	}
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.inFlight--
		g.mu.Unlock()
	}()

	select {
	case <-g.release:
		return testDocText, 1, nil
	case <-ctx.Done():
		return "", 0, ctx.Err()
	}
}

func (g *gatedExtractorRegistry) current() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

func (g *gatedExtractorRegistry) peakInFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.peak
}

// stallingExtractorRegistry never returns until the stage deadline fires.
type stallingExtractorRegistry struct{}

func (stallingExtractorRegistry) Extract(ctx context.Context, _, _ string) (string, int, error) {
	<-ctx.Done()
	return "", 0, ctx.Err()
}

// failingIndex wraps the in-memory index and rejects writes.
type failingIndex struct {
	*memvector.Index
	upsertErr error
}

func (f *failingIndex) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.Index.Upsert(ctx, chunks)
}

// mockLLM implements driven.LLMService with a scripted response.
type mockLLM struct {
	response    string
	completeErr error
	streamErr   error
	tokens      []string
	gotMessages []domain.ChatMessage
}

func (m *mockLLM) Complete(_ context.Context, messages []domain.ChatMessage) (string, error) {
	m.gotMessages = messages
	if m.completeErr != nil {
		return "", m.completeErr
	}
	return m.response, nil
}

func (m *mockLLM) Stream(_ context.Context, messages []domain.ChatMessage, fn func(token string) error) error {
	m.gotMessages = messages
	if m.streamErr != nil {
		return m.streamErr
	}
	for _, token := range m.tokens {
		if err := fn(token); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Close() error      { return nil }
