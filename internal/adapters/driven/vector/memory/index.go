// Package memory provides an in-memory vector index with exact
// (brute-force) cosine nearest-neighbour search. Suitable for tests and
// small vaults; the sqlite index adds persistence with the same contract.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/vaultd/internal/core/domain"
	"github.com/custodia-labs/vaultd/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type entry struct {
	chunk  domain.Chunk
	vector []float32
}

// Index stores chunk vectors in a mutex-guarded map.
type Index struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		entries: make(map[string]entry),
	}
}

// Upsert writes chunks keyed by chunk ID, replacing existing entries.
func (x *Index) Upsert(_ context.Context, chunks []domain.Chunk) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, c := range chunks {
		vector := c.Embedding
		stored := c
		stored.Embedding = nil
		x.entries[c.ID] = entry{chunk: stored, vector: vector}
	}
	return nil
}

// Query returns the k nearest neighbours by cosine distance, ascending.
func (x *Index) Query(_ context.Context, vector []float32, k int, filter *driven.VectorFilter) ([]driven.VectorHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if k <= 0 {
		return nil, nil
	}

	hits := make([]driven.VectorHit, 0, len(x.entries))
	for _, e := range x.entries {
		if !filter.Matches(e.chunk) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			Chunk:    e.chunk,
			Distance: cosineDistance(vector, e.vector),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance == hits[j].Distance {
			return hits[i].Chunk.ID < hits[j].Chunk.ID
		}
		return hits[i].Distance < hits[j].Distance
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// DeleteWhere removes all entries matching the filter.
func (x *Index) DeleteWhere(_ context.Context, filter driven.VectorFilter) (int, error) {
	if len(filter.DocumentIDs) == 0 {
		return 0, nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	removed := 0
	for id, e := range x.entries {
		if (&filter).Matches(e.chunk) {
			delete(x.entries, id)
			removed++
		}
	}
	return removed, nil
}

// Count returns the number of indexed chunks.
func (x *Index) Count(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries), nil
}

// Close releases resources.
func (x *Index) Close() error {
	return nil
}

// cosineDistance returns 1 - cosine similarity, in [0, 2].
// Zero vectors are treated as maximally distant from everything.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
