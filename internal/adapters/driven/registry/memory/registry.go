// Package memory provides the in-memory document registry.
// Records are volatile by design: the vault re-ingests after a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/vaultd/internal/core/domain"
	"github.com/custodia-labs/vaultd/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.DocumentRegistry = (*Registry)(nil)

// Registry is an RWMutex-guarded map of document records.
// Update applies mutations under the write lock, so readers never observe
// a torn record.
type Registry struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		docs: make(map[string]domain.Document),
	}
}

// Create registers a new record.
func (r *Registry) Create(_ context.Context, doc domain.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[doc.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.docs[doc.ID] = doc
	return nil
}

// Get returns a copy of the record.
func (r *Registry) Get(_ context.Context, id string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// List returns copies of all records, oldest first.
func (r *Registry) List(_ context.Context) ([]domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	docs := make([]domain.Document, 0, len(r.docs))
	for _, doc := range r.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	return docs, nil
}

// Update applies fn under the write lock and bumps UpdatedAt.
func (r *Registry) Update(_ context.Context, id string, fn func(*domain.Document)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(&doc)
	doc.UpdatedAt = time.Now().UTC()
	r.docs[id] = doc
	return nil
}

// Delete removes the record.
func (r *Registry) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.docs, id)
	return nil
}
