package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/custodia-labs/vaultd/internal/chunker"
	"github.com/custodia-labs/vaultd/internal/core/domain"
	"github.com/custodia-labs/vaultd/internal/core/ports/driven"
	"github.com/custodia-labs/vaultd/internal/core/ports/driving"
	"github.com/custodia-labs/vaultd/internal/logger"
)

// Ensure VaultService implements the interface.
var _ driving.VaultService = (*VaultService)(nil)

// DefaultMaxConcurrent bounds in-flight ingestion pipelines. Uploads beyond
// the limit queue on the semaphore rather than being rejected; the upload
// request itself still returns immediately.
const DefaultMaxConcurrent = 4

// DefaultStageTimeout is the per-stage deadline for external calls
// (extraction, embedding, indexing, summarisation). A stage that exceeds it
// fails the document instead of blocking it in processing forever.
const DefaultStageTimeout = 2 * time.Minute

// VaultService manages the document vault: it runs the ingestion pipeline
// and serves listings, deletion, and stats. It is the registry's only
// mutator.
type VaultService struct {
	registry   driven.DocumentRegistry
	extractors driven.ExtractorRegistry
	chunker    *chunker.Chunker
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	summariser *Summariser

	sem          *semaphore.Weighted
	stageTimeout time.Duration
	wg           sync.WaitGroup
}

// VaultOption configures the vault service.
type VaultOption func(*VaultService)

// WithMaxConcurrent caps concurrent in-flight pipelines.
func WithMaxConcurrent(n int) VaultOption {
	return func(s *VaultService) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithStageTimeout sets the per-stage deadline.
func WithStageTimeout(d time.Duration) VaultOption {
	return func(s *VaultService) {
		if d > 0 {
			s.stageTimeout = d
		}
	}
}

// NewVaultService creates the vault service.
func NewVaultService(
	registry driven.DocumentRegistry,
	extractors driven.ExtractorRegistry,
	chk *chunker.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	summariser *Summariser,
	opts ...VaultOption,
) *VaultService {
	s := &VaultService{
		registry:     registry,
		extractors:   extractors,
		chunker:      chk,
		embedder:     embedder,
		index:        index,
		summariser:   summariser,
		sem:          semaphore.NewWeighted(DefaultMaxConcurrent),
		stageTimeout: DefaultStageTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest registers the document as pending and schedules the pipeline.
// It returns the new document id without waiting for any pipeline stage.
func (s *VaultService) Ingest(ctx context.Context, req driving.IngestRequest) (string, error) {
	if strings.TrimSpace(req.FilePath) == "" {
		return "", fmt.Errorf("%w: file path is required", domain.ErrInvalidInput)
	}

	docID := uuid.New().String()
	now := time.Now().UTC()

	doc := domain.Document{
		ID:           docID,
		Filename:     baseName(req.FilePath),
		OriginalName: req.OriginalName,
		FileType:     req.FileType,
		FileSize:     req.FileSize,
		Status:       domain.StatusPending,
		Tags:         []string{},
		KeyConcepts:  []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.registry.Create(ctx, doc); err != nil {
		return "", err
	}

	s.wg.Add(1)
	go s.runPipeline(docID, req)

	logger.Info("Ingest scheduled: %s (%s)", docID, req.OriginalName)
	return docID, nil
}

// List returns all document records, including failed ones.
func (s *VaultService) List(ctx context.Context) ([]domain.Document, error) {
	return s.registry.List(ctx)
}

// Get returns one document record.
func (s *VaultService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.registry.Get(ctx, id)
}

// Delete removes the document's vectors and its registry record.
// Index-deletion failures are logged and swallowed so a partially indexed
// or orphaned document can always be removed from listings.
func (s *VaultService) Delete(ctx context.Context, id string) (bool, error) {
	if _, err := s.registry.Get(ctx, id); err != nil {
		return false, nil
	}

	removed, err := s.index.DeleteWhere(ctx, driven.VectorFilter{DocumentIDs: []string{id}})
	if err != nil {
		logger.Warn("Delete %s: index sweep failed: %v", id, err)
	} else {
		logger.Debug("Delete %s: removed %d vectors", id, removed)
	}

	if err := s.registry.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// Stats aggregates registry state. Tags and concepts are counted over
// ready documents only, since failed documents carry no derived metadata.
func (s *VaultService) Stats(ctx context.Context) (domain.VaultStats, error) {
	docs, err := s.registry.List(ctx)
	if err != nil {
		return domain.VaultStats{}, err
	}

	stats := domain.VaultStats{
		TotalDocuments: len(docs),
		TopTags:        []string{},
		TopConcepts:    []string{},
	}

	tags := make(map[string]bool)
	concepts := make(map[string]bool)

	for _, doc := range docs {
		if doc.Status != domain.StatusReady {
			continue
		}
		stats.ReadyDocuments++
		stats.TotalChunks += doc.ChunkCount
		stats.TotalWords += doc.WordCount
		for _, t := range doc.Tags {
			if !tags[t] {
				tags[t] = true
				if len(stats.TopTags) < 10 {
					stats.TopTags = append(stats.TopTags, t)
				}
			}
		}
		for _, c := range doc.KeyConcepts {
			if !concepts[c] {
				concepts[c] = true
				if len(stats.TopConcepts) < 10 {
					stats.TopConcepts = append(stats.TopConcepts, c)
				}
			}
		}
	}

	stats.UniqueTags = len(tags)
	stats.UniqueConcepts = len(concepts)
	return stats, nil
}

// Wait blocks until all in-flight pipelines finish. Used on shutdown and
// in tests.
func (s *VaultService) Wait() {
	s.wg.Wait()
}
