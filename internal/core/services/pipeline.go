package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/vaultd/internal/core/domain"
	"github.com/custodia-labs/vaultd/internal/core/ports/driving"
	"github.com/custodia-labs/vaultd/internal/logger"
	"github.com/custodia-labs/vaultd/internal/metrics"
)

// summariseExcerptChars bounds the text sent to the summariser so prompt
// size stays constant regardless of document length.
const summariseExcerptChars = 3000

// runPipeline executes the full ingestion pipeline for one document:
// extract, chunk, embed, index, summarise. It runs in its own goroutine;
// concurrency is bounded by the service semaphore. Failures in the first
// four stages move the document to StatusError with a diagnostic summary.
// Summarisation never fails a document.
func (s *VaultService) runPipeline(docID string, req driving.IngestRequest) {
	defer s.wg.Done()

	ctx := context.Background()
	if err := s.sem.Acquire(ctx, 1); err != nil {
		s.fail(docID, fmt.Sprintf("pipeline not scheduled: %v", err))
		return
	}
	defer s.sem.Release(1)

	s.setStatus(docID, domain.StatusProcessing)
	logger.Debug("Pipeline %s: processing %s", docID, req.OriginalName)

	// Extract.
	text, units, err := s.stageExtract(ctx, req)
	if err != nil {
		s.fail(docID, err.Error())
		return
	}
	wordCount := len(strings.Fields(text))

	// Chunk.
	spans := s.chunker.Chunk(text)
	if len(spans) == 0 {
		s.fail(docID, "Could not extract text from document.")
		return
	}
	chunks := make([]domain.Chunk, len(spans))
	texts := make([]string, len(spans))
	for i, span := range spans {
		chunks[i] = domain.Chunk{
			ID:           domain.ChunkID(docID, span.Index),
			DocumentID:   docID,
			DocumentName: req.OriginalName,
			Content:      span.Content,
			Index:        span.Index,
			CharCount:    span.CharCount,
		}
		texts[i] = span.Content
	}

	// Embed.
	vectors, err := s.stageEmbed(ctx, texts)
	if err != nil {
		s.fail(docID, fmt.Sprintf("embedding failed: %v", err))
		return
	}
	for i := range chunks {
		chunks[i].Embedding = vectors[i]
	}

	// Index.
	if err := s.stageIndex(ctx, chunks); err != nil {
		s.fail(docID, fmt.Sprintf("indexing failed: %v", err))
		return
	}
	metrics.ChunksIndexed.Add(float64(len(chunks)))

	// Summarise. Best-effort: the summariser returns fallback metadata on
	// any internal failure, so this stage cannot fail the document.
	sumCtx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	analysis := s.summariser.SummariseAndTag(sumCtx, excerpt(text, summariseExcerptChars), req.OriginalName)
	cancel()

	err = s.registry.Update(ctx, docID, func(doc *domain.Document) {
		if doc.Status.IsTerminal() {
			return
		}
		doc.Status = domain.StatusReady
		doc.ChunkCount = len(chunks)
		doc.WordCount = wordCount
		doc.PageCount = units
		doc.Summary = analysis.Summary
		doc.Tags = analysis.Tags
		doc.KeyConcepts = analysis.KeyConcepts
	})
	if err != nil {
		logger.Warn("Pipeline %s: final update failed: %v", docID, err)
		return
	}

	metrics.DocumentsIngested.Inc()
	logger.Info("Pipeline %s: ready (%d chunks, %d words)", docID, len(chunks), wordCount)
}

// stageExtract runs text extraction under the stage deadline. An empty
// extraction result is an error: there is nothing to index.
func (s *VaultService) stageExtract(ctx context.Context, req driving.IngestRequest) (string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()

	text, units, err := s.extractors.Extract(ctx, req.FilePath, req.FileType)
	if err != nil {
		return "", 0, fmt.Errorf("extraction failed: %w", stageErr("extract", err))
	}
	if strings.TrimSpace(text) == "" {
		return "", 0, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, "Could not extract text from document.")
	}
	return text, units, nil
}

// stageEmbed embeds all chunk texts under the stage deadline.
func (s *VaultService) stageEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, stageErr("embed", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrEmbeddingUnavailable, len(vectors), len(texts))
	}
	return vectors, nil
}

// stageIndex writes the embedded chunks to the vector index under the
// stage deadline.
func (s *VaultService) stageIndex(ctx context.Context, chunks []domain.Chunk) error {
	ctx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()
	if err := s.index.Upsert(ctx, chunks); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, stageErr("index", err))
	}
	return nil
}

// stageErr maps a stage deadline to ErrStageTimeout so the diagnostic
// names the timeout instead of a bare context error.
func stageErr(stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w in %s stage", domain.ErrStageTimeout, stage)
	}
	return err
}

// fail moves the document to StatusError with a diagnostic summary. The
// record is never deleted on failure so the error stays visible in
// listings. A document already in a terminal state is left untouched.
func (s *VaultService) fail(docID, msg string) {
	metrics.DocumentsFailed.Inc()
	logger.Error("Pipeline %s: %s", docID, msg)

	err := s.registry.Update(context.Background(), docID, func(doc *domain.Document) {
		if doc.Status.IsTerminal() {
			return
		}
		doc.Status = domain.StatusError
		doc.Summary = "Error during processing: " + msg
	})
	if err != nil {
		logger.Warn("Pipeline %s: could not record failure: %v", docID, err)
	}
}

// setStatus applies a status transition unless the document has already
// reached a terminal state.
func (s *VaultService) setStatus(docID string, status domain.DocumentStatus) {
	err := s.registry.Update(context.Background(), docID, func(doc *domain.Document) {
		if doc.Status.IsTerminal() {
			return
		}
		doc.Status = status
	})
	if err != nil {
		logger.Warn("Pipeline %s: status update failed: %v", docID, err)
	}
}

// excerpt returns at most n characters of text, cut on a rune boundary.
func excerpt(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

// baseName returns the stored file name for a path.
func baseName(path string) string {
	return filepath.Base(path)
}
