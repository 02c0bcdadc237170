package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memregistry "github.com/custodia-labs/vaultd/internal/adapters/driven/registry/memory"
	memvector "github.com/custodia-labs/vaultd/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/vaultd/internal/chunker"
	"github.com/custodia-labs/vaultd/internal/core/domain"
	"github.com/custodia-labs/vaultd/internal/core/ports/driving"
)

const testDocText = "Go makes concurrency tractable. Goroutines are cheap. " +
	"Channels move data between them. The scheduler multiplexes everything onto OS threads."

type vaultFixture struct {
	vault    *VaultService
	registry *memregistry.Registry
	index    *memvector.Index
	embedder *fakeEmbedder
}

func newVaultFixture(t *testing.T, extractors *mockExtractorRegistry) *vaultFixture {
	t.Helper()
	f := &vaultFixture{
		registry: memregistry.NewRegistry(),
		index:    memvector.NewIndex(),
		embedder: &fakeEmbedder{},
	}
	f.vault = NewVaultService(
		f.registry,
		extractors,
		chunker.New(chunker.WithChunkSize(80), chunker.WithOverlap(16)),
		f.embedder,
		f.index,
		NewSummariser(nil),
		WithStageTimeout(5*time.Second),
	)
	return f
}

// ingestAndWait schedules ingestion and blocks until the document reaches
// a terminal state.
func (f *vaultFixture) ingestAndWait(t *testing.T, req driving.IngestRequest) *domain.Document {
	t.Helper()
	ctx := context.Background()

	id, err := f.vault.Ingest(ctx, req)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		doc, err := f.vault.Get(ctx, id)
		return err == nil && doc.Status.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)

	doc, err := f.vault.Get(ctx, id)
	require.NoError(t, err)
	return doc
}

func TestIngestReachesReady(t *testing.T) {
	f := newVaultFixture(t, &mockExtractorRegistry{
		texts: map[string]string{"/tmp/notes.txt": testDocText},
		units: 2,
	})

	doc := f.ingestAndWait(t, driving.IngestRequest{
		FilePath:     "/tmp/notes.txt",
		OriginalName: "notes.txt",
		FileType:     "txt",
		FileSize:     int64(len(testDocText)),
	})

	assert.Equal(t, domain.StatusReady, doc.Status)
	assert.Equal(t, "notes.txt", doc.OriginalName)
	assert.Greater(t, doc.ChunkCount, 0)
	assert.Equal(t, len(strings.Fields(testDocText)), doc.WordCount)
	assert.Equal(t, 2, doc.PageCount)
	// No LLM configured: metadata falls back to the placeholder.
	assert.NotEmpty(t, doc.Summary)
	assert.Equal(t, []string{"document", "knowledge"}, doc.Tags)

	count, err := f.index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, doc.ChunkCount, count)
}

func TestIngestIsAsynchronous(t *testing.T) {
	f := newVaultFixture(t, &mockExtractorRegistry{
		texts: map[string]string{"/tmp/slow.txt": testDocText},
	})

	id, err := f.vault.Ingest(context.Background(), driving.IngestRequest{
		FilePath:     "/tmp/slow.txt",
		OriginalName: "slow.txt",
		FileType:     "txt",
	})
	require.NoError(t, err)

	// The record exists immediately, before the pipeline finishes.
	doc, err := f.vault.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, doc.Status == domain.StatusPending ||
		doc.Status == domain.StatusProcessing ||
		doc.Status == domain.StatusReady)

	f.vault.Wait()
}

func TestIngestExtractionFailure(t *testing.T) {
	f := newVaultFixture(t, &mockExtractorRegistry{
		extractErr: errors.New("corrupt file"),
	})

	doc := f.ingestAndWait(t, driving.IngestRequest{
		FilePath:     "/tmp/broken.pdf",
		OriginalName: "broken.pdf",
		FileType:     "pdf",
	})

	assert.Equal(t, domain.StatusError, doc.Status)
	assert.True(t, strings.HasPrefix(doc.Summary, "Error during processing:"), doc.Summary)
	assert.Contains(t, doc.Summary, "corrupt file")
	// Failed documents never report chunks.
	assert.Equal(t, 0, doc.ChunkCount)
}

func TestIngestEmptyDocument(t *testing.T) {
	f := newVaultFixture(t, &mockExtractorRegistry{
		texts: map[string]string{"/tmp/blank.txt": "   \n\n  "},
	})

	doc := f.ingestAndWait(t, driving.IngestRequest{
		FilePath:     "/tmp/blank.txt",
		OriginalName: "blank.txt",
		FileType:     "txt",
	})

	assert.Equal(t, domain.StatusError, doc.Status)
	assert.Contains(t, doc.Summary, "Could not extract text from document.")
}

func TestIngestEmbeddingFailure(t *testing.T) {
	f := newVaultFixture(t, &mockExtractorRegistry{
		texts: map[string]string{"/tmp/doc.txt": testDocText},
	})
	f.embedder.embedErr = errors.New("backend down")

	doc := f.ingestAndWait(t, driving.IngestRequest{
		FilePath:     "/tmp/doc.txt",
		OriginalName: "doc.txt",
		FileType:     "txt",
	})

	assert.Equal(t, domain.StatusError, doc.Status)
	assert.Contains(t, doc.Summary, "embedding failed")

	count, err := f.index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count, "nothing may reach the index when embedding fails")
}

func TestDeleteSweepsIndexAndRegistry(t *testing.T) {
	f := newVaultFixture(t, &mockExtractorRegistry{
		texts: map[string]string{"/tmp/doc.txt": testDocText},
	})
	ctx := context.Background()

	doc := f.ingestAndWait(t, driving.IngestRequest{
		FilePath:     "/tmp/doc.txt",
		OriginalName: "doc.txt",
		FileType:     "txt",
	})
	require.Equal(t, domain.StatusReady, doc.Status)

	ok, err := f.vault.Delete(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.vault.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	count, err := f.index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Deleting again reports not found, not an error.
	ok, err = f.vault.Delete(ctx, doc.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteUnknownDocument(t *testing.T) {
	f := newVaultFixture(t, &mockExtractorRegistry{})

	ok, err := f.vault.Delete(context.Background(), "no-such-id")

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatsCountsOnlyReadyDocuments(t *testing.T) {
	f := newVaultFixture(t, &mockExtractorRegistry{
		texts: map[string]string{
			"/tmp/a.txt": testDocText,
			"/tmp/b.txt": "", // fails with empty extraction
		},
	})

	ready := f.ingestAndWait(t, driving.IngestRequest{
		FilePath: "/tmp/a.txt", OriginalName: "a.txt", FileType: "txt",
	})
	failed := f.ingestAndWait(t, driving.IngestRequest{
		FilePath: "/tmp/b.txt", OriginalName: "b.txt", FileType: "txt",
	})
	require.Equal(t, domain.StatusReady, ready.Status)
	require.Equal(t, domain.StatusError, failed.Status)

	stats, err := f.vault.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalDocuments)
	assert.Equal(t, 1, stats.ReadyDocuments)
	assert.Equal(t, ready.ChunkCount, stats.TotalChunks)
	assert.Equal(t, ready.WordCount, stats.TotalWords)
	assert.Equal(t, 2, stats.UniqueTags) // placeholder tags: document, knowledge
}

func TestConcurrentIngestsAllComplete(t *testing.T) {
	f := newVaultFixture(t, &mockExtractorRegistry{
		texts: map[string]string{
			"/tmp/1.txt": testDocText,
			"/tmp/2.txt": testDocText,
			"/tmp/3.txt": testDocText,
		},
	})
	ctx := context.Background()

	var ids []string
	for _, path := range []string{"/tmp/1.txt", "/tmp/2.txt", "/tmp/3.txt"} {
		id, err := f.vault.Ingest(ctx, driving.IngestRequest{
			FilePath: path, OriginalName: path, FileType: "txt",
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	f.vault.Wait()

	for _, id := range ids {
		doc, err := f.vault.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusReady, doc.Status)
	}
}

func TestIngestRejectsEmptyFilePath(t *testing.T) {
	f := newVaultFixture(t, &mockExtractorRegistry{})

	_, err := f.vault.Ingest(context.Background(), driving.IngestRequest{
		FilePath: "  ", OriginalName: "ghost.txt", FileType: "txt",
	})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	docs, listErr := f.vault.List(context.Background())
	require.NoError(t, listErr)
	assert.Empty(t, docs, "no record may be created for a rejected request")
}

func TestPipelineFanOutIsBounded(t *testing.T) {
	const limit = 2
	gate := newGatedExtractorRegistry()
	vault := NewVaultService(
		memregistry.NewRegistry(),
		gate,
		chunker.New(chunker.WithChunkSize(80), chunker.WithOverlap(16)),
		&fakeEmbedder{},
		memvector.NewIndex(),
		NewSummariser(nil),
		WithMaxConcurrent(limit),
		WithStageTimeout(5*time.Second),
	)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 6; i++ {
		id, err := vault.Ingest(ctx, driving.IngestRequest{
			FilePath:     fmt.Sprintf("/tmp/%d.txt", i),
			OriginalName: fmt.Sprintf("%d.txt", i),
			FileType:     "txt",
		})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	// The semaphore must saturate at the limit while the rest queue.
	require.Eventually(t, func() bool {
		return gate.current() == limit
	}, 5*time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool {
		return gate.current() > limit
	}, 200*time.Millisecond, 10*time.Millisecond)

	close(gate.release)
	vault.Wait()

	assert.Equal(t, limit, gate.peakInFlight())
	for _, id := range ids {
		doc, err := vault.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusReady, doc.Status)
	}
}

func TestIngestStageTimeout(t *testing.T) {
	registry := memregistry.NewRegistry()
	vault := NewVaultService(
		registry,
		stallingExtractorRegistry{},
		chunker.New(),
		&fakeEmbedder{},
		memvector.NewIndex(),
		NewSummariser(nil),
		WithStageTimeout(50*time.Millisecond),
	)
	ctx := context.Background()

	id, err := vault.Ingest(ctx, driving.IngestRequest{
		FilePath: "/tmp/stuck.txt", OriginalName: "stuck.txt", FileType: "txt",
	})
	require.NoError(t, err)
	vault.Wait()

	doc, err := vault.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, doc.Status)
	assert.Contains(t, doc.Summary, domain.ErrStageTimeout.Error())
	assert.Contains(t, doc.Summary, "extract")
}

func TestIngestIndexFailure(t *testing.T) {
	index := &failingIndex{Index: memvector.NewIndex(), upsertErr: errors.New("disk full")}
	vault := NewVaultService(
		memregistry.NewRegistry(),
		&mockExtractorRegistry{texts: map[string]string{"/tmp/doc.txt": testDocText}},
		chunker.New(chunker.WithChunkSize(80), chunker.WithOverlap(16)),
		&fakeEmbedder{},
		index,
		NewSummariser(nil),
	)
	ctx := context.Background()

	id, err := vault.Ingest(ctx, driving.IngestRequest{
		FilePath: "/tmp/doc.txt", OriginalName: "doc.txt", FileType: "txt",
	})
	require.NoError(t, err)
	vault.Wait()

	doc, err := vault.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, doc.Status)
	assert.Contains(t, doc.Summary, domain.ErrIndexUnavailable.Error())
	assert.Contains(t, doc.Summary, "disk full")
}
