package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.True(t, StatusReady.IsTerminal())
	assert.True(t, StatusError.IsTerminal())
}

func TestStatusValid(t *testing.T) {
	for _, s := range []DocumentStatus{StatusPending, StatusProcessing, StatusReady, StatusError} {
		assert.True(t, s.IsValid(), s)
	}
	assert.False(t, DocumentStatus("archived").IsValid())
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "doc-1_chunk_0", ChunkID("doc-1", 0))
	assert.Equal(t, "doc-1_chunk_12", ChunkID("doc-1", 12))
	// Chunk ids embed their document id so index sweeps by document work.
	assert.NotEqual(t, ChunkID("doc-1", 1), ChunkID("doc-2", 1))
}

func TestSearchResultPageNumberSerializesAsNull(t *testing.T) {
	body, err := json.Marshal(SearchResult{ChunkID: "c1"})

	require.NoError(t, err)
	assert.Contains(t, string(body), `"page_number":null`)
}

func TestConceptAndTagNodeIDs(t *testing.T) {
	assert.Equal(t, ConceptNodeID("Database"), ConceptNodeID("database"))
	assert.NotEqual(t, ConceptNodeID("db"), ConceptNodeID("database"))
	assert.NotEqual(t, ConceptNodeID("x"), TagNodeID("x"))
}
