package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memregistry "github.com/custodia-labs/vaultd/internal/adapters/driven/registry/memory"
	"github.com/custodia-labs/vaultd/internal/core/domain"
)

func seedDocument(t *testing.T, registry *memregistry.Registry, doc domain.Document) {
	t.Helper()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	require.NoError(t, registry.Create(context.Background(), doc))
}

func findNode(graph domain.KnowledgeGraph, id string) *domain.GraphNode {
	for i := range graph.Nodes {
		if graph.Nodes[i].ID == id {
			return &graph.Nodes[i]
		}
	}
	return nil
}

func TestBuildEmptyRegistry(t *testing.T) {
	builder := NewGraphBuilder(memregistry.NewRegistry())

	graph, err := builder.Build(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, graph.Nodes)
	assert.NotNil(t, graph.Edges)
	assert.Empty(t, graph.Nodes)
	assert.Empty(t, graph.Edges)
}

func TestBuildSkipsNonReadyDocuments(t *testing.T) {
	registry := memregistry.NewRegistry()
	seedDocument(t, registry, domain.Document{
		ID: "pending-1", OriginalName: "pending.txt", Status: domain.StatusPending,
	})
	seedDocument(t, registry, domain.Document{
		ID: "failed-1", OriginalName: "failed.txt", Status: domain.StatusError,
	})

	graph, err := NewGraphBuilder(registry).Build(context.Background())

	require.NoError(t, err)
	assert.Empty(t, graph.Nodes)
}

func TestBuildDocumentConceptAndTagNodes(t *testing.T) {
	registry := memregistry.NewRegistry()
	seedDocument(t, registry, domain.Document{
		ID:           "doc-1",
		OriginalName: "go-notes.md",
		Status:       domain.StatusReady,
		Summary:      "Notes on Go.",
		WordCount:    1200,
		Tags:         []string{"golang"},
		KeyConcepts:  []string{"Concurrency"},
	})

	graph, err := NewGraphBuilder(registry).Build(context.Background())
	require.NoError(t, err)

	docNode := findNode(graph, "doc-1")
	require.NotNil(t, docNode)
	assert.Equal(t, domain.NodeTypeDocument, docNode.Type)
	assert.Equal(t, 18, docNode.Size)
	assert.Equal(t, "#7C3AED", docNode.Color)
	assert.Equal(t, "Notes on Go.", docNode.Metadata["summary"])
	assert.Equal(t, 1200, docNode.Metadata["word_count"])

	conceptNode := findNode(graph, domain.ConceptNodeID("Concurrency"))
	require.NotNil(t, conceptNode)
	assert.Equal(t, domain.NodeTypeConcept, conceptNode.Type)
	assert.Equal(t, "Concurrency", conceptNode.Label)
	assert.Equal(t, 10, conceptNode.Size)
	assert.Equal(t, "#06B6D4", conceptNode.Color)

	tagNode := findNode(graph, domain.TagNodeID("golang"))
	require.NotNil(t, tagNode)
	assert.Equal(t, domain.NodeTypeTag, tagNode.Type)
	assert.Equal(t, "#golang", tagNode.Label)
	assert.Equal(t, 8, tagNode.Size)
	assert.Equal(t, "#F59E0B", tagNode.Color)

	require.Len(t, graph.Edges, 2)
	var contains, tagged *domain.GraphEdge
	for i := range graph.Edges {
		switch graph.Edges[i].Label {
		case "contains":
			contains = &graph.Edges[i]
		case "tagged":
			tagged = &graph.Edges[i]
		}
	}
	require.NotNil(t, contains)
	assert.Equal(t, 0.8, contains.Weight)
	assert.Equal(t, "doc-1", contains.Source)
	require.NotNil(t, tagged)
	assert.Equal(t, 0.5, tagged.Weight)
}

func TestBuildConceptsCollapseCaseInsensitively(t *testing.T) {
	registry := memregistry.NewRegistry()
	seedDocument(t, registry, domain.Document{
		ID: "doc-1", OriginalName: "a.md", Status: domain.StatusReady,
		KeyConcepts: []string{"Machine Learning"},
		CreatedAt:   time.Now().UTC(),
	})
	seedDocument(t, registry, domain.Document{
		ID: "doc-2", OriginalName: "b.md", Status: domain.StatusReady,
		KeyConcepts: []string{"machine learning"},
		CreatedAt:   time.Now().UTC().Add(time.Millisecond),
	})

	graph, err := NewGraphBuilder(registry).Build(context.Background())
	require.NoError(t, err)

	// One shared concept node, two document nodes.
	conceptNodes := 0
	for _, n := range graph.Nodes {
		if n.Type == domain.NodeTypeConcept {
			conceptNodes++
		}
	}
	assert.Equal(t, 1, conceptNodes)

	// Sharing a concept links the documents directly.
	var shared *domain.GraphEdge
	for i := range graph.Edges {
		if strings.HasPrefix(graph.Edges[i].Label, "shares: ") {
			shared = &graph.Edges[i]
		}
	}
	require.NotNil(t, shared)
	assert.Equal(t, 0.3, shared.Weight)
	assert.Equal(t, "shares: machine learning", shared.Label)
	assert.ElementsMatch(t,
		[]string{"doc-1", "doc-2"},
		[]string{shared.Source, shared.Target})
}

func TestBuildStableNodeIDs(t *testing.T) {
	assert.Equal(t, domain.ConceptNodeID("Testing"), domain.ConceptNodeID("testing"))
	assert.NotEqual(t, domain.ConceptNodeID("testing"), domain.TagNodeID("testing"))
	assert.True(t, strings.HasPrefix(domain.ConceptNodeID("x"), "concept_"))
	assert.True(t, strings.HasPrefix(domain.TagNodeID("x"), "tag_"))
	assert.Len(t, strings.TrimPrefix(domain.ConceptNodeID("x"), "concept_"), 8)
}

func TestBuildTruncatesLongLabels(t *testing.T) {
	registry := memregistry.NewRegistry()
	longName := strings.Repeat("verylongfilename", 5) + ".pdf"
	seedDocument(t, registry, domain.Document{
		ID: "doc-1", OriginalName: longName, Status: domain.StatusReady,
	})

	graph, err := NewGraphBuilder(registry).Build(context.Background())
	require.NoError(t, err)

	node := findNode(graph, "doc-1")
	require.NotNil(t, node)
	assert.Len(t, node.Label, 30)
	assert.True(t, strings.HasSuffix(node.Label, "..."))
}
