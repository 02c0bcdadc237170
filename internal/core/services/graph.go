package services

import (
	"context"
	"sort"
	"strings"

	"github.com/custodia-labs/vaultd/internal/core/domain"
	"github.com/custodia-labs/vaultd/internal/core/ports/driven"
	"github.com/custodia-labs/vaultd/internal/core/ports/driving"
)

// Ensure GraphBuilder implements the interface.
var _ driving.GraphService = (*GraphBuilder)(nil)

// Graph rendering constants shared with the front end.
const (
	graphDocumentSize = 18
	graphConceptSize  = 10
	graphTagSize      = 8

	graphDocumentColor = "#7C3AED"
	graphConceptColor  = "#06B6D4"
	graphTagColor      = "#F59E0B"

	graphWeightContains = 0.8
	graphWeightTagged   = 0.5
	graphWeightShared   = 0.3

	graphLabelMaxLen = 30
)

// GraphBuilder projects the registry into a knowledge graph: document
// nodes connected to their concepts and tags, plus document-to-document
// edges for shared concepts. The graph is recomputed per request; it
// carries no state of its own.
type GraphBuilder struct {
	registry driven.DocumentRegistry
}

// NewGraphBuilder creates a graph builder over the registry.
func NewGraphBuilder(registry driven.DocumentRegistry) *GraphBuilder {
	return &GraphBuilder{registry: registry}
}

// Build constructs the graph from all ready documents. Concepts and tags
// collapse case-insensitively into single nodes; the first-seen label
// casing wins.
func (g *GraphBuilder) Build(ctx context.Context) (domain.KnowledgeGraph, error) {
	docs, err := g.registry.List(ctx)
	if err != nil {
		return domain.KnowledgeGraph{}, err
	}

	graph := domain.KnowledgeGraph{
		Nodes: []domain.GraphNode{},
		Edges: []domain.GraphEdge{},
	}

	seen := make(map[string]bool)
	conceptDocs := make(map[string][]string)

	for _, doc := range docs {
		if doc.Status != domain.StatusReady {
			continue
		}

		graph.Nodes = append(graph.Nodes, domain.GraphNode{
			ID:    doc.ID,
			Label: truncateLabel(doc.OriginalName, graphLabelMaxLen),
			Type:  domain.NodeTypeDocument,
			Size:  graphDocumentSize,
			Color: graphDocumentColor,
			Metadata: map[string]any{
				"summary":    doc.Summary,
				"word_count": doc.WordCount,
				"tags":       doc.Tags,
			},
		})

		for _, concept := range doc.KeyConcepts {
			conceptID := domain.ConceptNodeID(concept)
			if !seen[conceptID] {
				seen[conceptID] = true
				graph.Nodes = append(graph.Nodes, domain.GraphNode{
					ID:       conceptID,
					Label:    concept,
					Type:     domain.NodeTypeConcept,
					Size:     graphConceptSize,
					Color:    graphConceptColor,
					Metadata: map[string]any{},
				})
			}
			graph.Edges = append(graph.Edges, domain.GraphEdge{
				Source: doc.ID,
				Target: conceptID,
				Weight: graphWeightContains,
				Label:  "contains",
			})
			key := strings.ToLower(concept)
			conceptDocs[key] = append(conceptDocs[key], doc.ID)
		}

		for _, tag := range doc.Tags {
			tagID := domain.TagNodeID(tag)
			if !seen[tagID] {
				seen[tagID] = true
				graph.Nodes = append(graph.Nodes, domain.GraphNode{
					ID:       tagID,
					Label:    "#" + tag,
					Type:     domain.NodeTypeTag,
					Size:     graphTagSize,
					Color:    graphTagColor,
					Metadata: map[string]any{},
				})
			}
			graph.Edges = append(graph.Edges, domain.GraphEdge{
				Source: doc.ID,
				Target: tagID,
				Weight: graphWeightTagged,
				Label:  "tagged",
			})
		}
	}

	// Document-to-document edges for every concept shared by two or more
	// documents. Map iteration order is randomized, so sort the keys for a
	// deterministic edge list.
	concepts := make([]string, 0, len(conceptDocs))
	for concept := range conceptDocs {
		concepts = append(concepts, concept)
	}
	sort.Strings(concepts)

	for _, concept := range concepts {
		ids := conceptDocs[concept]
		if len(ids) < 2 {
			continue
		}
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				graph.Edges = append(graph.Edges, domain.GraphEdge{
					Source: ids[i],
					Target: ids[j],
					Weight: graphWeightShared,
					Label:  "shares: " + concept,
				})
			}
		}
	}

	return graph, nil
}

// truncateLabel shortens a label to maxLen runes, ellipsis included.
func truncateLabel(label string, maxLen int) string {
	runes := []rune(label)
	if len(runes) <= maxLen {
		return label
	}
	return string(runes[:maxLen-3]) + "..."
}
