package domain

import (
	"crypto/md5" //nolint:gosec // Content-derived node ids, not security
	"encoding/hex"
	"strings"
)

// Graph node kinds.
const (
	NodeTypeDocument = "document"
	NodeTypeConcept  = "concept"
	NodeTypeTag      = "tag"
)

// GraphNode is a node of the knowledge graph projection.
type GraphNode struct {
	ID       string         `json:"id"`
	Label    string         `json:"label"`
	Type     string         `json:"type"`
	Size     int            `json:"size"`
	Color    string         `json:"color"`
	Metadata map[string]any `json:"metadata"`
}

// GraphEdge is a weighted, labelled relation between two nodes.
type GraphEdge struct {
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight"`
	Label  string  `json:"label"`
}

// KnowledgeGraph is the full graph, recomputed per request from the
// current registry state.
type KnowledgeGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// ConceptNodeID derives a stable node id from a concept label.
// Identical labels (case-insensitively) from different documents collapse
// to the same node. Whitespace is significant.
func ConceptNodeID(label string) string {
	return "concept_" + labelHash(label)
}

// TagNodeID derives a stable node id from a tag label.
func TagNodeID(label string) string {
	return "tag_" + labelHash(label)
}

// labelHash hashes the lower-cased label and truncates to 8 hex chars.
func labelHash(label string) string {
	sum := md5.Sum([]byte(strings.ToLower(label))) //nolint:gosec
	return hex.EncodeToString(sum[:])[:8]
}
