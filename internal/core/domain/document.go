package domain

import (
	"fmt"
	"time"
)

// DocumentStatus tracks a document through the ingestion lifecycle.
type DocumentStatus string

// Document lifecycle states. Transitions are monotone:
// pending -> processing -> ready|error. Terminal states are never left.
const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusError      DocumentStatus = "error"
)

// IsTerminal returns true for states the pipeline never leaves.
func (s DocumentStatus) IsTerminal() bool {
	return s == StatusReady || s == StatusError
}

// IsValid returns true if the status is recognised.
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusReady, StatusError:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s DocumentStatus) String() string {
	return string(s)
}

// Document is a vault document record: metadata plus ingestion status.
// The registry owns these records; the ingestion pipeline is the only mutator.
type Document struct {
	// ID is the opaque, immutable document identifier.
	ID string `json:"id"`

	// Filename is the stored file name under the upload directory.
	Filename string `json:"filename"`

	// OriginalName is the file name as uploaded by the user.
	OriginalName string `json:"original_name"`

	// FileType is the lower-cased file extension (pdf, docx, txt, ...).
	FileType string `json:"file_type"`

	// FileSize is the upload size in bytes.
	FileSize int64 `json:"file_size"`

	// Status is the current lifecycle state.
	Status DocumentStatus `json:"status"`

	// ChunkCount is authoritative only once Status is StatusReady.
	ChunkCount int `json:"chunk_count"`

	// Tags are short labels derived by the summariser.
	Tags []string `json:"tags"`

	// Summary is a free-text summary, or a diagnostic message on failure.
	Summary string `json:"summary"`

	// KeyConcepts are short concept labels derived by the summariser.
	KeyConcepts []string `json:"key_concepts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// WordCount is the whitespace-separated word count of the extracted text.
	WordCount int `json:"word_count"`

	// PageCount is the page/unit count reported by the extractor.
	PageCount int `json:"page_count"`
}

// Chunk is a bounded, overlap-linked slice of a document's extracted text.
// It is the unit of embedding and retrieval, derived rather than first-class:
// deleting a document deletes every chunk sharing its document id.
type Chunk struct {
	// ID is "{document_id}_chunk_{index}".
	ID string

	// DocumentID links back to the owning document.
	DocumentID string

	// DocumentName is the owning document's original name, carried so
	// search results can be labelled without a registry lookup.
	DocumentName string

	// Content is the chunk text.
	Content string

	// Index is the zero-based position within the document.
	Index int

	// CharCount is len(Content) at chunking time.
	CharCount int

	// Embedding is the vector representation, set by the pipeline
	// before indexing.
	Embedding []float32
}

// ChunkID builds the canonical chunk identifier for a document and index.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}

// VaultStats is an aggregate view over the registry, computed on demand.
type VaultStats struct {
	TotalDocuments int      `json:"total_documents"`
	ReadyDocuments int      `json:"ready_documents"`
	TotalChunks    int      `json:"total_chunks"`
	TotalWords     int      `json:"total_words"`
	UniqueTags     int      `json:"unique_tags"`
	UniqueConcepts int      `json:"unique_concepts"`
	TopTags        []string `json:"top_tags"`
	TopConcepts    []string `json:"top_concepts"`
}
