package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates a registry record already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown file type.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrFileTooLarge indicates an upload exceeding the configured limit.
	ErrFileTooLarge = errors.New("file too large")

	// Pipeline errors. Each is fatal to its document (status becomes
	// StatusError) except where noted.

	// ErrExtraction indicates unreadable or corrupt document content.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmptyDocument indicates extraction produced no text, or chunking
	// produced zero chunks.
	ErrEmptyDocument = errors.New("no text content")

	// ErrEmbeddingUnavailable indicates the embedding backend is not
	// reachable or not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates the vector index rejected a write or
	// query.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrLLMUnavailable indicates no LLM credential is configured.
	// This is a configuration state, not a runtime failure: callers check
	// availability and degrade to placeholder responses.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrStageTimeout indicates a pipeline stage exceeded its deadline.
	ErrStageTimeout = errors.New("stage deadline exceeded")
)
