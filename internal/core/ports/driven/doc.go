// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): text extraction, embedding generation,
// vector indexing, LLM completion, and the document registry.
//
// Services depend on these interfaces; adapters implement them.
package driven
