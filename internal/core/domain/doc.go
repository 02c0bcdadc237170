// Package domain contains the core business entities for the vault:
// documents, chunks, search results, chat events, and the knowledge graph.
//
// Domain types have no dependencies on infrastructure. They are shared by
// services (business logic) and adapters (infrastructure implementations).
package domain
