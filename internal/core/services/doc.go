// Package services contains the core application services: the ingestion
// pipeline behind the vault, the retrieval engine powering search and chat,
// the document summariser, and the knowledge graph builder. Services depend
// only on domain types and ports; adapters are injected at startup.
package services
