// Package metrics exposes Prometheus counters for the ingestion and
// retrieval pipelines, served on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// DocumentsIngested counts documents that reached StatusReady.
	DocumentsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vaultd_documents_ingested_total",
		Help: "Documents fully ingested and indexed.",
	})

	// DocumentsFailed counts documents that ended in StatusError.
	DocumentsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vaultd_documents_failed_total",
		Help: "Documents whose ingestion pipeline failed.",
	})

	// ChunksIndexed counts chunks written to the vector index.
	ChunksIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vaultd_chunks_indexed_total",
		Help: "Chunks written to the vector index.",
	})

	// SearchesServed counts semantic search requests.
	SearchesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vaultd_searches_total",
		Help: "Semantic search queries served.",
	})
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
