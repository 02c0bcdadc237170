package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/custodia-labs/vaultd/internal/core/ports/driving"
	"github.com/custodia-labs/vaultd/internal/logger"
	"github.com/custodia-labs/vaultd/internal/metrics"
)

// Timeouts for the HTTP listener. The write timeout is generous because
// chat responses stream token by token.
const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 300 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Config holds the server's own settings; everything else comes in as
// injected services.
type Config struct {
	// Addr is the listen address.
	Addr string

	// UploadDir is where accepted uploads are stored.
	UploadDir string

	// MaxFileSize caps upload size in bytes.
	MaxFileSize int64

	// AllowedOrigins is the CORS allow-list. Empty allows any origin.
	AllowedOrigins []string
}

// Server serves the vaultd HTTP API.
type Server struct {
	cfg    Config
	vault  driving.VaultService
	search driving.SearchService
	chat   driving.ChatService
	graph  driving.GraphService
}

// NewServer creates the API server.
func NewServer(cfg Config, vault driving.VaultService, search driving.SearchService, chat driving.ChatService, graph driving.GraphService) *Server {
	return &Server{
		cfg:    cfg,
		vault:  vault,
		search: search,
		chat:   chat,
		graph:  graph,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/vault/upload", s.handleUpload)
	mux.HandleFunc("GET /api/vault/documents", s.handleListDocuments)
	mux.HandleFunc("GET /api/vault/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("DELETE /api/vault/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("GET /api/vault/stats", s.handleStats)

	mux.HandleFunc("POST /api/search", s.handleSearch)
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/chat/stream", s.handleChatStream)

	mux.HandleFunc("GET /api/graph", s.handleGraph)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	return corsMiddleware(s.cfg.AllowedOrigins, loggingMiddleware(mux))
}

// Run serves until ctx is cancelled, then drains with a bounded shutdown.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("vaultd listening on %s", s.cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
