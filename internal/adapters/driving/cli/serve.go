package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vaultd/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/vaultd/internal/adapters/driven/embedding/openai"
	openaillm "github.com/custodia-labs/vaultd/internal/adapters/driven/llm/openai"
	memregistry "github.com/custodia-labs/vaultd/internal/adapters/driven/registry/memory"
	memvector "github.com/custodia-labs/vaultd/internal/adapters/driven/vector/memory"
	sqlitevector "github.com/custodia-labs/vaultd/internal/adapters/driven/vector/sqlite"
	"github.com/custodia-labs/vaultd/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/vaultd/internal/chunker"
	"github.com/custodia-labs/vaultd/internal/config"
	"github.com/custodia-labs/vaultd/internal/core/ports/driven"
	"github.com/custodia-labs/vaultd/internal/core/services"
	"github.com/custodia-labs/vaultd/internal/extractors"
	"github.com/custodia-labs/vaultd/internal/logger"
	"github.com/custodia-labs/vaultd/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the vaultd HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// runServe assembles the full service graph and serves until interrupted.
// The embedding backend is chosen once here; switching backends later
// requires re-indexing, so it is not reloadable.
func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()
	logger.Info("Embedding backend: %s (%d dims)", embedder.ModelName(), embedder.Dimensions())

	index, err := buildIndex(cfg)
	if err != nil {
		return err
	}
	defer index.Close()

	var llm driven.LLMService
	if cfg.LLM.APIKey != "" {
		llm, err = openaillm.NewLLMService(openaillm.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
		})
		if err != nil {
			return err
		}
		defer llm.Close()
		logger.Info("LLM backend: %s", llm.ModelName())
	} else {
		logger.Warn("No API key configured: summaries and chat run in degraded mode")
	}

	registry := memregistry.NewRegistry()
	chk := chunker.New(
		chunker.WithChunkSize(cfg.Chunker.ChunkSize),
		chunker.WithOverlap(cfg.Chunker.Overlap),
	)

	vault := services.NewVaultService(
		registry,
		extractors.NewRegistry(),
		chk,
		embedder,
		index,
		services.NewSummariser(llm),
		services.WithMaxConcurrent(cfg.Pipeline.MaxConcurrent),
		services.WithStageTimeout(cfg.StageTimeout()),
	)
	retrieval := services.NewRetrievalService(embedder, index, llm)
	graph := services.NewGraphBuilder(registry)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Storage.WatchDir != "" {
		w, err := watcher.New(vault, cfg.Storage.WatchDir)
		if err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		go func() {
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("Watcher stopped: %v", err)
			}
		}()
	}

	server := httpapi.NewServer(httpapi.Config{
		Addr:           cfg.Server.Addr,
		UploadDir:      cfg.Storage.UploadDir,
		MaxFileSize:    cfg.MaxFileSizeBytes(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, vault, retrieval, retrieval, graph)

	err = server.Run(ctx)
	vault.Wait()
	return err
}

// buildEmbedder selects the embedding backend. OpenAI needs a key; without
// one the local Ollama backend is used so the vault still works offline.
func buildEmbedder(cfg *config.Config) (driven.EmbeddingService, error) {
	if cfg.Embedding.Provider == "openai" && cfg.LLM.APIKey != "" {
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.Embedding.BaseURL,
			Model:   cfg.Embedding.Model,
		})
	}
	if cfg.Embedding.Provider == "openai" {
		logger.Warn("OpenAI embedding selected but no API key set, using local Ollama backend")
	}
	return ollama.NewEmbeddingService(ollama.Config{
		BaseURL: cfg.Embedding.BaseURL,
		Model:   cfg.Embedding.Model,
	}), nil
}

// buildIndex selects the vector index backend.
func buildIndex(cfg *config.Config) (driven.VectorIndex, error) {
	switch cfg.Index.Backend {
	case "memory":
		return memvector.NewIndex(), nil
	default:
		return sqlitevector.NewIndex(cfg.Index.Path)
	}
}
