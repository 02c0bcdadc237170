// Package config loads the vaultd server configuration from a TOML file
// with environment-variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default values applied for anything the config file leaves unset.
const (
	DefaultAddr            = ":8000"
	DefaultDataDir         = "./data"
	DefaultMaxFileSizeMB   = 50
	DefaultChunkSize       = 512
	DefaultChunkOverlap    = 64
	DefaultMaxConcurrent   = 4
	DefaultStageTimeoutSec = 120
)

// Config is the full vaultd configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Chunker   ChunkerConfig   `toml:"chunker"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Index     IndexConfig     `toml:"index"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8000".
	Addr string `toml:"addr"`

	// AllowedOrigins is the CORS allow-list. Empty allows any origin,
	// which suits a local single-user deployment.
	AllowedOrigins []string `toml:"allowed_origins"`

	// MaxFileSizeMB caps upload size.
	MaxFileSizeMB int `toml:"max_file_size_mb"`
}

// StorageConfig configures on-disk locations.
type StorageConfig struct {
	// DataDir is the root for all persistent state.
	DataDir string `toml:"data_dir"`

	// UploadDir stores uploaded originals. Defaults under DataDir.
	UploadDir string `toml:"upload_dir"`

	// WatchDir, when set, is polled by the drop-folder watcher: files
	// placed there are ingested automatically.
	WatchDir string `toml:"watch_dir"`
}

// EmbeddingConfig selects and configures the embedding backend. The
// provider is fixed at startup; changing it requires re-indexing.
type EmbeddingConfig struct {
	// Provider is "openai" or "ollama".
	Provider string `toml:"provider"`

	// Model overrides the provider default model.
	Model string `toml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`
}

// LLMConfig configures the chat completion backend.
type LLMConfig struct {
	// APIKey is the OpenAI API key. Usually set via VAULTD_OPENAI_API_KEY
	// rather than the config file. Empty disables summaries and chat.
	APIKey string `toml:"api_key"`

	// Model is the chat model (default gpt-4o-mini).
	Model string `toml:"model"`

	// BaseURL overrides the OpenAI-compatible endpoint.
	BaseURL string `toml:"base_url"`
}

// ChunkerConfig tunes text segmentation.
type ChunkerConfig struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
}

// PipelineConfig tunes background ingestion.
type PipelineConfig struct {
	// MaxConcurrent bounds in-flight document pipelines.
	MaxConcurrent int `toml:"max_concurrent"`

	// StageTimeoutSeconds is the per-stage deadline.
	StageTimeoutSeconds int `toml:"stage_timeout_seconds"`
}

// IndexConfig selects the vector index backend.
type IndexConfig struct {
	// Backend is "sqlite" (persistent, default) or "memory".
	Backend string `toml:"backend"`

	// Path is the directory holding the index database. Defaults under
	// DataDir.
	Path string `toml:"path"`
}

// Load reads the config file at path, fills defaults, and applies
// environment overrides. A missing file is not an error: the defaults
// describe a working local deployment.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Run on defaults.
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.fillDerived()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaults returns a config describing a working local deployment.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          DefaultAddr,
			MaxFileSizeMB: DefaultMaxFileSizeMB,
		},
		Storage: StorageConfig{
			DataDir: DefaultDataDir,
		},
		Embedding: EmbeddingConfig{
			Provider: "openai",
		},
		Chunker: ChunkerConfig{
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultChunkOverlap,
		},
		Pipeline: PipelineConfig{
			MaxConcurrent:       DefaultMaxConcurrent,
			StageTimeoutSeconds: DefaultStageTimeoutSec,
		},
		Index: IndexConfig{
			Backend: "sqlite",
		},
	}
}

// applyEnv overlays environment variables. Only secrets and the listen
// address are overridable this way.
func (c *Config) applyEnv() {
	if v := os.Getenv("VAULTD_OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("VAULTD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("VAULTD_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
}

// fillDerived resolves paths that default relative to DataDir.
func (c *Config) fillDerived() {
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = c.Storage.DataDir + "/uploads"
	}
	if c.Index.Path == "" {
		c.Index.Path = c.Storage.DataDir + "/index"
	}
}

// validate rejects configurations that cannot start.
func (c *Config) validate() error {
	switch c.Embedding.Provider {
	case "openai", "ollama":
	default:
		return fmt.Errorf("config: unknown embedding provider %q", c.Embedding.Provider)
	}
	switch c.Index.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("config: unknown index backend %q", c.Index.Backend)
	}
	if c.Chunker.ChunkSize <= 0 {
		return fmt.Errorf("config: chunk_size must be positive")
	}
	if c.Pipeline.MaxConcurrent <= 0 {
		return fmt.Errorf("config: max_concurrent must be positive")
	}
	return nil
}

// StageTimeout returns the pipeline stage deadline as a duration.
func (c *Config) StageTimeout() time.Duration {
	return time.Duration(c.Pipeline.StageTimeoutSeconds) * time.Second
}

// MaxFileSizeBytes returns the upload cap in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.Server.MaxFileSizeMB) << 20
}
