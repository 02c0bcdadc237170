package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))

	require.NoError(t, err)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultMaxFileSizeMB, cfg.Server.MaxFileSizeMB)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "sqlite", cfg.Index.Backend)
	assert.Equal(t, DefaultChunkSize, cfg.Chunker.ChunkSize)
	assert.Equal(t, "./data/uploads", cfg.Storage.UploadDir)
	assert.Equal(t, "./data/index", cfg.Index.Path)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vaultd.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = ":9000"
max_file_size_mb = 10

[embedding]
provider = "ollama"
model = "all-minilm"

[chunker]
chunk_size = 256
overlap = 32

[pipeline]
max_concurrent = 2
stage_timeout_seconds = 30

[index]
backend = "memory"
`), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, int64(10<<20), cfg.MaxFileSizeBytes())
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, "all-minilm", cfg.Embedding.Model)
	assert.Equal(t, 256, cfg.Chunker.ChunkSize)
	assert.Equal(t, 30*time.Second, cfg.StageTimeout())
	assert.Equal(t, "memory", cfg.Index.Backend)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VAULTD_OPENAI_API_KEY", "sk-test")
	t.Setenv("VAULTD_ADDR", ":7777")
	t.Setenv("VAULTD_DATA_DIR", "/var/lib/vaultd")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "/var/lib/vaultd", cfg.Storage.DataDir)
	assert.Equal(t, "/var/lib/vaultd/uploads", cfg.Storage.UploadDir)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"unknown provider", "[embedding]\nprovider = \"cloudx\"\n"},
		{"unknown backend", "[index]\nbackend = \"redis\"\n"},
		{"zero chunk size", "[chunker]\nchunk_size = -1\n"},
		{"zero concurrency", "[pipeline]\nmax_concurrent = -2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.toml), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid\ntoml ="), 0o644))

	_, err := Load(path)

	assert.Error(t, err)
}
