package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 0.5, cfg.Search.VectorWeight)
	assert.Equal(t, 0.5, cfg.Search.LexicalWeight)
	assert.Equal(t, 4000, cfg.Search.ChunkSize)
	assert.Equal(t, 200, cfg.Search.ChunkOverlap)
	assert.Equal(t, "static", cfg.Embeddings.Provider)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data_dir: /tmp/semdex-test
search:
  vector_weight: 0.7
  lexical_weight: 0.3
  max_results: 25
embeddings:
  provider: ollama
  model: mxbai-embed-large
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/semdex-test", cfg.DataDir)
	assert.Equal(t, 0.7, cfg.Search.VectorWeight)
	assert.Equal(t, 0.3, cfg.Search.LexicalWeight)
	assert.Equal(t, 25, cfg.Search.MaxResults)
	assert.Equal(t, "ollama", cfg.Embeddings.Provider)
	assert.Equal(t, "mxbai-embed-large", cfg.Embeddings.Model)
	// Untouched keys keep their defaults.
	assert.Equal(t, 4000, cfg.Search.ChunkSize)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Search, cfg.Search)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: warn\n"), 0o644))

	t.Setenv("SEMDEX_LOG_LEVEL", "debug")
	t.Setenv("SEMDEX_VECTOR_WEIGHT", "0.9")
	t.Setenv("SEMDEX_JOB_WORKERS", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 0.9, cfg.Search.VectorWeight)
	assert.Equal(t, 8, cfg.Jobs.Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"negative weight", func(c *Config) { c.Search.VectorWeight = -1 }, false},
		{"both weights zero", func(c *Config) {
			c.Search.VectorWeight = 0
			c.Search.LexicalWeight = 0
		}, false},
		{"zero chunk size", func(c *Config) { c.Search.ChunkSize = 0 }, false},
		{"overlap >= size", func(c *Config) {
			c.Search.ChunkSize = 100
			c.Search.ChunkOverlap = 100
		}, false},
		{"unknown provider", func(c *Config) { c.Embeddings.Provider = "openai" }, false},
		{"negative workers", func(c *Config) { c.Jobs.Workers = -1 }, false},
		{"inline workers", func(c *Config) { c.Jobs.Workers = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/data/semdex"
	assert.Equal(t, filepath.Join("/data/semdex", "uploads"), cfg.UploadsDir())
	assert.Equal(t, filepath.Join("/data/semdex", "jobs.db"), cfg.JobsDBPath())

	cfg.DataDir = ""
	assert.Empty(t, cfg.UploadsDir())
	assert.Empty(t, cfg.JobsDBPath())
}
