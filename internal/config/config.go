// Package config loads semdex configuration: hardcoded defaults, an
// optional YAML file, then SEMDEX_* environment overrides, in that
// precedence order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/semdex/internal/errors"
)

// Config is the complete semdex configuration.
type Config struct {
	// DataDir roots all persistent state: collections, uploads, the job
	// database, logs. Empty means in-memory stores (testing).
	DataDir string `yaml:"data_dir"`

	Search     SearchConfig     `yaml:"search"`
	Embeddings EmbeddingsConfig `yaml:"embeddings"`
	Jobs       JobsConfig       `yaml:"jobs"`
	LogLevel   string           `yaml:"log_level"`
}

// SearchConfig tunes hybrid retrieval and chunking.
type SearchConfig struct {
	// VectorWeight and LexicalWeight scale the two legs' reciprocal-rank
	// contributions in hybrid fusion.
	VectorWeight  float64 `yaml:"vector_weight"`
	LexicalWeight float64 `yaml:"lexical_weight"`

	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	MaxResults   int `yaml:"max_results"`
}

// EmbeddingsConfig selects and tunes the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "static" (deterministic hash, no external service) or
	// "ollama".
	Provider   string `yaml:"provider"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	OllamaHost string `yaml:"ollama_host"`
	CacheSize  int    `yaml:"cache_size"`
}

// JobsConfig tunes job execution.
type JobsConfig struct {
	// Workers bounds concurrent indexing jobs. 0 or 1 runs jobs inline.
	Workers int `yaml:"workers"`
}

// Default returns the configuration used when no file or overrides are
// present.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		DataDir: filepath.Join(home, ".semdex"),
		Search: SearchConfig{
			VectorWeight:  0.5,
			LexicalWeight: 0.5,
			ChunkSize:     4000,
			ChunkOverlap:  200,
			MaxResults:    10,
		},
		Embeddings: EmbeddingsConfig{
			Provider:   "static",
			Model:      "nomic-embed-text",
			Dimensions: 768,
			OllamaHost: "http://localhost:11434",
			CacheSize:  1000,
		},
		Jobs: JobsConfig{
			Workers: 4,
		},
		LogLevel: "info",
	}
}

// Load builds the effective configuration: defaults, then the YAML file
// at path (skipped when path is empty or the file is absent), then
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeConfigNotFound, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New(errors.ErrCodeConfigInvalid,
				fmt.Sprintf("failed to parse %s", path), err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies SEMDEX_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SEMDEX_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("SEMDEX_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SEMDEX_EMBEDDINGS_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("SEMDEX_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("SEMDEX_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("SEMDEX_VECTOR_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.VectorWeight = f
		}
	}
	if v := os.Getenv("SEMDEX_LEXICAL_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.LexicalWeight = f
		}
	}
	if v := os.Getenv("SEMDEX_JOB_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Jobs.Workers = n
		}
	}
}

// Validate rejects configurations the rest of the system cannot run
// with.
func (c *Config) Validate() error {
	if c.Search.VectorWeight < 0 || c.Search.LexicalWeight < 0 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"search weights must be non-negative", nil)
	}
	if c.Search.VectorWeight == 0 && c.Search.LexicalWeight == 0 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"at least one search weight must be positive", nil)
	}
	if c.Search.ChunkSize <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"chunk_size must be positive", nil)
	}
	if c.Search.ChunkOverlap < 0 || c.Search.ChunkOverlap >= c.Search.ChunkSize {
		return errors.New(errors.ErrCodeConfigInvalid,
			"chunk_overlap must be in [0, chunk_size)", nil)
	}
	switch c.Embeddings.Provider {
	case "static", "ollama":
	default:
		return errors.New(errors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown embeddings provider %q", c.Embeddings.Provider), nil)
	}
	if c.Jobs.Workers < 0 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"jobs workers must be non-negative", nil)
	}
	return nil
}

// UploadsDir returns where uploaded files are stored.
func (c *Config) UploadsDir() string {
	if c.DataDir == "" {
		return ""
	}
	return filepath.Join(c.DataDir, "uploads")
}

// JobsDBPath returns the job database location ("" = in-memory).
func (c *Config) JobsDBPath() string {
	if c.DataDir == "" {
		return ""
	}
	return filepath.Join(c.DataDir, "jobs.db")
}
