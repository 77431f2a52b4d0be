package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Aman-CERP/semdex/internal/config"
	"github.com/Aman-CERP/semdex/internal/embed"
	"github.com/Aman-CERP/semdex/internal/jobs"
	"github.com/Aman-CERP/semdex/internal/logging"
	"github.com/Aman-CERP/semdex/internal/pipeline"
	"github.com/Aman-CERP/semdex/internal/search"
	"github.com/Aman-CERP/semdex/internal/store"
	"github.com/Aman-CERP/semdex/internal/upload"
)

// app is the composition root: every command that touches data builds
// one of these, uses it, and closes it.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	embedder   embed.Embedder
	store      *store.LocalStore
	jobs       *jobs.Store
	uploads    *upload.Registry
	pipeline   *pipeline.Pipeline
	dispatcher pipeline.Dispatcher
	retriever  *search.Retriever

	logCleanup func()
}

// newApp wires the full stack from configuration. The embedder is
// constructed once here and handed to the pipeline and retriever; there
// is no process-global model state.
func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{Level: cfg.LogLevel}
	if cfg.DataDir != "" {
		logCfg.FilePath = filepath.Join(cfg.DataDir, "logs", "semdex.log")
	}
	logger, logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		logCleanup()
		return nil, err
	}

	searchStore, err := store.NewLocalStore(cfg.DataDir, logger)
	if err != nil {
		logCleanup()
		return nil, err
	}

	jobStore, err := jobs.NewStore(cfg.JobsDBPath())
	if err != nil {
		_ = searchStore.Close()
		logCleanup()
		return nil, err
	}

	var uploads *upload.Registry
	if dir := cfg.UploadsDir(); dir != "" {
		uploads, err = upload.NewRegistry(dir, 0)
		if err != nil {
			_ = jobStore.Close()
			_ = searchStore.Close()
			logCleanup()
			return nil, err
		}
	}

	var dispatcher pipeline.Dispatcher
	if cfg.Jobs.Workers > 1 {
		dispatcher, err = pipeline.NewPoolDispatcher(cfg.Jobs.Workers, logger)
		if err != nil {
			_ = jobStore.Close()
			_ = searchStore.Close()
			logCleanup()
			return nil, err
		}
	} else {
		dispatcher = pipeline.NewInlineDispatcher()
	}

	retriever := search.NewRetriever(searchStore, embedder, logger)
	retriever.SetWeights(cfg.Search.VectorWeight, cfg.Search.LexicalWeight)

	return &app{
		cfg:        cfg,
		logger:     logger,
		embedder:   embedder,
		store:      searchStore,
		jobs:       jobStore,
		uploads:    uploads,
		pipeline:   pipeline.New(jobStore, searchStore, embedder, logger),
		dispatcher: dispatcher,
		retriever:  retriever,
		logCleanup: logCleanup,
	}, nil
}

// buildEmbedder selects the provider and wraps it with the LRU cache.
func buildEmbedder(cfg *config.Config) (embed.Embedder, error) {
	var inner embed.Embedder
	switch cfg.Embeddings.Provider {
	case "ollama":
		inner = embed.NewOllamaEmbedder(embed.OllamaConfig{
			Host:       cfg.Embeddings.OllamaHost,
			Model:      cfg.Embeddings.Model,
			Dimensions: cfg.Embeddings.Dimensions,
		})
	case "static":
		inner = embed.NewStaticEmbedder()
	default:
		return nil, fmt.Errorf("unknown embeddings provider %q", cfg.Embeddings.Provider)
	}
	return embed.NewCachedEmbedder(inner, cfg.Embeddings.CacheSize), nil
}

func (a *app) Close() {
	a.dispatcher.Close()
	if err := a.jobs.Close(); err != nil {
		a.logger.Warn("failed to close job store", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close search store", "error", err)
	}
	if err := a.embedder.Close(); err != nil {
		a.logger.Warn("failed to close embedder", "error", err)
	}
	if a.logCleanup != nil {
		a.logCleanup()
	}
}
