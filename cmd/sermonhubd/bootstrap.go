package main

import (
	"fmt"
	"log/slog"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/chunk"
	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/daemon"
	"github.com/chukwujekwu-code/sermon-hub/internal/embedding"
	"github.com/chukwujekwu-code/sermon-hub/internal/expand"
	"github.com/chukwujekwu-code/sermon-hub/internal/indexer"
	"github.com/chukwujekwu-code/sermon-hub/internal/search"
	"github.com/chukwujekwu-code/sermon-hub/internal/services/llm"
	"github.com/chukwujekwu-code/sermon-hub/internal/stages"
	"github.com/chukwujekwu-code/sermon-hub/internal/vectorstore"
	"github.com/chukwujekwu-code/sermon-hub/internal/workflow"
	"github.com/chukwujekwu-code/sermon-hub/internal/youtube"
)

// bootstrapDaemon opens every backing store and assembles the daemon. It
// mirrors the wiring the sermonhub CLI uses for `sermonhub start` so both
// entrypoints run an identical pipeline.
func bootstrapDaemon(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	vectors, err := vectorstore.Open(cfg.Paths.VectorDir, cfg.Embeddings.Dimensions, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	cleanup := func() {
		vectors.Close()
		store.Close()
	}

	embedder, err := embedding.New(cfg.Embeddings, logger)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("embedding client: %w", err)
	}

	splitter, err := chunk.NewSplitter(cfg.Workflow.ChunkWindowWords, cfg.Workflow.ChunkOverlapWords)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("chunk splitter: %w", err)
	}

	idx := indexer.New(splitter, embedder, vectors, cfg.Embeddings.BatchSize, logger)

	manager := workflow.NewManager(cfg, store, logger)
	if err := configureStages(manager, cfg, store, idx, logger); err != nil {
		cleanup()
		return nil, fmt.Errorf("configure stages: %w", err)
	}

	settings := cfg.ExpansionLLM()
	expander := expand.New(llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Referer:        settings.Referer,
		Title:          settings.Title,
		TimeoutSeconds: settings.TimeoutSeconds,
		Temperature:    settings.Temperature,
	}), cfg.Expansion.Phrases, logger)

	d, err := daemon.New(cfg, daemon.Deps{
		Store:    store,
		Vectors:  vectors,
		Workflow: manager,
		Search:   search.NewEngine(expander, embedder, vectors, store, cfg.Search, logger),
		YouTube:  youtube.NewClient(cfg.YouTube, logger),
	}, logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	return d, nil
}

// configureStages binds the ingestion pipeline handlers onto the manager.
func configureStages(manager *workflow.Manager, cfg *config.Config, store *catalog.Store, idx stages.TranscriptIndexer, logger *slog.Logger) error {
	return manager.ConfigureStages(workflow.StageSet{
		Download:   stages.NewDownload(cfg, store, logger),
		Transcribe: stages.NewTranscribe(cfg, logger),
		Embed:      stages.NewEmbed(cfg, store, idx, logger),
	})
}
