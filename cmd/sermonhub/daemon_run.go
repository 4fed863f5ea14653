package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/chunk"
	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/daemon"
	"github.com/chukwujekwu-code/sermon-hub/internal/embedding"
	"github.com/chukwujekwu-code/sermon-hub/internal/expand"
	"github.com/chukwujekwu-code/sermon-hub/internal/indexer"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/search"
	"github.com/chukwujekwu-code/sermon-hub/internal/services/llm"
	"github.com/chukwujekwu-code/sermon-hub/internal/stages"
	"github.com/chukwujekwu-code/sermon-hub/internal/vectorstore"
	"github.com/chukwujekwu-code/sermon-hub/internal/workflow"
	"github.com/chukwujekwu-code/sermon-hub/internal/youtube"
)

// runDaemonProcess runs the full ingestion daemon in the foreground until
// the context is canceled or a termination signal arrives.
func runDaemonProcess(cmdCtx context.Context, cctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := cctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewForPaths(cfg.Paths.LogDir, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	d, err := buildDaemon(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := d.Close(); closeErr != nil {
			logger.Error("daemon shutdown", logging.Error(closeErr))
		}
	}()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("sermonhubd shutting down")
	return nil
}

// buildDaemon wires the full pipeline: catalog, vector store, embeddings,
// chunker, indexer, stages, search engine, and the daemon around them. On
// error every already-opened resource is released.
func buildDaemon(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, error) {
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
	ytClient := youtube.NewClient(cfg.YouTube, logger)
	expander := expand.New(newExpansionClient(cfg), cfg.Expansion.Phrases, logger)
	engine := search.NewEngine(expander, embedder, vectors, store, cfg.Search, logger)

	manager := workflow.NewManager(cfg, store, logger)
	err = manager.ConfigureStages(workflow.StageSet{
		Download:   stages.NewDownload(cfg, store, logger),
		Transcribe: stages.NewTranscribe(cfg, logger),
		Embed:      stages.NewEmbed(cfg, store, idx, logger),
	})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("configure stages: %w", err)
	}

	d, err := daemon.New(cfg, daemon.Deps{
		Store:    store,
		Vectors:  vectors,
		Workflow: manager,
		Search:   engine,
		YouTube:  ytClient,
	}, logger)
	if err != nil {
		cleanup()
		return nil, err
	}
	return d, nil
}

func newExpansionClient(cfg *config.Config) *llm.Client {
	settings := cfg.ExpansionLLM()
	return llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Referer:        settings.Referer,
		Title:          settings.Title,
		TimeoutSeconds: settings.TimeoutSeconds,
		Temperature:    settings.Temperature,
	})
}
