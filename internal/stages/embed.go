package stages

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
	"github.com/chukwujekwu-code/sermon-hub/internal/stage"
)

// TranscriptIndexer chunks, embeds, and stores a transcript.
type TranscriptIndexer interface {
	Index(ctx context.Context, video *catalog.Video, transcript string) (int, error)
}

// Embed pushes a transcribed record into the vector index.
type Embed struct {
	cfg     *config.Config
	cat     *catalog.Store
	indexer TranscriptIndexer
	logger  *slog.Logger
}

// NewEmbed constructs the embed handler.
func NewEmbed(cfg *config.Config, cat *catalog.Store, indexer TranscriptIndexer, logger *slog.Logger) *Embed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Embed{
		cfg:     cfg,
		cat:     cat,
		indexer: indexer,
		logger:  logger.With(logging.FieldComponent, "embed-stage"),
	}
}

func (e *Embed) Prepare(ctx context.Context, record *catalog.Record) error {
	logger := logging.WithContext(ctx, e.logger)
	record.ErrorMessage = ""
	record.FailedStage = ""
	logger.Info("starting embedding")
	return nil
}

func (e *Embed) Execute(ctx context.Context, record *catalog.Record) error {
	logger := logging.WithContext(ctx, e.logger)

	text, err := stage.RequireTranscript(record)
	if err != nil {
		return err
	}
	video, err := e.cat.VideoByID(ctx, record.VideoID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "embed", "load video",
			fmt.Sprintf("load video %s", record.VideoID), err)
	}
	if video == nil {
		return services.Wrap(services.ErrValidation, "embed", "load video",
			fmt.Sprintf("video %s has no catalog entry; rerun the download stage", record.VideoID), nil)
	}

	chunks, err := e.indexer.Index(ctx, video, text)
	if err != nil {
		return err
	}
	logger.Info("transcript indexed", "chunks", chunks, "transcript_source", record.TranscriptSource)
	return nil
}

// HealthCheck verifies embedding dependencies.
func (e *Embed) HealthCheck(ctx context.Context) stage.Health {
	const name = "embed"
	if e.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(e.cfg.Embeddings.BaseURL) == "" {
		return stage.Unhealthy(name, "embeddings endpoint not configured")
	}
	if e.indexer == nil {
		return stage.Unhealthy(name, "indexer unavailable")
	}
	if e.cat == nil {
		return stage.Unhealthy(name, "catalog unavailable")
	}
	return stage.Healthy(name)
}
