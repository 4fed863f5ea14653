package indexer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/chunk"
	"github.com/chukwujekwu-code/sermon-hub/internal/embedding"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
	"github.com/chukwujekwu-code/sermon-hub/internal/textutil"
	"github.com/chukwujekwu-code/sermon-hub/internal/vectorstore"
)

const defaultBatchSize = 96

// Indexer embeds transcript chunks and writes them to the vector store.
type Indexer struct {
	splitter  *chunk.Splitter
	embedder  embedding.Embedder
	vectors   *vectorstore.Store
	batchSize int
	logger    *slog.Logger
}

// New wires an Indexer. batchSize bounds how many chunk texts go to the
// embedding endpoint per request.
func New(splitter *chunk.Splitter, embedder embedding.Embedder, vectors *vectorstore.Store, batchSize int, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Indexer{
		splitter:  splitter,
		embedder:  embedder,
		vectors:   vectors,
		batchSize: batchSize,
		logger:    logger.With("component", "indexer"),
	}
}

// Index cleans and chunks the transcript, embeds every chunk, and upserts
// the records. Any batch failure aborts indexing; batches already written
// are harmless because a later run overwrites them under the same keys.
// The returned count is the number of chunks the video now has.
func (ix *Indexer) Index(ctx context.Context, video *catalog.Video, transcript string) (int, error) {
	cleaned := textutil.CleanTranscript(transcript)
	chunks := ix.splitter.Split(cleaned)
	if len(chunks) == 0 {
		return 0, services.Wrap(services.ErrValidation, "indexer", "split",
			fmt.Sprintf("transcript for video %s has no indexable words", video.VideoID), nil)
	}

	for start := 0; start < len(chunks); start += ix.batchSize {
		end := min(start+ix.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := ix.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embed chunks %d-%d of video %s: %w", start, end-1, video.VideoID, err)
		}

		records := make([]vectorstore.EmbeddingRecord, len(batch))
		for i, c := range batch {
			records[i] = vectorstore.EmbeddingRecord{
				VideoID:     video.VideoID,
				ChunkIndex:  c.Index,
				Vector:      vectors[i],
				Text:        c.Text,
				StartWord:   c.StartWord,
				EndWord:     c.EndWord,
				PublishedAt: video.PublishedAt,
			}
		}
		if err := ix.vectors.UpsertBatch(ctx, records); err != nil {
			return 0, fmt.Errorf("upsert chunks %d-%d of video %s: %w", start, end-1, video.VideoID, err)
		}
	}

	stale, err := ix.vectors.DeleteFrom(ctx, video.VideoID, len(chunks))
	if err != nil {
		return 0, fmt.Errorf("prune stale chunks of video %s: %w", video.VideoID, err)
	}
	if stale > 0 {
		ix.logger.Debug("pruned stale chunks",
			"video_id", video.VideoID,
			"pruned", stale,
			"chunks", len(chunks))
	}

	ix.logger.Info("indexed transcript",
		"video_id", video.VideoID,
		"chunks", len(chunks),
		"words", textutil.WordCount(cleaned))
	return len(chunks), nil
}
