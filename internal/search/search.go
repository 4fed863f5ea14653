package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/embedding"
	"github.com/chukwujekwu-code/sermon-hub/internal/expand"
	"github.com/chukwujekwu-code/sermon-hub/internal/textutil"
	"github.com/chukwujekwu-code/sermon-hub/internal/vectorstore"
)

// excerptMaxChars bounds the displayed excerpt taken from the best chunk.
const excerptMaxChars = 300

const watchURLFormat = "https://www.youtube.com/watch?v=%s"

// Options tune a single search invocation.
type Options struct {
	// MinScore overrides the configured relevance threshold when positive.
	MinScore float64
	// Limit overrides the configured result count when positive. It is
	// capped at the configured maximum.
	Limit int
}

// Result is one recommended sermon.
type Result struct {
	VideoID         string    `json:"video_id"`
	Title           string    `json:"title"`
	ChannelID       string    `json:"channel_id"`
	ChannelName     string    `json:"channel_name,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
	DurationSeconds int       `json:"duration_seconds"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	ViewCount       int64     `json:"view_count"`
	YouTubeURL      string    `json:"youtube_url"`
	Score           float64   `json:"relevance_score"`
	MatchedPhrase   string    `json:"matched_phrase"`
	ChunkIndex      int       `json:"chunk_index"`
	Excerpt         string    `json:"excerpt"`
}

// Results carries the ranked recommendations plus how the query was
// interpreted.
type Results struct {
	Query   string   `json:"query"`
	Phrases []string `json:"expansion_phrases"`
	Items   []Result `json:"results"`
}

// Engine runs emotional-state searches over the chunk index.
type Engine struct {
	expander *expand.Expander
	embedder embedding.Embedder
	vectors  *vectorstore.Store
	catalog  *catalog.Store
	cfg      config.SearchConfig
	logger   *slog.Logger
}

// NewEngine wires the search pipeline together.
func NewEngine(expander *expand.Expander, embedder embedding.Embedder, vectors *vectorstore.Store, cat *catalog.Store, cfg config.SearchConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		expander: expander,
		embedder: embedder,
		vectors:  vectors,
		catalog:  cat,
		cfg:      cfg,
		logger:   logger.With("component", "search"),
	}
}

// candidate tracks the best chunk seen so far for one video.
type candidate struct {
	hit    vectorstore.Hit
	phrase string
}

// Search expands the query, embeds every phrase, fuses per-phrase hits by
// video, and returns ranked recommendations. An empty result list with a
// nil error means nothing cleared the relevance threshold.
func (e *Engine) Search(ctx context.Context, query string, opts Options) (*Results, error) {
	phrases, err := e.expander.Expand(ctx, query)
	if err != nil {
		return nil, err
	}

	minScore := e.cfg.MinRelevanceScore
	if opts.MinScore > 0 {
		minScore = opts.MinScore
	}
	limit := e.cfg.DefaultLimit
	if opts.Limit > 0 {
		limit = opts.Limit
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}

	vectors, err := e.embedder.EmbedTexts(ctx, phrases)
	if err != nil {
		return nil, fmt.Errorf("embed search phrases: %w", err)
	}

	fused := make(map[string]candidate)
	for i, vector := range vectors {
		hits, err := e.vectors.Search(ctx, vector, float32(minScore), e.cfg.PerPhraseTopK)
		if err != nil {
			return nil, fmt.Errorf("similarity search: %w", err)
		}
		for _, hit := range hits {
			best, seen := fused[hit.VideoID]
			if !seen || hit.Score > best.hit.Score {
				fused[hit.VideoID] = candidate{hit: hit, phrase: phrases[i]}
			}
		}
	}

	results := &Results{Query: query, Phrases: phrases, Items: []Result{}}
	if len(fused) == 0 {
		return results, nil
	}

	items, err := e.enrich(ctx, fused)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(items, func(a, b Result) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		switch {
		case a.PublishedAt.After(b.PublishedAt):
			return -1
		case a.PublishedAt.Before(b.PublishedAt):
			return 1
		}
		return strings.Compare(a.VideoID, b.VideoID)
	})
	if len(items) > limit {
		items = items[:limit]
	}

	results.Items = items
	return results, nil
}

// enrich joins fused hits with catalog metadata. Hits whose video no longer
// has a catalog row are dropped rather than fabricated.
func (e *Engine) enrich(ctx context.Context, fused map[string]candidate) ([]Result, error) {
	videoIDs := make([]string, 0, len(fused))
	for id := range fused {
		videoIDs = append(videoIDs, id)
	}

	videos, err := e.catalog.VideosByIDs(ctx, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("load result videos: %w", err)
	}

	channelIDs := make([]string, 0, len(videos))
	seen := make(map[string]struct{}, len(videos))
	for _, video := range videos {
		if _, dup := seen[video.ChannelID]; dup {
			continue
		}
		seen[video.ChannelID] = struct{}{}
		channelIDs = append(channelIDs, video.ChannelID)
	}
	channels, err := e.catalog.ChannelsByIDs(ctx, channelIDs)
	if err != nil {
		return nil, fmt.Errorf("load result channels: %w", err)
	}

	items := make([]Result, 0, len(fused))
	for videoID, cand := range fused {
		video, ok := videos[videoID]
		if !ok {
			e.logger.Warn("indexed chunk has no catalog video, dropping hit",
				"video_id", videoID,
				"chunk_index", cand.hit.ChunkIndex)
			continue
		}

		item := Result{
			VideoID:         video.VideoID,
			Title:           video.Title,
			ChannelID:       video.ChannelID,
			PublishedAt:     video.PublishedAt,
			DurationSeconds: video.DurationSeconds,
			ThumbnailURL:    video.ThumbnailURL,
			ViewCount:       video.ViewCount,
			YouTubeURL:      fmt.Sprintf(watchURLFormat, video.VideoID),
			Score:           float64(cand.hit.Score),
			MatchedPhrase:   cand.phrase,
			ChunkIndex:      cand.hit.ChunkIndex,
			Excerpt:         textutil.Excerpt(cand.hit.Text, excerptMaxChars),
		}
		if channel, ok := channels[video.ChannelID]; ok {
			item.ChannelName = channel.Name
		}
		items = append(items, item)
	}
	return items, nil
}
