package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
)

// SyncResult counts what one channel sync did.
type SyncResult struct {
	ChannelID      string `json:"channel_id"`
	VideosSeen     int    `json:"videos_seen"`
	VideosSkipped  int    `json:"videos_skipped"`
	VideosUpserted int    `json:"videos_upserted"`
	NewlyEnqueued  int    `json:"newly_enqueued"`
}

// SyncChannel scrapes a channel's videos tab, upserts the channel and its
// videos into the catalog, and enqueues ingestion records for videos not
// seen before. Videos shorter than minDuration are skipped entirely, which
// keeps shorts and clips out of the pipeline. Existing ingestion records
// are never touched, so re-syncing cannot restart completed videos.
func SyncChannel(ctx context.Context, cat *catalog.Store, client *Client, channelID string, minDuration time.Duration, logger *slog.Logger) (*SyncResult, error) {
	if logger == nil {
		logger = slog.Default()
	}

	page, err := client.ChannelVideos(ctx, channelID)
	if err != nil {
		return nil, err
	}

	name := page.Title
	if name == "" {
		name = page.ChannelID
	}
	if _, err := cat.UpsertChannel(ctx, page.ChannelID, name, page.URL); err != nil {
		return nil, fmt.Errorf("upsert channel %s: %w", page.ChannelID, err)
	}

	result := &SyncResult{ChannelID: page.ChannelID}
	minSeconds := int(minDuration / time.Second)
	for _, video := range page.Videos {
		result.VideosSeen++
		if video.DurationSeconds < minSeconds {
			result.VideosSkipped++
			continue
		}

		_, err := cat.UpsertVideo(ctx, &catalog.Video{
			VideoID:         video.ID,
			ChannelID:       page.ChannelID,
			Title:           video.Title,
			Description:     video.Description,
			DurationSeconds: video.DurationSeconds,
			PublishedAt:     video.Published,
			ThumbnailURL:    video.ThumbnailURL,
			ViewCount:       video.ViewCount,
		})
		if err != nil {
			return nil, fmt.Errorf("upsert video %s: %w", video.ID, err)
		}
		result.VideosUpserted++

		existing, err := cat.RecordByVideoID(ctx, video.ID)
		if err != nil {
			return nil, fmt.Errorf("check record for video %s: %w", video.ID, err)
		}
		if existing == nil {
			if _, err := cat.EnqueueVideo(ctx, video.ID); err != nil {
				return nil, fmt.Errorf("enqueue video %s: %w", video.ID, err)
			}
			result.NewlyEnqueued++
		}
	}

	if err := cat.TouchChannelSync(ctx, page.ChannelID, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("stamp channel sync: %w", err)
	}

	logger.Info("synced channel",
		"channel_id", page.ChannelID,
		"videos_seen", result.VideosSeen,
		"videos_skipped", result.VideosSkipped,
		"newly_enqueued", result.NewlyEnqueued)
	return result, nil
}
