package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
)

// RegisterChannel resolves a channel reference to its canonical id and
// stores the channel row. It does not enqueue anything; discovery is
// SyncChannel's job.
func RegisterChannel(ctx context.Context, cat *catalog.Store, client *Client, ref string, logger *slog.Logger) (*catalog.Channel, error) {
	if logger == nil {
		logger = slog.Default()
	}

	page, err := client.ChannelPageByRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	name := page.Title
	if name == "" {
		name = page.ChannelID
	}
	channel, err := cat.UpsertChannel(ctx, page.ChannelID, name, page.URL)
	if err != nil {
		return nil, fmt.Errorf("upsert channel %s: %w", page.ChannelID, err)
	}

	logger.Info("registered channel",
		"channel_id", channel.ChannelID,
		"name", channel.Name)
	return channel, nil
}

// AddVideo enqueues a single video for ingestion, fetching its metadata and
// registering its channel when the catalog has not seen either before. The
// second return reports whether a new record was created; a known video
// comes back untouched, whatever its pipeline state.
func AddVideo(ctx context.Context, cat *catalog.Store, client *Client, videoID string, logger *slog.Logger) (*catalog.Record, bool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, false, services.Wrap(services.ErrValidation, "youtube", "add video",
			"video id is empty", nil)
	}

	existing, err := cat.RecordByVideoID(ctx, videoID)
	if err != nil {
		return nil, false, fmt.Errorf("check record for video %s: %w", videoID, err)
	}
	if existing != nil {
		return existing, false, nil
	}

	video, err := cat.VideoByID(ctx, videoID)
	if err != nil {
		return nil, false, fmt.Errorf("check video %s: %w", videoID, err)
	}
	if video == nil {
		details, err := client.VideoDetails(ctx, videoID)
		if err != nil {
			return nil, false, err
		}
		if details.ChannelID == "" {
			return nil, false, services.Wrap(services.ErrTransient, "youtube", "add video",
				fmt.Sprintf("watch page for %s carries no channel metadata", videoID), nil)
		}
		channelName := details.ChannelName
		if channelName == "" {
			channelName = details.ChannelID
		}
		if _, err := cat.UpsertChannel(ctx, details.ChannelID, channelName, ChannelURL(details.ChannelID)); err != nil {
			return nil, false, fmt.Errorf("upsert channel %s: %w", details.ChannelID, err)
		}
		if _, err := cat.UpsertVideo(ctx, &catalog.Video{
			VideoID:         videoID,
			ChannelID:       details.ChannelID,
			Title:           details.Title,
			Description:     details.Description,
			DurationSeconds: details.DurationSeconds,
			PublishedAt:     details.Published,
			ThumbnailURL:    details.ThumbnailURL,
			ViewCount:       details.ViewCount,
		}); err != nil {
			return nil, false, fmt.Errorf("upsert video %s: %w", videoID, err)
		}
	}

	record, err := cat.EnqueueVideo(ctx, videoID)
	if err != nil {
		return nil, false, fmt.Errorf("enqueue video %s: %w", videoID, err)
	}

	logger.Info("enqueued video",
		"video_id", videoID,
		"record_id", record.ID)
	return record, true, nil
}
