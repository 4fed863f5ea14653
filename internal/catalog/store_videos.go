package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UpsertVideo inserts a video or refreshes its catalog metadata.
func (s *Store) UpsertVideo(ctx context.Context, video *Video) (*Video, error) {
	if video == nil {
		return nil, errors.New("video is nil")
	}
	videoID := strings.TrimSpace(video.VideoID)
	if videoID == "" {
		return nil, errors.New("video id is required")
	}
	if strings.TrimSpace(video.ChannelID) == "" {
		return nil, errors.New("channel id is required")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO videos (
            video_id, channel_id, title, description, duration_seconds,
            published_at, thumbnail_url, view_count, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(video_id) DO UPDATE SET
            channel_id = excluded.channel_id,
            title = excluded.title,
            description = excluded.description,
            duration_seconds = excluded.duration_seconds,
            published_at = excluded.published_at,
            thumbnail_url = excluded.thumbnail_url,
            view_count = excluded.view_count,
            updated_at = excluded.updated_at`,
		videoID,
		video.ChannelID,
		video.Title,
		nullableString(video.Description),
		video.DurationSeconds,
		nullableTimeValue(video.PublishedAt),
		nullableString(video.ThumbnailURL),
		video.ViewCount,
		now,
		now,
	); err != nil {
		return nil, fmt.Errorf("upsert video: %w", err)
	}

	return s.VideoByID(ctx, videoID)
}

// VideoByID fetches a video by its external identifier.
func (s *Store) VideoByID(ctx context.Context, videoID string) (*Video, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE video_id = ?`, videoID)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// VideosByIDs bulk-fetches videos keyed by identifier. IDs with no catalog
// row are simply absent from the result.
func (s *Store) VideosByIDs(ctx context.Context, videoIDs []string) (map[string]*Video, error) {
	videos := make(map[string]*Video, len(videoIDs))
	if len(videoIDs) == 0 {
		return videos, nil
	}

	placeholders := makePlaceholders(len(videoIDs))
	args := make([]any, len(videoIDs))
	for i, id := range videoIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE video_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("videos by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos[video.VideoID] = video
	}
	return videos, rows.Err()
}

// ListVideosByChannel returns a channel's videos, newest first.
func (s *Store) ListVideosByChannel(ctx context.Context, channelID string) ([]*Video, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+videoColumns+` FROM videos WHERE channel_id = ? ORDER BY published_at DESC, video_id`,
		channelID,
	)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

// CountVideos returns the number of cataloged videos.
func (s *Store) CountVideos(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM videos`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return count, nil
}
