package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UpsertChannel inserts a channel or refreshes its name and URL. New
// channels start active; an upsert never flips an existing channel's active
// flag.
func (s *Store) UpsertChannel(ctx context.Context, channelID, name, url string) (*Channel, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, errors.New("channel id is required")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO channels (channel_id, name, url, active, created_at, updated_at)
         VALUES (?, ?, ?, 1, ?, ?)
         ON CONFLICT(channel_id) DO UPDATE SET
             name = excluded.name,
             url = excluded.url,
             updated_at = excluded.updated_at`,
		channelID,
		name,
		url,
		now,
		now,
	); err != nil {
		return nil, fmt.Errorf("upsert channel: %w", err)
	}

	return s.ChannelByID(ctx, channelID)
}

// ChannelByID fetches a channel by its external identifier.
func (s *Store) ChannelByID(ctx context.Context, channelID string) (*Channel, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE channel_id = ?`, channelID)
	channel, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return channel, nil
}

// ChannelsByIDs fetches channels keyed by channel ID. Unknown IDs are
// simply absent from the map.
func (s *Store) ChannelsByIDs(ctx context.Context, channelIDs []string) (map[string]*Channel, error) {
	channels := make(map[string]*Channel, len(channelIDs))
	if len(channelIDs) == 0 {
		return channels, nil
	}

	placeholders := makePlaceholders(len(channelIDs))
	args := make([]any, len(channelIDs))
	for i, id := range channelIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE channel_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("channels by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels[channel.ChannelID] = channel
	}
	return channels, rows.Err()
}

// ListChannels returns channels ordered by name, optionally restricted to
// active ones.
func (s *Store) ListChannels(ctx context.Context, activeOnly bool) ([]*Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name, channel_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []*Channel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, channel)
	}
	return channels, rows.Err()
}

// SetChannelActive toggles whether a channel participates in sync.
func (s *Store) SetChannelActive(ctx context.Context, channelID string, active bool) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE channels SET active = ?, updated_at = ? WHERE channel_id = ?`,
		boolToInt(active),
		time.Now().UTC().Format(time.RFC3339Nano),
		channelID,
	)
	if err != nil {
		return false, fmt.Errorf("set channel active: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// TouchChannelSync stamps the channel's last successful sync time.
func (s *Store) TouchChannelSync(ctx context.Context, channelID string, when time.Time) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE channels SET last_sync_at = ?, updated_at = ? WHERE channel_id = ?`,
		when.UTC().Format(time.RFC3339Nano),
		time.Now().UTC().Format(time.RFC3339Nano),
		channelID,
	); err != nil {
		return fmt.Errorf("touch channel sync: %w", err)
	}
	return nil
}

// RemoveChannel deletes a channel along with its videos and records.
func (s *Store) RemoveChannel(ctx context.Context, channelID string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM channels WHERE channel_id = ?`, channelID)
	if err != nil {
		return false, fmt.Errorf("remove channel: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}
