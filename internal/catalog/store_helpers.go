package catalog

import (
	"database/sql"
	"errors"
	"time"
)

const channelColumns = "channel_id, name, url, active, last_sync_at, created_at, updated_at"

const videoColumns = "video_id, channel_id, title, description, duration_seconds, published_at, thumbnail_url, view_count, created_at, updated_at"

const recordColumns = "id, video_id, status, audio_path, audio_format, audio_size_bytes, transcript_path, transcript_text, transcript_source, error_message, error_count, failed_stage, last_heartbeat, download_started_at, download_completed_at, transcription_started_at, transcription_completed_at, embedding_started_at, embedding_completed_at, created_at, updated_at"

func scanChannel(scanner interface{ Scan(dest ...any) error }) (*Channel, error) {
	var (
		channelID   string
		name        sql.NullString
		url         sql.NullString
		active      sql.NullInt64
		lastSyncRaw sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(&channelID, &name, &url, &active, &lastSyncRaw, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	channel := &Channel{
		ChannelID: channelID,
		Name:      name.String,
		URL:       url.String,
	}
	if active.Valid {
		channel.Active = active.Int64 != 0
	}
	if lastSyncRaw.Valid {
		if last, err := parseTimeString(lastSyncRaw.String); err == nil {
			channel.LastSyncAt = &last
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		channel.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		channel.UpdatedAt = updated
	}
	return channel, nil
}

func scanVideo(scanner interface{ Scan(dest ...any) error }) (*Video, error) {
	var (
		videoID      string
		channelID    sql.NullString
		title        sql.NullString
		description  sql.NullString
		duration     sql.NullInt64
		publishedRaw sql.NullString
		thumbnail    sql.NullString
		viewCount    sql.NullInt64
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&videoID,
		&channelID,
		&title,
		&description,
		&duration,
		&publishedRaw,
		&thumbnail,
		&viewCount,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	video := &Video{
		VideoID:         videoID,
		ChannelID:       channelID.String,
		Title:           title.String,
		Description:     description.String,
		DurationSeconds: int(duration.Int64),
		ThumbnailURL:    thumbnail.String,
		ViewCount:       viewCount.Int64,
	}
	if publishedRaw.Valid {
		if published, err := parseTimeString(publishedRaw.String); err == nil {
			video.PublishedAt = published
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		video.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		video.UpdatedAt = updated
	}
	return video, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id               int64
		videoID          string
		statusStr        string
		audioPath        sql.NullString
		audioFormat      sql.NullString
		audioSize        sql.NullInt64
		transcriptPath   sql.NullString
		transcriptText   sql.NullString
		transcriptSource sql.NullString
		errorMessage     sql.NullString
		errorCount       sql.NullInt64
		failedStage      sql.NullString
		lastHeartbeatRaw sql.NullString
		downloadStart    sql.NullString
		downloadDone     sql.NullString
		transcribeStart  sql.NullString
		transcribeDone   sql.NullString
		embedStart       sql.NullString
		embedDone        sql.NullString
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&videoID,
		&statusStr,
		&audioPath,
		&audioFormat,
		&audioSize,
		&transcriptPath,
		&transcriptText,
		&transcriptSource,
		&errorMessage,
		&errorCount,
		&failedStage,
		&lastHeartbeatRaw,
		&downloadStart,
		&downloadDone,
		&transcribeStart,
		&transcribeDone,
		&embedStart,
		&embedDone,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	record := &Record{
		ID:               id,
		VideoID:          videoID,
		Status:           Status(statusStr),
		AudioPath:        audioPath.String,
		AudioFormat:      audioFormat.String,
		AudioSizeBytes:   audioSize.Int64,
		TranscriptPath:   transcriptPath.String,
		TranscriptText:   transcriptText.String,
		TranscriptSource: transcriptSource.String,
		ErrorMessage:     errorMessage.String,
		ErrorCount:       int(errorCount.Int64),
		FailedStage:      failedStage.String,
	}

	record.LastHeartbeat = nullableTimePtr(lastHeartbeatRaw)
	record.DownloadStartedAt = nullableTimePtr(downloadStart)
	record.DownloadCompletedAt = nullableTimePtr(downloadDone)
	record.TranscriptionStartedAt = nullableTimePtr(transcribeStart)
	record.TranscriptionCompletedAt = nullableTimePtr(transcribeDone)
	record.EmbeddingStartedAt = nullableTimePtr(embedStart)
	record.EmbeddingCompletedAt = nullableTimePtr(embedDone)

	if created, err := parseTimeString(createdRaw.String); err == nil {
		record.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}

func nullableTimePtr(raw sql.NullString) *time.Time {
	if !raw.Valid {
		return nil
	}
	parsed, err := parseTimeString(raw.String)
	if err != nil {
		return nil
	}
	return &parsed
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func nullableTimeValue(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
