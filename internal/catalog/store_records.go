package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// maxErrorMessageLen caps stored failure messages so a pathological error
// chain cannot bloat the database.
const maxErrorMessageLen = 2000

// EnqueueVideo creates a pending ingestion record for a cataloged video.
// Enqueueing an already-tracked video returns the existing record unchanged.
func (s *Store) EnqueueVideo(ctx context.Context, videoID string) (*Record, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, errors.New("video id is required")
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO ingest_records (video_id, status, error_count, created_at, updated_at)
         VALUES (?, ?, 0, ?, ?)
         ON CONFLICT(video_id) DO NOTHING`,
		videoID,
		StatusPending,
		now,
		now,
	); err != nil {
		return nil, fmt.Errorf("enqueue video: %w", err)
	}

	return s.RecordByVideoID(ctx, videoID)
}

// RecordByID fetches an ingestion record by identifier.
func (s *Store) RecordByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM ingest_records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return record, nil
}

// RecordByVideoID fetches the ingestion record tracking a video.
func (s *Store) RecordByVideoID(ctx context.Context, videoID string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM ingest_records WHERE video_id = ?`, videoID)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record by video: %w", err)
	}
	return record, nil
}

// ListRecords returns ingestion records filtered by status set (or all
// records when no status is provided), oldest first.
func (s *Store) ListRecords(ctx context.Context, statuses ...Status) ([]*Record, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + recordColumns + ` FROM ingest_records`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// NextForStatuses returns the oldest record matching any of the provided
// statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Record, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + recordColumns + ` FROM ingest_records WHERE status IN (` + placeholders + `) ORDER BY created_at, id LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateRecord persists every mutable record field, guarded by the record's
// updated_at token. A concurrent writer wins the race and the caller gets
// ErrStaleRecord; re-read before retrying. On success the record's
// UpdatedAt reflects the new token.
func (s *Store) UpdateRecord(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is nil")
	}

	token := record.UpdatedAt.UTC().Format(time.RFC3339Nano)
	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE ingest_records
         SET status = ?, audio_path = ?, audio_format = ?, audio_size_bytes = ?,
             transcript_path = ?, transcript_text = ?, transcript_source = ?,
             error_message = ?, error_count = ?, failed_stage = ?, last_heartbeat = ?,
             download_started_at = ?, download_completed_at = ?,
             transcription_started_at = ?, transcription_completed_at = ?,
             embedding_started_at = ?, embedding_completed_at = ?,
             updated_at = ?
         WHERE id = ? AND updated_at = ?`,
		record.Status,
		nullableString(record.AudioPath),
		nullableString(record.AudioFormat),
		record.AudioSizeBytes,
		nullableString(record.TranscriptPath),
		nullableString(record.TranscriptText),
		nullableString(record.TranscriptSource),
		nullableString(record.ErrorMessage),
		record.ErrorCount,
		nullableString(record.FailedStage),
		nullableTime(record.LastHeartbeat),
		nullableTime(record.DownloadStartedAt),
		nullableTime(record.DownloadCompletedAt),
		nullableTime(record.TranscriptionStartedAt),
		nullableTime(record.TranscriptionCompletedAt),
		nullableTime(record.EmbeddingStartedAt),
		nullableTime(record.EmbeddingCompletedAt),
		now.Format(time.RFC3339Nano),
		record.ID,
		token,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrStaleRecord
	}
	record.UpdatedAt = now
	return nil
}

// Transition moves a record to the next status, stamping stage timestamps
// as it goes. Illegal transitions fail with ErrInvalidTransition before any
// write; legal ones are persisted under the optimistic guard, so a lost race
// surfaces as ErrStaleRecord and the record is never double-advanced.
func (s *Store) Transition(ctx context.Context, record *Record, next Status) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if !CanTransition(record.Status, next) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, record.Status, next)
	}

	now := time.Now().UTC()
	prior := *record
	record.Status = next
	stampStageTimestamps(record, next, now)
	if IsProcessingStatus(next) {
		record.LastHeartbeat = &now
	} else {
		record.LastHeartbeat = nil
	}

	if err := s.UpdateRecord(ctx, record); err != nil {
		*record = prior
		return err
	}
	return nil
}

// stampStageTimestamps records stage boundaries: entering a processing
// status stamps its started_at, reaching the downstream status stamps the
// completed_at.
func stampStageTimestamps(record *Record, next Status, now time.Time) {
	switch next {
	case StatusDownloading:
		record.DownloadStartedAt = &now
	case StatusDownloaded:
		record.DownloadCompletedAt = &now
	case StatusTranscribing:
		record.TranscriptionStartedAt = &now
	case StatusTranscribed:
		record.TranscriptionCompletedAt = &now
	case StatusEmbedding:
		record.EmbeddingStartedAt = &now
	case StatusCompleted:
		record.EmbeddingCompletedAt = &now
	}
}

// completionStatus maps an in-flight status to the status reached when its
// stage finishes.
func completionStatus(status Status) (Status, bool) {
	switch status {
	case StatusDownloading:
		return StatusDownloaded, true
	case StatusTranscribing:
		return StatusTranscribed, true
	case StatusEmbedding:
		return StatusCompleted, true
	default:
		return "", false
	}
}

// CompleteStage advances a processing record to its stage's completed
// status.
func (s *Store) CompleteStage(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is nil")
	}
	next, ok := completionStatus(record.Status)
	if !ok {
		return fmt.Errorf("%w: %s is not a processing status", ErrInvalidTransition, record.Status)
	}
	return s.Transition(ctx, record, next)
}

// MarkFailed records a stage failure: status becomes failed, the failing
// stage and truncated message are kept for operators, and the error count
// grows. Permanent failures pin the count to the retry budget so the retry
// scheduler never reselects them.
func (s *Store) MarkFailed(ctx context.Context, record *Record, stage, message string, permanent bool, maxErrorCount int) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if !CanTransition(record.Status, StatusFailed) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, record.Status, StatusFailed)
	}

	prior := *record
	record.Status = StatusFailed
	record.FailedStage = stage
	record.ErrorMessage = truncateMessage(message)
	record.ErrorCount++
	if permanent && record.ErrorCount < maxErrorCount {
		record.ErrorCount = maxErrorCount
	}
	record.LastHeartbeat = nil

	if err := s.UpdateRecord(ctx, record); err != nil {
		*record = prior
		return err
	}
	return nil
}

func truncateMessage(message string) string {
	message = strings.TrimSpace(message)
	if len(message) <= maxErrorMessageLen {
		return message
	}
	return message[:maxErrorMessageLen]
}

// RetryDelay computes the backoff before a failed record becomes eligible
// again: base doubled per failure beyond the first, capped at max.
func RetryDelay(errorCount int, base, max time.Duration) time.Duration {
	if base > max {
		base = max
	}
	if errorCount <= 1 {
		return base
	}
	delay := base
	for i := 1; i < errorCount; i++ {
		delay *= 2
		if delay <= 0 || delay >= max {
			return max
		}
	}
	return delay
}

// RetryCandidates returns failed records with retry budget left whose
// backoff window has elapsed, oldest failure first.
func (s *Store) RetryCandidates(ctx context.Context, now time.Time, maxErrorCount int, baseDelay, maxDelay time.Duration) ([]*Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+recordColumns+` FROM ingest_records WHERE status = ? AND error_count < ? ORDER BY updated_at, id`,
		StatusFailed,
		maxErrorCount,
	)
	if err != nil {
		return nil, fmt.Errorf("retry candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		delay := RetryDelay(record.ErrorCount, baseDelay, maxDelay)
		if !now.Before(record.UpdatedAt.Add(delay)) {
			candidates = append(candidates, record)
		}
	}
	return candidates, rows.Err()
}

// ResumeForRetry moves a failed record back into the waiting status derived
// from its stage completion timestamps and clears failure context. The
// error count stays: it is the record's lifetime retry budget.
func (s *Store) ResumeForRetry(ctx context.Context, record *Record) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if record.Status != StatusFailed {
		return fmt.Errorf("%w: %s is not failed", ErrInvalidTransition, record.Status)
	}

	prior := *record
	record.Status = record.ResumptionStatus()
	record.ErrorMessage = ""
	record.FailedStage = ""
	record.LastHeartbeat = nil

	if err := s.UpdateRecord(ctx, record); err != nil {
		*record = prior
		return err
	}
	return nil
}

// ResetFailed puts failed records back in front of their resume stage with a
// fresh retry budget, ignoring the backoff window. With no ids it covers
// every failed record. This is the operator-requested retry; the scheduler
// uses ResumeForRetry, which keeps the budget.
func (s *Store) ResetFailed(ctx context.Context, ids ...int64) (int64, error) {
	set := `SET status = CASE
            WHEN download_completed_at IS NULL THEN '` + string(StatusPending) + `'
            WHEN transcription_completed_at IS NULL THEN '` + string(StatusDownloaded) + `'
            ELSE '` + string(StatusTranscribed) + `'
        END,
            error_message = NULL, failed_stage = NULL, error_count = 0,
            last_heartbeat = NULL, updated_at = ?`
	now := time.Now().UTC().Format(time.RFC3339Nano)

	if len(ids) == 0 {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE ingest_records `+set+` WHERE status = ?`,
			now,
			StatusFailed,
		)
		if err != nil {
			return 0, fmt.Errorf("reset failed records: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+2)
	args = append(args, now, StatusFailed)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE ingest_records `+set+` WHERE status = ? AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("reset selected failed records: %w", err)
	}
	return res.RowsAffected()
}

// UpdateHeartbeat refreshes the liveness stamp for an in-flight record
// without touching the optimistic token's meaning for status changes.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE ingest_records SET last_heartbeat = ? WHERE id = ?`,
		now.Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ResetStuckProcessing rolls records stranded in processing statuses back to
// the waiting status in front of their stage. Runs once at daemon startup to
// recover from a crash.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE ingest_records
         SET status = CASE status
             WHEN ? THEN ?
             WHEN ? THEN ?
             WHEN ? THEN ?
             ELSE status
         END,
             last_heartbeat = NULL, updated_at = ?
         WHERE status IN (?, ?, ?)`,
		StatusDownloading, StatusPending,
		StatusTranscribing, StatusDownloaded,
		StatusEmbedding, StatusTranscribed,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusDownloading,
		StatusTranscribing,
		StatusEmbedding,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck records: %w", err)
	}
	return res.RowsAffected()
}

// ReclaimStaleProcessing returns records stuck in processing back to the
// waiting status in front of their stage once heartbeats expire.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE ingest_records
        SET status = CASE status
            WHEN ? THEN ?
            WHEN ? THEN ?
            WHEN ? THEN ?
            ELSE status
        END,
            last_heartbeat = NULL, updated_at = ?
        WHERE status IN (?, ?, ?) AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		StatusDownloading, StatusPending,
		StatusTranscribing, StatusDownloaded,
		StatusEmbedding, StatusTranscribed,
		now.Format(time.RFC3339Nano),
		StatusDownloading,
		StatusTranscribing,
		StatusEmbedding,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale records: %w", err)
	}
	return res.RowsAffected()
}

// RemoveRecord deletes an ingestion record by identifier.
func (s *Store) RemoveRecord(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM ingest_records WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompleted removes only completed records.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM ingest_records WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed records.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM ingest_records WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}
