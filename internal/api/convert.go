package api

import (
	"slices"
	"time"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/workflow"
)

// FromRecord converts an ingestion record to its API representation.
func FromRecord(record *catalog.Record) IngestRecord {
	if record == nil {
		return IngestRecord{}
	}

	dto := IngestRecord{
		ID:               record.ID,
		VideoID:          record.VideoID,
		Status:           string(record.Status),
		TranscriptSource: record.TranscriptSource,
		TranscriptPath:   record.TranscriptPath,
		AudioPath:        record.AudioPath,
		ErrorMessage:     record.ErrorMessage,
		ErrorCount:       record.ErrorCount,
		FailedStage:      record.FailedStage,
	}
	if !record.CreatedAt.IsZero() {
		dto.CreatedAt = record.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !record.UpdatedAt.IsZero() {
		dto.UpdatedAt = record.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	dto.DownloadCompletedAt = formatOptionalTime(record.DownloadCompletedAt)
	dto.TranscriptionCompletedAt = formatOptionalTime(record.TranscriptionCompletedAt)
	dto.EmbeddingCompletedAt = formatOptionalTime(record.EmbeddingCompletedAt)
	return dto
}

// FromRecords converts a slice of ingestion records into API DTOs.
func FromRecords(records []*catalog.Record) []IngestRecord {
	if len(records) == 0 {
		return nil
	}
	out := make([]IngestRecord, 0, len(records))
	for _, record := range records {
		out = append(out, FromRecord(record))
	}
	return out
}

// FromChannel converts a tracked channel to its API representation.
func FromChannel(channel *catalog.Channel) ChannelSummary {
	if channel == nil {
		return ChannelSummary{}
	}
	dto := ChannelSummary{
		ChannelID: channel.ChannelID,
		Name:      channel.Name,
		URL:       channel.URL,
		Active:    channel.Active,
	}
	dto.LastSyncAt = formatOptionalTime(channel.LastSyncAt)
	if !channel.CreatedAt.IsZero() {
		dto.CreatedAt = channel.CreatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromChannels converts the channel roster into API DTOs.
func FromChannels(channels []*catalog.Channel) []ChannelSummary {
	if len(channels) == 0 {
		return nil
	}
	out := make([]ChannelSummary, 0, len(channels))
	for _, channel := range channels {
		out = append(out, FromChannel(channel))
	}
	return out
}

// FromStatusSummary converts a workflow status summary to an API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	healthNames := make([]string, 0, len(summary.StageHealth))
	for name := range summary.StageHealth {
		healthNames = append(healthNames, name)
	}
	slices.Sort(healthNames)

	health := make([]StageHealth, 0, len(healthNames))
	for _, name := range healthNames {
		h := summary.StageHealth[name]
		health = append(health, StageHealth{
			Name:   name,
			Ready:  h.Ready,
			Detail: h.Detail,
		})
	}

	stats := make(map[string]int, len(summary.QueueStats))
	for status, count := range summary.QueueStats {
		stats[string(status)] = count
	}

	wf := WorkflowStatus{
		Running:     summary.Running,
		QueueStats:  stats,
		StageHealth: health,
	}
	if summary.LastError != "" {
		wf.LastError = summary.LastError
	}
	if summary.LastRecord != nil {
		last := FromRecord(summary.LastRecord)
		wf.LastRecord = &last
	}
	return wf
}

// MergeQueueStats flattens status-keyed counts for transport.
func MergeQueueStats(stats map[catalog.Status]int) map[string]int {
	out := make(map[string]int, len(stats))
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

func formatOptionalTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
