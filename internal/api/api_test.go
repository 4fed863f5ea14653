package api

import (
	"context"
	"testing"
	"time"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/stage"
	"github.com/chukwujekwu-code/sermon-hub/internal/workflow"
)

type queueStoreStub struct {
	records map[int64]*catalog.Record
	videos  map[string]*catalog.Video
	stats   map[catalog.Status]int
	resets  [][]int64
}

func (s *queueStoreStub) ListRecords(_ context.Context, statuses ...catalog.Status) ([]*catalog.Record, error) {
	var out []*catalog.Record
	for _, record := range s.records {
		if len(statuses) == 0 {
			out = append(out, record)
			continue
		}
		for _, status := range statuses {
			if record.Status == status {
				out = append(out, record)
				break
			}
		}
	}
	return out, nil
}

func (s *queueStoreStub) Stats(_ context.Context) (map[catalog.Status]int, error) {
	return s.stats, nil
}

func (s *queueStoreStub) RecordByID(_ context.Context, id int64) (*catalog.Record, error) {
	return s.records[id], nil
}

func (s *queueStoreStub) VideosByIDs(_ context.Context, ids []string) (map[string]*catalog.Video, error) {
	out := make(map[string]*catalog.Video, len(ids))
	for _, id := range ids {
		if video, ok := s.videos[id]; ok {
			out[id] = video
		}
	}
	return out, nil
}

func (s *queueStoreStub) ResetFailed(_ context.Context, ids ...int64) (int64, error) {
	s.resets = append(s.resets, ids)
	var reset int64
	for _, id := range ids {
		record, ok := s.records[id]
		if !ok || record.Status != catalog.StatusFailed {
			continue
		}
		record.Status = record.ResumptionStatus()
		record.ErrorCount = 0
		record.ErrorMessage = ""
		record.FailedStage = ""
		reset++
	}
	return reset, nil
}

func TestQueueServiceDecoratesTitles(t *testing.T) {
	stub := &queueStoreStub{
		records: map[int64]*catalog.Record{
			1: {ID: 1, VideoID: "vid-1", Status: catalog.StatusPending},
		},
		videos: map[string]*catalog.Video{
			"vid-1": {VideoID: "vid-1", ChannelID: "UCgrace", Title: "Walking Through Grief"},
		},
	}

	service := NewQueueService(stub)
	records, err := service.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if records[0].Title != "Walking Through Grief" || records[0].ChannelID != "UCgrace" {
		t.Fatalf("record not decorated: %+v", records[0])
	}
}

func TestQueueServiceDescribeMissing(t *testing.T) {
	service := NewQueueService(&queueStoreStub{records: map[int64]*catalog.Record{}})
	record, err := service.Describe(context.Background(), 42)
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil for unknown id, got %+v", record)
	}
}

func TestRetryRecordsByIDOutcomes(t *testing.T) {
	done := time.Now()
	stub := &queueStoreStub{
		records: map[int64]*catalog.Record{
			1: {ID: 1, VideoID: "vid-failed", Status: catalog.StatusFailed, ErrorCount: 3, DownloadCompletedAt: &done},
			2: {ID: 2, VideoID: "vid-running", Status: catalog.StatusDownloading},
		},
	}

	result, err := RetryRecordsByID(context.Background(), stub, []int64{1, 2, 99})
	if err != nil {
		t.Fatalf("RetryRecordsByID: %v", err)
	}
	if result.ResetCount != 1 {
		t.Fatalf("ResetCount = %d, want 1", result.ResetCount)
	}
	if len(result.Records) != 3 {
		t.Fatalf("len(Records) = %d, want 3", len(result.Records))
	}
	if result.Records[0].Outcome != RetryOutcomeReset {
		t.Fatalf("record 1 outcome = %s, want %s", result.Records[0].Outcome, RetryOutcomeReset)
	}
	if result.Records[0].NewStatus != string(catalog.StatusDownloaded) {
		t.Fatalf("record 1 new status = %s, want downloaded", result.Records[0].NewStatus)
	}
	if result.Records[1].Outcome != RetryOutcomeNotFailed {
		t.Fatalf("record 2 outcome = %s, want %s", result.Records[1].Outcome, RetryOutcomeNotFailed)
	}
	if result.Records[2].Outcome != RetryOutcomeNotFound {
		t.Fatalf("record 99 outcome = %s, want %s", result.Records[2].Outcome, RetryOutcomeNotFound)
	}
}

func TestFromRecordFormatsTimestamps(t *testing.T) {
	created := time.Date(2025, 3, 9, 10, 30, 0, 0, time.UTC)
	completed := created.Add(5 * time.Minute)
	record := &catalog.Record{
		ID:                  7,
		VideoID:             "vid-7",
		Status:              catalog.StatusDownloaded,
		CreatedAt:           created,
		UpdatedAt:           completed,
		DownloadCompletedAt: &completed,
	}

	dto := FromRecord(record)
	if dto.CreatedAt != "2025-03-09T10:30:00.000Z" {
		t.Fatalf("CreatedAt = %q", dto.CreatedAt)
	}
	if dto.DownloadCompletedAt != "2025-03-09T10:35:00.000Z" {
		t.Fatalf("DownloadCompletedAt = %q", dto.DownloadCompletedAt)
	}
	if dto.TranscriptionCompletedAt != "" {
		t.Fatalf("TranscriptionCompletedAt = %q, want empty", dto.TranscriptionCompletedAt)
	}
}

func TestFromStatusSummarySortsStageHealth(t *testing.T) {
	summary := workflow.StatusSummary{
		Running: true,
		QueueStats: map[catalog.Status]int{
			catalog.StatusPending: 2,
			catalog.StatusFailed:  1,
		},
		StageHealth: map[string]stage.Health{
			"transcribe": stage.Healthy("transcribe"),
			"download":   stage.Unhealthy("download", "yt-dlp missing"),
			"embed":      stage.Healthy("embed"),
		},
	}

	wf := FromStatusSummary(summary)
	if !wf.Running {
		t.Fatal("expected running")
	}
	if wf.QueueStats["pending"] != 2 || wf.QueueStats["failed"] != 1 {
		t.Fatalf("queue stats = %v", wf.QueueStats)
	}
	names := make([]string, 0, len(wf.StageHealth))
	for _, h := range wf.StageHealth {
		names = append(names, h.Name)
	}
	want := []string{"download", "embed", "transcribe"}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("stage order = %v, want %v", names, want)
		}
	}
	if wf.StageHealth[0].Ready || wf.StageHealth[0].Detail != "yt-dlp missing" {
		t.Fatalf("download health = %+v", wf.StageHealth[0])
	}
}
