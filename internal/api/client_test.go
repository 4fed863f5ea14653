package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientRoundTrips(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/queue/stats", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(QueueStatsResponse{Counts: map[string]int{"pending": 3, "completed": 9}})
	})
	mux.HandleFunc("GET /api/queue", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("status"); got != "failed" {
			t.Errorf("status query = %q, want failed", got)
		}
		json.NewEncoder(w).Encode(QueueListResponse{Records: []IngestRecord{{ID: 4, VideoID: "vid-4", Status: "failed"}}})
	})
	mux.HandleFunc("GET /api/queue/4", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(QueueRecordResponse{Record: IngestRecord{ID: 4, VideoID: "vid-4", Title: "Walking by Faith", Status: "failed"}})
	})
	mux.HandleFunc("POST /api/queue/4/retry", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(RetryRecordsResult{
			ResetCount: 1,
			Records:    []RetryRecordResult{{ID: 4, Outcome: RetryOutcomeReset, NewStatus: "pending"}},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	stats, err := client.QueueStats(ctx)
	if err != nil {
		t.Fatalf("QueueStats: %v", err)
	}
	if stats["pending"] != 3 || stats["completed"] != 9 {
		t.Fatalf("stats = %v", stats)
	}

	records, err := client.Queue(ctx, "failed")
	if err != nil {
		t.Fatalf("Queue: %v", err)
	}
	if len(records) != 1 || records[0].VideoID != "vid-4" {
		t.Fatalf("records = %+v", records)
	}

	record, err := client.QueueRecord(ctx, 4)
	if err != nil {
		t.Fatalf("QueueRecord: %v", err)
	}
	if record.Title != "Walking by Faith" {
		t.Fatalf("record = %+v", record)
	}

	retry, err := client.RetryRecord(ctx, 4)
	if err != nil {
		t.Fatalf("RetryRecord: %v", err)
	}
	if retry.ResetCount != 1 || retry.Records[0].NewStatus != "pending" {
		t.Fatalf("retry = %+v", retry)
	}
}

func TestClientSendsBodiesAndToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/channels", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sekrit" {
			t.Errorf("authorization = %q, want bearer token", got)
		}
		var req AddChannelRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.Channel != "@gracechapel" {
			t.Errorf("channel ref = %q", req.Channel)
		}
		json.NewEncoder(w).Encode(ChannelResponse{Channel: ChannelSummary{ChannelID: "UCgrace", Name: "Grace Chapel", Active: true}})
	})
	mux.HandleFunc("POST /api/queue", func(w http.ResponseWriter, r *http.Request) {
		var req EnqueueRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.VideoID != "vid-9" {
			t.Errorf("video id = %q", req.VideoID)
		}
		json.NewEncoder(w).Encode(EnqueueResponse{Record: IngestRecord{ID: 9, VideoID: "vid-9", Status: "pending"}, Created: true})
	})
	mux.HandleFunc("DELETE /api/channels/UCgrace", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(RemoveChannelResponse{Removed: true})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(server.URL).WithToken("sekrit")
	ctx := context.Background()

	channel, err := client.AddChannel(ctx, "@gracechapel")
	if err != nil {
		t.Fatalf("AddChannel: %v", err)
	}
	if channel.ChannelID != "UCgrace" {
		t.Fatalf("channel = %+v", channel)
	}

	added, err := client.Enqueue(ctx, "vid-9")
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if !added.Created || added.Record.ID != 9 {
		t.Fatalf("enqueue = %+v", added)
	}

	removed, err := client.RemoveChannel(ctx, "UCgrace")
	if err != nil {
		t.Fatalf("RemoveChannel: %v", err)
	}
	if !removed {
		t.Fatal("expected removal to be reported")
	}
}

func TestClientDecodesErrorPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "unknown mood \"melancholy\""})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Search(context.Background(), "", "melancholy", 0, 0)
	if err == nil {
		t.Fatal("expected error from 400 response")
	}
	want := `daemon returned 400: unknown mood "melancholy"`
	if err.Error() != want {
		t.Fatalf("error = %q, want %q", err.Error(), want)
	}
}

func TestNewClientNormalizesBind(t *testing.T) {
	tests := []struct {
		bind string
		want string
	}{
		{"", "http://127.0.0.1:7710"},
		{"127.0.0.1:7710", "http://127.0.0.1:7710"},
		{"http://127.0.0.1:7710/", "http://127.0.0.1:7710"},
	}
	for _, tt := range tests {
		if got := NewClient(tt.bind).BaseURL(); got != tt.want {
			t.Errorf("NewClient(%q).BaseURL() = %q, want %q", tt.bind, got, tt.want)
		}
	}
}
