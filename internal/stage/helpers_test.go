package stage

import (
	"errors"
	"testing"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
)

func TestRequireAudio(t *testing.T) {
	record := &catalog.Record{AudioPath: "/data/audio/vid-1.m4a"}
	path, err := RequireAudio(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/data/audio/vid-1.m4a" {
		t.Fatalf("unexpected path: %q", path)
	}
}

func TestRequireAudioMissing(t *testing.T) {
	for _, record := range []*catalog.Record{nil, {}, {AudioPath: "   "}} {
		if _, err := RequireAudio(record); !errors.Is(err, services.ErrValidation) {
			t.Fatalf("record %+v: error = %v, want ErrValidation", record, err)
		}
	}
}

func TestRequireTranscript(t *testing.T) {
	record := &catalog.Record{TranscriptText: "grace upon grace"}
	text, err := RequireTranscript(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "grace upon grace" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestRequireTranscriptMissing(t *testing.T) {
	if _, err := RequireTranscript(&catalog.Record{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestUnhealthyErr(t *testing.T) {
	health := UnhealthyErr("download", errors.New("yt-dlp not found"))
	if health.Ready {
		t.Fatal("expected not ready")
	}
	if health.Detail != "yt-dlp not found" {
		t.Fatalf("unexpected detail: %q", health.Detail)
	}
	if got := UnhealthyErr("download", nil); !got.Ready {
		t.Fatal("nil error should report ready")
	}
}
