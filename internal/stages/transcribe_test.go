package stages_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
	"github.com/chukwujekwu-code/sermon-hub/internal/stages"
	"github.com/chukwujekwu-code/sermon-hub/internal/testsupport"
	"github.com/chukwujekwu-code/sermon-hub/internal/transcribe"
)

type fakeTranscriber struct {
	result   *transcribe.Result
	err      error
	calls    int
	gotAudio string
	gotDir   string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath, outputDir string) (*transcribe.Result, error) {
	f.calls++
	f.gotAudio = audioPath
	f.gotDir = outputDir
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestTranscribeSkipsWhisperForCaptions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	service := &fakeTranscriber{}
	handler := stages.NewTranscribeWithDependencies(cfg, logging.NewNop(), service)

	record := &catalog.Record{
		VideoID:          "vid-captioned",
		Status:           catalog.StatusTranscribing,
		TranscriptText:   "Grace upon grace.",
		TranscriptSource: catalog.TranscriptSourceCaptions,
	}
	if err := handler.Execute(context.Background(), record); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if service.calls != 0 {
		t.Fatalf("whisper invoked %d times for captioned record", service.calls)
	}
	want := filepath.Join(cfg.Paths.TranscriptDir, "vid-captioned.txt")
	if record.TranscriptPath != want {
		t.Fatalf("TranscriptPath = %q, want %q", record.TranscriptPath, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read transcript file: %v", err)
	}
	if string(data) != "Grace upon grace." {
		t.Fatalf("transcript file = %q", string(data))
	}
}

func TestTranscribeRunsWhisperOverAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	service := &fakeTranscriber{result: &transcribe.Result{
		Text:     "Be anxious for nothing.",
		Language: "en",
		JSONPath: filepath.Join(cfg.Paths.TranscriptDir, "vid-audio.json"),
		Segments: 2,
	}}
	handler := stages.NewTranscribeWithDependencies(cfg, logging.NewNop(), service)

	record := &catalog.Record{
		VideoID:   "vid-audio",
		Status:    catalog.StatusTranscribing,
		AudioPath: "/tmp/audio/vid-audio.m4a",
	}
	if err := handler.Execute(context.Background(), record); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if service.gotAudio != "/tmp/audio/vid-audio.m4a" {
		t.Fatalf("audio path = %q", service.gotAudio)
	}
	if service.gotDir != cfg.Paths.TranscriptDir {
		t.Fatalf("output dir = %q, want %q", service.gotDir, cfg.Paths.TranscriptDir)
	}
	if record.TranscriptText != "Be anxious for nothing." {
		t.Fatalf("TranscriptText = %q", record.TranscriptText)
	}
	if record.TranscriptSource != catalog.TranscriptSourceWhisper {
		t.Fatalf("TranscriptSource = %q, want whisper", record.TranscriptSource)
	}
	if record.TranscriptPath != service.result.JSONPath {
		t.Fatalf("TranscriptPath = %q", record.TranscriptPath)
	}
}

func TestTranscribeRequiresAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	service := &fakeTranscriber{}
	handler := stages.NewTranscribeWithDependencies(cfg, logging.NewNop(), service)

	record := &catalog.Record{VideoID: "vid-bare", Status: catalog.StatusTranscribing}
	err := handler.Execute(context.Background(), record)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if service.calls != 0 {
		t.Fatalf("whisper invoked %d times without audio", service.calls)
	}
}

func TestTranscribeEmptyTranscriptFails(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	service := &fakeTranscriber{result: &transcribe.Result{Text: "   "}}
	handler := stages.NewTranscribeWithDependencies(cfg, logging.NewNop(), service)

	record := &catalog.Record{
		VideoID:   "vid-silent",
		Status:    catalog.StatusTranscribing,
		AudioPath: "/tmp/audio/vid-silent.m4a",
	}
	err := handler.Execute(context.Background(), record)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
}

func TestTranscribeErrorPropagates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	service := &fakeTranscriber{
		err: services.Wrap(services.ErrExternalTool, "transcribe", "transcribe audio", "whisper failed", nil),
	}
	handler := stages.NewTranscribeWithDependencies(cfg, logging.NewNop(), service)

	record := &catalog.Record{
		VideoID:   "vid-broken",
		Status:    catalog.StatusTranscribing,
		AudioPath: "/tmp/audio/vid-broken.m4a",
	}
	if err := handler.Execute(context.Background(), record); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("error = %v, want ErrExternalTool", err)
	}
}

func TestTranscribeHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("whisper"))
	handler := stages.NewTranscribeWithDependencies(cfg, logging.NewNop(), &fakeTranscriber{})

	if health := handler.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("expected healthy, got %+v", health)
	}

	cfg.Paths.TranscriptDir = ""
	if health := handler.HealthCheck(context.Background()); health.Ready {
		t.Fatal("expected unhealthy without transcript dir")
	}
}
