package transcribe_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
	"github.com/chukwujekwu-code/sermon-hub/internal/transcribe"
)

const sermonJSON = `{
  "text": " Grief is not the end. God stays close. ",
  "segments": [
    {"text": " Grief is not the end. ", "start": 0.0, "end": 3.4},
    {"text": "   ", "start": 3.4, "end": 3.9},
    {"text": "God stays close.", "start": 3.9, "end": 6.1}
  ],
  "language": "en"
}`

func writeAudio(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("audio-bytes"), 0o644); err != nil {
		t.Fatalf("write audio fixture: %v", err)
	}
	return path
}

func flagValue(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func hasFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == flag {
			return true
		}
	}
	return false
}

func TestTranscribeRunsWhisper(t *testing.T) {
	dir := t.TempDir()
	audio := writeAudio(t, dir, "vid-grief.m4a")
	outDir := filepath.Join(dir, "transcripts")

	var gotName string
	var gotArgs []string
	svc := transcribe.NewService(config.Default().Whisper, logging.NewNop())
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return os.WriteFile(filepath.Join(outDir, "vid-grief.json"), []byte(sermonJSON), 0o644)
	})

	result, err := svc.Transcribe(context.Background(), audio, outDir)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if gotName != "whisper" {
		t.Fatalf("binary = %q, want whisper", gotName)
	}
	if len(gotArgs) == 0 || gotArgs[0] != audio {
		t.Fatalf("first argument = %v, want audio path %q", gotArgs, audio)
	}
	if got := flagValue(gotArgs, "--model"); got != "base" {
		t.Fatalf("--model = %q, want base", got)
	}
	if got := flagValue(gotArgs, "--output_format"); got != "json" {
		t.Fatalf("--output_format = %q, want json", got)
	}
	if got := flagValue(gotArgs, "--output_dir"); got != outDir {
		t.Fatalf("--output_dir = %q, want %q", got, outDir)
	}
	if got := flagValue(gotArgs, "--verbose"); got != "False" {
		t.Fatalf("--verbose = %q, want False", got)
	}
	if got := flagValue(gotArgs, "--language"); got != "en" {
		t.Fatalf("--language = %q, want en", got)
	}

	if result.Text != "Grief is not the end. God stays close." {
		t.Fatalf("Text = %q", result.Text)
	}
	if result.Language != "en" {
		t.Fatalf("Language = %q, want en", result.Language)
	}
	if result.Segments != 3 {
		t.Fatalf("Segments = %d, want 3", result.Segments)
	}
	if want := filepath.Join(outDir, "vid-grief.json"); result.JSONPath != want {
		t.Fatalf("JSONPath = %q, want %q", result.JSONPath, want)
	}
}

func TestTranscribeDefaultsOutputDirToAudioDir(t *testing.T) {
	dir := t.TempDir()
	audio := writeAudio(t, dir, "vid-hope.mp3")

	svc := transcribe.NewService(config.Default().Whisper, logging.NewNop())
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return os.WriteFile(filepath.Join(dir, "vid-hope.json"), []byte(sermonJSON), 0o644)
	})

	result, err := svc.Transcribe(context.Background(), audio, "")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if want := filepath.Join(dir, "vid-hope.json"); result.JSONPath != want {
		t.Fatalf("JSONPath = %q, want %q", result.JSONPath, want)
	}
}

func TestTranscribeFallsBackToFullText(t *testing.T) {
	dir := t.TempDir()
	audio := writeAudio(t, dir, "vid-quiet.m4a")

	svc := transcribe.NewService(config.Default().Whisper, logging.NewNop())
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		payload := `{"text": "  Be still and know.  ", "segments": [], "language": "en"}`
		return os.WriteFile(filepath.Join(dir, "vid-quiet.json"), []byte(payload), 0o644)
	})

	result, err := svc.Transcribe(context.Background(), audio, dir)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.Text != "Be still and know." {
		t.Fatalf("Text = %q", result.Text)
	}
	if result.Segments != 0 {
		t.Fatalf("Segments = %d, want 0", result.Segments)
	}
}

func TestTranscribeNormalizesLanguage(t *testing.T) {
	dir := t.TempDir()
	audio := writeAudio(t, dir, "vid-lang.m4a")

	cfg := config.Default().Whisper
	cfg.Language = "En-US"
	var gotArgs []string
	svc := transcribe.NewService(cfg, logging.NewNop())
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotArgs = args
		return os.WriteFile(filepath.Join(dir, "vid-lang.json"), []byte(sermonJSON), 0o644)
	})

	if _, err := svc.Transcribe(context.Background(), audio, dir); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got := flagValue(gotArgs, "--language"); got != "en" {
		t.Fatalf("--language = %q, want en", got)
	}

	cfg.Language = ""
	svc = transcribe.NewService(cfg, logging.NewNop())
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotArgs = args
		return os.WriteFile(filepath.Join(dir, "vid-lang.json"), []byte(sermonJSON), 0o644)
	})
	if _, err := svc.Transcribe(context.Background(), audio, dir); err != nil {
		t.Fatalf("Transcribe without language: %v", err)
	}
	if hasFlag(gotArgs, "--language") {
		t.Fatalf("args %v should omit --language when unset", gotArgs)
	}
}

func TestTranscribeMissingAudio(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	svc := transcribe.NewService(config.Default().Whisper, logging.NewNop())
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		calls++
		return nil
	})

	_, err := svc.Transcribe(context.Background(), filepath.Join(dir, "missing.m4a"), dir)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if calls != 0 {
		t.Fatalf("runner called %d times for missing audio", calls)
	}
}

func TestTranscribeRunnerFailure(t *testing.T) {
	dir := t.TempDir()
	audio := writeAudio(t, dir, "vid-fail.m4a")

	svc := transcribe.NewService(config.Default().Whisper, logging.NewNop())
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("whisper: exit status 1: CUDA out of memory")
	})

	_, err := svc.Transcribe(context.Background(), audio, dir)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("error = %v, want ErrExternalTool", err)
	}
}

func TestTranscribeTimeoutClassification(t *testing.T) {
	dir := t.TempDir()
	audio := writeAudio(t, dir, "vid-slow.m4a")

	svc := transcribe.NewService(config.Default().Whisper, logging.NewNop())
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return context.DeadlineExceeded
	})

	_, err := svc.Transcribe(context.Background(), audio, dir)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
}

func TestTranscribeNoJSONProduced(t *testing.T) {
	dir := t.TempDir()
	audio := writeAudio(t, dir, "vid-empty.m4a")

	svc := transcribe.NewService(config.Default().Whisper, logging.NewNop())
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return nil
	})

	_, err := svc.Transcribe(context.Background(), audio, dir)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("error = %v, want ErrExternalTool", err)
	}
}

func TestTranscribeGarbledJSON(t *testing.T) {
	dir := t.TempDir()
	audio := writeAudio(t, dir, "vid-garbled.m4a")

	svc := transcribe.NewService(config.Default().Whisper, logging.NewNop())
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return os.WriteFile(filepath.Join(dir, "vid-garbled.json"), []byte("{not json"), 0o644)
	})

	_, err := svc.Transcribe(context.Background(), audio, dir)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("error = %v, want ErrExternalTool", err)
	}
}

func TestLoadSegments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sermon.json")
	if err := os.WriteFile(path, []byte(sermonJSON), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	segments, err := transcribe.LoadSegments(path)
	if err != nil {
		t.Fatalf("LoadSegments: %v", err)
	}
	if len(segments) != 3 {
		t.Fatalf("got %d segments, want 3", len(segments))
	}
	if segments[0].Start != 0 || segments[0].End != 3.4 {
		t.Fatalf("segment 0 timing = %v-%v", segments[0].Start, segments[0].End)
	}
	if segments[2].Text != "God stays close." {
		t.Fatalf("segment 2 text = %q", segments[2].Text)
	}
}
