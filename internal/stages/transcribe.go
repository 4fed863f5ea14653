package stages

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/chukwujekwu-code/sermon-hub/internal/catalog"
	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/logging"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
	"github.com/chukwujekwu-code/sermon-hub/internal/stage"
	"github.com/chukwujekwu-code/sermon-hub/internal/transcribe"
)

// AudioTranscriber turns a downloaded audio file into transcript text.
type AudioTranscriber interface {
	Transcribe(ctx context.Context, audioPath, outputDir string) (*transcribe.Result, error)
}

// Transcribe produces the transcript for a record. Records that picked up
// caption text during download keep it and never touch whisper; everything
// else runs the whisper CLI over the downloaded audio.
type Transcribe struct {
	cfg     *config.Config
	service AudioTranscriber
	logger  *slog.Logger
}

// NewTranscribe constructs the transcribe handler using default dependencies.
func NewTranscribe(cfg *config.Config, logger *slog.Logger) *Transcribe {
	return NewTranscribeWithDependencies(cfg, logger, transcribe.NewService(cfg.Whisper, logger))
}

// NewTranscribeWithDependencies allows injecting the transcriber (used in tests).
func NewTranscribeWithDependencies(cfg *config.Config, logger *slog.Logger, service AudioTranscriber) *Transcribe {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcribe{
		cfg:     cfg,
		service: service,
		logger:  logger.With(logging.FieldComponent, "transcribe-stage"),
	}
}

func (t *Transcribe) Prepare(ctx context.Context, record *catalog.Record) error {
	logger := logging.WithContext(ctx, t.logger)
	record.ErrorMessage = ""
	record.FailedStage = ""
	logger.Info("starting transcription", "source_hint", record.TranscriptSource)
	return nil
}

func (t *Transcribe) Execute(ctx context.Context, record *catalog.Record) error {
	logger := logging.WithContext(ctx, t.logger)

	if record.TranscriptSource == catalog.TranscriptSourceCaptions && strings.TrimSpace(record.TranscriptText) != "" {
		path, err := t.writeTranscript(record.VideoID, record.TranscriptText)
		if err != nil {
			return err
		}
		record.TranscriptPath = path
		logger.Info("caption transcript kept, whisper skipped", "chars", len(record.TranscriptText))
		return nil
	}

	audioPath, err := stage.RequireAudio(record)
	if err != nil {
		return err
	}
	result, err := t.service.Transcribe(ctx, audioPath, t.cfg.Paths.TranscriptDir)
	if err != nil {
		return err
	}
	if strings.TrimSpace(result.Text) == "" {
		return services.Wrap(services.ErrValidation, "transcribe", "transcribe audio",
			fmt.Sprintf("video %s produced an empty transcript", record.VideoID), nil)
	}

	record.TranscriptText = result.Text
	record.TranscriptSource = catalog.TranscriptSourceWhisper
	record.TranscriptPath = result.JSONPath
	logger.Info("whisper transcript produced",
		"chars", len(result.Text),
		"segments", result.Segments,
		"language", result.Language)
	return nil
}

// HealthCheck verifies transcription dependencies.
func (t *Transcribe) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcribe"
	if t.cfg == nil {
		return stage.Unhealthy(name, "configuration unavailable")
	}
	if strings.TrimSpace(t.cfg.Paths.TranscriptDir) == "" {
		return stage.Unhealthy(name, "transcript directory not configured")
	}
	if t.service == nil {
		return stage.Unhealthy(name, "transcriber unavailable")
	}
	binary := strings.TrimSpace(t.cfg.Whisper.Binary)
	if binary == "" {
		binary = "whisper"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, fmt.Sprintf("whisper binary %q not found", binary))
	}
	return stage.Healthy(name)
}

// writeTranscript persists caption text beside the whisper outputs so every
// record has an on-disk transcript artifact.
func (t *Transcribe) writeTranscript(videoID, text string) (string, error) {
	dir := t.cfg.Paths.TranscriptDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "transcribe", "write transcript",
			fmt.Sprintf("create transcript dir %s", dir), err)
	}
	path := filepath.Join(dir, videoID+".txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", services.Wrap(services.ErrTransient, "transcribe", "write transcript",
			fmt.Sprintf("write caption transcript for video %s", videoID), err)
	}
	return path, nil
}
