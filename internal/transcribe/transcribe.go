package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
)

// Segment is one timed span of the whisper JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// whisperPayload is the JSON structure whisper writes next to the audio file.
type whisperPayload struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// Result carries the transcript produced from one audio file.
type Result struct {
	Text     string
	Language string
	JSONPath string
	Segments int
}

// Service runs the whisper CLI against downloaded sermon audio.
type Service struct {
	cfg           config.WhisperConfig
	binary        string
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService builds a Service around the configured whisper binary.
func NewService(cfg config.WhisperConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	binary := cfg.Binary
	if binary == "" {
		binary = "whisper"
	}
	return &Service{
		cfg:    cfg,
		binary: binary,
		logger: logger.With("component", "transcriber"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Transcribe runs whisper over audioPath and returns the joined transcript.
// The JSON output file lands in outputDir, which defaults to the directory
// of the audio file. The configured timeout bounds the whole run.
func (s *Service) Transcribe(ctx context.Context, audioPath, outputDir string) (*Result, error) {
	if strings.TrimSpace(audioPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "transcribe", "transcribe audio", "audio path is required", nil)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return nil, services.Wrap(services.ErrValidation, "transcribe", "transcribe audio",
			fmt.Sprintf("audio file %s is not readable", audioPath), err)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(audioPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "transcribe audio",
			fmt.Sprintf("create output dir %s", outputDir), err)
	}

	if s.cfg.TimeoutMinutes > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutMinutes)*time.Minute)
		defer cancel()
	}

	args := buildTranscribeArgs(s.cfg, audioPath, outputDir)
	s.logger.Debug("starting transcription", "audio_path", audioPath, "model", s.cfg.Model)
	started := time.Now()
	if err := s.run(ctx, s.binary, args...); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "transcribe", "transcribe audio",
				fmt.Sprintf("transcription of %s timed out", audioPath), err)
		}
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "transcribe audio",
			fmt.Sprintf("whisper failed for %s", audioPath), err)
	}

	baseName := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	payload, err := readPayload(jsonPath)
	if err != nil {
		return nil, err
	}

	text := joinSegments(payload.Segments)
	if text == "" {
		text = strings.TrimSpace(payload.Text)
	}
	language := payload.Language
	if language == "" {
		language = s.cfg.Language
	}

	result := &Result{
		Text:     text,
		Language: language,
		JSONPath: jsonPath,
		Segments: len(payload.Segments),
	}
	s.logger.Info("transcribed audio",
		"audio_path", audioPath,
		"segments", result.Segments,
		"chars", len(result.Text),
		"elapsed", time.Since(started).Round(time.Second))
	return result, nil
}

// LoadSegments reads the timed segments back from a whisper JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	payload, err := readPayload(jsonPath)
	if err != nil {
		return nil, err
	}
	return payload.Segments, nil
}

func readPayload(jsonPath string) (*whisperPayload, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "read transcript",
			fmt.Sprintf("whisper reported success but produced no JSON output at %s", jsonPath), err)
	}
	var payload whisperPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "transcribe", "read transcript",
			fmt.Sprintf("parse whisper json %s", jsonPath), err)
	}
	return &payload, nil
}

func joinSegments(segments []Segment) string {
	var parts []string
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func buildTranscribeArgs(cfg config.WhisperConfig, audioPath, outputDir string) []string {
	model := cfg.Model
	if model == "" {
		model = "base"
	}
	args := []string{
		audioPath,
		"--model", model,
		"--output_format", "json",
		"--output_dir", outputDir,
		"--verbose", "False",
	}
	if lang := normalizeLanguage(cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	return args
}

// normalizeLanguage reduces regioned tags like en-US to the bare ISO code
// whisper expects.
func normalizeLanguage(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if idx := strings.IndexByte(language, '-'); idx > 0 {
		language = language[:idx]
	}
	return language
}

// run executes a command, using the custom runner if set.
func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
