package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chukwujekwu-code/sermon-hub/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.AudioDir = filepath.Join(base, "audio")
	cfg.Paths.TranscriptDir = filepath.Join(base, "transcripts")
	cfg.Paths.VectorDir = filepath.Join(base, "vectors")
	cfg.API.Bind = "127.0.0.1:0"
	cfg.Embeddings.BaseURL = "http://127.0.0.1:0/v1"
	cfg.Embeddings.APIKey = "test"
	cfg.Expansion.BaseURL = "http://127.0.0.1:0/chat/completions"
	cfg.Expansion.APIKey = "test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     cfg,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWorkers overrides the pipeline worker count on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.Workers = workers
	}
}

// WithChunkGeometry overrides the chunk window and overlap on the test
// config.
func WithChunkGeometry(window, overlap int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.ChunkWindowWords = window
		b.cfg.Workflow.ChunkOverlapWords = overlap
	}
}

// WithMaxErrorCount overrides the retry budget on the test config.
func WithMaxErrorCount(count int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.MaxErrorCount = count
	}
}

// WithDimensions overrides the embedding dimensionality so tests can work
// with small hand-built vectors.
func WithDimensions(dim int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Embeddings.Dimensions = dim
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default external binaries
// are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "whisper", "ffmpeg"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
