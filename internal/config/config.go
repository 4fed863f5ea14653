package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Config holds every setting the daemon and CLI consume. Values arrive from
// the TOML config file, environment fallbacks, and repository defaults, and
// are normalized and validated before use.
type Config struct {
	Paths      PathsConfig      `toml:"paths"`
	YouTube    YouTubeConfig    `toml:"youtube"`
	Whisper    WhisperConfig    `toml:"whisper"`
	Embeddings EmbeddingsConfig `toml:"embeddings"`
	Expansion  ExpansionConfig  `toml:"expansion"`
	Search     SearchConfig     `toml:"search"`
	Workflow   WorkflowConfig   `toml:"workflow"`
	API        APIConfig        `toml:"api"`
	Logging    LoggingConfig    `toml:"logging"`
}

// PathsConfig controls where the catalog database, downloaded media, and
// derived artifacts live on disk.
type PathsConfig struct {
	DataDir       string `toml:"data_dir"`
	LogDir        string `toml:"log_dir"`
	AudioDir      string `toml:"audio_dir"`
	TranscriptDir string `toml:"transcript_dir"`
	VectorDir     string `toml:"vector_dir"`
}

// YouTubeConfig tunes channel discovery and audio downloads.
type YouTubeConfig struct {
	MinVideoDurationMinutes int    `toml:"min_video_duration_minutes"`
	DownloadDelaySeconds    int    `toml:"download_delay_seconds"`
	YtDlpBinary             string `toml:"yt_dlp_binary"`
	RequestTimeoutSeconds   int    `toml:"request_timeout_seconds"`
}

// WhisperConfig tunes local speech-to-text transcription.
type WhisperConfig struct {
	Binary         string `toml:"binary"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	TimeoutMinutes int    `toml:"timeout_minutes"`
}

// EmbeddingsConfig points at the OpenAI-compatible embeddings endpoint used
// for both ingest and search.
type EmbeddingsConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	Dimensions     int    `toml:"dimensions"`
	BatchSize      int    `toml:"batch_size"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ExpansionConfig points at the chat-completions endpoint used to expand a
// mood description into search phrases.
type ExpansionConfig struct {
	BaseURL        string  `toml:"base_url"`
	APIKey         string  `toml:"api_key"`
	Model          string  `toml:"model"`
	Phrases        int     `toml:"phrases"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	Temperature    float64 `toml:"temperature"`
}

// SearchConfig tunes relevance filtering and result sizing.
type SearchConfig struct {
	MinRelevanceScore float64 `toml:"min_relevance_score"`
	PerPhraseTopK     int     `toml:"per_phrase_top_k"`
	DefaultLimit      int     `toml:"default_limit"`
	MaxLimit          int     `toml:"max_limit"`
}

// WorkflowConfig tunes the ingest pipeline: worker counts, chunking geometry,
// and retry pacing.
type WorkflowConfig struct {
	Workers                  int `toml:"workers"`
	ChunkWindowWords         int `toml:"chunk_window_words"`
	ChunkOverlapWords        int `toml:"chunk_overlap_words"`
	MaxErrorCount            int `toml:"max_error_count"`
	QueuePollIntervalSeconds int `toml:"queue_poll_interval_seconds"`
	RetryCheckSeconds        int `toml:"retry_check_seconds"`
	RetryBaseDelaySeconds    int `toml:"retry_base_delay_seconds"`
	RetryMaxDelaySeconds     int `toml:"retry_max_delay_seconds"`
	StaleReclaimMinutes      int `toml:"stale_reclaim_minutes"`
}

// APIConfig controls the daemon's HTTP listener. An empty token disables
// authentication, which is fine for the default loopback bind.
type APIConfig struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// LoggingConfig selects log verbosity and output format.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// LLMConfig is the subset of settings the chat-completions client needs.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	Temperature    float64
}

// Load reads configuration from the supplied path, or from the default
// locations when path is empty. It returns the effective config, the path it
// resolved, and whether a config file actually existed; defaults are applied
// either way.
func Load(path string) (*Config, string, bool, error) {
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	exists := false

	if resolved != "" {
		data, readErr := os.ReadFile(resolved)
		switch {
		case readErr == nil:
			exists = true
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, resolved, true, fmt.Errorf("parse config %s: %w", resolved, err)
			}
		case os.IsNotExist(readErr):
			// Fall through with defaults.
		default:
			return nil, resolved, false, fmt.Errorf("read config %s: %w", resolved, readErr)
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, resolved, exists, err
	}
	return cfg, resolved, exists, nil
}

// resolveConfigPath picks the config file location: an explicit path wins,
// then ~/.config/sermon-hub/config.toml, then ./sermonhub.toml.
func resolveConfigPath(path string) (string, error) {
	if strings.TrimSpace(path) != "" {
		return expandPath(path)
	}

	if defaultPath, err := DefaultConfigPath(); err == nil {
		if _, statErr := os.Stat(defaultPath); statErr == nil {
			return defaultPath, nil
		}
	}

	local := "sermonhub.toml"
	if _, err := os.Stat(local); err == nil {
		abs, absErr := filepath.Abs(local)
		if absErr != nil {
			return local, nil
		}
		return abs, nil
	}

	return DefaultConfigPath()
}

// DefaultConfigPath returns ~/.config/sermon-hub/config.toml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".config", "sermon-hub", "config.toml"), nil
}

// expandPath resolves ~ prefixes and returns an absolute path.
func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}

	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand path %s: %w", path, err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}

	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}
	return abs, nil
}

// ExpandPath is the exported form used by CLI flags that accept paths.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// DatabasePath returns the catalog SQLite file location under the data dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "catalog.db")
}

// ExpansionLLM assembles the chat client settings for query expansion.
func (c *Config) ExpansionLLM() LLMConfig {
	return LLMConfig{
		APIKey:         c.Expansion.APIKey,
		BaseURL:        c.Expansion.BaseURL,
		Model:          c.Expansion.Model,
		Referer:        "https://github.com/chukwujekwu-code/sermon-hub",
		Title:          "Sermon Hub Query Expansion",
		TimeoutSeconds: c.Expansion.TimeoutSeconds,
		Temperature:    c.Expansion.Temperature,
	}
}

// RequestTimeout returns the YouTube HTTP client timeout as a duration.
func (c *YouTubeConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the per-request embeddings timeout as a duration.
func (c *EmbeddingsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// EnsureDirectories creates every directory the daemon writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.LogDir,
		c.Paths.AudioDir,
		c.Paths.TranscriptDir,
		c.Paths.VectorDir,
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes the annotated sample config to the supplied path,
// refusing to overwrite an existing file.
func CreateSample(path string) error {
	resolved, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(resolved); statErr == nil {
		return fmt.Errorf("config file already exists at %s", resolved)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(resolved, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
