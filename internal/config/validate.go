package config

import (
	"fmt"
	"maps"
	"net"
	"slices"
	"strings"
)

// Validate checks the normalized configuration and reports every problem at
// once so users can fix a config file in a single pass.
func (c *Config) Validate() error {
	var problems []string

	problems = append(problems, c.Paths.validate()...)
	problems = append(problems, c.YouTube.validate()...)
	problems = append(problems, c.Whisper.validate()...)
	problems = append(problems, c.Embeddings.validate()...)
	problems = append(problems, c.Expansion.validate()...)
	problems = append(problems, c.Search.validate()...)
	problems = append(problems, c.Workflow.validate()...)
	problems = append(problems, c.API.validate()...)
	problems = append(problems, c.Logging.validate()...)

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (p *PathsConfig) validate() []string {
	var problems []string
	if strings.TrimSpace(p.DataDir) == "" {
		problems = append(problems, "paths.data_dir is required")
	}
	if strings.TrimSpace(p.LogDir) == "" {
		problems = append(problems, "paths.log_dir is required")
	}
	if strings.TrimSpace(p.AudioDir) == "" {
		problems = append(problems, "paths.audio_dir is required")
	}
	if strings.TrimSpace(p.TranscriptDir) == "" {
		problems = append(problems, "paths.transcript_dir is required")
	}
	if strings.TrimSpace(p.VectorDir) == "" {
		problems = append(problems, "paths.vector_dir is required")
	}
	return problems
}

func (y *YouTubeConfig) validate() []string {
	problems := ensurePositiveMap("youtube", map[string]int{
		"min_video_duration_minutes": y.MinVideoDurationMinutes,
		"request_timeout_seconds":    y.RequestTimeoutSeconds,
	})
	if y.DownloadDelaySeconds < 0 {
		problems = append(problems, "youtube.download_delay_seconds must not be negative")
	}
	if strings.TrimSpace(y.YtDlpBinary) == "" {
		problems = append(problems, "youtube.yt_dlp_binary is required")
	}
	return problems
}

func (w *WhisperConfig) validate() []string {
	problems := ensurePositiveMap("whisper", map[string]int{
		"timeout_minutes": w.TimeoutMinutes,
	})
	if strings.TrimSpace(w.Binary) == "" {
		problems = append(problems, "whisper.binary is required")
	}
	if strings.TrimSpace(w.Model) == "" {
		problems = append(problems, "whisper.model is required")
	}
	return problems
}

func (e *EmbeddingsConfig) validate() []string {
	problems := ensurePositiveMap("embeddings", map[string]int{
		"dimensions":      e.Dimensions,
		"batch_size":      e.BatchSize,
		"timeout_seconds": e.TimeoutSeconds,
	})
	if strings.TrimSpace(e.BaseURL) == "" {
		problems = append(problems, "embeddings.base_url is required")
	}
	if strings.TrimSpace(e.Model) == "" {
		problems = append(problems, "embeddings.model is required")
	}
	return problems
}

func (e *ExpansionConfig) validate() []string {
	problems := ensurePositiveMap("expansion", map[string]int{
		"timeout_seconds": e.TimeoutSeconds,
	})
	if strings.TrimSpace(e.BaseURL) == "" {
		problems = append(problems, "expansion.base_url is required")
	}
	if strings.TrimSpace(e.Model) == "" {
		problems = append(problems, "expansion.model is required")
	}
	if e.Phrases < 3 || e.Phrases > 5 {
		problems = append(problems, "expansion.phrases must be between 3 and 5")
	}
	if e.Temperature < 0 || e.Temperature > 2 {
		problems = append(problems, "expansion.temperature must be between 0 and 2")
	}
	return problems
}

func (s *SearchConfig) validate() []string {
	problems := ensurePositiveMap("search", map[string]int{
		"per_phrase_top_k": s.PerPhraseTopK,
		"default_limit":    s.DefaultLimit,
		"max_limit":        s.MaxLimit,
	})
	if s.MinRelevanceScore < 0 || s.MinRelevanceScore > 1 {
		problems = append(problems, "search.min_relevance_score must be between 0 and 1")
	}
	if s.MaxLimit > 0 && s.DefaultLimit > s.MaxLimit {
		problems = append(problems, "search.default_limit must not exceed search.max_limit")
	}
	return problems
}

func (w *WorkflowConfig) validate() []string {
	problems := ensurePositiveMap("workflow", map[string]int{
		"workers":                     w.Workers,
		"chunk_window_words":          w.ChunkWindowWords,
		"max_error_count":             w.MaxErrorCount,
		"queue_poll_interval_seconds": w.QueuePollIntervalSeconds,
		"retry_check_seconds":         w.RetryCheckSeconds,
		"retry_base_delay_seconds":    w.RetryBaseDelaySeconds,
		"retry_max_delay_seconds":     w.RetryMaxDelaySeconds,
		"stale_reclaim_minutes":       w.StaleReclaimMinutes,
	})
	if w.ChunkOverlapWords < 0 {
		problems = append(problems, "workflow.chunk_overlap_words must not be negative")
	}
	if w.ChunkOverlapWords >= w.ChunkWindowWords && w.ChunkWindowWords > 0 {
		problems = append(problems, "workflow.chunk_overlap_words must be smaller than workflow.chunk_window_words")
	}
	if w.RetryMaxDelaySeconds < w.RetryBaseDelaySeconds {
		problems = append(problems, "workflow.retry_max_delay_seconds must not be smaller than workflow.retry_base_delay_seconds")
	}
	return problems
}

func (a *APIConfig) validate() []string {
	var problems []string
	if strings.TrimSpace(a.Bind) == "" {
		problems = append(problems, "api.bind is required")
	} else if _, _, err := net.SplitHostPort(a.Bind); err != nil {
		problems = append(problems, fmt.Sprintf("api.bind must be host:port: %v", err))
	}
	return problems
}

func (l *LoggingConfig) validate() []string {
	var problems []string
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", l.Level))
	}
	switch l.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not one of console, json", l.Format))
	}
	return problems
}

// ensurePositiveMap reports every value in values that is not positive,
// keyed as section.name, in stable order.
func ensurePositiveMap(section string, values map[string]int) []string {
	var problems []string
	for _, name := range slices.Sorted(maps.Keys(values)) {
		if values[name] <= 0 {
			problems = append(problems, fmt.Sprintf("%s.%s must be positive", section, name))
		}
	}
	return problems
}
