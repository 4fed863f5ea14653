package config

import (
	"os"
	"path/filepath"
	"strings"
)

// normalize trims user input, applies environment fallbacks, derives
// dependent paths, and fills unset values with defaults. It never fails;
// anything still wrong afterwards is Validate's job.
func (c *Config) normalize() {
	c.Paths.normalize()
	c.YouTube.normalize()
	c.Whisper.normalize()
	c.Embeddings.normalize()
	c.Expansion.normalize()
	c.Search.normalize()
	c.Workflow.normalize()
	c.API.normalize()
	c.Logging.normalize()
}

func (p *PathsConfig) normalize() {
	p.DataDir = expandOrKeep(p.DataDir)
	if p.DataDir == "" {
		p.DataDir = expandOrKeep("~/.local/share/sermon-hub")
	}

	if strings.TrimSpace(p.LogDir) == "" {
		p.LogDir = filepath.Join(p.DataDir, "logs")
	}
	if strings.TrimSpace(p.AudioDir) == "" {
		p.AudioDir = filepath.Join(p.DataDir, "audio")
	}
	if strings.TrimSpace(p.TranscriptDir) == "" {
		p.TranscriptDir = filepath.Join(p.DataDir, "transcripts")
	}
	if strings.TrimSpace(p.VectorDir) == "" {
		p.VectorDir = filepath.Join(p.DataDir, "vectors")
	}

	p.LogDir = expandOrKeep(p.LogDir)
	p.AudioDir = expandOrKeep(p.AudioDir)
	p.TranscriptDir = expandOrKeep(p.TranscriptDir)
	p.VectorDir = expandOrKeep(p.VectorDir)
}

func (y *YouTubeConfig) normalize() {
	y.YtDlpBinary = strings.TrimSpace(y.YtDlpBinary)
	if y.YtDlpBinary == "" {
		y.YtDlpBinary = "yt-dlp"
	}
	if y.MinVideoDurationMinutes == 0 {
		y.MinVideoDurationMinutes = 15
	}
	if y.DownloadDelaySeconds == 0 {
		y.DownloadDelaySeconds = 2
	}
	if y.RequestTimeoutSeconds == 0 {
		y.RequestTimeoutSeconds = 30
	}
}

func (w *WhisperConfig) normalize() {
	w.Binary = strings.TrimSpace(w.Binary)
	if w.Binary == "" {
		w.Binary = "whisper"
	}
	w.Model = strings.TrimSpace(w.Model)
	if w.Model == "" {
		w.Model = "base"
	}
	w.Language = strings.TrimSpace(w.Language)
	if w.Language == "" {
		w.Language = "en"
	}
	if w.TimeoutMinutes == 0 {
		w.TimeoutMinutes = 30
	}
}

func (e *EmbeddingsConfig) normalize() {
	e.BaseURL = strings.TrimSpace(e.BaseURL)
	if e.BaseURL == "" {
		e.BaseURL = "http://localhost:11434/v1"
	}
	e.APIKey = fallbackEnv(e.APIKey, "EMBEDDINGS_API_KEY", "COHERE_API_KEY")
	e.Model = strings.TrimSpace(e.Model)
	if e.Model == "" {
		e.Model = "nomic-embed-text"
	}
	if e.Dimensions == 0 {
		e.Dimensions = 768
	}
	if e.BatchSize == 0 {
		e.BatchSize = 96
	}
	if e.TimeoutSeconds == 0 {
		e.TimeoutSeconds = 60
	}
}

func (e *ExpansionConfig) normalize() {
	e.BaseURL = strings.TrimSpace(e.BaseURL)
	if e.BaseURL == "" {
		e.BaseURL = "https://api.groq.com/openai/v1/chat/completions"
	}
	e.APIKey = fallbackEnv(e.APIKey, "EXPANSION_API_KEY", "GROQ_API_KEY")
	e.Model = strings.TrimSpace(e.Model)
	if e.Model == "" {
		e.Model = "llama-3.3-70b-versatile"
	}
	if e.Phrases == 0 {
		e.Phrases = 4
	}
	if e.Phrases < 3 {
		e.Phrases = 3
	}
	if e.Phrases > 5 {
		e.Phrases = 5
	}
	if e.TimeoutSeconds == 0 {
		e.TimeoutSeconds = 10
	}
	if e.Temperature == 0 {
		e.Temperature = 0.4
	}
}

func (s *SearchConfig) normalize() {
	if s.MinRelevanceScore == 0 {
		s.MinRelevanceScore = 0.35
	}
	if s.PerPhraseTopK == 0 {
		s.PerPhraseTopK = 15
	}
	if s.DefaultLimit == 0 {
		s.DefaultLimit = 10
	}
	if s.MaxLimit == 0 {
		s.MaxLimit = 50
	}
}

func (w *WorkflowConfig) normalize() {
	if w.Workers == 0 {
		w.Workers = 2
	}
	if w.ChunkWindowWords == 0 {
		w.ChunkWindowWords = 500
	}
	if w.ChunkOverlapWords == 0 {
		w.ChunkOverlapWords = 50
	}
	if w.MaxErrorCount == 0 {
		w.MaxErrorCount = 3
	}
	if w.QueuePollIntervalSeconds == 0 {
		w.QueuePollIntervalSeconds = 5
	}
	if w.RetryCheckSeconds == 0 {
		w.RetryCheckSeconds = 60
	}
	if w.RetryBaseDelaySeconds == 0 {
		w.RetryBaseDelaySeconds = 120
	}
	if w.RetryMaxDelaySeconds == 0 {
		w.RetryMaxDelaySeconds = 3600
	}
	if w.StaleReclaimMinutes == 0 {
		w.StaleReclaimMinutes = 30
	}
}

func (a *APIConfig) normalize() {
	a.Bind = strings.TrimSpace(a.Bind)
	if a.Bind == "" {
		a.Bind = "127.0.0.1:7710"
	}
	a.Token = strings.TrimSpace(a.Token)
}

func (l *LoggingConfig) normalize() {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if l.Level == "" {
		l.Level = "info"
	}
	l.Format = strings.ToLower(strings.TrimSpace(l.Format))
	if l.Format == "" {
		l.Format = "console"
	}
}

// fallbackEnv returns the trimmed current value, or the first non-empty
// environment variable from keys.
func fallbackEnv(current string, keys ...string) string {
	if trimmed := strings.TrimSpace(current); trimmed != "" {
		return trimmed
	}
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

// expandOrKeep expands tilde prefixes, returning the trimmed original when
// expansion fails so validation can report it.
func expandOrKeep(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return strings.TrimSpace(path)
	}
	return expanded
}
