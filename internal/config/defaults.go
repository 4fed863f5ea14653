package config

// Default returns the repository defaults. Paths derived from the data dir
// are left empty here and filled in during normalization so user overrides of
// data_dir propagate.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir: "~/.local/share/sermon-hub",
		},
		YouTube: YouTubeConfig{
			MinVideoDurationMinutes: 15,
			DownloadDelaySeconds:    2,
			YtDlpBinary:             "yt-dlp",
			RequestTimeoutSeconds:   30,
		},
		Whisper: WhisperConfig{
			Binary:         "whisper",
			Model:          "base",
			Language:       "en",
			TimeoutMinutes: 30,
		},
		Embeddings: EmbeddingsConfig{
			BaseURL:        "http://localhost:11434/v1",
			Model:          "nomic-embed-text",
			Dimensions:     768,
			BatchSize:      96,
			TimeoutSeconds: 60,
		},
		Expansion: ExpansionConfig{
			BaseURL:        "https://api.groq.com/openai/v1/chat/completions",
			Model:          "llama-3.3-70b-versatile",
			Phrases:        4,
			TimeoutSeconds: 10,
			Temperature:    0.4,
		},
		Search: SearchConfig{
			MinRelevanceScore: 0.35,
			PerPhraseTopK:     15,
			DefaultLimit:      10,
			MaxLimit:          50,
		},
		Workflow: WorkflowConfig{
			Workers:                  2,
			ChunkWindowWords:         500,
			ChunkOverlapWords:        50,
			MaxErrorCount:            3,
			QueuePollIntervalSeconds: 5,
			RetryCheckSeconds:        60,
			RetryBaseDelaySeconds:    120,
			RetryMaxDelaySeconds:     3600,
			StaleReclaimMinutes:      30,
		},
		API: APIConfig{
			Bind: "127.0.0.1:7710",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
