package preflight

import (
	"context"

	"github.com/chukwujekwu-code/sermon-hub/internal/config"
)

// Result reports the outcome of a single preflight check. Optional marks
// checks whose failure should not stop the daemon from starting.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// Fatal reports whether this result blocks daemon startup.
func (r Result) Fatal() bool {
	return !r.Passed && !r.Optional
}

// RunAll executes every preflight check for the given config: directory
// access, external binaries, and API endpoint reachability.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Working directories (created by the daemon before this runs)
	results = append(results,
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Audio directory", cfg.Paths.AudioDir),
		CheckDirectoryAccess("Transcript directory", cfg.Paths.TranscriptDir),
		CheckDirectoryAccess("Vector directory", cfg.Paths.VectorDir),
	)

	// External binaries the pipeline stages shell out to
	results = append(results, CheckSystemDeps(cfg)...)

	// Unreachable endpoints warn instead of blocking startup; the retry
	// scheduler resumes records once the endpoint recovers.
	embeddings := CheckEmbeddingsAPI(ctx, cfg.Embeddings.BaseURL, cfg.Embeddings.APIKey)
	embeddings.Optional = true
	results = append(results, embeddings)

	expansion := CheckLLM(ctx, "Expansion LLM", cfg.ExpansionLLM())
	expansion.Optional = true
	results = append(results, expansion)

	return results
}
