package preflight

import (
	"context"
	"strings"

	"github.com/chukwujekwu-code/sermon-hub/internal/config"
)

// CheckEmbeddingsFromConfig evaluates embeddings endpoint status from config
// and connectivity.
func CheckEmbeddingsFromConfig(cfg *config.Config) Result {
	const name = "Embeddings API"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Embeddings.BaseURL) == "" {
		return Result{Name: name, Detail: "Missing URL"}
	}
	return CheckEmbeddingsAPI(context.Background(), cfg.Embeddings.BaseURL, cfg.Embeddings.APIKey)
}

// CheckExpansionFromConfig evaluates expansion LLM status from config and
// connectivity.
func CheckExpansionFromConfig(cfg *config.Config) Result {
	const name = "Expansion LLM"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if strings.TrimSpace(cfg.Expansion.BaseURL) == "" {
		return Result{Name: name, Detail: "Missing URL"}
	}
	if strings.TrimSpace(cfg.Expansion.APIKey) == "" {
		return Result{Name: name, Detail: "Missing API key"}
	}
	return CheckLLM(context.Background(), name, cfg.ExpansionLLM())
}
