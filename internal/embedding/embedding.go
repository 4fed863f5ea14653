package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/chukwujekwu-code/sermon-hub/internal/config"
	"github.com/chukwujekwu-code/sermon-hub/internal/services"
)

// Embedder generates vector embeddings for batches of text. Implementations
// must be safe for concurrent use and must return unit-length vectors in
// input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// Client implements Embedder against an OpenAI-compatible endpoint.
type Client struct {
	embedder embeddings.Embedder
	cfg      config.EmbeddingsConfig
	logger   *slog.Logger
}

var _ Embedder = (*Client)(nil)

// New builds a Client from the embeddings configuration. Local endpoints
// such as Ollama accept any token, so an empty api_key becomes "none".
func New(cfg config.EmbeddingsConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}

	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("build embeddings client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(
		client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(cfg.BatchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("wrap embeddings client: %w", err)
	}

	return &Client{
		embedder: embedder,
		cfg:      cfg,
		logger:   logger.With("component", "embedder"),
	}, nil
}

// Dimensions returns the configured vector dimensionality.
func (c *Client) Dimensions() int {
	return c.cfg.Dimensions
}

// EmbedTexts embeds every input text and returns unit vectors in input
// order. The response is checked against the input count and the configured
// dimensionality before anything is returned.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if timeout := c.cfg.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	c.logger.Debug("embedding texts", "count", len(texts), "model", c.cfg.Model)

	vectors, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "embedding", "embed texts", c.cfg.BaseURL, err)
		}
		return nil, services.Wrap(services.ErrUnavailable, "embedding", "embed texts", c.cfg.BaseURL, err)
	}
	if len(vectors) != len(texts) {
		return nil, services.Wrap(
			services.ErrTransient,
			"embedding",
			"embed texts",
			fmt.Sprintf("endpoint returned %d vectors for %d inputs", len(vectors), len(texts)),
			nil,
		)
	}
	for i, vector := range vectors {
		if len(vector) != c.cfg.Dimensions {
			return nil, services.Wrap(
				services.ErrTransient,
				"embedding",
				"embed texts",
				fmt.Sprintf("vector %d has %d dimensions, expected %d", i, len(vector), c.cfg.Dimensions),
				nil,
			)
		}
		vectors[i] = Normalize(vector)
	}
	return vectors, nil
}

// Normalize scales a vector to unit length. A zero vector stays zero, which
// keeps dot products against it at zero instead of NaN.
func Normalize(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}
	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}
