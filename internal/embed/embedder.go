// Package embed abstracts the embedding provider used to score schema
// fields against natural-language discovery queries.
package embed

import "context"

// Embedder generates embedding vectors from text. Implementations must be
// safe for concurrent use.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one round trip
	// where the provider supports it.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the name of the embedding model in use.
	Model() string
}

// Config selects and configures the embedding provider.
type Config struct {
	// Provider is "openai" or "mock".
	Provider string `yaml:"provider"`

	// Model is the embedding model, e.g. "text-embedding-3-small".
	Model string `yaml:"model"`

	// APIKey overrides the provider's environment variable lookup.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// TimeoutSeconds bounds each provider call. Embedding calls carry a
	// shorter timeout than origin calls so a slow provider degrades
	// discovery instead of stalling it.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Provider == "" {
		out.Provider = "openai"
	}
	if out.Model == "" {
		out.Model = "text-embedding-3-small"
	}
	if out.TimeoutSeconds <= 0 {
		out.TimeoutSeconds = 10
	}
	return out
}

// New builds the configured embedder.
func New(cfg Config) (Embedder, error) {
	cfg = cfg.withDefaults()
	switch cfg.Provider {
	case "openai":
		return newOpenAI(cfg)
	case "mock":
		return NewMock(cfg.Model, 64), nil
	default:
		return nil, errUnknownProvider(cfg.Provider)
	}
}
