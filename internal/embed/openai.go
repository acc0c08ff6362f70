package embed

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms/openai"

	"gqlbridge/internal/fault"
)

func errUnknownProvider(name string) error {
	return fmt.Errorf("unknown embedding provider %q, must be openai or mock", name)
}

// openAI embeds via the OpenAI embeddings API.
type openAI struct {
	llm     *openai.LLM
	model   string
	timeout time.Duration
}

var _ Embedder = (*openAI)(nil)

func newOpenAI(cfg Config) (*openAI, error) {
	opts := []openai.Option{openai.WithEmbeddingModel(cfg.Model)}
	if cfg.APIKey != "" {
		opts = append(opts, openai.WithToken(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai embedder: %w", err)
	}
	return &openAI{
		llm:     llm,
		model:   cfg.Model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

func (o *openAI) Model() string { return o.model }

func (o *openAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := o.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (o *openAI) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	vecs, err := o.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fault.Wrap(fault.EmbeddingUnavailable, err, "embedding %d texts with %s", len(texts), o.model)
	}
	if len(vecs) != len(texts) {
		return nil, fault.New(fault.EmbeddingUnavailable, "provider returned %d vectors for %d texts", len(vecs), len(texts))
	}
	return vecs, nil
}
