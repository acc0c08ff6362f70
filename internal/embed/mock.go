package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// Mock is a deterministic offline embedder: token hashes are folded into a
// fixed-length vector, so identical texts embed identically and texts
// sharing tokens are cosine-similar. Useful in tests and for running the
// agentic strategy without a provider.
type Mock struct {
	model string
	dims  int
}

var _ Embedder = (*Mock)(nil)

func NewMock(model string, dims int) *Mock {
	if model == "" {
		model = "mock"
	}
	if dims <= 0 {
		dims = 64
	}
	return &Mock{model: model, dims: dims}
}

func (m *Mock) Model() string { return m.model }

func (m *Mock) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, m.dims)
	for _, tok := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(m.dims)]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

func (m *Mock) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return false
		}
		return true
	})
}
