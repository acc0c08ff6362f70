package embed

import (
	"context"
	"testing"

	"gqlbridge/internal/fault"
	"gqlbridge/internal/graphql"
)

type failingEmbedder struct {
	calls int
}

func (f *failingEmbedder) Model() string { return "failing" }

func (f *failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, fault.New(fault.EmbeddingUnavailable, "provider down")
}

func (f *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	return nil, fault.New(fault.EmbeddingUnavailable, "provider down")
}

type countingStore struct {
	gets, puts int
	vectors    map[string][]float32
}

func (s *countingStore) Close(ctx context.Context) error        { return nil }
func (s *countingStore) EnsureSchema(ctx context.Context) error { return nil }

func (s *countingStore) GetEmbeddings(ctx context.Context, model, hash string) (map[string][]float32, error) {
	s.gets++
	return s.vectors, nil
}

func (s *countingStore) PutEmbeddings(ctx context.Context, model, hash string, vectors map[string][]float32) error {
	s.puts++
	if s.vectors == nil {
		s.vectors = map[string][]float32{}
	}
	for k, v := range vectors {
		s.vectors[k] = v
	}
	return nil
}

func snapshotFixture() *graphql.Snapshot {
	store := graphql.NewSnapshotStore()
	s := graphql.NewSchema("Query", "")
	s.Add(&graphql.TypeNode{Name: "Query", Kind: graphql.KindObject, Fields: []graphql.FieldNode{
		{Name: "agency", Owner: "Query", Type: graphql.TypeRef{Name: "Agency"}},
	}})
	s.Add(&graphql.TypeNode{Name: "Agency", Kind: graphql.KindObject, Fields: []graphql.FieldNode{
		{Name: "name", Owner: "Agency", Type: graphql.TypeRef{Name: "String"}},
	}})
	return store.Replace(s)
}

func TestCacheEmbedsOnce(t *testing.T) {
	ctx := context.Background()
	snap := snapshotFixture()
	cache := NewCache(NewMock("mock", 16), nil)

	first, err := cache.Entries(ctx, snap)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(first))
	}
	for _, e := range first {
		if e.Embedding == nil {
			t.Fatalf("entry %s has no embedding", e.Key())
		}
	}

	second, err := cache.Entries(ctx, snap)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if &first[0] != &second[0] {
		t.Fatalf("expected memoized slice on second call")
	}
}

func TestCacheDegradesWhenProviderDown(t *testing.T) {
	ctx := context.Background()
	snap := snapshotFixture()
	provider := &failingEmbedder{}
	cache := NewCache(provider, nil)

	entries, err := cache.Entries(ctx, snap)
	if !fault.Is(err, fault.EmbeddingUnavailable) {
		t.Fatalf("expected EmbeddingUnavailable, got %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries must still be returned for lexical fallback, got %d", len(entries))
	}

	// Next call retries the provider instead of memoizing the failure.
	_, _ = cache.Entries(ctx, snap)
	if provider.calls != 2 {
		t.Fatalf("expected retry on next call, got %d calls", provider.calls)
	}
}

type failOnceEmbedder struct {
	mock  *Mock
	calls int
}

func (f *failOnceEmbedder) Model() string { return f.mock.Model() }

func (f *failOnceEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.mock.Embed(ctx, text)
}

func (f *failOnceEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.calls == 1 {
		return nil, fault.New(fault.EmbeddingUnavailable, "provider down")
	}
	return f.mock.EmbedBatch(ctx, texts)
}

func TestCacheRetryNeverMutatesDegradedSlice(t *testing.T) {
	ctx := context.Background()
	snap := snapshotFixture()
	cache := NewCache(&failOnceEmbedder{mock: NewMock("mock", 16)}, nil)

	degraded, err := cache.Entries(ctx, snap)
	if !fault.Is(err, fault.EmbeddingUnavailable) {
		t.Fatalf("expected EmbeddingUnavailable, got %v", err)
	}

	// A lexical-fallback session keeps reading its vector-less entries
	// while another session's call retries the provider.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			for j := range degraded {
				if degraded[j].Embedding != nil {
					t.Errorf("degraded entry %s grew an embedding in place", degraded[j].Key())
					return
				}
			}
		}
	}()

	retried, err := cache.Entries(ctx, snap)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	<-done

	for _, e := range retried {
		if e.Embedding == nil {
			t.Fatalf("retried entry %s has no embedding", e.Key())
		}
	}
	for _, e := range degraded {
		if e.Embedding != nil {
			t.Fatalf("retry wrote into the previously returned slice")
		}
	}
}

func TestCachePersistence(t *testing.T) {
	ctx := context.Background()
	snap := snapshotFixture()
	persisted := &countingStore{}

	first := NewCache(NewMock("mock", 16), persisted)
	if _, err := first.Entries(ctx, snap); err != nil {
		t.Fatalf("entries: %v", err)
	}
	if persisted.puts != 1 {
		t.Fatalf("expected one write-through, got %d", persisted.puts)
	}

	// A fresh cache over the same store finds everything persisted and
	// never calls the provider.
	second := NewCache(&failingEmbedder{}, persisted)
	entries, err := second.Entries(ctx, snap)
	if err != nil {
		t.Fatalf("entries should come from the persisted cache: %v", err)
	}
	for _, e := range entries {
		if e.Embedding == nil {
			t.Fatalf("entry %s not loaded from store", e.Key())
		}
	}
}

func TestMockDeterminism(t *testing.T) {
	ctx := context.Background()
	mock := NewMock("mock", 32)
	a, _ := mock.Embed(ctx, "refund policy")
	b, _ := mock.Embed(ctx, "refund policy")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("mock embeddings are not deterministic")
		}
	}
	if sim := Cosine(a, b); sim < 0.999 {
		t.Fatalf("self similarity should be 1, got %f", sim)
	}
}

func TestLexicalScore(t *testing.T) {
	doc := "CancellationPolicy.refundableUntilHours: refundableUntilHours: [Int!]"
	if LexicalScore("refundable hours", doc) <= LexicalScore("room amenities", doc) {
		t.Fatalf("lexical scoring should prefer overlapping tokens")
	}
	if LexicalScore("", doc) != 0 {
		t.Fatalf("empty query scores zero")
	}
}
