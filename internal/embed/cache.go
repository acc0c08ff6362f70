package embed

import (
	"context"
	"sync"

	"gqlbridge/internal/flatten"
	"gqlbridge/internal/graphql"
	"gqlbridge/internal/store"
)

const batchSize = 64

// Cache memoizes the flattened, embedded entry set for the current schema
// snapshot. Entries are shared read-only across sessions; a snapshot
// replacement invalidates and regenerates them before the next use.
type Cache struct {
	embedder Embedder
	persist  store.Store // optional, may be nil

	mu       sync.Mutex
	version  uint64
	entries  []flatten.Entry
	embedded bool
}

func NewCache(embedder Embedder, persist store.Store) *Cache {
	return &Cache{embedder: embedder, persist: persist}
}

// Entries returns the flattened entries for snap with embeddings filled
// in. When the provider is unreachable the entries are still returned,
// without vectors, alongside an EmbeddingUnavailable error so callers can
// degrade to lexical scoring; the next call retries embedding.
func (c *Cache) Entries(ctx context.Context, snap *graphql.Snapshot) ([]flatten.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.version != snap.Version || c.entries == nil {
		c.entries = flatten.Flatten(snap.Schema)
		c.version = snap.Version
		c.embedded = false
	}
	if c.embedded {
		return c.entries, nil
	}

	// Embeddings are filled into a private copy: a degraded earlier call
	// may still be reading the slice it was handed, so the shared slice is
	// replaced under the lock, never written in place.
	work := make([]flatten.Entry, len(c.entries))
	copy(work, c.entries)

	persisted := c.loadPersisted(ctx, snap)
	var missing []int
	for i := range work {
		if vec, ok := persisted[work[i].Key()]; ok {
			work[i].Embedding = vec
		}
		if work[i].Embedding == nil {
			missing = append(missing, i)
		}
	}

	fresh := make(map[string][]float32)
	for start := 0; start < len(missing); start += batchSize {
		end := min(start+batchSize, len(missing))
		texts := make([]string, 0, end-start)
		for _, idx := range missing[start:end] {
			texts = append(texts, work[idx].EmbedText())
		}
		vecs, err := c.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			c.entries = work
			return work, err
		}
		for j, idx := range missing[start:end] {
			work[idx].Embedding = vecs[j]
			fresh[work[idx].Key()] = vecs[j]
		}
	}

	c.storePersisted(ctx, snap, fresh)
	c.entries = work
	c.embedded = true
	return work, nil
}

// Embed proxies single-text embedding through the same provider, so query
// embeddings match the corpus.
func (c *Cache) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.embedder.Embed(ctx, text)
}

func (c *Cache) loadPersisted(ctx context.Context, snap *graphql.Snapshot) map[string][]float32 {
	if c.persist == nil {
		return nil
	}
	vectors, err := c.persist.GetEmbeddings(ctx, c.embedder.Model(), snap.Hash())
	if err != nil {
		// The persisted cache is an optimization; a broken store never
		// blocks embedding.
		return nil
	}
	return vectors
}

func (c *Cache) storePersisted(ctx context.Context, snap *graphql.Snapshot, vectors map[string][]float32) {
	if c.persist == nil || len(vectors) == 0 {
		return
	}
	_ = c.persist.PutEmbeddings(ctx, c.embedder.Model(), snap.Hash(), vectors)
}
