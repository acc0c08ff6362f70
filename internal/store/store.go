// Package store persists the embedding cache across restarts. Persistence
// is an optimization only: the bridge is correct with no store configured,
// it just re-embeds the schema on startup.
package store

import "context"

// Store holds embedding vectors keyed by (model, schema hash, entry key).
// A schema hash change invalidates nothing explicitly; stale rows are
// simply never read again.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	GetEmbeddings(ctx context.Context, model, schemaHash string) (map[string][]float32, error)
	PutEmbeddings(ctx context.Context, model, schemaHash string, vectors map[string][]float32) error
}
