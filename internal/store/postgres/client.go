package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"gqlbridge/internal/store"
)

var _ store.Store = (*Client)(nil)

type Client struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*Client, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{pool: pool}, nil
}

func (c *Client) Close(ctx context.Context) error {
	c.pool.Close()
	return nil
}

func (c *Client) EnsureSchema(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS embeddings (
		model       TEXT NOT NULL,
		schema_hash TEXT NOT NULL,
		entry_key   TEXT NOT NULL,
		vector      JSONB NOT NULL,
		PRIMARY KEY (model, schema_hash, entry_key)
	)`)
	if err != nil {
		return fmt.Errorf("ensuring embeddings table: %w", err)
	}
	return nil
}
