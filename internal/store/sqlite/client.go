package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gqlbridge/internal/store"

	_ "modernc.org/sqlite"
)

var _ store.Store = (*Client)(nil)

type Client struct {
	db *sql.DB
}

func New(ctx context.Context, dsn string) (*Client, error) {
	path, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite store: %w", err)
	}

	return &Client{db: db}, nil
}

func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *Client) EnsureSchema(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS embeddings (
		model       TEXT NOT NULL,
		schema_hash TEXT NOT NULL,
		entry_key   TEXT NOT NULL,
		vector      TEXT NOT NULL,
		PRIMARY KEY (model, schema_hash, entry_key)
	)`)
	if err != nil {
		return fmt.Errorf("ensuring embeddings table: %w", err)
	}
	return nil
}
