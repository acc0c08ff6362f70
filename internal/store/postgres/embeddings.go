package postgres

import (
	"context"
	"encoding/json"
	"fmt"
)

func (c *Client) GetEmbeddings(ctx context.Context, model, schemaHash string) (map[string][]float32, error) {
	rows, err := c.pool.Query(ctx, `
	SELECT entry_key, vector FROM embeddings
	WHERE model = $1 AND schema_hash = $2`, model, schemaHash)
	if err != nil {
		return nil, fmt.Errorf("reading embeddings: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]float32)
	for rows.Next() {
		var key string
		var raw []byte
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scanning embedding row: %w", err)
		}
		var vec []float32
		if err := json.Unmarshal(raw, &vec); err != nil {
			return nil, fmt.Errorf("decoding embedding for %s: %w", key, err)
		}
		out[key] = vec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading embeddings: %w", err)
	}
	return out, nil
}

func (c *Client) PutEmbeddings(ctx context.Context, model, schemaHash string, vectors map[string][]float32) error {
	if len(vectors) == 0 {
		return nil
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("writing embeddings: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for key, vec := range vectors {
		raw, err := json.Marshal(vec)
		if err != nil {
			return fmt.Errorf("encoding embedding for %s: %w", key, err)
		}
		if _, err := tx.Exec(ctx, `
		INSERT INTO embeddings (model, schema_hash, entry_key, vector)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (model, schema_hash, entry_key) DO UPDATE SET vector = EXCLUDED.vector`,
			model, schemaHash, key, raw); err != nil {
			return fmt.Errorf("writing embedding for %s: %w", key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("writing embeddings: %w", err)
	}
	return nil
}
