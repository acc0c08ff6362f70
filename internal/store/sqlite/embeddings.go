package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
)

func (c *Client) GetEmbeddings(ctx context.Context, model, schemaHash string) (map[string][]float32, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT entry_key, vector FROM embeddings
	WHERE model = ? AND schema_hash = ?`, model, schemaHash)
	if err != nil {
		return nil, fmt.Errorf("reading embeddings: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]float32)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scanning embedding row: %w", err)
		}
		var vec []float32
		if err := json.Unmarshal([]byte(raw), &vec); err != nil {
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

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("writing embeddings: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for key, vec := range vectors {
		raw, err := json.Marshal(vec)
		if err != nil {
			return fmt.Errorf("encoding embedding for %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO embeddings (model, schema_hash, entry_key, vector)
		VALUES (?, ?, ?, ?)`, model, schemaHash, key, string(raw)); err != nil {
			return fmt.Errorf("writing embedding for %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("writing embeddings: %w", err)
	}
	return nil
}
