package main

import (
	"context"
	"fmt"
	"strings"

	"gqlbridge/internal/config"
	"gqlbridge/internal/embed"
	"gqlbridge/internal/store"
	"gqlbridge/internal/store/postgres"
	"gqlbridge/internal/store/sqlite"
)

// openCache builds the embedding cache for agentic discovery, optionally
// backed by a persistent store selected by the DSN scheme.
func openCache(ctx context.Context, cfg *config.Config) (*embed.Cache, func(), error) {
	embedder, err := embed.New(cfg.Embedder)
	if err != nil {
		return nil, nil, err
	}

	var persist store.Store
	switch {
	case cfg.CacheDSN == "":
	case strings.HasPrefix(cfg.CacheDSN, "sqlite://"):
		persist, err = sqlite.New(ctx, cfg.CacheDSN)
	case strings.HasPrefix(cfg.CacheDSN, "postgres://"), strings.HasPrefix(cfg.CacheDSN, "postgresql://"):
		persist, err = postgres.New(ctx, cfg.CacheDSN)
	default:
		return nil, nil, fmt.Errorf("unsupported cache DSN %q", cfg.CacheDSN)
	}
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	if persist != nil {
		if err := persist.EnsureSchema(ctx); err != nil {
			_ = persist.Close(ctx)
			return nil, nil, err
		}
		db := persist
		cleanup = func() { _ = db.Close(context.Background()) }
	}
	return embed.NewCache(embedder, persist), cleanup, nil
}
