package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"gqlbridge/internal/config"
	"gqlbridge/internal/embed"
	"gqlbridge/internal/explore"
	"gqlbridge/internal/graphql"
	"gqlbridge/internal/mcp"
)

type serveFlags struct {
	configPath string
	transport  string
	addr       string
	endpoint   string
	strategy   string
}

func serveCmd() *cobra.Command {
	var flags serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "gqlbridge.yaml", "path to the config file")
	cmd.Flags().StringVar(&flags.transport, "transport", "stdio", "stdio or http")
	cmd.Flags().StringVar(&flags.addr, "addr", "", "HTTP listen address, overrides the config file")
	cmd.Flags().StringVar(&flags.endpoint, "endpoint", "", "origin endpoint, overrides the config file")
	cmd.Flags().StringVar(&flags.strategy, "strategy", "", "discovery, fullschema or agentic, overrides the config file")
	return cmd
}

func runServe(ctx context.Context, flags serveFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	if flags.endpoint != "" {
		cfg.Endpoint = flags.endpoint
	}
	if flags.addr != "" {
		cfg.Bind = flags.addr
	}
	if flags.strategy != "" {
		cfg.Strategy = flags.strategy
	}
	strategy, err := explore.ParseStrategy(cfg.Strategy)
	if err != nil {
		return err
	}

	client := graphql.NewClient(cfg.Endpoint, graphql.WithHeaders(cfg.Headers))
	schema, err := client.IntrospectSchema(ctx)
	if err != nil {
		return err
	}
	snaps := graphql.NewSnapshotStore()
	snap := snaps.Replace(schema)
	slog.Info("origin schema introspected",
		"endpoint", cfg.Endpoint,
		"types", len(schema.TypeNames()),
		"hash", snap.Hash())

	var cache *embed.Cache
	if strategy == explore.StrategyAgentic {
		var cleanup func()
		cache, cleanup, err = openCache(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()
	}

	server, err := mcp.NewServer(mcp.Options{
		Version:   version,
		Strategy:  strategy,
		Client:    client,
		Snapshots: snaps,
		Cache:     cache,
		TopK:      cfg.Discover.TopK,
		Constrain: cfg.Discover.Constrained(),
		Timeout:   cfg.OriginTimeout(),
		Logger:    slog.Default(),
	})
	if err != nil {
		return err
	}
	if interval := cfg.RefreshInterval(); interval > 0 {
		go server.RefreshLoop(ctx, interval)
	}

	switch flags.transport {
	case "stdio":
		return server.Run(ctx)
	case "http":
		slog.Info("listening", "addr", cfg.Bind, "strategy", string(strategy))
		httpServer := &http.Server{Addr: cfg.Bind, Handler: server.Handler()}
		return httpServer.ListenAndServe()
	}
	return fmt.Errorf("unknown transport %q (want stdio or http)", flags.transport)
}
