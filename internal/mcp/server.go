// Package mcp bridges the exploration strategies onto the Model Context
// Protocol. Every client session gets its own server instance whose tool
// set grows as the session explores; the shared schema snapshot and
// embedding cache sit behind all of them.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"gqlbridge/internal/dispatch"
	"gqlbridge/internal/embed"
	"gqlbridge/internal/explore"
	"gqlbridge/internal/graphql"
	"gqlbridge/internal/metric"
)

type Options struct {
	Version   string
	Strategy  explore.Strategy
	Client    *graphql.Client
	Snapshots *graphql.SnapshotStore

	// Cache is required for the agentic strategy, unused otherwise.
	Cache     *embed.Cache
	TopK      int
	Constrain bool

	// Timeout bounds each origin attempt during tool dispatch.
	Timeout time.Duration

	Metrics *metric.Metrics
	Logger  *slog.Logger
}

type Server struct {
	version  string
	strategy explore.Strategy
	client   *graphql.Client
	snaps    *graphql.SnapshotStore

	disp      *dispatch.Dispatcher
	discovery *explore.Discovery
	full      *explore.FullSchema
	agentic   *explore.Agentic

	metrics *metric.Metrics
	log     *slog.Logger
}

func NewServer(opts Options) (*Server, error) {
	if opts.Strategy == explore.StrategyAgentic && opts.Cache == nil {
		return nil, fmt.Errorf("agentic strategy requires an embedding cache")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = metric.New()
	}
	s := &Server{
		version:   opts.Version,
		strategy:  opts.Strategy,
		client:    opts.Client,
		snaps:     opts.Snapshots,
		disp:      dispatch.New(opts.Client, opts.Timeout, log),
		discovery: explore.NewDiscovery(opts.Snapshots, opts.Client),
		full:      explore.NewFullSchema(opts.Snapshots),
		metrics:   metrics,
		log:       log,
	}
	if opts.Cache != nil {
		s.agentic = explore.NewAgentic(opts.Snapshots, opts.Cache, opts.TopK, opts.Constrain)
	}
	return s, nil
}

// Refresh re-introspects the origin and atomically replaces the shared
// snapshot. In-flight sessions keep their exposure and pick up the new
// snapshot on their next expansion or discovery call.
func (s *Server) Refresh(ctx context.Context) error {
	schema, err := s.client.IntrospectSchema(ctx)
	if err != nil {
		return err
	}
	snap := s.snaps.Replace(schema)
	s.metrics.SchemaRefreshes.Inc()
	s.log.Info("schema snapshot refreshed", "version", snap.Version, "hash", snap.Hash())
	return nil
}

// RefreshLoop re-introspects on a fixed interval until the context ends.
// A failed refresh keeps serving the previous snapshot.
func (s *Server) RefreshLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.log.Warn("schema refresh failed, keeping current snapshot", "err", err)
			}
		}
	}
}

// Run serves a single session over stdio, the transport desktop MCP
// clients speak.
func (s *Server) Run(ctx context.Context) error {
	return s.newSession().mcp.Run(ctx, &sdk.StdioTransport{})
}

// Handler serves the network transports: streamable HTTP at /mcp, SSE at
// /sse, plus health and metrics endpoints. Each connection becomes its
// own session.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", sdk.NewStreamableHTTPHandler(func(*http.Request) *sdk.Server {
		return s.newSession().mcp
	}, nil))
	mux.Handle("/sse", sdk.NewSSEHandler(func(*http.Request) *sdk.Server {
		return s.newSession().mcp
	}, nil))
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (s *Server) instructions() string {
	switch s.strategy {
	case explore.StrategyFullSchema:
		return "This server bridges a GraphQL API. Call get-graphql-schema once to " +
			"see the full schema, then use execute-query to run operations against it."
	case explore.StrategyAgentic:
		return "This server bridges a GraphQL API. Describe what you need to " +
			"discover-fields to find the relevant schema fields, then use " +
			"execute-query to fetch the data."
	default:
		return "This server bridges a GraphQL API, revealed incrementally. Start " +
			"with expand-query to see the root fields; expanding a type registers " +
			"tools for querying it. Expand the types you need before querying."
	}
}
