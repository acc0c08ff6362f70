package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"gqlbridge/internal/dispatch"
	"gqlbridge/internal/explore"
	"gqlbridge/internal/fault"
	"gqlbridge/internal/registry"
)

// dispatch routes one tool call, records metrics and turns faults into
// error results the client can read. Protocol errors are reserved for the
// transport; everything the bridge itself rejects comes back as text.
func (sess *session) dispatch(ctx context.Context, d *registry.Descriptor, args map[string]any) (*sdk.CallToolResult, error) {
	start := time.Now()
	res, err := sess.call(ctx, d, args)

	outcome := "ok"
	if err != nil {
		if kind := fault.KindOf(err); kind != "" {
			outcome = string(kind)
		} else {
			outcome = "error"
		}
	}
	sess.srv.metrics.ToolCalls.WithLabelValues(string(d.Kind), outcome).Inc()
	sess.srv.metrics.ToolLatency.WithLabelValues(string(d.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		sess.srv.log.Warn("tool call failed",
			"session", sess.id, "tool", d.Name, "err", err)
		return errorResult(err), nil
	}
	return res, nil
}

func (sess *session) call(ctx context.Context, d *registry.Descriptor, args map[string]any) (*sdk.CallToolResult, error) {
	switch d.Kind {
	case registry.KindExpand:
		return sess.handleExpand(ctx, d)
	case registry.KindData:
		return sess.handleData(ctx, d, args)
	case registry.KindExecute:
		return sess.handleExecute(ctx, args)
	case registry.KindSchema:
		return sess.handleSchema()
	case registry.KindTypes:
		return sess.handleListTypes()
	case registry.KindDiscover:
		return sess.handleDiscover(ctx, args)
	}
	return nil, fault.New(fault.UnknownTool, "tool %q has no handler", d.Name)
}

func (sess *session) handleExpand(ctx context.Context, d *registry.Descriptor) (*sdk.CallToolResult, error) {
	res, err := sess.srv.discovery.Expand(ctx, sess.st, d.Target)
	if err != nil {
		return nil, err
	}
	added := sess.advance(res.Registry.Descriptors())

	var b strings.Builder
	if res.Cached {
		b.WriteString("Type already expanded; showing it again.\n\n")
	}
	b.WriteString(res.Snippet)
	if len(added) > 0 {
		b.WriteString("\n\nNew tools:\n")
		for _, a := range added {
			fmt.Fprintf(&b, "- %s: %s\n", a.Name, a.Description)
		}
	}
	return textResult(b.String()), nil
}

func (sess *session) handleData(ctx context.Context, d *registry.Descriptor, args map[string]any) (*sdk.CallToolResult, error) {
	obs, err := sess.srv.disp.Invoke(ctx, sess.registry(), d.Name, args)
	if err != nil {
		return nil, err
	}
	if obs.Retried {
		sess.srv.metrics.OriginRetries.Inc()
	}
	return observationResult(obs)
}

func (sess *session) handleExecute(ctx context.Context, args map[string]any) (*sdk.CallToolResult, error) {
	query, _ := args["query"].(string)
	variables, _ := args["variables"].(map[string]any)

	// Raw queries are guarded by what the strategy has shown the caller;
	// agentic sessions already saw the relevant fields and pass through.
	switch sess.srv.strategy {
	case explore.StrategyDiscovery:
		if err := sess.srv.discovery.ValidateQuery(sess.st, query); err != nil {
			return nil, err
		}
	case explore.StrategyFullSchema:
		if err := sess.srv.full.ValidateQuery(query); err != nil {
			return nil, err
		}
	}

	obs, err := sess.srv.disp.Execute(ctx, query, variables)
	if err != nil {
		return nil, err
	}
	if obs.Retried {
		sess.srv.metrics.OriginRetries.Inc()
	}
	return observationResult(obs)
}

func (sess *session) handleListTypes() (*sdk.CallToolResult, error) {
	names := sess.srv.discovery.ListTypes(sess.st)
	return textResult("Schema types:\n" + strings.Join(names, "\n")), nil
}

func (sess *session) handleSchema() (*sdk.CallToolResult, error) {
	sdl, resent := sess.srv.full.SchemaSDL(sess.st)
	if resent {
		return textResult("Schema already sent this session; showing it again.\n\n" + sdl), nil
	}
	return textResult(sdl), nil
}

func (sess *session) handleDiscover(ctx context.Context, args map[string]any) (*sdk.CallToolResult, error) {
	if sess.srv.agentic == nil {
		return nil, fault.New(fault.EmbeddingUnavailable, "agentic discovery is not configured")
	}
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return nil, fault.New(fault.InvalidArguments, "query is required")
	}
	topK := 0
	if v, ok := args["top_k"].(float64); ok {
		topK = int(v)
	}

	res, err := sess.srv.agentic.Discover(ctx, sess.st, query, topK)
	if err != nil {
		return nil, err
	}
	if res.Degraded {
		sess.srv.metrics.EmbeddingDegraded.Inc()
	}

	var b strings.Builder
	if res.Degraded {
		b.WriteString("Embedding provider unavailable; results ranked by lexical match.\n\n")
	}
	b.WriteString("Relevant schema fields, most relevant first:\n")
	for _, m := range res.Matches {
		fmt.Fprintf(&b, "%.3f  %s.%s: %s\n", m.Score, m.Entry.TypeName, m.Entry.FieldName, m.Entry.Signature)
		if m.Entry.Description != "" {
			fmt.Fprintf(&b, "       %s\n", m.Entry.Description)
		}
	}

	added := sess.advance(sess.srv.agentic.Descriptors(res.Matches))
	if len(added) > 0 {
		b.WriteString("\nNew tools:\n")
		for _, a := range added {
			fmt.Fprintf(&b, "- %s: %s\n", a.Name, a.Description)
		}
	}
	b.WriteString("\nUse execute-query to fetch data through these fields.")
	return textResult(b.String()), nil
}

func textResult(text string) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: text}},
	}
}

func errorResult(err error) *sdk.CallToolResult {
	return &sdk.CallToolResult{
		IsError: true,
		Content: []sdk.Content{&sdk.TextContent{Text: err.Error()}},
	}
}

// observationResult renders the origin's answer verbatim: data and
// GraphQL errors side by side, since partial results are still results.
func observationResult(obs *dispatch.Observation) (*sdk.CallToolResult, error) {
	payload := map[string]any{
		"data":       obs.Data,
		"latency_ms": obs.Latency.Milliseconds(),
	}
	if len(obs.Errors) > 0 {
		payload["errors"] = obs.Errors
	}
	if obs.Retried {
		payload["retried"] = true
	}
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding observation: %w", err)
	}
	return textResult(string(body)), nil
}
