package mcp

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"gqlbridge/internal/explore"
	"gqlbridge/internal/fault"
	"gqlbridge/internal/registry"
)

// session is one client's view of the bridge: its own MCP server, its own
// exploration state and its own growing tool registry.
type session struct {
	id  string
	srv *Server
	mcp *sdk.Server
	st  *explore.State

	mu  sync.Mutex
	reg *registry.Registry
}

func (s *Server) newSession() *session {
	sess := &session{
		id:  uuid.NewString(),
		srv: s,
		st:  explore.NewState(),
	}
	sess.mcp = sdk.NewServer(&sdk.Implementation{
		Name:    "gqlbridge",
		Version: s.version,
	}, &sdk.ServerOptions{
		Instructions: s.instructions(),
	})

	var initial *registry.Registry
	switch s.strategy {
	case explore.StrategyFullSchema:
		initial = s.full.InitialRegistry()
	case explore.StrategyAgentic:
		initial = s.agentic.InitialRegistry()
	default:
		initial = s.discovery.InitialRegistry()
	}
	sess.advance(initial.Descriptors())

	s.metrics.SessionsStarted.Inc()
	s.log.Debug("session started", "session", sess.id, "strategy", string(s.strategy))
	return sess
}

func (sess *session) registry() *registry.Registry {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.reg
}

// advance merges new descriptors into the session registry and installs
// whatever that added. Tools are never removed; a session's surface only
// grows, and a rebuilt data tool keeps its name while its selection
// widens.
func (sess *session) advance(incoming []*registry.Descriptor) []*registry.Descriptor {
	sess.mu.Lock()
	merged := registry.Merge(sess.reg, incoming)
	added := registry.Diff(sess.reg, merged)
	sess.reg = merged
	sess.mu.Unlock()

	for _, d := range added {
		sess.install(d)
	}
	return added
}

func (sess *session) install(d *registry.Descriptor) {
	sess.mcp.AddTool(&sdk.Tool{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: d.InputSchema,
	}, func(ctx context.Context, req *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
		var args map[string]any
		if req != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(fault.New(fault.InvalidArguments, "arguments are not a JSON object: %v", err)), nil
			}
		}
		return sess.dispatch(ctx, d, args)
	})
}
