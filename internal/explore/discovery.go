package explore

import (
	"context"
	"sort"

	"gqlbridge/internal/fault"
	"gqlbridge/internal/graphql"
	"gqlbridge/internal/registry"
)

const selectionDepth = 4

// TypeFetcher introspects a single type on demand. *graphql.Client
// satisfies it; tests substitute a fixture.
type TypeFetcher interface {
	IntrospectType(ctx context.Context, name string) (*graphql.TypeNode, error)
}

// Discovery reveals the schema one type per call. A session starts with
// only the root expand tools; each expansion returns the SDL snippet of
// the requested type and registers tools for what it revealed.
type Discovery struct {
	snaps   *graphql.SnapshotStore
	fetcher TypeFetcher // may be nil when the snapshot is complete
}

func NewDiscovery(snaps *graphql.SnapshotStore, fetcher TypeFetcher) *Discovery {
	return &Discovery{snaps: snaps, fetcher: fetcher}
}

// ExpandResult carries one expansion's outcome. Cached is set when the
// type was already expanded; the snippet is replayed and the registry is
// unchanged in content.
type ExpandResult struct {
	Snippet  string
	Registry *registry.Registry
	Cached   bool
}

// InitialRegistry is the tool set a fresh session starts from: expand
// tools for the root operation types, the type name listing, and the raw
// query escape hatch (guarded by ValidateQuery).
func (d *Discovery) InitialRegistry() *registry.Registry {
	schema := d.snaps.Current().Schema
	descs := []*registry.Descriptor{
		registry.ExpandTool(schema.QueryType),
		ListTypesTool(),
		ExecuteTool(),
	}
	if schema.MutationType != "" {
		descs = append(descs, registry.ExpandTool(schema.MutationType))
	}
	return registry.Build(descs)
}

// ListTypes returns every exposable type name: the snapshot's types plus
// whatever the session introspected lazily, sorted.
func (d *Discovery) ListTypes(st *State) []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	names := d.snaps.Current().Schema.TypeNames()
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	for n := range st.overlay {
		if !known[n] {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

// Expand reveals typeName for the session and rebuilds the tool set.
// Re-expanding is a cached no-op. Types missing from the snapshot are
// introspected lazily into the session overlay.
func (d *Discovery) Expand(ctx context.Context, st *State, typeName string) (*ExpandResult, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	schema := d.snaps.Current().Schema
	node, err := d.resolve(ctx, st, schema, typeName)
	if err != nil {
		return nil, err
	}

	cached := st.expanded[typeName]
	if !cached {
		st.expanded[typeName] = true
		st.snippets[typeName] = graphql.RenderType(node)
	}
	return &ExpandResult{
		Snippet:  st.snippets[typeName],
		Registry: d.rebuild(st, schema),
		Cached:   cached,
	}, nil
}

// Registry rebuilds the session's tool set from its current exposure.
func (d *Discovery) Registry(st *State) *registry.Registry {
	st.mu.Lock()
	defer st.mu.Unlock()
	return d.rebuild(st, d.snaps.Current().Schema)
}

func (d *Discovery) resolve(ctx context.Context, st *State, schema *graphql.Schema, typeName string) (*graphql.TypeNode, error) {
	if t, ok := schema.Type(typeName); ok {
		return t, nil
	}
	if t, ok := st.overlay[typeName]; ok {
		return t, nil
	}
	if d.fetcher == nil {
		return nil, fault.New(fault.TypeExpansionFailed, "type %q is not part of the schema", typeName)
	}
	node, err := d.fetcher.IntrospectType(ctx, typeName)
	if err != nil {
		return nil, err
	}
	st.overlay[typeName] = node
	return node, nil
}

// rebuild derives the full tool set for the session's exposure. Callers
// hold st.mu. The same exposure always yields the same registry, so the
// transport can diff consecutive builds to find newly added tools.
func (d *Discovery) rebuild(st *State, schema *graphql.Schema) *registry.Registry {
	look := lookup(st, schema)

	targets := map[string]bool{schema.QueryType: true}
	if schema.MutationType != "" {
		targets[schema.MutationType] = true
	}
	for name := range st.expanded {
		node, ok := look(name)
		if !ok {
			continue
		}
		for i := range node.Fields {
			ret := node.Fields[i].Type.Unwrap()
			if t, found := look(ret); found {
				if objectLike(t.Kind) {
					targets[ret] = true
				}
				continue
			}
			// Not introspected yet; expanding it will fetch it lazily.
			if !leafName(look, ret) {
				targets[ret] = true
			}
		}
	}

	var descs []*registry.Descriptor
	names := make([]string, 0, len(targets))
	for t := range targets {
		names = append(names, t)
	}
	sort.Strings(names)
	for _, t := range names {
		descs = append(descs, registry.ExpandTool(t))
	}

	roots := []struct {
		name     string
		mutation bool
	}{
		{schema.QueryType, false},
		{schema.MutationType, true},
	}
	for _, root := range roots {
		if root.name == "" || !st.expanded[root.name] {
			continue
		}
		node, ok := look(root.name)
		if !ok {
			continue
		}
		for i := range node.Fields {
			f := &node.Fields[i]
			ret := f.Type.Unwrap()
			if leafName(look, ret) {
				descs = append(descs, registry.DataTool(schema, f, "", root.mutation))
				continue
			}
			// Object-returning root fields become callable once their
			// return type has revealed at least one selectable field.
			if sel := buildSelection(look, ret, st.expanded, selectionDepth); sel != "" {
				descs = append(descs, registry.DataTool(schema, f, sel, root.mutation))
			}
		}
	}
	return registry.Build(descs)
}
