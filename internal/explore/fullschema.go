package explore

import (
	"github.com/google/jsonschema-go/jsonschema"

	"gqlbridge/internal/graphql"
	"gqlbridge/internal/registry"
)

// FullSchema ships the complete SDL in one call and then defers to raw
// query execution. The tool set is static for the whole session.
type FullSchema struct {
	snaps *graphql.SnapshotStore
}

func NewFullSchema(snaps *graphql.SnapshotStore) *FullSchema {
	return &FullSchema{snaps: snaps}
}

func (f *FullSchema) InitialRegistry() *registry.Registry {
	return registry.Build([]*registry.Descriptor{
		{
			Name:        "get-graphql-schema",
			Kind:        registry.KindSchema,
			Description: "Return the full GraphQL schema in SDL form",
			InputSchema: &jsonschema.Schema{Type: "object"},
		},
		ExecuteTool(),
	})
}

// SchemaSDL renders the current snapshot's SDL. resent reports whether
// this session already received the schema; the text is replayed either
// way so a confused caller can recover it.
func (f *FullSchema) SchemaSDL(st *State) (sdl string, resent bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	resent = st.schemaSent
	st.schemaSent = true
	return graphql.RenderSchema(f.snaps.Current().Schema), resent
}
