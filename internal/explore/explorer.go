// Package explore implements the three schema exposure strategies:
// discovery reveals the type graph one layer per call, fullschema ships
// the whole SDL up front, and agentic ranks schema fields against a
// natural-language task description.
package explore

import (
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"gqlbridge/internal/graphql"
	"gqlbridge/internal/registry"
)

// Strategy selects how much of the schema a session sees and when.
type Strategy string

const (
	StrategyDiscovery  Strategy = "discovery"
	StrategyFullSchema Strategy = "fullschema"
	StrategyAgentic    Strategy = "agentic"
)

// ParseStrategy normalizes a configured strategy name. The empty string
// defaults to discovery.
func ParseStrategy(s string) (Strategy, error) {
	switch v := Strategy(strings.ToLower(strings.TrimSpace(s))); v {
	case StrategyDiscovery, StrategyFullSchema, StrategyAgentic:
		return v, nil
	case "":
		return StrategyDiscovery, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (want discovery, fullschema or agentic)", s)
	}
}

// ExecuteTool is the raw query escape hatch shared by the fullschema and
// agentic strategies.
func ExecuteTool() *registry.Descriptor {
	return &registry.Descriptor{
		Name:        "execute-query",
		Kind:        registry.KindExecute,
		Description: "Execute a raw GraphQL operation against the origin endpoint",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query":     {Type: "string", Description: "GraphQL operation text"},
				"variables": {Type: "object", Description: "Values for the operation's variables"},
			},
			Required: []string{"query"},
		},
	}
}

// ListTypesTool names every exposable type, so a discovery session can
// jump straight to a type instead of walking from the root.
func ListTypesTool() *registry.Descriptor {
	return &registry.Descriptor{
		Name:        "list-types",
		Kind:        registry.KindTypes,
		Description: "List every type name in the schema; expand one to see its fields",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}
}

type lookupFunc func(name string) (*graphql.TypeNode, bool)

// lookup merges the shared snapshot schema with the session's lazily
// introspected overlay.
func lookup(st *State, schema *graphql.Schema) lookupFunc {
	return func(name string) (*graphql.TypeNode, bool) {
		if t, ok := schema.Type(name); ok {
			return t, true
		}
		t, ok := st.overlay[name]
		return t, ok
	}
}

var builtinScalars = map[string]struct{}{
	"Int": {}, "Float": {}, "String": {}, "Boolean": {}, "ID": {},
}

func leafName(look lookupFunc, name string) bool {
	if t, ok := look(name); ok {
		return t.Kind == graphql.KindScalar || t.Kind == graphql.KindEnum
	}
	_, builtin := builtinScalars[name]
	return builtin
}

func objectLike(k graphql.TypeKind) bool {
	return k == graphql.KindObject || k == graphql.KindInterface || k == graphql.KindUnion
}
