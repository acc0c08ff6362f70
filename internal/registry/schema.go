package registry

import (
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"

	"gqlbridge/internal/graphql"
)

// DataTool wraps one schema field as a callable tool. selection is the
// rendered selection set for object-returning fields; leaf fields pass "".
func DataTool(schema *graphql.Schema, field *graphql.FieldNode, selection string, mutation bool) *Descriptor {
	prefix := "query"
	if mutation {
		prefix = "run"
	}
	desc := field.Description
	if desc == "" {
		desc = fmt.Sprintf("Execute the GraphQL field %s", graphql.FieldSignature(field))
	}
	return &Descriptor{
		Name:        ToolName(prefix, field.Owner, field.Name),
		Kind:        KindData,
		Description: desc,
		InputSchema: ArgumentSchema(schema, field.Args),
		Field:       field,
		Selection:   selection,
		Mutation:    mutation,
	}
}

// ExpandTool reveals the fields of target on invocation.
func ExpandTool(target string) *Descriptor {
	return &Descriptor{
		Name:        "expand-" + kebab(target),
		Kind:        KindExpand,
		Description: fmt.Sprintf("Reveal the fields of the %s type and register tools for them", target),
		InputSchema: &jsonschema.Schema{Type: "object"},
		Target:      target,
	}
}

// ArgumentSchema derives a JSON Schema for a field's arguments. Only
// declared arguments appear; NON_NULL arguments without defaults are
// required. Input object arguments expand one level at a time, with a
// cycle guard for self-referential inputs.
func ArgumentSchema(schema *graphql.Schema, args []graphql.ArgumentNode) *jsonschema.Schema {
	out := &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{},
	}
	for _, a := range args {
		prop := typeSchema(schema, &a.Type, map[string]bool{})
		if a.Description != "" {
			prop.Description = a.Description
		}
		out.Properties[a.Name] = prop
		if a.Required {
			out.Required = append(out.Required, a.Name)
		}
	}
	sort.Strings(out.Required)
	return out
}

func typeSchema(schema *graphql.Schema, ref *graphql.TypeRef, seen map[string]bool) *jsonschema.Schema {
	switch ref.Kind {
	case graphql.KindNonNull:
		return typeSchema(schema, ref.OfType, seen)
	case graphql.KindList:
		return &jsonschema.Schema{Type: "array", Items: typeSchema(schema, ref.OfType, seen)}
	}

	switch ref.Name {
	case "Int":
		return &jsonschema.Schema{Type: "integer"}
	case "Float":
		return &jsonschema.Schema{Type: "number"}
	case "Boolean":
		return &jsonschema.Schema{Type: "boolean"}
	case "String", "ID":
		return &jsonschema.Schema{Type: "string"}
	}

	if schema != nil {
		if node, ok := schema.Type(ref.Name); ok {
			switch node.Kind {
			case graphql.KindEnum:
				s := &jsonschema.Schema{Type: "string"}
				for _, v := range node.EnumValues {
					s.Enum = append(s.Enum, v)
				}
				return s
			case graphql.KindInputObject:
				if seen[node.Name] {
					return &jsonschema.Schema{Type: "object"}
				}
				seen[node.Name] = true
				s := &jsonschema.Schema{
					Type:       "object",
					Properties: map[string]*jsonschema.Schema{},
				}
				for _, in := range node.InputFields {
					s.Properties[in.Name] = typeSchema(schema, &in.Type, seen)
					if in.Required {
						s.Required = append(s.Required, in.Name)
					}
				}
				sort.Strings(s.Required)
				delete(seen, node.Name)
				return s
			}
		}
	}

	// Custom scalars accept any JSON-representable value.
	return &jsonschema.Schema{Type: "string"}
}
