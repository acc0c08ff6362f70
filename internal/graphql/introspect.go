package graphql

import (
	"context"
	"encoding/json"
	"fmt"

	"gqlbridge/internal/fault"
)

// typeRefDepth covers signatures like [[Type!]!]! with room to spare.
const typeRefFragment = `kind name ofType { kind name ofType { kind name ofType { kind name ofType { kind name ofType { kind name ofType { kind name } } } } } }`

var schemaQuery = fmt.Sprintf(`query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    types {
      kind
      name
      description
      fields(includeDeprecated: true) {
        name
        description
        args { name description defaultValue type { %s } }
        type { %s }
      }
      inputFields { name description defaultValue type { %s } }
      enumValues(includeDeprecated: true) { name }
      interfaces { name }
      possibleTypes { name }
    }
  }
}`, typeRefFragment, typeRefFragment, typeRefFragment)

var typeQuery = fmt.Sprintf(`query TypeIntrospection($name: String!) {
  __type(name: $name) {
    kind
    name
    description
    fields(includeDeprecated: true) {
      name
      description
      args { name description defaultValue type { %s } }
      type { %s }
    }
    inputFields { name description defaultValue type { %s } }
    enumValues(includeDeprecated: true) { name }
    interfaces { name }
    possibleTypes { name }
  }
}`, typeRefFragment, typeRefFragment, typeRefFragment)

// Wire shapes of the introspection response.
type wireField struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Args        []wireInput     `json:"args"`
	Type        TypeRef         `json:"type"`
}

type wireInput struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	DefaultValue *string `json:"defaultValue"`
	Type         TypeRef `json:"type"`
}

type wireType struct {
	Kind          TypeKind    `json:"kind"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Fields        []wireField `json:"fields"`
	InputFields   []wireInput `json:"inputFields"`
	EnumValues    []struct {
		Name string `json:"name"`
	} `json:"enumValues"`
	Interfaces    []TypeRef `json:"interfaces"`
	PossibleTypes []TypeRef `json:"possibleTypes"`
}

type wireSchema struct {
	QueryType    *TypeRef   `json:"queryType"`
	MutationType *TypeRef   `json:"mutationType"`
	Types        []wireType `json:"types"`
}

// IntrospectSchema fetches the full type graph in one round trip. Used by
// the fullschema and agentic strategies, which need the whole schema
// upfront. Failure here is fatal for session start.
func (c *Client) IntrospectSchema(ctx context.Context) (*Schema, error) {
	resp, err := c.Execute(ctx, schemaQuery, nil)
	if err != nil {
		return nil, fault.Wrap(fault.SchemaUnavailable, err, "introspecting schema at %q", c.endpoint)
	}
	if len(resp.Errors) > 0 {
		return nil, fault.New(fault.SchemaUnavailable, "introspection rejected by %q: %s", c.endpoint, resp.Errors[0].Message)
	}

	var payload struct {
		Schema wireSchema `json:"__schema"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return nil, fault.Wrap(fault.SchemaUnavailable, err, "malformed introspection response from %q", c.endpoint)
	}
	if payload.Schema.QueryType == nil || payload.Schema.QueryType.Name == "" {
		return nil, fault.New(fault.SchemaUnavailable, "introspection response from %q has no query root", c.endpoint)
	}

	mutation := ""
	if payload.Schema.MutationType != nil {
		mutation = payload.Schema.MutationType.Name
	}
	schema := NewSchema(payload.Schema.QueryType.Name, mutation)
	for i := range payload.Schema.Types {
		schema.Add(nodeFromWire(&payload.Schema.Types[i]))
	}
	return schema, nil
}

// IntrospectType fetches a single type in one round trip. Used by the
// discovery strategy so unexplored types never cost a network call.
// Concurrent requests for the same type are collapsed into one.
func (c *Client) IntrospectType(ctx context.Context, name string) (*TypeNode, error) {
	v, err, _ := c.group.Do("type:"+name, func() (any, error) {
		return c.introspectType(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	return v.(*TypeNode), nil
}

func (c *Client) introspectType(ctx context.Context, name string) (*TypeNode, error) {
	resp, err := c.Execute(ctx, typeQuery, map[string]any{"name": name})
	if err != nil {
		return nil, fault.Wrap(fault.TypeExpansionFailed, err, "introspecting type %q", name)
	}
	if len(resp.Errors) > 0 {
		return nil, fault.New(fault.TypeExpansionFailed, "introspecting type %q: %s", name, resp.Errors[0].Message)
	}

	var payload struct {
		Type *wireType `json:"__type"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return nil, fault.Wrap(fault.TypeExpansionFailed, err, "malformed introspection response for type %q", name)
	}
	if payload.Type == nil || payload.Type.Name == "" {
		return nil, fault.New(fault.TypeExpansionFailed, "type %q not found in origin schema", name)
	}
	return nodeFromWire(payload.Type), nil
}

func nodeFromWire(w *wireType) *TypeNode {
	t := &TypeNode{
		Name:        w.Name,
		Kind:        w.Kind,
		Description: w.Description,
	}
	for _, f := range w.Fields {
		field := FieldNode{
			Name:        f.Name,
			Owner:       w.Name,
			Type:        f.Type,
			Description: f.Description,
		}
		for _, a := range f.Args {
			field.Args = append(field.Args, argFromWire(a))
		}
		t.Fields = append(t.Fields, field)
	}
	for _, in := range w.InputFields {
		t.InputFields = append(t.InputFields, argFromWire(in))
	}
	for _, v := range w.EnumValues {
		t.EnumValues = append(t.EnumValues, v.Name)
	}
	for _, i := range w.Interfaces {
		t.Interfaces = append(t.Interfaces, i.Name)
	}
	for _, p := range w.PossibleTypes {
		t.PossibleTypes = append(t.PossibleTypes, p.Name)
	}
	return t
}

func argFromWire(in wireInput) ArgumentNode {
	def := ""
	if in.DefaultValue != nil {
		def = *in.DefaultValue
	}
	return ArgumentNode{
		Name:        in.Name,
		Type:        in.Type,
		Default:     def,
		Required:    in.Type.Kind == KindNonNull && in.DefaultValue == nil,
		Description: in.Description,
	}
}
