package graphql

import (
	"sort"
	"strings"
)

// TypeKind mirrors the __TypeKind introspection enum.
type TypeKind string

const (
	KindScalar      TypeKind = "SCALAR"
	KindObject      TypeKind = "OBJECT"
	KindInterface   TypeKind = "INTERFACE"
	KindUnion       TypeKind = "UNION"
	KindEnum        TypeKind = "ENUM"
	KindInputObject TypeKind = "INPUT_OBJECT"
	KindList        TypeKind = "LIST"
	KindNonNull     TypeKind = "NON_NULL"
)

// TypeRef is a possibly wrapped reference to a named type. For LIST and
// NON_NULL kinds, OfType holds the wrapped reference; for named kinds it is
// nil and Name identifies the type.
type TypeRef struct {
	Kind   TypeKind `json:"kind"`
	Name   string   `json:"name"`
	OfType *TypeRef `json:"ofType,omitempty"`
}

// Unwrap returns the named type at the bottom of the wrapper chain.
func (r *TypeRef) Unwrap() string {
	for r != nil {
		if r.OfType == nil {
			return r.Name
		}
		r = r.OfType
	}
	return ""
}

// ArgumentNode describes one declared argument of a field, or one input
// field of an input object type.
type ArgumentNode struct {
	Name        string
	Type        TypeRef
	Default     string
	Required    bool
	Description string
}

// FieldNode describes one field of an object or interface type. Owner is
// the owning type's name, a lookup key rather than a pointer, since the
// type graph is replaced wholesale on re-introspection.
type FieldNode struct {
	Name        string
	Owner       string
	Type        TypeRef
	Args        []ArgumentNode
	Description string
}

// TypeNode is one normalized type of the introspected schema. Identity is
// the name; nodes are immutable once introspected.
type TypeNode struct {
	Name          string
	Kind          TypeKind
	Description   string
	Fields        []FieldNode
	InputFields   []ArgumentNode
	EnumValues    []string
	Interfaces    []string
	PossibleTypes []string
}

// Schema is the type graph: every introspected type keyed by name, plus
// the root operation type names.
type Schema struct {
	QueryType    string
	MutationType string
	types        map[string]*TypeNode
	names        []string
}

func NewSchema(queryType, mutationType string) *Schema {
	return &Schema{
		QueryType:    queryType,
		MutationType: mutationType,
		types:        make(map[string]*TypeNode),
	}
}

// Add inserts or replaces a type node.
func (s *Schema) Add(t *TypeNode) {
	if t == nil || t.Name == "" {
		return
	}
	if _, exists := s.types[t.Name]; !exists {
		s.names = append(s.names, t.Name)
	}
	s.types[t.Name] = t
}

func (s *Schema) Type(name string) (*TypeNode, bool) {
	t, ok := s.types[name]
	return t, ok
}

func (s *Schema) Field(typeName, fieldName string) (*FieldNode, bool) {
	t, ok := s.types[typeName]
	if !ok {
		return nil, false
	}
	for i := range t.Fields {
		if t.Fields[i].Name == fieldName {
			return &t.Fields[i], true
		}
	}
	return nil, false
}

// TypeNames returns all type names in sorted order, excluding introspection
// meta types.
func (s *Schema) TypeNames() []string {
	names := make([]string, 0, len(s.names))
	for _, n := range s.names {
		if strings.HasPrefix(n, "__") {
			continue
		}
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var builtinScalars = map[string]struct{}{
	"Int": {}, "Float": {}, "String": {}, "Boolean": {}, "ID": {},
}

// IsLeaf reports whether the named type resolves to a value with no
// sub-selection: a scalar or an enum. Unknown names are treated as leaves
// when they are builtin scalars, non-leaves otherwise.
func (s *Schema) IsLeaf(name string) bool {
	if t, ok := s.types[name]; ok {
		return t.Kind == KindScalar || t.Kind == KindEnum
	}
	_, builtin := builtinScalars[name]
	return builtin
}
