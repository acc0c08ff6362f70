package graphql

import (
	"fmt"
	"strings"
)

// String renders the reference in GraphQL type syntax: `!` for non-null,
// `[...]` for list, nested arbitrarily.
func (r *TypeRef) String() string {
	if r == nil {
		return ""
	}
	switch r.Kind {
	case KindNonNull:
		return r.OfType.String() + "!"
	case KindList:
		return "[" + r.OfType.String() + "]"
	default:
		return r.Name
	}
}

// ParseTypeRef parses a rendered type signature back into its wrapper/name
// tree. Rendering and re-parsing yield structurally identical trees.
func ParseTypeRef(s string) (*TypeRef, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty type signature")
	}
	if strings.HasSuffix(s, "!") {
		inner, err := ParseTypeRef(s[:len(s)-1])
		if err != nil {
			return nil, err
		}
		return &TypeRef{Kind: KindNonNull, OfType: inner}, nil
	}
	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return nil, fmt.Errorf("unbalanced list wrapper in %q", s)
		}
		inner, err := ParseTypeRef(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		return &TypeRef{Kind: KindList, OfType: inner}, nil
	}
	if strings.ContainsAny(s, "[]! ") {
		return nil, fmt.Errorf("malformed type signature %q", s)
	}
	return &TypeRef{Name: s}, nil
}

// FieldSignature renders a field as an SDL-like signature, e.g.
// `agency(id: ID!): Agency`.
func FieldSignature(f *FieldNode) string {
	var b strings.Builder
	b.WriteString(f.Name)
	if len(f.Args) > 0 {
		parts := make([]string, len(f.Args))
		for i, a := range f.Args {
			parts[i] = a.Name + ": " + a.Type.String()
			if a.Default != "" {
				parts[i] += " = " + a.Default
			}
		}
		b.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
	b.WriteString(": " + f.Type.String())
	return b.String()
}

// RenderType renders one type definition as SDL text.
func RenderType(t *TypeNode) string {
	var b strings.Builder
	switch t.Kind {
	case KindObject, KindInterface:
		keyword := "type"
		if t.Kind == KindInterface {
			keyword = "interface"
		}
		b.WriteString(keyword + " " + t.Name)
		if len(t.Interfaces) > 0 {
			b.WriteString(" implements " + strings.Join(t.Interfaces, " & "))
		}
		b.WriteString(" {\n")
		for i := range t.Fields {
			b.WriteString("  " + FieldSignature(&t.Fields[i]) + "\n")
		}
		b.WriteString("}\n")
	case KindInputObject:
		b.WriteString("input " + t.Name + " {\n")
		for _, f := range t.InputFields {
			b.WriteString("  " + f.Name + ": " + f.Type.String() + "\n")
		}
		b.WriteString("}\n")
	case KindEnum:
		b.WriteString("enum " + t.Name + " {\n")
		for _, v := range t.EnumValues {
			b.WriteString("  " + v + "\n")
		}
		b.WriteString("}\n")
	case KindScalar:
		b.WriteString("scalar " + t.Name + "\n")
	case KindUnion:
		if len(t.PossibleTypes) > 0 {
			b.WriteString("union " + t.Name + " = " + strings.Join(t.PossibleTypes, " | ") + "\n")
		} else {
			b.WriteString("union " + t.Name + "\n")
		}
	}
	return b.String()
}

// RenderSchema renders the whole type graph as one SDL document, types in
// sorted name order so identical graphs render byte-identically.
func RenderSchema(s *Schema) string {
	var b strings.Builder
	for _, name := range s.TypeNames() {
		t, _ := s.Type(name)
		sdl := RenderType(t)
		if sdl == "" {
			continue
		}
		b.WriteString(sdl)
		b.WriteString("\n")
	}
	return b.String()
}
