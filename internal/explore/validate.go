package explore

import (
	"strings"
	"unicode"

	"gqlbridge/internal/fault"
	"gqlbridge/internal/graphql"
)

// operationShape is the minimal reading of a raw operation needed to
// guard execute-query: which root type it targets and which top-level
// fields it selects. Anything deeper is the origin's job to validate.
type operationShape struct {
	rootKeyword string // "query", "mutation" or "" for shorthand
	fields      []string
}

func parseOperation(query string) (*operationShape, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, fault.New(fault.InvalidArguments, "query must not be empty")
	}

	shape := &operationShape{}
	open := strings.IndexByte(trimmed, '{')
	if open < 0 {
		return nil, fault.New(fault.InvalidArguments, "query has no selection set")
	}
	head := strings.Fields(trimmed[:open])
	if len(head) > 0 {
		shape.rootKeyword = head[0]
		switch shape.rootKeyword {
		case "query", "mutation", "subscription":
		default:
			return nil, fault.New(fault.InvalidArguments, "unknown operation keyword %q", shape.rootKeyword)
		}
	}

	depth := 0
	parens := 0
	var ident strings.Builder
	flush := func(next byte) {
		if ident.Len() == 0 {
			return
		}
		name := ident.String()
		ident.Reset()
		// An identifier followed by ':' is an alias; the field follows.
		if depth == 1 && parens == 0 && next != ':' && !strings.HasPrefix(name, "@") {
			shape.fields = append(shape.fields, name)
		}
	}
	body := trimmed[open:]
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '"':
			flush(0)
			for i++; i < len(body) && body[i] != '"'; i++ {
				if body[i] == '\\' {
					i++
				}
			}
		case c == '{':
			flush(0)
			depth++
		case c == '}':
			flush(0)
			depth--
		case c == '(':
			flush(0)
			parens++
		case c == ')':
			flush(0)
			parens--
		case c == '_' || c == '@' || unicode.IsLetter(rune(c)) || (ident.Len() > 0 && unicode.IsDigit(rune(c))):
			ident.WriteByte(c)
		default:
			flush(c)
		}
	}
	if depth != 0 {
		return nil, fault.New(fault.InvalidArguments, "unbalanced braces in query")
	}
	if len(shape.fields) == 0 {
		return nil, fault.New(fault.InvalidArguments, "query selects no fields")
	}
	return shape, nil
}

func rootTypeName(schema *graphql.Schema, keyword string) (string, error) {
	switch keyword {
	case "", "query":
		return schema.QueryType, nil
	case "mutation":
		if schema.MutationType == "" {
			return "", fault.New(fault.InvalidArguments, "the schema declares no mutation type")
		}
		return schema.MutationType, nil
	}
	return "", fault.New(fault.InvalidArguments, "operation type %q is not supported", keyword)
}

// ValidateQuery checks a raw operation against the full Type Graph: every
// top-level field must exist on the targeted root type.
func (f *FullSchema) ValidateQuery(query string) error {
	shape, err := parseOperation(query)
	if err != nil {
		return err
	}
	schema := f.snaps.Current().Schema
	root, err := rootTypeName(schema, shape.rootKeyword)
	if err != nil {
		return err
	}
	for _, name := range shape.fields {
		if _, ok := schema.Field(root, name); !ok {
			return fault.New(fault.InvalidArguments, "field %q does not exist on type %s", name, root)
		}
	}
	return nil
}

// ValidateQuery checks a raw operation against the session's exposed
// subschema: the targeted root must be expanded and every top-level field
// must be one of its revealed fields.
func (d *Discovery) ValidateQuery(st *State, query string) error {
	shape, err := parseOperation(query)
	if err != nil {
		return err
	}
	schema := d.snaps.Current().Schema
	root, err := rootTypeName(schema, shape.rootKeyword)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.expanded[root] {
		return fault.New(fault.InvalidArguments, "expand %s before querying it directly", root)
	}
	look := lookup(st, schema)
	node, ok := look(root)
	if !ok {
		return fault.New(fault.InvalidArguments, "root type %s is not known", root)
	}
	for _, name := range shape.fields {
		found := false
		for i := range node.Fields {
			if node.Fields[i].Name == name {
				found = true
				break
			}
		}
		if !found {
			return fault.New(fault.InvalidArguments, "field %q does not exist on type %s", name, root)
		}
	}
	return nil
}
