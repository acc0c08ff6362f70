// Package flatten reduces a type graph to one entry per (type, field)
// pair. Entries are the unit of relevance scoring for agentic discovery
// and the unit of embedding.
package flatten

import (
	"sort"
	"strings"

	"gqlbridge/internal/graphql"
)

// Entry is one (type, field) pair with its rendered SDL-like signature.
// Embedding is filled in by the embedding cache, not by Flatten.
type Entry struct {
	TypeName    string
	FieldName   string
	Signature   string
	ReturnType  graphql.TypeRef
	Description string
	Embedding   []float32
}

// Key identifies the entry within one schema snapshot.
func (e *Entry) Key() string {
	return e.TypeName + "." + e.FieldName
}

// EmbedText is the document sent to the embedding provider. Entries
// lacking a description still embed "Type.field: signature".
func (e *Entry) EmbedText() string {
	var b strings.Builder
	b.WriteString(e.TypeName + "." + e.FieldName + ": " + e.Signature)
	if e.Description != "" {
		b.WriteString("\n" + e.Description)
	}
	return b.String()
}

// Flatten produces one entry per field across all object and interface
// types, sorted by (type, field). Introspection meta types are skipped.
// Flattening the same schema twice yields byte-identical sequences.
func Flatten(s *graphql.Schema) []Entry {
	var entries []Entry
	for _, name := range s.TypeNames() {
		t, _ := s.Type(name)
		if t.Kind != graphql.KindObject && t.Kind != graphql.KindInterface {
			continue
		}
		for i := range t.Fields {
			f := &t.Fields[i]
			entries = append(entries, Entry{
				TypeName:    t.Name,
				FieldName:   f.Name,
				Signature:   graphql.FieldSignature(f),
				ReturnType:  f.Type,
				Description: f.Description,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TypeName != entries[j].TypeName {
			return entries[i].TypeName < entries[j].TypeName
		}
		return entries[i].FieldName < entries[j].FieldName
	})
	return entries
}
