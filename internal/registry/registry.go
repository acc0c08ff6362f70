// Package registry derives the session's callable tool set from the
// exposed subschema. Rebuilds are idempotent: identical exploration state
// yields byte-identical descriptor sets, so the transport can diff and
// announce only added tools.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/google/jsonschema-go/jsonschema"

	"gqlbridge/internal/graphql"
)

// Kind tags what invoking a tool does.
type Kind string

const (
	// KindData executes a GraphQL query wrapping one field.
	KindData Kind = "data"
	// KindExpand reveals the next layer of an object type.
	KindExpand Kind = "expand"
	// KindDiscover runs agentic relevance discovery.
	KindDiscover Kind = "discover"
	// KindExecute submits a raw GraphQL query string.
	KindExecute Kind = "execute"
	// KindSchema returns schema text (full SDL or type overview).
	KindSchema Kind = "schema"
	// KindTypes lists the exposable type names.
	KindTypes Kind = "types"
)

// Descriptor binds a tool name to its argument schema and the template
// for assembling the underlying GraphQL operation. Argument schemas are
// derived solely from the wrapped FieldNode; no tool exposes an argument
// the schema does not declare.
type Descriptor struct {
	Name        string
	Kind        Kind
	Description string
	InputSchema *jsonschema.Schema

	// For data tools: the wrapped field and the selection set to apply
	// when the field returns an object type. The selection is built only
	// from fields the session has already revealed.
	Field     *graphql.FieldNode
	Selection string

	// For expand tools: the type the expansion reveals.
	Target string

	// Mutation marks tools whose operation must never be auto-retried.
	Mutation bool
}

// Registry is one immutable, deterministic tool set.
type Registry struct {
	list   []*Descriptor
	byName map[string]*Descriptor
}

// Build constructs a registry from descriptors, assigning deterministic,
// collision-free names. Input order does not matter: descriptors are
// sorted before suffix assignment so rebuilds are byte-identical.
func Build(descs []*Descriptor) *Registry {
	sorted := make([]*Descriptor, len(descs))
	copy(sorted, descs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return descKey(sorted[i]) < descKey(sorted[j])
	})

	r := &Registry{byName: make(map[string]*Descriptor, len(sorted))}
	for _, d := range sorted {
		name := d.Name
		for n := 2; ; n++ {
			if existing, taken := r.byName[name]; !taken {
				break
			} else if descKey(existing) == descKey(d) {
				// Same underlying tool registered twice; keep one.
				name = ""
				break
			}
			name = fmt.Sprintf("%s-%d", d.Name, n)
		}
		if name == "" {
			continue
		}
		resolved := *d
		resolved.Name = name
		r.byName[name] = &resolved
		r.list = append(r.list, &resolved)
	}
	return r
}

// Merge folds additional descriptors into an existing registry. When both
// sides define the same underlying tool, the incoming descriptor wins, so
// a rebuilt data tool picks up its widened selection set.
func Merge(prev *Registry, incoming []*Descriptor) *Registry {
	byKey := make(map[string]*Descriptor)
	var order []string
	if prev != nil {
		for _, d := range prev.list {
			k := descKey(d)
			byKey[k] = d
			order = append(order, k)
		}
	}
	for _, d := range incoming {
		k := descKey(d)
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = d
	}
	all := make([]*Descriptor, 0, len(order))
	for _, k := range order {
		all = append(all, byKey[k])
	}
	return Build(all)
}

func descKey(d *Descriptor) string {
	if d.Field != nil {
		return string(d.Kind) + ":" + d.Field.Owner + "." + d.Field.Name
	}
	return string(d.Kind) + ":" + d.Target
}

// Resolve looks a tool up by name.
func (r *Registry) Resolve(name string) (*Descriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Descriptors returns the tools in deterministic order.
func (r *Registry) Descriptors() []*Descriptor {
	return r.list
}

// Diff returns the descriptors present in next but not in prev, in next's
// order. prev may be nil.
func Diff(prev, next *Registry) []*Descriptor {
	var added []*Descriptor
	for _, d := range next.list {
		if prev != nil {
			if _, ok := prev.byName[d.Name]; ok {
				continue
			}
		}
		added = append(added, d)
	}
	return added
}

// ToolName renders the deterministic tool name for a (type, field) pair:
// lower-cased, hyphenated at case boundaries.
func ToolName(prefix, typeName, fieldName string) string {
	return prefix + "-" + kebab(typeName) + "-" + kebab(fieldName)
}

func kebab(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if r == '_' || r == ' ' {
			b.WriteByte('-')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
