package explore

import "strings"

// buildSelection renders the selection set over typeName from the fields
// the session has revealed. Leaf fields of expanded types are selected
// directly; object fields recurse only when their type is also expanded.
// Unexpanded branches and parameterized nested fields are omitted, and the
// depth bound breaks type cycles.
func buildSelection(look lookupFunc, typeName string, expanded map[string]bool, depth int) string {
	if depth <= 0 || !expanded[typeName] {
		return ""
	}
	node, ok := look(typeName)
	if !ok {
		return ""
	}
	var parts []string
	for i := range node.Fields {
		f := &node.Fields[i]
		if len(f.Args) > 0 {
			continue
		}
		ret := f.Type.Unwrap()
		if leafName(look, ret) {
			parts = append(parts, f.Name)
			continue
		}
		if sub := buildSelection(look, ret, expanded, depth-1); sub != "" {
			parts = append(parts, f.Name+" "+sub)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "{ " + strings.Join(parts, " ") + " }"
}
