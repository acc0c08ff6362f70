package explore

import (
	"context"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"

	"gqlbridge/internal/embed"
	"gqlbridge/internal/fault"
	"gqlbridge/internal/flatten"
	"gqlbridge/internal/graphql"
	"gqlbridge/internal/registry"
)

const defaultTopK = 10

// Agentic ranks every schema field against a natural-language task and
// returns the most relevant slice of the schema. With constraining on,
// the result set stays connected in the type graph so the caller can
// actually join the fields it is shown.
type Agentic struct {
	snaps     *graphql.SnapshotStore
	cache     *embed.Cache
	topK      int
	constrain bool
}

func NewAgentic(snaps *graphql.SnapshotStore, cache *embed.Cache, topK int, constrain bool) *Agentic {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Agentic{snaps: snaps, cache: cache, topK: topK, constrain: constrain}
}

// Match is one ranked schema field.
type Match struct {
	Entry flatten.Entry
	Score float64
}

// DiscoverResult carries one discovery call's outcome. Degraded is set
// when the embedding provider was unreachable and lexical scoring was
// used instead.
type DiscoverResult struct {
	Matches  []Match
	Degraded bool
}

func (a *Agentic) InitialRegistry() *registry.Registry {
	return registry.Build([]*registry.Descriptor{
		{
			Name:        "discover-fields",
			Kind:        registry.KindDiscover,
			Description: "Rank schema fields by relevance to a natural-language task description",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {Type: "string", Description: "What you are trying to find or do"},
					"top_k": {Type: "integer", Description: "How many fields to return"},
				},
				Required: []string{"query"},
			},
		},
		ExecuteTool(),
	})
}

// Discover embeds the task description, ranks the flattened schema by
// cosine similarity and returns the top slice, constrained to connected
// fields when enabled. Discovered keys accumulate on the session state.
func (a *Agentic) Discover(ctx context.Context, st *State, query string, topK int) (*DiscoverResult, error) {
	if topK <= 0 {
		topK = a.topK
	}
	snap := a.snaps.Current()
	entries, err := a.cache.Entries(ctx, snap)
	if err != nil && !fault.Is(err, fault.EmbeddingUnavailable) {
		return nil, err
	}

	scores := make([]float64, len(entries))
	degraded := err != nil
	if !degraded {
		qvec, qerr := a.cache.Embed(ctx, query)
		if qerr != nil {
			if !fault.Is(qerr, fault.EmbeddingUnavailable) {
				return nil, qerr
			}
			degraded = true
		} else {
			for i := range entries {
				scores[i] = embed.Cosine(qvec, entries[i].Embedding)
			}
		}
	}
	if degraded {
		for i := range entries {
			scores[i] = embed.LexicalScore(query, entries[i].EmbedText())
		}
	}

	order := rank(entries, scores)
	var picked []int
	if a.constrain {
		picked = constrain(entries, order, topK)
	} else if len(order) > topK {
		picked = order[:topK]
	} else {
		picked = order
	}

	result := &DiscoverResult{Degraded: degraded, Matches: make([]Match, 0, len(picked))}
	st.mu.Lock()
	for _, i := range picked {
		st.discovered[entries[i].Key()] = true
		result.Matches = append(result.Matches, Match{Entry: entries[i], Score: scores[i]})
	}
	st.mu.Unlock()
	return result, nil
}

// Descriptors derives tools from discovered entries: root-type leaf
// fields become directly callable, everything else surfaces as expand
// tools on the types involved so the caller can navigate to the data.
func (a *Agentic) Descriptors(matches []Match) []*registry.Descriptor {
	schema := a.snaps.Current().Schema
	var descs []*registry.Descriptor
	seen := make(map[string]bool)
	for _, m := range matches {
		e := m.Entry
		if e.TypeName == schema.QueryType || (schema.MutationType != "" && e.TypeName == schema.MutationType) {
			if field, ok := schema.Field(e.TypeName, e.FieldName); ok && schema.IsLeaf(field.Type.Unwrap()) {
				descs = append(descs, registry.DataTool(schema, field, "", e.TypeName == schema.MutationType))
				continue
			}
		}
		if !seen[e.TypeName] {
			seen[e.TypeName] = true
			descs = append(descs, registry.ExpandTool(e.TypeName))
		}
		if ret := e.ReturnType.Unwrap(); !schema.IsLeaf(ret) && !seen[ret] {
			if _, ok := schema.Type(ret); ok {
				seen[ret] = true
				descs = append(descs, registry.ExpandTool(ret))
			}
		}
	}
	return descs
}

// rank orders entry indexes by score descending, breaking ties by
// (type, field) so equal scores rank deterministically.
func rank(entries []flatten.Entry, scores []float64) []int {
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(x, y int) bool {
		i, j := order[x], order[y]
		if scores[i] != scores[j] {
			return scores[i] > scores[j]
		}
		if entries[i].TypeName != entries[j].TypeName {
			return entries[i].TypeName < entries[j].TypeName
		}
		return entries[i].FieldName < entries[j].FieldName
	})
	return order
}

// constrain grows a connected cluster from the best-ranked entry, always
// taking the best remaining entry related to something already selected.
// When the frontier empties before topK entries are chosen, a new cluster
// starts at the best remaining entry, so disjoint but relevant regions of
// the schema still surface.
func constrain(entries []flatten.Entry, order []int, topK int) []int {
	var selected []int
	used := make(map[int]bool, topK)
	for len(selected) < topK {
		seed := -1
		for _, i := range order {
			if !used[i] {
				seed = i
				break
			}
		}
		if seed < 0 {
			break
		}
		used[seed] = true
		selected = append(selected, seed)

		for len(selected) < topK {
			next := -1
		scan:
			for _, i := range order {
				if used[i] {
					continue
				}
				for _, j := range selected {
					if related(&entries[i], &entries[j]) {
						next = i
						break scan
					}
				}
			}
			if next < 0 {
				break
			}
			used[next] = true
			selected = append(selected, next)
		}
	}
	return selected
}

// related links two entries when one's owning type is the other's
// de-wrapped return type, in either direction. Sharing an owner alone is
// not a link.
func related(a, b *flatten.Entry) bool {
	return a.ReturnType.Unwrap() == b.TypeName ||
		b.ReturnType.Unwrap() == a.TypeName
}
