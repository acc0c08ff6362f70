package explore

import (
	"sort"
	"sync"

	"gqlbridge/internal/graphql"
)

// State is one session's exploration progress. Exposure is monotonic:
// expanded types, discovered fields and the sent-schema flag only grow,
// and nothing resets until the session ends. All strategy operations on a
// session serialize on the state mutex.
type State struct {
	mu sync.Mutex

	expanded   map[string]bool
	snippets   map[string]string
	overlay    map[string]*graphql.TypeNode
	discovered map[string]bool
	schemaSent bool
}

func NewState() *State {
	return &State{
		expanded:   make(map[string]bool),
		snippets:   make(map[string]string),
		overlay:    make(map[string]*graphql.TypeNode),
		discovered: make(map[string]bool),
	}
}

// Expanded reports whether the named type has been revealed.
func (s *State) Expanded(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded[name]
}

// DiscoveredKeys returns every Type.field key the agentic strategy has
// surfaced so far, sorted.
func (s *State) DiscoveredKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.discovered))
	for k := range s.discovered {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
