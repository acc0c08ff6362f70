package graphql

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Snapshot is one immutable version of the type graph. Sessions capture a
// snapshot reference; a re-introspection installs a new snapshot rather
// than mutating in place, so readers see either the old or the new graph,
// never a mix.
type Snapshot struct {
	Version uint64
	Schema  *Schema
	hash    string
}

// Hash is a stable digest of the rendered schema, used to key persisted
// embedding caches.
func (s *Snapshot) Hash() string { return s.hash }

// SnapshotStore holds the current snapshot for one origin endpoint, shared
// read-mostly across sessions.
type SnapshotStore struct {
	mu      sync.RWMutex
	current *Snapshot
	version uint64
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Current returns the installed snapshot, or nil before the first Replace.
func (s *SnapshotStore) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace installs schema as a new snapshot with the next version number.
func (s *SnapshotStore) Replace(schema *Schema) *Snapshot {
	sum := sha256.Sum256([]byte(RenderSchema(schema)))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.current = &Snapshot{
		Version: s.version,
		Schema:  schema,
		hash:    hex.EncodeToString(sum[:]),
	}
	return s.current
}
