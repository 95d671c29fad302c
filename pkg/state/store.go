// Package state holds the shared mutable state of a single workflow run.
// One Store exists per run; the graph and registry stay immutable, so this
// is the only thing the engine ever locks.
package state

import (
	"sync"

	"github.com/arbored/weft/pkg/domain"
)

// Store guards the evolving run state. Merges are serialized against each
// other; snapshots are cheap copies taken under a read lock, so a snapshot
// taken after Merge returns is guaranteed to include that delta.
type Store struct {
	mu     sync.RWMutex
	fields map[string]any
}

// NewStore seeds a store with the caller's initial fields.
// The seed is copied, so later mutation of the argument is invisible.
func NewStore(seed map[string]any) *Store {
	fields := make(map[string]any, len(seed))
	for k, v := range seed {
		fields[k] = v
	}
	return &Store{fields: fields}
}

// Snapshot returns an independent copy of the current fields.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(domain.Snapshot, len(s.fields))
	for k, v := range s.fields {
		snap[k] = v
	}
	return snap
}

// Merge applies all fields of the delta as one indivisible step. Fields
// are added or overwritten, never deleted; no reader observes a partially
// applied delta.
func (s *Store) Merge(delta domain.Delta) {
	if len(delta) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range delta {
		s.fields[k] = v
	}
}
