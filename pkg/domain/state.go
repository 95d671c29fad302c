package domain

import (
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// Snapshot is a point-in-time view of the shared workflow state.
// A node receives a Snapshot when it launches and must treat it as
// read-only; the engine hands every node its own copy, so mutating it
// only corrupts the local view, never the store.
type Snapshot map[string]any

// Delta is the partial state a node produces. Merging a delta adds or
// overwrites fields by name; a delta can never delete a field.
type Delta map[string]any

// Get returns the value of a field and whether it is set.
func (s Snapshot) Get(field string) (any, bool) {
	v, ok := s[field]
	return v, ok
}

// Keys returns the set field names in sorted order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent shallow copy of the snapshot.
// Field values are shared; the map itself is not. A nil snapshot clones
// to nil, so "no final state yet" survives a store round trip.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Decode projects a single loosely-typed field into a caller-declared
// struct (or slice, or scalar) using mapstructure. This is how nodes get
// typed access to state: a missing field or a shape mismatch surfaces
// here, with the field name attached, instead of deep inside prompt
// formatting.
func (s Snapshot) Decode(field string, target any) error {
	v, ok := s[field]
	if !ok {
		return fmt.Errorf("state field %q is not set", field)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("state field %q: %w", field, err)
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("state field %q: %w", field, err)
	}
	return nil
}
