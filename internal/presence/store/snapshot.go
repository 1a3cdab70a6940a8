package store

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Snapshot is an immutable copy of the value under a path at one instant.
type Snapshot struct {
	path  string
	value any
}

// NewSnapshot wraps a decoded value. Mostly useful in tests.
func NewSnapshot(path string, value any) Snapshot {
	return Snapshot{path: path, value: value}
}

func (s Snapshot) Path() string { return s.path }

// Key is the last segment of the path.
func (s Snapshot) Key() string { return Key(s.path) }

// Exists reports whether anything is stored at the path.
func (s Snapshot) Exists() bool { return s.value != nil }

// Value is the raw decoded tree: map[string]any, string, json.Number, bool.
func (s Snapshot) Value() any { return s.value }

// Child returns the snapshot of a direct child.
func (s Snapshot) Child(key string) Snapshot {
	p := s.path + "/" + key
	m, ok := s.value.(map[string]any)
	if !ok {
		return Snapshot{path: p}
	}
	return Snapshot{path: p, value: m[key]}
}

// Children returns the direct children in key order, which is the order the
// store delivers them in.
func (s Snapshot) Children() []Snapshot {
	m, ok := s.value.(map[string]any)
	if !ok {
		return nil
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Snapshot, 0, len(keys))
	for _, k := range keys {
		out = append(out, Snapshot{path: s.path + "/" + k, value: m[k]})
	}
	return out
}

// Decode unmarshals the value into dst through encoding/json.
func (s Snapshot) Decode(dst any) error {
	if !s.Exists() {
		return ErrNotFound
	}
	raw, err := json.Marshal(s.value)
	if err != nil {
		return fmt.Errorf("store: decode %s: %w", s.path, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("store: decode %s: %w", s.path, err)
	}
	return nil
}
