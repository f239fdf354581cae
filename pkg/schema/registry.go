package schema

import (
	"sort"
)

// Registry owns every named schema node. It is seeded once from the document,
// written only while normalization runs, and read-only after Freeze.
//
// Entries are never removed or renamed: Insert only adds absent names and
// Replace only rewrites names that already exist.
type Registry struct {
	entries map[string]*Node
	frozen  bool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Node)}
}

// Get returns the node stored under name
func (r *Registry) Get(name string) (*Node, bool) {
	n, ok := r.entries[name]
	return n, ok
}

// Has reports whether name is registered
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Insert stores n under name if the name is free and the registry is not frozen
func (r *Registry) Insert(name string, n *Node) bool {
	if r.frozen || r.Has(name) {
		return false
	}
	r.entries[name] = n
	return true
}

// Replace rewrites the content of an existing entry
func (r *Registry) Replace(name string, n *Node) bool {
	if r.frozen || !r.Has(name) {
		return false
	}
	r.entries[name] = n
	return true
}

// Names returns every registered name, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries
func (r *Registry) Len() int {
	return len(r.entries)
}

// Freeze makes the registry read-only
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether Freeze has been called
func (r *Registry) Frozen() bool {
	return r.frozen
}

// Clone returns an unfrozen deep copy
func (r *Registry) Clone() *Registry {
	out := NewRegistry()
	for name, n := range r.entries {
		out.entries[name] = n.Clone()
	}
	return out
}
