// Package registry tracks device node families and the nodes currently
// registered within them.
//
// A family is the set of device nodes sharing a (node type, major number)
// identity. Families are created lazily on first sighting and live for the
// process lifetime; the registry only ever grows. All registry state is
// owned by the single event loop goroutine, so no locking is done here.
package registry

import (
	"errors"

	"devmapperd/internal/match"
	"devmapperd/internal/suffix"
)

// ErrNodeExists reports an attempt to register a node under a device path
// the family already tracks. The existing entry is kept.
var ErrNodeExists = errors.New("registry: device path already registered")

// Node is one currently live device special file. The minor number joins
// the node back to its kernel identity; the path is its allocated location
// until removal.
type Node struct {
	DevicePath  string
	MinorNumber uint32
}

// Family owns the suffix allocation map and the registered-node set for one
// (node type, major number) identity.
type Family struct {
	Major    uint32
	NodeType match.NodeType
	Label    string
	Suffixes *suffix.Allocator

	nodes map[string]Node
}

// AddNode records a node keyed by device path with keep-existing conflict
// semantics: a duplicate path fails with ErrNodeExists and leaves the
// existing entry untouched.
func (f *Family) AddNode(n Node) error {
	if _, ok := f.nodes[n.DevicePath]; ok {
		return ErrNodeExists
	}
	f.nodes[n.DevicePath] = n
	return nil
}

// NodesByMinor returns every registered node with the given minor number.
func (f *Family) NodesByMinor(minor uint32) []Node {
	var out []Node
	for _, n := range f.nodes {
		if n.MinorNumber == minor {
			out = append(out, n)
		}
	}
	return out
}

// RemoveByMinor deletes every registered node with the given minor number
// and reports whether anything was removed.
func (f *Family) RemoveByMinor(minor uint32) bool {
	removed := false
	for path, n := range f.nodes {
		if n.MinorNumber == minor {
			delete(f.nodes, path)
			removed = true
		}
	}
	return removed
}

// Len returns the number of registered nodes.
func (f *Family) Len() int {
	return len(f.nodes)
}

// Registry is the append-only store of families.
type Registry struct {
	families []*Family
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Find returns the family for a (node type, major number) pair, or nil.
func (r *Registry) Find(nodeType match.NodeType, major uint32) *Family {
	for _, f := range r.families {
		if f.Major == major && f.NodeType == nodeType {
			return f
		}
	}
	return nil
}

// FindOrCreate returns the existing family for the pair, or creates one
// with a fresh allocation map and the rule's family label.
func (r *Registry) FindOrCreate(rule *match.Rule, nodeType match.NodeType, major uint32) *Family {
	if f := r.Find(nodeType, major); f != nil {
		return f
	}
	f := &Family{
		Major:    major,
		NodeType: nodeType,
		Label:    rule.Family,
		Suffixes: suffix.NewAllocator(suffix.DefaultCapacity),
		nodes:    make(map[string]Node),
	}
	r.families = append(r.families, f)
	return f
}

// Len returns the number of families created so far.
func (r *Registry) Len() int {
	return len(r.families)
}
