package annotation

import (
	"slices"

	"github.com/matzehuels/socraticboard/pkg/geometry"
)

// Registry holds pending annotations in insertion order plus the cached
// screen position of each one.
//
// Every id in the position cache belongs to a pending annotation. A pending
// annotation may briefly have no position, until the next placement pass.
//
// Registry performs no computation and no locking; the owner serializes
// access.
type Registry struct {
	pending   []Annotation
	positions map[string]geometry.Position
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{positions: make(map[string]geometry.Position)}
}

// AddPending appends a to the pending list. Ids must be unique; the
// registry does not check for collisions.
func (r *Registry) AddPending(a Annotation) {
	r.pending = append(r.pending, a)
}

// RemovePending removes the annotation with the given id and its cached
// position. It reports whether an annotation was removed; removing an
// unknown id is a no-op.
func (r *Registry) RemovePending(id string) bool {
	delete(r.positions, id)
	i := r.index(id)
	if i < 0 {
		return false
	}
	r.pending = slices.Delete(r.pending, i, i+1)
	return true
}

// Position returns the cached position for id.
func (r *Registry) Position(id string) (geometry.Position, bool) {
	p, ok := r.positions[id]
	return p, ok
}

// SetPosition inserts or overwrites the cached position for id.
// Positions are only recorded for pending ids.
func (r *Registry) SetPosition(id string, p geometry.Position) {
	if r.index(id) < 0 {
		return
	}
	r.positions[id] = p
}

// Clear drops every pending annotation and cached position.
func (r *Registry) Clear() {
	r.pending = nil
	clear(r.positions)
}

// Get returns the pending annotation with the given id.
func (r *Registry) Get(id string) (Annotation, bool) {
	if i := r.index(id); i >= 0 {
		return r.pending[i], true
	}
	return Annotation{}, false
}

// Pending returns a copy of the pending annotations in insertion order.
func (r *Registry) Pending() []Annotation {
	return slices.Clone(r.pending)
}

// Len returns the number of pending annotations.
func (r *Registry) Len() int { return len(r.pending) }

// Positioned returns the number of pending annotations with a position.
func (r *Registry) Positioned() int { return len(r.positions) }

func (r *Registry) index(id string) int {
	return slices.IndexFunc(r.pending, func(a Annotation) bool { return a.ID == id })
}
