package belief

import "github.com/jackrun/bdicore/ident"

// Resource tracks an integer-bounded, reference-counted lock used to
// serialise plans that touch the same shared resource (spec §3, §4.7).
// A Resource is violated when its Count leaves [Min, Max]; Min/Max are
// optional (HasMin/HasMax false means unbounded on that side).
type Resource struct {
	Name      ident.Ident
	Min       int64
	HasMin    bool
	Max       int64
	HasMax    bool
	Count     int64
	lockCount int64
}

// NewResource constructs a Resource with the given bounds. Pass hasMin/hasMax
// false to leave that side unbounded.
func NewResource(name ident.Ident, min int64, hasMin bool, max int64, hasMax bool) *Resource {
	return &Resource{Name: name, Min: min, HasMin: hasMin, Max: max, HasMax: hasMax}
}

// Violated reports whether Count currently sits outside [Min, Max].
func (r *Resource) Violated() bool {
	if r.HasMin && r.Count < r.Min {
		return true
	}
	if r.HasMax && r.Count > r.Max {
		return true
	}
	return false
}

// Lock increments the reference count on the resource. Plans declare a set
// of resourceLocks; the AgentExecutor locks them once per tick before
// advancing intentions and unlocks them exactly once at the end (spec §4.5).
func (r *Resource) Lock() {
	r.lockCount++
	r.Count++
}

// Unlock decrements the reference count. Unlock without a matching prior
// Lock is a caller bug; it is a no-op rather than panicking so a stray
// double-unlock during teardown does not crash the engine tick.
func (r *Resource) Unlock() {
	if r.lockCount == 0 {
		return
	}
	r.lockCount--
	r.Count--
}

// Clone returns a copy of r, used when cloning a BeliefContext to model a
// plan's effects during scheduling.
func (r *Resource) Clone() *Resource {
	c := *r
	return &c
}
