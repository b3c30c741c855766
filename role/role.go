// Package role defines Role templates: named groupings of goals a member
// may be delegated and the shared belief channels a team exposes to that
// member (spec §3).
package role

import "github.com/jackrun/bdicore/ident"

// BeliefSet names one belief channel a Role grants access to, with explicit
// read/write flags governing which direction beliefs flow between a team
// member and the team (spec §3).
type BeliefSet struct {
	Name  ident.Ident
	Read  bool
	Write bool
}

// Definition is the declarative, committed Role template.
type Definition struct {
	Name       ident.Ident
	Goals      []ident.Ident
	BeliefSets []BeliefSet
}

// HandlesGoal reports whether goalName is one of the goals this role is
// willing to receive as a delegation.
func (d *Definition) HandlesGoal(goalName ident.Ident) bool {
	for _, g := range d.Goals {
		if g == goalName {
			return true
		}
	}
	return false
}

// Readable reports whether belief channel name is readable under this role.
func (d *Definition) Readable(name ident.Ident) bool {
	for _, bs := range d.BeliefSets {
		if bs.Name == name {
			return bs.Read
		}
	}
	return false
}

// Writable reports whether belief channel name is writable under this role.
func (d *Definition) Writable(name ident.Ident) bool {
	for _, bs := range d.BeliefSets {
		if bs.Name == name {
			return bs.Write
		}
	}
	return false
}
