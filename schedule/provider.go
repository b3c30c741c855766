package schedule

import (
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/plan"
	"github.com/jackrun/bdicore/tactic"
)

// Delegate is one team member eligible to bid on a delegated goal. Bid is
// synchronous: the engine's single-threaded tick model lets the scheduler
// call directly into a co-resident member's cost function rather than
// round-tripping through the event queue, which is how the original
// auction's request/PENDING_COST/response cycle collapses when delegate
// and delegator share an engine (spec §4.3; cross-engine delegates are
// reached through a BusAdapter one layer up, in package engine, and arrive
// pre-resolved here).
type Delegate struct {
	Address ident.BusAddress
	Bid     func(goalHandle ident.GoalHandle) (cost float64, ok bool)
}

// Provider supplies the Scheduler with everything about the outside world
// it needs but does not own: committed plans and tactics, action
// availability, and team delegates.
type Provider interface {
	// PlansForGoal returns every committed plan handling goalName.
	PlansForGoal(goalName ident.Ident) []*plan.Definition
	// TacticForGoal returns the committed (or builtin) tactic for goalName.
	TacticForGoal(goalName ident.Ident) *tactic.Definition
	// CanHandleAllActions reports whether the agent (or an attached
	// service) can execute every action task in p's body.
	CanHandleAllActions(p *plan.Definition) bool
	// Delegates returns eligible team members for a delegated goal; nil or
	// empty for a non-team agent or a goal with no eligible member.
	Delegates(goalHandle ident.GoalHandle) []Delegate
}
