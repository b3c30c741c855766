// Package tactic defines plan-selection policy: which of a goal's candidate
// plans the scheduler should prefer, and how repeated attempts are tracked
// (spec §3, §4.3 computeGoalPlanInfo).
package tactic

import "github.com/jackrun/bdicore/ident"

// PlanOrder selects the policy computeGoalPlanInfo applies when narrowing a
// goal's candidate plan set.
type PlanOrder int

// Plan-selection orderings (spec §3).
const (
	// ChooseBestPlan lets the scheduler cost every candidate plan and pick
	// the cheapest; no attempt-based exclusion.
	ChooseBestPlan PlanOrder = iota
	// ExcludePlanAfterAttempt removes a plan from consideration once it has
	// been tried this loop iteration, until the plan list is exhausted.
	ExcludePlanAfterAttempt
	// Strict walks the plan list in a fixed round-robin order.
	Strict
)

const infiniteLoopPlansCount = -1

// Infinite is the sentinel LoopPlansCount meaning "no cap" (N ∪ {∞}).
const Infinite = infiniteLoopPlansCount

// Definition is the declarative, committed Tactic template (spec §3).
type Definition struct {
	Name     ident.Ident
	GoalName ident.Ident
	Plans    []ident.Ident

	PlanOrder      PlanOrder
	LoopPlansCount int // Infinite for unbounded
	IsUsingPlanList bool
}

// Builtin constructs the default tactic auto-created by commitGoal: an
// unrestricted ChooseBestPlan policy over every plan later committed for
// goalName (spec §4.1). Plans is left empty; the engine resolves eligible
// plans for a builtin tactic by scanning plans whose GoalName matches.
func Builtin(goalName ident.Ident) *Definition {
	return &Definition{
		Name:           ident.Ident(string(goalName) + " Builtin Tactic"),
		GoalName:       goalName,
		PlanOrder:      ChooseBestPlan,
		LoopPlansCount: Infinite,
	}
}

// Dedup rewrites d.Plans to a stable-ordered set, applied on commit when
// PlanOrder is ChooseBestPlan (spec §3: "the plans list is deduplicated to a
// set on commit").
func (d *Definition) Dedup() {
	if d.PlanOrder != ChooseBestPlan {
		return
	}
	seen := make(map[ident.Ident]bool, len(d.Plans))
	out := d.Plans[:0]
	for _, p := range d.Plans {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	d.Plans = out
}

// Exhausted reports whether planLoopIteration has reached LoopPlansCount,
// meaning the goal has used up its plan-retry allowance this cycle.
func (d *Definition) Exhausted(planLoopIteration int) bool {
	if d.LoopPlansCount == Infinite {
		return false
	}
	return planLoopIteration >= d.LoopPlansCount
}
