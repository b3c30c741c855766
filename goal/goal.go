// Package goal defines Goal templates, the runtime Desire instances created
// from them, and the per-plan attempt history (PlanSelection) the scheduler
// consults when choosing between candidate plans (spec §3, §4.3).
package goal

import (
	"github.com/jackrun/bdicore/belief"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/schema"
)

// Predicate evaluates a boolean condition over a BeliefContext: used for
// Goal.Pre, Goal.Satisfied, Goal.DropWhen, and Plan.Pre/DropWhen.
type Predicate func(*belief.Context) bool

// Heuristic estimates the cost of pursuing a goal given a BeliefContext.
// A nil Heuristic is treated as the constant-zero function.
type Heuristic func(*belief.Context) float32

// Definition is the declarative, committed Goal template (spec §3).
type Definition struct {
	Name          ident.Ident
	MessageSchema ident.Ident // optional; empty means the goal takes no parameters

	Pre       Predicate
	Satisfied Predicate
	DropWhen  Predicate
	Heuristic Heuristic

	Persistent bool // never auto-drop on success; replanned indefinitely
	Delegated  bool // only teams may pursue this goal, via delegation
}

// HasHeuristic reports whether a non-default heuristic was supplied.
func (d *Definition) HasHeuristic() bool { return d.Heuristic != nil }

// EvalHeuristic evaluates the goal's heuristic, defaulting to 0.
func (d *Definition) EvalHeuristic(ctx *belief.Context) float32 {
	if d.Heuristic == nil {
		return 0
	}
	return d.Heuristic(ctx)
}

// EvalPre evaluates the goal's precondition, defaulting to true when unset.
func (d *Definition) EvalPre(ctx *belief.Context) bool {
	if d.Pre == nil {
		return true
	}
	return d.Pre(ctx)
}

// EvalSatisfied evaluates the goal's satisfaction predicate, defaulting to
// false (never auto-satisfied) when unset.
func (d *Definition) EvalSatisfied(ctx *belief.Context) bool {
	if d.Satisfied == nil {
		return false
	}
	return d.Satisfied(ctx)
}

// EvalDropWhen evaluates the goal's drop predicate, defaulting to false.
func (d *Definition) EvalDropWhen(ctx *belief.Context) bool {
	if d.DropWhen == nil {
		return false
	}
	return d.DropWhen(ctx)
}

// ParentLink records the sub-goal relationship to the intention and task
// that spawned this desire via a `goal(...)` task (spec §4.6).
type ParentLink struct {
	ParentIntentionID ident.IntentionID
	ParentTaskID      ident.ActionHandle
}

// PlanHistory tracks one plan's attempt history within a PlanSelection
// (spec §3, §4.3 computeGoalPlanInfo).
type PlanHistory struct {
	LastLoopIteration int
	SuccessCount      int
	FailCount         int
}

// PlanSelection is the per-desire plan-attempt bookkeeping the scheduler
// consults via computeGoalPlanInfo, inherited down the search tree from the
// nearest ancestor node pursuing the same goal, or from the root desire
// (spec §3, §4.3).
type PlanSelection struct {
	History map[ident.Ident]*PlanHistory

	// PlanListIndex/PlanLoopIteration are meaningful only for tactics using
	// a fixed plan list (Strict / ExcludePlanAfterAttempt ordering).
	PlanListIndex     int
	PlanLoopIteration int
}

// NewPlanSelection constructs an empty PlanSelection.
func NewPlanSelection() PlanSelection {
	return PlanSelection{History: make(map[ident.Ident]*PlanHistory)}
}

// FindOrMakeHistory returns the PlanHistory for planName, creating an empty
// one on first reference.
func (s *PlanSelection) FindOrMakeHistory(planName ident.Ident) *PlanHistory {
	if s.History == nil {
		s.History = make(map[ident.Ident]*PlanHistory)
	}
	h, ok := s.History[planName]
	if !ok {
		h = &PlanHistory{}
		s.History[planName] = h
	}
	return h
}

// Clone returns a deep copy of the selection state, used when a search node
// forks the selection it inherited from its ancestor.
func (s PlanSelection) Clone() PlanSelection {
	c := PlanSelection{
		History:           make(map[ident.Ident]*PlanHistory, len(s.History)),
		PlanListIndex:     s.PlanListIndex,
		PlanLoopIteration: s.PlanLoopIteration,
	}
	for k, v := range s.History {
		h := *v
		c.History[k] = &h
	}
	return c
}

// Desire is a runtime instance of a Goal Definition, added to an agent via
// pursue (spec §3, §4.2).
type Desire struct {
	Handle      ident.GoalHandle
	Def         *Definition
	Persistent  bool
	Msg         *schema.Message
	Selection   PlanSelection
	Parent      *ParentLink
	CanBePlanned bool
}

// New constructs a Desire from a committed Definition, pursue's
// `persistence` flag, and an optional parameter message. The Desire is
// persistent if either the flag or the template's Persistent default is set.
func New(def *Definition, persistent bool, msg *schema.Message) *Desire {
	return &Desire{
		Handle:     ident.NewGoalHandle(def.Name),
		Def:        def,
		Persistent: persistent || def.Persistent,
		Msg:        msg,
		Selection:  NewPlanSelection(),
	}
}
