// Package plan defines Plan templates: preconditions, optional effect
// modelling for the scheduler, declared resource locks, and the coroutine
// task body executed by an IntentionExecutor (spec §3, §4.6).
package plan

import (
	"github.com/jackrun/bdicore/belief"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/schema"
)

// Predicate re-exports goal.Predicate for readability within plan bodies.
type Predicate = goal.Predicate

// Effects mutates a cloned BeliefContext to model the outcome of running a
// plan, so the scheduler can estimate downstream cost without performing
// any real side effect (spec §4.3 step 4).
type Effects func(*belief.Context)

// TaskKind enumerates the coroutine task types a Plan body may contain
// (spec §4.6).
type TaskKind int

// Task kinds.
const (
	TaskAction TaskKind = iota
	TaskGoal
	TaskSleep
	TaskCond
	TaskLabel
	TaskPrint
	TaskYield
	TaskNowait
	TaskOnSuccess
)

// Task is one step of a Plan's coroutine body. Only the fields relevant to
// Kind are meaningful; TaskID is assigned when the task is first dispatched
// by an IntentionExecutor, not when the template is authored.
type Task struct {
	Kind TaskKind

	// TaskAction
	ActionName ident.Ident
	Params     *schema.Message

	// TaskGoal
	GoalName   ident.Ident
	GoalParams *schema.Message

	// TaskSleep
	SleepMillis int64

	// TaskCond
	Cond       Predicate
	OnFailStep int

	// TaskLabel / TaskOnSuccess
	Step int

	// TaskPrint
	Text string
}

// Body is an ordered coroutine task sequence. Label/OnSuccess/Cond steps
// reference positions by index into Body.
type Body []Task

// Definition is the declarative, committed Plan template (spec §3).
type Definition struct {
	Name     ident.Ident
	GoalName ident.Ident

	Pre      Predicate
	DropWhen Predicate

	Effects        Effects
	CanModelEffect bool

	ResourceLocks []ident.Ident

	Body Body
}

// EvalPre evaluates the plan's precondition, defaulting to true when unset.
func (d *Definition) EvalPre(ctx *belief.Context) bool {
	if d.Pre == nil {
		return true
	}
	return d.Pre(ctx)
}

// EvalDropWhen evaluates the plan's drop predicate, defaulting to false.
func (d *Definition) EvalDropWhen(ctx *belief.Context) bool {
	if d.DropWhen == nil {
		return false
	}
	return d.DropWhen(ctx)
}

// ApplyEffects runs the plan's effect model against ctx (expected to already
// be a clone); a no-op when CanModelEffect is false or Effects is nil.
func (d *Definition) ApplyEffects(ctx *belief.Context) {
	if !d.CanModelEffect || d.Effects == nil {
		return
	}
	d.Effects(ctx)
}

// Clone returns a value copy of the plan template suitable for binding to a
// fresh IntentionExecutor. Task bodies are immutable once authored, so a
// shallow slice copy is sufficient; ResourceLocks is copied defensively so
// callers can't mutate the shared template through the clone.
func (d *Definition) Clone() *Definition {
	c := *d
	c.ResourceLocks = append([]ident.Ident(nil), d.ResourceLocks...)
	c.Body = append(Body(nil), d.Body...)
	return &c
}
