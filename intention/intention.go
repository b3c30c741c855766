// Package intention implements the IntentionExecutor: it runs one Plan
// body coroutine on behalf of one Desire, dispatching action and sub-goal
// tasks through a Dispatcher and advancing one step per engine tick
// (spec §3, §4.6).
package intention

import (
	"time"

	"github.com/jackrun/bdicore/action"
	"github.com/jackrun/bdicore/belief"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/plan"
	"github.com/jackrun/bdicore/schema"
)

// State is the IntentionExecutor lifecycle state (spec §4.6).
type State int

// Intention states.
const (
	WaitingForPlan State = iota
	Running
	Waiting
	Success
	Fail
	Dropped
	Concluded
)

// String renders the state name.
func (s State) String() string {
	switch s {
	case WaitingForPlan:
		return "WAITING_FOR_PLAN"
	case Running:
		return "RUNNING"
	case Waiting:
		return "WAITING"
	case Success:
		return "SUCCESS"
	case Fail:
		return "FAIL"
	case Dropped:
		return "DROPPED"
	case Concluded:
		return "CONCLUDED"
	default:
		return "UNKNOWN"
	}
}

// DropMode governs whether a drop request can be refused.
type DropMode int

// Drop modes (spec §4.2).
const (
	Normal DropMode = iota
	Force
)

// DropRequest records a pending drop and its human-readable reason.
type DropRequest struct {
	Mode   DropMode
	Reason string
}

// waitKind enumerates what the coroutine is currently blocked on.
type waitKind int

const (
	waitNone waitKind = iota
	waitAction
	waitSubGoal
	waitTimer
)

// Dispatcher lets an IntentionExecutor request work from the outside world
// (service dispatch, sub-goal creation) without depending on the
// AgentExecutor/engine packages that own routing.
type Dispatcher interface {
	// DispatchAction emits an ACTION event and returns a handle correlating
	// the eventual completion. If the handler completes synchronously,
	// immediate is non-nil and the executor advances within the same tick.
	DispatchAction(intentionID ident.IntentionID, name ident.Ident, params *schema.Message) (handle ident.ActionHandle, immediate *ActionResult)
	// DispatchSubGoal creates a child Desire with parent linkage and returns
	// its handle.
	DispatchSubGoal(parent goal.ParentLink, goalName ident.Ident, params *schema.Message) ident.GoalHandle
	// Print surfaces a plan's print task, typically to a Logger.
	Print(intentionID ident.IntentionID, text string)
}

// ActionResult is the outcome of a dispatched action. Err carries structured
// failure detail (spec §7: "Bus-delivered action failures include a reason
// string"); it is nil on success and may be nil on failure too, in which
// case the executor falls back to a generic reason.
type ActionResult struct {
	Success bool
	Reply   *schema.Message
	Err     *action.Error
}

// Executor runs one Plan body on behalf of one Desire.
type Executor struct {
	ID           ident.IntentionID
	DesireHandle ident.GoalHandle

	plan *plan.Definition
	ctx  *belief.Context

	state        State
	pc           int
	isDelegated  bool
	dropRequest  *DropRequest

	wait             waitKind
	waitActionHandle ident.ActionHandle
	waitActionName   ident.Ident
	waitSubGoal      ident.GoalHandle
	waitTimerRemains time.Duration

	// asyncSubGoals tracks nowait-launched sub-goals the plan must see
	// finish before it can report SUCCESS, even though the coroutine itself
	// did not block on them.
	asyncSubGoals map[ident.GoalHandle]bool

	nowaitArmed bool
	failReason  string
}

// New constructs an Executor bound to desireHandle, starting in
// WaitingForPlan until SetPlan is called.
func New(desireHandle ident.GoalHandle) *Executor {
	return &Executor{
		DesireHandle:  desireHandle,
		ID:            ident.NewIntentionID(),
		ctx:           belief.New(),
		state:         WaitingForPlan,
		asyncSubGoals: make(map[ident.GoalHandle]bool),
	}
}

// SetPlan installs a cloned plan template, resets the coroutine to its
// first task, and transitions to Running.
func (e *Executor) SetPlan(p *plan.Definition) {
	e.plan = p
	e.pc = 0
	e.wait = waitNone
	e.nowaitArmed = false
	e.state = Running
}

// Plan returns the plan currently bound to the executor, if any.
func (e *Executor) Plan() *plan.Definition { return e.plan }

// Context returns the executor's per-intention BeliefContext scope, where
// action replies land before the next task consumes them (spec §3).
func (e *Executor) Context() *belief.Context { return e.ctx }

// State returns the current lifecycle state.
func (e *Executor) State() State { return e.state }

// IsWaitingForPlan reports whether the executor has no plan bound yet.
func (e *Executor) IsWaitingForPlan() bool { return e.state == WaitingForPlan }

// IsConcluded reports whether the executor has reached a terminal state.
func (e *Executor) IsConcluded() bool { return e.state == Concluded }

// IsDelegated reports whether this intention represents a delegation to a
// team member rather than local execution.
func (e *Executor) IsDelegated() bool { return e.isDelegated }

// SetDelegated marks the intention as representing a delegation.
func (e *Executor) SetDelegated(v bool) { e.isDelegated = v }

// RequestDrop records a pending drop; DROPPED is applied on the next Step.
func (e *Executor) RequestDrop(mode DropMode, reason string) {
	e.dropRequest = &DropRequest{Mode: mode, Reason: reason}
}

// DropRequested reports whether a drop has been requested.
func (e *Executor) DropRequested() *DropRequest { return e.dropRequest }

// NextWake reports the remaining duration until a pending TaskSleep resolves,
// used by the Engine's idle-sleep policy (spec §4.1 poll: "sleep until
// either the next agent timer fires or onIdleSleepDuration elapses").
func (e *Executor) NextWake() (time.Duration, bool) {
	if e.state != Waiting || e.wait != waitTimer {
		return 0, false
	}
	return e.waitTimerRemains, true
}

// FinishDelegationSuccess concludes the intention with SUCCESS directly,
// bypassing the drop path (spec §4.5 handleDelegationEvent: "On SUCCESS,
// finish the intention with SUCCESS"). Pending drop requests are discarded:
// a delegate that already succeeded wins over a since-superseded cancel.
func (e *Executor) FinishDelegationSuccess() {
	e.dropRequest = nil
	e.state = Success
}
