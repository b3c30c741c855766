// Package executor implements the AgentExecutor: it reconciles a freshly
// built Schedule with the intentions already running, ticks them forward
// one step per engine poll, routes delegation and drop side effects, and
// retires concluded intentions (spec §4.5).
package executor

import (
	"time"

	"github.com/jackrun/bdicore/belief"
	"github.com/jackrun/bdicore/dag"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/intention"
	"github.com/jackrun/bdicore/schedule"
	"github.com/jackrun/bdicore/schema"
)

// DesireLookup answers whether a goal handle is still among an agent's live
// desires, used to decide whether a stale intention (one whose goal didn't
// make it into the newest DAG) should be preserved or dropped (spec §9,
// AGENT_REMOVE_IMPOSSIBLE_GOALS_AFTER_SCHEDULING_WORK_AROUND).
type DesireLookup interface {
	Desire(handle ident.GoalHandle) (*goal.Desire, bool)
	// Desires enumerates every live desire, used by Stop to find desires that
	// never got an intention at all (spec §4.5 stop).
	Desires() []*goal.Desire
}

// Hooks are the side effects an Executor triggers into the owning
// agent/engine layer without depending on their packages directly.
type Hooks struct {
	// Delegate is called the first time a goal is assigned to a delegate in
	// a given schedule (spec §4.5 setSchedule step 2).
	Delegate func(handle ident.GoalHandle, delegate ident.BusAddress)
	// UndelegateFrom is called when a previous delegation to prev must be
	// cancelled because the new schedule picked a different delegate.
	UndelegateFrom func(handle ident.GoalHandle, prev ident.BusAddress)
	// Drop is called to cancel an intention no longer backed by a live
	// desire or present DAG node (internalDrop, spec §4.5 setSchedule step
	// 4, and stop(), spec §4.5 stop).
	Drop func(handle ident.GoalHandle, mode intention.DropMode, reason string)
	// Concluded is called once an intention reaches CONCLUDED and is about
	// to be removed, so the owning layer can retire the desire and emit a
	// BDI-log finish event (spec §4.5 execute step 2, §8).
	Concluded func(handle ident.GoalHandle, it *intention.Executor, removeDesire bool)
}

// Executor is the AgentExecutor (spec §4.5).
type Executor struct {
	agentHandle ident.BusAddress
	dispatcher  intention.Dispatcher
	hooks       Hooks

	dag         *dag.DAG
	intentions  []*intention.Executor
	dagLookup   map[ident.IntentionID]dag.NodeID
	delegations map[ident.GoalHandle]ident.BusAddress

	scheduleValid bool
	stopping      bool

	waitingCount int
	workingCount int
}

// New constructs an Executor bound to the given agent address, dispatcher,
// and side-effect hooks.
func New(agentHandle ident.BusAddress, dispatcher intention.Dispatcher, hooks Hooks) *Executor {
	return &Executor{
		agentHandle: agentHandle,
		dispatcher:  dispatcher,
		hooks:       hooks,
		dagLookup:   make(map[ident.IntentionID]dag.NodeID),
		delegations: make(map[ident.GoalHandle]ident.BusAddress),
	}
}

// ScheduleValid reports whether the current DAG still reflects the latest
// schedule (cleared whenever beliefs/desires change; agents consult this to
// decide whether a fresh Schedule needs to be built before calling
// SetSchedule again, spec §4.2 run()).
func (e *Executor) ScheduleValid() bool { return e.scheduleValid }

// Invalidate marks the current schedule stale.
func (e *Executor) Invalidate() { e.scheduleValid = false }

// IntentionFor returns the live IntentionExecutor backing handle, if any.
func (e *Executor) IntentionFor(handle ident.GoalHandle) (*intention.Executor, bool) {
	for _, it := range e.intentions {
		if it.DesireHandle == handle {
			return it, true
		}
	}
	return nil, false
}

// SetSchedule rebuilds the DAG from result and reconciles it with the
// currently running intentions (spec §4.5 setSchedule).
func (e *Executor) SetSchedule(result schedule.Result, lookup DesireLookup) {
	e.dag = dag.New(result)
	e.scheduleValid = true

	opened := e.dag.Open()

	// Step 2: drop delegations superseded by a different delegate.
	seen := make(map[ident.GoalHandle]bool, len(opened))
	for _, n := range opened {
		if !n.IsDelegation() {
			continue
		}
		h := n.GoalHandle()
		seen[h] = true
		if prev, ok := e.delegations[h]; ok && !prev.Equal(n.Search.Delegate) {
			if e.hooks.UndelegateFrom != nil {
				e.hooks.UndelegateFrom(h, prev)
			}
			delete(e.delegations, h)
		}
	}

	// Step 3: bind (or create) an IntentionExecutor per open node.
	for _, n := range opened {
		it, ok := e.IntentionFor(n.GoalHandle())
		if !ok {
			it = intention.New(n.GoalHandle())
			e.intentions = append(e.intentions, it)
		}
		e.processDAGNode(it, n, onNewSchedule, lookup)
	}

	// Step 4: drop intentions whose goal no longer appears in the DAG,
	// unless delegated or the desire is merely unschedulable-this-round.
	inDAG := make(map[ident.GoalHandle]bool, len(e.dag.Nodes()))
	for _, n := range e.dag.Nodes() {
		inDAG[n.GoalHandle()] = true
	}
	for _, it := range e.intentions {
		if inDAG[it.DesireHandle] || it.IsDelegated() {
			continue
		}
		if _, stillDesired := lookup.Desire(it.DesireHandle); stillDesired {
			continue // preserve: plannable desire just wasn't picked this round
		}
		if e.hooks.Drop != nil {
			e.hooks.Drop(it.DesireHandle, intention.Normal, "goal no longer schedulable")
		}
	}
}

type reconcileMode int

const (
	onNewSchedule reconcileMode = iota
	onClose
)

// processDAGNode installs the decision carried by node onto it (spec §4.5
// processDAGNode).
func (e *Executor) processDAGNode(it *intention.Executor, node *dag.Node, mode reconcileMode, lookup DesireLookup) {
	switch node.Search.Decision {
	case schedule.DecisionPlan:
		needsChange := mode == onClose
		if mode == onNewSchedule {
			cur := it.Plan()
			needsChange = cur == nil || cur.Name != node.Search.Plan.Name
		}
		if needsChange {
			it.SetPlan(node.Search.Plan.Clone())
		}
		it.Context().SetAgentContext(e.agentHandle)
		if d, ok := lookup.Desire(it.DesireHandle); ok && d.Msg != nil {
			it.Context().SetGoalContext(d.Msg)
		}
	case schedule.DecisionDelegate:
		it.SetDelegated(true)
		if _, already := e.delegations[it.DesireHandle]; !already {
			e.delegations[it.DesireHandle] = node.Search.Delegate
			if e.hooks.Delegate != nil {
				e.hooks.Delegate(it.DesireHandle, node.Search.Delegate)
			}
		}
	case schedule.DecisionNull:
		// No assignment this round; the goal stays desired.
	}
	node.Intention = it
	e.dagLookup[it.ID] = node.ID
}

// update locks each running intention's plan resource locks, steps it one
// tick, then releases those locks exactly once (spec §4.5 update).
func (e *Executor) update(dt time.Duration, ctx *belief.Context) {
	e.waitingCount, e.workingCount = 0, 0
	var locked [][]ident.Ident

	for _, it := range e.intentions {
		var locks []ident.Ident
		if p := it.Plan(); p != nil {
			locks = p.ResourceLocks
		}
		ctx.LockResources(locks)
		locked = append(locked, locks)

		it.Step(dt, e.dispatcher)

		switch it.State() {
		case intention.Waiting:
			e.waitingCount++
		case intention.Running:
			e.workingCount++
		}
	}

	for _, locks := range locked {
		ctx.UnlockResources(locks)
	}
}

// Execute is the per-tick driver (spec §4.5 execute).
func (e *Executor) Execute(dt time.Duration, ctx *belief.Context, lookup DesireLookup) {
	if e.dag == nil {
		return
	}
	e.update(dt, ctx)

	snapshot := append([]*intention.Executor(nil), e.intentions...)
	for _, it := range snapshot {
		if !it.IsConcluded() && !it.IsWaitingForPlan() {
			continue
		}

		nodeID, ok := e.dagLookup[it.ID]
		if ok {
			for _, opened := range e.dag.Close(nodeID) {
				next, exists := e.IntentionFor(opened.GoalHandle())
				if !exists {
					next = intention.New(opened.GoalHandle())
					e.intentions = append(e.intentions, next)
				}
				e.processDAGNode(next, opened, onClose, lookup)
			}
		}

		if it.IsConcluded() {
			e.retire(it, lookup)
		}
	}
}

// retire removes a concluded intention, deleting its backing desire when
// the goal is non-persistent, the drop was forced, or the agent is
// stopping (spec §4.5 execute step 2).
func (e *Executor) retire(it *intention.Executor, lookup DesireLookup) {
	d, stillDesired := lookup.Desire(it.DesireHandle)
	removeDesire := e.stopping || !stillDesired
	if stillDesired {
		forced := it.DropRequested() != nil && it.DropRequested().Mode == intention.Force
		removeDesire = forced || !d.Persistent || e.stopping
	}

	if e.hooks.Concluded != nil {
		e.hooks.Concluded(it.DesireHandle, it, removeDesire)
	}
	delete(e.delegations, it.DesireHandle)
	delete(e.dagLookup, it.ID)
	e.removeIntention(it)
}

func (e *Executor) removeIntention(target *intention.Executor) {
	out := e.intentions[:0]
	for _, it := range e.intentions {
		if it != target {
			out = append(out, it)
		}
	}
	e.intentions = out
}

// OnActionTaskComplete resolves a pending action wait for the matching
// intention and deposits its reply into that intention's belief scope
// (spec §4.5 onActionTaskComplete).
func (e *Executor) OnActionTaskComplete(intentionID ident.IntentionID, handle ident.ActionHandle, success bool, reply *schema.Message, reason string) bool {
	for _, it := range e.intentions {
		if it.ID == intentionID {
			return it.OnActionComplete(handle, success, reply, reason)
		}
	}
	return false
}

// HandleDelegationEvent resolves a delegation status update against the
// matching intention: SUCCESS finishes it, FAIL drops it so the team
// replans next tick (spec §4.5 handleDelegationEvent).
func (e *Executor) HandleDelegationEvent(handle ident.GoalHandle, success bool, reason string) bool {
	it, ok := e.IntentionFor(handle)
	if !ok {
		return false
	}
	if success {
		it.FinishDelegationSuccess()
	} else {
		it.RequestDrop(intention.Normal, "team delegation failed: "+reason)
	}
	return true
}

// Stop erases every desire with no live intention directly, then cancels
// every remaining live intention (spec §4.5 stop).
func (e *Executor) Stop(lookup DesireLookup) {
	e.stopping = true
	for _, d := range lookup.Desires() {
		if _, ok := e.IntentionFor(d.Handle); ok {
			continue
		}
		if e.hooks.Drop != nil {
			e.hooks.Drop(d.Handle, intention.Force, "Stopping agent")
		}
	}
	for _, it := range e.intentions {
		if it.State() == intention.Concluded {
			continue
		}
		it.RequestDrop(intention.Force, "Stopping agent")
	}
}

// WaitingCount/WorkingCount report the most recent tick's intention tally,
// used by the engine's PollResult (spec §4.1 poll).
func (e *Executor) WaitingCount() int { return e.waitingCount }
func (e *Executor) WorkingCount() int { return e.workingCount }

// Intentions returns the live intention list (read-only use by callers that
// need to inspect state, e.g. tests and BDI-log emission).
func (e *Executor) Intentions() []*intention.Executor {
	return append([]*intention.Executor(nil), e.intentions...)
}

// NextWake reports the soonest pending TaskSleep deadline across every live
// intention, used by the Engine's idle-sleep policy (spec §4.1 poll).
func (e *Executor) NextWake() (time.Duration, bool) {
	var soonest time.Duration
	found := false
	for _, it := range e.intentions {
		d, ok := it.NextWake()
		if !ok {
			continue
		}
		if !found || d < soonest {
			soonest, found = d, true
		}
	}
	return soonest, found
}
