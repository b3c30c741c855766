package bdiagent

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackrun/bdicore/action"
	"github.com/jackrun/bdicore/belief"
	"github.com/jackrun/bdicore/executor"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/intention"
	"github.com/jackrun/bdicore/plan"
	"github.com/jackrun/bdicore/runlog"
	"github.com/jackrun/bdicore/schedule"
	"github.com/jackrun/bdicore/schema"
	"github.com/jackrun/bdicore/tactic"
	"github.com/jackrun/bdicore/telemetry"
)

// Registry answers everything an Agent needs about committed templates but
// does not own itself, supplied by the owning Engine at construction so
// bdiagent never imports engine (spec §4.1 template registries, §4.2).
type Registry interface {
	PlansForGoal(goalName ident.Ident) []*plan.Definition
	TacticForGoal(goalName ident.Ident) *tactic.Definition
	GoalDefinition(name ident.Ident) *goal.Definition
	ServiceHandles(service ident.BusAddress, action ident.Ident) bool
	// AnyServiceHandlesAction reports whether any service committed to the
	// engine (not just this agent's attached set) handles action, used for
	// the "unhandledActionsForwardedToFirstApplicableService" fallback
	// policy (spec §4.6).
	AnyServiceHandlesAction(action ident.Ident) bool
}

// ActionDispatcher emits the ACTION protocol event (or invokes a local
// service handler) on behalf of an Agent's IntentionExecutors (spec §4.6,
// §4.8).
type ActionDispatcher interface {
	DispatchAction(agentHandle ident.BusAddress, intentionID ident.IntentionID, actionName ident.Ident, params *schema.Message) (handle ident.ActionHandle, immediate *intention.ActionResult)
}

// Hooks are the side effects an Agent triggers into the owning Engine/Team
// layer without importing either package directly.
type Hooks struct {
	Dispatch         ActionDispatcher
	Delegate         func(handle ident.GoalHandle, delegate ident.BusAddress)
	UndelegateFrom   func(handle ident.GoalHandle, prev ident.BusAddress)
	BroadcastMessage func(msg *schema.Message)
	BDILog           func(t runlog.Type, result runlog.Result, handle ident.GoalHandle, detail string)
}

// Agent is a BDI instance: belief context, desires, and the AgentExecutor
// driving scheduling and intention execution each tick (spec §4.2).
type Agent struct {
	Handle       ident.BusAddress
	TemplateName ident.Ident
	Belief       *belief.Context

	desires []*goal.Desire
	pursues map[ident.GoalHandle]*GoalPursue

	attachedServices []ident.BusAddress
	tacticOverrides  map[ident.Ident]*tactic.Definition

	registry Registry
	hooks    Hooks
	logger   telemetry.Logger

	// providerOverride lets Team substitute itself as the schedule.Provider
	// so Delegates resolves team members; Go embedding has no virtual
	// dispatch, so Team.New installs itself here after construction.
	providerOverride schedule.Provider

	executor *executor.Executor

	started bool
	stopped bool
}

// New constructs an Agent bound to handle, backed by registry for template
// lookups and hooks for the side effects it cannot perform itself.
func New(handle ident.BusAddress, templateName ident.Ident, registry Registry, hooks Hooks, logger telemetry.Logger) *Agent {
	a := &Agent{
		Handle:          handle,
		TemplateName:    templateName,
		Belief:          belief.New(),
		pursues:         make(map[ident.GoalHandle]*GoalPursue),
		tacticOverrides: make(map[ident.Ident]*tactic.Definition),
		registry:        registry,
		hooks:           hooks,
		logger:          logger,
	}
	a.executor = executor.New(handle, a, executor.Hooks{
		Delegate:       hooks.Delegate,
		UndelegateFrom: hooks.UndelegateFrom,
		Drop: func(handle ident.GoalHandle, mode intention.DropMode, reason string) {
			if it, ok := a.executor.IntentionFor(handle); ok {
				it.RequestDrop(mode, reason)
				return
			}
			a.removeDesire(handle)
			if p, ok := a.pursues[handle]; ok {
				p.resolve(false, reason)
				delete(a.pursues, handle)
			}
		},
		Concluded: a.onIntentionConcluded,
	})
	return a
}

// Executor exposes the bound AgentExecutor, primarily for Team/engine wiring
// and tests.
func (a *Agent) Executor() *executor.Executor { return a.executor }

// SetTactic installs a per-agent tactic override for goalName, taking
// precedence over the committed (or builtin) tactic from the registry.
func (a *Agent) SetTactic(goalName ident.Ident, t *tactic.Definition) {
	a.tacticOverrides[goalName] = t
}

// Pursue creates (or, with a non-nil presetID matching an existing desire,
// re-attaches) a Desire and returns its GoalPursue (spec §4.2 pursue).
func (a *Agent) Pursue(def *goal.Definition, persistent bool, msg *schema.Message, presetID *uuid.UUID) *GoalPursue {
	if presetID != nil {
		handle := ident.GoalHandle{Name: def.Name, UUID: *presetID}
		if p, ok := a.pursues[handle]; ok {
			return p // idempotent pursue across ticks (spec §8)
		}
		d := goal.New(def, persistent, msg)
		d.Handle = handle
		return a.adopt(d)
	}
	return a.adopt(goal.New(def, persistent, msg))
}

func (a *Agent) adopt(d *goal.Desire) *GoalPursue {
	a.desires = append(a.desires, d)
	p := newGoalPursue(d.Handle)
	a.pursues[d.Handle] = p
	a.executor.Invalidate()
	if a.hooks.BDILog != nil {
		a.hooks.BDILog(runlog.GoalStarted, runlog.ResultSuccess, d.Handle, "")
	}
	return p
}

// Drop cancels handle with DropMode NORMAL (spec §4.2 drop).
func (a *Agent) Drop(handle ident.GoalHandle, reason string) bool {
	return a.DropWithMode(handle, intention.Normal, reason)
}

// DropWithMode cancels handle; a NORMAL drop refuses persistent desires, a
// FORCE drop cancels unconditionally (spec §4.2 dropWithMode, §5
// Cancellation).
func (a *Agent) DropWithMode(handle ident.GoalHandle, mode intention.DropMode, reason string) bool {
	d, ok := a.Desire(handle)
	if !ok {
		return false
	}
	if mode == intention.Normal && d.Persistent {
		return false
	}
	if it, ok := a.executor.IntentionFor(handle); ok {
		it.RequestDrop(mode, reason)
	} else {
		a.removeDesire(handle)
		if p, ok := a.pursues[handle]; ok {
			p.resolve(false, reason)
			delete(a.pursues, handle)
		}
	}
	a.executor.Invalidate()
	return true
}

func (a *Agent) removeDesire(handle ident.GoalHandle) {
	out := a.desires[:0]
	for _, d := range a.desires {
		if d.Handle != handle {
			out = append(out, d)
		}
	}
	a.desires = out
}

// Desire implements executor.DesireLookup.
func (a *Agent) Desire(handle ident.GoalHandle) (*goal.Desire, bool) {
	for _, d := range a.desires {
		if d.Handle == handle {
			return d, true
		}
	}
	return nil, false
}

// Desires returns the agent's current desire list (read-only use).
func (a *Agent) Desires() []*goal.Desire {
	return append([]*goal.Desire(nil), a.desires...)
}

// Start marks the agent eligible to run on the next engine tick.
func (a *Agent) Start() { a.started, a.stopped = true, false }

// Stop cascades a forced drop to every live intention (spec §4.2 stop,
// §4.5 stop).
func (a *Agent) Stop() {
	a.stopped = true
	a.executor.Stop(a)
}

// Running reports whether the agent is started and not stopped.
func (a *Agent) Running() bool { return a.started && !a.stopped }

// Stopped reports whether Stop has been called.
func (a *Agent) Stopped() bool { return a.stopped }

// SendMessage updates the belief store and, if broadcastToBus, emits a
// MESSAGE protocol event via the owning engine (spec §4.2 sendMessage).
func (a *Agent) SendMessage(msg *schema.Message, broadcastToBus bool) {
	a.Belief.SetMessage(msg)
	a.executor.Invalidate()
	if broadcastToBus && a.hooks.BroadcastMessage != nil {
		a.hooks.BroadcastMessage(msg)
	}
}

// AttachService records handle as a service this agent may dispatch actions
// to; force replaces an existing entry for the same address in place (spec
// §4.2 attachService).
func (a *Agent) AttachService(handle ident.BusAddress, force bool) {
	for i, s := range a.attachedServices {
		if s.Equal(handle) {
			if force {
				a.attachedServices[i] = handle
			}
			return
		}
	}
	a.attachedServices = append(a.attachedServices, handle)
}

// AttachedServices returns the service addresses this agent may dispatch
// actions to, in attach order.
func (a *Agent) AttachedServices() []ident.BusAddress {
	return append([]ident.BusAddress(nil), a.attachedServices...)
}

// Run is invoked once per engine tick: rebuild the schedule if invalidated,
// then advance every live intention (spec §4.2 run).
func (a *Agent) Run(dt time.Duration) {
	if !a.Running() {
		return
	}
	if !a.executor.ScheduleValid() {
		a.reschedule()
	}
	a.executor.Execute(dt, a.Belief, a)
}

func (a *Agent) reschedule() {
	var provider schedule.Provider = a
	if a.providerOverride != nil {
		provider = a.providerOverride
	}
	s := schedule.New(a.desires, a.Belief, provider)
	result := s.Run()
	a.executor.SetSchedule(result, a)
}

// SetProvider installs an alternate schedule.Provider used in place of the
// Agent itself when building a Schedule, letting Team substitute its own
// Delegates resolution (Go embedding has no virtual method dispatch).
func (a *Agent) SetProvider(p schedule.Provider) { a.providerOverride = p }

// PlansForGoal implements schedule.Provider.
func (a *Agent) PlansForGoal(goalName ident.Ident) []*plan.Definition {
	return a.registry.PlansForGoal(goalName)
}

// TacticForGoal implements schedule.Provider, consulting a per-agent
// override before the registry's committed (or builtin) tactic.
func (a *Agent) TacticForGoal(goalName ident.Ident) *tactic.Definition {
	if t, ok := a.tacticOverrides[goalName]; ok {
		return t
	}
	return a.registry.TacticForGoal(goalName)
}

// CanHandleAllActions implements schedule.Provider: every action task in
// p's body must be handled by an attached service, or by some committed
// service globally under the unhandled-action fallback policy (spec §4.3,
// §4.9).
func (a *Agent) CanHandleAllActions(p *plan.Definition) bool {
	for _, t := range p.Body {
		if t.Kind != plan.TaskAction {
			continue
		}
		if !a.canHandleAction(t.ActionName) {
			return false
		}
	}
	return true
}

func (a *Agent) canHandleAction(name ident.Ident) bool {
	for _, svc := range a.attachedServices {
		if a.registry.ServiceHandles(svc, name) {
			return true
		}
	}
	return a.registry.AnyServiceHandlesAction(name)
}

// Delegates implements schedule.Provider: a plain Agent has no members to
// delegate to. Team overrides this.
func (a *Agent) Delegates(ident.GoalHandle) []schedule.Delegate { return nil }

// DispatchAction implements intention.Dispatcher.
func (a *Agent) DispatchAction(intentionID ident.IntentionID, name ident.Ident, params *schema.Message) (ident.ActionHandle, *intention.ActionResult) {
	if a.hooks.Dispatch == nil {
		return ident.ActionHandle{}, &intention.ActionResult{Success: false, Err: action.NewError("no action dispatcher configured")}
	}
	return a.hooks.Dispatch.DispatchAction(a.Handle, intentionID, name, params)
}

// DispatchSubGoal implements intention.Dispatcher: creates a child Desire
// on this agent with parent linkage (spec §4.6 goal task).
func (a *Agent) DispatchSubGoal(parent goal.ParentLink, goalName ident.Ident, params *schema.Message) ident.GoalHandle {
	def := a.registry.GoalDefinition(goalName)
	if def == nil {
		return ident.GoalHandle{}
	}
	d := goal.New(def, false, params)
	d.Parent = &parent
	a.desires = append(a.desires, d)
	a.executor.Invalidate()
	if a.hooks.BDILog != nil {
		a.hooks.BDILog(runlog.SubGoalStarted, runlog.ResultSuccess, d.Handle, "")
	}
	return d.Handle
}

// Print implements intention.Dispatcher.
func (a *Agent) Print(intentionID ident.IntentionID, text string) {
	if a.logger != nil {
		a.logger.Info(context.Background(), "plan print", "intention", intentionID.String(), "text", text)
	}
}

// onIntentionConcluded is the executor.Hooks.Concluded callback: resolves
// the desire's promise, notifies a waiting parent sub-goal task, emits a
// BDI-log finish event, and removes the desire when told to (spec §4.5
// execute step 2).
func (a *Agent) onIntentionConcluded(handle ident.GoalHandle, it *intention.Executor, removeDesire bool) {
	d, _ := a.Desire(handle)
	success := it.State() == intention.Success

	result := runlog.ResultFailed
	switch it.State() {
	case intention.Success:
		result = runlog.ResultSuccess
	case intention.Dropped:
		result = runlog.ResultDropped
	}
	if a.hooks.BDILog != nil {
		a.hooks.BDILog(runlog.IntentionFinished, result, handle, it.FailReason())
		a.hooks.BDILog(runlog.GoalFinished, result, handle, it.FailReason())
	}

	if p, ok := a.pursues[handle]; ok {
		p.resolve(success, it.FailReason())
		delete(a.pursues, handle)
	}

	if d != nil && d.Parent != nil {
		for _, other := range a.executor.Intentions() {
			if other.ID == d.Parent.ParentIntentionID {
				other.OnSubGoalComplete(handle, success)
				break
			}
		}
		if a.hooks.BDILog != nil {
			a.hooks.BDILog(runlog.SubGoalFinished, result, handle, it.FailReason())
		}
	}

	if removeDesire {
		a.removeDesire(handle)
	}
	a.executor.Invalidate()
}
