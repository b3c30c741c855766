package bdiagent

import (
	"testing"

	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/intention"
	"github.com/jackrun/bdicore/plan"
	"github.com/jackrun/bdicore/runlog"
	"github.com/jackrun/bdicore/tactic"
	"github.com/jackrun/bdicore/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistry answers Agent's template lookups from fixed maps, mimicking
// the subset of Engine the tests exercise.
type fakeRegistry struct {
	plans    map[ident.Ident][]*plan.Definition
	tactics  map[ident.Ident]*tactic.Definition
	goalDefs map[ident.Ident]*goal.Definition
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		plans:    make(map[ident.Ident][]*plan.Definition),
		tactics:  make(map[ident.Ident]*tactic.Definition),
		goalDefs: make(map[ident.Ident]*goal.Definition),
	}
}

func (r *fakeRegistry) PlansForGoal(name ident.Ident) []*plan.Definition { return r.plans[name] }
func (r *fakeRegistry) TacticForGoal(name ident.Ident) *tactic.Definition {
	if t, ok := r.tactics[name]; ok {
		return t
	}
	return tactic.Builtin(name)
}
func (r *fakeRegistry) GoalDefinition(name ident.Ident) *goal.Definition { return r.goalDefs[name] }
func (r *fakeRegistry) ServiceHandles(ident.BusAddress, ident.Ident) bool { return false }
func (r *fakeRegistry) AnyServiceHandlesAction(ident.Ident) bool         { return false }

func trivialGoalAndPlan(registry *fakeRegistry, name ident.Ident) *goal.Definition {
	def := &goal.Definition{Name: name}
	registry.goalDefs[name] = def
	registry.plans[name] = []*plan.Definition{{Name: name + " plan", GoalName: name}}
	return def
}

func TestAgentPursueIsIdempotentAcrossSameHandle(t *testing.T) {
	registry := newFakeRegistry()
	def := trivialGoalAndPlan(registry, "climb")
	a := New(ident.NewBusAddress(ident.NodeAgent, "a"), "worker", registry, Hooks{}, telemetry.NewNoopLogger())

	presetID := ident.NewGoalHandle("climb").UUID
	p1 := a.Pursue(def, false, nil, &presetID)
	p2 := a.Pursue(def, false, nil, &presetID)
	assert.Same(t, p1, p2)
	assert.Len(t, a.Desires(), 1)
}

func TestAgentDropRefusesPersistentUnderNormalMode(t *testing.T) {
	registry := newFakeRegistry()
	def := trivialGoalAndPlan(registry, "watch")
	a := New(ident.NewBusAddress(ident.NodeAgent, "a"), "worker", registry, Hooks{}, telemetry.NewNoopLogger())

	p := a.Pursue(def, true, nil, nil)
	assert.False(t, a.Drop(p.Handle, "no longer needed"))
	assert.True(t, a.DropWithMode(p.Handle, intention.Force, "shutting down"))
}

func TestAgentRunResolvesTrivialGoalAfterTwoTicks(t *testing.T) {
	registry := newFakeRegistry()
	def := trivialGoalAndPlan(registry, "noop")

	var finished []runlog.Result
	hooks := Hooks{
		BDILog: func(_ runlog.Type, result runlog.Result, _ ident.GoalHandle, _ string) {
			finished = append(finished, result)
		},
	}
	a := New(ident.NewBusAddress(ident.NodeAgent, "a"), "worker", registry, hooks, telemetry.NewNoopLogger())
	a.Start()

	var resolved bool
	a.Pursue(def, false, nil, nil).Then(func() { resolved = true })

	a.Run(0)
	require.False(t, resolved, "goal should still be in flight after the scheduling tick")
	a.Run(0)
	assert.True(t, resolved)
	assert.Contains(t, finished, runlog.ResultSuccess)
	assert.Empty(t, a.Desires(), "concluded non-persistent desire should be removed")
}

func TestAgentAttachServiceDedupsByAddress(t *testing.T) {
	registry := newFakeRegistry()
	a := New(ident.NewBusAddress(ident.NodeAgent, "a"), "worker", registry, Hooks{}, telemetry.NewNoopLogger())
	svc := ident.NewBusAddress(ident.NodeService, "calc")

	a.AttachService(svc, false)
	a.AttachService(svc, false)
	assert.Len(t, a.attachedServices, 1)
}
