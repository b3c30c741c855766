package bdiagent

import (
	"testing"

	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/plan"
	"github.com/jackrun/bdicore/role"
	"github.com/jackrun/bdicore/runlog"
	"github.com/jackrun/bdicore/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamDelegatesFiltersByRoleAndCapability(t *testing.T) {
	registry := newFakeRegistry()
	goalDef := trivialGoalAndPlan(registry, "haul")
	goalDef.Delegated = true

	teamHandle := ident.NewBusAddress(ident.NodeTeam, "team")
	team := NewTeam(teamHandle, "crew", registry, Hooks{}, telemetry.NewNoopLogger())

	hauler := New(ident.NewBusAddress(ident.NodeAgent, "hauler"), "worker", registry, Hooks{}, telemetry.NewNoopLogger())
	idle := New(ident.NewBusAddress(ident.NodeAgent, "idle"), "worker", registry, Hooks{}, telemetry.NewNoopLogger())

	haulRole := &role.Definition{Name: "hauler-role", Goals: []ident.Ident{"haul"}}
	team.AddMemberAgent(hauler, haulRole)
	team.AddMemberAgent(idle) // no roles: never eligible

	delegates := team.Delegates(ident.NewGoalHandle("haul"))
	require.Len(t, delegates, 1)
	assert.True(t, delegates[0].Address.Equal(hauler.Handle))
}

func TestTeamDelegatesExcludesMemberMissingActionCapability(t *testing.T) {
	registry := newFakeRegistry()
	registry.goalDefs["haul"] = &goal.Definition{Name: "haul", Delegated: true}
	registry.plans["haul"] = []*plan.Definition{{
		Name:     "haul plan",
		GoalName: "haul",
		Body:     plan.Body{{Kind: plan.TaskAction, ActionName: "lift"}},
	}}

	team := NewTeam(ident.NewBusAddress(ident.NodeTeam, "team"), "crew", registry, Hooks{}, telemetry.NewNoopLogger())
	hauler := New(ident.NewBusAddress(ident.NodeAgent, "hauler"), "worker", registry, Hooks{}, telemetry.NewNoopLogger())
	team.AddMemberAgent(hauler, &role.Definition{Name: "hauler-role", Goals: []ident.Ident{"haul"}})

	assert.Empty(t, team.Delegates(ident.NewGoalHandle("haul")))
}

func TestTeamDelegateGoalRoutesPursueToMember(t *testing.T) {
	registry := newFakeRegistry()
	goalDef := trivialGoalAndPlan(registry, "noop")
	goalDef.Delegated = true

	var logs []runlog.Result
	hooks := Hooks{BDILog: func(_ runlog.Type, r runlog.Result, _ ident.GoalHandle, _ string) { logs = append(logs, r) }}
	team := NewTeam(ident.NewBusAddress(ident.NodeTeam, "team"), "crew", registry, hooks, telemetry.NewNoopLogger())
	member := New(ident.NewBusAddress(ident.NodeAgent, "member"), "worker", registry, Hooks{}, telemetry.NewNoopLogger())
	team.AddMemberAgent(member, &role.Definition{Name: "r", Goals: []ident.Ident{"noop"}})
	member.Start()

	var resolved bool
	pursue := team.Pursue(goalDef, false, nil, nil)
	pursue.Then(func() { resolved = true })

	team.delegateGoal(pursue.Handle, member.Handle)
	member.Run(0)
	require.False(t, resolved)
	member.Run(0)
	assert.True(t, resolved)
}
