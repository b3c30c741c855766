package engine_test

import (
	"testing"

	"github.com/jackrun/bdicore/action"
	"github.com/jackrun/bdicore/engine"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/intention"
	"github.com/jackrun/bdicore/plan"
	"github.com/jackrun/bdicore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchActionInvokesAttachedServiceHandlerSynchronously(t *testing.T) {
	e := engine.New("node-1", nil, nil)

	var called bool
	svc := ident.NewBusAddress(ident.NodeService, "gripper-svc")
	require.NoError(t, e.CommitService(engine.ServiceTemplate{
		Def: action.ServiceDefinition{Handle: svc, Actions: []ident.Ident{"open_gripper"}},
		Handlers: map[ident.Ident]engine.ActionFunc{
			"open_gripper": func(agent ident.BusAddress, params *schema.Message) *intention.ActionResult {
				called = true
				return &intention.ActionResult{Success: true}
			},
		},
	}))

	require.NoError(t, e.CommitGoal(&goal.Definition{Name: "grip"}))
	require.NoError(t, e.CommitPlan(&plan.Definition{
		Name:     "grip_plan",
		GoalName: "grip",
		Body: plan.Body{
			{Kind: plan.TaskAction, ActionName: "open_gripper"},
		},
	}))
	require.NoError(t, e.CommitAgentTemplate(engine.AgentTemplate{
		Name:         "arm",
		InitialGoals: []engine.InitialGoal{{GoalName: "grip"}},
		Services:     []ident.BusAddress{svc},
	}))

	_, err := e.CreateAgent("arm", "arm-1", nil)
	require.NoError(t, err)

	e.Poll(0)
	e.Poll(0)
	e.Poll(0)

	assert.True(t, called)
}

func TestDispatchActionFailsForUnknownAgent(t *testing.T) {
	e := engine.New("node-1", nil, nil)

	handle, result := e.DispatchAction(ident.NewBusAddress(ident.NodeAgent, "nobody"), ident.NewIntentionID(), "unhandled_action", nil)
	assert.Equal(t, ident.ActionHandle{}, handle)
	require.NotNil(t, result)
	assert.False(t, result.Success)
	require.NotNil(t, result.Err)
	assert.Contains(t, result.Err.Error(), "nobody")
}

func TestFinishActionHandleReturnsFalseForUnknownHandle(t *testing.T) {
	e := engine.New("node-1", nil, nil)
	assert.False(t, e.FinishActionHandle(ident.NewActionHandle(), true, nil, ""))
}
