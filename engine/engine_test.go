package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackrun/bdicore/engine"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/plan"
	"github.com/jackrun/bdicore/runlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trivialAgentTemplate(t *testing.T, e *engine.Engine, goalName ident.Ident) {
	t.Helper()
	require.NoError(t, e.CommitGoal(&goal.Definition{Name: goalName}))
	require.NoError(t, e.CommitPlan(&plan.Definition{Name: goalName + "_plan", GoalName: goalName}))
	require.NoError(t, e.CommitAgentTemplate(engine.AgentTemplate{
		Name:         "explorer",
		InitialGoals: []engine.InitialGoal{{GoalName: goalName}},
	}))
}

func TestCreateAgentInstallsInitialGoalAndResolvesAfterTwoTicks(t *testing.T) {
	store := runlog.NewMemStore()
	e := engine.New("node-1", nil, store)
	trivialAgentTemplate(t, e, "survey_area")

	handle, err := e.CreateAgent("explorer", "rover-1", nil)
	require.NoError(t, err)

	e.Poll(0)
	events, err := store.List(context.Background(), handle)
	require.NoError(t, err)
	for _, ev := range events {
		assert.NotEqual(t, runlog.GoalFinished, ev.Type, "goal should not have concluded after a single tick")
	}

	e.Poll(0)
	events, err = store.List(context.Background(), handle)
	require.NoError(t, err)

	var sawFinished bool
	for _, ev := range events {
		if ev.Type == runlog.GoalFinished {
			sawFinished = true
			assert.Equal(t, runlog.ResultSuccess, ev.Result)
		}
	}
	assert.True(t, sawFinished, "expected a GOAL_FINISHED event after two ticks")
}

func TestCreateAgentRejectsUnknownTemplate(t *testing.T) {
	e := engine.New("node-1", nil, nil)
	_, err := e.CreateAgent("does_not_exist", "rover-1", nil)
	assert.Error(t, err)
}

func TestPollTalliesRunningAgents(t *testing.T) {
	e := engine.New("node-1", nil, nil)
	trivialAgentTemplate(t, e, "patrol")

	_, err := e.CreateAgent("explorer", "rover-1", nil)
	require.NoError(t, err)

	result := e.Poll(10 * time.Millisecond)
	assert.Equal(t, 1, result.AgentsRunning)
}
