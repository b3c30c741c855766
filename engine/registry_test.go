package engine_test

import (
	"testing"

	"github.com/jackrun/bdicore/engine"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/plan"
	"github.com/jackrun/bdicore/tactic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommitGoalAutoCreatesBuiltinTactic(t *testing.T) {
	e := engine.New("t", nil, nil)
	require.NoError(t, e.CommitGoal(&goal.Definition{Name: "reach_goal"}))

	got := e.TacticForGoal("reach_goal")
	require.NotNil(t, got)
	assert.Equal(t, tactic.ChooseBestPlan, got.PlanOrder)
}

func TestCommitPlanRejectsUnknownGoal(t *testing.T) {
	e := engine.New("t", nil, nil)
	err := e.CommitPlan(&plan.Definition{Name: "p1", GoalName: "no_such_goal"})
	assert.Error(t, err)
}

func TestCommitTacticRejectsUnknownPlanAndCrossGoalPlan(t *testing.T) {
	e := engine.New("t", nil, nil)
	require.NoError(t, e.CommitGoal(&goal.Definition{Name: "g1"}))
	require.NoError(t, e.CommitGoal(&goal.Definition{Name: "g2"}))
	require.NoError(t, e.CommitPlan(&plan.Definition{Name: "p1", GoalName: "g1"}))

	err := e.CommitTactic(&tactic.Definition{Name: "t1", GoalName: "g1", Plans: []ident.Ident{"missing"}})
	assert.Error(t, err)

	err = e.CommitTactic(&tactic.Definition{Name: "t2", GoalName: "g2", Plans: []ident.Ident{"p1"}})
	assert.Error(t, err, "p1 handles g1, not g2")
}

func TestCommitAgentTemplateRejectsUnknownInitialGoal(t *testing.T) {
	e := engine.New("t", nil, nil)
	err := e.CommitAgentTemplate(engine.AgentTemplate{
		Name:         "explorer",
		InitialGoals: []engine.InitialGoal{{GoalName: "never_committed"}},
	})
	assert.Error(t, err)
}

func TestPlansForGoalFiltersByGoalName(t *testing.T) {
	e := engine.New("t", nil, nil)
	require.NoError(t, e.CommitGoal(&goal.Definition{Name: "g1"}))
	require.NoError(t, e.CommitGoal(&goal.Definition{Name: "g2"}))
	require.NoError(t, e.CommitPlan(&plan.Definition{Name: "p1", GoalName: "g1"}))
	require.NoError(t, e.CommitPlan(&plan.Definition{Name: "p2", GoalName: "g2"}))

	got := e.PlansForGoal("g1")
	require.Len(t, got, 1)
	assert.Equal(t, ident.Ident("p1"), got[0].Name)
}
