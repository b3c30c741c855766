package engine_test

import (
	"testing"

	"github.com/jackrun/bdicore/bus"
	"github.com/jackrun/bdicore/engine"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pumpUntilDelivered drains each adapter into its engine a fixed number of
// ticks, enough for a LocalAdapter broadcast (synchronous, buffered channel)
// to have already landed before the first Poll reads it.
func pumpUntilDelivered(t *testing.T, engines ...*engine.Engine) {
	t.Helper()
	for i := 0; i < 3; i++ {
		for _, e := range engines {
			e.Poll(0)
		}
	}
}

func TestRegisterFromPeerCreatesLocalProxy(t *testing.T) {
	net := bus.NewNetwork()

	a := engine.New("node-a", nil, nil)
	trivialAgentTemplate(t, a, "survey_area")
	aAdapter := net.Join(a.Handle)
	a.AddBusAdapter(aAdapter)

	b := engine.New("node-b", nil, nil)
	bAdapter := net.Join(b.Handle)
	b.AddBusAdapter(bAdapter)

	handle, err := a.CreateAgent("explorer", "rover-1", nil)
	require.NoError(t, err)

	pumpUntilDelivered(t, a, b)

	assert.True(t, b.Resolves(handle), "node-b should have created a local proxy for node-a's rover-1")
}

func TestCommitGoalThenPlanRegisteredOnSeparateEngineInstances(t *testing.T) {
	e1 := engine.New("e1", nil, nil)
	e2 := engine.New("e2", nil, nil)

	require.NoError(t, e1.CommitGoal(&goal.Definition{Name: "g"}))
	require.Error(t, e2.CommitPlan(&plan.Definition{Name: "p", GoalName: "g"}), "goal committed on e1 must not be visible on e2")
}

func TestSendBusEventBuffersBeforeSecondPoll(t *testing.T) {
	net := bus.NewNetwork()

	a := engine.New("node-a", nil, nil)
	aAdapter := net.Join(a.Handle)
	a.AddBusAdapter(aAdapter)

	b := engine.New("node-b", nil, nil)
	bAdapter := net.Join(b.Handle)
	b.AddBusAdapter(bAdapter)

	trivialAgentTemplate(t, a, "patrol")
	_, err := a.CreateAgent("explorer", "rover-1", nil)
	require.NoError(t, err)

	assert.Empty(t, bAdapter.Poll(), "REGISTER should be buffered, not yet sent")

	a.Poll(0)
	a.Poll(0)

	assert.NotEmpty(t, bAdapter.Poll(), "buffered REGISTER should flush by the second poll")
}
