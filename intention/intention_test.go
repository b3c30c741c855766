package intention_test

import (
	"testing"
	"time"

	"github.com/jackrun/bdicore/action"
	"github.com/jackrun/bdicore/belief"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/intention"
	"github.com/jackrun/bdicore/plan"
	"github.com/jackrun/bdicore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDispatcher struct {
	immediate   *intention.ActionResult
	deferred    bool
	lastAction  ident.Ident
	handleToUse ident.ActionHandle
	subGoal     ident.GoalHandle
	printed     []string
}

func (s *stubDispatcher) DispatchAction(_ ident.IntentionID, name ident.Ident, _ *schema.Message) (ident.ActionHandle, *intention.ActionResult) {
	s.lastAction = name
	if s.deferred {
		return s.handleToUse, nil
	}
	return ident.ActionHandle{}, s.immediate
}

func (s *stubDispatcher) DispatchSubGoal(_ goal.ParentLink, _ ident.Ident, _ *schema.Message) ident.GoalHandle {
	return s.subGoal
}

func (s *stubDispatcher) Print(_ ident.IntentionID, text string) {
	s.printed = append(s.printed, text)
}

func simplePlan(body plan.Body) *plan.Definition {
	return &plan.Definition{Name: "p1", GoalName: "g1", Body: body}
}

func TestExecutorRunsSynchronousActionsToSuccess(t *testing.T) {
	e := intention.New(ident.NewGoalHandle("g1"))
	e.SetPlan(simplePlan(plan.Body{
		{Kind: plan.TaskPrint, Text: "hello"},
		{Kind: plan.TaskAction, ActionName: "move"},
	}))

	disp := &stubDispatcher{immediate: &intention.ActionResult{Success: true}}
	e.Step(0, disp)

	assert.Equal(t, intention.Success, e.State())
	assert.Equal(t, []string{"hello"}, disp.printed)
}

func TestExecutorWaitsForAsyncAction(t *testing.T) {
	e := intention.New(ident.NewGoalHandle("g1"))
	e.SetPlan(simplePlan(plan.Body{
		{Kind: plan.TaskAction, ActionName: "move"},
	}))

	handle := ident.NewActionHandle()
	disp := &stubDispatcher{deferred: true, handleToUse: handle}
	e.Step(0, disp)
	require.Equal(t, intention.Waiting, e.State())

	matched := e.OnActionComplete(handle, true, nil, "")
	assert.True(t, matched)

	e.Step(0, disp)
	assert.Equal(t, intention.Success, e.State())
}

func TestExecutorFailsOnActionFailure(t *testing.T) {
	e := intention.New(ident.NewGoalHandle("g1"))
	e.SetPlan(simplePlan(plan.Body{
		{Kind: plan.TaskAction, ActionName: "move"},
	}))
	disp := &stubDispatcher{immediate: &intention.ActionResult{Success: false}}
	e.Step(0, disp)
	assert.Equal(t, intention.Fail, e.State())
	assert.Contains(t, e.FailReason(), "move")
}

func TestExecutorFailsWithStructuredActionError(t *testing.T) {
	e := intention.New(ident.NewGoalHandle("g1"))
	e.SetPlan(simplePlan(plan.Body{
		{Kind: plan.TaskAction, ActionName: "move"},
	}))
	disp := &stubDispatcher{immediate: &intention.ActionResult{
		Success: false,
		Err:     action.NewError("gripper jammed"),
	}}
	e.Step(0, disp)
	assert.Equal(t, intention.Fail, e.State())
	assert.Equal(t, "gripper jammed", e.FailReason())
}

func TestExecutorAsyncActionFailureCarriesReason(t *testing.T) {
	e := intention.New(ident.NewGoalHandle("g1"))
	e.SetPlan(simplePlan(plan.Body{
		{Kind: plan.TaskAction, ActionName: "move"},
	}))
	handle := ident.NewActionHandle()
	disp := &stubDispatcher{deferred: true, handleToUse: handle}
	e.Step(0, disp)
	require.Equal(t, intention.Waiting, e.State())

	matched := e.OnActionComplete(handle, false, nil, "remote service timed out")
	assert.True(t, matched)
	assert.Equal(t, intention.Fail, e.State())
	assert.Equal(t, "remote service timed out", e.FailReason())
}

func TestFinishDelegationSuccessConcludesSuccess(t *testing.T) {
	e := intention.New(ident.NewGoalHandle("g1"))
	e.SetPlan(simplePlan(plan.Body{
		{Kind: plan.TaskAction, ActionName: "move"},
	}))
	e.RequestDrop(intention.Normal, "superseded")
	e.FinishDelegationSuccess()
	assert.Equal(t, intention.Success, e.State())
	assert.Nil(t, e.DropRequested())
}

func TestExecutorCondJumpsOnFalse(t *testing.T) {
	e := intention.New(ident.NewGoalHandle("g1"))
	e.SetPlan(simplePlan(plan.Body{
		{Kind: plan.TaskCond, Cond: func(*belief.Context) bool { return false }, OnFailStep: 2},
		{Kind: plan.TaskPrint, Text: "skipped"},
		{Kind: plan.TaskPrint, Text: "landed"},
	}))
	disp := &stubDispatcher{}
	e.Step(0, disp)
	assert.Equal(t, intention.Success, e.State())
	assert.Equal(t, []string{"landed"}, disp.printed)
}

func TestExecutorSleepBlocksUntilElapsed(t *testing.T) {
	e := intention.New(ident.NewGoalHandle("g1"))
	e.SetPlan(simplePlan(plan.Body{
		{Kind: plan.TaskSleep, SleepMillis: 100},
		{Kind: plan.TaskPrint, Text: "done"},
	}))
	disp := &stubDispatcher{}
	e.Step(50*time.Millisecond, disp)
	assert.Equal(t, intention.Waiting, e.State())

	// The sleep starts during the first step, so only later steps' dt counts.
	e.Step(100*time.Millisecond, disp)
	assert.Equal(t, intention.Success, e.State())
	assert.Equal(t, []string{"done"}, disp.printed)
}

func TestExecutorDropIsImmediate(t *testing.T) {
	e := intention.New(ident.NewGoalHandle("g1"))
	e.SetPlan(simplePlan(plan.Body{{Kind: plan.TaskSleep, SleepMillis: 1000}}))
	disp := &stubDispatcher{}
	e.Step(0, disp)
	require.Equal(t, intention.Waiting, e.State())

	e.RequestDrop(intention.Force, "stopping agent")
	e.Step(0, disp)
	assert.Equal(t, intention.Dropped, e.State())
	assert.Equal(t, "stopping agent", e.FailReason())
}
