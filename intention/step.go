package intention

import (
	"time"

	"github.com/jackrun/bdicore/action"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/plan"
	"github.com/jackrun/bdicore/schema"
)

// Step advances the coroutine by at most one dispatch, per engine tick
// (spec §4.6: "one task dispatched per execute() unless the task resolves
// synchronously"). Callers (AgentExecutor) invoke Step once per tick for
// each of their intentions, after any action/sub-goal completions have
// already been applied via OnActionComplete/OnSubGoalComplete; Step itself
// subtracts dt from a pending sleep timer.
func (e *Executor) Step(dt time.Duration, disp Dispatcher) {
	if e.dropRequest != nil {
		e.applyDrop()
		return
	}

	switch e.state {
	case Success, Fail, Dropped:
		e.state = Concluded
		return
	case Concluded, WaitingForPlan:
		return
	}

	if e.state == Waiting {
		if !e.resolveTimer(dt) {
			return
		}
		e.state = Running
	}

	if e.plan.EvalDropWhen(e.ctx) {
		e.failReason = "plan dropWhen triggered"
		e.state = Fail
		return
	}

	e.dispatchNext(disp)
}

// resolveTimer advances a pending sleep timer and reports whether the wait
// has cleared. Non-timer waits (action, sub-goal) only clear via their
// completion callbacks, so they report false here regardless of dt.
func (e *Executor) resolveTimer(dt time.Duration) bool {
	if e.wait != waitTimer {
		return false
	}
	e.waitTimerRemains -= dt
	if e.waitTimerRemains > 0 {
		return false
	}
	e.wait = waitNone
	return true
}

// dispatchNext executes tasks starting at pc until one blocks the coroutine
// or the body is exhausted.
func (e *Executor) dispatchNext(disp Dispatcher) {
	for {
		if e.pc >= len(e.plan.Body) {
			if len(e.asyncSubGoals) > 0 {
				e.state = Waiting
				e.wait = waitSubGoal
				return
			}
			e.state = Success
			return
		}

		task := e.plan.Body[e.pc]
		switch task.Kind {
		case plan.TaskLabel:
			e.pc++
		case plan.TaskPrint:
			disp.Print(e.ID, task.Text)
			e.pc++
		case plan.TaskYield:
			e.pc++
			return
		case plan.TaskNowait:
			e.nowaitArmed = true
			e.pc++
		case plan.TaskOnSuccess:
			e.pc = task.Step
		case plan.TaskCond:
			if task.Cond == nil || task.Cond(e.ctx) {
				e.pc++
			} else {
				e.pc = task.OnFailStep
			}
		case plan.TaskSleep:
			e.wait = waitTimer
			e.waitTimerRemains = time.Duration(task.SleepMillis) * time.Millisecond
			e.state = Waiting
			e.pc++
			return
		case plan.TaskAction:
			handle, immediate := disp.DispatchAction(e.ID, task.ActionName, task.Params)
			if immediate != nil {
				e.completeAction(task.ActionName, immediate)
				if e.state != Running {
					return
				}
				e.pc++
				continue
			}
			e.waitActionHandle = handle
			e.waitActionName = task.ActionName
			e.wait = waitAction
			e.state = Waiting
			e.pc++
			return
		case plan.TaskGoal:
			h := disp.DispatchSubGoal(goal.ParentLink{ParentIntentionID: e.ID}, task.GoalName, task.GoalParams)
			if e.nowaitArmed {
				e.nowaitArmed = false
				e.asyncSubGoals[h] = true
				e.pc++
				continue
			}
			e.waitSubGoal = h
			e.wait = waitSubGoal
			e.state = Waiting
			e.pc++
			return
		default:
			e.pc++
		}
	}
}

func (e *Executor) completeAction(name ident.Ident, result *ActionResult) {
	if result.Reply != nil {
		e.ctx.AddActionReplyMessage(result.Reply)
	}
	if !result.Success {
		aerr := result.Err
		if aerr == nil {
			aerr = action.NewError("action failed: " + string(name))
		}
		e.failReason = aerr.Error()
		e.state = Fail
	}
}

// OnActionComplete resolves a pending action wait if handle matches the
// action this executor is currently blocked on (spec §4.5
// onActionTaskComplete). reason carries the bus-delivered failure reason
// (spec §7); it is ignored when success is true. Returns true if matched, in
// which case the executor moves back to Running and will advance on its next
// Step.
func (e *Executor) OnActionComplete(handle ident.ActionHandle, success bool, reply *schema.Message, reason string) bool {
	if e.state != Waiting || e.wait != waitAction || e.waitActionHandle != handle {
		return false
	}
	e.wait = waitNone
	e.state = Running
	var aerr *action.Error
	if !success && reason != "" {
		aerr = action.NewError(reason)
	}
	e.completeAction(e.waitActionName, &ActionResult{Success: success, Reply: reply, Err: aerr})
	return true
}

// OnSubGoalComplete resolves a pending or async sub-goal wait. For a
// blocking `goal` task it resumes the coroutine; for an async (nowait)
// sub-goal it only removes the goal from the outstanding set, letting the
// coroutine's end-of-body check decide when the plan as a whole succeeds.
func (e *Executor) OnSubGoalComplete(handle ident.GoalHandle, success bool) bool {
	if _, async := e.asyncSubGoals[handle]; async {
		delete(e.asyncSubGoals, handle)
		if !success {
			e.failReason = "async sub-goal failed: " + handle.String()
			e.state = Fail
		}
		return true
	}
	if e.state != Waiting || e.wait != waitSubGoal || e.waitSubGoal != handle {
		return false
	}
	e.wait = waitNone
	if !success {
		e.failReason = "sub-goal failed: " + handle.String()
		e.state = Fail
		return true
	}
	e.state = Running
	return true
}

// applyDrop transitions to Dropped. The caller (AgentExecutor) is
// responsible for honoring DropMode at the desire level — a Normal drop
// against a persistent goal is refused before the request ever reaches the
// executor; once it reaches here the executor always stops immediately.
func (e *Executor) applyDrop() {
	if e.state == Concluded {
		return
	}
	e.failReason = e.dropRequest.Reason
	e.state = Dropped
	e.dropRequest = nil
}

// FailReason returns the human-readable reason the executor failed or was
// dropped, for BDI-log and drop-event reporting.
func (e *Executor) FailReason() string { return e.failReason }
