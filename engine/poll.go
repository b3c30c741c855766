package engine

import (
	"context"
	"time"

	"github.com/jackrun/bdicore/bus"
)

// Poll drives one engine tick (spec §4.1 poll): flush any bus-send backlog,
// emit a heartbeat REGISTER if due, drain every adapter's inbound events,
// advance the clock, drain and dispatch the internal event queue, then run
// every live agent/team forward by dt.
func (e *Engine) Poll(dt time.Duration) PollResult {
	e.mu.Lock()
	pollCount := e.pollCount
	e.mu.Unlock()

	if pollCount >= queueBusEventsPriorToThisPollCount {
		e.flushBacklog()
	}

	e.mu.Lock()
	e.heartbeatRemaining -= dt
	due := e.heartbeatRemaining <= 0
	if due {
		e.heartbeatRemaining = heartbeatPeriod
	}
	e.mu.Unlock()
	if due {
		e.broadcastRegister(e.Handle, false)
	}

	e.mu.Lock()
	adapters := append([]bus.Adapter(nil), e.adapters...)
	e.mu.Unlock()
	for _, a := range adapters {
		for _, ev := range a.Poll() {
			e.protocolEventHandler(ev)
		}
	}

	e.mu.Lock()
	e.clock += dt
	deferred := e.deferred
	e.deferred = nil
	e.mu.Unlock()
	for _, fn := range deferred {
		fn()
	}

	for _, ev := range e.queue.Drain() {
		e.eventDispatch(ev)
	}

	var result PollResult
	for _, a := range e.allLiveAgents() {
		if !a.Running() {
			continue
		}
		a.Run(dt)
		result.AgentsRunning++
		if ex := a.Executor(); ex != nil && ex.WorkingCount() > 0 {
			result.AgentsExecuting++
		}
	}

	e.mu.Lock()
	e.pollCount++
	pollCount = e.pollCount
	e.mu.Unlock()
	e.log(context.Background(), "tick", "poll", pollCount, "agentsRunning", result.AgentsRunning, "agentsExecuting", result.AgentsExecuting)
	return result
}

// eventDispatch applies one internal Event to its recipient (or, for
// PERCEPT/MESSAGE with no recipient, every live agent/team), per spec §4.9.
func (e *Engine) eventDispatch(ev Event) {
	switch ev.Kind {
	case KindControl:
		e.withRecipient(ev, func(a liveAgent) {
			if ev.Start {
				a.Start()
			} else {
				a.Stop()
			}
		})
	case KindPercept, KindMessage:
		if ev.HasRecipient {
			e.withRecipient(ev, func(a liveAgent) { a.SendMessage(ev.Msg, false) })
			return
		}
		for _, a := range e.allLiveAgents() {
			a.SendMessage(ev.Msg, false)
		}
	case KindPursue:
		e.withRecipient(ev, func(a liveAgent) {
			def := e.GoalDefinition(ev.GoalName)
			if def == nil {
				return
			}
			id := ev.GoalHandle.UUID
			a.Pursue(def, ev.Persistent, ev.Msg, &id)
		})
	case KindDrop:
		e.withRecipient(ev, func(a liveAgent) { a.DropWithMode(ev.GoalHandle, ev.DropMode, ev.Reason) })
	case KindDelegation:
		e.withRecipient(ev, func(a liveAgent) {
			a.Executor().HandleDelegationEvent(ev.GoalHandle, ev.DelegationSuccess, ev.Reason)
		})
	case KindActionComplete:
		e.FinishActionHandle(ev.ActionHandle, ev.ActionSuccess, ev.ActionReply, ev.Reason)
	}
}

func (e *Engine) withRecipient(ev Event, fn func(liveAgent)) {
	if !ev.HasRecipient {
		return
	}
	if a, ok := e.findLiveAgent(ev.Recipient); ok {
		fn(a)
	}
}
