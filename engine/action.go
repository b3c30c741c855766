package engine

import (
	"github.com/jackrun/bdicore/action"
	"github.com/jackrun/bdicore/bus"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/intention"
	"github.com/jackrun/bdicore/schema"
)

// DispatchAction implements bdiagent.ActionDispatcher: finds the first of
// agentHandle's attached services handling name, falling back to any
// committed service under the unhandled-action policy, and either invokes
// its handler synchronously or emits an ACTION_BEGIN event to a remote
// service (spec §4.6, §4.8 dispatchAction).
func (e *Engine) DispatchAction(agentHandle ident.BusAddress, intentionID ident.IntentionID, name ident.Ident, params *schema.Message) (ident.ActionHandle, *intention.ActionResult) {
	agent, ok := e.findLiveAgent(agentHandle)
	if !ok {
		return ident.ActionHandle{}, &intention.ActionResult{Success: false, Err: action.NewError("agent not found: " + agentHandle.String())}
	}

	svc, ok := e.resolveServiceFor(agent.AttachedServices(), name)
	if !ok {
		return ident.ActionHandle{}, &intention.ActionResult{Success: false, Err: action.Errorf("no service handles action %q", name)}
	}

	handle := ident.NewActionHandle()

	e.mu.Lock()
	tmpl := e.serviceTemplates[svc]
	e.mu.Unlock()

	if tmpl.Def.IsProxy() {
		e.sendBusEvent(bus.ProtocolEvent{
			Type:         bus.EventActionBegin,
			SenderNode:   e.Handle,
			Sender:       agentHandle,
			Recipient:    tmpl.Def.Proxy,
			GoalName:     name,
			Message:      params,
			ActionHandle: handle,
		})
		e.mu.Lock()
		e.pendingActions[handle] = pendingAction{Agent: agentHandle, IntentionID: intentionID}
		e.mu.Unlock()
		return handle, nil
	}

	fn, ok := tmpl.Handlers[name]
	if !ok {
		return ident.ActionHandle{}, &intention.ActionResult{Success: false, Err: action.Errorf("service %s has no handler for %q", svc, name)}
	}
	result := fn(agentHandle, params)
	if result != nil {
		return handle, result
	}

	e.mu.Lock()
	e.pendingActions[handle] = pendingAction{Agent: agentHandle, IntentionID: intentionID}
	e.mu.Unlock()
	return handle, nil
}

// resolveServiceFor picks the first of attached handling name, falling back
// to a committed service handling it globally (spec §4.6
// "unhandledActionsForwardedToFirstApplicableService"). The fallback scans a
// map, so when several committed services handle name, which one is picked
// is not defined.
func (e *Engine) resolveServiceFor(attached []ident.BusAddress, name ident.Ident) (ident.BusAddress, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, svc := range attached {
		if tmpl, ok := e.serviceTemplates[svc]; ok && tmpl.Def.Handles(name) {
			return svc, true
		}
	}
	for addr, tmpl := range e.serviceTemplates {
		if tmpl.Def.Handles(name) {
			return addr, true
		}
	}
	return ident.BusAddress{}, false
}

// FinishActionHandle resolves a pending dispatched action, routing the
// result back to the owning agent's IntentionExecutor (spec §4.8
// finishActionHandle). Call this from a service handler that returned nil
// (PENDING) once its asynchronous work completes.
func (e *Engine) FinishActionHandle(handle ident.ActionHandle, success bool, reply *schema.Message, reason string) bool {
	e.mu.Lock()
	pa, ok := e.pendingActions[handle]
	if ok {
		delete(e.pendingActions, handle)
	}
	e.mu.Unlock()
	if !ok {
		return false
	}
	agent, ok := e.findLiveAgent(pa.Agent)
	if !ok {
		return false
	}
	return agent.Executor().OnActionTaskComplete(pa.IntentionID, handle, success, reply, reason)
}
