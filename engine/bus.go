package engine

import (
	"context"
	"time"

	"github.com/jackrun/bdicore/bus"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/intention"
	"github.com/jackrun/bdicore/runlog"
)

// AddBusAdapter registers a (spec §4.1 addBusAdapter); every outbound event
// is broadcast on every registered adapter.
func (e *Engine) AddBusAdapter(a bus.Adapter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.adapters = append(e.adapters, a)
}

// RemoveBusAdapter unregisters and closes a (spec §4.1 removeBusAdapter).
func (e *Engine) RemoveBusAdapter(a bus.Adapter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.adapters[:0]
	for _, existing := range e.adapters {
		if existing != a {
			out = append(out, existing)
		}
	}
	e.adapters = out
	_ = a.Close()
}

// SendEvent implements bdiagent.EventSender for ProxyAgent, and is the
// public hook Team/Agent hooks funnel through too.
func (e *Engine) SendEvent(ev bus.ProtocolEvent) { e.sendBusEvent(ev) }

// sendBusEvent stamps ev with a fresh event id/monotonic timestamp and
// broadcasts it on every adapter, or buffers it until the engine has polled
// enough times for adapters to have exchanged their own handshake (spec
// §4.1 sendBusEvent, QUEUE_BUS_EVENTS_PRIOR_TO_THIS_POLL_COUNT).
func (e *Engine) sendBusEvent(ev bus.ProtocolEvent) {
	if ev.SenderNode.Empty() {
		ev.SenderNode = e.Handle
	}
	ev.EventID = bus.NewEventID()

	e.mu.Lock()
	ev.TimestampUs = e.clock.Microseconds()
	if e.pollCount < queueBusEventsPriorToThisPollCount {
		e.backlog = append(e.backlog, ev)
		e.mu.Unlock()
		return
	}
	adapters := append([]bus.Adapter(nil), e.adapters...)
	e.mu.Unlock()

	for _, a := range adapters {
		if err := a.Send(ev); err != nil {
			e.logErr("bus adapter %s send failed: %v", a.Address(), err)
		}
	}
}

func (e *Engine) flushBacklog() {
	e.mu.Lock()
	backlog := e.backlog
	e.backlog = nil
	adapters := append([]bus.Adapter(nil), e.adapters...)
	e.mu.Unlock()

	for _, ev := range backlog {
		for _, a := range adapters {
			if err := a.Send(ev); err != nil {
				e.logErr("bus adapter %s send failed: %v", a.Address(), err)
			}
		}
	}
}

// broadcastRegister announces handle on the bus (spec §4.1 "registers the
// created agent/team/service with a REGISTER event").
func (e *Engine) broadcastRegister(handle ident.BusAddress, proxy bool) {
	e.sendBusEvent(bus.ProtocolEvent{
		Type:       bus.EventRegister,
		SenderNode: e.Handle,
		Sender:     handle,
		Proxy:      proxy,
	})
}

// Resolves reports whether addr names a concrete BDI instance (live or
// proxied) this engine knows about; exported for tests and introspection.
func (e *Engine) Resolves(addr ident.BusAddress) bool { return e.resolve(addr) }

// resolve implements bus.Resolver against every concrete BDI instance this
// engine knows about, live or proxied (spec §4.10).
func (e *Engine) resolve(addr ident.BusAddress) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.teams[addr]; ok {
		return true
	}
	if _, ok := e.agents[addr]; ok {
		return true
	}
	if _, ok := e.proxies[addr]; ok {
		return true
	}
	if _, ok := e.serviceTemplates[addr]; ok {
		return true
	}
	return false
}

// protocolEventHandler validates an inbound event and, if it passes, routes
// it (spec §4.10: "malformed event ... log at BUS severity and drop").
func (e *Engine) protocolEventHandler(ev bus.ProtocolEvent) {
	resolve := bus.Resolver(e.resolve)
	if ev.Type == bus.EventRegister {
		// A REGISTER may announce an instance this engine has not seen yet;
		// handleRegister is what records it, so its sender is not resolved.
		resolve = nil
	}
	if err := bus.Validate(ev, e.Handle, resolve); err != nil {
		if err != bus.ErrSelfEcho {
			e.logger.Warn(context.Background(), "bus event rejected", "type", ev.Type.String(), "error", err.Error())
		}
		return
	}
	e.routeEvent(ev)
}

// routeEvent dispatches a validated protocol event: REGISTER/DEREGISTER and
// BDI_LOG update local bookkeeping directly; ACTION_BEGIN invokes the local
// service handler directly; ACTION_UPDATE is queued to resolve a pending
// dispatched action; AGENT_JOIN_TEAM/AGENT_LEAVE_TEAM are dropped;
// everything else becomes an internal Event pushed onto the tick queue for
// FIFO processing (spec §4.1, §4.9, §4.10).
func (e *Engine) routeEvent(ev bus.ProtocolEvent) {
	switch ev.Type {
	case bus.EventRegister:
		e.handleRegister(ev)
		return
	case bus.EventDeregister:
		e.handleDeregister(ev)
		return
	case bus.EventBDILog:
		e.appendRunlog(ev.Sender, ev.BDILogType, runlog.ResultSuccess, ev.GoalHandle, ev.Reason)
		return
	case bus.EventActionBegin:
		e.handleActionBegin(ev)
		return
	case bus.EventActionUpdate:
		e.queue.Push(Event{
			Kind:          KindActionComplete,
			Recipient:     ev.Recipient,
			HasRecipient:  true,
			ActionHandle:  ev.ActionHandle,
			ActionSuccess: ev.ActionStatus == bus.ActionSuccess,
			ActionReply:   ev.Message,
			Reason:        ev.Reason,
		})
		return
	case bus.EventAgentJoinTeam, bus.EventAgentLeaveTeam:
		// Cross-engine team membership changes are not wired: every Team in
		// this implementation is co-resident with its members (see
		// bdiagent.Team.bidFor). Accepted for protocol completeness, dropped
		// otherwise.
		return
	}

	internalEvt, ok := fromProtocolEvent(ev)
	if !ok {
		return
	}
	if !ev.Recipient.Empty() {
		internalEvt.Recipient = ev.Recipient
		internalEvt.HasRecipient = true
		if e.isProxy(ev.Recipient) {
			// The real instance lives on another engine; this node only
			// mirrors it, so there is nothing local to act on.
			return
		}
	}
	e.queue.Push(internalEvt)
}

func fromProtocolEvent(ev bus.ProtocolEvent) (Event, bool) {
	out := Event{Caller: ev.Sender, GoalName: ev.GoalName, GoalHandle: ev.GoalHandle, Msg: ev.Message, Persistent: ev.Persistent, Reason: ev.Reason}
	switch ev.Type {
	case bus.EventControl:
		out.Kind = KindControl
		out.Start = ev.Reason != "stop"
	case bus.EventPercept:
		out.Kind = KindPercept
	case bus.EventMessage:
		out.Kind = KindMessage
	case bus.EventPursue:
		out.Kind = KindPursue
	case bus.EventDrop:
		out.Kind = KindDrop
		if ev.DropMode == bus.DropForce {
			out.DropMode = intention.Force
		} else {
			out.DropMode = intention.Normal
		}
	case bus.EventDelegation:
		out.Kind = KindDelegation
		out.DelegationSuccess = ev.DelegationStatus == bus.DelegationSuccess
	default:
		return Event{}, false
	}
	return out, true
}

func (e *Engine) isProxy(addr ident.BusAddress) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.proxies[addr]
	return ok
}

func (e *Engine) handleRegister(ev bus.ProtocolEvent) {
	addr := ev.Sender
	if addr.Empty() {
		addr = ev.SenderNode
	}
	now := time.Now()

	e.mu.Lock()
	e.directory[addr] = now
	p, known := e.proxies[addr]
	_, haveAgent := e.agents[addr]
	_, haveTeam := e.teams[addr]
	e.mu.Unlock()

	if known {
		p.OnRegister(now)
		return
	}
	if haveAgent || haveTeam || !ev.Proxy {
		return
	}
	e.CreateProxyAgent(addr.Type, "", addr.Name, &addr.ID)
}

func (e *Engine) handleDeregister(ev bus.ProtocolEvent) {
	addr := ev.Sender
	if addr.Empty() {
		addr = ev.SenderNode
	}
	e.mu.Lock()
	delete(e.directory, addr)
	delete(e.proxies, addr)
	e.mu.Unlock()
}

func (e *Engine) handleActionBegin(ev bus.ProtocolEvent) {
	e.mu.Lock()
	tmpl, ok := e.serviceTemplates[ev.Recipient]
	e.mu.Unlock()
	if !ok {
		return
	}
	fn, ok := tmpl.Handlers[ev.GoalName]
	if !ok {
		return
	}
	result := fn(ev.Sender, ev.Message)
	if result == nil {
		return // PENDING: the remote caller awaits a later ACTION_UPDATE.
	}
	status := bus.ActionSuccess
	reason := ""
	if !result.Success {
		status = bus.ActionFailed
		if result.Err != nil {
			reason = result.Err.Error()
		}
	}
	e.sendBusEvent(bus.ProtocolEvent{
		Type:         bus.EventActionUpdate,
		SenderNode:   e.Handle,
		Sender:       ev.Recipient,
		Recipient:    ev.Sender,
		ActionHandle: ev.ActionHandle,
		ActionStatus: status,
		Message:      result.Reply,
		Reason:       reason,
	})
}
