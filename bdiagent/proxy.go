package bdiagent

import (
	"time"

	"github.com/jackrun/bdicore/bus"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/schema"
)

// EventSender emits a protocol event addressed to the proxy's remote
// counterpart, normally the owning Engine's bus fan-out (spec §4.1
// sendBusEvent).
type EventSender interface {
	SendEvent(e bus.ProtocolEvent)
}

// ProxyAgent mirrors a remote Agent or Team: it owns no belief context and
// no AgentExecutor. pursue/drop/sendMessage translate to PURSUE/DROP/MESSAGE
// protocol events addressed to the remote; REGISTER events from the real
// agent maintain its liveness (spec §4.11).
type ProxyAgent struct {
	Handle       ident.BusAddress
	TemplateName ident.Ident

	sender EventSender

	lastSeen   time.Time
	lastSeenOK bool
	running    bool
}

// NewProxyAgent constructs a ProxyAgent standing in for handle.
func NewProxyAgent(handle ident.BusAddress, templateName ident.Ident, sender EventSender) *ProxyAgent {
	return &ProxyAgent{Handle: handle, TemplateName: templateName, sender: sender}
}

// Pursue forwards a PURSUE event to the remote and returns the GoalHandle it
// was stamped with; the proxy has no local promise to resolve (the real
// agent's own BDI_LOG/DELEGATION events are the only completion signal, and
// those are routed by the owning Engine, not this type).
func (p *ProxyAgent) Pursue(def *goal.Definition, persistent bool, msg *schema.Message) ident.GoalHandle {
	handle := ident.NewGoalHandle(def.Name)
	p.send(bus.ProtocolEvent{
		Type:       bus.EventPursue,
		Recipient:  p.Handle,
		GoalName:   def.Name,
		GoalHandle: handle,
		Message:    msg,
		Persistent: persistent,
	})
	return handle
}

// Drop forwards a DROP event to the remote.
func (p *ProxyAgent) Drop(handle ident.GoalHandle, mode bus.DropMode, reason string) {
	p.send(bus.ProtocolEvent{
		Type:       bus.EventDrop,
		Recipient:  p.Handle,
		GoalHandle: handle,
		DropMode:   mode,
		Reason:     reason,
	})
}

// SendMessage forwards a MESSAGE event to the remote.
func (p *ProxyAgent) SendMessage(msg *schema.Message) {
	p.send(bus.ProtocolEvent{
		Type:      bus.EventMessage,
		Recipient: p.Handle,
		Message:   msg,
	})
}

// Start/Stop propagate local lifecycle commands to the remote via CONTROL
// events; the proxy's own Running() reflects the last command sent, not a
// confirmation from the remote.
func (p *ProxyAgent) Start() {
	p.running = true
	p.send(bus.ProtocolEvent{Type: bus.EventControl, Recipient: p.Handle, Reason: "start"})
}

func (p *ProxyAgent) Stop() {
	p.running = false
	p.send(bus.ProtocolEvent{Type: bus.EventControl, Recipient: p.Handle, Reason: "stop"})
}

func (p *ProxyAgent) Running() bool { return p.running }

// OnRegister records a REGISTER event observed from the mirrored remote,
// updating the liveness timestamp reported by LastSeen.
func (p *ProxyAgent) OnRegister(at time.Time) {
	p.lastSeen = at
	p.lastSeenOK = true
}

// LastSeen reports the last observed REGISTER time and whether one has ever
// been observed.
func (p *ProxyAgent) LastSeen() (time.Time, bool) { return p.lastSeen, p.lastSeenOK }

func (p *ProxyAgent) send(e bus.ProtocolEvent) {
	if p.sender == nil {
		return
	}
	p.sender.SendEvent(e)
}
