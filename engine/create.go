package engine

import (
	"github.com/google/uuid"
	"github.com/jackrun/bdicore/bdiagent"
	"github.com/jackrun/bdicore/belief"
	"github.com/jackrun/bdicore/bus"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/role"
	"github.com/jackrun/bdicore/runlog"
	"github.com/jackrun/bdicore/schema"
)

func (e *Engine) newHandle(t ident.NodeType, name string, presetID *uuid.UUID) ident.BusAddress {
	if presetID != nil {
		return ident.BusAddress{Type: t, ID: *presetID, Name: name}
	}
	return ident.NewBusAddress(t, name)
}

// hooksFor builds the bdiagent.Hooks wiring common to both createAgent and
// createTeam: action dispatch through the engine, belief broadcast and
// BDI-log emission as bus/runlog side effects (spec §4.1 createAgent).
func (e *Engine) hooksFor(handle ident.BusAddress) bdiagent.Hooks {
	return bdiagent.Hooks{
		Dispatch: e,
		BroadcastMessage: func(msg *schema.Message) {
			e.sendBusEvent(bus.ProtocolEvent{
				Type:       bus.EventMessage,
				SenderNode: e.Handle,
				Sender:     handle,
				Message:    msg,
			})
		},
		BDILog: func(t runlog.Type, result runlog.Result, goalHandle ident.GoalHandle, detail string) {
			e.appendRunlog(handle, t, result, goalHandle, detail)
			e.sendBusEvent(bus.ProtocolEvent{
				Type:       bus.EventBDILog,
				SenderNode: e.Handle,
				Sender:     handle,
				GoalHandle: goalHandle,
				BDILogType: t,
				Reason:     detail,
			})
		},
	}
}

// CreateAgent instantiates tmplName's committed AgentTemplate as a live
// Agent, installs its initial desires, attaches its template services, and
// announces it with a REGISTER event (spec §4.1 createAgent).
func (e *Engine) CreateAgent(tmplName ident.Ident, name string, presetID *uuid.UUID) (ident.BusAddress, error) {
	e.mu.Lock()
	tmpl, ok := e.agentTemplates[tmplName]
	e.mu.Unlock()
	if !ok {
		return ident.BusAddress{}, &unknownTemplateError{Kind: "agent", Name: tmplName}
	}

	handle := e.newHandle(ident.NodeAgent, name, presetID)
	a := bdiagent.New(handle, tmplName, e, e.hooksFor(handle), e.logger)
	e.applyResourceTemplates(a.Belief)

	e.mu.Lock()
	e.agents[handle] = a
	e.mu.Unlock()

	e.installTemplate(a, tmpl)
	e.broadcastRegister(handle, true)
	return handle, nil
}

// CreateTeam instantiates tmplName as a live Team (spec §4.1 createAgent,
// §4.2 Team).
func (e *Engine) CreateTeam(tmplName ident.Ident, name string, presetID *uuid.UUID, members []TeamMember) (ident.BusAddress, error) {
	e.mu.Lock()
	tmpl, ok := e.agentTemplates[tmplName]
	e.mu.Unlock()
	if !ok {
		return ident.BusAddress{}, &unknownTemplateError{Kind: "team", Name: tmplName}
	}

	handle := e.newHandle(ident.NodeTeam, name, presetID)
	t := bdiagent.NewTeam(handle, tmplName, e, e.hooksFor(handle), e.logger)
	e.applyResourceTemplates(t.Belief)

	for _, m := range members {
		member, ok := e.findAgentLocked(m.Agent)
		if !ok {
			continue
		}
		t.AddMemberAgent(member, m.Roles...)
	}

	e.mu.Lock()
	e.teams[handle] = t
	e.mu.Unlock()

	e.installTemplate(t.Agent, tmpl)
	e.broadcastRegister(handle, true)
	return handle, nil
}

// TeamMember names a member agent and the roles it joins a team under.
type TeamMember struct {
	Agent ident.BusAddress
	Roles []*role.Definition
}

// CreateProxyAgent installs a ProxyAgent mirroring a remote Agent/Team/
// Service address, used once this engine learns of it via a REGISTER event
// carrying proxy==true, or explicitly for a known remote peer (spec §4.11).
func (e *Engine) CreateProxyAgent(nodeType ident.NodeType, tmplName ident.Ident, name string, presetID *uuid.UUID) ident.BusAddress {
	handle := e.newHandle(nodeType, name, presetID)
	p := bdiagent.NewProxyAgent(handle, tmplName, e)
	e.mu.Lock()
	e.proxies[handle] = p
	e.mu.Unlock()
	return handle
}

// QueueCreateAgent defers a CreateAgent call to the next poll's deferred
// drain, for use from inside an action handler where creating an agent
// immediately would reenter the engine mid-tick (spec §4.1 queueCreateAgent).
func (e *Engine) QueueCreateAgent(tmplName ident.Ident, name string, presetID *uuid.UUID) {
	e.mu.Lock()
	e.deferred = append(e.deferred, func() {
		if _, err := e.CreateAgent(tmplName, name, presetID); err != nil {
			e.logErr("queued createAgent %q failed: %v", tmplName, err)
		}
	})
	e.mu.Unlock()
}

// installTemplate installs tmpl's initial desires and attaches its template
// services onto a freshly created agent/team, then starts it.
func (e *Engine) installTemplate(a *bdiagent.Agent, tmpl *AgentTemplate) {
	for _, svc := range tmpl.Services {
		a.AttachService(svc, false)
	}
	for _, ig := range tmpl.InitialGoals {
		def := e.GoalDefinition(ig.GoalName)
		if def == nil {
			continue
		}
		a.Pursue(def, ig.Persistent, ig.Msg, nil)
	}
	a.Start()
}

func (e *Engine) applyResourceTemplates(ctx *belief.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.resources {
		ctx.CommitResource(r.Clone())
	}
}

func (e *Engine) findAgentLocked(addr ident.BusAddress) (*bdiagent.Agent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if a, ok := e.agents[addr]; ok {
		return a, true
	}
	return nil, false
}

// findLiveAgent returns the live Agent or Team registered under addr, if
// any, as the uniform liveAgent interface.
func (e *Engine) findLiveAgent(addr ident.BusAddress) (liveAgent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.teams[addr]; ok {
		return t, true
	}
	if a, ok := e.agents[addr]; ok {
		return a, true
	}
	return nil, false
}

// AgentBelief returns the belief.Context of the live Agent or Team
// registered under addr, if any. Exported so callers outside this package
// (e.g. action handlers, demo drivers) can inspect or seed belief state that
// CreateAgent/CreateTeam does not install from a template, such as initial
// message state beyond the committed Resource templates.
func (e *Engine) AgentBelief(addr ident.BusAddress) (*belief.Context, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.teams[addr]; ok {
		return t.Belief, true
	}
	if a, ok := e.agents[addr]; ok {
		return a.Belief, true
	}
	return nil, false
}

// allLiveAgents returns every live Agent/Team, teams first (irrelevant to
// tick ordering; run() does not depend on cross-agent sequencing within a
// tick beyond FIFO event dispatch, spec §5).
func (e *Engine) allLiveAgents() []liveAgent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]liveAgent, 0, len(e.agents)+len(e.teams))
	for _, t := range e.teams {
		out = append(out, t)
	}
	for _, a := range e.agents {
		out = append(out, a)
	}
	return out
}

type unknownTemplateError struct {
	Kind string
	Name ident.Ident
}

func (err *unknownTemplateError) Error() string {
	return "engine: unknown " + err.Kind + " template " + string(err.Name)
}
