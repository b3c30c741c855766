package bdiagent

import (
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/intention"
	"github.com/jackrun/bdicore/role"
	"github.com/jackrun/bdicore/schedule"
	"github.com/jackrun/bdicore/telemetry"
)

// teamMember pairs a member Agent with the roles it was added under,
// governing which delegated goals it is eligible to bid on (spec §4.2
// Team, §3 Role).
type teamMember struct {
	Agent *Agent
	Roles []*role.Definition
}

// Team specialises Agent with member agents, role-based delegate filtering,
// and the auction coordinator that bids delegated goals out to members
// (spec §4.2 Team).
type Team struct {
	*Agent

	members []*teamMember
}

// NewTeam constructs a Team bound to handle. Delegation (assigning a
// delegated goal to a member and routing its drop/success back) is handled
// internally; the caller-supplied Hooks still governs action dispatch,
// belief broadcast, and BDI-log emission as for a plain Agent.
func NewTeam(handle ident.BusAddress, templateName ident.Ident, registry Registry, hooks Hooks, logger telemetry.Logger) *Team {
	t := &Team{}
	agentHooks := hooks
	agentHooks.Delegate = t.delegateGoal
	agentHooks.UndelegateFrom = t.undelegateFrom
	t.Agent = New(handle, templateName, registry, agentHooks, logger)
	t.Agent.SetProvider(t)
	return t
}

// AddMemberAgent enrolls member under the given roles, making it eligible
// for delegation of any goal those roles name (spec §4.2 addMemberAgent).
func (t *Team) AddMemberAgent(member *Agent, roles ...*role.Definition) {
	t.members = append(t.members, &teamMember{Agent: member, Roles: roles})
}

// Members returns the team's current membership, read-only.
func (t *Team) Members() []*Agent {
	out := make([]*Agent, len(t.members))
	for i, m := range t.members {
		out[i] = m.Agent
	}
	return out
}

// Delegates implements schedule.Provider, overriding Agent's no-op: returns
// every member whose roles name goalHandle's goal and whose attached
// services can handle every action in every plan handling that goal (spec
// §4.2 getDelegates).
func (t *Team) Delegates(goalHandle ident.GoalHandle) []schedule.Delegate {
	var out []schedule.Delegate
	for _, m := range t.members {
		if !memberHandlesGoal(m, goalHandle.Name) {
			continue
		}
		if !t.memberCanHandleGoal(m.Agent, goalHandle.Name) {
			continue
		}
		member := m.Agent
		out = append(out, schedule.Delegate{
			Address: member.Handle,
			Bid:     func(h ident.GoalHandle) (float64, bool) { return t.bidFor(member, h) },
		})
	}
	return out
}

func memberHandlesGoal(m *teamMember, goalName ident.Ident) bool {
	for _, r := range m.Roles {
		if r.HandlesGoal(goalName) {
			return true
		}
	}
	return false
}

func (t *Team) memberCanHandleGoal(member *Agent, goalName ident.Ident) bool {
	plans := t.registry.PlansForGoal(goalName)
	if len(plans) == 0 {
		return false
	}
	for _, p := range plans {
		if !member.CanHandleAllActions(p) {
			return false
		}
	}
	return true
}

// bidFor collapses the spec's async AUCTION/PENDING_COST round-trip into a
// synchronous call for a co-resident member (see schedule/provider.go):
// run a one-goal Schedule against the member's own beliefs and return the
// winning chain's total cost.
func (t *Team) bidFor(member *Agent, handle ident.GoalHandle) (float64, bool) {
	d, ok := t.Desire(handle)
	if !ok {
		return 0, false
	}
	s := schedule.New([]*goal.Desire{d}, member.Belief, member)
	result := s.Run()
	if len(result.Chain) == 0 {
		return 0, false
	}
	return result.Chain[0].CostTotal, true
}

// delegateGoal is the executor.Hooks.Delegate callback: pursues the team's
// desire directly on the chosen member (co-resident assumption; a
// cross-engine delegate would instead route through a DELEGATION protocol
// event one layer up in package engine), wiring the member's promise back
// to AgentExecutor.HandleDelegationEvent.
func (t *Team) delegateGoal(handle ident.GoalHandle, delegateAddr ident.BusAddress) {
	d, ok := t.Desire(handle)
	if !ok {
		return
	}
	member := t.memberByAddress(delegateAddr)
	if member == nil {
		return
	}
	id := handle.UUID
	pursue := member.Pursue(d.Def, d.Persistent, d.Msg, &id)
	pursue.Then(func() { t.Executor().HandleDelegationEvent(handle, true, "") })
	pursue.Otherwise(func(reason string) { t.Executor().HandleDelegationEvent(handle, false, reason) })
}

// undelegateFrom is the executor.Hooks.UndelegateFrom callback: forces a
// drop of the mirrored desire on the previously assigned member.
func (t *Team) undelegateFrom(handle ident.GoalHandle, prevAddr ident.BusAddress) {
	member := t.memberByAddress(prevAddr)
	if member == nil {
		return
	}
	member.DropWithMode(handle, intention.Force, "delegation superseded")
}

func (t *Team) memberByAddress(addr ident.BusAddress) *Agent {
	for _, m := range t.members {
		if m.Agent.Handle.Equal(addr) {
			return m.Agent
		}
	}
	return nil
}
