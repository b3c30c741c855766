// Package belief implements the BeliefContext: an agent's named-message
// store and resource locks, with a layered goal/agent overlay consulted
// first during predicate evaluation (spec §3, §4.7).
package belief

import (
	"github.com/jackrun/bdicore/action"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/schema"
)

// Context is the per-agent (or per-intention, when scoped) belief store.
// The zero value is not ready for use; call New.
type Context struct {
	messages  map[ident.Ident]*schema.Message
	resources map[ident.Ident]*Resource

	// overlay fields: consulted before the backing maps (spec §3 invariant).
	goalContext  *schema.Message
	agentHandle  *ident.BusAddress

	// lastBounds holds the most recent truncation metadata reported by a
	// BoundedReply action reply, keyed by schema name, so a later plan task
	// can decide whether to refine and re-query (spec §4.8).
	lastBounds map[ident.Ident]action.Bounds
}

// New constructs an empty BeliefContext.
func New() *Context {
	return &Context{
		messages:   make(map[ident.Ident]*schema.Message),
		resources:  make(map[ident.Ident]*Resource),
		lastBounds: make(map[ident.Ident]action.Bounds),
	}
}

// Message returns the current message stored under name, consulting the
// goal-context overlay first.
func (c *Context) Message(name ident.Ident) (*schema.Message, bool) {
	if c.goalContext != nil && c.goalContext.SchemaName == name {
		return c.goalContext, true
	}
	m, ok := c.messages[name]
	return m, ok
}

// SetMessage installs msg as the current belief under its own schema name.
func (c *Context) SetMessage(msg *schema.Message) {
	c.messages[msg.SchemaName] = msg
}

// Get retrieves a single field value by message schema name and field name,
// consulting the overlay first per the lookup invariant.
func (c *Context) Get(msgName ident.Ident, field string) (schema.Value, bool) {
	m, ok := c.Message(msgName)
	if !ok {
		return schema.Value{}, false
	}
	return m.Get(field)
}

// AddActionReplyMessage deposits an action reply into the belief store so
// that subsequent plan tasks can read it by schema name (spec §4.6, §4.7). A
// reply reporting BoundedReply truncation is also recorded under its schema
// name, retrievable via LastBounds.
func (c *Context) AddActionReplyMessage(reply *schema.Message) {
	c.SetMessage(reply)
	if reply == nil {
		return
	}
	b := reply.Bounds()
	if b.Truncated {
		c.lastBounds[reply.SchemaName] = b
	} else {
		delete(c.lastBounds, reply.SchemaName)
	}
}

// LastBounds returns the truncation metadata most recently recorded for
// schemaName, if the last reply deposited under that name was truncated.
func (c *Context) LastBounds(schemaName ident.Ident) (action.Bounds, bool) {
	b, ok := c.lastBounds[schemaName]
	return b, ok
}

// SetGoalContext installs the overlay message carrying the current goal's
// parameters, consulted ahead of the backing message store.
func (c *Context) SetGoalContext(msg *schema.Message) {
	c.goalContext = msg
}

// GoalContext returns the currently installed goal-context overlay message,
// if any.
func (c *Context) GoalContext() (*schema.Message, bool) {
	return c.goalContext, c.goalContext != nil
}

// SetAgentContext installs the overlay agent handle used during predicate
// evaluation so goal/plan predicates can see which agent they run under.
func (c *Context) SetAgentContext(handle ident.BusAddress) {
	h := handle
	c.agentHandle = &h
}

// AgentContext returns the currently installed agent-handle overlay, if any.
func (c *Context) AgentContext() (ident.BusAddress, bool) {
	if c.agentHandle == nil {
		return ident.BusAddress{}, false
	}
	return *c.agentHandle, true
}

// CommitResource registers (or replaces) a Resource definition on the
// context, analogous to the engine's commitResource validated-template step.
func (c *Context) CommitResource(r *Resource) {
	c.resources[r.Name] = r
}

// Resource returns the Resource registered under name, if any.
func (c *Context) Resource(name ident.Ident) (*Resource, bool) {
	r, ok := c.resources[name]
	return r, ok
}

// LockResources increments the lock count on every named resource. Locking a
// name with no committed Resource is a no-op: plans may declare resource
// locks defensively for resources a given deployment never commits.
func (c *Context) LockResources(names []ident.Ident) {
	for _, n := range names {
		if r, ok := c.resources[n]; ok {
			r.Lock()
		}
	}
}

// UnlockResources decrements the lock count on every named resource,
// mirroring LockResources.
func (c *Context) UnlockResources(names []ident.Ident) {
	for _, n := range names {
		if r, ok := c.resources[n]; ok {
			r.Unlock()
		}
	}
}

// HasResourceViolation reports whether any committed resource currently
// sits outside its declared bounds, returning the offending names.
func (c *Context) HasResourceViolation() ([]ident.Ident, bool) {
	var violated []ident.Ident
	for name, r := range c.resources {
		if r.Violated() {
			violated = append(violated, name)
		}
	}
	return violated, len(violated) > 0
}

// Clone returns a deep copy of the context, used by the scheduler to model
// a plan's effects against a disposable copy of the current beliefs
// (spec §4.3 step 4).
func (c *Context) Clone() *Context {
	clone := &Context{
		messages:   make(map[ident.Ident]*schema.Message, len(c.messages)),
		resources:  make(map[ident.Ident]*Resource, len(c.resources)),
		lastBounds: make(map[ident.Ident]action.Bounds, len(c.lastBounds)),
	}
	for k, v := range c.lastBounds {
		clone.lastBounds[k] = v
	}
	for k, v := range c.messages {
		clone.messages[k] = v.Clone()
	}
	for k, v := range c.resources {
		clone.resources[k] = v.Clone()
	}
	if c.goalContext != nil {
		clone.goalContext = c.goalContext.Clone()
	}
	if c.agentHandle != nil {
		h := *c.agentHandle
		clone.agentHandle = &h
	}
	return clone
}
