package engine

import (
	"fmt"

	"github.com/jackrun/bdicore/action"
	"github.com/jackrun/bdicore/belief"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/intention"
	"github.com/jackrun/bdicore/plan"
	"github.com/jackrun/bdicore/role"
	"github.com/jackrun/bdicore/schema"
	"github.com/jackrun/bdicore/tactic"
)

// AgentTemplate is a committed Agent/Team template: a name and the desires
// installed on every instance created from it (spec §4.1 createAgent
// "install initial desires from template").
type AgentTemplate struct {
	Name         ident.Ident
	IsTeam       bool
	InitialGoals []InitialGoal
	Services     []ident.BusAddress // attached on creation
}

// InitialGoal names one goal (and optional parameters) pursued automatically
// when an agent is created from a template.
type InitialGoal struct {
	GoalName   ident.Ident
	Persistent bool
	Msg        *schema.Message
}

// ActionFunc executes one action synchronously, or returns nil to signal
// PENDING — the caller resolves it later via Engine.FinishActionHandle
// (spec §4.8 finishActionHandle).
type ActionFunc func(agent ident.BusAddress, params *schema.Message) *intention.ActionResult

// ServiceTemplate is a committed Service template: the action set it
// handles and the handler functions invoked on dispatch.
type ServiceTemplate struct {
	Def      action.ServiceDefinition
	Handlers map[ident.Ident]ActionFunc
}

// CommitGoal validates and registers def, auto-creating the goal's builtin
// tactic if none has been committed for it yet (spec §4.1 commitGoal).
func (e *Engine) CommitGoal(def *goal.Definition) error {
	if def.Name == "" {
		return fmt.Errorf("engine: commitGoal: empty name")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.goals[def.Name] = def
	if _, ok := e.goalTactics[def.Name]; !ok {
		e.goalTactics[def.Name] = tactic.Builtin(def.Name)
	}
	return nil
}

// CommitPlan validates and registers def (spec §4.1 commitPlan).
func (e *Engine) CommitPlan(def *plan.Definition) error {
	if def.Name == "" {
		return fmt.Errorf("engine: commitPlan: empty name")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.goals[def.GoalName]; !ok {
		return fmt.Errorf("engine: commitPlan %q: references unknown goal %q", def.Name, def.GoalName)
	}
	e.plans[def.Name] = def
	return nil
}

// CommitTactic validates and registers def, rejecting references to an
// unknown goal or to plans that handle a different goal (spec §4.1
// commitTactic).
func (e *Engine) CommitTactic(def *tactic.Definition) error {
	if def.Name == "" {
		return fmt.Errorf("engine: commitTactic: empty name")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.goals[def.GoalName]; !ok {
		return fmt.Errorf("engine: commitTactic %q: references unknown goal %q", def.Name, def.GoalName)
	}
	for _, planName := range def.Plans {
		p, ok := e.plans[planName]
		if !ok {
			return fmt.Errorf("engine: commitTactic %q: references unknown plan %q", def.Name, planName)
		}
		if p.GoalName != def.GoalName {
			return fmt.Errorf("engine: commitTactic %q: plan %q handles goal %q, not %q", def.Name, planName, p.GoalName, def.GoalName)
		}
	}
	def.Dedup()
	e.tactics[def.Name] = def
	e.goalTactics[def.GoalName] = def
	return nil
}

// CommitRole validates and registers def (spec §4.1 commitRole).
func (e *Engine) CommitRole(def *role.Definition) error {
	if def.Name == "" {
		return fmt.Errorf("engine: commitRole: empty name")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.roles[def.Name] = def
	return nil
}

// CommitAction validates and registers def (spec §4.1 commitAction).
func (e *Engine) CommitAction(def *action.Definition) error {
	if def.Name == "" {
		return fmt.Errorf("engine: commitAction: empty name")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.actions[def.Name] = def
	return nil
}

// CommitMessageSchema validates (self-validity, via compiling it as a JSON
// Schema document) and registers def (spec §4.1 commitMessageSchema).
func (e *Engine) CommitMessageSchema(def schema.Definition) error {
	if def.Name == "" {
		return fmt.Errorf("engine: commitMessageSchema: empty name")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.schemas.Commit(def)
}

// CommitResource registers a Resource template, applied to every agent's
// BeliefContext at creation time (spec §4.1 commitResource).
func (e *Engine) CommitResource(r *belief.Resource) error {
	if r.Name == "" {
		return fmt.Errorf("engine: commitResource: empty name")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resources[r.Name] = r
	return nil
}

// CommitService validates and registers tmpl (spec §4.1 commitService).
func (e *Engine) CommitService(tmpl ServiceTemplate) error {
	if tmpl.Def.Handle.Empty() {
		return fmt.Errorf("engine: commitService: empty handle")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.serviceTemplates[tmpl.Def.Handle] = &tmpl
	return nil
}

// CommitAgentTemplate validates and registers tmpl, usable by both
// createAgent (IsTeam == false) and createTeam (IsTeam == true).
func (e *Engine) CommitAgentTemplate(tmpl AgentTemplate) error {
	if tmpl.Name == "" {
		return fmt.Errorf("engine: commitAgentTemplate: empty name")
	}
	for _, ig := range tmpl.InitialGoals {
		if _, ok := e.goals[ig.GoalName]; !ok {
			return fmt.Errorf("engine: commitAgentTemplate %q: references unknown goal %q", tmpl.Name, ig.GoalName)
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.agentTemplates[tmpl.Name] = &tmpl
	return nil
}

// PlansForGoal implements bdiagent.Registry.
func (e *Engine) PlansForGoal(goalName ident.Ident) []*plan.Definition {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []*plan.Definition
	for _, p := range e.plans {
		if p.GoalName == goalName {
			out = append(out, p)
		}
	}
	return out
}

// TacticForGoal implements bdiagent.Registry.
func (e *Engine) TacticForGoal(goalName ident.Ident) *tactic.Definition {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.goalTactics[goalName]
}

// GoalDefinition implements bdiagent.Registry.
func (e *Engine) GoalDefinition(name ident.Ident) *goal.Definition {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.goals[name]
}

// ServiceHandles implements bdiagent.Registry.
func (e *Engine) ServiceHandles(service ident.BusAddress, action ident.Ident) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	tmpl, ok := e.serviceTemplates[service]
	if !ok {
		return false
	}
	return tmpl.Def.Handles(action)
}

// AnyServiceHandlesAction implements bdiagent.Registry: the
// unhandledActionsForwardedToFirstApplicableService fallback policy (spec
// §4.6, §4.9 "ACTION events ... fallback policy is configurable").
func (e *Engine) AnyServiceHandlesAction(name ident.Ident) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, tmpl := range e.serviceTemplates {
		if tmpl.Def.Handles(name) {
			return true
		}
	}
	return false
}

// createMessage zero-initialises a Message from the committed schema's
// field list (spec §4.1 createMessage).
func (e *Engine) createMessage(schemaName ident.Ident) *schema.Message {
	e.mu.Lock()
	def, ok := e.schemas.Lookup(schemaName)
	e.mu.Unlock()
	msg := schema.NewMessage(schemaName)
	if !ok {
		return msg
	}
	for _, f := range def.Fields {
		msg.Set(f.Name, zeroValue(f))
	}
	return msg
}

func zeroValue(f schema.Field) schema.Value {
	switch f.Kind {
	case schema.KindBool:
		return schema.BoolValue(false)
	case schema.KindInt8, schema.KindInt16, schema.KindInt32, schema.KindInt64:
		return schema.IntValue(f.Kind, 0)
	case schema.KindUint8, schema.KindUint16, schema.KindUint32, schema.KindUint64:
		return schema.UintValue(f.Kind, 0)
	case schema.KindFloat32:
		return schema.Float32Value(0)
	case schema.KindFloat64:
		return schema.Float64Value(0)
	case schema.KindVec2:
		return schema.Vec2Value(schema.Vec2{})
	case schema.KindString:
		return schema.StringValue("")
	case schema.KindVector:
		return schema.VectorValue(nil)
	case schema.KindMessage:
		return schema.MessageValue(schema.NewMessage(f.Nested))
	default:
		return schema.Value{}
	}
}
