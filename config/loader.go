package config

import (
	"fmt"
	"io"
	"os"

	"github.com/jackrun/bdicore/action"
	"github.com/jackrun/bdicore/belief"
	"github.com/jackrun/bdicore/engine"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/plan"
	"github.com/jackrun/bdicore/role"
	"github.com/jackrun/bdicore/schema"
	"github.com/jackrun/bdicore/tactic"
	"gopkg.in/yaml.v3"
)

// Loader parses a config.Document and commits it against an Engine. The
// named-callback registries below resolve the builder DSL's function-valued
// dimensions (pre/satisfied/dropWhen/heuristic/effects/cond,
// handleAction(name, fn)) that YAML data cannot express.
type Loader struct {
	Predicates map[string]goal.Predicate
	Heuristics map[string]goal.Heuristic
	Effects    map[string]plan.Effects
	// ActionHandlers is keyed by service name, then action name.
	ActionHandlers map[string]map[ident.Ident]engine.ActionFunc
}

// NewLoader constructs a Loader with empty registries; populate the exported
// maps before calling Apply.
func NewLoader() *Loader {
	return &Loader{
		Predicates:     make(map[string]goal.Predicate),
		Heuristics:     make(map[string]goal.Heuristic),
		Effects:        make(map[string]plan.Effects),
		ActionHandlers: make(map[string]map[ident.Ident]engine.ActionFunc),
	}
}

// LoadFile reads and parses path into a Document.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses r into a Document.
func Load(r io.Reader) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return &doc, nil
}

// ServiceAddresses maps a config-declared service name to the bus address
// Apply assigned it, so a caller can address it programmatically (e.g. to
// bind handlers beyond the Loader's ActionHandlers registry).
type ServiceAddresses map[ident.Ident]ident.BusAddress

// Apply commits every template in doc against e, in dependency order
// (schemas, resources, actions, goals, plans, tactics, roles, services,
// agent templates), and returns the bus address assigned to each named
// service.
func (l *Loader) Apply(e *engine.Engine, doc *Document) (ServiceAddresses, error) {
	for _, s := range doc.Schemas {
		def, err := l.buildSchema(s)
		if err != nil {
			return nil, err
		}
		if err := e.CommitMessageSchema(def); err != nil {
			return nil, err
		}
	}

	for _, r := range doc.Resources {
		if err := e.CommitResource(&belief.Resource{
			Name: ident.Ident(r.Name), Min: r.Min, HasMin: r.HasMin, Max: r.Max, HasMax: r.HasMax,
		}); err != nil {
			return nil, err
		}
	}

	actionSchemas := make(map[ident.Ident]string, len(doc.Actions))
	for _, a := range doc.Actions {
		if err := e.CommitAction(&action.Definition{
			Name:               ident.Ident(a.Name),
			RequestSchemaName:  ident.Ident(a.Request),
			ReplySchemaName:    ident.Ident(a.Reply),
			FeedbackSchemaName: ident.Ident(a.Feedback),
		}); err != nil {
			return nil, err
		}
		actionSchemas[ident.Ident(a.Name)] = a.Request
	}

	schemaFields := make(map[ident.Ident][]FieldSpec, len(doc.Schemas))
	for _, s := range doc.Schemas {
		schemaFields[ident.Ident(s.Name)] = s.Fields
	}

	goalSchemas := make(map[ident.Ident]string, len(doc.Goals))
	for _, g := range doc.Goals {
		def := &goal.Definition{
			Name:          ident.Ident(g.Name),
			MessageSchema: ident.Ident(g.MessageSchema),
			Pre:           l.Predicates[g.Pre],
			Satisfied:     l.Predicates[g.Satisfied],
			DropWhen:      l.Predicates[g.DropWhen],
			Heuristic:     l.Heuristics[g.Heuristic],
			Persistent:    g.Persistent,
			Delegated:     g.Delegated,
		}
		if err := e.CommitGoal(def); err != nil {
			return nil, err
		}
		goalSchemas[def.Name] = g.MessageSchema
	}

	for _, p := range doc.Plans {
		body, err := l.buildBody(p.Body, schemaFields, actionSchemas, goalSchemas)
		if err != nil {
			return nil, fmt.Errorf("config: plan %q: %w", p.Name, err)
		}
		locks := make([]ident.Ident, len(p.ResourceLocks))
		for i, r := range p.ResourceLocks {
			locks[i] = ident.Ident(r)
		}
		effects := l.Effects[p.Effects]
		def := &plan.Definition{
			Name:           ident.Ident(p.Name),
			GoalName:       ident.Ident(p.GoalName),
			Pre:            l.Predicates[p.Pre],
			DropWhen:       l.Predicates[p.DropWhen],
			Effects:        effects,
			CanModelEffect: effects != nil,
			ResourceLocks:  locks,
			Body:           body,
		}
		if err := e.CommitPlan(def); err != nil {
			return nil, err
		}
	}

	for _, tc := range doc.Tactics {
		def, err := l.buildTactic(tc)
		if err != nil {
			return nil, err
		}
		if err := e.CommitTactic(def); err != nil {
			return nil, err
		}
	}

	for _, r := range doc.Roles {
		goals := make([]ident.Ident, len(r.Goals))
		for i, g := range r.Goals {
			goals[i] = ident.Ident(g)
		}
		sets := make([]role.BeliefSet, len(r.Belief))
		for i, b := range r.Belief {
			sets[i] = role.BeliefSet{Name: ident.Ident(b.Name), Read: b.Read, Write: b.Write}
		}
		if err := e.CommitRole(&role.Definition{Name: ident.Ident(r.Name), Goals: goals, BeliefSets: sets}); err != nil {
			return nil, err
		}
	}

	addrs := make(ServiceAddresses, len(doc.Services))
	for _, s := range doc.Services {
		addr := ident.NewBusAddress(ident.NodeService, s.Name)
		actions := make([]ident.Ident, len(s.Actions))
		for i, a := range s.Actions {
			actions[i] = ident.Ident(a)
		}
		svcDef := action.ServiceDefinition{Handle: addr, Actions: actions}
		if s.Proxy != "" {
			svcDef.Proxy = ident.NewBusAddress(ident.NodeService, s.Proxy)
		}
		handlers := l.ActionHandlers[s.Name]
		if handlers == nil {
			handlers = make(map[ident.Ident]engine.ActionFunc)
		}
		if err := e.CommitService(engine.ServiceTemplate{Def: svcDef, Handlers: handlers}); err != nil {
			return nil, err
		}
		addrs[ident.Ident(s.Name)] = addr
	}

	for _, a := range doc.Agents {
		desires := make([]engine.InitialGoal, len(a.Desires))
		for i, d := range a.Desires {
			msg, err := l.buildParams(goalSchemas[ident.Ident(d.GoalName)], schemaFields, d.Params)
			if err != nil {
				return nil, fmt.Errorf("config: agent %q desire %q: %w", a.Name, d.GoalName, err)
			}
			desires[i] = engine.InitialGoal{GoalName: ident.Ident(d.GoalName), Persistent: d.Persistent, Msg: msg}
		}
		services := make([]ident.BusAddress, 0, len(a.Services))
		for _, sname := range a.Services {
			addr, ok := addrs[ident.Ident(sname)]
			if !ok {
				return nil, fmt.Errorf("config: agent %q: references unknown service %q", a.Name, sname)
			}
			services = append(services, addr)
		}
		if err := e.CommitAgentTemplate(engine.AgentTemplate{
			Name:         ident.Ident(a.Name),
			IsTeam:       a.Team,
			InitialGoals: desires,
			Services:     services,
		}); err != nil {
			return nil, err
		}
	}

	return addrs, nil
}

func (l *Loader) buildSchema(s SchemaSpec) (schema.Definition, error) {
	fields := make([]schema.Field, len(s.Fields))
	for i, f := range s.Fields {
		kind, err := parseKind(f.Kind)
		if err != nil {
			return schema.Definition{}, fmt.Errorf("config: schema %q field %q: %w", s.Name, f.Name, err)
		}
		fld := schema.Field{Name: f.Name, Kind: kind, Required: f.Required, Nested: ident.Ident(f.Nested)}
		if f.ElemKind != "" {
			elem, err := parseKind(f.ElemKind)
			if err != nil {
				return schema.Definition{}, fmt.Errorf("config: schema %q field %q elemKind: %w", s.Name, f.Name, err)
			}
			fld.ElemKind = elem
		}
		fields[i] = fld
	}
	return schema.Definition{Name: ident.Ident(s.Name), Fields: fields}, nil
}

func (l *Loader) buildTactic(tc TacticSpec) (*tactic.Definition, error) {
	order, err := parsePlanOrder(tc.PlanOrder)
	if err != nil {
		return nil, fmt.Errorf("config: tactic %q: %w", tc.Name, err)
	}
	plans := make([]ident.Ident, len(tc.Plans))
	for i, p := range tc.Plans {
		plans[i] = ident.Ident(p)
	}
	loop := tc.LoopPlansCount
	if tc.LoopInfinitely {
		loop = tactic.Infinite
	}
	return &tactic.Definition{
		Name:            ident.Ident(tc.Name),
		GoalName:        ident.Ident(tc.GoalName),
		Plans:           plans,
		PlanOrder:       order,
		LoopPlansCount:  loop,
		IsUsingPlanList: len(plans) > 0,
	}, nil
}

func (l *Loader) buildBody(tasks []TaskSpec, schemaFields map[ident.Ident][]FieldSpec, actionSchemas, goalSchemas map[ident.Ident]string) (plan.Body, error) {
	body := make(plan.Body, len(tasks))
	for i, t := range tasks {
		task := plan.Task{
			ActionName:  ident.Ident(t.ActionName),
			GoalName:    ident.Ident(t.GoalName),
			SleepMillis: t.SleepMillis,
			OnFailStep:  t.OnFailStep,
			Step:        t.Step,
			Text:        t.Text,
			Cond:        l.Predicates[t.Cond],
		}
		switch t.Kind {
		case "action":
			task.Kind = plan.TaskAction
			msg, err := l.buildParams(actionSchemas[task.ActionName], schemaFields, t.Params)
			if err != nil {
				return nil, fmt.Errorf("task %d (action %q): %w", i, t.ActionName, err)
			}
			task.Params = msg
		case "goal":
			task.Kind = plan.TaskGoal
			msg, err := l.buildParams(goalSchemas[task.GoalName], schemaFields, t.Params)
			if err != nil {
				return nil, fmt.Errorf("task %d (goal %q): %w", i, t.GoalName, err)
			}
			task.GoalParams = msg
		case "sleep":
			task.Kind = plan.TaskSleep
		case "cond":
			task.Kind = plan.TaskCond
		case "label":
			task.Kind = plan.TaskLabel
		case "print":
			task.Kind = plan.TaskPrint
		case "yield":
			task.Kind = plan.TaskYield
		case "nowait":
			task.Kind = plan.TaskNowait
		case "onSuccess":
			task.Kind = plan.TaskOnSuccess
		default:
			return nil, fmt.Errorf("unknown task kind %q", t.Kind)
		}
		body[i] = task
	}
	return body, nil
}

// buildParams converts a flat params map into a schema.Message, typing each
// value by the named schema's declared field Kind. Returns nil if schemaName
// or params is empty.
func (l *Loader) buildParams(schemaName string, fields map[ident.Ident][]FieldSpec, params map[string]any) (*schema.Message, error) {
	if schemaName == "" || len(params) == 0 {
		return nil, nil
	}
	decl := fields[ident.Ident(schemaName)]
	kindOf := make(map[string]schema.Kind, len(decl))
	for _, f := range decl {
		k, err := parseKind(f.Kind)
		if err != nil {
			return nil, err
		}
		kindOf[f.Name] = k
	}
	msg := schema.NewMessage(ident.Ident(schemaName))
	for name, raw := range params {
		kind, ok := kindOf[name]
		if !ok {
			return nil, fmt.Errorf("field %q not declared on schema %q", name, schemaName)
		}
		v, err := valueFromAny(kind, raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		msg.Set(name, v)
	}
	return msg, nil
}
