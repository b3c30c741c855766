// Package config parses a YAML document into the immutable template structs
// Engine.Commit* accepts, standing in for the builder DSL that spec §6
// leaves out of scope to specify syntactically. Every data-only dimension of
// that DSL's table (names, schema references, resource bounds, plan bodies,
// tactic policy) is represented directly; the function-valued dimensions
// (pre/satisfied/dropWhen/heuristic/effects/cond, and service action
// handlers) are resolved by name against registries the caller supplies to
// the Loader, since YAML cannot encode an executable closure.
package config

// Document is the parsed, unvalidated YAML template document.
type Document struct {
	Schemas   []SchemaSpec   `yaml:"schemas"`
	Resources []ResourceSpec `yaml:"resources"`
	Actions   []ActionSpec   `yaml:"actions"`
	Goals     []GoalSpec     `yaml:"goals"`
	Plans     []PlanSpec     `yaml:"plans"`
	Tactics   []TacticSpec   `yaml:"tactics"`
	Roles     []RoleSpec     `yaml:"roles"`
	Services  []ServiceSpec  `yaml:"services"`
	Agents    []AgentSpec    `yaml:"agents"`
}

// FieldSpec is one field<T> / fieldWithValue<T> declaration.
type FieldSpec struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	ElemKind string `yaml:"elemKind,omitempty"`
	Nested   string `yaml:"nested,omitempty"`
	Required bool   `yaml:"required"`
}

// SchemaSpec declares one message schema's field dictionary.
type SchemaSpec struct {
	Name   string      `yaml:"name"`
	Fields []FieldSpec `yaml:"fields"`
}

// ResourceSpec declares one resource's min/max bounds.
type ResourceSpec struct {
	Name   string `yaml:"name"`
	Min    int64  `yaml:"min"`
	HasMin bool   `yaml:"hasMin"`
	Max    int64  `yaml:"max"`
	HasMax bool   `yaml:"hasMax"`
}

// ActionSpec declares one action's request/reply/feedback schema names.
type ActionSpec struct {
	Name     string `yaml:"name"`
	Request  string `yaml:"request,omitempty"`
	Reply    string `yaml:"reply,omitempty"`
	Feedback string `yaml:"feedback,omitempty"`
}

// GoalSpec declares one goal template: message schema plus named
// pre/satisfied/dropWhen/heuristic callbacks, resolved against the Loader's
// registries at Apply time.
type GoalSpec struct {
	Name          string `yaml:"name"`
	MessageSchema string `yaml:"message,omitempty"`
	Pre           string `yaml:"pre,omitempty"`
	Satisfied     string `yaml:"satisfied,omitempty"`
	DropWhen      string `yaml:"dropWhen,omitempty"`
	Heuristic     string `yaml:"heuristic,omitempty"`
	Persistent    bool   `yaml:"persistent"`
	Delegated     bool   `yaml:"delegated"`
}

// TaskSpec is one coroutine task in a plan body.
type TaskSpec struct {
	Kind string `yaml:"kind"` // action|goal|sleep|cond|label|print|yield|nowait|onSuccess

	ActionName string `yaml:"actionName,omitempty"`
	GoalName   string `yaml:"goalName,omitempty"`

	SleepMillis int64 `yaml:"sleepMillis,omitempty"`

	Cond       string `yaml:"cond,omitempty"`
	OnFailStep int    `yaml:"onFailStep,omitempty"`

	Step int    `yaml:"step,omitempty"`
	Text string `yaml:"text,omitempty"`

	// Params types against the target action's request schema (TaskAction)
	// or the target goal's message schema (TaskGoal), mirroring
	// InitialGoalSpec.Params (spec §6 "action(name, params?)"/"goal(name, params?)").
	Params map[string]any `yaml:"params,omitempty"`
}

// PlanSpec declares one plan template.
type PlanSpec struct {
	Name          string     `yaml:"name"`
	GoalName      string     `yaml:"handles"`
	Pre           string     `yaml:"pre,omitempty"`
	DropWhen      string     `yaml:"dropWhen,omitempty"`
	Effects       string     `yaml:"effects,omitempty"`
	ResourceLocks []string   `yaml:"lock,omitempty"`
	Body          []TaskSpec `yaml:"body"`
}

// TacticSpec declares one tactic template.
type TacticSpec struct {
	Name           string   `yaml:"name"`
	GoalName       string   `yaml:"goal"`
	Plans          []string `yaml:"plans,omitempty"`
	PlanOrder      string   `yaml:"planOrder"` // chooseBestPlan|excludePlanAfterAttempt|strict
	LoopPlansCount int      `yaml:"loopPlansCount,omitempty"`
	LoopInfinitely bool     `yaml:"loopPlansInfinitely,omitempty"`
}

// RoleBeliefSetSpec declares one belief channel's read/write grant.
type RoleBeliefSetSpec struct {
	Name  string `yaml:"name"`
	Read  bool   `yaml:"read"`
	Write bool   `yaml:"write"`
}

// RoleSpec declares one role template.
type RoleSpec struct {
	Name   string              `yaml:"name"`
	Goals  []string            `yaml:"goals"`
	Belief []RoleBeliefSetSpec `yaml:"beliefs,omitempty"`
}

// ServiceSpec declares one service's handle name and the actions it
// handles. The handlers invoked on dispatch are bound by action name
// through the Loader's ActionHandlers registry — config only carries the
// declarative shape (spec §6 "Action | request(schema), reply(schema),
// feedback(schema)" combined with the Agent/Team "services[]" dimension).
type ServiceSpec struct {
	Name    string   `yaml:"name"`
	Actions []string `yaml:"actions"`
	Proxy   string   `yaml:"proxy,omitempty"` // remote node/service name this mirrors, if any
}

// InitialGoalSpec names one desire installed automatically on creation.
// Params, if the goal declares a message schema, is converted to a
// schema.Message by looking up each field's declared Kind.
type InitialGoalSpec struct {
	GoalName   string         `yaml:"goal"`
	Persistent bool           `yaml:"persistent"`
	Params     map[string]any `yaml:"params,omitempty"`
}

// AgentSpec declares one Agent/Team template.
type AgentSpec struct {
	Name     string            `yaml:"name"`
	Team     bool              `yaml:"team,omitempty"`
	Desires  []InitialGoalSpec `yaml:"desires"`
	Services []string          `yaml:"services,omitempty"`
}
