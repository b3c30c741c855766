// Package runlog provides an append-only event log for BDI_LOG events: the
// GOAL_STARTED/GOAL_FINISHED/SUB_GOAL_*/INTENTION_*/ACTION_*/SLEEP_*/CONDITION
// hooks fired by the AgentExecutor and IntentionExecutor (spec §6 BDILogType,
// §8 "emits GOAL_FINISHED"). This is a supplemented feature (SPEC_FULL.md §4):
// spec.md names the BDILogType/BDILogGoalIntentionResult enums in its wire
// format section but does not specify a store; this package is grounded on
// the teacher's runlog.Store shape.
package runlog

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jackrun/bdicore/ident"
)

// Type enumerates the BDI log event kinds (spec §6 BDILogType).
type Type int

// BDI log event kinds.
const (
	GoalStarted Type = iota
	GoalFinished
	SubGoalStarted
	SubGoalFinished
	IntentionStarted
	IntentionFinished
	ActionStarted
	ActionFinished
	SleepStarted
	SleepFinished
	Condition
)

// String renders the event type name.
func (t Type) String() string {
	switch t {
	case GoalStarted:
		return "GOAL_STARTED"
	case GoalFinished:
		return "GOAL_FINISHED"
	case SubGoalStarted:
		return "SUB_GOAL_STARTED"
	case SubGoalFinished:
		return "SUB_GOAL_FINISHED"
	case IntentionStarted:
		return "INTENTION_STARTED"
	case IntentionFinished:
		return "INTENTION_FINISHED"
	case ActionStarted:
		return "ACTION_STARTED"
	case ActionFinished:
		return "ACTION_FINISHED"
	case SleepStarted:
		return "SLEEP_STARTED"
	case SleepFinished:
		return "SLEEP_FINISHED"
	case Condition:
		return "CONDITION"
	default:
		return "UNKNOWN"
	}
}

// Result is the outcome recorded against a GOAL_FINISHED/INTENTION_FINISHED
// event (spec §6 BDILogGoalIntentionResult).
type Result int

// Goal/intention outcomes.
const (
	ResultFailed Result = iota
	ResultSuccess
	ResultDropped
)

// Event is one immutable BDI log record.
type Event struct {
	ID        string
	AgentID   ident.BusAddress
	GoalID    ident.GoalHandle
	Type      Type
	Result    Result
	Detail    string
	Timestamp time.Time
}

// Store is an append-only BDI log, keyed per agent (spec §6; "introspection
// tooling" per SPEC_FULL.md §4).
type Store interface {
	// Append records e, assigning an opaque monotonic ID.
	Append(ctx context.Context, e *Event) error
	// List returns every event recorded for agentID, oldest first.
	List(ctx context.Context, agentID ident.BusAddress) ([]*Event, error)
}

// MemStore is an in-memory Store, the default wired into engine.Engine.
type MemStore struct {
	mu     sync.Mutex
	nextID int64
	events map[string][]*Event
}

// NewMemStore constructs an empty in-memory Store.
func NewMemStore() *MemStore {
	return &MemStore{events: make(map[string][]*Event)}
}

// Append implements Store.
func (s *MemStore) Append(_ context.Context, e *Event) error {
	if e == nil {
		return fmt.Errorf("runlog: event is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ev := *e
	ev.ID = strconv.FormatInt(s.nextID, 10)
	key := e.AgentID.String()
	s.events[key] = append(s.events[key], &ev)
	return nil
}

// List implements Store.
func (s *MemStore) List(_ context.Context, agentID ident.BusAddress) ([]*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Event(nil), s.events[agentID.String()]...), nil
}
