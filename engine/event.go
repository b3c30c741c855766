// Package engine implements the Engine tick loop: template registries,
// live agents/services, the thread-safe internal EventQueue, and the
// pluggable BusAdapter layer that distributes protocol events to and from
// peer engine nodes (spec §2, §4.1, §4.9, §4.10).
package engine

import (
	"sync"

	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/intention"
	"github.com/jackrun/bdicore/schema"
)

// Kind enumerates the engine-internal event kinds (spec §4.9), a superset
// of the wire-level bus.EventType: TIMER, ACTION_COMPLETE, AUCTION, TACTIC,
// and SHARE_BELIEFSET never cross the bus.
type Kind int

// Internal event kinds.
const (
	KindRegister Kind = iota
	KindControl
	KindPercept
	KindMessage
	KindPursue
	KindDrop
	KindDelegation
	KindActionBegin
	KindActionComplete
	KindAuction
	KindTactic
	KindTimer
	KindShareBeliefSet
)

// Event is the engine-internal unit dispatched by eventDispatch; only the
// fields relevant to Kind are meaningful (spec §4.9).
type Event struct {
	Kind Kind

	Caller       ident.BusAddress
	Recipient    ident.BusAddress
	HasRecipient bool

	GoalName   ident.Ident
	GoalHandle ident.GoalHandle
	Msg        *schema.Message
	Persistent bool

	DropMode intention.DropMode
	Reason   string

	DelegationSuccess bool

	IntentionID   ident.IntentionID
	ActionHandle  ident.ActionHandle
	ActionName    ident.Ident
	ActionSuccess bool
	ActionReply   *schema.Message

	Start bool // KindControl: true = start, false = stop
}

// Queue is the thread-safe, bulk-dequeue internal event queue (spec §4.1
// "thread-safe EventQueue"): bus-adapter receive goroutines and in-process
// callers (actions finishing asynchronously, timers) push into it; the
// engine's own tick thread drains it once per poll.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

// NewQueue constructs an empty Queue.
func NewQueue() *Queue { return &Queue{} }

// Push enqueues e for the next drain.
func (q *Queue) Push(e Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, e)
}

// Drain atomically removes and returns every currently queued event, in
// FIFO order (spec §5 "events dispatched in the same tick ... processed in
// FIFO order").
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	events := q.events
	q.events = nil
	return events
}
