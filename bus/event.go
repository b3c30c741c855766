// Package bus implements the protocol-event wire shape, the validation
// pipeline every inbound event passes through, and the pluggable
// BusAdapter contract that distributes those events between peer engine
// nodes (spec §4.10, §6).
package bus

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/runlog"
	"github.com/jackrun/bdicore/schema"
)

// EventType enumerates the protocol-level event kinds (spec §6 EventType).
type EventType int

// Protocol event kinds, with stable wire identifiers.
const (
	EventNone EventType = iota
	EventControl
	EventPercept
	EventPursue
	EventDrop
	EventDelegation
	EventMessage
	EventRegister
	EventDeregister
	EventAgentJoinTeam
	EventAgentLeaveTeam
	EventActionBegin
	EventActionUpdate
	EventBDILog
)

// String renders the event type name.
func (t EventType) String() string {
	switch t {
	case EventControl:
		return "CONTROL"
	case EventPercept:
		return "PERCEPT"
	case EventPursue:
		return "PURSUE"
	case EventDrop:
		return "DROP"
	case EventDelegation:
		return "DELEGATION"
	case EventMessage:
		return "MESSAGE"
	case EventRegister:
		return "REGISTER"
	case EventDeregister:
		return "DEREGISTER"
	case EventAgentJoinTeam:
		return "AGENT_JOIN_TEAM"
	case EventAgentLeaveTeam:
		return "AGENT_LEAVE_TEAM"
	case EventActionBegin:
		return "ACTION_BEGIN"
	case EventActionUpdate:
		return "ACTION_UPDATE"
	case EventBDILog:
		return "BDI_LOG"
	default:
		return "NONE"
	}
}

// InRange reports whether t is one of the declared EventType values.
func (t EventType) InRange() bool { return t >= EventNone && t <= EventBDILog }

// DropMode mirrors intention.DropMode on the wire without importing the
// intention package (spec §6 DropMode).
type DropMode int

// Wire drop modes.
const (
	DropNormal DropMode = iota
	DropForce
)

// DelegationStatus is the outcome of a delegated goal carried by a
// DELEGATION event (spec §6 DelegationStatus).
type DelegationStatus int

// Delegation statuses.
const (
	DelegationPending DelegationStatus = iota
	DelegationFailed
	DelegationSuccess
)

// ActionStatus mirrors action.Status on the wire (spec §6 ActionStatus).
type ActionStatus int

// Wire action statuses.
const (
	ActionSuccess ActionStatus = iota
	ActionFeedback
	ActionFailed
)

// ProtocolEvent is the wire-level shape every BusAdapter exchanges (spec
// §4.10, §6). Field ordering/semantics are normative; JSON tags make the
// struct directly usable by a JSON-compatible adapter transport.
type ProtocolEvent struct {
	TimestampUs int64            `json:"timestampUs"`
	Type        EventType        `json:"type"`
	EventID     uuid.UUID        `json:"eventId"`
	SenderNode  ident.BusAddress `json:"senderNode"`
	Sender      ident.BusAddress `json:"sender,omitempty"`
	Recipient   ident.BusAddress `json:"recipient,omitempty"`

	// Payload fields; only those relevant to Type are meaningful.
	GoalName         ident.Ident       `json:"goalName,omitempty"`
	GoalHandle       ident.GoalHandle  `json:"goalHandle,omitempty"`
	Message          *schema.Message   `json:"message,omitempty"`
	Persistent       bool              `json:"persistent,omitempty"`
	DropMode         DropMode          `json:"dropMode,omitempty"`
	Reason           string            `json:"reason,omitempty"`
	DelegationStatus DelegationStatus  `json:"delegationStatus,omitempty"`
	ActionHandle     ident.ActionHandle `json:"actionHandle,omitempty"`
	ActionStatus     ActionStatus      `json:"actionStatus,omitempty"`
	BDILogType       runlog.Type       `json:"bdiLogType,omitempty"`
	Proxy            bool              `json:"proxy,omitempty"`
}

// NewEventID generates a fresh event id.
func NewEventID() uuid.UUID { return uuid.New() }

// Now returns the current wall-clock time in microseconds. Engine does not
// use it for TimestampUs: it stamps each outbound event from its own
// monotonic clock before broadcasting (spec §4.1 sendBusEvent).
func Now() int64 { return time.Now().UnixMicro() }
