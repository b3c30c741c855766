package bus

import (
	"errors"
	"fmt"

	"github.com/jackrun/bdicore/ident"
)

// ValidationError reports why an inbound ProtocolEvent was rejected by
// baseProtocolEventCheck (spec §4.10, §7.4: "malformed event ... log at BUS
// severity and drop; never propagate to user code").
type ValidationError struct {
	Type   EventType
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bus: %s event rejected: %s", e.Type, e.Reason)
}

// ErrSelfEcho is returned when an event's senderNode is this engine's own
// address: self-echo suppression (spec §4.10).
var ErrSelfEcho = errors.New("bus: self-echo suppressed")

type presence int

const (
	presenceEmpty presence = iota
	presenceOptional
	presenceRequired
)

type rule struct {
	recipientPresence presence
	recipientTypes    []ident.NodeType // nil means "no type restriction"
	senderPresence    presence
	senderTypes       []ident.NodeType
}

var bdiTypes = []ident.NodeType{ident.NodeAgent, ident.NodeTeam, ident.NodeService}
var agentTeamTypes = []ident.NodeType{ident.NodeAgent, ident.NodeTeam}

// rules is the condensed rule table from spec §4.10.
var rules = map[EventType]rule{
	EventControl:        {recipientPresence: presenceRequired, recipientTypes: bdiTypes, senderPresence: presenceOptional},
	EventPercept:        {recipientPresence: presenceOptional, recipientTypes: bdiTypes, senderPresence: presenceOptional},
	EventMessage:        {recipientPresence: presenceOptional, recipientTypes: bdiTypes, senderPresence: presenceOptional},
	EventPursue:         {recipientPresence: presenceRequired, recipientTypes: agentTeamTypes, senderPresence: presenceOptional},
	EventDrop:           {recipientPresence: presenceRequired, recipientTypes: bdiTypes, senderPresence: presenceOptional},
	EventDelegation:     {recipientPresence: presenceRequired, recipientTypes: agentTeamTypes, senderPresence: presenceRequired, senderTypes: agentTeamTypes},
	EventRegister:       {recipientPresence: presenceOptional, senderPresence: presenceOptional},
	EventDeregister:     {recipientPresence: presenceOptional, senderPresence: presenceOptional},
	EventAgentJoinTeam:  {recipientPresence: presenceOptional, senderPresence: presenceOptional},
	EventAgentLeaveTeam: {recipientPresence: presenceOptional, senderPresence: presenceOptional},
	EventActionBegin:    {recipientPresence: presenceRequired, recipientTypes: bdiTypes, senderPresence: presenceRequired, senderTypes: bdiTypes},
	EventActionUpdate:   {recipientPresence: presenceRequired, recipientTypes: agentTeamTypes, senderPresence: presenceRequired, senderTypes: bdiTypes},
	EventBDILog:         {recipientPresence: presenceOptional, senderPresence: presenceOptional},
}

// Resolver reports whether a concrete BDI instance exists for addr, used to
// validate that a referenced agent/team/service is actually known locally
// (spec §4.10: "concrete BDI instance exists for the referenced address").
type Resolver func(addr ident.BusAddress) bool

// Validate runs baseProtocolEventCheck against e (spec §4.10).
func Validate(e ProtocolEvent, self ident.BusAddress, resolve Resolver) error {
	if e.SenderNode.Empty() {
		return &ValidationError{Type: e.Type, Reason: "senderNode unset"}
	}
	if !e.Type.InRange() {
		return &ValidationError{Type: e.Type, Reason: "event type out of range"}
	}
	if e.SenderNode.Equal(self) {
		return ErrSelfEcho
	}

	r, ok := rules[e.Type]
	if !ok {
		return &ValidationError{Type: e.Type, Reason: "no validation rule for event type"}
	}

	if err := checkAddress(e.Type, "recipient", e.Recipient, r.recipientPresence, r.recipientTypes, resolve); err != nil {
		return err
	}
	if err := checkAddress(e.Type, "sender", e.Sender, r.senderPresence, r.senderTypes, resolve); err != nil {
		return err
	}
	return nil
}

func checkAddress(t EventType, field string, addr ident.BusAddress, p presence, allowed []ident.NodeType, resolve Resolver) error {
	empty := addr.Empty()
	switch p {
	case presenceRequired:
		if empty {
			return &ValidationError{Type: t, Reason: field + " required but absent"}
		}
	case presenceEmpty:
		if !empty {
			return &ValidationError{Type: t, Reason: field + " must be empty"}
		}
	}
	if empty {
		return nil
	}
	if !addr.Valid() {
		return &ValidationError{Type: t, Reason: field + " address invalid"}
	}
	if len(allowed) > 0 && !typeAllowed(addr.Type, allowed) {
		return &ValidationError{Type: t, Reason: field + " type not permitted for this event"}
	}
	if addr.Type.IsBDI() && resolve != nil && !resolve(addr) {
		return &ValidationError{Type: t, Reason: field + " references unknown BDI instance"}
	}
	return nil
}

func typeAllowed(t ident.NodeType, allowed []ident.NodeType) bool {
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}
