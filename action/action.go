// Package action defines Action and Service templates: named operations a
// Service handles, the in-flight ActionHandle used to correlate deferred
// completions, and the structured Error type action handlers return
// (spec §4.8).
package action

import (
	"github.com/jackrun/bdicore/ident"
)

// Definition is the declarative, committed Action template: a named
// operation with optional request/reply/feedback message schemas.
type Definition struct {
	Name               ident.Ident
	RequestSchemaName  ident.Ident
	ReplySchemaName    ident.Ident
	FeedbackSchemaName ident.Ident
}

// Status is the outcome of a dispatched action.
type Status int

// Action outcomes.
const (
	Pending Status = iota
	Success
	Fail
)

// String renders the status name.
func (s Status) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Success:
		return "SUCCESS"
	case Fail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// ServiceDefinition is the declarative, committed Service template: a handle
// along with the set of action names it handles. A Service may be a proxy
// mirroring a remote service (spec §4.8); Proxy records the remote address
// it mirrors, zero-valued for a local service.
type ServiceDefinition struct {
	Handle  ident.BusAddress
	Actions []ident.Ident
	Proxy   ident.BusAddress
}

// Handles reports whether this service handles the named action.
func (d *ServiceDefinition) Handles(name ident.Ident) bool {
	for _, a := range d.Actions {
		if a == name {
			return true
		}
	}
	return false
}

// IsProxy reports whether this service mirrors a remote service rather than
// handling actions locally.
func (d *ServiceDefinition) IsProxy() bool {
	return !d.Proxy.Empty()
}
