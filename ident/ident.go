// Package ident provides strong type identifiers and bus addressing shared
// across the runtime.
package ident

import (
	"fmt"

	"github.com/google/uuid"
)

// Ident is the strong type for fully qualified template names (goals, plans,
// tactics, roles, actions, services, agents). Use this type when referencing
// templates in maps or APIs to avoid accidental mixing with free-form strings.
type Ident string

// NodeType enumerates the kind of entity a BusAddress refers to.
type NodeType int

// Stable wire identifiers for NodeType, per spec §6.
const (
	NodeGeneric NodeType = 0
	NodeNode    NodeType = 1
	NodeService NodeType = 2
	NodeAgent   NodeType = 3
	NodeTeam    NodeType = 4
)

// String renders the NodeType using its wire name.
func (t NodeType) String() string {
	switch t {
	case NodeGeneric:
		return "generic"
	case NodeNode:
		return "node"
	case NodeService:
		return "service"
	case NodeAgent:
		return "agent"
	case NodeTeam:
		return "team"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the declared NodeType values.
func (t NodeType) Valid() bool {
	return t >= NodeGeneric && t <= NodeTeam
}

// IsBDI reports whether t identifies a concrete BDI instance (agent, team, or
// service), as opposed to a generic or node-level address.
func (t NodeType) IsBDI() bool {
	return t == NodeAgent || t == NodeTeam || t == NodeService
}

// BusAddress identifies an addressable entity on the protocol bus. Addresses
// compare by ID only (see spec §6); Type and Name are descriptive.
type BusAddress struct {
	Type NodeType
	ID   uuid.UUID
	Name string
}

// NewBusAddress constructs a BusAddress with a freshly generated ID.
func NewBusAddress(t NodeType, name string) BusAddress {
	return BusAddress{Type: t, ID: uuid.New(), Name: name}
}

// Valid reports whether the address has a type in range and either both ID
// and Name are present or both are empty (§4.10 baseProtocolEventCheck).
func (a BusAddress) Valid() bool {
	if !a.Type.Valid() {
		return false
	}
	hasID := a.ID != uuid.Nil
	hasName := a.Name != ""
	return hasID == hasName
}

// Empty reports whether the address carries neither an ID nor a Name.
func (a BusAddress) Empty() bool {
	return a.ID == uuid.Nil && a.Name == ""
}

// Equal compares two addresses by ID only, per spec §6.
func (a BusAddress) Equal(b BusAddress) bool {
	return a.ID == b.ID
}

// String renders the compact "type/name/id" printable form.
func (a BusAddress) String() string {
	return fmt.Sprintf("%s/%s/%s", a.Type, a.Name, a.ID)
}

// GoalHandle uniquely identifies a goal instance at runtime: its template
// name plus a per-instance uuid (spec §3).
type GoalHandle struct {
	Name Ident
	UUID uuid.UUID
}

// NewGoalHandle constructs a GoalHandle with a freshly generated UUID.
func NewGoalHandle(name Ident) GoalHandle {
	return GoalHandle{Name: name, UUID: uuid.New()}
}

// String renders a human-readable "name#uuid" form used in drop reasons and logs.
func (h GoalHandle) String() string {
	return fmt.Sprintf("%s#%s", h.Name, h.UUID)
}

// IntentionID uniquely identifies one IntentionExecutor instance.
type IntentionID uuid.UUID

// NewIntentionID generates a fresh IntentionID.
func NewIntentionID() IntentionID { return IntentionID(uuid.New()) }

// String renders the underlying uuid.
func (i IntentionID) String() string { return uuid.UUID(i).String() }

// ActionHandle identifies an in-flight dispatched action, allowing deferred
// completion from an action handler (spec §4.8).
type ActionHandle uuid.UUID

// NewActionHandle generates a fresh ActionHandle.
func NewActionHandle() ActionHandle { return ActionHandle(uuid.New()) }

// String renders the underlying uuid.
func (h ActionHandle) String() string { return uuid.UUID(h).String() }
