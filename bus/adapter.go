package bus

import "github.com/jackrun/bdicore/ident"

// Adapter is a pluggable transport that distributes ProtocolEvents between
// peer engine nodes (spec §4.10, §6 BusAdapter). An Engine owns zero or more
// Adapters; every outbound event is broadcast on all of them, and Poll is
// drained once per tick.
type Adapter interface {
	// Address is this adapter's own bus address, used for self-echo
	// suppression by callers running Validate.
	Address() ident.BusAddress
	// Send broadcasts e to every other node reachable through this adapter.
	Send(e ProtocolEvent) error
	// Poll drains events received since the last Poll, oldest first. It
	// never blocks.
	Poll() []ProtocolEvent
	// Close releases any underlying transport resources.
	Close() error
}
