package bus

import (
	"sync"

	"github.com/jackrun/bdicore/ident"
)

// Network is an in-process loopback hub: every LocalAdapter Join()ed to the
// same Network receives every other member's broadcasts, mirroring the
// fan-out shape of a real pub/sub bus without any external dependency (spec
// §6 BusAdapter; grounded on the teacher's in-process Bus/Subscriber
// pattern). Tests that exercise multi-engine delegation without Redis build
// one Network and attach one LocalAdapter per engine.
type Network struct {
	mu      sync.Mutex
	members []*LocalAdapter
}

// NewNetwork constructs an empty in-process bus network.
func NewNetwork() *Network { return &Network{} }

// Join attaches a new member at addr and returns its Adapter handle.
func (n *Network) Join(addr ident.BusAddress) *LocalAdapter {
	a := &LocalAdapter{
		addr:  addr,
		net:   n,
		inbox: make(chan ProtocolEvent, 256),
	}
	n.mu.Lock()
	n.members = append(n.members, a)
	n.mu.Unlock()
	return a
}

func (n *Network) leave(a *LocalAdapter) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.members[:0]
	for _, m := range n.members {
		if m != a {
			out = append(out, m)
		}
	}
	n.members = out
}

func (n *Network) broadcast(from *LocalAdapter, e ProtocolEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, m := range n.members {
		if m == from {
			continue
		}
		select {
		case m.inbox <- e:
		default:
			// Drop rather than block a sender on a slow/full peer; a real
			// transport would apply backpressure, but loopback tests never
			// produce this volume.
		}
	}
}

// LocalAdapter is an in-process Adapter bound to a Network.
type LocalAdapter struct {
	addr  ident.BusAddress
	net   *Network
	inbox chan ProtocolEvent
}

// Address implements Adapter.
func (a *LocalAdapter) Address() ident.BusAddress { return a.addr }

// Send implements Adapter.
func (a *LocalAdapter) Send(e ProtocolEvent) error {
	a.net.broadcast(a, e)
	return nil
}

// Poll implements Adapter.
func (a *LocalAdapter) Poll() []ProtocolEvent {
	var out []ProtocolEvent
	for {
		select {
		case e := <-a.inbox:
			out = append(out, e)
		default:
			return out
		}
	}
}

// Close implements Adapter.
func (a *LocalAdapter) Close() error {
	a.net.leave(a)
	return nil
}
