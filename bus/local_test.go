package bus

import (
	"testing"

	"github.com/jackrun/bdicore/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAdapterFanOutExcludesSender(t *testing.T) {
	net := NewNetwork()
	a := net.Join(ident.NewBusAddress(ident.NodeAgent, "a"))
	b := net.Join(ident.NewBusAddress(ident.NodeAgent, "b"))
	c := net.Join(ident.NewBusAddress(ident.NodeAgent, "c"))

	e := ProtocolEvent{Type: EventPercept, SenderNode: a.Address()}
	require.NoError(t, a.Send(e))

	assert.Empty(t, a.Poll(), "sender must not receive its own broadcast")
	bEvents := b.Poll()
	cEvents := c.Poll()
	require.Len(t, bEvents, 1)
	require.Len(t, cEvents, 1)
	assert.Equal(t, EventPercept, bEvents[0].Type)
}

func TestLocalAdapterCloseLeavesNetwork(t *testing.T) {
	net := NewNetwork()
	a := net.Join(ident.NewBusAddress(ident.NodeAgent, "a"))
	b := net.Join(ident.NewBusAddress(ident.NodeAgent, "b"))
	require.NoError(t, b.Close())

	require.NoError(t, a.Send(ProtocolEvent{Type: EventPercept, SenderNode: a.Address()}))
	assert.Empty(t, b.Poll(), "closed adapter should no longer be reachable")
}

func TestLocalAdapterPollDrainsOnce(t *testing.T) {
	net := NewNetwork()
	a := net.Join(ident.NewBusAddress(ident.NodeAgent, "a"))
	b := net.Join(ident.NewBusAddress(ident.NodeAgent, "b"))

	require.NoError(t, a.Send(ProtocolEvent{Type: EventPercept, SenderNode: a.Address()}))
	require.Len(t, b.Poll(), 1)
	assert.Empty(t, b.Poll())
}
