package bus

import (
	"testing"

	"github.com/jackrun/bdicore/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSelfEcho(t *testing.T) {
	self := ident.NewBusAddress(ident.NodeAgent, "a")
	e := ProtocolEvent{Type: EventMessage, SenderNode: self}
	err := Validate(e, self, nil)
	require.ErrorIs(t, err, ErrSelfEcho)
}

func TestValidatePursueRequiresRecipient(t *testing.T) {
	self := ident.NewBusAddress(ident.NodeAgent, "a")
	other := ident.NewBusAddress(ident.NodeAgent, "b")
	e := ProtocolEvent{Type: EventPursue, SenderNode: other}
	err := Validate(e, self, nil)
	require.Error(t, err)

	e.Recipient = ident.NewBusAddress(ident.NodeAgent, "c")
	err = Validate(e, self, nil)
	assert.NoError(t, err)
}

func TestValidateRejectsUnknownRecipient(t *testing.T) {
	self := ident.NewBusAddress(ident.NodeAgent, "a")
	other := ident.NewBusAddress(ident.NodeAgent, "b")
	recipient := ident.NewBusAddress(ident.NodeAgent, "ghost")

	e := ProtocolEvent{Type: EventPursue, SenderNode: other, Recipient: recipient}
	err := Validate(e, self, func(ident.BusAddress) bool { return false })
	require.Error(t, err)

	err = Validate(e, self, func(ident.BusAddress) bool { return true })
	assert.NoError(t, err)
}

func TestValidateDelegationRequiresTypedSender(t *testing.T) {
	self := ident.NewBusAddress(ident.NodeAgent, "a")
	svc := ident.NewBusAddress(ident.NodeService, "svc")
	team := ident.NewBusAddress(ident.NodeTeam, "t")

	e := ProtocolEvent{Type: EventDelegation, SenderNode: svc, Sender: svc, Recipient: team}
	err := Validate(e, self, nil)
	require.Error(t, err, "service is not a permitted delegation sender type")

	agent := ident.NewBusAddress(ident.NodeAgent, "a2")
	e = ProtocolEvent{Type: EventDelegation, SenderNode: agent, Sender: agent, Recipient: team}
	assert.NoError(t, Validate(e, self, nil))
}
