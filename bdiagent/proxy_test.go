package bdiagent

import (
	"testing"
	"time"

	"github.com/jackrun/bdicore/bus"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	sent []bus.ProtocolEvent
}

func (r *recordingSender) SendEvent(e bus.ProtocolEvent) { r.sent = append(r.sent, e) }

func TestProxyAgentPursueSendsPursueEvent(t *testing.T) {
	sender := &recordingSender{}
	remote := ident.NewBusAddress(ident.NodeAgent, "remote")
	p := NewProxyAgent(remote, "worker", sender)

	def := &goal.Definition{Name: "explore"}
	handle := p.Pursue(def, false, nil)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, bus.EventPursue, sender.sent[0].Type)
	assert.True(t, sender.sent[0].Recipient.Equal(remote))
	assert.Equal(t, handle, sender.sent[0].GoalHandle)
}

func TestProxyAgentDropAndMessageForwardToRemote(t *testing.T) {
	sender := &recordingSender{}
	remote := ident.NewBusAddress(ident.NodeAgent, "remote")
	p := NewProxyAgent(remote, "worker", sender)

	p.Drop(ident.NewGoalHandle("explore"), bus.DropForce, "superseded")
	p.SendMessage(nil)

	require.Len(t, sender.sent, 2)
	assert.Equal(t, bus.EventDrop, sender.sent[0].Type)
	assert.Equal(t, bus.EventMessage, sender.sent[1].Type)
}

func TestProxyAgentStartStopTracksRunningAndEmitsControl(t *testing.T) {
	sender := &recordingSender{}
	p := NewProxyAgent(ident.NewBusAddress(ident.NodeAgent, "remote"), "worker", sender)

	p.Start()
	assert.True(t, p.Running())
	p.Stop()
	assert.False(t, p.Running())
	require.Len(t, sender.sent, 2)
	assert.Equal(t, bus.EventControl, sender.sent[0].Type)
	assert.Equal(t, bus.EventControl, sender.sent[1].Type)
}

func TestProxyAgentOnRegisterRecordsLiveness(t *testing.T) {
	p := NewProxyAgent(ident.NewBusAddress(ident.NodeAgent, "remote"), "worker", nil)
	_, ok := p.LastSeen()
	assert.False(t, ok)

	now := time.Now()
	p.OnRegister(now)
	seen, ok := p.LastSeen()
	assert.True(t, ok)
	assert.Equal(t, now, seen)
}
