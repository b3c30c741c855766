package action_test

import (
	"errors"
	"testing"

	"github.com/jackrun/bdicore/action"
	"github.com/jackrun/bdicore/ident"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceDefinitionHandles(t *testing.T) {
	svc := &action.ServiceDefinition{
		Handle:  ident.NewBusAddress(ident.NodeService, "gripper-svc"),
		Actions: []ident.Ident{"open_gripper", "close_gripper"},
	}
	assert.True(t, svc.Handles("open_gripper"))
	assert.False(t, svc.Handles("move_disk"))
	assert.False(t, svc.IsProxy())
}

func TestServiceDefinitionProxy(t *testing.T) {
	svc := &action.ServiceDefinition{
		Proxy: ident.NewBusAddress(ident.NodeService, "remote-svc"),
	}
	assert.True(t, svc.IsProxy())
}

func TestErrorChain(t *testing.T) {
	root := errors.New("timeout")
	wrapped := action.NewErrorWithCause("action dispatch failed", root)

	var ae *action.Error
	require.True(t, errors.As(wrapped, &ae))
	assert.Equal(t, "action dispatch failed", ae.Error())
	assert.Equal(t, "timeout", ae.Cause.Error())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "SUCCESS", action.Success.String())
	assert.Equal(t, "FAIL", action.Fail.String())
	assert.Equal(t, "PENDING", action.Pending.String())
}
