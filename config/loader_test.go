package config_test

import (
	"strings"
	"testing"

	"github.com/jackrun/bdicore/config"
	"github.com/jackrun/bdicore/engine"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/intention"
	"github.com/jackrun/bdicore/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `
schemas:
  - name: grip_request
    fields:
      - name: force
        kind: float32
        required: true
actions:
  - name: open_gripper
    request: grip_request
goals:
  - name: grip
    message: grip_request
plans:
  - name: grip_plan
    handles: grip
    body:
      - kind: action
        actionName: open_gripper
        params:
          force: 2.5
services:
  - name: gripper_svc
    actions:
      - open_gripper
agents:
  - name: arm
    services:
      - gripper_svc
    desires:
      - goal: grip
`

func TestLoaderApplyCommitsFullDocument(t *testing.T) {
	doc, err := config.Load(strings.NewReader(sampleDoc))
	require.NoError(t, err)

	e := engine.New("node-1", nil, nil)
	l := config.NewLoader()

	var gotForce float32
	l.ActionHandlers["gripper_svc"] = map[ident.Ident]engine.ActionFunc{
		"open_gripper": func(agent ident.BusAddress, params *schema.Message) *intention.ActionResult {
			if v, ok := params.Get("force"); ok {
				gotForce = v.Float32
			}
			return &intention.ActionResult{Success: true}
		},
	}

	addrs, err := l.Apply(e, doc)
	require.NoError(t, err)
	require.Contains(t, addrs, ident.Ident("gripper_svc"))

	_, err = e.CreateAgent("arm", "arm-1", nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		e.Poll(0)
	}

	assert.InDelta(t, 2.5, gotForce, 0.0001)
}

func TestLoaderApplyRejectsPlanForUnknownGoal(t *testing.T) {
	doc, err := config.Load(strings.NewReader(`
plans:
  - name: orphan_plan
    handles: nonexistent_goal
`))
	require.NoError(t, err)

	e := engine.New("node-1", nil, nil)
	_, err = config.NewLoader().Apply(e, doc)
	assert.Error(t, err)
}

func TestLoaderApplyRejectsUnknownTaskKind(t *testing.T) {
	doc, err := config.Load(strings.NewReader(`
goals:
  - name: grip
plans:
  - name: grip_plan
    handles: grip
    body:
      - kind: not_a_real_kind
`))
	require.NoError(t, err)

	e := engine.New("node-1", nil, nil)
	_, err = config.NewLoader().Apply(e, doc)
	assert.Error(t, err)
}
