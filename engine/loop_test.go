package engine_test

import (
	"testing"
	"time"

	"github.com/jackrun/bdicore/engine"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteExitsWhenDoneWithNoAgents(t *testing.T) {
	e := engine.New("node-1", nil, nil)
	done := make(chan struct{})
	go func() {
		e.Execute(time.Millisecond, true)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Execute(exitWhenDone=true) did not return with no agents")
	}
}

func TestStartExitJoinStopsTheLoop(t *testing.T) {
	e := engine.New("node-1", nil, nil)
	trivialAgentTemplate(t, e, "survey_area")
	_, err := e.CreateAgent("explorer", "explorer-1", nil)
	require.NoError(t, err)

	e.SetIdleSleepDuration(time.Millisecond)
	e.Start(time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	e.Exit()

	done := make(chan struct{})
	go func() {
		e.Join()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Join did not return after Exit")
	}
}

func TestStartIsIdempotentWhileRunning(t *testing.T) {
	e := engine.New("node-1", nil, nil)
	e.SetIdleSleepDuration(time.Millisecond)
	e.Start(time.Millisecond)
	e.Start(time.Millisecond) // no-op; must not panic or spawn a second loop
	e.Exit()
	e.Join()
	assert.True(t, true)
}
