package bdiagent

import (
	"testing"

	"github.com/jackrun/bdicore/ident"
	"github.com/stretchr/testify/assert"
)

func TestGoalPursueThenFiresOnSuccess(t *testing.T) {
	p := newGoalPursue(ident.NewGoalHandle("g"))
	var fired bool
	p.Then(func() { fired = true })
	p.resolve(true, "")
	assert.True(t, fired)
}

func TestGoalPursueOtherwiseFiresOnFailure(t *testing.T) {
	p := newGoalPursue(ident.NewGoalHandle("g"))
	var reason string
	p.Otherwise(func(r string) { reason = r })
	p.resolve(false, "unreachable")
	assert.Equal(t, "unreachable", reason)
}

func TestGoalPursueResolvesExactlyOnce(t *testing.T) {
	p := newGoalPursue(ident.NewGoalHandle("g"))
	count := 0
	p.Then(func() { count++ })
	p.resolve(true, "")
	p.resolve(true, "")
	p.resolve(false, "too late")
	assert.Equal(t, 1, count)
}

func TestGoalPursueLateRegistrationFiresImmediately(t *testing.T) {
	p := newGoalPursue(ident.NewGoalHandle("g"))
	p.resolve(false, "already done")
	var reason string
	p.Otherwise(func(r string) { reason = r })
	assert.Equal(t, "already done", reason)
}
