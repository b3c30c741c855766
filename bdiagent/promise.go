// Package bdiagent implements Agent, Team, and ProxyAgent: the BDI instance
// types that own a BeliefContext, a desire list, and (for real agents) an
// AgentExecutor driving scheduling and intention stepping each engine tick
// (spec §4.2, §4.11).
package bdiagent

import (
	"sync"

	"github.com/jackrun/bdicore/ident"
)

// GoalPursue is the two-callback completion primitive returned by
// Agent.Pursue: then()/otherwise() are invoked exactly once, whichever the
// desire's eventual outcome is (spec §3 "Lifecycle summary", §9 "Promises").
type GoalPursue struct {
	Handle ident.GoalHandle

	mu          sync.Mutex
	resolved    bool
	success     bool
	reason      string
	thenFn      func()
	otherwiseFn func(reason string)
}

func newGoalPursue(handle ident.GoalHandle) *GoalPursue {
	return &GoalPursue{Handle: handle}
}

// Then registers the success callback, firing immediately if the promise
// already resolved successfully.
func (p *GoalPursue) Then(fn func()) *GoalPursue {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.thenFn = fn
	if p.resolved && p.success && fn != nil {
		fn()
	}
	return p
}

// Otherwise registers the failure callback, firing immediately if the
// promise already resolved unsuccessfully.
func (p *GoalPursue) Otherwise(fn func(reason string)) *GoalPursue {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.otherwiseFn = fn
	if p.resolved && !p.success && fn != nil {
		fn(p.reason)
	}
	return p
}

// resolve settles the promise exactly once; later calls are no-ops (spec §7:
// "Promises returned from pursue resolve exactly once").
func (p *GoalPursue) resolve(success bool, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.resolved {
		return
	}
	p.resolved = true
	p.success = success
	p.reason = reason
	switch {
	case success && p.thenFn != nil:
		p.thenFn()
	case !success && p.otherwiseFn != nil:
		p.otherwiseFn(reason)
	}
}
