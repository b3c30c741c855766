package engine

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// SetIdleSleepDuration overrides onIdleSleepDuration, the ceiling Execute
// sleeps for between ticks when no agent is executing (spec §4.1).
func (e *Engine) SetIdleSleepDuration(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.idleSleepDuration = d
}

// Start spawns a goroutine that owns the engine thread, ticking Poll(dt) in
// a loop until Exit is called (spec §4.1 "start()/join() — for owning the
// engine thread"). A no-op if the loop is already running.
func (e *Engine) Start(dt time.Duration) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.exitCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	e.mu.Unlock()

	go func() {
		defer close(e.doneCh)
		e.Execute(dt, false)
	}()
}

// Join blocks until a Start'd loop has exited.
func (e *Engine) Join() {
	e.mu.Lock()
	done := e.doneCh
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Exit signals a running Execute loop to stop after its current tick (spec
// §4.1 "exit()").
func (e *Engine) Exit() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	close(e.exitCh)
}

// Execute runs Poll in a loop until Exit is called or, if exitWhenDone is
// set, until no agent is running or executing (spec §4.1 "execute() runs
// poll in a loop until exit or — if exitWhenDone — until no agents are
// running/executing"). Between ticks it applies the idle-sleep policy:
// sleep until either the next agent timer fires or onIdleSleepDuration
// elapses, paced by golang.org/x/time/rate rather than a bare time.Sleep.
func (e *Engine) Execute(dt time.Duration, exitWhenDone bool) {
	ctx := context.Background()

	e.mu.Lock()
	if e.exitCh == nil {
		e.exitCh = make(chan struct{})
	}
	e.running = true
	exitCh := e.exitCh
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	for {
		select {
		case <-exitCh:
			return
		default:
		}

		if err := e.tickLimiter.Wait(ctx); err != nil {
			return
		}

		result := e.Poll(dt)

		if exitWhenDone && result.AgentsRunning == 0 && result.AgentsExecuting == 0 {
			return
		}
		if result.AgentsExecuting == 0 {
			e.idleSleep(ctx)
		}
	}
}

// idleSleep waits for the shorter of onIdleSleepDuration and the soonest
// pending agent timer, retuning the shared idle limiter's rate to that
// duration rather than allocating a fresh limiter per tick.
func (e *Engine) idleSleep(ctx context.Context) {
	e.mu.Lock()
	sleepFor := e.idleSleepDuration
	e.mu.Unlock()

	if d, ok := e.nextWake(); ok && d < sleepFor {
		sleepFor = d
	}
	if sleepFor <= 0 {
		return
	}

	e.idleLimiter.SetLimit(rate.Every(sleepFor))
	_ = e.idleLimiter.Wait(ctx)
}

// nextWake reports the soonest pending TaskSleep deadline across every live
// agent's intentions.
func (e *Engine) nextWake() (time.Duration, bool) {
	var soonest time.Duration
	found := false
	for _, a := range e.allLiveAgents() {
		ex := a.Executor()
		if ex == nil {
			continue
		}
		d, ok := ex.NextWake()
		if !ok {
			continue
		}
		if !found || d < soonest {
			soonest, found = d, true
		}
	}
	return soonest, found
}
