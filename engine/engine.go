package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackrun/bdicore/action"
	"github.com/jackrun/bdicore/belief"
	"github.com/jackrun/bdicore/bdiagent"
	"github.com/jackrun/bdicore/bus"
	"github.com/jackrun/bdicore/executor"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/intention"
	"github.com/jackrun/bdicore/plan"
	"github.com/jackrun/bdicore/role"
	"github.com/jackrun/bdicore/runlog"
	"github.com/jackrun/bdicore/schema"
	"github.com/jackrun/bdicore/tactic"
	"github.com/jackrun/bdicore/telemetry"
	"golang.org/x/time/rate"
)

// heartbeatPeriod is the interval at which Engine re-announces itself with a
// REGISTER event, letting peer engines refresh their BusDirectory entry for
// it (spec §4.10).
const heartbeatPeriod = 5 * time.Second

// queueBusEventsPriorToThisPollCount buffers outbound bus sends issued
// before the engine's second poll, flushing them once adapters have had a
// chance to exchange their own REGISTER handshake (spec §4.1: "outbound
// events sent before the engine has polled at least once are queued and
// flushed on the next poll").
const queueBusEventsPriorToThisPollCount = 1

// defaultIdleSleepDuration is the onIdleSleepDuration Execute falls back to
// when no agent has a sooner pending timer (spec §4.1 poll sleep policy).
const defaultIdleSleepDuration = 250 * time.Millisecond

// defaultTickRate caps how often Execute drives Poll while any agent is
// actively executing, so the thread-owning loop never busy-spins.
const defaultTickRate = 100 // ticks/sec

// liveAgent is the subset of bdiagent.Agent/bdiagent.Team behaviour the
// engine drives uniformly; both satisfy it through method promotion.
type liveAgent interface {
	Run(dt time.Duration)
	Start()
	Stop()
	Running() bool
	Pursue(def *goal.Definition, persistent bool, msg *schema.Message, presetID *uuid.UUID) *bdiagent.GoalPursue
	Drop(handle ident.GoalHandle, reason string) bool
	DropWithMode(handle ident.GoalHandle, mode intention.DropMode, reason string) bool
	SendMessage(msg *schema.Message, broadcastToBus bool)
	AttachService(handle ident.BusAddress, force bool)
	AttachedServices() []ident.BusAddress
	Executor() *executor.Executor
}

// Engine owns the committed template registries, the live agent/team/proxy/
// service instances created from them, the internal event queue, and the
// bus adapters distributing protocol events to peer engine nodes (spec §2,
// §4.1).
type Engine struct {
	Name   string
	Handle ident.BusAddress

	logger      telemetry.Logger
	runlogStore runlog.Store

	mu sync.Mutex

	// Template registries (spec §4.1 commit*).
	goals            map[ident.Ident]*goal.Definition
	plans            map[ident.Ident]*plan.Definition
	tactics          map[ident.Ident]*tactic.Definition
	goalTactics      map[ident.Ident]*tactic.Definition
	roles            map[ident.Ident]*role.Definition
	actions          map[ident.Ident]*action.Definition
	schemas          *schema.Registry
	resources        map[ident.Ident]*belief.Resource
	serviceTemplates map[ident.BusAddress]*ServiceTemplate
	agentTemplates   map[ident.Ident]*AgentTemplate

	// Live instances.
	agents  map[ident.BusAddress]*bdiagent.Agent
	teams   map[ident.BusAddress]*bdiagent.Team
	proxies map[ident.BusAddress]*bdiagent.ProxyAgent

	// Bus layer.
	adapters  []bus.Adapter
	directory map[ident.BusAddress]time.Time
	backlog   []bus.ProtocolEvent

	queue *Queue

	deferred []func()

	pendingActions map[ident.ActionHandle]pendingAction

	clock              time.Duration
	lastPoll           time.Time
	pollCount          int
	heartbeatRemaining time.Duration

	// Thread-owning loop state (spec §4.1 start()/join()/execute()).
	idleSleepDuration time.Duration
	tickLimiter       *rate.Limiter
	idleLimiter       *rate.Limiter
	running           bool
	exitCh            chan struct{}
	doneCh            chan struct{}
}

// New constructs an empty Engine named name, addressed as handle (an engine
// itself is a NodeNode address on the bus, spec §6).
func New(name string, logger telemetry.Logger, store runlog.Store) *Engine {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	if store == nil {
		store = runlog.NewMemStore()
	}
	return &Engine{
		Name:        name,
		Handle:      ident.NewBusAddress(ident.NodeNode, name),
		logger:      logger,
		runlogStore: store,

		goals:            make(map[ident.Ident]*goal.Definition),
		plans:            make(map[ident.Ident]*plan.Definition),
		tactics:          make(map[ident.Ident]*tactic.Definition),
		goalTactics:      make(map[ident.Ident]*tactic.Definition),
		roles:            make(map[ident.Ident]*role.Definition),
		actions:          make(map[ident.Ident]*action.Definition),
		schemas:          schema.NewRegistry(),
		resources:        make(map[ident.Ident]*belief.Resource),
		serviceTemplates: make(map[ident.BusAddress]*ServiceTemplate),
		agentTemplates:   make(map[ident.Ident]*AgentTemplate),

		agents:  make(map[ident.BusAddress]*bdiagent.Agent),
		teams:   make(map[ident.BusAddress]*bdiagent.Team),
		proxies: make(map[ident.BusAddress]*bdiagent.ProxyAgent),

		directory: make(map[ident.BusAddress]time.Time),

		queue: NewQueue(),

		pendingActions: make(map[ident.ActionHandle]pendingAction),

		heartbeatRemaining: heartbeatPeriod,

		idleSleepDuration: defaultIdleSleepDuration,
		tickLimiter:       rate.NewLimiter(rate.Limit(defaultTickRate), 1),
		idleLimiter:       rate.NewLimiter(rate.Every(defaultIdleSleepDuration), 1),
	}
}

// pendingAction records the agent/intention a dispatched-but-not-yet-
// completed action belongs to, so FinishActionHandle can route the eventual
// result back to the right IntentionExecutor (spec §4.8).
type pendingAction struct {
	Agent       ident.BusAddress
	IntentionID ident.IntentionID
}

// PollResult summarises one tick, matching the tallies spec §4.1's poll()
// exposes for monitoring (agents running/executing this tick).
type PollResult struct {
	AgentsRunning   int
	AgentsExecuting int
}

func (e *Engine) log(ctx context.Context, msg string, keyvals ...any) {
	e.logger.Debug(ctx, msg, keyvals...)
}

func (e *Engine) appendRunlog(agent ident.BusAddress, t runlog.Type, result runlog.Result, handle ident.GoalHandle, detail string) {
	_ = e.runlogStore.Append(context.Background(), &runlog.Event{
		AgentID:   agent,
		GoalID:    handle,
		Type:      t,
		Result:    result,
		Detail:    detail,
		Timestamp: time.Now(),
	})
}

func (e *Engine) logErr(format string, args ...any) {
	e.logger.Error(context.Background(), fmt.Sprintf(format, args...))
}
