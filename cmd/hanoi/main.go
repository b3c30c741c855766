// Command hanoi drives the three-disk Tower of Hanoi scenario end to end:
// a single agent with a persistent goal, six move plans (one per ordered
// peg pair), and a heuristic-guided tactic picks plans greedily until every
// disk sits on peg 3.
package main

import (
	"fmt"

	"github.com/jackrun/bdicore/action"
	"github.com/jackrun/bdicore/belief"
	"github.com/jackrun/bdicore/engine"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/intention"
	"github.com/jackrun/bdicore/plan"
	"github.com/jackrun/bdicore/schema"
	"github.com/jackrun/bdicore/telemetry"
	"go.uber.org/zap"
)

const pegsStateSchema = ident.Ident("pegs_state")

// diskNames indexes the three disks by size rank: small=0, medium=1, large=2.
var diskNames = [3]string{"small", "medium", "large"}

func main() {
	zl, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	logger := telemetry.NewZapLogger(zl)

	e := engine.New("hanoi-node", logger, nil)

	// 1) Schemas
	if err := e.CommitMessageSchema(schema.Definition{
		Name: pegsStateSchema,
		Fields: []schema.Field{
			{Name: "small", Kind: schema.KindInt8, Required: true},
			{Name: "medium", Kind: schema.KindInt8, Required: true},
			{Name: "large", Kind: schema.KindInt8, Required: true},
		},
	}); err != nil {
		panic(err)
	}
	if err := e.CommitMessageSchema(schema.Definition{
		Name: "move_params",
		Fields: []schema.Field{
			{Name: "from", Kind: schema.KindInt8, Required: true},
			{Name: "to", Kind: schema.KindInt8, Required: true},
		},
	}); err != nil {
		panic(err)
	}

	// 2) Action + service: the only real side effect, moving a disk.
	const moveAction = ident.Ident("move_disk")
	if err := e.CommitAction(&action.Definition{
		Name:              moveAction,
		RequestSchemaName: "move_params",
	}); err != nil {
		panic(err)
	}

	var agentHandle ident.BusAddress
	serviceHandle := ident.NewBusAddress(ident.NodeService, "hanoi_service")
	if err := e.CommitService(engine.ServiceTemplate{
		Def: action.ServiceDefinition{Handle: serviceHandle, Actions: []ident.Ident{moveAction}},
		Handlers: map[ident.Ident]engine.ActionFunc{
			moveAction: func(agent ident.BusAddress, params *schema.Message) *intention.ActionResult {
				ctx, ok := e.AgentBelief(agentHandle)
				if !ok {
					return &intention.ActionResult{Success: false}
				}
				from, to := fieldInt8(params, "from"), fieldInt8(params, "to")
				if !movePeg(ctx, from, to) {
					return &intention.ActionResult{Success: false}
				}
				return &intention.ActionResult{Success: true}
			},
		},
	}); err != nil {
		panic(err)
	}

	// 3) Goal: solved once every disk occupies peg 3, estimated by the
	// classic optimal-remaining-moves count.
	const solveGoal = ident.Ident("solve_puzzle")
	if err := e.CommitGoal(&goal.Definition{
		Name:       solveGoal,
		Persistent: true,
		Satisfied: func(ctx *belief.Context) bool {
			return pegOf(ctx, "small") == 3 && pegOf(ctx, "medium") == 3 && pegOf(ctx, "large") == 3
		},
		Heuristic: func(ctx *belief.Context) float32 {
			return float32(movesRemaining(ctx, 3))
		},
	}); err != nil {
		panic(err)
	}

	// 4) Six move plans, one per ordered peg pair. A plan is only
	// applicable when its peg's top disk can legally land on the other peg.
	for from := int8(1); from <= 3; from++ {
		for to := int8(1); to <= 3; to++ {
			if from == to {
				continue
			}
			from, to := from, to // capture per plan
			name := ident.Ident(fmt.Sprintf("move_%d_to_%d", from, to))
			params := schema.NewMessage("move_params")
			params.Set("from", schema.IntValue(schema.KindInt8, int64(from)))
			params.Set("to", schema.IntValue(schema.KindInt8, int64(to)))

			if err := e.CommitPlan(&plan.Definition{
				Name:     name,
				GoalName: solveGoal,
				Pre: func(ctx *belief.Context) bool {
					return legalMove(ctx, from, to)
				},
				Effects: func(ctx *belief.Context) {
					movePeg(ctx, from, to)
				},
				CanModelEffect: true,
				Body: plan.Body{
					{Kind: plan.TaskAction, ActionName: moveAction, Params: params},
				},
			}); err != nil {
				panic(err)
			}
		}
	}

	// 5) Agent template: one solver pursuing solve_puzzle persistently,
	// backed by the move service. CommitGoal already installed a builtin
	// tactic (chooseBestPlan, infinite plan loop) for solve_puzzle, which is
	// exactly what the scenario calls for.
	if err := e.CommitAgentTemplate(engine.AgentTemplate{
		Name:         "solver",
		InitialGoals: []engine.InitialGoal{{GoalName: solveGoal, Persistent: true}},
		Services:     []ident.BusAddress{serviceHandle},
	}); err != nil {
		panic(err)
	}

	agentHandle, err = e.CreateAgent("solver", "solver-1", nil)
	if err != nil {
		panic(err)
	}

	// Seed the starting position: all three disks on peg 1. CreateAgent
	// only installs committed Resource templates, so the initial belief
	// message is set directly here.
	ctx, ok := e.AgentBelief(agentHandle)
	if !ok {
		panic("hanoi: agent belief context missing after CreateAgent")
	}
	start := schema.NewMessage(pegsStateSchema)
	start.Set("small", schema.IntValue(schema.KindInt8, 1))
	start.Set("medium", schema.IntValue(schema.KindInt8, 1))
	start.Set("large", schema.IntValue(schema.KindInt8, 1))
	ctx.SetMessage(start)

	// 6) Drive the engine until solved or the tick budget is exhausted.
	const maxTicks = 200
	solved := false
	for tick := 0; tick < maxTicks; tick++ {
		e.Poll(0)
		if pegOf(ctx, "small") == 3 && pegOf(ctx, "medium") == 3 && pegOf(ctx, "large") == 3 {
			solved = true
			fmt.Printf("solved after %d ticks\n", tick+1)
			break
		}
	}
	if !solved {
		fmt.Println("did not solve within tick budget")
	}
	fmt.Printf("final state: small=%d medium=%d large=%d\n",
		pegOf(ctx, "small"), pegOf(ctx, "medium"), pegOf(ctx, "large"))
}

// pegOf returns the peg number the named disk currently occupies.
func pegOf(ctx *belief.Context, disk string) int8 {
	v, ok := ctx.Get(pegsStateSchema, disk)
	if !ok {
		return 0
	}
	return int8(v.Int)
}

// topDisk returns the size rank (0=small .. 2=large) of the smallest disk
// present on peg p, and whether any disk is there at all.
func topDisk(ctx *belief.Context, p int8) (int, bool) {
	best := -1
	for rank, name := range diskNames {
		if pegOf(ctx, name) == p && (best == -1 || rank < best) {
			best = rank
		}
	}
	return best, best != -1
}

// legalMove reports whether the top disk on from may move onto to: from
// must hold a disk, and to's top disk (if any) must be larger.
func legalMove(ctx *belief.Context, from, to int8) bool {
	movingRank, ok := topDisk(ctx, from)
	if !ok {
		return false
	}
	targetRank, ok := topDisk(ctx, to)
	if !ok {
		return true
	}
	return targetRank > movingRank
}

// movePeg applies the move if legal, returning whether it did.
func movePeg(ctx *belief.Context, from, to int8) bool {
	if !legalMove(ctx, from, to) {
		return false
	}
	rank, _ := topDisk(ctx, from)
	msg, ok := ctx.Message(pegsStateSchema)
	if !ok {
		msg = schema.NewMessage(pegsStateSchema)
	}
	msg.Set(diskNames[rank], schema.IntValue(schema.KindInt8, int64(to)))
	ctx.SetMessage(msg)
	return true
}

// movesRemaining computes the optimal number of moves left to gather every
// disk onto target, processing disks largest-to-smallest: if a disk already
// sits off the path to target it, along with every smaller disk resting on
// it, must make an extra 2^k detour moves.
func movesRemaining(ctx *belief.Context, target int8) int {
	moves := 0
	cur := target
	for rank := 2; rank >= 0; rank-- {
		disk := diskNames[rank]
		p := pegOf(ctx, disk)
		if p != cur {
			moves += 1 << uint(rank)
			cur = otherPeg(cur, p)
		}
	}
	return moves
}

// otherPeg returns the peg that is neither a nor b.
func otherPeg(a, b int8) int8 {
	for p := int8(1); p <= 3; p++ {
		if p != a && p != b {
			return p
		}
	}
	return 0
}

func fieldInt8(msg *schema.Message, field string) int8 {
	v, ok := msg.Get(field)
	if !ok {
		return 0
	}
	return int8(v.Int)
}
