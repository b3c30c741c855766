package schedule

import (
	"container/heap"

	"github.com/jackrun/bdicore/belief"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/plan"
)

type bestDelegationEntry struct {
	delegate ident.BusAddress
	cost     float64
}

// Scheduler runs one A* search over (goal, plan-or-delegate) expansions for
// a single agent or team tick (spec §4.3). A Scheduler is single-use: build
// one per schedule-invalidation, call Run, discard it.
type Scheduler struct {
	goals    []*goal.Desire
	provider Provider

	arena       []Node
	open        openHeap
	failureNodes []NodeID
	nextSeq     int

	bestDelegation map[int]bestDelegationEntry
}

// New constructs a Scheduler over the given desires, rooted at a clone of
// rootCtx (spec §4.3 step 1: "Clone the agent's current BeliefContext").
func New(desires []*goal.Desire, rootCtx *belief.Context, provider Provider) *Scheduler {
	s := &Scheduler{
		goals:          desires,
		provider:       provider,
		bestDelegation: make(map[int]bestDelegationEntry),
	}

	remaining := make([]int, len(desires))
	for i := range desires {
		remaining[i] = i
	}

	root := Node{
		ID:             RootID,
		GoalIdx:        -1,
		Context:        rootCtx.Clone(),
		GoalsRemaining: remaining,
		State:          Open,
	}
	s.arena = append(s.arena, root)
	heap.Push(&s.open, entry{id: RootID, cost: 0, seq: s.nextSeq})
	s.nextSeq++
	return s
}

// Result is the outcome of a completed search: the chain of decisions from
// root to the best terminal node, one per root goal actually assigned.
type Result struct {
	Chain        []*Node
	FailureNodes []*Node
}

// Run executes the A* loop to completion (spec §4.3 steps 2-6): expand,
// cost (including any synchronous auction), deconflict, repeat until the
// open frontier empties or the best node has no remaining goals.
func (s *Scheduler) Run() Result {
	for s.open.Len() > 0 {
		best := heap.Pop(&s.open).(entry)
		node := &s.arena[best.id]
		if node.State != Open {
			continue
		}
		if len(node.GoalsRemaining) == 0 {
			return s.extractChain(node.ID)
		}
		node.State = Closed
		s.expand(node)
	}
	return s.bestEffortResult()
}

// bestEffortResult is used when the frontier empties without ever reaching
// a zero-remaining-goals node (every branch failed): return the
// lowest-cost closed node reached, if any, so the caller can still act on
// a partial plan instead of nothing.
func (s *Scheduler) bestEffortResult() Result {
	var bestID NodeID = -1
	var bestCost = FailedCost + 1
	for i := range s.arena {
		n := &s.arena[i]
		if n.State == Closed && n.CostTotal < bestCost {
			bestCost = n.CostTotal
			bestID = n.ID
		}
	}
	if bestID < 0 {
		return s.extractChain(RootID)
	}
	return s.extractChain(bestID)
}

func (s *Scheduler) extractChain(leaf NodeID) Result {
	var chain []*Node
	cur := &s.arena[leaf]
	for {
		if cur.GoalIdx >= 0 {
			chain = append([]*Node{cur}, chain...)
		}
		if !cur.HasParent {
			break
		}
		cur = &s.arena[cur.Parent]
	}
	var failures []*Node
	for _, id := range s.failureNodes {
		failures = append(failures, &s.arena[id])
	}
	return Result{Chain: chain, FailureNodes: failures}
}

// expand produces candidate children for node's expandable goals, and the
// first viable effectless goal, per spec §4.3 step 2.
func (s *Scheduler) expand(node *Node) {
	list := s.makeListOfGoalsToExpand(node)

	for _, gi := range list.expandable {
		s.expandGoalToPlans(node, gi)
	}
	if len(list.effectless) > 0 {
		s.expandGoalToPlans(node, list.effectless[0])
	}
}

func (s *Scheduler) expandGoalToPlans(node *Node, goalIdx int) {
	desire := s.goals[goalIdx]

	if desire.Def.Delegated {
		delegates := s.provider.Delegates(desire.Handle)
		if len(delegates) == 0 {
			s.addNullChild(node, goalIdx)
			return
		}
		for _, d := range delegates {
			s.addDelegateChild(node, goalIdx, d.Address)
		}
		return
	}

	candidates, selection := s.computeGoalPlanInfo(node, goalIdx)
	for _, p := range candidates {
		if !p.EvalPre(node.Context) || !s.provider.CanHandleAllActions(p) {
			s.pushFailure(node, goalIdx, PlanInvalid)
			continue
		}
		s.addPlanChild(node, goalIdx, p, selection)
	}
}

func (s *Scheduler) pushFailure(parent *Node, goalIdx int, reason FailureReason) {
	n := Node{
		ID:        NodeID(len(s.arena)),
		Parent:    parent.ID,
		HasParent: true,
		GoalIdx:   goalIdx,
		State:     Failed,
		Failure:   reason,
		Context:   parent.Context,
	}
	s.arena = append(s.arena, n)
	s.failureNodes = append(s.failureNodes, n.ID)
}

// addChild allocates a child SearchNode under parent for goalIdx, inheriting
// context and goalsRemaining and dropping goalIdx from the child's
// goalsRemaining when the goal is delegated or non-persistent (spec §4.3
// step 2: "if the goal is delegated OR non-persistent OR has plan that
// cannot model effects, remove G from the child's goalsRemaining" — the
// plan-specific half of that condition is applied by addPlanChild).
func (s *Scheduler) addChild(parent *Node, goalIdx int, decision Decision, delegate ident.BusAddress, selection goal.PlanSelection) NodeID {
	child := Node{
		ID:             NodeID(len(s.arena)),
		Parent:         parent.ID,
		HasParent:      true,
		GoalIdx:        goalIdx,
		GoalHandle:     s.goals[goalIdx].Handle,
		Decision:       decision,
		Delegate:       delegate,
		Context:        parent.Context,
		GoalsRemaining: parent.GoalsRemaining,
		Selection:      selection,
		State:          Open,
		seq:            s.nextSeq,
	}
	s.nextSeq++

	desire := s.goals[goalIdx]
	if desire.Def.Delegated || !desire.Persistent {
		child.GoalsRemaining = removeIdx(parent.GoalsRemaining, goalIdx)
	}

	parent.Children = append(parent.Children, child.ID)
	s.arena = append(s.arena, child)
	return child.ID
}

// addDelegateChild adds a candidate delegation to a team member, eligible
// for the AUCTION coordinator to cost via Provider.Delegates's synchronous
// bid callback (see provider.go).
func (s *Scheduler) addDelegateChild(parent *Node, goalIdx int, delegate ident.BusAddress) {
	id := s.addChild(parent, goalIdx, DecisionDelegate, delegate, goal.PlanSelection{})
	s.cost(id)
	s.deconflict(id)
}

// addNullChild adds the single null-allocation child emitted when a
// delegated goal currently has no eligible delegate, so the goal stays
// considered without committing to a decision (spec §4.3 step 2).
func (s *Scheduler) addNullChild(parent *Node, goalIdx int) {
	id := s.addChild(parent, goalIdx, DecisionNull, ident.BusAddress{}, goal.PlanSelection{})
	s.cost(id)
	s.deconflict(id)
}

// addPlanChild adds a candidate plan decision, costing it (including effect
// modelling) and deconflicting it against resource bounds.
func (s *Scheduler) addPlanChild(parent *Node, goalIdx int, p *plan.Definition, selection goal.PlanSelection) {
	id := s.addChild(parent, goalIdx, DecisionPlan, ident.BusAddress{}, selection)
	child := &s.arena[id]
	child.Plan = p
	if !p.CanModelEffect {
		child.GoalsRemaining = removeIdx(parent.GoalsRemaining, goalIdx)
	}
	s.cost(id)
	s.deconflict(id)
}

func removeIdx(xs []int, v int) []int {
	out := make([]int, 0, len(xs))
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
