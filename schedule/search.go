package schedule

import (
	"container/heap"

	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
)

// entry is one item on the A* open frontier: a NodeID ordered by ascending
// CostTotal, ties broken by insertion order for determinism (spec §4.3:
// "priority queue on costTotal ascending, stable ordering for ties by
// insertion").
type entry struct {
	id   NodeID
	cost float64
	seq  int
}

// openHeap implements container/heap.Interface over pending entries.
type openHeap []entry

func (h openHeap) Len() int { return len(h) }
func (h openHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	return h[i].seq < h[j].seq
}
func (h openHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *openHeap) Push(x any) { *h = append(*h, x.(entry)) }

func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// cost computes CostOfNode/CostFromStart/EstimateToEnd/CostTotal for the
// node at id (spec §4.3 step 4). Nodes that cannot be costed (a missing
// auction bid, a heuristic signalling infeasibility) are moved to the
// failure list instead.
func (s *Scheduler) cost(id NodeID) {
	node := &s.arena[id]
	if node.State == Failed {
		return
	}
	parent := &s.arena[node.Parent]
	desire := s.goals[node.GoalIdx]

	switch node.Decision {
	case DecisionDelegate:
		bid, ok := s.bidFrom(desire, node.Delegate)
		if !ok {
			s.failNode(id, AuctionBidTimeout)
			return
		}
		node.CostOfNode = bid
		if best, have := s.bestDelegation[node.GoalIdx]; !have || bid < best.cost {
			s.bestDelegation[node.GoalIdx] = bestDelegationEntry{delegate: node.Delegate, cost: bid}
		}
	case DecisionNull:
		node.CostOfNode = 1.0
	case DecisionPlan:
		if node.Plan.CanModelEffect {
			cloned := node.Context.Clone()
			node.Plan.ApplyEffects(cloned)
			node.Context = cloned
			node.ContextIsCloned = true
		}
		h := node.Selection.FindOrMakeHistory(node.Plan.Name)
		h.LastLoopIteration = node.Selection.PlanLoopIteration
		node.CostOfNode = float64(desire.Def.EvalHeuristic(node.Context))
		if node.CostOfNode >= FailedCost {
			s.failNode(id, HeuristicFailed)
			return
		}
	}

	node.EstimateToEnd = s.estimateCostFrom(node.GoalIdx, node.Context, node.GoalsRemaining)
	node.CostFromStart = saturatingAdd(parent.CostFromStart, node.CostOfNode)
	node.CostTotal = saturatingAdd(node.CostFromStart, node.EstimateToEnd)
}

// bidFrom looks up the bid a specific delegate offers for desire, via the
// Provider's synchronous Bid callback (see provider.go for why this
// collapses the spec's async AUCTION/PENDING_COST round-trip).
func (s *Scheduler) bidFrom(desire *goal.Desire, delegate ident.BusAddress) (float64, bool) {
	for _, d := range s.provider.Delegates(desire.Handle) {
		if d.Address.Equal(delegate) {
			return d.Bid(desire.Handle)
		}
	}
	return 0, false
}

// failNode moves the node at id to the failure list with reason, removing
// it from further consideration on the open frontier.
func (s *Scheduler) failNode(id NodeID, reason FailureReason) {
	node := &s.arena[id]
	node.State = Failed
	node.Failure = reason
	s.failureNodes = append(s.failureNodes, id)
}

// deconflict checks the (possibly effect-modelled) context for resource
// violations, hypothetically applying the node's plan's resource locks
// first so a would-be conflict surfaces before the node ever reaches
// execution (spec §4.3 step 5, §5). Nodes that pass are pushed onto the
// open frontier.
func (s *Scheduler) deconflict(id NodeID) {
	node := &s.arena[id]
	if node.State == Failed {
		return
	}
	if node.Decision == DecisionPlan && len(node.Plan.ResourceLocks) > 0 {
		if !node.ContextIsCloned {
			node.Context = node.Context.Clone()
			node.ContextIsCloned = true
		}
		node.Context.LockResources(node.Plan.ResourceLocks)
	}
	if _, violated := node.Context.HasResourceViolation(); violated {
		s.failNode(id, ResourceViolation)
		return
	}
	node.State = Open
	heap.Push(&s.open, entry{id: id, cost: node.CostTotal, seq: node.seq})
}
