// Package schedule implements the A*-style heuristic planner over the
// search space of (goal, plan-or-delegate) expansions, including the
// auction mechanism used to solicit bids from team delegates (spec §4.3).
package schedule

import (
	"math"

	"github.com/jackrun/bdicore/belief"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/plan"
)

// FailedCost is the sentinel cost used when a node cannot be costed (an
// absent auction bid, a heuristic that signals infeasibility). Additions
// saturate at this value rather than overflowing (spec §4.3 step 4).
const FailedCost = math.MaxFloat64 / 4

// Decision is the kind of choice a SearchNode represents for its goal.
type Decision int

// Decisions a SearchNode may carry (spec §3).
const (
	DecisionNull Decision = iota
	DecisionPlan
	DecisionDelegate
)

// State is a SearchNode's position in the A* frontier.
type State int

// Node states (spec §3).
const (
	Open State = iota
	Closed
	Failed
)

// FailureReason explains why a node was moved to the failure list instead
// of the open frontier (spec §3, §4.3).
type FailureReason int

// Failure taxonomy (spec §3).
const (
	NoFailure FailureReason = iota
	PlanInvalid
	ServiceUnavailable
	HeuristicFailed
	ResourceViolation
	AuctionBidTimeout
)

// String renders the failure reason for human-readable drop messages.
func (f FailureReason) String() string {
	switch f {
	case PlanInvalid:
		return "PLAN_INVALID"
	case ServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case HeuristicFailed:
		return "HEURISTIC_FAILED"
	case ResourceViolation:
		return "RESOURCE_VIOLATION"
	case AuctionBidTimeout:
		return "AUCTION_BID_TIMEOUT"
	default:
		return "NONE"
	}
}

// NodeID is an arena index identifying one SearchNode, replacing the raw
// pointer parent/child links the original framework used (spec §6).
type NodeID int

// RootID is the fixed index of the root node in a Schedule's arena.
const RootID NodeID = 0

// Node is one SearchNode in the A* tree: "at this point the agent has
// decided plan P (or delegation to member M) for goal G under context C
// with remaining goals R" (spec §3).
type Node struct {
	ID     NodeID
	Parent NodeID
	HasParent bool

	GoalIdx    int // index into Schedule.goals; -1 for the root
	GoalHandle ident.GoalHandle
	Decision   Decision
	Plan     *plan.Definition   // set iff Decision == DecisionPlan
	Delegate ident.BusAddress   // set iff Decision == DecisionDelegate

	Context         *belief.Context
	ContextIsCloned bool

	GoalsRemaining []int
	Selection      goal.PlanSelection

	CostOfNode    float64
	CostFromStart float64
	EstimateToEnd float64
	CostTotal     float64

	State   State
	Failure FailureReason

	Children []NodeID

	seq int // insertion order, for stable tie-breaking in the open heap
}

func saturatingAdd(a, b float64) float64 {
	sum := a + b
	if sum > FailedCost || sum < 0 {
		return FailedCost
	}
	return sum
}
