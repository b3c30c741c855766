// Package dag implements the IntentionExecutionDAG: the n-ary DAG of best
// intentions derived from a Schedule's winning chain, whose edges enforce
// resource-lock ordering between otherwise-independent decisions, and whose
// open/close protocol drives the AgentExecutor's cooperative tick (spec §3,
// §4.4).
package dag

import (
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/intention"
	"github.com/jackrun/bdicore/schedule"
)

// State is a DAGNode's position in the execution frontier.
type State int

// Node states.
const (
	Pending State = iota
	OpenState
	Closed
)

// NodeID is an arena index identifying one DAGNode (spec §9 arena/integer-ID
// redesign).
type NodeID int

// Node pairs one SearchNode from the winning schedule chain with the
// IntentionExecutor eventually bound to it, plus predecessor/successor
// bookkeeping (spec §3 DAGNode).
type Node struct {
	ID     NodeID
	Search *schedule.Node

	Intention *intention.Executor

	preds   []NodeID
	succs   []NodeID
	pending int // count of unresolved predecessors
	state   State
}

// GoalIdx returns the index into the originating Schedule's goal list that
// this node decided.
func (n *Node) GoalIdx() int { return n.Search.GoalIdx }

// GoalHandle returns the handle of the Desire this node decided.
func (n *Node) GoalHandle() ident.GoalHandle { return n.Search.GoalHandle }

// IsDelegation reports whether this node represents a delegation decision
// rather than a local plan.
func (n *Node) IsDelegation() bool { return n.Search.Decision == schedule.DecisionDelegate }

// DAG is the IntentionExecutionDAG: a topologically-orderable set of Nodes
// built from one Schedule's winning chain (spec §4.4).
type DAG struct {
	nodes []Node
}

// New builds a DAG from a Schedule result's winning chain.
func New(result schedule.Result) *DAG {
	d := &DAG{}
	d.setChain(result.Chain)
	return d
}

// SetSchedule rebuilds the DAG from a fresh Schedule result, discarding any
// prior structure (spec §4.4 setSchedule).
func (d *DAG) SetSchedule(result schedule.Result) {
	d.setChain(result.Chain)
}

func (d *DAG) setChain(chain []*schedule.Node) {
	d.nodes = make([]Node, len(chain))
	for i, sn := range chain {
		d.nodes[i] = Node{ID: NodeID(i), Search: sn, state: Pending}
	}

	// Edges: a later-decided node depends on an earlier-decided node when
	// their plans' resourceLocks overlap — resource-locked plans must
	// serialise (spec §4.4, §5). Delegation/null decisions carry no locks.
	for j := range d.nodes {
		later := &d.nodes[j]
		laterLocks := resourceLocks(later.Search)
		if len(laterLocks) == 0 {
			continue
		}
		for i := 0; i < j; i++ {
			earlier := &d.nodes[i]
			if overlaps(laterLocks, resourceLocks(earlier.Search)) {
				earlier.succs = append(earlier.succs, later.ID)
				later.preds = append(later.preds, earlier.ID)
				later.pending++
			}
		}
	}
}

func resourceLocks(n *schedule.Node) []ident.Ident {
	if n.Decision != schedule.DecisionPlan || n.Plan == nil {
		return nil
	}
	return n.Plan.ResourceLocks
}

func overlaps(a, b []ident.Ident) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// Open returns every node with zero unresolved predecessors that has not
// yet been opened (spec §4.4: "nodes whose predecessors are closed").
func (d *DAG) Open() []*Node {
	var out []*Node
	for i := range d.nodes {
		n := &d.nodes[i]
		if n.state == Pending && n.pending == 0 {
			n.state = OpenState
			out = append(out, n)
		}
	}
	return out
}

// Close marks node closed and returns the downstream nodes whose
// remaining-predecessor count just reached zero (spec §4.4 close).
func (d *DAG) Close(id NodeID) []*Node {
	n := &d.nodes[id]
	n.state = Closed
	var opened []*Node
	for _, sid := range n.succs {
		s := &d.nodes[sid]
		s.pending--
		if s.pending == 0 && s.state == Pending {
			s.state = OpenState
			opened = append(opened, s)
		}
	}
	return opened
}

// Done reports whether every node in the DAG is closed.
func (d *DAG) Done() bool {
	for i := range d.nodes {
		if d.nodes[i].state != Closed {
			return false
		}
	}
	return true
}

// Reset clears all node state without discarding the underlying chain,
// letting a caller re-derive open/close from scratch.
func (d *DAG) Reset() {
	for i := range d.nodes {
		d.nodes[i].state = Pending
		d.nodes[i].pending = len(d.nodes[i].preds)
		d.nodes[i].Intention = nil
	}
}

// Nodes returns every node in chain (decision) order.
func (d *DAG) Nodes() []*Node {
	out := make([]*Node, len(d.nodes))
	for i := range d.nodes {
		out[i] = &d.nodes[i]
	}
	return out
}

// Node returns the node at id.
func (d *DAG) Node(id NodeID) *Node { return &d.nodes[id] }
