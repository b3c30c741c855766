package schedule

import (
	"sort"

	"github.com/jackrun/bdicore/belief"
	"github.com/jackrun/bdicore/goal"
	"github.com/jackrun/bdicore/ident"
	"github.com/jackrun/bdicore/plan"
	"github.com/jackrun/bdicore/tactic"
)

// goalPlanList partitions a node's remaining goals for expansion (spec §4.3
// makeListOfGoalsToExpand).
type goalPlanList struct {
	expandable []int
	effectless []int
}

// makeListOfGoalsToExpand partitions node.GoalsRemaining into goals with at
// least one effect-modelling plan (or delegated), versus effect-less goals
// sorted by ascending heuristic. Goals whose precondition no longer holds
// under node.Context are dropped from both lists.
func (s *Scheduler) makeListOfGoalsToExpand(node *Node) goalPlanList {
	var list goalPlanList
	type scored struct {
		idx   int
		score float32
	}
	var effectless []scored

	for _, gi := range node.GoalsRemaining {
		d := s.goals[gi]
		if !d.Def.Delegated && !d.Def.EvalPre(node.Context) {
			continue
		}
		if d.Def.Delegated {
			list.expandable = append(list.expandable, gi)
			continue
		}
		if s.goalHasEffectModellingPlan(d.Def.Name) {
			list.expandable = append(list.expandable, gi)
			continue
		}
		effectless = append(effectless, scored{idx: gi, score: d.Def.EvalHeuristic(node.Context)})
	}
	sort.SliceStable(effectless, func(i, j int) bool { return effectless[i].score < effectless[j].score })
	for _, e := range effectless {
		list.effectless = append(list.effectless, e.idx)
	}
	return list
}

func (s *Scheduler) goalHasEffectModellingPlan(goalName ident.Ident) bool {
	for _, p := range s.provider.PlansForGoal(goalName) {
		if p.CanModelEffect {
			return true
		}
	}
	return false
}

// computeGoalPlanInfo walks up the search tree from node's parent to the
// root to find the nearest ancestor expanding the same goal and inherit its
// PlanSelection (falling back to the root desire's own selection), then
// narrows the candidate plan set per the goal's tactic (spec §4.3).
func (s *Scheduler) computeGoalPlanInfo(node *Node, goalIdx int) ([]*plan.Definition, goal.PlanSelection) {
	selection := s.inheritedSelection(node, goalIdx)
	desire := s.goals[goalIdx]
	plans := s.provider.PlansForGoal(desire.Def.Name)
	t := s.provider.TacticForGoal(desire.Def.Name)
	if t == nil {
		return plans, selection
	}

	if t.Exhausted(selection.PlanLoopIteration) {
		return nil, selection
	}

	if t.IsUsingPlanList && t.PlanOrder == tactic.Strict && len(t.Plans) > 0 {
		selection.PlanListIndex = (selection.PlanListIndex + 1) % len(t.Plans)
		target := t.Plans[selection.PlanListIndex]
		for _, p := range plans {
			if p.Name == target {
				return []*plan.Definition{p}, selection
			}
		}
		return nil, selection
	}

	if t.PlanOrder == tactic.ExcludePlanAfterAttempt {
		var filtered []*plan.Definition
		for _, p := range plans {
			h := selection.FindOrMakeHistory(p.Name)
			if h.LastLoopIteration != selection.PlanLoopIteration {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) == 0 && !t.Exhausted(selection.PlanLoopIteration+1) {
			selection.PlanLoopIteration++
			return plans, selection
		}
		return filtered, selection
	}

	return plans, selection
}

func (s *Scheduler) inheritedSelection(node *Node, goalIdx int) goal.PlanSelection {
	cur := node
	for cur.HasParent {
		parent := &s.arena[cur.Parent]
		if parent.GoalIdx == goalIdx {
			return parent.Selection.Clone()
		}
		cur = parent
	}
	return s.goals[goalIdx].Selection.Clone()
}

// estimateCostFrom is the admissible remaining-cost heuristic (spec §4.3):
// sum the cost of every other remaining goal, then settle delegated goals
// against the cached best bids via greedy mutual-exclusion matching.
func (s *Scheduler) estimateCostFrom(currGoalIdx int, ctx *belief.Context, goalsRemaining []int) float64 {
	var total float64
	type delegated struct {
		idx  int
		cost float64
		addr ident.BusAddress
		has  bool
	}
	var pending []delegated

	for _, gi := range goalsRemaining {
		if gi == currGoalIdx {
			continue
		}
		d := s.goals[gi]
		if d.Def.Delegated {
			if best, ok := s.bestDelegation[gi]; ok {
				pending = append(pending, delegated{idx: gi, cost: best.cost, addr: best.delegate, has: true})
			} else {
				pending = append(pending, delegated{idx: gi, cost: 1.0})
			}
			continue
		}
		if d.Def.HasHeuristic() {
			total = saturatingAdd(total, float64(d.Def.EvalHeuristic(ctx)))
		} else {
			total = saturatingAdd(total, 1.0)
		}
	}

	sort.SliceStable(pending, func(i, j int) bool { return pending[i].cost < pending[j].cost })
	usedDelegate := make(map[string]bool)
	for _, p := range pending {
		if p.has && !usedDelegate[p.addr.String()] {
			usedDelegate[p.addr.String()] = true
			total = saturatingAdd(total, p.cost)
			continue
		}
		total = saturatingAdd(total, 1.0)
	}

	return total
}
