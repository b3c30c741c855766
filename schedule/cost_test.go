package schedule

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestSaturatingAddProperties validates the cost-arithmetic invariants the
// scheduler relies on (spec §8): costTotal >= costFromStart >= 0 and
// estimateToEnd >= 0. Both costFromStart and costTotal are built out of
// repeated saturatingAdd calls, so the invariants reduce to properties of
// saturatingAdd itself.
func TestSaturatingAddProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	nonNegative := gen.Float64Range(0, FailedCost)

	properties.Property("result is never negative", prop.ForAll(
		func(a, b float64) bool {
			return saturatingAdd(a, b) >= 0
		},
		nonNegative, nonNegative,
	))

	properties.Property("result never exceeds FailedCost", prop.ForAll(
		func(a, b float64) bool {
			return saturatingAdd(a, b) <= FailedCost
		},
		nonNegative, nonNegative,
	))

	properties.Property("monotonic in its first argument for non-negative inputs", prop.ForAll(
		func(a, b float64) bool {
			return saturatingAdd(a, b) >= a
		},
		nonNegative, nonNegative,
	))

	properties.Property("exact when the sum does not saturate", prop.ForAll(
		func(a, b float64) bool {
			sum := a + b
			if sum > FailedCost {
				return true // outside the exactness regime, skip
			}
			return saturatingAdd(a, b) == sum
		},
		nonNegative, nonNegative,
	))

	properties.Property("a FailedCost operand saturates the result", prop.ForAll(
		func(a float64) bool {
			return saturatingAdd(a, FailedCost) == FailedCost
		},
		nonNegative,
	))

	properties.TestingRun(t)
}

// TestCostAccumulationStaysWithinInvariants builds a small parent/child chain
// of saturatingAdd calls the way (*Scheduler).cost does and checks the chain
// never breaks costTotal >= costFromStart >= 0 (spec §8).
func TestCostAccumulationStaysWithinInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	step := gen.Float64Range(0, math.MaxFloat64/8)

	properties.Property("costTotal >= costFromStart >= 0 across a cost chain", prop.ForAll(
		func(parentCostFromStart, nodeCost, estimateToEnd float64) bool {
			costFromStart := saturatingAdd(parentCostFromStart, nodeCost)
			costTotal := saturatingAdd(costFromStart, estimateToEnd)
			return costTotal >= costFromStart && costFromStart >= 0 && estimateToEnd >= 0
		},
		step, step, step,
	))

	properties.TestingRun(t)
}
