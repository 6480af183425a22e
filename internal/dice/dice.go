// Package dice provides deterministic, seedable dice rolling.
//
// Rolls are deterministic with respect to the seed: the same seed and the
// same specs always produce the same results, which keeps replays and tests
// reproducible.
package dice

import (
	"math/rand"

	apperrors "github.com/louisbranch/turnforge/internal/platform/errors"
)

// Spec describes a homogeneous group of dice, e.g. 2d6.
type Spec struct {
	Sides int
	Count int
}

// Roll is the outcome of a single Spec.
type Roll struct {
	Sides   int
	Results []int
	Total   int
}

// Result is the outcome of rolling a full set of specs plus a flat modifier.
type Result struct {
	Rolls    []Roll
	Modifier int
	// Total is the sum of every die rolled plus Modifier.
	Total int
}

// ErrMissingDice indicates a roll request had no dice specified.
var ErrMissingDice = apperrors.New(apperrors.CodeDiceMissing, "at least one die must be provided")

// ErrInvalidSpec indicates a dice spec with a non-positive count or sides.
var ErrInvalidSpec = apperrors.New(apperrors.CodeDiceInvalidSpec, "dice count and sides must be positive")

// RollSeeded rolls the specs with a fresh source seeded from seed.
// Specs are processed in slice order and Result.Rolls preserves that order.
func RollSeeded(seed int64, modifier int, specs ...Spec) (Result, error) {
	return RollWithRng(rand.New(rand.NewSource(seed)), modifier, specs...)
}

// RollWithRng rolls the specs using the provided source, for callers that
// thread one source through a sequence of rolls.
func RollWithRng(rng *rand.Rand, modifier int, specs ...Spec) (Result, error) {
	if len(specs) == 0 {
		return Result{}, ErrMissingDice
	}

	rolls := make([]Roll, 0, len(specs))
	total := modifier
	for _, spec := range specs {
		if spec.Sides <= 0 || spec.Count <= 0 {
			return Result{}, ErrInvalidSpec
		}

		results := make([]int, spec.Count)
		rollTotal := 0
		for i := 0; i < spec.Count; i++ {
			value := rng.Intn(spec.Sides) + 1
			results[i] = value
			rollTotal += value
		}

		rolls = append(rolls, Roll{Sides: spec.Sides, Results: results, Total: rollTotal})
		total += rollTotal
	}

	return Result{Rolls: rolls, Modifier: modifier, Total: total}, nil
}
