package games

import (
	"github.com/play4stakes/play4stakes/internal/rng"
)

const (
	// GridSize is the number of cells in every puzzle grid.
	GridSize = 25

	// ScoutTargetCount is how many targets the scout variant asks for.
	ScoutTargetCount = 5

	gridSalt   = "grid-"
	targetSalt = "targets-"
)

// Board returns the seeded permutation of 1..GridSize shown to both players.
// The grid sequence is salted so it never correlates with target selection
// for the same seed.
func Board(seed string) []int {
	g := rng.New(gridSalt + seed)

	nums := make([]int, GridSize)
	for i := range nums {
		nums[i] = i + 1
	}

	// Fisher-Yates, highest index first.
	for i := len(nums) - 1; i > 0; i-- {
		j := int(g.Float64() * float64(i+1))
		nums[i], nums[j] = nums[j], nums[i]
	}

	return nums
}

// Targets picks k distinct values from 1..GridSize by drawing indexes into a
// shrinking candidate pool. Returns fewer than k values only when k exceeds
// the grid size.
func Targets(seed string, k int) []int {
	g := rng.New(targetSalt + seed)

	pool := make([]int, GridSize)
	for i := range pool {
		pool[i] = i + 1
	}

	out := make([]int, 0, k)
	for len(out) < k && len(pool) > 0 {
		idx := int(g.Float64() * float64(len(pool)))
		out = append(out, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}

	return out
}
