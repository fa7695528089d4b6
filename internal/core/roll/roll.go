// Package roll provides the random draws used by combat, loot, and events.
//
// Every function takes an explicit *rand.Rand so callers control seeding.
// Engines stay deterministic under a seeded source, which is how their
// tests exercise probability boundaries.
package roll

import "math/rand"

// Between returns a uniform integer in [min, max] inclusive.
func Between(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + rng.Intn(max-min+1)
}

// Percent rolls 1-100 and reports whether the roll landed at or below chance.
// A chance of zero or less never succeeds; 100 or more always succeeds.
func Percent(rng *rand.Rand, chance int) bool {
	if chance <= 0 {
		return false
	}
	if chance >= 100 {
		return true
	}
	return Between(rng, 1, 100) <= chance
}

// WeightedPick draws one index with probability proportional to its weight.
// Negative weights count as zero. When the total weight is zero or less,
// no index is drawn and WeightedPick returns -1.
func WeightedPick(rng *rand.Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return -1
	}

	r := Between(rng, 1, total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		r -= w
		if r <= 0 {
			return i
		}
	}
	return -1
}
