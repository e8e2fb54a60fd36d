package cards

import "math/rand/v2"

// Shuffle permutes items in place with a Fisher-Yates pass.
func Shuffle[T any](items []T, rng *rand.Rand) []T {
	swap := func(i, j int) { items[i], items[j] = items[j], items[i] }
	if rng == nil {
		rand.Shuffle(len(items), swap)
		return items
	}
	rng.Shuffle(len(items), swap)
	return items
}
