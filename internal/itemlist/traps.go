package itemlist

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/weights"
)

// BuildTraps picks a random non-empty subset of the allowed traps and weighs
// them. Returns an empty table if no traps are allowed.
func BuildTraps(rng *rand.Rand, allowed []int) (map[int]int, error) {
	table := make(map[int]int)
	if len(allowed) == 0 {
		return table, nil
	}

	pool := append([]int(nil), allowed...)
	sort.Ints(pool)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	chosen := pool[:1+rng.Intn(len(pool))]
	sort.Ints(chosen)

	trapWeights, err := weights.RandomWeights(rng, len(chosen))
	if err != nil {
		return nil, fmt.Errorf("trap weights: %w", err)
	}
	for i, id := range chosen {
		table[id] = trapWeights[i]
	}
	return table, nil
}
