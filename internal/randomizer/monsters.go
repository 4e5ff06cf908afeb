package randomizer

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/mappa"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/weights"
)

const (
	minMonsterLevel = 1
	maxMonsterLevel = 100
)

// randomizeMonsters replaces the spawn table of a floor with as many
// distinct monsters from pool as the floor had before. Levels stay within
// spread of the floor's original levels. Floors without spawns are skipped.
func randomizeMonsters(rng *rand.Rand, floor *mappa.Floor, pool []int, spread int) error {
	if len(floor.MonsterSpawns) == 0 || len(pool) == 0 {
		return nil
	}

	count := len(floor.MonsterSpawns)
	if count > len(pool) {
		count = len(pool)
	}

	candidates := append([]int(nil), pool...)
	sort.Ints(candidates)
	rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	chosen := candidates[:count]
	sort.Ints(chosen)

	spawnWeights, err := weights.RandomWeights(rng, count)
	if err != nil {
		return fmt.Errorf("monster weights: %w", err)
	}

	spawns := make([]mappa.MonsterSpawn, count)
	for i, id := range chosen {
		level := floor.MonsterSpawns[i].Level
		if spread > 0 {
			level += rng.Intn(2*spread+1) - spread
		}
		if level < minMonsterLevel {
			level = minMonsterLevel
		}
		if level > maxMonsterLevel {
			level = maxMonsterLevel
		}
		spawns[i] = mappa.MonsterSpawn{
			MonsterID: id,
			Level:     level,
			Weight:    spawnWeights[i],
			Weight2:   spawnWeights[i],
		}
	}
	floor.MonsterSpawns = spawns
	return nil
}

// knownMonsters returns every monster that spawns anywhere in data
func knownMonsters(data *mappa.Data) []int {
	seen := make(map[int]bool)
	for _, group := range data.FloorLists {
		for _, floor := range group {
			for _, spawn := range floor.MonsterSpawns {
				seen[spawn.MonsterID] = true
			}
		}
	}
	return sortedIDs(seen)
}

// knownTraps returns every trap that appears anywhere in data
func knownTraps(data *mappa.Data) []int {
	seen := make(map[int]bool)
	for _, group := range data.FloorLists {
		for _, floor := range group {
			for id := range floor.Traps {
				seen[id] = true
			}
		}
	}
	return sortedIDs(seen)
}

func sortedIDs(set map[int]bool) []int {
	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
