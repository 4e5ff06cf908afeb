package main

import (
	"math/rand"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/mappa"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/weights"
)

// GeneratorConfig holds the shape of the generated data
type GeneratorConfig struct {
	Groups      int
	MaxDungeons int
	MaxFloors   int
	FixedChance int // percent
}

// FloorGenerator builds synthetic floor data for trying out the randomizer
type FloorGenerator struct {
	Seed   int64
	Config GeneratorConfig

	rng     *rand.Rand
	fixedID int
}

// NewFloorGenerator creates a new floor generator
func NewFloorGenerator(seed int64, config GeneratorConfig) *FloorGenerator {
	return &FloorGenerator{
		Seed:   seed,
		Config: config,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Generate builds floor lists whose dungeons tile them exactly
func (g *FloorGenerator) Generate() *mappa.Data {
	data := &mappa.Data{}
	for idx := 0; idx < g.Config.Groups; idx++ {
		dungeons := 1 + g.rng.Intn(g.Config.MaxDungeons)

		var group []*mappa.Floor
		first := len(data.Dungeons)
		for d := 0; d < dungeons; d++ {
			floors := 1 + g.rng.Intn(g.Config.MaxFloors)
			data.Dungeons = append(data.Dungeons, mappa.DungeonDef{
				MappaIndex:   idx,
				StartAfter:   len(group),
				NumberFloors: floors,
			})
			for f := 0; f < floors; f++ {
				group = append(group, g.generateFloor(idx))
			}
		}
		for i := first; i < len(data.Dungeons); i++ {
			data.Dungeons[i].NumberFloorsInGroup = len(group)
		}
		data.FloorLists = append(data.FloorLists, group)
	}
	return data
}

func (g *FloorGenerator) generateFloor(group int) *mappa.Floor {
	floor := &mappa.Floor{
		Layout: mappa.Layout{
			Structure:           g.rng.Intn(12),
			RoomDensity:         2 + g.rng.Intn(8),
			TilesetID:           group % 170,
			MusicID:             1 + group%110,
			FloorConnectivity:   10 + g.rng.Intn(20),
			InitialEnemyDensity: 2 + g.rng.Intn(6),
			KecleonShopChance:   g.rng.Intn(30),
			MonsterHouseChance:  g.rng.Intn(30),
			ItemDensity:         3 + g.rng.Intn(5),
			TrapDensity:         g.rng.Intn(10),
			DeadEnds:            g.rng.Intn(2) == 0,
			VisibilityRange:     g.rng.Intn(3),
		},
		FloorItems: defaultItemList(),
		Traps:      map[int]int{1: 5000, 2: weights.MaxWeight},
	}
	if g.rng.Intn(100) < g.Config.FixedChance {
		g.fixedID++
		floor.FixedFloorID = g.fixedID
	}

	spawns := 1 + g.rng.Intn(4)
	spawnWeights, err := weights.RandomWeights(g.rng, spawns)
	if err != nil {
		panic(err) // spawns is always a valid count
	}
	for i := 0; i < spawns; i++ {
		floor.MonsterSpawns = append(floor.MonsterSpawns, mappa.MonsterSpawn{
			MonsterID: 1 + g.rng.Intn(500),
			Level:     1 + g.rng.Intn(50),
			Weight:    spawnWeights[i],
			Weight2:   spawnWeights[i],
		})
	}
	return floor
}

// defaultItemList is a one-item table using the first sample item
func defaultItemList() mappa.ItemList {
	return mappa.ItemList{
		Categories: map[int]int{0: weights.MaxWeight},
		Items:      map[int]int{1: weights.MaxWeight},
	}
}
