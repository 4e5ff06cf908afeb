// Package randomizer runs a full randomization over the floor data: repair,
// floor contents, floor counts, and a final structural check.
package randomizer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/config"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/dungeon"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/itemlist"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/items"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/logger"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/mappa"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/progress"
)

// ErrInvalidResult is returned when the randomized data fails validation
var ErrInvalidResult = errors.New("randomized dungeon table is invalid")

// Progress steps
const (
	StepRepair   = "repair"
	StepFloors   = "floors"
	StepResize   = "resize"
	StepValidate = "validate"
)

// GroupResult is the resize outcome of one floor-list group
type GroupResult struct {
	MappaIndex int
	OldFloors  int
	NewFloors  int
	Applied    bool
	Reason     string
}

// Report describes a finished run
type Report struct {
	Data             *mappa.Data // randomized copy of the input
	Repairs          int
	RandomizedFloors int
	FloorsBefore     int
	FloorsAfter      int
	Groups           []GroupResult
	Duration         time.Duration
}

// DungeonRandomizer randomizes floor data according to a RandomizerConfig
type DungeonRandomizer struct {
	config   *config.RandomizerConfig
	rng      *rand.Rand
	status   progress.Status
	repairer *dungeon.Repairer
	resize   dungeon.ResizeParams
	resizer  *dungeon.Resizer
	builder  *itemlist.Builder
}

// New creates a randomizer. status may be nil.
func New(cfg *config.RandomizerConfig, catalog *items.Catalog, rng *rand.Rand, status progress.Status) (*DungeonRandomizer, error) {
	algorithm, err := itemlist.ParseAlgorithm(cfg.Dungeons.ItemAlgorithm)
	if err != nil {
		return nil, err
	}

	categoryWeights := make(map[items.Category]float64, len(cfg.Dungeons.CategoryWeights))
	for name, weight := range cfg.Dungeons.CategoryWeights {
		cat, ok := items.StringToCategory(name)
		if !ok {
			return nil, fmt.Errorf("unknown item category %q in category_weights", name)
		}
		categoryWeights[cat] = weight
	}

	benign := make([]dungeon.BenignMissingFloor, len(cfg.Dungeons.BenignMissingFloors))
	for i, b := range cfg.Dungeons.BenignMissingFloors {
		benign[i] = dungeon.BenignMissingFloor{DungeonID: b.DungeonID, MappaIndex: b.MappaIndex, StartAfter: b.StartAfter}
	}

	if status == nil {
		status = progress.LogStatus{}
	}

	resize := dungeon.ResizeParams{
		MinChangePercent: cfg.Dungeons.MinFloorChangePercent,
		MaxChangePercent: cfg.Dungeons.MaxFloorChangePercent,
		MaxFloors:        cfg.Dungeons.MaxFloors,
	}

	return &DungeonRandomizer{
		config:   cfg,
		rng:      rng,
		status:   status,
		repairer: dungeon.NewRepairer(benign),
		resize:   resize,
		resizer:  dungeon.NewResizer(rng, resize),
		builder: itemlist.NewBuilder(catalog, itemlist.Config{
			Algorithm:       algorithm,
			AllowedItems:    allowedItems(catalog, cfg.Items.Allowed),
			CategoryWeights: categoryWeights,
		}, rng),
	}, nil
}

// allowedItems turns an allow list into a set. An empty list allows the
// whole catalog.
func allowedItems(catalog *items.Catalog, ids []int) map[int]bool {
	allowed := make(map[int]bool)
	if len(ids) > 0 {
		for _, id := range ids {
			allowed[id] = true
		}
		return allowed
	}
	for _, id := range catalog.IDs() {
		allowed[id] = true
	}
	return allowed
}

// Run randomizes a copy of data. The input is left untouched; the result is
// in Report.Data. The context is checked between dungeons and groups.
func (r *DungeonRandomizer) Run(ctx context.Context, data *mappa.Data) (report Report, err error) {
	start := time.Now()
	defer func() {
		report.Duration = time.Since(start)
		r.status.Done(err)
	}()

	out := data.Clone()
	report.FloorsBefore = countFloors(out)

	r.status.Update(StepRepair, "", 0, 1)
	report.Repairs, err = r.repairer.Run(out)
	if err != nil {
		return Report{}, err
	}
	r.status.Update(StepRepair, "", 1, 1)

	report.RandomizedFloors, err = r.randomizeFloors(ctx, out)
	if err != nil {
		return Report{}, err
	}

	if r.resize.Enabled() {
		report.Groups, err = r.resizeGroups(ctx, out)
		if err != nil {
			return Report{}, err
		}
	}

	r.status.Update(StepValidate, "", 0, 1)
	if errs := dungeon.Validate(out); len(errs) > 0 {
		for _, e := range errs {
			logger.Error("Invalid randomized dungeon", "dungeon", e.DungeonID, "kind", e.Kind.String(), "error", e.Error())
		}
		return Report{}, fmt.Errorf("%w: %d errors, first: %v", ErrInvalidResult, len(errs), errs[0])
	}
	r.status.Update(StepValidate, "", 1, 1)

	report.Data = out
	report.FloorsAfter = countFloors(out)
	logger.Info("Randomization complete",
		"repairs", report.Repairs,
		"randomized_floors", report.RandomizedFloors,
		"floors_before", report.FloorsBefore,
		"floors_after", report.FloorsAfter)
	return report, nil
}

// randomizeFloors rewrites the contents of every floor of every enabled
// dungeon. Changed floors are copies; the originals stay shared with the
// input data.
func (r *DungeonRandomizer) randomizeFloors(ctx context.Context, data *mappa.Data) (int, error) {
	cfg := r.config.Dungeons
	if !cfg.RandomizeItems && !cfg.RandomizeTraps && !cfg.RandomizeMonsters {
		return 0, nil
	}

	traps := r.config.Traps.Allowed
	if len(traps) == 0 {
		traps = knownTraps(data)
	}
	monsters := r.config.Monsters.Allowed
	if len(monsters) == 0 {
		monsters = knownMonsters(data)
	}

	count := 0
	for id, def := range data.Dungeons {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		r.status.Update(StepFloors, fmt.Sprintf("dungeon %d", id), id+1, len(data.Dungeons))
		if !cfg.IsRandomized(id) {
			continue
		}

		group := data.FloorLists[def.MappaIndex]
		for i := def.StartAfter; i < def.End(); i++ {
			floor, err := group[i].Duplicate()
			if err != nil {
				return count, fmt.Errorf("dungeon %d floor %d: %w", id, i-def.StartAfter, err)
			}
			if cfg.RandomizeItems {
				if err := r.randomizeItems(floor); err != nil {
					return count, fmt.Errorf("dungeon %d floor %d: %w", id, i-def.StartAfter, err)
				}
			}
			if cfg.RandomizeTraps {
				if floor.Traps, err = itemlist.BuildTraps(r.rng, traps); err != nil {
					return count, fmt.Errorf("dungeon %d floor %d: %w", id, i-def.StartAfter, err)
				}
			}
			if cfg.RandomizeMonsters {
				if err := randomizeMonsters(r.rng, floor, monsters, r.config.Monsters.LevelSpread); err != nil {
					return count, fmt.Errorf("dungeon %d floor %d: %w", id, i-def.StartAfter, err)
				}
			}
			group[i] = floor
			count++
		}
	}
	return count, nil
}

func (r *DungeonRandomizer) randomizeItems(floor *mappa.Floor) error {
	lists := []*mappa.ItemList{&floor.FloorItems, &floor.ShopItems, &floor.MonsterHouseItems, &floor.BuriedItems}
	for _, list := range lists {
		built, err := r.builder.Build()
		if err != nil {
			return err
		}
		*list = built
	}
	return nil
}

// resizeGroups resizes every group that holds at least one enabled dungeon
// and commits the outcomes that apply.
func (r *DungeonRandomizer) resizeGroups(ctx context.Context, data *mappa.Data) ([]GroupResult, error) {
	var results []GroupResult
	for idx, floors := range data.FloorLists {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		r.status.Update(StepResize, fmt.Sprintf("floor list %d", idx), idx+1, len(data.FloorLists))

		ids := data.GroupDungeonIDs(idx)
		groupDungeons := make([]dungeon.GroupDungeon, 0, len(ids))
		enabled := false
		for _, id := range ids {
			randomize := r.config.Dungeons.IsRandomized(id)
			enabled = enabled || randomize
			groupDungeons = append(groupDungeons, dungeon.GroupDungeon{ID: id, Def: data.Dungeons[id], Randomize: randomize})
		}
		if !enabled {
			continue
		}

		outcome, err := r.resizer.ResizeGroup(idx, floors, groupDungeons)
		if err != nil {
			return results, err
		}

		result := GroupResult{MappaIndex: idx, OldFloors: len(floors), NewFloors: len(floors), Reason: outcome.Reason}
		if outcome.Applied {
			data.FloorLists[idx] = outcome.Floors
			for _, gd := range outcome.Dungeons {
				data.Dungeons[gd.ID] = gd.Def
			}
			result.Applied = true
			result.NewFloors = len(outcome.Floors)
		}
		results = append(results, result)
	}
	return results, nil
}

func countFloors(data *mappa.Data) int {
	n := 0
	for _, group := range data.FloorLists {
		n += len(group)
	}
	return n
}
