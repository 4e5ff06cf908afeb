package dungeon

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/logger"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/mappa"
)

// repairPasses is how often Run validates and fixes before giving up
const repairPasses = 2

// ErrUnrepairable is returned by Run when errors remain after all passes
var ErrUnrepairable = errors.New("dungeon table cannot be repaired")

// BenignMissingFloor identifies a dungeon whose unreferenced trailing floors
// are a known leftover in the vanilla data and can simply be deleted.
type BenignMissingFloor struct {
	DungeonID  int
	MappaIndex int
	StartAfter int
}

// DefaultBenignMissingFloors lists the known vanilla artifacts
var DefaultBenignMissingFloors = []BenignMissingFloor{
	{DungeonID: 61, MappaIndex: 51, StartAfter: 37},
}

// Repairer fixes structural errors reported by Validate
type Repairer struct {
	benign []BenignMissingFloor
}

// NewRepairer creates a repairer. benign may be nil.
func NewRepairer(benign []BenignMissingFloor) *Repairer {
	return &Repairer{benign: benign}
}

// Run validates and fixes the data in place, up to two passes, and validates
// once more. It returns the number of repairs made.
func (r *Repairer) Run(data *mappa.Data) (int, error) {
	total := 0
	for pass := 0; pass < repairPasses; pass++ {
		errs := Validate(data)
		if len(errs) == 0 {
			break
		}
		logger.Info("Repairing dungeon table", "pass", pass+1, "errors", len(errs))
		n, err := r.Fix(data, errs)
		total += n
		if err != nil {
			return total, err
		}
	}

	if errs := Validate(data); len(errs) > 0 {
		for _, e := range errs {
			logger.Error("Unrepaired dungeon error", "dungeon", e.DungeonID, "kind", e.Kind.String(), "error", e.Error())
		}
		return total, fmt.Errorf("%w: %d errors remain, first: %v", ErrUnrepairable, len(errs), errs[0])
	}
	return total, nil
}

// Fix applies one repair per error and returns how many were applied.
// Floor counts of every touched or reported group are recomputed after the
// structural repairs. Errors without a known repair, and further errors of a
// dungeon that was moved to a new floor list, are left for the next
// validation.
func (r *Repairer) Fix(data *mappa.Data, errs []ValidationError) (int, error) {
	fixed := 0
	touched := make(map[int]bool)
	moved := make(map[int]bool)
	for _, e := range errs {
		if e.DungeonID < 0 || e.DungeonID >= len(data.Dungeons) {
			return fixed, fmt.Errorf("error references unknown dungeon %d", e.DungeonID)
		}
		if moved[e.DungeonID] {
			continue
		}
		dungeon := &data.Dungeons[e.DungeonID]

		switch e.Kind {
		case TotalFloorCountInvalid:
			touched[dungeon.MappaIndex] = true

		case InvalidFloorListReferenced, FloorReused:
			template, err := templateFloor(data)
			if err != nil {
				return fixed, fmt.Errorf("dungeon %d: %w", e.DungeonID, err)
			}
			touched[dungeon.MappaIndex] = true
			moved[e.DungeonID] = true
			data.FloorLists = append(data.FloorLists, []*mappa.Floor{template})
			*dungeon = mappa.DungeonDef{
				MappaIndex:          len(data.FloorLists) - 1,
				StartAfter:          0,
				NumberFloors:        1,
				NumberFloorsInGroup: 1,
			}
			logger.Debug("Moved dungeon to a new floor list", "dungeon", e.DungeonID, "mappa_index", dungeon.MappaIndex)
			fixed++

		case InvalidFloorReferenced:
			if dungeon.MappaIndex < 0 || dungeon.MappaIndex >= len(data.FloorLists) {
				continue
			}
			touched[dungeon.MappaIndex] = true
			group := data.FloorLists[dungeon.MappaIndex]
			if remaining := len(group) - dungeon.StartAfter; remaining >= 1 {
				dungeon.NumberFloors = remaining
			} else {
				template, err := templateFloor(data)
				if err != nil {
					return fixed, fmt.Errorf("dungeon %d: %w", e.DungeonID, err)
				}
				data.FloorLists[dungeon.MappaIndex] = append(group, template)
				dungeon.StartAfter = len(group)
				dungeon.NumberFloors = 1
			}
			fixed++

		case MissingFloor:
			if r.isBenign(e.DungeonID, *dungeon) {
				touched[dungeon.MappaIndex] = true
				deleteFloors(data, dungeon.MappaIndex, e.Floors)
				logger.Debug("Deleted unused floors", "dungeon", e.DungeonID, "floors", e.Floors)
				fixed++
				continue
			}
			if isContiguous(e.Floors) && e.Floors[0] == dungeon.End() {
				touched[dungeon.MappaIndex] = true
				dungeon.NumberFloors += len(e.Floors)
				fixed++
				continue
			}
			logger.Warning("No repair for missing floors", "dungeon", e.DungeonID, "floors", e.Floors)
		}
	}

	fixed += syncGroupTotals(data, touched)
	return fixed, nil
}

// syncGroupTotals sets NumberFloorsInGroup of every dungeon in the given
// groups to the group's floor count and returns how many entries changed
func syncGroupTotals(data *mappa.Data, groups map[int]bool) int {
	totals := make(map[int]int)
	for _, d := range data.Dungeons {
		if groups[d.MappaIndex] {
			totals[d.MappaIndex] += d.NumberFloors
		}
	}
	changed := 0
	for id := range data.Dungeons {
		d := &data.Dungeons[id]
		if !groups[d.MappaIndex] {
			continue
		}
		if d.NumberFloorsInGroup != totals[d.MappaIndex] {
			d.NumberFloorsInGroup = totals[d.MappaIndex]
			changed++
		}
	}
	return changed
}

func (r *Repairer) isBenign(dungeonID int, d mappa.DungeonDef) bool {
	for _, b := range r.benign {
		if b.DungeonID == dungeonID && b.MappaIndex == d.MappaIndex && b.StartAfter == d.StartAfter {
			return true
		}
	}
	return false
}

// templateFloor returns a randomizable copy of group 0 floor 0
func templateFloor(data *mappa.Data) (*mappa.Floor, error) {
	if len(data.FloorLists) == 0 || len(data.FloorLists[0]) == 0 {
		return nil, fmt.Errorf("no template floor in floor list 0")
	}
	return data.FloorLists[0][0].DuplicateRandom()
}

// deleteFloors removes floors from a group and shifts the start of every
// dungeon behind them.
func deleteFloors(data *mappa.Data, mappaIndex int, floors []int) {
	doomed := append([]int(nil), floors...)
	sort.Sort(sort.Reverse(sort.IntSlice(doomed)))

	group := data.FloorLists[mappaIndex]
	for _, fi := range doomed {
		if fi < 0 || fi >= len(group) {
			continue
		}
		group = append(group[:fi], group[fi+1:]...)
		for id := range data.Dungeons {
			d := &data.Dungeons[id]
			if d.MappaIndex == mappaIndex && d.StartAfter > fi {
				d.StartAfter--
			}
		}
	}
	data.FloorLists[mappaIndex] = group
}

func isContiguous(floors []int) bool {
	if len(floors) == 0 {
		return false
	}
	for i := 1; i < len(floors); i++ {
		if floors[i] != floors[i-1]+1 {
			return false
		}
	}
	return true
}
