// Package dungeon checks, repairs and resizes the floor-list structure of the
// dungeon table.
package dungeon

import (
	"fmt"
	"sort"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/mappa"
)

// ErrorKind identifies a structural problem in the dungeon table
type ErrorKind int

const (
	TotalFloorCountInvalid ErrorKind = iota
	InvalidFloorListReferenced
	FloorReused
	InvalidFloorReferenced
	MissingFloor
)

// String returns the string representation of an ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case TotalFloorCountInvalid:
		return "total_floor_count_invalid"
	case InvalidFloorListReferenced:
		return "invalid_floor_list_referenced"
	case FloorReused:
		return "floor_reused"
	case InvalidFloorReferenced:
		return "invalid_floor_referenced"
	case MissingFloor:
		return "missing_floor"
	default:
		return "unknown"
	}
}

// ValidationError describes one structural problem. Which fields are set
// depends on Kind.
type ValidationError struct {
	Kind      ErrorKind
	DungeonID int

	Expected   int   // TotalFloorCountInvalid: the correct floor count of the group
	ReusedBy   int   // FloorReused: dungeon that already owns the floor
	FloorIndex int   // InvalidFloorReferenced: first out-of-range floor index
	Floors     []int // MissingFloor: unreferenced floor indices, ascending
}

// Error implements the error interface
func (e ValidationError) Error() string {
	switch e.Kind {
	case TotalFloorCountInvalid:
		return fmt.Sprintf("dungeon %d: floor count in group should be %d", e.DungeonID, e.Expected)
	case InvalidFloorListReferenced:
		return fmt.Sprintf("dungeon %d: references a floor list that does not exist", e.DungeonID)
	case FloorReused:
		return fmt.Sprintf("dungeon %d: reuses floors of dungeon %d", e.DungeonID, e.ReusedBy)
	case InvalidFloorReferenced:
		return fmt.Sprintf("dungeon %d: references floor %d which does not exist", e.DungeonID, e.FloorIndex)
	case MissingFloor:
		return fmt.Sprintf("dungeon %d: floors %v of its floor list are never used", e.DungeonID, e.Floors)
	default:
		return fmt.Sprintf("dungeon %d: unknown error", e.DungeonID)
	}
}

// Validate checks the dungeon table against the floor lists. Errors are
// ordered by dungeon ID, then kind. Floor lists no dungeon points at are
// not reported.
func Validate(data *mappa.Data) []ValidationError {
	var errs []ValidationError

	owner := make(map[[2]int]int) // (mappa index, floor index) -> dungeon ID
	groupTotals := make(map[int]int)
	validGroup := make(map[int]bool)

	for id, d := range data.Dungeons {
		if d.MappaIndex < 0 || d.MappaIndex >= len(data.FloorLists) || d.StartAfter < 0 || d.NumberFloors < 1 {
			errs = append(errs, ValidationError{Kind: InvalidFloorListReferenced, DungeonID: id})
			continue
		}
		validGroup[d.MappaIndex] = true
		groupTotals[d.MappaIndex] += d.NumberFloors

		groupLen := len(data.FloorLists[d.MappaIndex])
		if d.End() > groupLen {
			first := d.StartAfter
			if first < groupLen {
				first = groupLen
			}
			errs = append(errs, ValidationError{Kind: InvalidFloorReferenced, DungeonID: id, FloorIndex: first})
		}

		reused := false
		for fi := d.StartAfter; fi < d.End() && fi < groupLen; fi++ {
			key := [2]int{d.MappaIndex, fi}
			if prev, taken := owner[key]; taken {
				if !reused {
					errs = append(errs, ValidationError{Kind: FloorReused, DungeonID: id, ReusedBy: prev})
					reused = true
				}
				continue
			}
			owner[key] = id
		}
	}

	for id, d := range data.Dungeons {
		if !validGroup[d.MappaIndex] || d.MappaIndex < 0 || d.MappaIndex >= len(data.FloorLists) {
			continue
		}
		if want := groupTotals[d.MappaIndex]; d.NumberFloorsInGroup != want {
			errs = append(errs, ValidationError{Kind: TotalFloorCountInvalid, DungeonID: id, Expected: want})
		}
	}

	groups := make([]int, 0, len(validGroup))
	for g := range validGroup {
		groups = append(groups, g)
	}
	sort.Ints(groups)
	for _, g := range groups {
		var missing []int
		for fi := range data.FloorLists[g] {
			if _, ok := owner[[2]int{g, fi}]; !ok {
				missing = append(missing, fi)
			}
		}
		if len(missing) > 0 {
			errs = append(errs, ValidationError{
				Kind:      MissingFloor,
				DungeonID: missingFloorOwner(data, g, missing[0]),
				Floors:    missing,
			})
		}
	}

	sort.SliceStable(errs, func(i, j int) bool {
		if errs[i].DungeonID != errs[j].DungeonID {
			return errs[i].DungeonID < errs[j].DungeonID
		}
		return errs[i].Kind < errs[j].Kind
	})
	return errs
}

// missingFloorOwner picks the dungeon a gap is reported against: the one
// whose range ends last at or before the first unused floor, or the first
// dungeon of the group if none does.
func missingFloorOwner(data *mappa.Data, mappaIndex, firstMissing int) int {
	best, bestEnd := -1, -1
	first := -1
	for id, d := range data.Dungeons {
		if d.MappaIndex != mappaIndex {
			continue
		}
		if first < 0 {
			first = id
		}
		if end := d.End(); end <= firstMissing && end > bestEnd {
			best, bestEnd = id, end
		}
	}
	if best < 0 {
		return first
	}
	return best
}
