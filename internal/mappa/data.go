package mappa

import "fmt"

// DungeonDef is one entry of the dungeon table
type DungeonDef struct {
	MappaIndex          int `yaml:"mappa_index"`           // Floor-list group this dungeon lives in
	StartAfter          int `yaml:"start_after"`           // Offset of the first floor in the group
	NumberFloors        int `yaml:"number_floors"`         // Length of the dungeon's sub-range
	NumberFloorsInGroup int `yaml:"number_floors_in_group"` // Total floors of all dungeons in the group
}

// End returns the exclusive end of the dungeon's sub-range
func (d DungeonDef) End() int {
	return d.StartAfter + d.NumberFloors
}

// Data is the full floor data: floor-list groups plus the dungeon table.
// A dungeon's ID is its index in Dungeons.
type Data struct {
	FloorLists [][]*Floor   `yaml:"floor_lists"`
	Dungeons   []DungeonDef `yaml:"dungeons"`
}

// GroupDungeonIDs returns the IDs of all dungeons in a floor-list group, in
// ascending ID order
func (d *Data) GroupDungeonIDs(mappaIndex int) []int {
	var ids []int
	for id, dungeon := range d.Dungeons {
		if dungeon.MappaIndex == mappaIndex {
			ids = append(ids, id)
		}
	}
	return ids
}

// DungeonFloors returns the floors of a dungeon. The slice aliases the group.
func (d *Data) DungeonFloors(dungeonID int) ([]*Floor, error) {
	if dungeonID < 0 || dungeonID >= len(d.Dungeons) {
		return nil, fmt.Errorf("dungeon %d does not exist", dungeonID)
	}
	dungeon := d.Dungeons[dungeonID]
	if dungeon.MappaIndex < 0 || dungeon.MappaIndex >= len(d.FloorLists) {
		return nil, fmt.Errorf("dungeon %d references missing floor list %d", dungeonID, dungeon.MappaIndex)
	}
	group := d.FloorLists[dungeon.MappaIndex]
	if dungeon.StartAfter < 0 || dungeon.End() > len(group) {
		return nil, fmt.Errorf("dungeon %d range [%d, %d) exceeds floor list %d of length %d",
			dungeonID, dungeon.StartAfter, dungeon.End(), dungeon.MappaIndex, len(group))
	}
	return group[dungeon.StartAfter:dungeon.End()], nil
}

// Clone returns a copy of the data whose floor lists and dungeon table can
// be modified without touching the original. Floors are shared.
func (d *Data) Clone() *Data {
	out := &Data{
		FloorLists: make([][]*Floor, len(d.FloorLists)),
		Dungeons:   make([]DungeonDef, len(d.Dungeons)),
	}
	for i, group := range d.FloorLists {
		out.FloorLists[i] = append([]*Floor(nil), group...)
	}
	copy(out.Dungeons, d.Dungeons)
	return out
}
