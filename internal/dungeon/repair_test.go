package dungeon

import (
	"errors"
	"testing"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/mappa"
)

func runRepair(t *testing.T, r *Repairer, data *mappa.Data) int {
	t.Helper()
	n, err := r.Run(data)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if errs := Validate(data); len(errs) != 0 {
		t.Fatalf("data still invalid after repair: %v", errs)
	}
	return n
}

func TestRepair_TotalFloorCount(t *testing.T) {
	data := validData()
	data.Dungeons[1].NumberFloorsInGroup = 9

	if n := runRepair(t, NewRepairer(nil), data); n != 1 {
		t.Errorf("repairs = %d, want 1", n)
	}
	if data.Dungeons[1].NumberFloorsInGroup != 3 {
		t.Errorf("NumberFloorsInGroup = %d, want 3", data.Dungeons[1].NumberFloorsInGroup)
	}
}

func TestRepair_InvalidFloorList(t *testing.T) {
	data := validData()
	data.FloorLists[0][0].FixedFloorID = 5
	data.Dungeons[2].MappaIndex = 7

	runRepair(t, NewRepairer(nil), data)

	d := data.Dungeons[2]
	if d.MappaIndex != 2 || d.StartAfter != 0 || d.NumberFloors != 1 || d.NumberFloorsInGroup != 1 {
		t.Errorf("dungeon 2 = %+v, want a new single floor list", d)
	}
	if len(data.FloorLists) != 3 || len(data.FloorLists[2]) != 1 {
		t.Fatalf("expected a new floor list with one floor")
	}
	seeded := data.FloorLists[2][0]
	if seeded == data.FloorLists[0][0] {
		t.Error("new floor list shares the template floor")
	}
	if seeded.IsFixed() {
		t.Error("template copy should not be fixed")
	}
	if seeded.Layout.MusicID != 1 {
		t.Errorf("template copy MusicID = %d, want 1", seeded.Layout.MusicID)
	}
}

func TestRepair_FloorReused(t *testing.T) {
	data := validData()
	data.Dungeons[1].StartAfter = 1
	data.Dungeons[1].NumberFloors = 2
	data.Dungeons[0].NumberFloorsInGroup = 4
	data.Dungeons[1].NumberFloorsInGroup = 4

	runRepair(t, NewRepairer(nil), data)

	if data.Dungeons[1].MappaIndex != 2 {
		t.Errorf("dungeon 1 MappaIndex = %d, want 2", data.Dungeons[1].MappaIndex)
	}
	// Dungeon 0 takes over the floor that was only used by dungeon 1
	if d := data.Dungeons[0]; d.NumberFloors != 3 || d.NumberFloorsInGroup != 3 {
		t.Errorf("dungeon 0 = %+v, want 3 floors", d)
	}
}

func TestRepair_InvalidFloorShrinks(t *testing.T) {
	data := validData()
	data.Dungeons[0].NumberFloors = 1
	data.Dungeons[1].StartAfter = 1
	data.Dungeons[1].NumberFloors = 4
	data.Dungeons[0].NumberFloorsInGroup = 5
	data.Dungeons[1].NumberFloorsInGroup = 5

	runRepair(t, NewRepairer(nil), data)

	if d := data.Dungeons[1]; d.StartAfter != 1 || d.NumberFloors != 2 || d.NumberFloorsInGroup != 3 {
		t.Errorf("dungeon 1 = %+v, want floors [1, 3)", d)
	}
	if len(data.FloorLists[0]) != 3 {
		t.Errorf("group length = %d, want 3", len(data.FloorLists[0]))
	}
}

func TestRepair_InvalidFloorAppends(t *testing.T) {
	data := validData()
	data.Dungeons[1].StartAfter = 3

	runRepair(t, NewRepairer(nil), data)

	if len(data.FloorLists[0]) != 4 {
		t.Fatalf("group length = %d, want 4", len(data.FloorLists[0]))
	}
	if d := data.Dungeons[1]; d.StartAfter != 3 || d.NumberFloors != 1 {
		t.Errorf("dungeon 1 = %+v, want the appended floor", d)
	}
	if d := data.Dungeons[0]; d.NumberFloors != 3 || d.NumberFloorsInGroup != 4 {
		t.Errorf("dungeon 0 = %+v, want 3 floors in a group of 4", d)
	}
}

func TestRepair_MissingFloorExtends(t *testing.T) {
	data := validData()
	data.FloorLists[0] = makeFloors(5, nil)

	runRepair(t, NewRepairer(nil), data)

	if d := data.Dungeons[1]; d.NumberFloors != 3 || d.NumberFloorsInGroup != 5 {
		t.Errorf("dungeon 1 = %+v, want 3 floors in a group of 5", d)
	}
}

func TestRepair_BenignMissingFloorDeleted(t *testing.T) {
	data := validData()
	data.FloorLists[0] = makeFloors(4, nil)
	data.Dungeons[1].StartAfter = 3
	benign := []BenignMissingFloor{{DungeonID: 0, MappaIndex: 0, StartAfter: 0}}

	runRepair(t, NewRepairer(benign), data)

	group := data.FloorLists[0]
	if len(group) != 3 {
		t.Fatalf("group length = %d, want 3", len(group))
	}
	if group[2].Layout.MusicID != 4 {
		t.Errorf("floor 2 MusicID = %d, want 4 (floor 2 should be gone)", group[2].Layout.MusicID)
	}
	if data.Dungeons[1].StartAfter != 2 {
		t.Errorf("dungeon 1 StartAfter = %d, want 2", data.Dungeons[1].StartAfter)
	}
}

func TestRepair_Unrepairable(t *testing.T) {
	data := validData()
	data.FloorLists[1] = makeFloors(2, nil)
	data.Dungeons[2].StartAfter = 1

	_, err := NewRepairer(nil).Run(data)
	if !errors.Is(err, ErrUnrepairable) {
		t.Errorf("Run() error = %v, want ErrUnrepairable", err)
	}
}

func TestRepair_Idempotent(t *testing.T) {
	data := validData()
	data.Dungeons[2].MappaIndex = 9
	data.Dungeons[0].NumberFloorsInGroup = 1

	r := NewRepairer(DefaultBenignMissingFloors)
	runRepair(t, r, data)

	if n := runRepair(t, r, data); n != 0 {
		t.Errorf("second run made %d repairs, want 0", n)
	}
	if n, err := r.Fix(data, Validate(data)); n != 0 || err != nil {
		t.Errorf("Fix on valid data = %d, %v; want 0, nil", n, err)
	}
}

func TestRepair_NoTemplate(t *testing.T) {
	data := &mappa.Data{
		Dungeons: []mappa.DungeonDef{{MappaIndex: 3, NumberFloors: 1, NumberFloorsInGroup: 1}},
	}
	if _, err := NewRepairer(nil).Run(data); err == nil {
		t.Error("expected error without a template floor")
	}
}
