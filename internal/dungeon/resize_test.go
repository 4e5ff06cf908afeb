package dungeon

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/mappa"
)

// checkTiling verifies that the dungeons of an outcome cover its floor list
// without gaps or overlaps.
func checkTiling(t *testing.T, outcome ResizeOutcome) {
	t.Helper()
	defs := make([]mappa.DungeonDef, len(outcome.Dungeons))
	for i, d := range outcome.Dungeons {
		defs[i] = d.Def
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].StartAfter < defs[j].StartAfter })
	pos := 0
	for _, d := range defs {
		if d.StartAfter != pos {
			t.Fatalf("dungeon range starts at %d, want %d", d.StartAfter, pos)
		}
		if d.NumberFloors < 1 {
			t.Fatalf("dungeon with %d floors", d.NumberFloors)
		}
		if d.NumberFloorsInGroup != len(outcome.Floors) {
			t.Fatalf("NumberFloorsInGroup = %d, want %d", d.NumberFloorsInGroup, len(outcome.Floors))
		}
		pos = d.End()
	}
	if pos != len(outcome.Floors) {
		t.Fatalf("dungeons cover %d of %d floors", pos, len(outcome.Floors))
	}
}

func fixedIDs(floors []*mappa.Floor) []int {
	var ids []int
	for _, f := range floors {
		if f.IsFixed() {
			ids = append(ids, f.FixedFloorID)
		}
	}
	sort.Ints(ids)
	return ids
}

func outcomeDungeon(t *testing.T, outcome ResizeOutcome, id int) mappa.DungeonDef {
	t.Helper()
	for _, d := range outcome.Dungeons {
		if d.ID == id {
			return d.Def
		}
	}
	t.Fatalf("dungeon %d missing from outcome", id)
	return mappa.DungeonDef{}
}

func TestResizeGroup_TwoDungeonScenario(t *testing.T) {
	for seed := int64(0); seed < 100; seed++ {
		old := makeFloors(10, map[int]int{0: 77})
		dungeons := []GroupDungeon{
			{ID: 0, Def: mappa.DungeonDef{MappaIndex: 0, StartAfter: 0, NumberFloors: 6, NumberFloorsInGroup: 10}, Randomize: true},
			{ID: 1, Def: mappa.DungeonDef{MappaIndex: 0, StartAfter: 6, NumberFloors: 4, NumberFloorsInGroup: 10}, Randomize: true},
		}
		resizer := NewResizer(rand.New(rand.NewSource(seed)), ResizeParams{MinChangePercent: 0, MaxChangePercent: 50})

		outcome, err := resizer.ResizeGroup(0, old, dungeons)
		if err != nil {
			t.Fatalf("seed %d: ResizeGroup failed: %v", seed, err)
		}
		if !outcome.Applied {
			t.Fatalf("seed %d: resize aborted: %s", seed, outcome.Reason)
		}
		checkTiling(t, outcome)

		if n := len(outcome.Floors); n < 10 || n > 15 {
			t.Errorf("seed %d: new total = %d, want [10, 15]", seed, n)
		}
		a := outcomeDungeon(t, outcome, 0)
		if a.StartAfter != 0 {
			t.Errorf("seed %d: dungeon A starts at %d", seed, a.StartAfter)
		}
		if outcome.Floors[0].FixedFloorID != 77 {
			t.Errorf("seed %d: first floor of A has fixed ID %d, want 77", seed, outcome.Floors[0].FixedFloorID)
		}
		if ids := fixedIDs(outcome.Floors[a.StartAfter:a.End()]); !reflect.DeepEqual(ids, []int{77}) {
			t.Errorf("seed %d: fixed floors of A = %v, want [77]", seed, ids)
		}
	}
}

func TestResizeGroup_PreservesFixedAndSingleFloors(t *testing.T) {
	old := makeFloors(20, map[int]int{0: 10, 3: 11, 5: 12, 13: 20})
	dungeons := []GroupDungeon{
		{ID: 4, Def: mappa.DungeonDef{StartAfter: 0, NumberFloors: 8, NumberFloorsInGroup: 20}, Randomize: true},
		{ID: 5, Def: mappa.DungeonDef{StartAfter: 8, NumberFloors: 1, NumberFloorsInGroup: 20}, Randomize: true},
		{ID: 6, Def: mappa.DungeonDef{StartAfter: 9, NumberFloors: 11, NumberFloorsInGroup: 20}, Randomize: true},
	}

	for seed := int64(0); seed < 50; seed++ {
		resizer := NewResizer(rand.New(rand.NewSource(seed)), ResizeParams{MinChangePercent: -30, MaxChangePercent: 30})
		outcome, err := resizer.ResizeGroup(0, old, dungeons)
		if err != nil {
			t.Fatalf("seed %d: ResizeGroup failed: %v", seed, err)
		}
		if !outcome.Applied {
			t.Fatalf("seed %d: resize aborted: %s", seed, outcome.Reason)
		}
		checkTiling(t, outcome)

		want := map[int][]int{4: {10, 11, 12}, 5: nil, 6: {20}}
		for id, ids := range want {
			d := outcomeDungeon(t, outcome, id)
			if got := fixedIDs(outcome.Floors[d.StartAfter:d.End()]); !reflect.DeepEqual(got, ids) {
				t.Errorf("seed %d: dungeon %d fixed floors = %v, want %v", seed, id, got, ids)
			}
		}

		single := outcomeDungeon(t, outcome, 5)
		if single.NumberFloors != 1 {
			t.Errorf("seed %d: single floor dungeon has %d floors", seed, single.NumberFloors)
		}
		if outcome.Floors[single.StartAfter] != old[8] {
			t.Errorf("seed %d: single floor dungeon floor was replaced", seed)
		}
	}
}

func TestResizeGroup_Deterministic(t *testing.T) {
	old := makeFloors(12, map[int]int{4: 9})
	dungeons := []GroupDungeon{
		{ID: 0, Def: mappa.DungeonDef{StartAfter: 0, NumberFloors: 7, NumberFloorsInGroup: 12}, Randomize: true},
		{ID: 1, Def: mappa.DungeonDef{StartAfter: 7, NumberFloors: 5, NumberFloorsInGroup: 12}, Randomize: true},
	}
	params := ResizeParams{MinChangePercent: -40, MaxChangePercent: 60}

	run := func() ([][2]int, []GroupDungeon) {
		outcome, err := NewResizer(rand.New(rand.NewSource(2024)), params).ResizeGroup(0, old, dungeons)
		if err != nil || !outcome.Applied {
			t.Fatalf("ResizeGroup = %+v, %v", outcome, err)
		}
		var shape [][2]int
		for _, f := range outcome.Floors {
			shape = append(shape, [2]int{f.FixedFloorID, f.Layout.MusicID})
		}
		return shape, outcome.Dungeons
	}

	shapeA, defsA := run()
	shapeB, defsB := run()
	if !reflect.DeepEqual(shapeA, shapeB) {
		t.Errorf("floor lists differ:\n%v\n%v", shapeA, shapeB)
	}
	if !reflect.DeepEqual(defsA, defsB) {
		t.Errorf("dungeon definitions differ:\n%+v\n%+v", defsA, defsB)
	}
}

func TestResizeGroup_AbortLeavesInputUnchanged(t *testing.T) {
	old := makeFloors(10, map[int]int{1: 1, 2: 2, 3: 3, 4: 4})
	dungeons := []GroupDungeon{
		{ID: 3, Def: mappa.DungeonDef{MappaIndex: 2, StartAfter: 0, NumberFloors: 10, NumberFloorsInGroup: 10}, Randomize: true},
	}
	oldSnapshot := append([]*mappa.Floor(nil), old...)
	dungeonSnapshot := append([]GroupDungeon(nil), dungeons...)

	resizer := NewResizer(rand.New(rand.NewSource(1)), ResizeParams{MinChangePercent: -90, MaxChangePercent: -90})
	outcome, err := resizer.ResizeGroup(2, old, dungeons)
	if err != nil {
		t.Fatalf("ResizeGroup failed: %v", err)
	}
	if outcome.Applied {
		t.Fatal("resize should abort when fixed floors do not fit")
	}
	if outcome.Reason == "" {
		t.Error("aborted outcome has no reason")
	}
	if outcome.Floors != nil || outcome.Dungeons != nil {
		t.Error("aborted outcome carries a floor list")
	}

	if !reflect.DeepEqual(old, oldSnapshot) {
		t.Error("old floor list was modified")
	}
	for i, f := range old {
		if f.Layout.MusicID != i+1 {
			t.Errorf("floor %d MusicID = %d, want %d", i, f.Layout.MusicID, i+1)
		}
	}
	if !reflect.DeepEqual(dungeons, dungeonSnapshot) {
		t.Errorf("dungeons = %+v, want %+v", dungeons, dungeonSnapshot)
	}
}

func TestResizeGroup_LockedDungeonPassesThrough(t *testing.T) {
	old := makeFloors(10, nil)
	dungeons := []GroupDungeon{
		{ID: 0, Def: mappa.DungeonDef{StartAfter: 0, NumberFloors: 5, NumberFloorsInGroup: 10}, Randomize: false},
		{ID: 1, Def: mappa.DungeonDef{StartAfter: 5, NumberFloors: 5, NumberFloorsInGroup: 10}, Randomize: true},
	}

	resizer := NewResizer(rand.New(rand.NewSource(8)), ResizeParams{MinChangePercent: 50, MaxChangePercent: 50})
	outcome, err := resizer.ResizeGroup(0, old, dungeons)
	if err != nil || !outcome.Applied {
		t.Fatalf("ResizeGroup = %+v, %v", outcome, err)
	}
	checkTiling(t, outcome)

	if len(outcome.Floors) != 15 {
		t.Fatalf("new total = %d, want 15", len(outcome.Floors))
	}
	locked := outcomeDungeon(t, outcome, 0)
	if locked.StartAfter != 0 || locked.NumberFloors != 5 {
		t.Errorf("locked dungeon = %+v, want floors [0, 5)", locked)
	}
	for i := 0; i < 5; i++ {
		if outcome.Floors[i] != old[i] {
			t.Errorf("locked floor %d was replaced", i)
		}
	}
	if d := outcomeDungeon(t, outcome, 1); d.NumberFloors != 10 {
		t.Errorf("resized dungeon has %d floors, want 10", d.NumberFloors)
	}
}

func TestResizeGroup_GrowCopiesAreIndependent(t *testing.T) {
	old := makeFloors(4, map[int]int{2: 6})
	dungeons := []GroupDungeon{
		{ID: 0, Def: mappa.DungeonDef{StartAfter: 0, NumberFloors: 4, NumberFloorsInGroup: 4}, Randomize: true},
	}
	resizer := NewResizer(rand.New(rand.NewSource(3)), ResizeParams{MinChangePercent: 100, MaxChangePercent: 100})
	outcome, err := resizer.ResizeGroup(0, old, dungeons)
	if err != nil || !outcome.Applied {
		t.Fatalf("ResizeGroup = %+v, %v", outcome, err)
	}
	if len(outcome.Floors) != 8 {
		t.Fatalf("new total = %d, want 8", len(outcome.Floors))
	}

	seen := make(map[*mappa.Floor]bool)
	for _, f := range outcome.Floors {
		if seen[f] {
			t.Fatal("the same floor appears twice")
		}
		seen[f] = true
	}
	if ids := fixedIDs(outcome.Floors); !reflect.DeepEqual(ids, []int{6}) {
		t.Errorf("fixed floors = %v, want [6]", ids)
	}
}

func TestResizeGroup_MaxFloors(t *testing.T) {
	old := makeFloors(80, nil)
	dungeons := []GroupDungeon{
		{ID: 0, Def: mappa.DungeonDef{StartAfter: 0, NumberFloors: 80, NumberFloorsInGroup: 80}, Randomize: true},
	}
	resizer := NewResizer(rand.New(rand.NewSource(1)), ResizeParams{MinChangePercent: 50, MaxChangePercent: 50})
	outcome, err := resizer.ResizeGroup(0, old, dungeons)
	if err != nil || !outcome.Applied {
		t.Fatalf("ResizeGroup = %+v, %v", outcome, err)
	}
	if len(outcome.Floors) != DefaultMaxFloors {
		t.Errorf("new total = %d, want %d", len(outcome.Floors), DefaultMaxFloors)
	}
}

func TestResizeGroup_UntiledInputAborts(t *testing.T) {
	old := makeFloors(6, nil)
	dungeons := []GroupDungeon{
		{ID: 0, Def: mappa.DungeonDef{StartAfter: 0, NumberFloors: 2, NumberFloorsInGroup: 5}, Randomize: true},
		{ID: 1, Def: mappa.DungeonDef{StartAfter: 3, NumberFloors: 3, NumberFloorsInGroup: 5}, Randomize: true},
	}
	resizer := NewResizer(rand.New(rand.NewSource(1)), ResizeParams{MinChangePercent: 10, MaxChangePercent: 20})
	outcome, err := resizer.ResizeGroup(0, old, dungeons)
	if err != nil {
		t.Fatalf("ResizeGroup failed: %v", err)
	}
	if outcome.Applied {
		t.Error("resize of a group with a gap should abort")
	}
}

// TestResizeGroup_RandomGroupsStayValid resizes randomly shaped groups and
// validates the committed result.
func TestResizeGroup_RandomGroupsStayValid(t *testing.T) {
	for seed := int64(0); seed < 40; seed++ {
		rng := rand.New(rand.NewSource(seed))
		data := &mappa.Data{}
		var randomize []bool
		fixedID := 1

		for g := 0; g < 3; g++ {
			var group []*mappa.Floor
			for k := 1 + rng.Intn(4); k > 0; k-- {
				n := 1 + rng.Intn(8)
				fixed := make(map[int]int)
				for i := 0; i < n; i++ {
					if rng.Intn(5) == 0 {
						fixed[i] = fixedID
						fixedID++
					}
				}
				data.Dungeons = append(data.Dungeons, mappa.DungeonDef{MappaIndex: g, StartAfter: len(group), NumberFloors: n})
				randomize = append(randomize, rng.Intn(4) != 0)
				group = append(group, makeFloors(n, fixed)...)
			}
			data.FloorLists = append(data.FloorLists, group)
		}
		for i := range data.Dungeons {
			data.Dungeons[i].NumberFloorsInGroup = len(data.FloorLists[data.Dungeons[i].MappaIndex])
		}
		if errs := Validate(data); len(errs) != 0 {
			t.Fatalf("seed %d: generated data invalid: %v", seed, errs)
		}

		before := make(map[int][]int)
		for id := range data.Dungeons {
			floors, _ := data.DungeonFloors(id)
			before[id] = fixedIDs(floors)
		}

		params := ResizeParams{MinChangePercent: -rng.Intn(60), MaxChangePercent: rng.Intn(60)}
		resizer := NewResizer(rng, params)
		for g := range data.FloorLists {
			var members []GroupDungeon
			for _, id := range data.GroupDungeonIDs(g) {
				members = append(members, GroupDungeon{ID: id, Def: data.Dungeons[id], Randomize: randomize[id]})
			}
			outcome, err := resizer.ResizeGroup(g, data.FloorLists[g], members)
			if err != nil {
				t.Fatalf("seed %d: ResizeGroup failed: %v", seed, err)
			}
			if !outcome.Applied {
				continue
			}
			checkTiling(t, outcome)
			data.FloorLists[g] = outcome.Floors
			for _, d := range outcome.Dungeons {
				data.Dungeons[d.ID] = d.Def
			}
		}

		if errs := Validate(data); len(errs) != 0 {
			t.Fatalf("seed %d: resized data invalid: %v", seed, errs)
		}
		for id := range data.Dungeons {
			floors, _ := data.DungeonFloors(id)
			if got := fixedIDs(floors); !reflect.DeepEqual(got, before[id]) {
				t.Errorf("seed %d: dungeon %d fixed floors %v, want %v", seed, id, got, before[id])
			}
		}
	}
}

func TestClassifyFixedFloor(t *testing.T) {
	tests := []struct {
		index, numberFloors int
		want                FixedFloorPosition
	}{
		{0, 5, PositionBegin},
		{1, 5, PositionMiddle},
		{4, 5, PositionMiddle},
		{5, 5, PositionEnd},
	}
	for _, tt := range tests {
		if got := classifyFixedFloor(tt.index, tt.numberFloors); got != tt.want {
			t.Errorf("classifyFixedFloor(%d, %d) = %s, want %s", tt.index, tt.numberFloors, got, tt.want)
		}
	}
}

func TestResizeParamsEnabled(t *testing.T) {
	if (ResizeParams{}).Enabled() {
		t.Error("zero params should be disabled")
	}
	if !(ResizeParams{MaxChangePercent: 10}).Enabled() {
		t.Error("nonzero max should be enabled")
	}
}
