package main

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/dungeon"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/items"
)

func TestGenerate_Valid(t *testing.T) {
	for seed := int64(0); seed < 10; seed++ {
		gen := NewFloorGenerator(seed, GeneratorConfig{Groups: 6, MaxDungeons: 3, MaxFloors: 8, FixedChance: 20})
		data := gen.Generate()

		if len(data.FloorLists) != 6 {
			t.Fatalf("seed %d: %d floor lists, want 6", seed, len(data.FloorLists))
		}
		if errs := dungeon.Validate(data); len(errs) > 0 {
			t.Fatalf("seed %d: generated data invalid: %v", seed, errs)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	config := GeneratorConfig{Groups: 4, MaxDungeons: 2, MaxFloors: 5, FixedChance: 50}
	a := NewFloorGenerator(7, config).Generate()
	b := NewFloorGenerator(7, config).Generate()
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different data")
	}
}

func TestGenerate_FixedIDsUnique(t *testing.T) {
	data := NewFloorGenerator(3, GeneratorConfig{Groups: 5, MaxDungeons: 3, MaxFloors: 10, FixedChance: 100}).Generate()

	seen := make(map[int]bool)
	for _, group := range data.FloorLists {
		for _, floor := range group {
			if !floor.IsFixed() {
				t.Fatal("expected every floor to be fixed")
			}
			if seen[floor.FixedFloorID] {
				t.Fatalf("fixed floor ID %d used twice", floor.FixedFloorID)
			}
			seen[floor.FixedFloorID] = true
		}
	}
}

func TestWriteItemsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.yaml")
	if err := WriteItemsYAML(SampleItems(), path); err != nil {
		t.Fatalf("WriteItemsYAML failed: %v", err)
	}

	catalog, err := items.LoadItemsFromYAML(path)
	if err != nil {
		t.Fatalf("LoadItemsFromYAML failed: %v", err)
	}
	if want := len(items.AllowedCategories)*6 + 2; catalog.Len() != want {
		t.Errorf("catalog has %d items, want %d", catalog.Len(), want)
	}
	if ids := catalog.ItemsInCategory(items.CategoryPoke); len(ids) != 1 || ids[0] != samplePokeID {
		t.Errorf("poke items = %v, want [%d]", ids, samplePokeID)
	}
	if cat, ok := catalog.CategoryOf(1); !ok || cat != items.CategoryThrownPierce {
		t.Errorf("item 1 category = %v, %v", cat, ok)
	}
}
