// Package mappa holds the deserialized dungeon floor data: the floor-list
// groups and the dungeon table that points into them.
package mappa

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Layout holds the generation settings of a randomly generated floor
type Layout struct {
	Structure           int  `yaml:"structure"`
	RoomDensity         int  `yaml:"room_density"`
	TilesetID           int  `yaml:"tileset_id"`
	MusicID             int  `yaml:"music_id"`
	Weather             int  `yaml:"weather"`
	FloorConnectivity   int  `yaml:"floor_connectivity"`
	InitialEnemyDensity int  `yaml:"initial_enemy_density"`
	KecleonShopChance   int  `yaml:"kecleon_shop_chance"`
	MonsterHouseChance  int  `yaml:"monster_house_chance"`
	ItemDensity         int  `yaml:"item_density"`
	TrapDensity         int  `yaml:"trap_density"`
	DeadEnds            bool `yaml:"dead_ends"`
	SecondaryTerrain    int  `yaml:"secondary_terrain"`
	TerrainSettings     int  `yaml:"terrain_settings"`
	TurnLimit           int  `yaml:"turn_limit"`
	VisibilityRange     int  `yaml:"visibility_range"`
}

// MonsterSpawn is one entry of a floor's monster spawn table
type MonsterSpawn struct {
	MonsterID int `yaml:"monster_id"`
	Level     int `yaml:"level"`
	Weight    int `yaml:"weight"`
	Weight2   int `yaml:"weight2"`
}

// ItemList is a weighted item table. Categories maps category ID to a
// cumulative threshold, Items maps item ID to its weight inside its category.
type ItemList struct {
	Categories map[int]int `yaml:"categories"`
	Items      map[int]int `yaml:"items"`
}

// Floor is one dungeon floor
type Floor struct {
	FixedFloorID      int            `yaml:"fixed_floor_id"`
	Layout            Layout         `yaml:"layout"`
	MonsterSpawns     []MonsterSpawn `yaml:"monsters,omitempty"`
	FloorItems        ItemList       `yaml:"floor_items"`
	ShopItems         ItemList       `yaml:"shop_items"`
	MonsterHouseItems ItemList       `yaml:"monster_house_items"`
	BuriedItems       ItemList       `yaml:"buried_items"`
	Traps             map[int]int    `yaml:"traps,omitempty"`
}

// IsFixed returns true if the floor is pre-authored
func (f *Floor) IsFixed() bool {
	return f.FixedFloorID != 0
}

// Duplicate returns a structural copy of the floor, made by encoding it to
// its YAML interchange form and decoding it again.
func (f *Floor) Duplicate() (*Floor, error) {
	raw, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode floor: %w", err)
	}
	var dup Floor
	if err := yaml.Unmarshal(raw, &dup); err != nil {
		return nil, fmt.Errorf("failed to decode floor: %w", err)
	}
	return &dup, nil
}

// DuplicateRandom duplicates the floor and clears its fixed floor ID, so the
// copy is generated randomly from the same settings.
func (f *Floor) DuplicateRandom() (*Floor, error) {
	dup, err := f.Duplicate()
	if err != nil {
		return nil, err
	}
	dup.FixedFloorID = 0
	return dup, nil
}
