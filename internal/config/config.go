// Package config loads the randomizer settings.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaText string

// RandomizerConfig holds all randomization settings.
type RandomizerConfig struct {
	// Seed drives every random choice. 0 lets the caller pick one.
	Seed int64 `yaml:"seed"`

	Dungeons DungeonsConfig `yaml:"dungeons"`
	Items    AllowList      `yaml:"items"`
	Traps    AllowList      `yaml:"traps"`
	Monsters MonstersConfig `yaml:"monsters"`
	Progress ProgressConfig `yaml:"progress"`
}

// DungeonsConfig holds the per-dungeon randomization settings.
type DungeonsConfig struct {
	// RandomizeDefault applies to dungeons missing from Randomize.
	RandomizeDefault bool         `yaml:"randomize_default"`
	Randomize        map[int]bool `yaml:"randomize"`

	// Floor count change range, in percent of the current floor count.
	// Both zero disables resizing.
	MinFloorChangePercent int `yaml:"min_floor_change_percent"`
	MaxFloorChangePercent int `yaml:"max_floor_change_percent"`
	MaxFloors             int `yaml:"max_floors"`

	ItemAlgorithm string `yaml:"item_algorithm"`
	// CategoryWeights scales categories by name in the balanced algorithm.
	CategoryWeights map[string]float64 `yaml:"category_weights"`

	RandomizeItems    bool `yaml:"randomize_items"`
	RandomizeTraps    bool `yaml:"randomize_traps"`
	RandomizeMonsters bool `yaml:"randomize_monsters"`

	BenignMissingFloors []BenignMissingFloor `yaml:"benign_missing_floors"`
}

// BenignMissingFloor names a dungeon whose unused floors may be deleted.
type BenignMissingFloor struct {
	DungeonID  int `yaml:"dungeon_id"`
	MappaIndex int `yaml:"mappa_index"`
	StartAfter int `yaml:"start_after"`
}

// AllowList restricts randomization to the listed IDs. Empty allows all.
type AllowList struct {
	Allowed []int `yaml:"allowed"`
}

// MonstersConfig holds monster spawn settings.
type MonstersConfig struct {
	Allowed []int `yaml:"allowed"`

	// LevelSpread is how far a spawn level may drift from the original.
	LevelSpread int `yaml:"level_spread"`
}

// ProgressConfig holds the progress WebSocket settings.
type ProgressConfig struct {
	// AllowedOrigins is a list of origins allowed to connect.
	// Empty list enforces same-origin policy.
	// Use "*" to allow all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum size of a client message in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`

	// MaxConnectsPerMinute limits connection attempts per remote host.
	// 0 uses the default, -1 disables the limit.
	MaxConnectsPerMinute int `yaml:"max_connects_per_minute"`
}

// DefaultConfig returns a RandomizerConfig that randomizes items of every
// dungeon and leaves floor counts alone.
func DefaultConfig() *RandomizerConfig {
	return &RandomizerConfig{
		Dungeons: DungeonsConfig{
			RandomizeDefault: true,
			Randomize:        map[int]bool{},
			MaxFloors:        99,
			ItemAlgorithm:    "balanced",
			CategoryWeights:  map[string]float64{},
			RandomizeItems:   true,
			BenignMissingFloors: []BenignMissingFloor{
				{DungeonID: 61, MappaIndex: 51, StartAfter: 37},
			},
		},
		Monsters: MonstersConfig{
			LevelSpread: 2,
		},
		Progress: ProgressConfig{
			AllowedOrigins: []string{},
			MaxMessageSize: 1024,
		},
	}
}

// LoadConfig loads the configuration from a YAML file on top of the
// defaults. A missing file yields the defaults. The document is checked
// against the embedded schema before it is decoded.
func LoadConfig(path string) (*RandomizerConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := ValidateDocument(data); err != nil {
		return DefaultConfig(), err
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), err
	}
	if config.Dungeons.MinFloorChangePercent > config.Dungeons.MaxFloorChangePercent {
		return DefaultConfig(), fmt.Errorf("min_floor_change_percent %d is above max_floor_change_percent %d",
			config.Dungeons.MinFloorChangePercent, config.Dungeons.MaxFloorChangePercent)
	}

	return config, nil
}

// ValidateDocument checks a raw YAML config document against the schema.
func ValidateDocument(data []byte) error {
	schema, err := jsonschema.CompileString("config.schema.json", schemaText)
	if err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if doc == nil {
		return nil
	}

	// The schema validator works on encoding/json values
	raw, err := json.Marshal(jsonValue(doc))
	if err != nil {
		return fmt.Errorf("convert config: %w", err)
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return fmt.Errorf("convert config: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// jsonValue rewrites YAML maps with non-string keys into string-keyed maps
func jsonValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = jsonValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = jsonValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = jsonValue(item)
		}
		return out
	default:
		return v
	}
}

// IsRandomized returns true if the dungeon should be randomized
func (c *DungeonsConfig) IsRandomized(dungeonID int) bool {
	if enabled, ok := c.Randomize[dungeonID]; ok {
		return enabled
	}
	return c.RandomizeDefault
}

// IsOriginAllowed checks if the given origin is allowed based on the config.
// Returns true if:
// - AllowedOrigins contains "*" (allow all)
// - AllowedOrigins contains the exact origin
// - AllowedOrigins is empty and origin matches the request host (same-origin)
func (c *ProgressConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host (same-origin policy).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means same-origin (e.g., non-browser client)
	}

	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
