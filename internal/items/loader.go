package items

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ItemDefinition represents an item definition from the YAML file
type ItemDefinition struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

// ItemsConfig represents the structure of the items.yaml file
type ItemsConfig struct {
	Items map[int]ItemDefinition `yaml:"items"`
}

// Catalog maps item IDs to their categories
type Catalog struct {
	names      map[int]string
	categories map[int]Category
	byCategory map[Category][]int
}

// LoadItemsFromYAML loads item definitions from a YAML file
func LoadItemsFromYAML(filename string) (*Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read items file: %w", err)
	}

	var config ItemsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse items YAML: %w", err)
	}

	return NewCatalog(config)
}

// NewCatalog indexes an ItemsConfig. Every item must name a known category.
func NewCatalog(config ItemsConfig) (*Catalog, error) {
	c := &Catalog{
		names:      make(map[int]string, len(config.Items)),
		categories: make(map[int]Category, len(config.Items)),
		byCategory: make(map[Category][]int),
	}
	for id, def := range config.Items {
		cat, ok := StringToCategory(def.Category)
		if !ok {
			return nil, fmt.Errorf("item %d (%s): unknown category %q", id, def.Name, def.Category)
		}
		c.names[id] = def.Name
		c.categories[id] = cat
		c.byCategory[cat] = append(c.byCategory[cat], id)
	}
	for cat := range c.byCategory {
		sort.Ints(c.byCategory[cat])
	}
	return c, nil
}

// CategoryOf returns the category of an item
func (c *Catalog) CategoryOf(itemID int) (Category, bool) {
	cat, ok := c.categories[itemID]
	return cat, ok
}

// Name returns the display name of an item, or "" if unknown
func (c *Catalog) Name(itemID int) string {
	return c.names[itemID]
}

// ItemsInCategory returns the item IDs of a category in ascending order.
// The returned slice is a copy.
func (c *Catalog) ItemsInCategory(cat Category) []int {
	ids := c.byCategory[cat]
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

// AllowedInCategory returns the item IDs of a category that are in the allowed set
func (c *Catalog) AllowedInCategory(cat Category, allowed map[int]bool) []int {
	var ids []int
	for _, id := range c.byCategory[cat] {
		if allowed[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// IDs returns every item ID in ascending order
func (c *Catalog) IDs() []int {
	ids := make([]int, 0, len(c.categories))
	for id := range c.categories {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Len returns the number of items in the catalog
func (c *Catalog) Len() int {
	return len(c.categories)
}
