package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/items"
	"gopkg.in/yaml.v3"
)

// Single items backing the poke and link box categories
const (
	samplePokeID    = 183
	sampleLinkBoxID = 362
)

// SampleItems returns a small catalog with a few items in every allowed
// category plus the poke and link box items. Item IDs are category*100 + n,
// so item 1 is the first thrown pierce item.
func SampleItems() items.ItemsConfig {
	config := items.ItemsConfig{Items: make(map[int]items.ItemDefinition)}
	for _, cat := range items.AllowedCategories {
		for n := 1; n <= 6; n++ {
			id := int(cat)*100 + n
			config.Items[id] = items.ItemDefinition{
				Name:     fmt.Sprintf("%s %d", cat, n),
				Category: cat.String(),
			}
		}
	}
	config.Items[samplePokeID] = items.ItemDefinition{Name: "Poke", Category: items.CategoryPoke.String()}
	config.Items[sampleLinkBoxID] = items.ItemDefinition{Name: "Link Box", Category: items.CategoryLinkBox.String()}
	return config
}

// WriteItemsYAML writes an items catalog ordered by item ID
func WriteItemsYAML(config items.ItemsConfig, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# Sample item catalog\n")
	fmt.Fprintf(f, "# Item count: %d\n\n", len(config.Items))

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)

	root := yaml.Node{Kind: yaml.MappingNode}
	root.Content = append(root.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "items"},
		sortItems(config.Items),
	)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}

// sortItems returns items as a mapping node ordered by ID
func sortItems(defs map[int]items.ItemDefinition) *yaml.Node {
	ids := make([]int, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, id := range ids {
		def := defs[id]
		value := &yaml.Node{Kind: yaml.MappingNode}
		addStringField(value, "name", def.Name)
		addStringField(value, "category", def.Category)
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(id)},
			value,
		)
	}
	return node
}

func addStringField(node *yaml.Node, key, value string) {
	node.Content = append(node.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value},
	)
}
