// Package itemlist generates randomized weighted item tables.
package itemlist

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/items"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/mappa"
	"github.com/lawnchairsociety/mysterydungeon-randomizer/internal/weights"
)

const (
	MinItemsPerCategory = 4
	MaxItemsPerCategory = 18

	// minCategoryMultiplier keeps a category's weighted count above zero
	minCategoryMultiplier = 0.01
)

// Algorithm selects how items are distributed across categories
type Algorithm string

const (
	// Balanced draws one item pool across all categories and sizes category
	// thresholds by how many items each category received.
	Balanced Algorithm = "balanced"
	// Classic picks items per category independently and spaces category
	// thresholds evenly.
	Classic Algorithm = "classic"
)

// ParseAlgorithm converts a config string to an Algorithm
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case Balanced, Classic:
		return Algorithm(s), nil
	default:
		return "", fmt.Errorf("unknown item algorithm %q", s)
	}
}

// Config controls item list generation
type Config struct {
	Algorithm       Algorithm
	AllowedItems    map[int]bool
	CategoryWeights map[items.Category]float64 // Balanced only; missing categories weigh 1.0
}

// Builder produces item lists from a catalog
type Builder struct {
	catalog *items.Catalog
	config  Config
	rng     *rand.Rand
}

// NewBuilder creates a new item list builder
func NewBuilder(catalog *items.Catalog, config Config, rng *rand.Rand) *Builder {
	return &Builder{
		catalog: catalog,
		config:  config,
		rng:     rng,
	}
}

// Build generates one item list with the configured algorithm
func (b *Builder) Build() (mappa.ItemList, error) {
	switch b.config.Algorithm {
	case Classic:
		return b.buildClassic()
	case Balanced, "":
		return b.buildBalanced()
	default:
		return mappa.ItemList{}, fmt.Errorf("unknown item algorithm %q", b.config.Algorithm)
	}
}

// chooseCategories returns the working category set in ascending order. Poke
// and Link Box each join on an independent 1 in 8 roll.
func (b *Builder) chooseCategories() []items.Category {
	cats := append([]items.Category(nil), items.AllowedCategories...)
	if b.rng.Intn(8) == 0 {
		cats = append(cats, items.CategoryPoke)
	}
	if b.rng.Intn(8) == 0 {
		cats = append(cats, items.CategoryLinkBox)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

func (b *Builder) buildClassic() (mappa.ItemList, error) {
	list := newItemList()
	cats := b.chooseCategories()

	thresholds, err := weights.RandomWeights(b.rng, len(cats))
	if err != nil {
		return list, fmt.Errorf("category weights: %w", err)
	}

	for i, cat := range cats {
		list.Categories[int(cat)] = thresholds[i]

		allowed := b.catalog.AllowedInCategory(cat, b.config.AllowedItems)
		upper := MaxItemsPerCategory
		if len(allowed) < upper {
			upper = len(allowed)
		}
		count := MinItemsPerCategory
		if upper > MinItemsPerCategory {
			count = MinItemsPerCategory + b.rng.Intn(upper-MinItemsPerCategory)
		}

		var chosen []int
		if len(allowed) > 0 {
			// Drawn with replacement, so the realized count may be lower
			picked := make(map[int]bool, count)
			for j := 0; j < count; j++ {
				picked[allowed[b.rng.Intn(len(allowed))]] = true
			}
			chosen = sortedKeys(picked)

			itemWeights, err := weights.RandomWeights(b.rng, len(chosen))
			if err != nil {
				return list, fmt.Errorf("item weights for %s: %w", cat, err)
			}
			for j, id := range chosen {
				list.Items[id] = itemWeights[j]
			}
		}
		if len(chosen) == 0 {
			list.Categories[int(cat)] = 0
		}
	}

	pinLastCategory(list.Categories)
	return list, nil
}

func (b *Builder) buildBalanced() (mappa.ItemList, error) {
	list := newItemList()
	cats := b.chooseCategories()

	target := MinItemsPerCategory*len(cats) + b.rng.Intn((MaxItemsPerCategory-MinItemsPerCategory)*len(cats))

	var pool []int
	for _, cat := range cats {
		pool = append(pool, b.catalog.AllowedInCategory(cat, b.config.AllowedItems)...)
	}

	chosenPerCat := make(map[items.Category][]int)
	for i := 0; i < target && len(pool) > 0; i++ {
		idx := b.rng.Intn(len(pool))
		id := pool[idx]
		pool = append(pool[:idx], pool[idx+1:]...)
		cat, _ := b.catalog.CategoryOf(id)
		chosenPerCat[cat] = append(chosenPerCat[cat], id)
	}

	var populated []items.Category
	for _, cat := range cats {
		if len(chosenPerCat[cat]) > 0 {
			populated = append(populated, cat)
		}
	}
	if len(populated) == 0 {
		return list, nil
	}

	weighted := make(map[items.Category]int, len(populated))
	total := 0
	for _, cat := range populated {
		multiplier, ok := b.config.CategoryWeights[cat]
		if !ok {
			multiplier = 1
		}
		if multiplier < minCategoryMultiplier {
			multiplier = minCategoryMultiplier
		}
		weighted[cat] = int(math.Ceil(float64(len(chosenPerCat[cat])) * multiplier))
		total += weighted[cat]
	}

	running := 0
	for _, cat := range populated {
		running += int(math.Ceil(float64(weights.MaxWeight) * float64(weighted[cat]) / float64(total)))
		if running > weights.MaxWeight {
			running = weights.MaxWeight
		}
		list.Categories[int(cat)] = running

		chosen := chosenPerCat[cat]
		sort.Ints(chosen)
		itemWeights, err := weights.RandomWeights(b.rng, len(chosen))
		if err != nil {
			return list, fmt.Errorf("item weights for %s: %w", cat, err)
		}
		for j, id := range chosen {
			list.Items[id] = itemWeights[j]
		}
	}
	list.Categories[int(populated[len(populated)-1])] = weights.MaxWeight

	return list, nil
}

// pinLastCategory forces the highest populated category to MaxWeight
func pinLastCategory(categories map[int]int) {
	last := -1
	for cat, threshold := range categories {
		if threshold > 0 && cat > last {
			last = cat
		}
	}
	if last >= 0 {
		categories[last] = weights.MaxWeight
	}
}

func newItemList() mappa.ItemList {
	return mappa.ItemList{
		Categories: make(map[int]int),
		Items:      make(map[int]int),
	}
}

func sortedKeys(set map[int]bool) []int {
	keys := make([]int, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
