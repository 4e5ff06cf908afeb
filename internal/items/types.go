package items

// Category identifies an item category in the floor item tables
type Category int

const (
	CategoryThrownPierce Category = 0
	CategoryThrownRock   Category = 1
	CategoryBerriesSeeds Category = 2
	CategoryFoodsGummies Category = 3
	CategoryHold         Category = 4
	CategoryTMs          Category = 5
	CategoryPoke         Category = 6 // Currency, backed by a single money item
	CategoryOther        Category = 8
	CategoryOrbs         Category = 9
	CategoryLinkBox      Category = 10 // Backed by the Link Box item
)

// AllowedCategories are the categories every randomized item list draws from.
// Poke and Link Box join separately on their own roll.
var AllowedCategories = []Category{
	CategoryThrownPierce,
	CategoryThrownRock,
	CategoryBerriesSeeds,
	CategoryFoodsGummies,
	CategoryHold,
	CategoryTMs,
	CategoryOrbs,
	CategoryOther,
}

// String returns the string representation of a Category
func (c Category) String() string {
	switch c {
	case CategoryThrownPierce:
		return "thrown_pierce"
	case CategoryThrownRock:
		return "thrown_rock"
	case CategoryBerriesSeeds:
		return "berries_seeds_vitamins"
	case CategoryFoodsGummies:
		return "foods_gummies"
	case CategoryHold:
		return "hold"
	case CategoryTMs:
		return "tms"
	case CategoryPoke:
		return "poke"
	case CategoryOther:
		return "other"
	case CategoryOrbs:
		return "orbs"
	case CategoryLinkBox:
		return "link_box"
	default:
		return "unknown"
	}
}

// StringToCategory converts a string to a Category
func StringToCategory(s string) (Category, bool) {
	switch s {
	case "thrown_pierce":
		return CategoryThrownPierce, true
	case "thrown_rock":
		return CategoryThrownRock, true
	case "berries_seeds_vitamins":
		return CategoryBerriesSeeds, true
	case "foods_gummies":
		return CategoryFoodsGummies, true
	case "hold":
		return CategoryHold, true
	case "tms":
		return CategoryTMs, true
	case "poke":
		return CategoryPoke, true
	case "other":
		return CategoryOther, true
	case "orbs":
		return CategoryOrbs, true
	case "link_box":
		return CategoryLinkBox, true
	default:
		return 0, false
	}
}
