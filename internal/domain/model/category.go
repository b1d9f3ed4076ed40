package model

// Category is one of the five fixed personality labels assigned to a guest
// by the assessment scoring model.
type Category string

// The closed set of personality categories.
const (
	Trailblazers Category = "Trailblazers"
	Storytellers Category = "Storytellers"
	Philosophers Category = "Philosophers"
	Planners     Category = "Planners"
	FreeSpirits  Category = "Free Spirits"
)

// categoryOrder is the fixed enumeration order. Arg-max categorization breaks
// ties toward the earliest entry, so this order is part of the contract.
var categoryOrder = []Category{
	Trailblazers,
	Storytellers,
	Philosophers,
	Planners,
	FreeSpirits,
}

// bestPairings maps each category to the two categories it dines best with.
// The graph is directed; compatibility checks that care about either
// direction must consult both endpoints.
var bestPairings = map[Category][]Category{
	Trailblazers: {Storytellers, FreeSpirits},
	Storytellers: {Trailblazers, Philosophers},
	Philosophers: {Storytellers, Planners},
	Planners:     {Philosophers, Trailblazers},
	FreeSpirits:  {Trailblazers, Storytellers},
}

// Categories returns the categories in their fixed priority order.
func Categories() []Category {
	out := make([]Category, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// BestPairings returns the fixed best-pairing set for a category.
func BestPairings(c Category) []Category {
	pair, ok := bestPairings[c]
	if !ok {
		return nil
	}
	out := make([]Category, len(pair))
	copy(out, pair)
	return out
}

// PairsWith reports whether b is in a's best-pairing set.
func PairsWith(a, b Category) bool {
	for _, c := range bestPairings[a] {
		if c == b {
			return true
		}
	}
	return false
}

// Valid reports whether c is one of the five known categories.
func (c Category) Valid() bool {
	_, ok := bestPairings[c]
	return ok
}
