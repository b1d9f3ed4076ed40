package compat

import (
	"github.com/dinerly/tablematch/internal/domain/model"
)

// genderGapBySize caps |male - female| for each final group size the
// formation algorithm can produce.
var genderGapBySize = map[int]int{
	4: 0,
	5: 1,
	6: 2,
	7: 1,
	8: 2,
	9: 1,
}

// minBalancedSize is the size from which a table may not be single-gender.
const minBalancedSize = 4

// MaxGenderGap returns the allowed |male - female| difference for a final
// group size. Sizes outside the table are unconstrained; the formation
// algorithm never produces them.
func MaxGenderGap(size int) (int, bool) {
	gap, ok := genderGapBySize[size]
	return gap, ok
}

// BalancedAtSize checks the final-size gender rule against known gender
// counts. Guests of unknown or other gender do not participate in the
// balance arithmetic, so an all-unknown table passes trivially.
func BalancedAtSize(male, female, size int) bool {
	if size < minBalancedSize {
		return true
	}
	// No single-gender tables once any gender is known.
	if male+female > 0 && (male == 0 || female == 0) {
		return false
	}
	gap, ok := MaxGenderGap(size)
	if !ok {
		return true
	}
	diff := male - female
	if diff < 0 {
		diff = -diff
	}
	return diff <= gap
}

// CanMaintainBalance is the prospective check used while a group is still
// being built: with the current known gender counts and the number of open
// seats, can some future fill still satisfy BalancedAtSize? Rejecting early
// here keeps the greedy loop from painting itself into a corner.
func CanMaintainBalance(male, female, remaining, finalSize int) bool {
	if remaining < 0 {
		return false
	}
	// Open seats may go to males, females, or guests outside the balance
	// arithmetic, so feasibility is an existence check over the split.
	for addMale := 0; addMale <= remaining; addMale++ {
		for addFemale := 0; addFemale <= remaining-addMale; addFemale++ {
			if BalancedAtSize(male+addMale, female+addFemale, finalSize) {
				return true
			}
		}
	}
	return false
}

// GroupBalanced applies the final-size rule to a finished group.
func GroupBalanced(g *model.Group) bool {
	return BalancedAtSize(g.GenderDistribution.Male, g.GenderDistribution.Female, g.Size())
}
