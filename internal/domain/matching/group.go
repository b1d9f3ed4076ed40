package matching

import (
	"math"

	"github.com/dinerly/tablematch/internal/domain/compat"
	"github.com/dinerly/tablematch/internal/domain/model"
)

// Pairwise contributions to a group's compatibility score.
const (
	pairingBonus   = 10
	agePairBonus   = 5
	agePairPenalty = -10
	budgetBonus    = 5
	budgetPenalty  = -5
)

// budgetBandOrder fixes the tie-break when two bands are equally dominant.
var budgetBandOrder = []compat.BudgetBand{
	compat.BandUnder500,
	compat.Band500To1K,
	compat.Band1KTo1500,
	compat.BandOver1500,
}

// NewGroup builds a Group from a finalized participant list, computing every
// derived field from scratch. It is the single derivation path: formation,
// manual admin edits, and recompute requests all go through here, so derived
// fields can never drift from membership.
func NewGroup(participants []model.Participant) model.Group {
	g := model.Group{
		Participants:         participants,
		CategoryDistribution: make(map[model.Category]int),
	}

	for i := range participants {
		p := &participants[i]
		g.CategoryDistribution[p.Category]++
		switch p.Gender {
		case model.GenderMale:
			g.GenderDistribution.Male++
		case model.GenderFemale:
			g.GenderDistribution.Female++
		default:
			g.GenderDistribution.Other++
		}
	}

	g.AverageAge = averageAge(participants)
	g.DominantBudgetBand = dominantBand(participants)
	g.CompatibilityScore = compatibilityScore(participants)
	return g
}

func averageAge(participants []model.Participant) int {
	sum, known := 0, 0
	for i := range participants {
		if participants[i].Age > 0 {
			sum += participants[i].Age
			known++
		}
	}
	if known == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(known)))
}

func dominantBand(participants []model.Participant) string {
	counts := make(map[compat.BudgetBand]int)
	for i := range participants {
		if band := compat.Band(participants[i].BudgetBand); band != compat.BandUnknown {
			counts[band]++
		}
	}

	best := compat.BandUnknown
	bestCount := 0
	for _, band := range budgetBandOrder {
		if counts[band] > bestCount {
			best = band
			bestCount = counts[band]
		}
	}
	return string(best)
}

// compatibilityScore sums pairwise terms over all unordered member pairs:
// a pairing bonus when either direction's best-pairing set includes the
// other's category, and bonuses or penalties for age and budget fit.
func compatibilityScore(participants []model.Participant) int {
	score := 0
	for i := range participants {
		for j := i + 1; j < len(participants); j++ {
			a, b := &participants[i], &participants[j]

			if compat.CategoryCompatible(a, b) || compat.CategoryCompatible(b, a) {
				score += pairingBonus
			}
			if compat.AgeCompatible(a, b) {
				score += agePairBonus
			} else {
				score += agePairPenalty
			}
			if compat.BudgetCompatible(a, b) {
				score += budgetBonus
			} else {
				score += budgetPenalty
			}
		}
	}
	return score
}
