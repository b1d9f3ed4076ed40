package matching

import (
	"context"

	"github.com/dinerly/tablematch/internal/domain/compat"
	"github.com/dinerly/tablematch/internal/domain/model"
	"github.com/dinerly/tablematch/pkg/logger"
)

// Greedy candidate-score weights for the strict pass.
const (
	categoryWeight = 10
	ageWeight      = 5
	budgetWeight   = 5
)

// tryStrict attempts the preferred formation pass: every group is grown
// greedily under the full rule set (avoid-pairs, pairwise age/budget/
// relationship fit against every member, and gender-balance feasibility).
//
// The pass is all-or-nothing. A slot that cannot be filled aborts the whole
// attempt with ok=false: a partial strict result would leave the remaining
// pool in a state the later slots may not be able to solve.
func (m *Matcher) tryStrict(ctx context.Context, roster []model.Participant, cset *ConstraintSet, sizes []int) ([]model.Group, bool) {
	// Seeds and tie-breaks follow ascending participant id, so a given
	// roster always produces the same strict partition.
	ordered := sortedByID(roster)
	used := make(map[string]struct{}, len(ordered))

	groups := make([]model.Group, 0, len(sizes))
	for slot, size := range sizes {
		members, ok := m.fillSlot(ordered, used, cset, size)
		if !ok {
			m.logger.Debug(ctx, "strict slot unfillable, aborting pass",
				logger.Int("slot", slot),
				logger.Int("size", size),
			)
			return nil, false
		}
		groups = append(groups, NewGroup(members))
	}
	return groups, true
}

// fillSlot seeds one group and grows it to size, marking chosen guests used.
func (m *Matcher) fillSlot(ordered []model.Participant, used map[string]struct{}, cset *ConstraintSet, size int) ([]model.Participant, bool) {
	var members []model.Participant

	seed := firstUnused(ordered, used)
	if seed == nil || !balanceFeasible(members, seed, size) {
		return nil, false
	}
	members = append(members, *seed)
	used[seed.ID] = struct{}{}

	for len(members) < size {
		best := m.bestCandidate(ordered, used, cset, members, size)
		if best == nil {
			// Roll back so the lenient pass sees the full pool.
			for i := range members {
				delete(used, members[i].ID)
			}
			return nil, false
		}
		members = append(members, *best)
		used[best.ID] = struct{}{}
	}
	return members, true
}

// bestCandidate picks the eligible unused guest with the highest candidate
// score. Ties resolve to the lowest participant id, which the ascending
// iteration order gives for free.
func (m *Matcher) bestCandidate(ordered []model.Participant, used map[string]struct{}, cset *ConstraintSet, members []model.Participant, size int) *model.Participant {
	var best *model.Participant
	bestScore := -1

	for i := range ordered {
		cand := &ordered[i]
		if _, taken := used[cand.ID]; taken {
			continue
		}
		if !m.eligibleStrict(cand, members, cset, size) {
			continue
		}
		if score := candidateScore(cand, members); score > bestScore {
			best = cand
			bestScore = score
		}
	}
	return best
}

// eligibleStrict applies the strict hard filters: no avoid-pair against any
// member, pairwise age/budget/relationship fit against every member, and the
// group must remain gender-balance feasible after the addition.
func (m *Matcher) eligibleStrict(cand *model.Participant, members []model.Participant, cset *ConstraintSet, size int) bool {
	if cset.BlockedByAny(cand.ID, members) {
		return false
	}
	for i := range members {
		member := &members[i]
		if !compat.AgeCompatible(cand, member) ||
			!compat.BudgetCompatible(cand, member) ||
			!compat.RelationshipCompatible(cand, member) {
			return false
		}
	}
	return balanceFeasible(members, cand, size)
}

// balanceFeasible checks the prospective gender rule for the group as it
// would look after adding cand.
func balanceFeasible(members []model.Participant, cand *model.Participant, size int) bool {
	male, female := 0, 0
	count := func(gender string) {
		switch gender {
		case model.GenderMale:
			male++
		case model.GenderFemale:
			female++
		}
	}
	for i := range members {
		count(members[i].Gender)
	}
	count(cand.Gender)

	remaining := size - len(members) - 1
	return compat.CanMaintainBalance(male, female, remaining, size)
}

// candidateScore ranks how well a candidate complements the current members:
// category best-pairing matches dominate, age and budget fit follow.
func candidateScore(cand *model.Participant, members []model.Participant) int {
	score := 0
	for i := range members {
		member := &members[i]
		if model.PairsWith(member.Category, cand.Category) {
			score += categoryWeight
		}
		if compat.AgeCompatible(cand, member) {
			score += ageWeight
		}
		if compat.BudgetCompatible(cand, member) {
			score += budgetWeight
		}
	}
	return score
}

func firstUnused(ordered []model.Participant, used map[string]struct{}) *model.Participant {
	for i := range ordered {
		if _, taken := used[ordered[i].ID]; !taken {
			return &ordered[i]
		}
	}
	return nil
}
