package matching

import (
	"context"
	"fmt"

	"github.com/dinerly/tablematch/internal/domain/model"
	"github.com/dinerly/tablematch/pkg/logger"
)

// lenientFallback places every guest after the strict pass has aborted. The
// roster is shuffled with the injected random source, then each guest goes
// to the smallest group that can still take them. Only two rules stay hard
// here: avoid-pairs, which are never relaxed, and gender-balance
// feasibility, which is waived as a documented last resort when no group
// passes it. Age, budget, and relationship fit are already-lost soft
// objectives in this mode.
func (m *Matcher) lenientFallback(ctx context.Context, roster []model.Participant, cset *ConstraintSet, sizes []int) ([]model.Group, error) {
	shuffled := append([]model.Participant(nil), roster...)
	m.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	buckets := make([][]model.Participant, len(sizes))

	for i := range shuffled {
		p := &shuffled[i]

		target := m.pickBucket(buckets, sizes, cset, p)
		if target < 0 {
			// Every group, balanced or not, full or not, contains a blocked
			// partner. No partition can seat this guest without relaxing a
			// hard constraint, so report it instead of co-locating the pair.
			return nil, fmt.Errorf("%w: participant %s conflicts with every group", ErrUnsatisfiableConstraints, p.ID)
		}
		buckets[target] = append(buckets[target], *p)

		if len(buckets[target]) > sizes[target] {
			m.logger.Warn(ctx, "lenient forced placement overfilled group",
				logger.String("participant", p.ID),
				logger.Int("group", target),
			)
		}
	}

	groups := make([]model.Group, len(buckets))
	for i := range buckets {
		groups[i] = NewGroup(buckets[i])
	}
	return groups, nil
}

// pickBucket returns the index of the group the guest should join, relaxing
// the rules in stages:
//
//  1. open groups with no avoid conflict that stay balance-feasible,
//     smallest first
//  2. open groups with no avoid conflict, smallest first (balance waived)
//  3. any group with no avoid conflict, smallest first (size cap waived)
//
// A negative index means even stage 3 found nothing: the guest conflicts
// with every group.
func (m *Matcher) pickBucket(buckets [][]model.Participant, sizes []int, cset *ConstraintSet, p *model.Participant) int {
	pick := func(eligible func(i int) bool) int {
		best := -1
		for i := range buckets {
			if !eligible(i) {
				continue
			}
			if best < 0 || len(buckets[i]) < len(buckets[best]) {
				best = i
			}
		}
		return best
	}

	notBlocked := func(i int) bool {
		return !cset.BlockedByAny(p.ID, buckets[i])
	}
	open := func(i int) bool {
		return len(buckets[i]) < sizes[i] && notBlocked(i)
	}
	balanced := func(i int) bool {
		return open(i) && balanceFeasible(buckets[i], p, sizes[i])
	}

	if i := pick(balanced); i >= 0 {
		return i
	}
	if i := pick(open); i >= 0 {
		return i
	}
	return pick(notBlocked)
}
