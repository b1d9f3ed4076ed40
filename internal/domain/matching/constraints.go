package matching

import (
	"github.com/dinerly/tablematch/internal/domain/model"
)

// pairKey orders two participant ids so a constraint matches regardless of
// which side it was recorded from.
type pairKey struct {
	lo, hi string
}

func newPairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// ConstraintSet is an indexed view over avoid-pair constraints.
type ConstraintSet struct {
	pairs map[pairKey]struct{}
}

// NewConstraintSet indexes a slice of avoid constraints. Self-pairs and
// incomplete rows are ignored.
func NewConstraintSet(constraints []model.AvoidConstraint) *ConstraintSet {
	cs := &ConstraintSet{pairs: make(map[pairKey]struct{}, len(constraints))}
	for _, c := range constraints {
		if c.ParticipantA == "" || c.ParticipantB == "" || c.ParticipantA == c.ParticipantB {
			continue
		}
		cs.pairs[newPairKey(c.ParticipantA, c.ParticipantB)] = struct{}{}
	}
	return cs
}

// Blocked reports whether the two participants must be kept apart.
func (cs *ConstraintSet) Blocked(a, b string) bool {
	_, ok := cs.pairs[newPairKey(a, b)]
	return ok
}

// BlockedByAny reports whether the candidate conflicts with any current
// member of the group being built.
func (cs *ConstraintSet) BlockedByAny(candidateID string, members []model.Participant) bool {
	for i := range members {
		if cs.Blocked(candidateID, members[i].ID) {
			return true
		}
	}
	return false
}

// Len returns the number of indexed pairs.
func (cs *ConstraintSet) Len() int {
	return len(cs.pairs)
}
