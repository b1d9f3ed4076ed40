// Package compat holds the pairwise and group-level compatibility rules used
// during group formation.
//
// Every pairwise predicate returns true when either side is missing the
// relevant data: absence of a profile field must never block a pairing.
package compat

import (
	"github.com/dinerly/tablematch/internal/domain/model"
)

// maxAgeGap is the widest acceptable age difference between two guests.
const maxAgeGap = 5

// CategoryCompatible reports whether b's category is in a's best-pairing
// set. The lookup is directional; scoring paths that want "either direction"
// must call it both ways.
func CategoryCompatible(a, b *model.Participant) bool {
	return model.PairsWith(a.Category, b.Category)
}

// AgeCompatible reports whether two guests are within the acceptable age
// window. Unknown ages (zero) are compatible with everyone.
func AgeCompatible(a, b *model.Participant) bool {
	if a.Age <= 0 || b.Age <= 0 {
		return true
	}
	gap := a.Age - b.Age
	if gap < 0 {
		gap = -gap
	}
	return gap <= maxAgeGap
}

// BudgetCompatible requires exact equality of normalized budget bands when
// both are known.
func BudgetCompatible(a, b *model.Participant) bool {
	ba := Band(a.BudgetBand)
	bb := Band(b.BudgetBand)
	if ba == BandUnknown || bb == BandUnknown {
		return true
	}
	return ba == bb
}

// committedStatuses places a relationship status on the committed side of
// the single/committed partition.
var committedStatuses = map[string]bool{
	"married":         true,
	"in_relationship": true,
	"dating":          true,
	"engaged":         true,
}

// singleStatuses places a status on the single side.
var singleStatuses = map[string]bool{
	"single":    true,
	"divorced":  true,
	"widowed":   true,
	"separated": true,
}

// RelationshipCompatible reports whether two guests fall on the same side of
// the single/committed partition. Unknown or unrecognized statuses are
// compatible with everyone.
func RelationshipCompatible(a, b *model.Participant) bool {
	sideA, knownA := relationshipSide(a.Relationship)
	sideB, knownB := relationshipSide(b.Relationship)
	if !knownA || !knownB {
		return true
	}
	return sideA == sideB
}

func relationshipSide(status string) (committed bool, known bool) {
	switch {
	case committedStatuses[status]:
		return true, true
	case singleStatuses[status]:
		return false, true
	default:
		return false, false
	}
}
