package model

// GenderCount tallies known genders within a group.
type GenderCount struct {
	Male   int
	Female int
	Other  int
}

// Group is a finalized dinner group. All derived fields are computed from
// Participants and must be recomputed whenever membership changes; the
// matching package owns that derivation.
type Group struct {
	ID      string
	EventID string
	Name    string

	Participants []Participant

	CategoryDistribution map[Category]int
	GenderDistribution   GenderCount
	AverageAge           int
	DominantBudgetBand   string
	CompatibilityScore   int
}

// Size returns the group's member count.
func (g *Group) Size() int {
	return len(g.Participants)
}

// Contains reports whether the participant id is a member of the group.
func (g *Group) Contains(participantID string) bool {
	for i := range g.Participants {
		if g.Participants[i].ID == participantID {
			return true
		}
	}
	return false
}
