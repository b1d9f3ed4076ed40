package testruns

import (
	"fmt"
	"log"
)

// genderGapBySize is the widest acceptable male/female gap per group size.
// Larger groups are not constrained.
var genderGapBySize = map[int]int{
	4: 0,
	5: 1,
	6: 2,
	7: 1,
	8: 2,
	9: 1,
}

// verifyEvent checks one event's groups against the rules the engine must
// never break: every placed guest comes from the roster exactly once, and no
// avoid pair shares a group. Gender balance is checked too, but only warned
// about: the lenient path is allowed to waive it as a last resort.
func verifyEvent(roster *EventRoster, groups []GroupView, stats *Stats) error {
	known := make(map[string]bool, len(roster.Guests))
	for _, g := range roster.Guests {
		known[g.ID] = true
	}

	seen := make(map[string]string) // participant -> group
	for _, group := range groups {
		if len(group.ParticipantIDs) != group.Size {
			stats.LawViolations++
			return fmt.Errorf("group %s reports size %d but lists %d members",
				group.ID, group.Size, len(group.ParticipantIDs))
		}

		for _, id := range group.ParticipantIDs {
			if !known[id] {
				stats.LawViolations++
				return fmt.Errorf("group %s contains unknown participant %s", group.ID, id)
			}
			if prior, dup := seen[id]; dup {
				stats.LawViolations++
				return fmt.Errorf("participant %s appears in groups %s and %s", id, prior, group.ID)
			}
			seen[id] = group.ID
		}

		checkGenderBalance(&group)
	}

	for _, pair := range roster.AvoidPairs {
		groupA, placedA := seen[pair.ParticipantA]
		groupB, placedB := seen[pair.ParticipantB]
		if placedA && placedB && groupA == groupB {
			stats.LawViolations++
			return fmt.Errorf("avoid pair %s/%s share group %s",
				pair.ParticipantA, pair.ParticipantB, groupA)
		}
	}

	stats.GroupsFormed += len(groups)
	stats.GuestsPlaced += len(seen)
	return nil
}

// checkGenderBalance warns when a group's male/female split falls outside
// the per-size window. Guests of unknown or non-binary gender make the
// window inapplicable, so those groups are skipped.
func checkGenderBalance(group *GroupView) {
	dist := group.GenderDistribution
	if dist.Other > 0 || dist.Male+dist.Female != group.Size {
		return
	}
	gap, constrained := genderGapBySize[group.Size]
	if !constrained {
		return
	}

	diff := dist.Male - dist.Female
	if diff < 0 {
		diff = -diff
	}
	if diff > gap || dist.Male == 0 || dist.Female == 0 {
		log.Printf("⚠️  Group %s (%s) is gender-imbalanced: %d male / %d female at size %d",
			group.ID, group.Name, dist.Male, dist.Female, group.Size)
	}
}

// displayGroups prints the formed groups for one event.
func displayGroups(eventID string, groups []GroupView, verbose bool) {
	log.Printf("🍽️  Event %s formed %d groups:", eventID, len(groups))
	for _, g := range groups {
		log.Printf("   %s: size %d, avg age %d, band %s, score %d",
			g.Name, g.Size, g.AverageAge, g.DominantBudgetBand, g.CompatibilityScore)
		if verbose {
			for i, id := range g.ParticipantIDs {
				log.Printf("      seat %d: %s", i+1, id)
			}
		}
	}
}
