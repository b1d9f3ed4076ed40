// Package seating bin-packs finalized groups into venues and tables.
//
// Planning is pure: BuildPlan computes every venue, table, and seat without
// touching storage, so the capacity preconditions are fully checked before
// the caller performs a single write.
package seating

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/dinerly/tablematch/internal/domain/model"
)

// Placement records where one group landed.
type Placement struct {
	GroupID string
	VenueID string
	TableID string
}

// Plan is the complete distribution outcome for one event.
type Plan struct {
	Venues      []model.Venue
	Tables      []model.Table
	Assignments []model.SeatAssignment
	Placements  []Placement

	// Remaining capacity per venue id after packing, kept for reporting.
	Remaining map[string]int
}

// venueState tracks a venue during packing.
type venueState struct {
	venue     model.Venue
	remaining int
	order     int // input position; breaks remaining-capacity ties
}

// BuildPlan distributes groups across venues.
//
// Groups are placed largest first, each into the venue with the most
// remaining capacity that still fits it; spreading by max remaining keeps
// venues evenly loaded instead of packing the first one solid. Equal
// remaining capacity breaks toward the earliest venue in input order. One
// table is created per group, sized exactly, with seats numbered 1..k in
// the group's participant order.
//
// Venues without ids are treated as new and assigned ids here; supplied ids
// are reused untouched.
func BuildPlan(groups []model.Group, venues []model.Venue) (*Plan, error) {
	if len(venues) == 0 {
		return nil, ErrNoVenues
	}

	seats := 0
	for i := range groups {
		seats += groups[i].Size()
	}
	capacity := 0
	for i := range venues {
		capacity += venues[i].TotalCapacity
	}
	if capacity < seats {
		return nil, fmt.Errorf("%w: need %d seats, venues hold %d (short %d)",
			ErrInsufficientCapacity, seats, capacity, seats-capacity)
	}

	states := make([]*venueState, len(venues))
	for i := range venues {
		v := venues[i]
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		states[i] = &venueState{venue: v, remaining: v.TotalCapacity, order: i}
	}

	// Largest groups first reduces fragmentation; the stable sort keeps
	// equal-sized groups in formation order.
	ordered := append([]model.Group(nil), groups...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Size() > ordered[j].Size()
	})

	plan := &Plan{Remaining: make(map[string]int, len(states))}
	for i := range ordered {
		g := &ordered[i]
		if g.Size() == 0 {
			continue
		}

		target := bestFit(states, g.Size())
		if target == nil {
			// Aggregate capacity was sufficient but no single venue can
			// hold this group contiguously.
			return nil, fmt.Errorf("%w: no venue fits group %q of %d",
				ErrInsufficientCapacity, g.Name, g.Size())
		}
		target.remaining -= g.Size()

		table := model.Table{
			ID:       uuid.NewString(),
			VenueID:  target.venue.ID,
			GroupID:  g.ID,
			Capacity: g.Size(),
		}
		plan.Tables = append(plan.Tables, table)
		plan.Placements = append(plan.Placements, Placement{
			GroupID: g.ID,
			VenueID: target.venue.ID,
			TableID: table.ID,
		})

		for seat := range g.Participants {
			plan.Assignments = append(plan.Assignments, model.SeatAssignment{
				ParticipantID: g.Participants[seat].ID,
				VenueID:       target.venue.ID,
				TableID:       table.ID,
				SeatNumber:    seat + 1,
			})
		}
	}

	for _, st := range states {
		plan.Venues = append(plan.Venues, st.venue)
		plan.Remaining[st.venue.ID] = st.remaining
	}
	return plan, nil
}

// bestFit picks the venue with the largest remaining capacity that can hold
// size seats; ties go to the earliest venue in input order.
func bestFit(states []*venueState, size int) *venueState {
	var best *venueState
	for _, st := range states {
		if st.remaining < size {
			continue
		}
		if best == nil || st.remaining > best.remaining {
			best = st
		}
	}
	return best
}
