package matching_test

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/dinerly/tablematch/internal/domain/compat"
	"github.com/dinerly/tablematch/internal/domain/matching"
	"github.com/dinerly/tablematch/internal/domain/model"
)

// compatibleRoster builds n guests that pass every strict filter: alternating
// genders, a tight age cluster, one budget band, all single.
func compatibleRoster(n int) []model.Participant {
	categories := model.Categories()
	roster := make([]model.Participant, 0, n)
	for i := 0; i < n; i++ {
		gender := model.GenderMale
		if i%2 == 0 {
			gender = model.GenderFemale
		}
		roster = append(roster, model.Participant{
			ID:           fmt.Sprintf("p%02d", i),
			Category:     categories[i%len(categories)],
			Age:          28 + i%4,
			Gender:       gender,
			BudgetBand:   string(compat.Band500To1K),
			Relationship: "single",
		})
	}
	return roster
}

func seededMatcher(seed int64) *matching.Matcher {
	return matching.New(matching.WithRand(rand.New(rand.NewSource(seed)))) //nolint:gosec // fixed seed for reproducible tests
}

func assertNoAvoidViolations(groups []model.Group, constraints []model.AvoidConstraint) {
	for _, c := range constraints {
		for _, g := range groups {
			together := g.Contains(c.ParticipantA) && g.Contains(c.ParticipantB)
			convey.So(together, convey.ShouldBeFalse)
		}
	}
}

func TestGenerateGroupsValidation(t *testing.T) {
	convey.Convey("Given the formation entry point", t, func() {
		m := seededMatcher(1)
		ctx := context.Background()

		convey.Convey("An unsupported target size is rejected", func() {
			_, err := m.GenerateGroups(ctx, compatibleRoster(12), nil, 7)
			convey.So(err, convey.ShouldWrap, matching.ErrInvalidTargetSize)
		})

		convey.Convey("An empty participant id is rejected", func() {
			roster := compatibleRoster(5)
			roster[2].ID = ""
			_, err := m.GenerateGroups(ctx, roster, nil, 6)
			convey.So(err, convey.ShouldWrap, matching.ErrMalformedRoster)
		})

		convey.Convey("A duplicate participant id is rejected", func() {
			roster := compatibleRoster(5)
			roster[3].ID = roster[1].ID
			_, err := m.GenerateGroups(ctx, roster, nil, 6)
			convey.So(err, convey.ShouldWrap, matching.ErrMalformedRoster)
		})
	})
}

func TestGenerateGroupsSizing(t *testing.T) {
	convey.Convey("Given the sizing policy", t, func() {
		m := seededMatcher(1)
		ctx := context.Background()

		convey.Convey("Fewer than four guests postpones the event", func() {
			result, err := m.GenerateGroups(ctx, compatibleRoster(3), nil, 6)
			convey.So(err, convey.ShouldBeNil)
			convey.So(result.Groups, convey.ShouldBeEmpty)
			convey.So(result.Outcome, convey.ShouldEqual, matching.OutcomeTooFew)
		})

		convey.Convey("Four to nine guests dine as one group", func() {
			result, err := m.GenerateGroups(ctx, compatibleRoster(7), nil, 6)
			convey.So(err, convey.ShouldBeNil)
			convey.So(result.Outcome, convey.ShouldEqual, matching.OutcomeSingle)
			convey.So(result.Groups, convey.ShouldHaveLength, 1)
			convey.So(result.Groups[0].Size(), convey.ShouldEqual, 7)
			convey.So(result.Groups[0].Name, convey.ShouldEqual, "Group 1")
		})

		convey.Convey("Twelve guests at target six form two full groups", func() {
			result, err := m.GenerateGroups(ctx, compatibleRoster(12), nil, 6)
			convey.So(err, convey.ShouldBeNil)
			convey.So(result.Outcome, convey.ShouldEqual, matching.OutcomeStrict)
			convey.So(result.Groups, convey.ShouldHaveLength, 2)
			convey.So(result.Groups[0].Size(), convey.ShouldEqual, 6)
			convey.So(result.Groups[1].Size(), convey.ShouldEqual, 6)
		})

		convey.Convey("Group sizes always sum to the roster size", func() {
			for _, n := range []int{10, 11, 12, 14, 17, 23} {
				for _, target := range []int{5, 6} {
					result, err := m.GenerateGroups(ctx, compatibleRoster(n), nil, target)
					convey.So(err, convey.ShouldBeNil)

					total := 0
					for _, g := range result.Groups {
						total += g.Size()
					}
					convey.So(total, convey.ShouldEqual, n)
				}
			}
		})
	})
}

func TestGenerateGroupsStrict(t *testing.T) {
	convey.Convey("Given a roster the strict pass can solve", t, func() {
		m := seededMatcher(1)
		ctx := context.Background()
		roster := compatibleRoster(12)

		convey.Convey("When groups are formed twice", func() {
			r1, err1 := m.GenerateGroups(ctx, roster, nil, 6)
			r2, err2 := m.GenerateGroups(ctx, roster, nil, 6)

			convey.Convey("Then the strict partition is deterministic", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
				convey.So(r1.Outcome, convey.ShouldEqual, matching.OutcomeStrict)
				for i := range r1.Groups {
					convey.So(r1.Groups[i].Participants, convey.ShouldResemble, r2.Groups[i].Participants)
				}
			})
		})

		convey.Convey("When formed groups come back", func() {
			result, err := m.GenerateGroups(ctx, roster, nil, 6)
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then every group satisfies the gender-balance law", func() {
				for i := range result.Groups {
					convey.So(compat.GroupBalanced(&result.Groups[i]), convey.ShouldBeTrue)
				}
			})
		})

		convey.Convey("When an avoid constraint splits a pair", func() {
			constraints := []model.AvoidConstraint{{ParticipantA: "p00", ParticipantB: "p01"}}
			result, err := m.GenerateGroups(ctx, roster, constraints, 6)

			convey.Convey("Then the pair never shares a group", func() {
				convey.So(err, convey.ShouldBeNil)
				assertNoAvoidViolations(result.Groups, constraints)
			})
		})
	})
}

func TestGenerateGroupsLenientFallback(t *testing.T) {
	convey.Convey("Given a roster the strict pass cannot solve", t, func() {
		// Six guests in one budget band and four in another. The strict
		// pass fills the first group from the larger cluster, then cannot
		// complete the second group across the band boundary.
		roster := compatibleRoster(10)
		for i := 6; i < 10; i++ {
			roster[i].BudgetBand = string(compat.BandOver1500)
		}

		m := seededMatcher(42)
		ctx := context.Background()

		convey.Convey("When groups are formed", func() {
			result, err := m.GenerateGroups(ctx, roster, nil, 5)

			convey.Convey("Then the lenient fallback places everyone", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(result.Outcome, convey.ShouldEqual, matching.OutcomeLenient)
				convey.So(result.Groups, convey.ShouldHaveLength, 2)

				total := 0
				for _, g := range result.Groups {
					total += g.Size()
				}
				convey.So(total, convey.ShouldEqual, 10)
			})
		})

		convey.Convey("When avoid constraints are present in lenient mode", func() {
			constraints := []model.AvoidConstraint{
				{ParticipantA: "p02", ParticipantB: "p07"},
				{ParticipantA: "p03", ParticipantB: "p08"},
			}
			result, err := m.GenerateGroups(ctx, roster, constraints, 5)

			convey.Convey("Then they still hold", func() {
				convey.So(err, convey.ShouldBeNil)
				assertNoAvoidViolations(result.Groups, constraints)
			})
		})

		convey.Convey("When the same seed runs twice", func() {
			m1 := seededMatcher(7)
			m2 := seededMatcher(7)

			r1, err1 := m1.GenerateGroups(ctx, roster, nil, 5)
			r2, err2 := m2.GenerateGroups(ctx, roster, nil, 5)

			convey.Convey("Then the lenient result is reproducible", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
				for i := range r1.Groups {
					convey.So(r1.Groups[i].Participants, convey.ShouldResemble, r2.Groups[i].Participants)
				}
			})
		})
	})
}

func TestGenerateGroupsUnsatisfiable(t *testing.T) {
	convey.Convey("Given a constraint set no partition can satisfy", t, func() {
		roster := compatibleRoster(10)

		// Block every pair: nobody can sit with anybody.
		var constraints []model.AvoidConstraint
		for i := range roster {
			for j := i + 1; j < len(roster); j++ {
				constraints = append(constraints, model.AvoidConstraint{
					ParticipantA: roster[i].ID,
					ParticipantB: roster[j].ID,
				})
			}
		}

		m := seededMatcher(3)

		convey.Convey("When groups are formed", func() {
			_, err := m.GenerateGroups(context.Background(), roster, constraints, 5)

			convey.Convey("Then the run fails instead of co-locating a blocked pair", func() {
				convey.So(err, convey.ShouldWrap, matching.ErrUnsatisfiableConstraints)
			})
		})
	})
}

func TestConstraintSet(t *testing.T) {
	convey.Convey("Given an avoid constraint set", t, func() {
		cset := matching.NewConstraintSet([]model.AvoidConstraint{
			{ParticipantA: "a", ParticipantB: "b"},
			{ParticipantA: "c", ParticipantB: ""},  // incomplete, dropped
			{ParticipantA: "d", ParticipantB: "d"}, // self, dropped
		})

		convey.Convey("Blocking is symmetric", func() {
			convey.So(cset.Blocked("a", "b"), convey.ShouldBeTrue)
			convey.So(cset.Blocked("b", "a"), convey.ShouldBeTrue)
			convey.So(cset.Blocked("a", "c"), convey.ShouldBeFalse)
		})

		convey.Convey("Malformed pairs are dropped", func() {
			convey.So(cset.Len(), convey.ShouldEqual, 1)
			convey.So(cset.Blocked("d", "d"), convey.ShouldBeFalse)
		})

		convey.Convey("Membership checks scan the whole group", func() {
			members := []model.Participant{{ID: "x"}, {ID: "b"}}
			convey.So(cset.BlockedByAny("a", members), convey.ShouldBeTrue)
			convey.So(cset.BlockedByAny("c", members), convey.ShouldBeFalse)
		})
	})
}
