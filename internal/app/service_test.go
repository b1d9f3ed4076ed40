package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	service "github.com/dinerly/tablematch/internal/app"
	"github.com/dinerly/tablematch/internal/domain/matching"
	"github.com/dinerly/tablematch/internal/domain/model"
)

// fakeStore is an in-memory repository.Store for service tests.
type fakeStore struct {
	mu          sync.Mutex
	roster      map[string][]model.GuestRecord
	constraints map[string][]model.AvoidConstraint
	groups      map[string][]model.Group
	venues      map[string]model.Venue
	tables      []model.Table
	assignments map[string][]model.SeatAssignment
	missing     map[string]bool
	cleared     int
	resets      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		roster:      make(map[string][]model.GuestRecord),
		constraints: make(map[string][]model.AvoidConstraint),
		groups:      make(map[string][]model.Group),
		venues:      make(map[string]model.Venue),
		assignments: make(map[string][]model.SeatAssignment),
		missing:     make(map[string]bool),
	}
}

func (f *fakeStore) Roster(_ context.Context, eventID string) ([]model.GuestRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roster[eventID], nil
}

func (f *fakeStore) AvoidConstraints(_ context.Context, eventID string) ([]model.AvoidConstraint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.constraints[eventID], nil
}

func (f *fakeStore) ParticipantExists(_ context.Context, participantID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.missing[participantID], nil
}

func (f *fakeStore) SaveGroups(_ context.Context, eventID string, groups []model.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups[eventID] = groups
	return nil
}

func (f *fakeStore) Groups(_ context.Context, eventID string) ([]model.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.groups[eventID], nil
}

func (f *fakeStore) Group(_ context.Context, groupID string) (model.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, groups := range f.groups {
		for _, g := range groups {
			if g.ID == groupID {
				return g, nil
			}
		}
	}
	return model.Group{}, fmt.Errorf("group not found: %s", groupID)
}

func (f *fakeStore) UpdateGroupMetrics(_ context.Context, g model.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for eventID, groups := range f.groups {
		for i := range groups {
			if groups[i].ID == g.ID {
				f.groups[eventID][i] = g
				return nil
			}
		}
	}
	return fmt.Errorf("group not found: %s", g.ID)
}

func (f *fakeStore) ReplaceGroupMembers(_ context.Context, groupID string, members []model.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for eventID, groups := range f.groups {
		for i := range groups {
			if groups[i].ID == groupID {
				f.groups[eventID][i].Participants = members
				return nil
			}
		}
	}
	return fmt.Errorf("group not found: %s", groupID)
}

func (f *fakeStore) SaveVenue(_ context.Context, v model.Venue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.venues[v.ID] = v
	return nil
}

func (f *fakeStore) SaveTable(_ context.Context, t model.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables = append(f.tables, t)
	return nil
}

func (f *fakeStore) SaveAssignments(_ context.Context, eventID string, assignments []model.SeatAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assignments[eventID] = append(f.assignments[eventID], assignments...)
	return nil
}

func (f *fakeStore) ResetNotificationFlags(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

func (f *fakeStore) ClearEvent(_ context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.groups, eventID)
	delete(f.assignments, eventID)
	f.cleared++
	return nil
}

func (f *fakeStore) Close() error { return nil }

// testRoster builds n guests with alternating genders, adjacent ages, and a
// shared budget so strict formation has room to work.
func testRoster(n int) []model.GuestRecord {
	vibes := []string{"adventurous", "deep", "fun", "organized", "spontaneous"}
	guests := make([]model.GuestRecord, 0, n)
	for i := 0; i < n; i++ {
		gender := model.GenderMale
		if i%2 == 0 {
			gender = model.GenderFemale
		}
		guests = append(guests, model.GuestRecord{
			ID:           fmt.Sprintf("guest-%02d", i),
			Age:          28 + i%4,
			Gender:       gender,
			Budget:       "500_1000",
			Relationship: "single",
			Answers:      map[string]any{"dinner_vibe": vibes[i%len(vibes)]},
		})
	}
	return guests
}

func newTestService(t *testing.T, store *fakeStore) *service.Service {
	t.Helper()
	svc := service.New(
		service.WithStore(store),
		service.WithWorkerCount(1),
		service.WithQueueSize(8),
		service.WithTargetGroupSize(6),
		service.WithShuffleSeed(42),
	)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("starting service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestGenerateGroups(t *testing.T) {
	convey.Convey("Given a service with a seeded roster", t, func() {
		store := newFakeStore()
		ctx := context.Background()

		convey.Convey("When the roster has 12 guests and target size 6", func() {
			store.roster["ev1"] = testRoster(12)
			svc := newTestService(t, store)

			result, err := svc.GenerateGroups(ctx, "ev1", 6)

			convey.Convey("Then two full groups are formed and saved", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(result.Groups, convey.ShouldHaveLength, 2)
				convey.So(result.Groups[0].Size(), convey.ShouldEqual, 6)
				convey.So(result.Groups[1].Size(), convey.ShouldEqual, 6)
				convey.So(store.groups["ev1"], convey.ShouldHaveLength, 2)

				for _, g := range result.Groups {
					convey.So(g.ID, convey.ShouldNotBeEmpty)
					convey.So(g.EventID, convey.ShouldEqual, "ev1")
					convey.So(g.Name, convey.ShouldNotBeEmpty)
				}
			})
		})

		convey.Convey("When the roster has fewer than four guests", func() {
			store.roster["ev1"] = testRoster(3)
			svc := newTestService(t, store)

			result, err := svc.GenerateGroups(ctx, "ev1", 6)

			convey.Convey("Then no groups are formed and the run is postponed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(result.Groups, convey.ShouldBeEmpty)
				convey.So(result.Outcome, convey.ShouldEqual, matching.OutcomeTooFew)
			})
		})

		convey.Convey("When an avoid constraint exists", func() {
			store.roster["ev1"] = testRoster(8)
			store.constraints["ev1"] = []model.AvoidConstraint{
				{ParticipantA: "guest-00", ParticipantB: "guest-01"},
			}
			svc := newTestService(t, store)

			result, err := svc.GenerateGroups(ctx, "ev1", 6)

			convey.Convey("Then the pair never shares a group", func() {
				convey.So(err, convey.ShouldBeNil)
				for _, g := range result.Groups {
					together := g.Contains("guest-00") && g.Contains("guest-01")
					convey.So(together, convey.ShouldBeFalse)
				}
			})
		})
	})
}

func TestEnqueueRun(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		store := newFakeStore()
		store.roster["ev1"] = testRoster(12)
		svc := newTestService(t, store)
		ctx := context.Background()

		convey.Convey("When two runs for the same event are enqueued back to back", func() {
			runID, err := svc.EnqueueRun(ctx, model.MatchRequest{EventID: "ev1"})

			convey.Convey("Then the first is accepted and the second rejected", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(runID, convey.ShouldNotBeEmpty)

				_, err := svc.EnqueueRun(ctx, model.MatchRequest{EventID: "ev1"})
				convey.So(err, convey.ShouldWrap, service.ErrRunInFlight)
			})
		})

		convey.Convey("When runs target different events", func() {
			store.roster["ev2"] = testRoster(6)

			_, err1 := svc.EnqueueRun(ctx, model.MatchRequest{EventID: "ev1"})
			_, err2 := svc.EnqueueRun(ctx, model.MatchRequest{EventID: "ev2"})

			convey.Convey("Then both are accepted", func() {
				convey.So(err1, convey.ShouldBeNil)
				convey.So(err2, convey.ShouldBeNil)
			})
		})
	})
}

func TestDistribute(t *testing.T) {
	convey.Convey("Given an event with formed groups", t, func() {
		store := newFakeStore()
		store.roster["ev1"] = testRoster(12)
		svc := newTestService(t, store)
		ctx := context.Background()

		_, err := svc.GenerateGroups(ctx, "ev1", 6)
		convey.So(err, convey.ShouldBeNil)

		venues := []model.Venue{
			{ID: "v1", Name: "Trattoria Nonna", TotalCapacity: 10},
			{ID: "v2", Name: "Izakaya Ren", TotalCapacity: 8},
		}

		convey.Convey("When the groups are distributed", func() {
			plan, err := svc.Distribute(ctx, "ev1", venues)

			convey.Convey("Then every participant gets exactly one seat", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(plan.Tables, convey.ShouldHaveLength, 2)
				convey.So(plan.Assignments, convey.ShouldHaveLength, 12)
				convey.So(store.assignments["ev1"], convey.ShouldHaveLength, 12)
				convey.So(store.resets, convey.ShouldEqual, 1)

				seen := make(map[string]bool)
				for _, a := range store.assignments["ev1"] {
					convey.So(seen[a.ParticipantID], convey.ShouldBeFalse)
					seen[a.ParticipantID] = true
				}
			})
		})

		convey.Convey("When a participant vanished before writing", func() {
			store.missing["guest-03"] = true

			_, err := svc.Distribute(ctx, "ev1", venues)

			convey.Convey("Then the distribution succeeds without that seat", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(store.assignments["ev1"], convey.ShouldHaveLength, 11)
			})
		})

		convey.Convey("When total venue capacity is short", func() {
			_, err := svc.Distribute(ctx, "ev1", []model.Venue{
				{ID: "v1", Name: "Tiny Bar", TotalCapacity: 8},
			})

			convey.Convey("Then nothing is written", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(store.assignments["ev1"], convey.ShouldBeEmpty)
				convey.So(store.resets, convey.ShouldEqual, 0)
			})
		})
	})
}

func TestClearAssignments(t *testing.T) {
	convey.Convey("Given an event with groups and seats", t, func() {
		store := newFakeStore()
		store.roster["ev1"] = testRoster(6)
		svc := newTestService(t, store)
		ctx := context.Background()

		_, err := svc.GenerateGroups(ctx, "ev1", 6)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When assignments are cleared", func() {
			convey.So(svc.ClearAssignments(ctx, "ev1"), convey.ShouldBeNil)

			convey.Convey("Then the event state is gone and clearing again is fine", func() {
				groups, err := svc.Groups(ctx, "ev1")
				convey.So(err, convey.ShouldBeNil)
				convey.So(groups, convey.ShouldBeEmpty)

				convey.So(svc.ClearAssignments(ctx, "ev1"), convey.ShouldBeNil)
				convey.So(store.cleared, convey.ShouldEqual, 2)
			})
		})
	})
}

func TestRecomputeGroup(t *testing.T) {
	convey.Convey("Given a stored group whose membership changed", t, func() {
		store := newFakeStore()
		store.roster["ev1"] = testRoster(6)
		svc := newTestService(t, store)
		ctx := context.Background()

		result, err := svc.GenerateGroups(ctx, "ev1", 6)
		convey.So(err, convey.ShouldBeNil)
		convey.So(result.Groups, convey.ShouldHaveLength, 1)

		groupID := result.Groups[0].ID

		// Simulate an admin swap: drop one member behind the service's back.
		store.mu.Lock()
		g := store.groups["ev1"][0]
		g.Participants = g.Participants[:len(g.Participants)-1]
		store.groups["ev1"][0] = g
		store.mu.Unlock()

		convey.Convey("When the group is recomputed", func() {
			fresh, err := svc.RecomputeGroup(ctx, groupID)

			convey.Convey("Then derived fields reflect current membership", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(fresh.ID, convey.ShouldEqual, groupID)
				convey.So(fresh.Size(), convey.ShouldEqual, 5)
				convey.So(fresh.GenderDistribution.Male+fresh.GenderDistribution.Female+fresh.GenderDistribution.Other,
					convey.ShouldEqual, 5)
			})
		})
	})
}

func TestEditGroupMembers(t *testing.T) {
	convey.Convey("Given a stored group and an event roster", t, func() {
		store := newFakeStore()
		store.roster["ev1"] = testRoster(8)
		svc := newTestService(t, store)
		ctx := context.Background()

		result, err := svc.GenerateGroups(ctx, "ev1", 6)
		convey.So(err, convey.ShouldBeNil)
		convey.So(result.Groups, convey.ShouldHaveLength, 1)

		groupID := result.Groups[0].ID

		convey.Convey("When an admin swaps the membership", func() {
			ids := []string{"guest-00", "guest-01", "guest-02", "guest-03", "guest-04"}
			edited, err := svc.EditGroupMembers(ctx, groupID, ids)

			convey.Convey("Then the group carries exactly the new members, re-derived", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(edited.ID, convey.ShouldEqual, groupID)
				convey.So(edited.Size(), convey.ShouldEqual, 5)
				for i, p := range edited.Participants {
					convey.So(p.ID, convey.ShouldEqual, ids[i])
					convey.So(p.Category, convey.ShouldNotBeEmpty)
				}
				convey.So(edited.AverageAge, convey.ShouldBeGreaterThan, 0)

				stored, err := store.Group(ctx, groupID)
				convey.So(err, convey.ShouldBeNil)
				convey.So(stored.Size(), convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When a requested guest is not on the roster", func() {
			_, err := svc.EditGroupMembers(ctx, groupID, []string{"guest-00", "stranger"})

			convey.Convey("Then the edit is rejected and membership is untouched", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "not found")

				stored, err := store.Group(ctx, groupID)
				convey.So(err, convey.ShouldBeNil)
				convey.So(stored.Size(), convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When the group id is unknown", func() {
			_, err := svc.EditGroupMembers(ctx, "nope", []string{"guest-00"})
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}
