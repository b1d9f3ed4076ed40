package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dinerly/tablematch/internal/adapters/repository"
	"github.com/dinerly/tablematch/internal/domain/model"
)

func newTestStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func guest(id string, age int, gender string) model.GuestRecord {
	return model.GuestRecord{
		ID:           id,
		Age:          age,
		Gender:       gender,
		Budget:       "500_1000",
		Relationship: "single",
		Answers:      map[string]any{"dinner_vibe": "adventurous"},
	}
}

func TestRosterPrefersPairingGuests(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertPairingGuest(ctx, "ev1", guest("g1", 30, model.GenderFemale)))
	require.NoError(t, store.InsertBookedGuest(ctx, "b1", "ev1", guest("g9", 41, model.GenderMale)))

	roster, err := store.Roster(ctx, "ev1")
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "g1", roster[0].ID)
	assert.Equal(t, 30, roster[0].Age)
	assert.Equal(t, "adventurous", roster[0].Answers["dinner_vibe"])
}

func TestRosterFallsBackToBookings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertBookedGuest(ctx, "b1", "ev1", guest("g1", 28, model.GenderMale)))
	require.NoError(t, store.InsertBookedGuest(ctx, "b2", "ev1", guest("g2", 33, model.GenderFemale)))
	// Another event's booking must not leak in.
	require.NoError(t, store.InsertBookedGuest(ctx, "b3", "ev2", guest("g3", 50, model.GenderMale)))

	roster, err := store.Roster(ctx, "ev1")
	require.NoError(t, err)
	require.Len(t, roster, 2)
	assert.Equal(t, "g1", roster[0].ID)
	assert.Equal(t, "g2", roster[1].ID)
}

func TestAvoidConstraintsIncludeGlobal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertAvoidConstraint(ctx, "ev1", model.AvoidConstraint{ParticipantA: "a", ParticipantB: "b"}))
	require.NoError(t, store.InsertAvoidConstraint(ctx, "", model.AvoidConstraint{ParticipantA: "c", ParticipantB: "d"}))
	require.NoError(t, store.InsertAvoidConstraint(ctx, "ev2", model.AvoidConstraint{ParticipantA: "e", ParticipantB: "f"}))

	constraints, err := store.AvoidConstraints(ctx, "ev1")
	require.NoError(t, err)
	require.Len(t, constraints, 2)
	assert.Equal(t, "a", constraints[0].ParticipantA)
	assert.Equal(t, "c", constraints[1].ParticipantA)
}

func TestSaveGroupsReplacesExisting(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := model.Group{
		ID: "grp1", EventID: "ev1", Name: "Group 1",
		Participants: []model.Participant{
			{ID: "g1", Category: model.Trailblazers, Age: 30, Gender: model.GenderFemale, BudgetBand: "500_1000"},
			{ID: "g2", Category: model.Storytellers, Age: 32, Gender: model.GenderMale, BudgetBand: "500_1000"},
		},
		CategoryDistribution: map[model.Category]int{model.Trailblazers: 1, model.Storytellers: 1},
		GenderDistribution:   model.GenderCount{Male: 1, Female: 1},
		AverageAge:           31,
		DominantBudgetBand:   "500_1000",
		CompatibilityScore:   20,
	}
	require.NoError(t, store.SaveGroups(ctx, "ev1", []model.Group{first}))

	second := first
	second.ID = "grp2"
	second.Name = "Group A"
	require.NoError(t, store.SaveGroups(ctx, "ev1", []model.Group{second}))

	groups, err := store.Groups(ctx, "ev1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "grp2", groups[0].ID)
	require.Len(t, groups[0].Participants, 2)
	assert.Equal(t, model.Trailblazers, groups[0].Participants[0].Category)
	assert.Equal(t, 1, groups[0].CategoryDistribution[model.Storytellers])
	assert.Equal(t, 1, groups[0].GenderDistribution.Female)
}

func TestReplaceGroupMembers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	g := model.Group{
		ID: "grp1", EventID: "ev1", Name: "Group 1",
		Participants: []model.Participant{
			{ID: "g1", Category: model.Trailblazers, Age: 30, Gender: model.GenderFemale, BudgetBand: "500_1000"},
			{ID: "g2", Category: model.Storytellers, Age: 32, Gender: model.GenderMale, BudgetBand: "500_1000"},
		},
		CategoryDistribution: map[model.Category]int{model.Trailblazers: 1, model.Storytellers: 1},
		GenderDistribution:   model.GenderCount{Male: 1, Female: 1},
		DominantBudgetBand:   "500_1000",
	}
	require.NoError(t, store.SaveGroups(ctx, "ev1", []model.Group{g}))

	replacement := []model.Participant{
		{ID: "g3", Category: model.Philosophers, Age: 35, Gender: model.GenderMale, BudgetBand: "over_1500"},
		{ID: "g4", Category: model.Planners, Age: 34, Gender: model.GenderFemale, BudgetBand: "over_1500"},
		{ID: "g5", Category: model.FreeSpirits, Age: 36, Gender: model.GenderMale, BudgetBand: "over_1500"},
	}
	require.NoError(t, store.ReplaceGroupMembers(ctx, "grp1", replacement))

	stored, err := store.Group(ctx, "grp1")
	require.NoError(t, err)
	require.Len(t, stored.Participants, 3)
	assert.Equal(t, "g3", stored.Participants[0].ID)
	assert.Equal(t, model.Planners, stored.Participants[1].Category)
	assert.Equal(t, "over_1500", stored.Participants[2].BudgetBand)

	err = store.ReplaceGroupMembers(ctx, "missing", replacement)
	assert.ErrorIs(t, err, repository.ErrGroupNotFound)
}

func TestGroupNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Group(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrGroupNotFound)
}

func TestUpdateGroupMetrics(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	g := model.Group{
		ID: "grp1", EventID: "ev1", Name: "Group 1",
		CategoryDistribution: map[model.Category]int{},
		DominantBudgetBand:   "unknown",
	}
	require.NoError(t, store.SaveGroups(ctx, "ev1", []model.Group{g}))

	g.AverageAge = 29
	g.DominantBudgetBand = "over_1500"
	g.CompatibilityScore = 15
	require.NoError(t, store.UpdateGroupMetrics(ctx, g))

	got, err := store.Group(ctx, "grp1")
	require.NoError(t, err)
	assert.Equal(t, 29, got.AverageAge)
	assert.Equal(t, "over_1500", got.DominantBudgetBand)
	assert.Equal(t, 15, got.CompatibilityScore)

	g.ID = "missing"
	assert.ErrorIs(t, store.UpdateGroupMetrics(ctx, g), repository.ErrGroupNotFound)
}

func TestClearEventIsTransactionalAndIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertPairingGuest(ctx, "ev1", guest("g1", 30, model.GenderFemale)))
	g := model.Group{
		ID: "grp1", EventID: "ev1", Name: "Group 1",
		Participants:         []model.Participant{{ID: "g1", Category: model.Planners}},
		CategoryDistribution: map[model.Category]int{model.Planners: 1},
		DominantBudgetBand:   "unknown",
	}
	require.NoError(t, store.SaveGroups(ctx, "ev1", []model.Group{g}))
	require.NoError(t, store.SaveVenue(ctx, model.Venue{ID: "v1", Name: "Trattoria", TotalCapacity: 10}))
	require.NoError(t, store.SaveTable(ctx, model.Table{ID: "t1", VenueID: "v1", GroupID: "grp1", Capacity: 6}))
	require.NoError(t, store.SaveAssignments(ctx, "ev1", []model.SeatAssignment{
		{ParticipantID: "g1", VenueID: "v1", TableID: "t1", SeatNumber: 1},
	}))

	require.NoError(t, store.ClearEvent(ctx, "ev1"))

	groups, err := store.Groups(ctx, "ev1")
	require.NoError(t, err)
	assert.Empty(t, groups)

	// Clearing again with nothing left must succeed.
	require.NoError(t, store.ClearEvent(ctx, "ev1"))

	// The roster survives a clear.
	roster, err := store.Roster(ctx, "ev1")
	require.NoError(t, err)
	assert.Len(t, roster, 1)
}

func TestParticipantExists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertPairingGuest(ctx, "ev1", guest("g1", 30, model.GenderMale)))
	require.NoError(t, store.InsertBookedGuest(ctx, "b1", "ev1", guest("g2", 35, model.GenderFemale)))

	ok, err := store.ParticipantExists(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ParticipantExists(ctx, "g2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.ParticipantExists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}
