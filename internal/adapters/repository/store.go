// Package repository defines the event store interface and errors.
package repository

import (
	"context"

	"github.com/dinerly/tablematch/internal/domain/model"
)

// Store provides read/write access to event rosters, constraints, groups,
// and seating state.
type Store interface {
	// Roster returns the guests to match for an event. Dedicated pairing
	// guest records win; when an event has none, the roster derives from
	// confirmed bookings joined with profile and assessment data. Guests
	// with no personality answers come back with nil Answers.
	Roster(ctx context.Context, eventID string) ([]model.GuestRecord, error)

	// AvoidConstraints returns the avoid-pairs applicable to an event:
	// event-scoped rows plus global ones.
	AvoidConstraints(ctx context.Context, eventID string) ([]model.AvoidConstraint, error)

	// ParticipantExists reports whether a guest still exists at write time.
	ParticipantExists(ctx context.Context, participantID string) (bool, error)

	// SaveGroups replaces the stored groups for an event with the given
	// set, in one transaction.
	SaveGroups(ctx context.Context, eventID string, groups []model.Group) error

	// Groups returns the stored groups for an event, members included.
	Groups(ctx context.Context, eventID string) ([]model.Group, error)

	// Group returns one stored group by id, or ErrGroupNotFound.
	Group(ctx context.Context, groupID string) (model.Group, error)

	// UpdateGroupMetrics rewrites one group's derived fields after a
	// recompute.
	UpdateGroupMetrics(ctx context.Context, g model.Group) error

	// ReplaceGroupMembers swaps one group's membership for the given
	// participants, in one transaction. ErrGroupNotFound when the group
	// does not exist.
	ReplaceGroupMembers(ctx context.Context, groupID string, members []model.Participant) error

	// SaveVenue inserts or updates a venue record.
	SaveVenue(ctx context.Context, v model.Venue) error

	// SaveTable inserts a table record.
	SaveTable(ctx context.Context, t model.Table) error

	// SaveAssignments writes seat assignments for an event.
	SaveAssignments(ctx context.Context, eventID string, assignments []model.SeatAssignment) error

	// ResetNotificationFlags clears the pairing-notification-seen flag for
	// every guest of the event, so a re-run re-notifies them.
	ResetNotificationFlags(ctx context.Context, eventID string) error

	// ClearEvent wipes tables, assignments, venue links, notification
	// flags, and stored groups for an event in a single transaction.
	// Clearing an event with nothing to clear is a no-op, not an error.
	ClearEvent(ctx context.Context, eventID string) error

	// Close releases the underlying database handle.
	Close() error
}
