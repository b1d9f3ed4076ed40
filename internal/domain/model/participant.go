// Package model contains domain models passed between layers.
package model

// Known gender labels. Anything else (including empty) counts as Other for
// distribution purposes and is ignored by the balance rules.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Participant is one event guest as seen by the matching pipeline. Built once
// per run from a GuestRecord and immutable for the duration of that run.
type Participant struct {
	ID             string
	Category       Category
	CategoryScores map[Category]float64

	// Demographic fields used by the compatibility rules. Zero values mean
	// unknown and never block pairing.
	Age          int
	Gender       string
	BudgetBand   string // normalized band, see compat.NormalizeBudget
	Relationship string

	// RawAnswers keeps the original assessment blob for audit and re-scoring.
	RawAnswers map[string]any
}

// GuestRecord is the raw roster row fetched from the store before scoring.
// Answers is nil when the guest never completed an assessment; such guests
// become default participants.
type GuestRecord struct {
	ID           string
	Age          int
	Gender       string
	Budget       string // raw budget input, numeric or free-form
	Relationship string
	Answers      map[string]any
}

// AvoidConstraint is a hard rule that two guests must never share a group.
// It is never relaxed, in strict or lenient mode.
type AvoidConstraint struct {
	ParticipantA string
	ParticipantB string
}

// MatchRequest is one queued "generate groups for event X" job.
type MatchRequest struct {
	RunID      string
	EventID    string
	TargetSize int

	// Distribute, when set, chains venue distribution onto a successful
	// formation using Venues.
	Distribute bool
	Venues     []Venue
}
