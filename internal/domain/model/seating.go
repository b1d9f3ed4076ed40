package model

// Venue is a physical dining location. An empty ID means "create new"; a
// populated ID means the caller wants an existing venue reused.
type Venue struct {
	ID            string
	Name          string
	Address       string
	TotalCapacity int
	ContactInfo   string
}

// Table is one table created at a venue for exactly one group.
type Table struct {
	ID       string
	VenueID  string
	GroupID  string
	Capacity int
}

// SeatAssignment is the only artifact of a matching run that must survive it:
// one concrete seat for one participant.
type SeatAssignment struct {
	ParticipantID string
	VenueID       string
	TableID       string
	SeatNumber    int
}
