package seating

import "errors"

// Sentinel kinds for distribution errors. Both are precondition violations
// reported before any assignment is produced.
var (
	ErrNoVenues             = errors.New("no venues supplied")
	ErrInsufficientCapacity = errors.New("insufficient venue capacity")
)
