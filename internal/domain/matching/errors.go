package matching

import "errors"

// Sentinel kinds for formation errors. Expected outcomes (too few guests,
// strict-mode fallback) are NOT errors; they surface on Result.Outcome.
var (
	ErrMalformedRoster          = errors.New("malformed roster")
	ErrInvalidTargetSize        = errors.New("invalid target group size")
	ErrUnsatisfiableConstraints = errors.New("avoid constraints unsatisfiable")
)
