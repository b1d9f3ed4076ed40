package testruns

import "time"

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusAccepted = 202
	StatusConflict = 409
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	GroupPollInterval    = 500 * time.Millisecond
	GroupPollDeadline    = 2 * time.Minute
	PercentageMultiplier = 100
)
