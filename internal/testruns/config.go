package testruns

import "time"

// Config holds configuration for the matching smoke test
type Config struct {
	BaseURL    string        // Base URL of the service
	DBPath     string        // Path to the service's sqlite database
	NumEvents  int           // Number of dinner events to simulate
	NumGuests  int           // Number of guests per event
	TargetSize int           // Target group size submitted with each run
	Workers    int           // Number of concurrent workers
	Timeout    time.Duration // HTTP request timeout
	Distribute bool          // Request venue distribution with each run
	OutputFile string        // Output file for generated rosters
	LogFile    string        // Log file for test output
	Verbose    bool          // Enable verbose logging
}

// RunRequest mirrors the POST /match-runs request schema
type RunRequest struct {
	EventID    string         `json:"event_id"`
	TargetSize int            `json:"target_size,omitempty"`
	Distribute bool           `json:"distribute,omitempty"`
	Venues     []VenuePayload `json:"venues,omitempty"`
}

// VenuePayload mirrors the venue schema accepted by the service
type VenuePayload struct {
	Name          string `json:"name"`
	TotalCapacity int    `json:"total_capacity"`
}

// RunAck represents the response from run submission
type RunAck struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// GroupView mirrors the group schema returned by the service
type GroupView struct {
	ID                 string   `json:"id"`
	EventID            string   `json:"event_id"`
	Name               string   `json:"name"`
	Size               int      `json:"size"`
	ParticipantIDs     []string `json:"participant_ids"`
	GenderDistribution struct {
		Male   int `json:"male"`
		Female int `json:"female"`
		Other  int `json:"other"`
	} `json:"gender_distribution"`
	AverageAge         int    `json:"average_age"`
	DominantBudgetBand string `json:"dominant_budget_band"`
	CompatibilityScore int    `json:"compatibility_score"`
}

// Stats holds test statistics
type Stats struct {
	GuestsGenerated int
	RunsSubmitted   int
	RunsAccepted    int
	RunsRejected    int
	RunsFailed      int
	EventsVerified  int
	GroupsFormed    int
	GuestsPlaced    int
	LawViolations   int
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
