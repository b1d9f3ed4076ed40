package testruns

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"

	"github.com/dinerly/tablematch/pkg/logger"
)

// Constants for random number generation.
const (
	personaDivisor = 8
	percentDivisor = 100
)

// Constants for demographic generation ranges.
const (
	adultAgeMin  = 21
	adultAgeSpan = 24 // ages land in 21..45
	ageGapJitter = 4  // clusters one event's ages within a narrow window
)

// Constants for persona cases.
const (
	caseAdventurer  = 0
	caseStoryteller = 1
	casePhilosopher = 2
	casePlanner     = 3
	caseFreeSpirit  = 4
	caseLegacyForm  = 5
	caseSparse      = 6
	caseMixed       = 7
)

// Avoid-pair density: roughly one request per this many guests.
const avoidPairDivisor = 12

// GuestSeed is one synthetic guest, both seeded into the database and saved
// to the output file for reproducing a run.
type GuestSeed struct {
	ID           string         `json:"id"`
	EventID      string         `json:"event_id"`
	Age          int            `json:"age"`
	Gender       string         `json:"gender"`
	Budget       string         `json:"budget"`
	Relationship string         `json:"relationship"`
	Answers      map[string]any `json:"answers"`
}

// AvoidPair is one synthetic do-not-seat-together request.
type AvoidPair struct {
	EventID      string `json:"event_id"`
	ParticipantA string `json:"participant_a"`
	ParticipantB string `json:"participant_b"`
}

// EventRoster is everything generated for one simulated dinner event.
type EventRoster struct {
	EventID    string      `json:"event_id"`
	Guests     []GuestSeed `json:"guests"`
	AvoidPairs []AvoidPair `json:"avoid_pairs"`
}

// randomInt returns a random int in [0, max) using crypto/rand.
func randomInt(max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max)))
	return int(n.Int64())
}

func pickString(options ...string) string {
	return options[randomInt(len(options))]
}

// generateRosters creates one roster per simulated event.
func generateRosters(ctx context.Context, config *Config, stats *Stats) ([]EventRoster, error) {
	logger.Get().Info(ctx, "generating event rosters",
		logger.Int("events", config.NumEvents),
		logger.Int("guestsPerEvent", config.NumGuests))

	rosters := make([]EventRoster, config.NumEvents)
	for i := range rosters {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		rosters[i] = generateRoster(config.NumGuests)
		stats.GuestsGenerated += len(rosters[i].Guests)
	}

	logger.Get().Info(ctx, "generated rosters successfully",
		logger.Int("guests", stats.GuestsGenerated))
	return rosters, nil
}

// generateRoster builds one event's guests around a shared age cluster, so
// most pairs fall inside the acceptable age window and the strict pass has a
// real chance of succeeding.
func generateRoster(numGuests int) EventRoster {
	roster := EventRoster{
		EventID: "sim_" + uuid.NewString(),
		Guests:  make([]GuestSeed, numGuests),
	}

	baseAge := adultAgeMin + randomInt(adultAgeSpan)
	for i := range roster.Guests {
		roster.Guests[i] = generateGuest(roster.EventID, i, baseAge)
	}

	// Sprinkle a few avoid requests between distinct guests.
	for i := 0; i < numGuests/avoidPairDivisor; i++ {
		a := randomInt(numGuests)
		b := randomInt(numGuests)
		if a == b {
			continue
		}
		roster.AvoidPairs = append(roster.AvoidPairs, AvoidPair{
			EventID:      roster.EventID,
			ParticipantA: roster.Guests[a].ID,
			ParticipantB: roster.Guests[b].ID,
		})
	}
	return roster
}

// generateGuest creates a single guest with a varied persona distribution.
func generateGuest(eventID string, index, baseAge int) GuestSeed {
	guest := GuestSeed{
		ID:           uuid.NewString(),
		EventID:      eventID,
		Age:          baseAge + randomInt(ageGapJitter+1),
		Gender:       generateGender(index),
		Budget:       generateBudget(),
		Relationship: pickString("single", "single", "married", "dating", "divorced"),
	}

	switch randomInt(personaDivisor) {
	case caseAdventurer:
		guest.Answers = map[string]any{
			"dinner_vibe":     "adventurous",
			"talk_topic":      "travel",
			"group_dynamic":   "leader",
			"adventure_scale": 9,
			"social_scale":    8,
			"structure_scale": 3,
		}
	case caseStoryteller:
		guest.Answers = map[string]any{
			"dinner_vibe":     "lively",
			"talk_topic":      "stories",
			"group_dynamic":   "entertainer",
			"adventure_scale": 6,
			"social_scale":    9,
			"structure_scale": 4,
		}
	case casePhilosopher:
		guest.Answers = map[string]any{
			"dinner_vibe":     "deep",
			"talk_topic":      "ideas",
			"group_dynamic":   "listener",
			"adventure_scale": 4,
			"social_scale":    3,
			"structure_scale": 6,
		}
	case casePlanner:
		guest.Answers = map[string]any{
			"dinner_vibe":     "structured",
			"talk_topic":      "goals",
			"group_dynamic":   "organizer",
			"adventure_scale": 3,
			"social_scale":    5,
			"structure_scale": 9,
		}
	case caseFreeSpirit:
		guest.Answers = map[string]any{
			"dinner_vibe":     "easygoing",
			"talk_topic":      "anything",
			"group_dynamic":   "floater",
			"adventure_scale": 7,
			"social_scale":    6,
			"structure_scale": 2,
		}
	case caseLegacyForm:
		// Legacy question keys and long-form choices still in circulation.
		guest.Answers = map[string]any{
			"ideal_dinner_vibe":           pickString("bold & adventurous", "fun & lively", "deep & meaningful"),
			"favorite_talk_topic":         pickString("travel & adventure", "people & stories", "ideas & big questions"),
			"role_in_group":               pickString("taking the lead", "keeping things fun", "listening & reflecting"),
			"openness_to_new_experiences": "8",
		}
	case caseSparse:
		// Unknown demographics and a thin assessment; the engine must not
		// choke on missing data.
		guest.Age = 0
		guest.Budget = ""
		guest.Relationship = ""
		if randomInt(2) == 0 {
			guest.Answers = map[string]any{"dinner_vibe": "easygoing"}
		}
	case caseMixed:
		guest.Answers = map[string]any{
			"dinner_vibe":     pickString("adventurous", "lively", "deep", "structured", "easygoing"),
			"talk_topic":      pickString("travel", "stories", "ideas", "goals", "anything"),
			"group_dynamic":   pickString("leader", "entertainer", "listener", "organizer", "floater"),
			"adventure_scale": 1 + randomInt(10),
			"social_scale":    1 + randomInt(10),
			"structure_scale": 1 + randomInt(10),
		}
	}
	return guest
}

// generateGender alternates for a roughly even split, with an occasional
// non-binary or undisclosed guest.
func generateGender(index int) string {
	switch randomInt(percentDivisor) {
	case 0, 1, 2:
		return "non_binary"
	case 3:
		return ""
	}
	if index%2 == 0 {
		return "female"
	}
	return "male"
}

// generateBudget mixes banded values, raw numbers, and legacy free-form
// answers the way real intake data does.
func generateBudget() string {
	switch randomInt(personaDivisor) {
	case 0, 1, 2:
		return "500_1000"
	case 3:
		return "under_500"
	case 4:
		return "1000_1500"
	case 5:
		return pickString("750", "1200", "400")
	case 6:
		return pickString("1500+", "more than 1500")
	default:
		return "500-1000"
	}
}
