package personality

import (
	"github.com/dinerly/tablematch/internal/domain/model"
)

// defaultScore is the nominal score a guest with no assessment data gets in
// the catch-all category, keeping downstream math away from all-zero vectors.
const defaultScore = 1

// Scores is a full category score vector. Every category is always present.
type Scores map[model.Category]float64

// delta is one scoring contribution: points toward a single category.
type delta struct {
	category model.Category
	points   float64
}

// choiceDeltas is the static weight table for choice questions. The dinner
// vibe question carries roughly 3x the weight of a single scale question;
// talk topic and group dynamic carry roughly 2x. Secondary contributions
// capture option overlap between neighboring temperaments.
var choiceDeltas = map[Choice][]delta{
	ChoiceAdventurous: {{model.Trailblazers, 3}, {model.FreeSpirits, 1}},
	ChoiceLively:      {{model.Storytellers, 3}, {model.Trailblazers, 1}},
	ChoiceDeep:        {{model.Philosophers, 3}},
	ChoiceStructured:  {{model.Planners, 3}},
	ChoiceEasygoing:   {{model.FreeSpirits, 3}},

	ChoiceTravel:   {{model.Trailblazers, 2}},
	ChoiceStories:  {{model.Storytellers, 2}},
	ChoiceIdeas:    {{model.Philosophers, 2}},
	ChoiceGoals:    {{model.Planners, 2}},
	ChoiceAnything: {{model.FreeSpirits, 2}},

	ChoiceLeader:      {{model.Trailblazers, 2}},
	ChoiceEntertainer: {{model.Storytellers, 2}},
	ChoiceListener:    {{model.Philosophers, 2}},
	ChoiceOrganizer:   {{model.Planners, 2}},
	ChoiceFloater:     {{model.FreeSpirits, 2}},
}

// scaleDeltas awards each scale band of each scale question to a category.
var scaleDeltas = map[Question]map[Band][]delta{
	QuestionAdventureScale: {
		BandLow:  {{model.Planners, 1}},
		BandMid:  {{model.FreeSpirits, 1}},
		BandHigh: {{model.Trailblazers, 1}},
	},
	QuestionSocialScale: {
		BandLow:  {{model.Philosophers, 1}},
		BandMid:  {{model.FreeSpirits, 1}},
		BandHigh: {{model.Storytellers, 1}},
	},
	QuestionStructureScale: {
		BandLow:  {{model.FreeSpirits, 1}},
		BandMid:  {{model.Storytellers, 1}},
		BandHigh: {{model.Planners, 1}},
	},
}

// ZeroScores returns a score vector with every category at zero.
func ZeroScores() Scores {
	s := make(Scores, len(model.Categories()))
	for _, c := range model.Categories() {
		s[c] = 0
	}
	return s
}

// DefaultScores is the vector for a guest with no assessment data: all zero
// except a nominal point in the platform's neutral catch-all category.
func DefaultScores() Scores {
	s := ZeroScores()
	s[model.FreeSpirits] = defaultScore
	return s
}

// ScoreAnswers computes the category score vector for a set of parsed
// answers. Unknown answers contribute nothing; the function never fails.
func ScoreAnswers(answers []Answer) Scores {
	s := ZeroScores()
	for _, a := range answers {
		switch a.Question {
		case QuestionUnknown:
			// Unrecognized or missing data scores nothing.
		case QuestionDinnerVibe, QuestionTalkTopic, QuestionGroupDynamic:
			for _, d := range choiceDeltas[a.Choice] {
				s[d.category] += d.points
			}
		case QuestionAdventureScale, QuestionSocialScale, QuestionStructureScale:
			for _, d := range scaleDeltas[a.Question][a.Band] {
				s[d.category] += d.points
			}
		}
	}
	return s
}

// Categorize returns the arg-max category of a score vector. Ties resolve to
// the earliest category in the fixed enumeration order, which makes the
// result reproducible across runs.
func Categorize(s Scores) model.Category {
	best := model.Categories()[0]
	bestScore := s[best]
	for _, c := range model.Categories()[1:] {
		if s[c] > bestScore {
			best = c
			bestScore = s[c]
		}
	}
	return best
}

// ScoreGuest is the one-call path from a raw answer blob to a scored,
// categorized vector. A guest with no data at all gets the default vector.
func ScoreGuest(raw map[string]any) (Scores, model.Category) {
	if len(raw) == 0 {
		s := DefaultScores()
		return s, Categorize(s)
	}
	s := ScoreAnswers(ParseAnswers(raw))
	return s, Categorize(s)
}
