// Package personality maps assessment answers to category scores.
//
// Answers arrive as an untyped blob of key/value pairs. ParseAnswers
// normalizes that blob into a small tagged union of known question/answer
// pairs, with an explicit unknown variant for anything it does not
// recognize. Scoring then switches over the canonical forms instead of
// doing loose string comparisons, and unknown answers contribute nothing.
package personality

import (
	"sort"
	"strconv"
	"strings"
)

// Question identifies one canonical assessment question.
type Question int

// Canonical questions. Everything unrecognized parses to QuestionUnknown.
const (
	QuestionUnknown Question = iota
	QuestionDinnerVibe
	QuestionTalkTopic
	QuestionGroupDynamic
	QuestionAdventureScale
	QuestionSocialScale
	QuestionStructureScale
)

// Choice is the canonical selected option of a choice question.
type Choice int

// Canonical choices across all choice questions.
const (
	ChoiceUnknown Choice = iota

	// Dinner vibe.
	ChoiceAdventurous
	ChoiceLively
	ChoiceDeep
	ChoiceStructured
	ChoiceEasygoing

	// Talk topic.
	ChoiceTravel
	ChoiceStories
	ChoiceIdeas
	ChoiceGoals
	ChoiceAnything

	// Group dynamic.
	ChoiceLeader
	ChoiceEntertainer
	ChoiceListener
	ChoiceOrganizer
	ChoiceFloater
)

// Band buckets a 1-5 scale answer.
type Band int

// Scale bands: 1-2 low, 3 mid, 4-5 high.
const (
	BandNone Band = iota
	BandLow
	BandMid
	BandHigh
)

// Answer is one normalized question/answer pair. Choice questions populate
// Choice; scale questions populate Band. Key and Raw keep the original
// input so unknown answers stay inspectable.
type Answer struct {
	Question Question
	Choice   Choice
	Band     Band
	Key      string
	Raw      string
}

// questionKeys maps both machine-short codes and legacy human-readable keys
// onto canonical questions. Matching is case-insensitive on the trimmed key.
var questionKeys = map[string]Question{
	"dinner_vibe":                 QuestionDinnerVibe,
	"ideal_dinner_vibe":           QuestionDinnerVibe,
	"talk_topic":                  QuestionTalkTopic,
	"favorite_talk_topic":         QuestionTalkTopic,
	"group_dynamic":               QuestionGroupDynamic,
	"role_in_group":               QuestionGroupDynamic,
	"adventure_scale":             QuestionAdventureScale,
	"openness_to_new_experiences": QuestionAdventureScale,
	"social_scale":                QuestionSocialScale,
	"social_energy":               QuestionSocialScale,
	"structure_scale":             QuestionStructureScale,
	"planning_preference":         QuestionStructureScale,
}

// choiceValues maps machine codes and legacy option labels onto canonical
// choices. Two synonym sets feeding one bucket keeps old client payloads
// scoring identically to new ones.
var choiceValues = map[Question]map[string]Choice{
	QuestionDinnerVibe: {
		"adventurous":        ChoiceAdventurous,
		"bold & adventurous": ChoiceAdventurous,
		"lively":             ChoiceLively,
		"fun & lively":       ChoiceLively,
		"deep":               ChoiceDeep,
		"deep & meaningful":  ChoiceDeep,
		"structured":         ChoiceStructured,
		"well planned":       ChoiceStructured,
		"easygoing":          ChoiceEasygoing,
		"go with the flow":   ChoiceEasygoing,
	},
	QuestionTalkTopic: {
		"travel":                ChoiceTravel,
		"travel & adventure":    ChoiceTravel,
		"stories":               ChoiceStories,
		"people & stories":      ChoiceStories,
		"ideas":                 ChoiceIdeas,
		"ideas & big questions": ChoiceIdeas,
		"goals":                 ChoiceGoals,
		"goals & plans":         ChoiceGoals,
		"anything":              ChoiceAnything,
		"anything goes":         ChoiceAnything,
	},
	QuestionGroupDynamic: {
		"leader":                  ChoiceLeader,
		"taking the lead":         ChoiceLeader,
		"entertainer":             ChoiceEntertainer,
		"keeping things fun":      ChoiceEntertainer,
		"listener":                ChoiceListener,
		"listening & reflecting":  ChoiceListener,
		"organizer":               ChoiceOrganizer,
		"keeping things on track": ChoiceOrganizer,
		"floater":                 ChoiceFloater,
		"going with the vibe":     ChoiceFloater,
	},
}

// ParseAnswers normalizes a raw answer blob. Keys are visited in sorted
// order so the result is deterministic regardless of map iteration. Missing
// or unrecognized entries never produce an error; they come back as
// QuestionUnknown answers that score nothing.
func ParseAnswers(raw map[string]any) []Answer {
	if len(raw) == 0 {
		return nil
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	answers := make([]Answer, 0, len(keys))
	for _, key := range keys {
		answers = append(answers, parseOne(key, raw[key]))
	}
	return answers
}

func parseOne(key string, value any) Answer {
	a := Answer{Key: key, Raw: rawString(value)}

	q, ok := questionKeys[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return a // QuestionUnknown
	}
	a.Question = q

	switch q {
	case QuestionAdventureScale, QuestionSocialScale, QuestionStructureScale:
		a.Band = bandOf(value)
		if a.Band == BandNone {
			a.Question = QuestionUnknown
		}
	default:
		a.Choice = choiceOf(q, value)
		if a.Choice == ChoiceUnknown {
			a.Question = QuestionUnknown
		}
	}
	return a
}

func choiceOf(q Question, value any) Choice {
	s, ok := value.(string)
	if !ok {
		return ChoiceUnknown
	}
	c, ok := choiceValues[q][strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return ChoiceUnknown
	}
	return c
}

// bandOf buckets a 1-5 scale value. Accepts ints, floats, and numeric
// strings since upstream serialization is inconsistent about number types.
func bandOf(value any) Band {
	var n int
	switch v := value.(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return BandNone
		}
		n = parsed
	default:
		return BandNone
	}

	switch {
	case n >= 1 && n <= 2:
		return BandLow
	case n == 3:
		return BandMid
	case n >= 4 && n <= 5:
		return BandHigh
	default:
		return BandNone
	}
}

func rawString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
