package personality_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/dinerly/tablematch/internal/domain/model"
	"github.com/dinerly/tablematch/internal/domain/personality"
)

func TestParseAnswers(t *testing.T) {
	convey.Convey("Given a raw answer blob", t, func() {
		convey.Convey("When it mixes machine codes and legacy keys", func() {
			answers := personality.ParseAnswers(map[string]any{
				"dinner_vibe":                 "adventurous",
				"openness_to_new_experiences": 5,
				"favorite_talk_topic":         "Ideas & Big Questions",
			})

			convey.Convey("Then every entry normalizes to a canonical question", func() {
				convey.So(answers, convey.ShouldHaveLength, 3)
				for _, a := range answers {
					convey.So(a.Question, convey.ShouldNotEqual, personality.QuestionUnknown)
				}
			})
		})

		convey.Convey("When values use every numeric encoding", func() {
			for _, value := range []any{4, int64(4), 4.0, "4"} {
				answers := personality.ParseAnswers(map[string]any{"social_scale": value})
				convey.So(answers, convey.ShouldHaveLength, 1)
				convey.So(answers[0].Band, convey.ShouldEqual, personality.BandHigh)
			}
		})

		convey.Convey("When an entry is unrecognized", func() {
			answers := personality.ParseAnswers(map[string]any{
				"favorite_color": "blue",
				"dinner_vibe":    "cosmic",
				"social_scale":   9,
			})

			convey.Convey("Then it parses to the unknown question", func() {
				convey.So(answers, convey.ShouldHaveLength, 3)
				for _, a := range answers {
					convey.So(a.Question, convey.ShouldEqual, personality.QuestionUnknown)
				}
			})
		})

		convey.Convey("When the blob is empty", func() {
			convey.So(personality.ParseAnswers(nil), convey.ShouldBeNil)
			convey.So(personality.ParseAnswers(map[string]any{}), convey.ShouldBeNil)
		})
	})
}

func TestScoreGuest(t *testing.T) {
	convey.Convey("Given guest assessment data", t, func() {
		convey.Convey("When the guest leans adventurous across the board", func() {
			scores, category := personality.ScoreGuest(map[string]any{
				"dinner_vibe":     "adventurous",
				"talk_topic":      "travel",
				"group_dynamic":   "leader",
				"adventure_scale": 5,
			})

			convey.Convey("Then Trailblazers wins", func() {
				convey.So(category, convey.ShouldEqual, model.Trailblazers)
				convey.So(scores[model.Trailblazers], convey.ShouldEqual, 8)
				convey.So(scores[model.FreeSpirits], convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the guest prefers depth and quiet", func() {
			scores, category := personality.ScoreGuest(map[string]any{
				"dinner_vibe":   "deep & meaningful",
				"talk_topic":    "ideas & big questions",
				"group_dynamic": "listening & reflecting",
				"social_energy": 1,
			})

			convey.Convey("Then Philosophers wins on legacy labels too", func() {
				convey.So(category, convey.ShouldEqual, model.Philosophers)
				convey.So(scores[model.Philosophers], convey.ShouldEqual, 8)
			})
		})

		convey.Convey("When the guest has no assessment data", func() {
			scores, category := personality.ScoreGuest(nil)

			convey.Convey("Then the default vector lands in Free Spirits", func() {
				convey.So(category, convey.ShouldEqual, model.FreeSpirits)
				convey.So(scores[model.FreeSpirits], convey.ShouldEqual, 1)
				convey.So(scores[model.Trailblazers], convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When every answer is unrecognized", func() {
			_, category := personality.ScoreGuest(map[string]any{
				"favorite_color": "blue",
			})

			convey.Convey("Then the all-zero tie resolves to the first category in order", func() {
				convey.So(category, convey.ShouldEqual, model.Trailblazers)
			})
		})

		convey.Convey("When two categories tie on points", func() {
			// Storytellers and Planners both land 2 points.
			scores, category := personality.ScoreGuest(map[string]any{
				"talk_topic":    "stories",
				"group_dynamic": "organizer",
			})

			convey.Convey("Then the earlier category in enumeration order wins", func() {
				convey.So(scores[model.Storytellers], convey.ShouldEqual, 2)
				convey.So(scores[model.Planners], convey.ShouldEqual, 2)
				convey.So(category, convey.ShouldEqual, model.Storytellers)
			})
		})

		convey.Convey("When the same blob is scored twice", func() {
			blob := map[string]any{
				"dinner_vibe":     "lively",
				"talk_topic":      "anything",
				"group_dynamic":   "floater",
				"adventure_scale": 3,
				"social_scale":    3,
				"structure_scale": 1,
			}
			s1, c1 := personality.ScoreGuest(blob)
			s2, c2 := personality.ScoreGuest(blob)

			convey.Convey("Then the result is identical", func() {
				convey.So(s1, convey.ShouldResemble, s2)
				convey.So(c1, convey.ShouldEqual, c2)
			})
		})
	})
}

func TestScoreAnswersWeights(t *testing.T) {
	convey.Convey("Given the static weight table", t, func() {
		convey.Convey("When only the dinner vibe is answered", func() {
			scores := personality.ScoreAnswers(personality.ParseAnswers(map[string]any{
				"dinner_vibe": "fun & lively",
			}))

			convey.Convey("Then the primary category gets 3 and the secondary 1", func() {
				convey.So(scores[model.Storytellers], convey.ShouldEqual, 3)
				convey.So(scores[model.Trailblazers], convey.ShouldEqual, 1)
				convey.So(scores[model.Philosophers], convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When only a scale question is answered", func() {
			scores := personality.ScoreAnswers(personality.ParseAnswers(map[string]any{
				"structure_scale": 5,
			}))

			convey.Convey("Then exactly one point lands", func() {
				convey.So(scores[model.Planners], convey.ShouldEqual, 1)
				total := 0.0
				for _, v := range scores {
					total += v
				}
				convey.So(total, convey.ShouldEqual, 1)
			})
		})
	})
}
