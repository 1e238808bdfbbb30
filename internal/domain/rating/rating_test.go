package rating

import (
	"context"
	"math"
	"testing"

	"github.com/okian/talentscope/internal/domain/benchmark"
	"github.com/okian/talentscope/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	tbl := benchmark.Default()

	Convey("Given per-90 normalisation", t, func() {
		Convey("Zero minutes yield zero everywhere", func() {
			r := Normalize(model.PlayerSeason{Goals: 4, Assists: 2, XGPer90: model.Float(0.4)}, tbl)
			So(r, ShouldResemble, model.Rates{})

			r = Normalize(model.PlayerSeason{Minutes: -30, Goals: 4}, tbl)
			So(r.GoalsPer90, ShouldEqual, 0)
		})

		Convey("Rates divide by nineties", func() {
			r := Normalize(model.PlayerSeason{Position: model.Forward, Minutes: 900, Goals: 5, Assists: 2, XGPer90: model.Float(0.4), XAPer90: model.Float(0.1)}, tbl)
			So(r.Nineties, ShouldEqual, 10)
			So(r.GoalsPer90, ShouldEqual, 0.5)
			So(r.AssistsPer90, ShouldEqual, 0.2)
			So(r.XGPer90, ShouldEqual, 0.4)
			So(r.XGEstimated, ShouldBeFalse)
		})

		Convey("Missing xG and xA are estimated for outfield players", func() {
			r := Normalize(model.PlayerSeason{Position: model.Midfielder, Minutes: 900, Goals: 4, Assists: 2}, tbl)
			So(r.XGPer90, ShouldAlmostEqual, 0.3)
			So(r.XAPer90, ShouldAlmostEqual, 0.15)
			So(r.XGEstimated, ShouldBeTrue)
			So(r.XAEstimated, ShouldBeTrue)
		})

		Convey("Goalkeepers never get estimated xG", func() {
			r := Normalize(model.PlayerSeason{Position: model.Goalkeeper, Minutes: 900, Goals: 1}, tbl)
			So(r.XGPer90, ShouldEqual, 0)
			So(r.XGEstimated, ShouldBeFalse)
		})

		Convey("Scorers without goals get no xG estimate", func() {
			r := Normalize(model.PlayerSeason{Position: model.Forward, Minutes: 900}, tbl)
			So(r.XGPer90, ShouldEqual, 0)
			So(r.XGEstimated, ShouldBeFalse)
		})
	})
}

func TestConfidence(t *testing.T) {
	tbl := benchmark.Default()

	Convey("Given the confidence tiers", t, func() {
		cases := []struct {
			matches int
			minutes float64
			weight  float64
			label   string
		}{
			{25, 2000, 1.0, model.ConfidenceVeryHigh},
			{20, 1500, 1.0, model.ConfidenceVeryHigh},
			{20, 1499, 0.85, model.ConfidenceHigh},
			{15, 1000, 0.85, model.ConfidenceHigh},
			{30, 700, 0.70, model.ConfidenceMedium},
			{5, 300, 0.50, model.ConfidenceLow},
			{4, 5000, 0.30, model.ConfidenceVeryLow},
			{0, 0, 0.30, model.ConfidenceVeryLow},
		}
		for _, c := range cases {
			w, l := Confidence(c.matches, c.minutes, tbl)
			So(w, ShouldEqual, c.weight)
			So(l, ShouldEqual, c.label)
		}

		Convey("Weight never drops as the sample grows", func() {
			prev := 0.0
			for m := 0; m <= 40; m++ {
				for mins := 0.0; mins <= 3600; mins += 100 {
					w, _ := Confidence(m, mins, tbl)
					w2, _ := Confidence(m+1, mins, tbl)
					w3, _ := Confidence(m, mins+100, tbl)
					So(w2, ShouldBeGreaterThanOrEqualTo, w)
					So(w3, ShouldBeGreaterThanOrEqualTo, w)
				}
				w, _ := Confidence(m, float64(m)*90, tbl)
				So(w, ShouldBeGreaterThanOrEqualTo, prev)
				prev = w
			}
		})
	})
}

func TestBasePerformance(t *testing.T) {
	tbl := benchmark.Default()

	Convey("Given base performance scoring", t, func() {
		Convey("A baseline goalkeeper scores exactly the floor", func() {
			gk := model.PlayerSeason{
				Position: model.Goalkeeper, Minutes: 1800, Matches: 20,
				SavePct: model.Float(70), CleanSheetPct: model.Float(20), GoalsAgainstPer90: model.Float(1.5),
			}
			So(BasePerformance(gk, Normalize(gk, tbl), tbl), ShouldEqual, 30)
		})

		Convey("A goalkeeper without rates scores the floor", func() {
			gk := model.PlayerSeason{Position: model.Goalkeeper}
			So(BasePerformance(gk, Normalize(gk, tbl), tbl), ShouldEqual, 30)
		})

		Convey("An elite goalkeeper is capped", func() {
			gk := model.PlayerSeason{
				Position: model.Goalkeeper, Minutes: 1800,
				SavePct: model.Float(90), CleanSheetPct: model.Float(60), GoalsAgainstPer90: model.Float(0.2),
			}
			So(BasePerformance(gk, Normalize(gk, tbl), tbl), ShouldEqual, 82)
		})

		Convey("Outfield ratios are weighted and bonuses added", func() {
			mf := model.PlayerSeason{Position: model.Midfielder, Minutes: 900, Goals: 2.5, XGPer90: model.Float(0.22), XAPer90: model.Float(0.3)}
			// 35 + 25 + 40 = 100, capped at the midfield cap
			So(BasePerformance(mf, Normalize(mf, tbl), tbl), ShouldAlmostEqual, 83)
		})

		Convey("Scores stay in [0, cap] for every position", func() {
			for _, pos := range model.Positions {
				for _, goals := range []float64{0, 3, 12, 40} {
					ps := model.PlayerSeason{Position: pos, Minutes: 1200, Goals: goals, Assists: goals / 2}
					s := BasePerformance(ps, Normalize(ps, tbl), tbl)
					So(s, ShouldBeGreaterThanOrEqualTo, 0)
					So(s, ShouldBeLessThanOrEqualTo, tbl.For(pos).PerformanceCap)
				}
			}
		})
	})
}

func TestBaselineAndBlend(t *testing.T) {
	tbl := benchmark.Default()

	Convey("Given the baseline prior", t, func() {
		So(BaselinePrior(model.Forward, 16, tbl), ShouldEqual, 75)
		So(BaselinePrior(model.Forward, 19, tbl), ShouldEqual, 68)
		So(BaselinePrior(model.Defender, 22, tbl), ShouldEqual, 60)
		So(BaselinePrior(model.Goalkeeper, 18, tbl), ShouldEqual, 67)

		Convey("Blending interpolates and clamps", func() {
			So(Blend(85, 68, 1, tbl), ShouldEqual, 85)
			So(Blend(0, 68, 0.3, tbl), ShouldAlmostEqual, 47.6)
			So(Blend(0, 30, 0.5, tbl), ShouldEqual, 30)
		})
	})
}

func TestCompose(t *testing.T) {
	tbl := benchmark.Default()

	Convey("Given the hybrid composer", t, func() {
		Convey("Small samples are penalised", func() {
			So(SamplePenalty(3, tbl), ShouldEqual, -8)
			So(SamplePenalty(7, tbl), ShouldEqual, -4)
			So(SamplePenalty(12, tbl), ShouldEqual, -2)
			So(SamplePenalty(15, tbl), ShouldEqual, 0)
		})

		Convey("Elite bonus needs ten matches", func() {
			fw := model.PlayerSeason{Position: model.Forward, Matches: 9, Goals: 30}
			So(EliteBonus(fw, 90, tbl), ShouldEqual, 0)
			fw.Matches = 10
			So(EliteBonus(fw, 90, tbl), ShouldEqual, 6)
			fw.Goals = 20
			So(EliteBonus(fw, 72, tbl), ShouldEqual, 4)
			dm := model.PlayerSeason{Position: model.Defender, Matches: 20, Goals: 5}
			So(EliteBonus(dm, 61, tbl), ShouldEqual, 3)
			gk := model.PlayerSeason{Position: model.Goalkeeper, Matches: 30, Goals: 30}
			So(EliteBonus(gk, 99, tbl), ShouldEqual, 0)
		})

		Convey("Excess above the soft cap is compressed", func() {
			fw := model.PlayerSeason{Position: model.Forward, Matches: 30, Goals: 30}
			c := Compose(fw, 100, 100, tbl)
			// 100 + 6 = 106 -> 95 + 11*0.3
			So(c.Potential, ShouldEqual, 98.3)
			So(c.EliteBonus, ShouldEqual, 6)
		})

		Convey("The final value is clamped and rounded", func() {
			c := Compose(model.PlayerSeason{Position: model.Midfielder, Matches: 1}, 30, 0, tbl)
			So(c.Potential, ShouldEqual, 30)
			c = Compose(model.PlayerSeason{Position: model.Midfielder, Matches: 20}, 71.234, 80.111, tbl)
			So(c.Potential, ShouldEqual, math.Round((71.234*0.7+80.111*0.3)*10)/10)
		})
	})
}

func TestScorerScenarios(t *testing.T) {
	ctx := context.Background()
	s := NewScorer()

	Convey("Given the default scorer", t, func() {
		Convey("An elite young forward rates in the elite band", func() {
			b := s.Score(ctx, model.PlayerSeason{
				Name: "Elite", Position: model.Forward, Age: 18,
				Matches: 26, Starts: 24, Minutes: 2328, Goals: 31, Assists: 5,
				XGPer90: model.Float(0.95),
			})
			So(b.ConfidenceLabel, ShouldEqual, model.ConfidenceVeryHigh)
			So(b.SamplePenalty, ShouldEqual, 0)
			So(b.BasePerformance, ShouldEqual, 85)
			So(b.PredictedPotential, ShouldBeBetweenOrEqual, 86, 96)
			So(b.DevelopmentSource, ShouldEqual, model.SourceFallback)
		})

		Convey("A three-match forward is pulled toward the prior", func() {
			b := s.Score(ctx, model.PlayerSeason{
				Name: "Cameo", Position: model.Forward, Age: 19,
				Matches: 3, Starts: 1, Minutes: 200,
			})
			So(b.SamplePenalty, ShouldEqual, -8)
			So(b.ConfidenceLabel, ShouldBeIn, []string{model.ConfidenceLow, model.ConfidenceVeryLow})
			So(b.BasePerformance, ShouldEqual, 0)
			So(b.PredictedPotential, ShouldBeGreaterThan, 40)
			So(b.PredictedPotential, ShouldBeLessThan, b.BaselinePrior)
		})

		Convey("A baseline goalkeeper has base performance 30", func() {
			b := s.Score(ctx, model.PlayerSeason{
				Position: model.Goalkeeper, Age: 18, Matches: 20, Minutes: 1800,
				SavePct: model.Float(70), CleanSheetPct: model.Float(20), GoalsAgainstPer90: model.Float(1.5),
			})
			So(b.BasePerformance, ShouldEqual, 30)
		})

		Convey("Fewer matches never help an established profile", func() {
			full := model.PlayerSeason{Position: model.Forward, Age: 18, Matches: 25, Starts: 25, Minutes: 2328, Goals: 31, Assists: 5, XGPer90: model.Float(0.95)}
			thin := full
			thin.Matches, thin.Starts = 3, 3
			So(s.Score(ctx, thin).PredictedPotential, ShouldBeLessThan, s.Score(ctx, full).PredictedPotential)
		})

		Convey("Every output stays in range", func() {
			for _, pos := range model.Positions {
				for _, m := range []int{0, 2, 6, 12, 18, 30} {
					for _, goals := range []float64{0, 1, 10, 45} {
						b := s.Score(ctx, model.PlayerSeason{
							Position: pos, Age: 15 + m%7, Matches: m, Starts: m,
							Minutes: float64(m) * 80, Goals: goals, Assists: goals / 3,
						})
						So(b.BasePerformance, ShouldBeBetweenOrEqual, 0, tblCap(s, pos))
						So(b.WeightedPerformance, ShouldBeBetweenOrEqual, 30, 100)
						So(b.PredictedPotential, ShouldBeBetweenOrEqual, 30, 100)
						So(b.DevelopmentScore, ShouldBeBetweenOrEqual, 0, 100)
					}
				}
			}
		})
	})
}

func tblCap(s *Scorer, pos model.Position) float64 {
	return s.Table().For(pos).PerformanceCap
}
