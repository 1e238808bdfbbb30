package rating

import (
	"math"

	"github.com/okian/talentscope/internal/domain/benchmark"
	"github.com/okian/talentscope/internal/domain/model"
)

// BasePerformance scores a season against its position's elite benchmarks.
// The result lies in [0, position cap].
func BasePerformance(ps model.PlayerSeason, rates model.Rates, tbl *benchmark.Table) float64 {
	pt := tbl.For(ps.Position)
	if pt.Keeper != nil {
		return keeperScore(ps, pt)
	}
	return outfieldScore(ps, rates, pt)
}

func outfieldScore(ps model.PlayerSeason, rates model.Rates, pt benchmark.PositionTable) float64 {
	o := pt.Outfield
	goals := math.Min(rates.GoalsPer90/o.EliteGoalsPer90, o.GoalsRatioCap)
	xg := math.Min(rates.XGPer90/o.EliteXGPer90, o.RatioCap)
	xa := math.Min(rates.XAPer90/o.EliteXAPer90, o.RatioCap)

	score := goals*o.GoalsWeight + xg*o.XGWeight + xa*o.XAWeight
	score += benchmark.Award(o.Volume, ps.Goals, false)
	score += benchmark.Award(o.Efficiency, rates.GoalsPer90, true)
	return clamp(finite(score), 0, pt.PerformanceCap)
}

func keeperScore(ps model.PlayerSeason, pt benchmark.PositionTable) float64 {
	k := pt.Keeper
	save := valueOr(ps.SavePct, k.BaseSavePct)
	cs := valueOr(ps.CleanSheetPct, k.BaseCleanSheetPct)
	ga := valueOr(ps.GoalsAgainstPer90, k.BaseGoalsAgainstPer90)

	saveScore := clamp((save-k.BaseSavePct)/(k.EliteSavePct-k.BaseSavePct)*k.SaveScale, 0, k.SaveMax)
	csScore := clamp((cs-k.BaseCleanSheetPct)/(k.EliteCleanSheetPct-k.BaseCleanSheetPct)*k.CleanSheetScale, 0, k.CleanSheetMax)
	gaScore := clamp((k.BaseGoalsAgainstPer90-ga)/(k.BaseGoalsAgainstPer90-k.EliteGoalsAgainstPer90)*k.GoalsAgainstScale, 0, k.GoalsAgainstMax)

	return math.Min(k.Floor+saveScore+csScore+gaScore, pt.PerformanceCap)
}

func valueOr(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return def
	}
	return *v
}

// BaselinePrior is the rating assumed for a player of this position and
// age before any evidence is seen. Younger players get a higher prior.
func BaselinePrior(pos model.Position, age int, tbl *benchmark.Table) float64 {
	base := tbl.For(pos).Baseline
	for _, step := range tbl.AgeBonus {
		if age <= step.MaxAge {
			base += step.Bonus
			break
		}
	}
	return clamp(base, tbl.BaselineMin, tbl.BaselineMax)
}

// Blend mixes observed performance with the prior: weight 1 trusts the
// data fully, weight 0 falls back to the prior.
func Blend(base, prior, weight float64, tbl *benchmark.Table) float64 {
	w := clamp(weight, 0, 1)
	return clamp(w*base+(1-w)*prior, tbl.BlendMin, tbl.BlendMax)
}
