// Package development estimates long-term development potential, either
// from a trained model artifact or from a deterministic age heuristic.
package development

import (
	"math"

	"github.com/okian/talentscope/internal/domain/model"
)

// FeatureNames is the column order the model artifact was trained on.
var FeatureNames = []string{
	"Age", "Matches", "Starts", "Minutes", "Goals", "GoalsPer90",
	"Assists", "AssistsPer90", "xG", "xA", "Shots", "ShotsOnTarget",
	"PassesCompleted", "PassCompletionPct", "ProgressivePasses", "Tackles",
	"Interceptions", "DribblesCompleted", "Touches",

	"MinutesPerMatch", "GoalsPerMatch", "StartPercentage", "CompletionRate",
	"AttackingContribution", "DefensiveContribution", "PhysicalityScore",
	"ConsistencyScore", "AgeBonus", "PositionAdjustedRating",
}

const (
	defaultPassCompletion = 75.0
	neutralRating         = 65.0
	ratingOffset          = 50.0
	ageBonusPivot         = 25.0
)

// Features builds the model input vector. Columns the pipeline does not
// track are zero.
func Features(ps model.PlayerSeason, rates model.Rates) []float64 {
	age := float64(ps.Age)
	matches := float64(ps.Matches)
	if matches <= 0 {
		matches = 1
	}
	minutes := math.Max(ps.Minutes, 0)

	passPct := defaultPassCompletion
	if ps.Position == model.Goalkeeper && ps.SavePct != nil {
		passPct = *ps.SavePct
	}

	consistency := math.Max(0, math.Min(1, minutes/(matches*90)))

	return []float64{
		age,
		float64(ps.Matches),
		float64(ps.Starts),
		minutes,
		ps.Goals,
		rates.GoalsPer90,
		ps.Assists,
		rates.AssistsPer90,
		rates.XGPer90 * rates.Nineties,
		rates.XAPer90 * rates.Nineties,
		0, 0, 0,
		passPct,
		0, 0, 0, 0, 0,

		minutes / matches,
		ps.Goals / matches,
		float64(ps.Starts) / matches,
		passPct / 100,
		ps.Goals + ps.Assists,
		0, 0,
		consistency,
		math.Max(0, ageBonusPivot-age) / 10,
		neutralRating - ratingOffset,
	}
}
