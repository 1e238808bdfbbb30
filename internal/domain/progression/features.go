package progression

import (
	"math"

	"github.com/okian/talentscope/internal/domain/model"
)

const (
	singleSeasonConsistency = 0.5
	minContributionMinutes  = 10.0
)

// addRatios fills the per-match and per-90 features of a row.
func addRatios(r *model.ProgressionRow) {
	if r.Matches > 0 {
		m := float64(r.Matches)
		r.GoalsPerMatch = clip(r.Goals/m, 0, 3)
		r.AssistsPerMatch = clip(r.Assists/m, 0, 3)
	}
	nineties := math.Max(r.Minutes, minContributionMinutes) / 90
	r.GoalContributionsPer90 = clip((r.Goals+r.Assists)/nineties, 0, 5)
}

// seasonGrowth compares a season with the player's previous one.
func seasonGrowth(cur, prev *model.ProgressionRow) {
	cur.SeasonGrowth = clip(cur.Current-prev.Current, -30, 30)
	if prev.Goals > 0 {
		cur.GoalsGrowth = clip((cur.Goals-prev.Goals)/prev.Goals, -2, 5)
	}
	if prev.Minutes > 0 {
		cur.MinutesGrowth = clip((cur.Minutes-prev.Minutes)/prev.Minutes, -1, 3)
	}
}

// playerConsistency is 1 / (1 + cv(goals) + cv(minutes)) over a player's
// seasons, where cv uses the sample deviation over mean+1.
func playerConsistency(rows []model.ProgressionRow, idx []int) float64 {
	if len(idx) < 2 {
		return singleSeasonConsistency
	}
	goals := make([]float64, len(idx))
	minutes := make([]float64, len(idx))
	for n, i := range idx {
		goals[n] = rows[i].Goals
		minutes[n] = rows[i].Minutes
	}
	return 1 / (1 + variation(goals) + variation(minutes))
}

func variation(xs []float64) float64 {
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	ss := 0.0
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	std := math.Sqrt(ss / float64(len(xs)-1))
	return finite(std / (mean + 1))
}

// normalizeConsistency rescales raw consistency to [0, 1] across the
// population.
func normalizeConsistency(rows []model.ProgressionRow, raw []float64) {
	lo, hi := raw[0], raw[0]
	for _, v := range raw {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for i := range rows {
		rows[i].Consistency = (raw[i] - lo) / (hi - lo + 1e-6)
	}
}

// positionSeasonAverages compares each rating with its season and position
// peers.
func positionSeasonAverages(rows []model.ProgressionRow) {
	type key struct {
		season string
		pos    model.Position
	}
	sum := map[key]float64{}
	count := map[key]int{}
	for _, r := range rows {
		k := key{r.Season, r.Position}
		sum[k] += r.Current
		count[k]++
	}
	for i := range rows {
		k := key{rows[i].Season, rows[i].Position}
		avg := sum[k] / float64(count[k])
		rows[i].PositionSeasonAverage = avg
		rows[i].PositionSeasonDiff = rows[i].Current - avg
	}
}
