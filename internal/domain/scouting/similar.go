// Package scouting finds comparable players and assembles scouting reports.
package scouting

import (
	"math"
	"sort"

	"github.com/okian/talentscope/internal/domain/model"
)

// DefaultTopN is the number of similar players returned when none is asked.
const DefaultTopN = 5

// vector is the similarity profile of a rated season, in a fixed order:
// potential, performance, age, goals, assists, matches, minutes, goals/90,
// assists/90.
func vector(p model.RatedPlayer) []float64 {
	var potential, performance float64
	if p.Rating != nil {
		potential = p.Rating.PredictedPotential
		performance = p.Rating.WeightedPerformance
	}
	var g90, a90 float64
	if n := p.Nineties(); n > 0 {
		g90 = p.Goals / n
		a90 = p.Assists / n
	}
	return []float64{
		potential, performance, float64(p.Age),
		p.Goals, p.Assists, float64(p.Matches), p.Minutes,
		g90, a90,
	}
}

// Similar ranks same-position candidates by cosine similarity of their
// min-max normalised profiles. Columns are scaled by the candidate pool's
// range and the target is transformed with the same bounds. Scores are
// 0-100. A pool without eligible candidates yields an empty slice.
func Similar(target model.RatedPlayer, pool []model.RatedPlayer, topN int) []model.SimilarPlayer {
	if topN <= 0 {
		topN = DefaultTopN
	}

	var candidates []model.RatedPlayer
	for _, c := range pool {
		if c.Position == target.Position && c.ID != target.ID {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return []model.SimilarPlayer{}
	}

	vectors := make([][]float64, len(candidates))
	for i, c := range candidates {
		vectors[i] = vector(c)
	}
	tv := vector(target)

	for col := range tv {
		lo, hi := vectors[0][col], vectors[0][col]
		for _, v := range vectors[1:] {
			lo = math.Min(lo, v[col])
			hi = math.Max(hi, v[col])
		}
		if hi <= lo {
			continue
		}
		span := hi - lo
		for _, v := range vectors {
			v[col] = (v[col] - lo) / span
		}
		tv[col] = (tv[col] - lo) / span
	}

	out := make([]model.SimilarPlayer, len(candidates))
	for i, c := range candidates {
		out[i] = model.SimilarPlayer{Player: c, Similarity: cosine(tv, vectors[i]) * 100}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Similarity > out[b].Similarity })
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// cosine returns the cosine similarity of a and b, or 0 if either is the
// zero vector.
func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	if math.IsNaN(s) {
		return 0
	}
	return s
}
