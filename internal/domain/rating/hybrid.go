package rating

import (
	"github.com/okian/talentscope/internal/domain/benchmark"
	"github.com/okian/talentscope/internal/domain/model"
)

// Composition is the outcome of combining performance and development.
type Composition struct {
	Potential     float64
	SamplePenalty float64
	EliteBonus    float64
}

// Compose blends weighted performance with the development score, applies
// the small-sample penalty and elite bonus, compresses anything above the
// position's soft cap and clamps to the potential range.
func Compose(ps model.PlayerSeason, weighted, development float64, tbl *benchmark.Table) Composition {
	pt := tbl.For(ps.Position)
	hybrid := weighted*tbl.PerformanceShare + development*tbl.DevelopmentShare

	penalty := SamplePenalty(ps.Matches, tbl)
	hybrid += penalty

	bonus := EliteBonus(ps, weighted, tbl)
	hybrid += bonus

	if hybrid > pt.SoftCap {
		hybrid = pt.SoftCap + (hybrid-pt.SoftCap)*tbl.SoftCapCompression
	}

	return Composition{
		Potential:     round1(clamp(finite(hybrid), tbl.PotentialMin, tbl.PotentialMax)),
		SamplePenalty: penalty,
		EliteBonus:    bonus,
	}
}

// SamplePenalty returns the (negative) adjustment for thin samples.
func SamplePenalty(matches int, tbl *benchmark.Table) float64 {
	for _, p := range tbl.SamplePenalties {
		if matches < p.BelowMatches {
			return p.Penalty
		}
	}
	return 0
}

// EliteBonus rewards high-volume scoring backed by strong performance. It
// only applies once a player has a meaningful number of matches.
func EliteBonus(ps model.PlayerSeason, weighted float64, tbl *benchmark.Table) float64 {
	if ps.Matches < tbl.EliteMinMatches {
		return 0
	}
	for _, step := range tbl.For(ps.Position).Elite {
		if ps.Goals >= step.Goals && weighted >= step.Performance {
			return step.Bonus
		}
	}
	return 0
}
