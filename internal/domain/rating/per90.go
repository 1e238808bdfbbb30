package rating

import (
	"github.com/okian/talentscope/internal/domain/benchmark"
	"github.com/okian/talentscope/internal/domain/model"
)

// Normalize converts season totals into per-90 rates. A season without
// minutes yields zero for every rate. Outfield players whose xG or xA was
// not measured get an estimate scaled from goals or assists per 90.
func Normalize(ps model.PlayerSeason, tbl *benchmark.Table) model.Rates {
	r := model.Rates{Nineties: finite(ps.Nineties())}
	if r.Nineties <= 0 {
		return model.Rates{}
	}

	r.GoalsPer90 = nonNegative(ps.Goals / r.Nineties)
	r.AssistsPer90 = nonNegative(ps.Assists / r.Nineties)

	if ps.XGPer90 != nil {
		r.XGPer90 = nonNegative(*ps.XGPer90)
	}
	if ps.XAPer90 != nil {
		r.XAPer90 = nonNegative(*ps.XAPer90)
	}
	if ps.Position == model.Goalkeeper {
		return r
	}
	if ps.XGPer90 == nil && r.GoalsPer90 > 0 {
		r.XGPer90 = r.GoalsPer90 * tbl.XGProxy
		r.XGEstimated = true
	}
	if ps.XAPer90 == nil && r.AssistsPer90 > 0 {
		r.XAPer90 = r.AssistsPer90 * tbl.XAProxy
		r.XAEstimated = true
	}
	return r
}

func nonNegative(v float64) float64 {
	v = finite(v)
	if v < 0 {
		return 0
	}
	return v
}
