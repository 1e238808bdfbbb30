// Package derive turns raw, partially populated season records into the
// fully typed model.PlayerSeason consumed by the rating pipeline.
package derive

import (
	"math"
	"strings"

	"github.com/okian/talentscope/internal/domain/model"
)

// DefaultAge is used when a source omits the player's age.
const DefaultAge = 17

// RawSeason is a season as read from an external source. Nil means the
// column was absent or empty.
type RawSeason struct {
	Name        string
	Club        string
	Nation      string
	Position    string
	Season      string
	SeasonOrder int
	Age         *float64

	Matches      *float64
	Starts       *float64
	Minutes      *float64
	Goals        *float64
	Assists      *float64
	PenaltyGoals *float64
	XGPer90      *float64
	XAPer90      *float64

	Saves             *float64
	GoalsAgainst      *float64
	CleanSheets       *float64
	SavePct           *float64
	CleanSheetPct     *float64
	GoalsAgainstPer90 *float64

	CompleteMatches *float64
	MinutesPct      *float64
	PointsPerMatch  *float64
	PlusMinusPer90  *float64
	OnOff           *float64
}

// Season resolves r into a PlayerSeason. Counts default to zero and are
// never negative, starts never exceed matches, and goalkeeper rates are
// derived from the counters when the source left them out. Rates that
// cannot be derived stay nil so scoring applies its own baselines.
func Season(r RawSeason) model.PlayerSeason {
	ps := model.PlayerSeason{
		Name:        strings.TrimSpace(r.Name),
		Club:        strings.TrimSpace(r.Club),
		Nation:      strings.TrimSpace(r.Nation),
		Position:    model.ParsePosition(r.Position),
		Season:      strings.TrimSpace(r.Season),
		SeasonOrder: r.SeasonOrder,
		Age:         DefaultAge,

		Matches:      int(count(r.Matches)),
		Starts:       int(count(r.Starts)),
		Minutes:      count(r.Minutes),
		Goals:        count(r.Goals),
		Assists:      count(r.Assists),
		PenaltyGoals: count(r.PenaltyGoals),
		XGPer90:      rate(r.XGPer90),
		XAPer90:      rate(r.XAPer90),

		Saves:        count(r.Saves),
		GoalsAgainst: count(r.GoalsAgainst),
		CleanSheets:  count(r.CleanSheets),

		CompleteMatches: count(r.CompleteMatches),
		MinutesPct:      count(r.MinutesPct),
		PointsPerMatch:  count(r.PointsPerMatch),
		PlusMinusPer90:  signed(r.PlusMinusPer90),
		OnOff:           signed(r.OnOff),
	}
	if age := count(r.Age); age > 0 {
		ps.Age = int(age)
	}
	if ps.Starts > ps.Matches {
		ps.Starts = ps.Matches
	}

	ps.SavePct = rate(r.SavePct)
	ps.CleanSheetPct = rate(r.CleanSheetPct)
	ps.GoalsAgainstPer90 = rate(r.GoalsAgainstPer90)
	if ps.Position == model.Goalkeeper {
		keeperRates(&ps)
	}
	return ps
}

// Seasons resolves a batch, preserving order.
func Seasons(raws []RawSeason) []model.PlayerSeason {
	out := make([]model.PlayerSeason, len(raws))
	for i, r := range raws {
		out[i] = Season(r)
	}
	return out
}

func keeperRates(ps *model.PlayerSeason) {
	if ps.SavePct == nil {
		if faced := ps.Saves + ps.GoalsAgainst; faced > 0 {
			ps.SavePct = model.Float(ps.Saves / faced * 100)
		}
	}
	if ps.CleanSheetPct == nil && ps.Matches > 0 {
		ps.CleanSheetPct = model.Float(ps.CleanSheets / float64(ps.Matches) * 100)
	}
	if ps.GoalsAgainstPer90 == nil {
		if n := ps.Nineties(); n > 0 {
			ps.GoalsAgainstPer90 = model.Float(ps.GoalsAgainst / n)
		}
	}
}

func count(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return 0
	}
	return *v
}

func signed(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0
	}
	return *v
}

func rate(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return model.Float(math.Max(*v, 0))
}
