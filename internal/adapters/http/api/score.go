package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/talentscope/internal/domain/derive"
	"github.com/okian/talentscope/internal/domain/model"
)

const maxScoreBody = 1 << 20

// ScoreDependencies rates a season without storing it.
type ScoreDependencies interface {
	Score(ctx context.Context, ps model.PlayerSeason) (model.RatingBundle, error)
}

// ScoreHandler handles ad-hoc scoring requests.
type ScoreHandler struct {
	deps ScoreDependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

// scoreRequest mirrors the OpenAPI schema for POST /score. Omitted
// measurements get the same defaults as an imported row.
type scoreRequest struct {
	Name        string   `json:"player_name"`
	Club        string   `json:"club"`
	Nation      string   `json:"nation"`
	Position    string   `json:"position"`
	Season      string   `json:"season"`
	SeasonOrder int      `json:"season_order"`
	Age         *float64 `json:"age"`

	Matches      *float64 `json:"matches"`
	Starts       *float64 `json:"starts"`
	Minutes      *float64 `json:"minutes"`
	Goals        *float64 `json:"goals"`
	Assists      *float64 `json:"assists"`
	PenaltyGoals *float64 `json:"penalty_goals"`
	XGPer90      *float64 `json:"xg_per_90"`
	XAPer90      *float64 `json:"xa_per_90"`

	Saves             *float64 `json:"saves"`
	GoalsAgainst      *float64 `json:"goals_against"`
	CleanSheets       *float64 `json:"clean_sheets"`
	SavePct           *float64 `json:"save_pct"`
	CleanSheetPct     *float64 `json:"clean_sheet_pct"`
	GoalsAgainstPer90 *float64 `json:"goals_against_per_90"`

	CompleteMatches *float64 `json:"complete_matches"`
	MinutesPct      *float64 `json:"minutes_pct"`
	PointsPerMatch  *float64 `json:"points_per_match"`
	PlusMinusPer90  *float64 `json:"plus_minus_per_90"`
	OnOff           *float64 `json:"on_off"`
}

func (s scoreRequest) raw() derive.RawSeason {
	return derive.RawSeason{
		Name: s.Name, Club: s.Club, Nation: s.Nation, Position: s.Position,
		Season: s.Season, SeasonOrder: s.SeasonOrder, Age: s.Age,
		Matches: s.Matches, Starts: s.Starts, Minutes: s.Minutes,
		Goals: s.Goals, Assists: s.Assists, PenaltyGoals: s.PenaltyGoals,
		XGPer90: s.XGPer90, XAPer90: s.XAPer90,
		Saves: s.Saves, GoalsAgainst: s.GoalsAgainst, CleanSheets: s.CleanSheets,
		SavePct: s.SavePct, CleanSheetPct: s.CleanSheetPct, GoalsAgainstPer90: s.GoalsAgainstPer90,
		CompleteMatches: s.CompleteMatches, MinutesPct: s.MinutesPct,
		PointsPerMatch: s.PointsPerMatch, PlusMinusPer90: s.PlusMinusPer90, OnOff: s.OnOff,
	}
}

type scoreResponse struct {
	Season model.PlayerSeason `json:"season"`
	Rating model.RatingBundle `json:"rating"`
}

// HandleScore handles POST /score requests.
func (h *ScoreHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	r.Body = http.MaxBytesReader(w, r.Body, maxScoreBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req scoreRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, fmt.Errorf("%w: %v", ErrBadRequest, err)))
		return
	}
	ps := derive.Season(req.raw())
	b, err := h.deps.Score(r.Context(), ps)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{Season: ps, Rating: b})
}
