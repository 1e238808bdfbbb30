package model

import "time"

// PlayerSeason is one player's statistics for one season. All fields are
// resolved at ingestion; the pointer fields are measurements that some
// sources do not provide and carry documented defaults downstream.
type PlayerSeason struct {
	ID          int64    `json:"id" db:"id"`
	Name        string   `json:"player_name" db:"player_name"`
	Club        string   `json:"club" db:"club"`
	Nation      string   `json:"nation" db:"nation"`
	Position    Position `json:"position" db:"position"`
	Age         int      `json:"age" db:"age"`
	Season      string   `json:"season" db:"season"`
	SeasonOrder int      `json:"season_order,omitempty" db:"season_order"`

	Matches int     `json:"matches" db:"matches"`
	Starts  int     `json:"starts" db:"starts"`
	Minutes float64 `json:"minutes" db:"minutes"`

	Goals        float64 `json:"goals" db:"goals"`
	Assists      float64 `json:"assists" db:"assists"`
	PenaltyGoals float64 `json:"penalty_goals" db:"penalty_goals"`

	// Expected goals/assists per 90. Nil means not measured.
	XGPer90 *float64 `json:"xg_per_90,omitempty" db:"xg_per_90"`
	XAPer90 *float64 `json:"xa_per_90,omitempty" db:"xa_per_90"`

	// Goalkeeping. Rates are nil when the source did not report them and
	// they could not be derived from the counters.
	Saves             float64  `json:"saves" db:"saves"`
	GoalsAgainst      float64  `json:"goals_against" db:"goals_against"`
	CleanSheets       float64  `json:"clean_sheets" db:"clean_sheets"`
	SavePct           *float64 `json:"save_pct,omitempty" db:"save_pct"`
	CleanSheetPct     *float64 `json:"clean_sheet_pct,omitempty" db:"clean_sheet_pct"`
	GoalsAgainstPer90 *float64 `json:"goals_against_per_90,omitempty" db:"goals_against_per_90"`

	// Usage and team context.
	CompleteMatches float64 `json:"complete_matches" db:"complete_matches"`
	MinutesPct      float64 `json:"minutes_pct" db:"minutes_pct"`
	PointsPerMatch  float64 `json:"points_per_match" db:"points_per_match"`
	PlusMinusPer90  float64 `json:"plus_minus_per_90" db:"plus_minus_per_90"`
	OnOff           float64 `json:"on_off" db:"on_off"`
}

// Nineties returns minutes expressed in full matches.
func (p PlayerSeason) Nineties() float64 {
	if p.Minutes <= 0 {
		return 0
	}
	return p.Minutes / 90
}

// SeasonBefore reports whether a is played before b.
func SeasonBefore(a, b PlayerSeason) bool {
	if a.SeasonOrder != 0 && b.SeasonOrder != 0 && a.SeasonOrder != b.SeasonOrder {
		return a.SeasonOrder < b.SeasonOrder
	}
	if a.Season != b.Season {
		return a.Season < b.Season
	}
	return a.ID < b.ID
}

// Float returns a pointer to v. Handy for optional measurement fields.
func Float(v float64) *float64 { return &v }

// Confidence labels, from most to least trusted.
const (
	ConfidenceVeryHigh = "Very High"
	ConfidenceHigh     = "High"
	ConfidenceMedium   = "Medium"
	ConfidenceLow      = "Low"
	ConfidenceVeryLow  = "Very Low"
)

// Development score sources.
const (
	SourceModel    = "model"
	SourceFallback = "fallback"
)

// RatingBundle holds every intermediate of a potential computation so a
// score can be explained after the fact.
type RatingBundle struct {
	BasePerformance     float64   `json:"base_performance"`
	BaselinePrior       float64   `json:"baseline_prior"`
	ConfidenceWeight    float64   `json:"confidence_weight"`
	ConfidenceLabel     string    `json:"confidence_label"`
	WeightedPerformance float64   `json:"weighted_performance"`
	DevelopmentScore    float64   `json:"development_score"`
	DevelopmentSource   string    `json:"development_source"`
	SamplePenalty       float64   `json:"sample_penalty"`
	EliteBonus          float64   `json:"elite_bonus"`
	PredictedPotential  float64   `json:"predicted_potential"`
	ScoredAt            time.Time `json:"scored_at"`
}

// Trajectory is the three-stage projection of a season. After repair
// Current <= NextSeason <= Peak holds.
type Trajectory struct {
	Current    float64 `json:"current_rating"`
	NextSeason float64 `json:"next_season_rating"`
	Peak       float64 `json:"peak_potential"`
}

// RatedPlayer is a stored season together with whatever has been computed
// for it so far.
type RatedPlayer struct {
	PlayerSeason
	Rating       *RatingBundle `json:"rating,omitempty"`
	Trajectory   *Trajectory   `json:"trajectory,omitempty"`
	IsBestSeason bool          `json:"is_best_season"`
}

// Potential returns the predicted potential or 0 for unscored seasons.
func (r RatedPlayer) Potential() float64 {
	if r.Rating == nil {
		return 0
	}
	return r.Rating.PredictedPotential
}

// SimilarPlayer pairs a candidate with its similarity to a target, 0-100.
type SimilarPlayer struct {
	Player     RatedPlayer `json:"player"`
	Similarity float64     `json:"similarity"`
}

// Rates are the per-90 figures derived from a season.
type Rates struct {
	Nineties     float64 `json:"nineties"`
	GoalsPer90   float64 `json:"goals_per_90"`
	AssistsPer90 float64 `json:"assists_per_90"`
	XGPer90      float64 `json:"xg_per_90"`
	XAPer90      float64 `json:"xa_per_90"`
	XGEstimated  bool    `json:"xg_estimated"`
	XAEstimated  bool    `json:"xa_estimated"`
}
