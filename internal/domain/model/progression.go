package model

// Performance tiers assigned from the season percentile.
const (
	TierExceptional = "exceptional"
	TierGood        = "good"
	TierAverage     = "average"
	TierStruggling  = "struggling"
)

// ProgressionRow is a season augmented by the progression engine.
type ProgressionRow struct {
	PlayerSeason
	Trajectory

	RawRating           float64 `json:"raw_rating"`
	SamplePenalty       float64 `json:"sample_size_penalty"`
	Exceptional         bool    `json:"exceptional_performance"`
	AgeModifier         float64 `json:"age_modifier"`
	PerformanceModifier float64 `json:"performance_modifier"`
	Percentile          float64 `json:"performance_percentile"`
	Tier                string  `json:"performance_tier"`

	SeasonGrowth           float64 `json:"season_growth_rate"`
	GoalsGrowth            float64 `json:"goals_growth"`
	MinutesGrowth          float64 `json:"minutes_growth"`
	Consistency            float64 `json:"consistency_score"`
	GoalsPerMatch          float64 `json:"goals_per_match"`
	AssistsPerMatch        float64 `json:"assists_per_match"`
	GoalContributionsPer90 float64 `json:"goal_contributions_per_90"`
	PositionSeasonAverage  float64 `json:"pos_season_avg_rating"`
	PositionSeasonDiff     float64 `json:"pos_season_rating_diff"`
	PositionAgeBonus       float64 `json:"position_age_bonus"`
}
