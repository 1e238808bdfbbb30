package scouting

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/talentscope/internal/domain/model"
)

// Tier is a potential band.
type Tier struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

var tiers = []struct {
	min float64
	Tier
}{
	{90, Tier{"Elite Prospect", "gold"}},
	{85, Tier{"Top Prospect", "silver"}},
	{80, Tier{"Promising Talent", "bronze"}},
	{75, Tier{"Developing Player", "blue"}},
	{70, Tier{"Squad Player", "green"}},
}

// ClassifyTier places a potential score in one of six bands.
func ClassifyTier(potential float64) Tier {
	for _, t := range tiers {
		if potential >= t.min {
			return t.Tier
		}
	}
	return Tier{"Prospect", "purple"}
}

// Growth summarises the gap between current and projected level.
type Growth struct {
	ShortTerm float64 `json:"short_term"`
	LongTerm  float64 `json:"long_term"`
	Rate      string  `json:"growth_rate"`
}

// GrowthTrajectory estimates short and long term growth and labels the
// pace for the player's age band.
func GrowthTrajectory(current, potential float64, age int) Growth {
	long := potential - current
	short := 0.0
	if potential > current {
		short = math.Min(long, 5)
	}

	var rate string
	switch {
	case age <= 17:
		rate = pick(long, 15, 10, "rapid", "moderate", "slow")
	case age <= 19:
		rate = pick(long, 10, 5, "rapid", "moderate", "slow")
	default:
		rate = pick(long, math.Inf(1), 5, "", "moderate", "plateau")
	}
	return Growth{ShortTerm: round(short, 1), LongTerm: round(long, 1), Rate: rate}
}

func pick(v, hi, mid float64, top, middle, bottom string) string {
	switch {
	case v >= hi:
		return top
	case v >= mid:
		return middle
	default:
		return bottom
	}
}

// Analysis is the templated strengths and weaknesses breakdown.
type Analysis struct {
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	DevelopmentAreas []string `json:"development_areas"`
}

// Analyze builds the strengths, weaknesses and development areas of a season.
func Analyze(p model.RatedPlayer) Analysis {
	var a Analysis
	current, potential := levels(p)

	if p.Position == model.Forward || p.Position == model.Midfielder {
		g90 := 0.0
		if n := p.Nineties(); n > 0 {
			g90 = p.Goals / n
		}
		switch {
		case g90 > 0.5:
			a.Strengths = append(a.Strengths, "Excellent goal-scoring ability")
		case g90 > 0.3:
			a.Strengths = append(a.Strengths, "Good attacking threat")
		default:
			a.Weaknesses = append(a.Weaknesses, "Limited goal-scoring output")
			a.DevelopmentAreas = append(a.DevelopmentAreas, "Improve finishing and positioning")
		}
	}

	switch {
	case p.Matches >= 20:
		a.Strengths = append(a.Strengths, "Regular first-team player")
	case p.Matches >= 10:
		a.Strengths = append(a.Strengths, "Gaining valuable playing time")
	default:
		a.Weaknesses = append(a.Weaknesses, "Limited playing time")
		a.DevelopmentAreas = append(a.DevelopmentAreas, "Need more match experience")
	}

	switch gap := potential - current; {
	case gap > 15:
		a.Strengths = append(a.Strengths, "High growth potential")
		a.DevelopmentAreas = append(a.DevelopmentAreas, "Focus on consistent performances")
	case gap > 10:
		a.Strengths = append(a.Strengths, "Good development trajectory")
	}

	if p.Age <= 17 {
		a.Strengths = append(a.Strengths, "Young age with time to develop")
	}

	if len(a.Strengths) == 0 {
		a.Strengths = []string{"Developing player with potential"}
	}
	if len(a.Weaknesses) == 0 {
		a.Weaknesses = []string{"No major concerns identified"}
	}
	if len(a.DevelopmentAreas) == 0 {
		a.DevelopmentAreas = []string{"Continue current development path"}
	}
	return a
}

// Recommendation returns the headline scouting verdict.
func Recommendation(p model.RatedPlayer) string {
	_, potential := levels(p)
	switch {
	case potential >= 90 && p.Age <= 18:
		return "PRIORITY SIGNING - Elite prospect with exceptional potential"
	case potential >= 85 && p.Matches >= 15:
		return "HIGHLY RECOMMEND - Top talent with proven performance"
	case potential >= 80:
		return "RECOMMEND - Promising player worth monitoring closely"
	case potential >= 75 && p.Age <= 17:
		return "MONITOR - Young talent with good long-term potential"
	default:
		return "OBSERVE - Continue tracking development"
	}
}

// ScoutNotes renders the free-text summary paragraph.
func ScoutNotes(p model.RatedPlayer, tier Tier, g Growth) string {
	current, potential := levels(p)
	var b strings.Builder

	fmt.Fprintf(&b, "%s is a %d-year-old %s classified as a %s with a peak potential of %.1f. ",
		p.Name, p.Age, p.Position, tier.Name, potential)
	if p.Matches > 0 {
		fmt.Fprintf(&b, "This season, the player has featured in %d matches, ", p.Matches)
		if p.Position == model.Forward || p.Position == model.Midfielder {
			fmt.Fprintf(&b, "scoring %d goals. ", int(p.Goals))
		}
		if current >= 75 {
			fmt.Fprintf(&b, "Demonstrating strong current form (rating: %.1f), ", current)
		} else {
			fmt.Fprintf(&b, "With a current rating of %.1f, there is significant room for improvement. ", current)
		}
	}
	fmt.Fprintf(&b, "The player shows %s growth potential with an expected improvement of %.1f points over the coming seasons. ",
		g.Rate, g.LongTerm)

	switch {
	case p.Age <= 17:
		b.WriteString("Being exceptionally young for this level, continued development is expected with proper coaching and playing time.")
	case p.Age <= 19:
		b.WriteString("At a key development age, the next 1-2 seasons will be crucial for the player's trajectory.")
	default:
		b.WriteString("Approaching peak development years, should begin showing consistent performances at this level.")
	}
	return b.String()
}

// SeasonChange compares a season with the one before it.
type SeasonChange struct {
	Available           bool    `json:"available"`
	PreviousSeason      string  `json:"previous_season,omitempty"`
	CurrentSeason       string  `json:"current_season"`
	RatingChange        float64 `json:"rating_change"`
	GoalsChange         float64 `json:"goals_change"`
	MatchesChange       int     `json:"matches_change"`
	GoalsPerMatchChange float64 `json:"goals_per_match_change"`
	Trend               string  `json:"trend"`
	TrendLabel          string  `json:"trend_label,omitempty"`
}

// CompareSeasons finds the season played immediately before p in history
// and reports the change.
func CompareSeasons(p model.RatedPlayer, history []model.RatedPlayer) SeasonChange {
	change := SeasonChange{CurrentSeason: p.Season, Trend: "stable"}

	var prev *model.RatedPlayer
	for i := range history {
		h := &history[i]
		if h.ID == p.ID || !model.SeasonBefore(h.PlayerSeason, p.PlayerSeason) || h.Season == p.Season {
			continue
		}
		if prev == nil || model.SeasonBefore(prev.PlayerSeason, h.PlayerSeason) {
			prev = h
		}
	}
	if prev == nil {
		return change
	}

	cur, _ := levels(p)
	old, _ := levels(*prev)
	change.Available = true
	change.PreviousSeason = prev.Season
	change.RatingChange = round(cur-old, 1)
	change.GoalsChange = p.Goals - prev.Goals
	change.MatchesChange = p.Matches - prev.Matches
	change.GoalsPerMatchChange = round(perMatch(p.Goals, p.Matches)-perMatch(prev.Goals, prev.Matches), 2)
	switch {
	case change.RatingChange > 0:
		change.Trend = "improving"
	case change.RatingChange < 0:
		change.Trend = "declining"
	}
	change.TrendLabel = fmt.Sprintf("Performance %s since %s", change.Trend, prev.Season)
	return change
}

// Report is the full scouting report of one season.
type Report struct {
	Player       ReportPlayer          `json:"player"`
	Ratings      ReportRatings         `json:"ratings"`
	Performance  ReportPerformance     `json:"performance"`
	Growth       Growth                `json:"growth"`
	Analysis     Analysis              `json:"analysis"`
	Tier         Tier                  `json:"tier"`
	Verdict      string                `json:"recommendation"`
	Notes        string                `json:"scout_notes"`
	Similar      []model.SimilarPlayer `json:"similar_players"`
	SeasonChange SeasonChange          `json:"season_change"`
	Progression  []model.RatedPlayer   `json:"progression"`
}

// ReportPlayer identifies the subject of a report.
type ReportPlayer struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Age          int            `json:"age"`
	Position     model.Position `json:"position"`
	Club         string         `json:"team"`
	Nation       string         `json:"nation"`
	SeasonsCount int            `json:"seasons_count"`
	Season       string         `json:"current_season"`
	IsBestSeason bool           `json:"is_best_potential"`
}

// ReportRatings are the headline numbers.
type ReportRatings struct {
	Current    float64 `json:"current"`
	NextSeason float64 `json:"next_season"`
	Peak       float64 `json:"peak_potential"`
}

// ReportPerformance covers the season and career output.
type ReportPerformance struct {
	Matches       int     `json:"matches"`
	Goals         float64 `json:"goals"`
	GoalsPerMatch float64 `json:"goals_per_match"`
	TotalMatches  int     `json:"total_matches"`
	TotalGoals    float64 `json:"total_goals"`
}

// BuildReport assembles a report for p given the player's full history
// and a list of comparable players.
func BuildReport(p model.RatedPlayer, history []model.RatedPlayer, similar []model.SimilarPlayer) Report {
	current, potential := levels(p)
	tier := ClassifyTier(potential)
	growth := GrowthTrajectory(current, potential, p.Age)

	ordered := append([]model.RatedPlayer(nil), history...)
	sort.SliceStable(ordered, func(a, b int) bool {
		return model.SeasonBefore(ordered[a].PlayerSeason, ordered[b].PlayerSeason)
	})

	var totalMatches int
	var totalGoals float64
	for _, h := range ordered {
		totalMatches += h.Matches
		totalGoals += h.Goals
	}

	next := current + 2
	if p.Trajectory != nil {
		next = p.Trajectory.NextSeason
	}
	if similar == nil {
		similar = []model.SimilarPlayer{}
	}

	return Report{
		Player: ReportPlayer{
			ID: p.ID, Name: p.Name, Age: p.Age, Position: p.Position,
			Club: p.Club, Nation: p.Nation, SeasonsCount: len(ordered),
			Season: p.Season, IsBestSeason: p.IsBestSeason,
		},
		Ratings: ReportRatings{Current: current, NextSeason: next, Peak: potential},
		Performance: ReportPerformance{
			Matches: p.Matches, Goals: p.Goals, GoalsPerMatch: perMatch(p.Goals, p.Matches),
			TotalMatches: totalMatches, TotalGoals: totalGoals,
		},
		Growth:       growth,
		Analysis:     Analyze(p),
		Tier:         tier,
		Verdict:      Recommendation(p),
		Notes:        ScoutNotes(p, tier, growth),
		Similar:      similar,
		SeasonChange: CompareSeasons(p, ordered),
		Progression:  ordered,
	}
}

// levels returns the current (weighted performance) and potential of a
// rated season; unscored seasons are zero.
func levels(p model.RatedPlayer) (float64, float64) {
	if p.Rating == nil {
		return 0, 0
	}
	return p.Rating.WeightedPerformance, p.Rating.PredictedPotential
}

func perMatch(v float64, matches int) float64 {
	if matches <= 0 {
		return 0
	}
	return v / float64(matches)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
