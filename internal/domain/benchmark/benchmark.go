// Package benchmark holds the position benchmarks and progression rules the
// rating pipeline scores against. Tables are built once and only read
// afterwards, so they are safe to share between goroutines.
package benchmark

import "github.com/okian/talentscope/internal/domain/model"

// Step awards Bonus when a value reaches Min. Steps are ordered from the
// highest threshold down and the first matching step wins.
type Step struct {
	Min   float64
	Bonus float64
}

// Award returns the bonus of the first step whose threshold is met. When
// strict is set the value must exceed the threshold.
func Award(steps []Step, v float64, strict bool) float64 {
	for _, s := range steps {
		if v > s.Min || (!strict && v == s.Min) {
			return s.Bonus
		}
	}
	return 0
}

// EliteStep awards Bonus when both season goals and weighted performance
// reach their thresholds.
type EliteStep struct {
	Goals       float64
	Performance float64
	Bonus       float64
}

// Outfield describes how a non-goalkeeper is benchmarked.
type Outfield struct {
	EliteGoalsPer90 float64
	EliteXGPer90    float64
	EliteXAPer90    float64

	GoalsWeight float64
	XGWeight    float64
	XAWeight    float64

	GoalsRatioCap float64
	RatioCap      float64

	Volume     []Step // season goals, inclusive
	Efficiency []Step // goals per 90, strict
}

// Keeper describes how a goalkeeper is benchmarked.
type Keeper struct {
	EliteSavePct           float64
	EliteCleanSheetPct     float64
	EliteGoalsAgainstPer90 float64

	BaseSavePct           float64
	BaseCleanSheetPct     float64
	BaseGoalsAgainstPer90 float64

	Floor float64

	SaveScale, SaveMax                 float64
	CleanSheetScale, CleanSheetMax     float64
	GoalsAgainstScale, GoalsAgainstMax float64
}

// PositionTable is everything position-specific.
type PositionTable struct {
	PerformanceCap float64
	Baseline       float64
	SoftCap        float64
	Elite          []EliteStep

	Outfield *Outfield // nil for goalkeepers
	Keeper   *Keeper   // nil for outfield players
}

// AgeStep adds Bonus for players aged MaxAge or younger.
type AgeStep struct {
	MaxAge int
	Bonus  float64
}

// ConfidenceTier is met when both match and minute thresholds hold.
type ConfidenceTier struct {
	MinMatches int
	MinMinutes float64
	Weight     float64
	Label      string
}

// SamplePenalty applies when matches are strictly below BelowMatches.
type SamplePenalty struct {
	BelowMatches int
	Penalty      float64
}

// Table is the full scoring configuration.
type Table struct {
	positions map[model.Position]PositionTable

	AgeBonus                 []AgeStep
	BaselineMin, BaselineMax float64

	Confidence     []ConfidenceTier
	FallbackWeight float64
	FallbackLabel  string

	BlendMin, BlendMax float64

	PerformanceShare   float64
	DevelopmentShare   float64
	SamplePenalties    []SamplePenalty
	EliteMinMatches    int
	SoftCapCompression float64
	PotentialMin       float64
	PotentialMax       float64

	XGProxy, XAProxy float64
}

// For returns the table of p. Unknown positions use the midfield table.
func (t *Table) For(p model.Position) PositionTable {
	if pt, ok := t.positions[p]; ok {
		return pt
	}
	return t.positions[model.Midfielder]
}

// Option adjusts a Table while it is built.
type Option func(*Table)

// WithExpectedProxy overrides the multipliers used to estimate xG and xA
// from goals and assists when they were not measured.
func WithExpectedProxy(xg, xa float64) Option {
	return func(t *Table) {
		if xg > 0 {
			t.XGProxy = xg
		}
		if xa > 0 {
			t.XAProxy = xa
		}
	}
}

// Default builds the standard youth scoring table.
func Default(opts ...Option) *Table {
	t := &Table{
		positions: map[model.Position]PositionTable{
			model.Forward: {
				PerformanceCap: 85, Baseline: 65, SoftCap: 95,
				Elite: []EliteStep{{25, 75, 6}, {20, 70, 4}, {15, 65, 3}},
				Outfield: &Outfield{
					EliteGoalsPer90: 0.65, EliteXGPer90: 0.60, EliteXAPer90: 0.25,
					GoalsWeight: 45, XGWeight: 35, XAWeight: 20,
					GoalsRatioCap: 1.5, RatioCap: 1.5,
					Volume:     []Step{{25, 8}, {20, 6}, {15, 4}, {10, 2}, {5, 1}},
					Efficiency: []Step{{1.0, 5}, {0.8, 3}, {0.6, 1}},
				},
			},
			model.Midfielder: {
				PerformanceCap: 83, Baseline: 63, SoftCap: 93,
				Elite: []EliteStep{{12, 70, 4}, {8, 65, 2}},
				Outfield: &Outfield{
					EliteGoalsPer90: 0.25, EliteXGPer90: 0.22, EliteXAPer90: 0.30,
					GoalsWeight: 35, XGWeight: 25, XAWeight: 40,
					GoalsRatioCap: 1.5, RatioCap: 1.5,
					Volume:     []Step{{12, 6}, {8, 4}, {5, 2}},
					Efficiency: []Step{{0.4, 4}, {0.3, 2}},
				},
			},
			model.Defender: {
				PerformanceCap: 80, Baseline: 60, SoftCap: 92,
				Elite: []EliteStep{{8, 65, 5}, {5, 60, 3}},
				Outfield: &Outfield{
					EliteGoalsPer90: 0.10, EliteXGPer90: 0.08, EliteXAPer90: 0.15,
					GoalsWeight: 30, XGWeight: 25, XAWeight: 45,
					GoalsRatioCap: 2.0, RatioCap: 1.5,
					Volume:     []Step{{8, 8}, {5, 5}, {3, 3}},
					Efficiency: []Step{{0.2, 5}, {0.15, 3}},
				},
			},
			model.Goalkeeper: {
				PerformanceCap: 82, Baseline: 62, SoftCap: 90,
				Keeper: &Keeper{
					EliteSavePct: 78, EliteCleanSheetPct: 35, EliteGoalsAgainstPer90: 0.8,
					BaseSavePct: 70, BaseCleanSheetPct: 20, BaseGoalsAgainstPer90: 1.5,
					Floor: 30,
					SaveScale: 40, SaveMax: 50,
					CleanSheetScale: 30, CleanSheetMax: 40,
					GoalsAgainstScale: 30, GoalsAgainstMax: 40,
				},
			},
		},

		AgeBonus:    []AgeStep{{16, 10}, {17, 7}, {18, 5}, {19, 3}, {20, 1}},
		BaselineMin: 40,
		BaselineMax: 80,

		Confidence: []ConfidenceTier{
			{20, 1500, 1.00, model.ConfidenceVeryHigh},
			{15, 1000, 0.85, model.ConfidenceHigh},
			{10, 600, 0.70, model.ConfidenceMedium},
			{5, 300, 0.50, model.ConfidenceLow},
		},
		FallbackWeight: 0.30,
		FallbackLabel:  model.ConfidenceVeryLow,

		BlendMin:         30,
		BlendMax:         100,
		PerformanceShare: 0.70,
		DevelopmentShare: 0.30,
		SamplePenalties: []SamplePenalty{
			{5, -8}, {10, -4}, {15, -2},
		},
		EliteMinMatches:    10,
		SoftCapCompression: 0.3,
		PotentialMin:       30,
		PotentialMax:       100,

		XGProxy: 0.75,
		XAProxy: 0.75,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}
