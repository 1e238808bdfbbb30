package benchmark

import (
	"fmt"

	"github.com/okian/talentscope/internal/domain/model"
)

// RatingWeights weights the season statistics that feed the current rating.
type RatingWeights struct {
	Goals           float64
	NonPenaltyGoals float64
	Nineties        float64
	Starts          float64
	PointsPerMatch  float64
	PlusMinusPer90  float64
	OnOff           float64
	MinutesPct      float64
	CompleteMatches float64
	MinutesPerStart float64
}

// TierStep maps a season percentile to a growth modifier.
type TierStep struct {
	MinPercentile float64
	Modifier      float64
	Tier          string
}

// AgeCurve is the position-specific youth bonus used as a model feature.
// The bonus holds until PeakAge and fades linearly to zero at DeclineStart.
type AgeCurve struct {
	PeakAge      int
	YoungBonus   float64
	DeclineStart int
}

// Progression configures the current -> next season -> peak engine.
type Progression struct {
	Weights RatingWeights

	LowSampleMatches int
	LowSampleFactor  float64

	// SamplePenalty is indexed by matches played; anything past the end
	// of the slice gets full credit.
	SamplePenalty []float64

	ExceptionalGoalsPerMatch   float64
	ExceptionalMinutesPerGoal  float64
	ExceptionalContribPerMatch float64
	ExceptionalRequired        int

	CurrentMin, CurrentMax float64

	MinAge, MaxAge, DefaultAge int
	AgeModifiers               map[int]float64 // ages between MinAge and MaxAge
	Tiers                      []TierStep      // descending MinPercentile

	NextBaseGrowth, NextMinGrowth, NextMaxGrowth float64
	NextCap                                      float64

	PeakBaseGrowth, PeakMinGrowth, PeakMaxGrowth float64
	PeakCap                                      float64

	MinNextGap         float64 // next >= current + gap
	MinPeakGap         float64 // peak >= next + gap
	MinPeakOverCurrent float64 // peak >= current + gap

	AgeCurves map[model.Position]AgeCurve
}

// DefaultProgression returns the standard youth progression rules.
func DefaultProgression() *Progression {
	return &Progression{
		Weights: RatingWeights{
			Goals:           1.2,
			NonPenaltyGoals: 1.0,
			Nineties:        1.8,
			Starts:          0.8,
			PointsPerMatch:  1.5,
			PlusMinusPer90:  1.0,
			OnOff:           1.0,
			MinutesPct:      0.015,
			CompleteMatches: 0.4,
			MinutesPerStart: 0.008,
		},
		LowSampleMatches: 5,
		LowSampleFactor:  0.5,
		SamplePenalty:    []float64{0.15, 0.15, 0.25, 0.40, 0.60, 0.75},

		ExceptionalGoalsPerMatch:   1.5,
		ExceptionalMinutesPerGoal:  60,
		ExceptionalContribPerMatch: 2.0,
		ExceptionalRequired:        2,

		CurrentMin: 20,
		CurrentMax: 70,

		MinAge:     14,
		MaxAge:     22,
		DefaultAge: 17,
		AgeModifiers: map[int]float64{
			14: 1.4, 15: 1.4, 16: 1.25, 17: 1.15, 18: 1.0,
			19: 0.85, 20: 0.7, 21: 0.5, 22: 0.5,
		},
		Tiers: []TierStep{
			{95, 1.5, model.TierExceptional},
			{75, 1.25, model.TierGood},
			{25, 1.0, model.TierAverage},
			{0, 0.75, model.TierStruggling},
		},

		NextBaseGrowth: 5, NextMinGrowth: 2, NextMaxGrowth: 10,
		NextCap: 85,

		PeakBaseGrowth: 18, PeakMinGrowth: 8, PeakMaxGrowth: 35,
		PeakCap: 94,

		MinNextGap:         2,
		MinPeakGap:         5,
		MinPeakOverCurrent: 8,

		AgeCurves: map[model.Position]AgeCurve{
			model.Forward:    {PeakAge: 17, YoungBonus: 25, DeclineStart: 19},
			model.Midfielder: {PeakAge: 17, YoungBonus: 22, DeclineStart: 19},
			model.Defender:   {PeakAge: 17, YoungBonus: 20, DeclineStart: 19},
			model.Goalkeeper: {PeakAge: 18, YoungBonus: 18, DeclineStart: 19},
		},
	}
}

// Validate rejects rule sets under which repaired values could violate the
// caps, which would make a second repair pass change the output.
func (p *Progression) Validate() error {
	switch {
	case p.CurrentMin > p.CurrentMax:
		return fmt.Errorf("%w: current range [%v, %v] is empty", ErrInvalidRules, p.CurrentMin, p.CurrentMax)
	case p.MinNextGap < 0 || p.MinPeakGap < 0 || p.MinPeakOverCurrent < 0:
		return fmt.Errorf("%w: gaps must not be negative", ErrInvalidRules)
	case p.CurrentMax+p.MinNextGap > p.NextCap:
		return fmt.Errorf("%w: next cap %v below max current %v plus gap %v",
			ErrInvalidRules, p.NextCap, p.CurrentMax, p.MinNextGap)
	case p.NextCap+p.MinPeakGap > p.PeakCap:
		return fmt.Errorf("%w: peak cap %v below next cap %v plus gap %v",
			ErrInvalidRules, p.PeakCap, p.NextCap, p.MinPeakGap)
	case p.CurrentMax+p.MinPeakOverCurrent > p.PeakCap:
		return fmt.Errorf("%w: peak cap %v below max current %v plus gap %v",
			ErrInvalidRules, p.PeakCap, p.CurrentMax, p.MinPeakOverCurrent)
	case p.MinAge > p.MaxAge:
		return fmt.Errorf("%w: age range [%d, %d] is empty", ErrInvalidRules, p.MinAge, p.MaxAge)
	case len(p.Tiers) == 0:
		return fmt.Errorf("%w: no performance tiers", ErrInvalidRules)
	}
	for i := 1; i < len(p.Tiers); i++ {
		if p.Tiers[i].MinPercentile > p.Tiers[i-1].MinPercentile {
			return fmt.Errorf("%w: tiers must be ordered by descending percentile", ErrInvalidRules)
		}
	}
	return nil
}

// AgeModifier returns the growth multiplier for age, clipped to the
// configured age range. Ages at or below the youngest key use its value;
// ages past the oldest key use the oldest value.
func (p *Progression) AgeModifier(age int) float64 {
	age = p.ClipAge(age)
	if m, ok := p.AgeModifiers[age]; ok {
		return m
	}
	best, bestAge := 1.0, -1
	for a, m := range p.AgeModifiers {
		if a <= age && a > bestAge {
			best, bestAge = m, a
		}
	}
	return best
}

// ClipAge replaces missing ages with the default and clips into range.
func (p *Progression) ClipAge(age int) int {
	if age <= 0 {
		age = p.DefaultAge
	}
	if age < p.MinAge {
		return p.MinAge
	}
	if age > p.MaxAge {
		return p.MaxAge
	}
	return age
}

// Tier returns the growth modifier and tier name for a percentile.
func (p *Progression) Tier(percentile float64) (float64, string) {
	for _, t := range p.Tiers {
		if percentile >= t.MinPercentile {
			return t.Modifier, t.Tier
		}
	}
	last := p.Tiers[len(p.Tiers)-1]
	return last.Modifier, last.Tier
}

// SampleFactor returns the current-rating multiplier for a match count.
func (p *Progression) SampleFactor(matches int) float64 {
	if matches < 0 {
		matches = 0
	}
	if matches < len(p.SamplePenalty) {
		return p.SamplePenalty[matches]
	}
	return 1.0
}

// PositionAgeBonus evaluates the position's youth curve at age.
func (p *Progression) PositionAgeBonus(pos model.Position, age int) float64 {
	curve, ok := p.AgeCurves[pos]
	if !ok {
		curve = p.AgeCurves[model.Midfielder]
	}
	age = p.ClipAge(age)
	switch {
	case age <= curve.PeakAge:
		return curve.YoungBonus
	case age < curve.DeclineStart:
		span := float64(curve.DeclineStart - curve.PeakAge)
		return curve.YoungBonus * (1 - float64(age-curve.PeakAge)/span)
	default:
		return 0
	}
}
