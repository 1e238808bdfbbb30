// Package rating turns a player season into a predicted potential score.
package rating

import (
	"context"
	"time"

	"github.com/okian/talentscope/internal/domain/benchmark"
	"github.com/okian/talentscope/internal/domain/development"
	"github.com/okian/talentscope/internal/domain/model"
	"github.com/okian/talentscope/pkg/metrics"
)

// Developer estimates long-term development for a season.
type Developer interface {
	Estimate(ctx context.Context, ps model.PlayerSeason, rates model.Rates) development.Result
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithTable sets the benchmark table.
func WithTable(t *benchmark.Table) Option {
	return func(s *Scorer) {
		if t != nil {
			s.tbl = t
		}
	}
}

// WithDeveloper sets the development estimator.
func WithDeveloper(d Developer) Option {
	return func(s *Scorer) {
		if d != nil {
			s.dev = d
		}
	}
}

// WithClock overrides the time source stamped on bundles.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		if now != nil {
			s.now = now
		}
	}
}

// Scorer computes rating bundles. It holds no mutable state and is safe
// for concurrent use.
type Scorer struct {
	tbl *benchmark.Table
	dev Developer
	now func() time.Time
}

// NewScorer builds a Scorer with the default table and the heuristic
// development estimator unless overridden.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		tbl: benchmark.Default(),
		dev: development.NewEstimator(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Table returns the benchmark table the scorer uses.
func (s *Scorer) Table() *benchmark.Table { return s.tbl }

// Score runs the full pipeline for one season. It never fails; anomalous
// input degrades to conservative defaults.
func (s *Scorer) Score(ctx context.Context, ps model.PlayerSeason) model.RatingBundle {
	start := time.Now()

	rates := Normalize(ps, s.tbl)
	weight, label := Confidence(ps.Matches, ps.Minutes, s.tbl)
	base := BasePerformance(ps, rates, s.tbl)
	prior := BaselinePrior(ps.Position, ps.Age, s.tbl)
	weighted := Blend(base, prior, weight, s.tbl)
	dev := s.dev.Estimate(ctx, ps, rates)
	comp := Compose(ps, weighted, dev.Score, s.tbl)

	b := model.RatingBundle{
		BasePerformance:     round1(base),
		BaselinePrior:       prior,
		ConfidenceWeight:    weight,
		ConfidenceLabel:     label,
		WeightedPerformance: round1(weighted),
		DevelopmentScore:    round1(dev.Score),
		DevelopmentSource:   dev.Source,
		SamplePenalty:       comp.SamplePenalty,
		EliteBonus:          comp.EliteBonus,
		PredictedPotential:  comp.Potential,
		ScoredAt:            s.now().UTC(),
	}

	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordPlayerScored(label, b.PredictedPotential)
	return b
}
