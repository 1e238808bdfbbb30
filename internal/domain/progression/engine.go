// Package progression projects each season onto a current, next-season
// and peak rating scale, with per-player growth features.
package progression

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/okian/talentscope/internal/domain/benchmark"
	"github.com/okian/talentscope/internal/domain/model"
	"github.com/okian/talentscope/pkg/logger"
	"github.com/okian/talentscope/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the default progression rules.
func WithRules(r *benchmark.Progression) Option {
	return func(e *Engine) {
		if r != nil {
			e.rules = r
		}
	}
}

// WithWorkers bounds how many players are projected concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// Engine computes progression rows for a population of seasons.
type Engine struct {
	rules   *benchmark.Progression
	workers int
	log     logger.Logger
}

// New builds an Engine and validates its rules.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		rules:   benchmark.DefaultProgression(),
		workers: runtime.NumCPU(),
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.rules.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// Rules returns the rules in use.
func (e *Engine) Rules() *benchmark.Progression { return e.rules }

// Compute projects every season. The current rating is normalised over the
// whole input, so the result depends on the population passed in. Rows are
// returned in input order. The only error is context cancellation.
func (e *Engine) Compute(ctx context.Context, seasons []model.PlayerSeason) ([]model.ProgressionRow, error) {
	start := time.Now()
	rows := make([]model.ProgressionRow, len(seasons))
	if len(seasons) == 0 {
		return rows, nil
	}

	raw := make([]float64, len(seasons))
	for i, ps := range seasons {
		rows[i].PlayerSeason = ps
		raw[i] = e.rawRating(ps)
		rows[i].RawRating = raw[i]
		addRatios(&rows[i])
	}
	e.currentRatings(rows, raw)
	e.assignTiers(rows)
	positionSeasonAverages(rows)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	consistency := make([]float64, len(rows))
	for _, idx := range groupByPlayer(rows) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.projectPlayer(rows, idx, consistency)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compute progression: %w", err)
	}
	normalizeConsistency(rows, consistency)

	metrics.RecordProgressionRun(len(rows), float64(time.Since(start).Microseconds())/1000)
	e.log.Debug(ctx, "progression computed",
		logger.Int("rows", len(rows)),
		logger.Duration("took", time.Since(start)))
	return rows, nil
}

// rawRating is the weighted sum of season statistics. Seasons with very
// few matches have their scoring and team-impact numbers damped.
func (e *Engine) rawRating(ps model.PlayerSeason) float64 {
	w := e.rules.Weights
	damp := 1.0
	if ps.Matches < e.rules.LowSampleMatches {
		damp = e.rules.LowSampleFactor
	}
	minutesPerStart := 0.0
	if ps.Starts > 0 {
		minutesPerStart = ps.Minutes / float64(ps.Starts)
	}

	sum := damp * (ps.Goals*w.Goals +
		(ps.Goals-ps.PenaltyGoals)*w.NonPenaltyGoals +
		ps.PointsPerMatch*w.PointsPerMatch +
		ps.PlusMinusPer90*w.PlusMinusPer90 +
		ps.OnOff*w.OnOff)
	sum += ps.Nineties()*w.Nineties +
		float64(ps.Starts)*w.Starts +
		ps.MinutesPct*w.MinutesPct +
		ps.CompleteMatches*w.CompleteMatches +
		minutesPerStart*w.MinutesPerStart
	return finite(sum)
}

// currentRatings maps raw ratings onto the current-rating scale and applies
// the sample-size penalty.
func (e *Engine) currentRatings(rows []model.ProgressionRow, raw []float64) {
	lo, hi := raw[0], raw[0]
	for _, v := range raw[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := e.rules.CurrentMax - e.rules.CurrentMin

	for i := range rows {
		scaled := 50.0
		if hi > lo {
			scaled = (raw[i] - lo) / (hi - lo) * 100
		}
		mapped := e.rules.CurrentMin + clip(scaled, 0, 100)/100*span

		ps := rows[i].PlayerSeason
		factor := e.rules.SampleFactor(ps.Matches)
		if e.exceptional(ps) {
			rows[i].Exceptional = true
			factor = factor*0.5 + 0.5
		}
		rows[i].SamplePenalty = factor
		rows[i].Current = clip(mapped*factor, e.rules.CurrentMin, e.rules.CurrentMax)
	}
}

// exceptional reports whether a season clears at least the required number
// of the outstanding-output criteria.
func (e *Engine) exceptional(ps model.PlayerSeason) bool {
	if ps.Matches <= 0 || ps.Minutes <= 0 {
		return false
	}
	matches := float64(ps.Matches)
	met := 0
	if ps.Goals/matches >= e.rules.ExceptionalGoalsPerMatch {
		met++
	}
	if ps.Minutes/math.Max(ps.Goals, 1) <= e.rules.ExceptionalMinutesPerGoal {
		met++
	}
	if (ps.Goals+ps.Assists)/matches >= e.rules.ExceptionalContribPerMatch {
		met++
	}
	return met >= e.rules.ExceptionalRequired
}

// assignTiers places each row in its season's rating distribution and sets
// the growth modifiers.
func (e *Engine) assignTiers(rows []model.ProgressionRow) {
	bySeason := map[string][]float64{}
	for _, r := range rows {
		bySeason[r.Season] = append(bySeason[r.Season], r.Current)
	}
	for _, dist := range bySeason {
		sort.Float64s(dist)
	}
	for i := range rows {
		dist := bySeason[rows[i].Season]
		atOrBelow := sort.Search(len(dist), func(j int) bool { return dist[j] > rows[i].Current })
		rows[i].Percentile = float64(atOrBelow) / float64(len(dist)) * 100
		rows[i].PerformanceModifier, rows[i].Tier = e.rules.Tier(rows[i].Percentile)
		rows[i].AgeModifier = e.rules.AgeModifier(rows[i].Age)
		rows[i].PositionAgeBonus = e.rules.PositionAgeBonus(rows[i].Position, rows[i].Age)
	}
}

// projectPlayer walks one player's seasons in order. idx holds row indices
// owned exclusively by this call.
func (e *Engine) projectPlayer(rows []model.ProgressionRow, idx []int, consistency []float64) {
	sort.SliceStable(idx, func(a, b int) bool {
		return model.SeasonBefore(rows[idx[a]].PlayerSeason, rows[idx[b]].PlayerSeason)
	})

	c := playerConsistency(rows, idx)
	for n, i := range idx {
		consistency[i] = c
		if n > 0 {
			seasonGrowth(&rows[i], &rows[idx[n-1]])
		}
		e.project(&rows[i])
	}
}

// project computes next-season and peak ratings, then repairs ordering.
func (e *Engine) project(r *model.ProgressionRow) {
	rules := e.rules
	a, p := r.AgeModifier, r.PerformanceModifier

	growth := clip(rules.NextBaseGrowth*a*p, rules.NextMinGrowth*a, rules.NextMaxGrowth*a)
	r.NextSeason = math.Min(r.Current+growth, rules.NextCap)

	peakGrowth := clip(rules.PeakBaseGrowth*a*p, rules.PeakMinGrowth*a, rules.PeakMaxGrowth*a)
	r.Peak = math.Max(r.Current+peakGrowth, r.NextSeason+rules.MinPeakGap)
	r.Peak = math.Min(r.Peak, rules.PeakCap)

	var fixed []string
	r.Trajectory, fixed = Repair(r.Trajectory, rules)
	for _, f := range fixed {
		metrics.RecordProgressionRepair(f)
	}
}

func groupByPlayer(rows []model.ProgressionRow) [][]int {
	order := []string{}
	groups := map[string][]int{}
	for i, r := range rows {
		if _, ok := groups[r.Name]; !ok {
			order = append(order, r.Name)
		}
		groups[r.Name] = append(groups[r.Name], i)
	}
	out := make([][]int, 0, len(order))
	for _, name := range order {
		out = append(out, groups[name])
	}
	return out
}

func clip(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
