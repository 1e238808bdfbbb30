package development

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/talentscope/internal/domain/model"
	"github.com/okian/talentscope/pkg/logger"
	"github.com/okian/talentscope/pkg/metrics"
)

// Fallback reasons, used as metric labels.
const (
	reasonNoModel   = "no_model"
	reasonScaler    = "scaler_error"
	reasonPredict   = "predict_error"
	reasonPanic     = "panic"
	reasonNonFinite = "non_finite"
)

var ageScores = map[int]float64{16: 85, 17: 80, 18: 75, 19: 70, 20: 65}

const (
	youngestAge     = 16
	defaultAgeScore = 60.0
	maxDevelopment  = 100.0
	minDevelopment  = 0.0
)

// Result is a development estimate and where it came from.
type Result struct {
	Score  float64
	Source string // model.SourceModel or model.SourceFallback
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithModel sets the trained predictor and the scaler applied before it.
func WithModel(p Predictor, s Scaler) Option {
	return func(e *Estimator) {
		if p != nil && s != nil {
			e.predictor = p
			e.scaler = s
		}
	}
}

// WithArtifact uses a loaded artifact as both scaler and predictor.
func WithArtifact(a *Artifact) Option {
	return func(e *Estimator) {
		if a != nil {
			e.predictor = a
			e.scaler = a
			e.name = a.Name
		}
	}
}

// WithLogger sets the logger used to report fallbacks.
func WithLogger(l logger.Logger) Option {
	return func(e *Estimator) {
		if l != nil {
			e.log = l
		}
	}
}

// Estimator produces development scores. It never fails: any problem with
// the trained model is logged and the heuristic answers instead.
type Estimator struct {
	predictor Predictor
	scaler    Scaler
	name      string
	log       logger.Logger
}

// NewEstimator builds an Estimator. Without a model it always uses the
// heuristic.
func NewEstimator(opts ...Option) *Estimator {
	e := &Estimator{log: logger.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HasModel reports whether a trained model is configured.
func (e *Estimator) HasModel() bool { return e.predictor != nil }

// ModelName returns the artifact name, if any.
func (e *Estimator) ModelName() string { return e.name }

// Estimate scores the development potential of a season in [0, 100].
func (e *Estimator) Estimate(ctx context.Context, ps model.PlayerSeason, rates model.Rates) Result {
	if e.predictor == nil {
		metrics.RecordPredictorFallback(reasonNoModel)
		return Result{Score: Fallback(ps), Source: model.SourceFallback}
	}

	score, reason, err := e.predict(Features(ps, rates))
	if err != nil {
		metrics.RecordPredictorFallback(reason)
		e.log.Warn(ctx, "development model failed, using heuristic",
			logger.String("player", ps.Name),
			logger.String("reason", reason),
			logger.Error(err))
		return Result{Score: Fallback(ps), Source: model.SourceFallback}
	}
	return Result{Score: clampScore(score), Source: model.SourceModel}
}

func (e *Estimator) predict(x []float64) (score float64, reason string, err error) {
	defer func() {
		if r := recover(); r != nil {
			score, reason, err = 0, reasonPanic, fmt.Errorf("predictor panic: %v", r)
		}
	}()

	scaled, err := e.scaler.Transform(x)
	if err != nil {
		return 0, reasonScaler, err
	}
	y, err := e.predictor.Predict(scaled)
	if err != nil {
		if errors.Is(err, ErrNonFinite) {
			return 0, reasonNonFinite, err
		}
		return 0, reasonPredict, err
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, reasonNonFinite, ErrNonFinite
	}
	return y, "", nil
}

// Fallback is the deterministic development heuristic: an age bucket score
// plus a bonus for matches played.
func Fallback(ps model.PlayerSeason) float64 {
	score := defaultAgeScore
	if ps.Age <= youngestAge {
		score = ageScores[youngestAge]
	} else if s, ok := ageScores[ps.Age]; ok {
		score = s
	}
	return clampScore(score + matchesBonus(ps.Matches))
}

func matchesBonus(matches int) float64 {
	switch {
	case matches >= 20:
		return 10
	case matches >= 15:
		return 7
	case matches >= 10:
		return 4
	case matches >= 5:
		return 2
	default:
		return 0
	}
}

func clampScore(v float64) float64 {
	return math.Max(minDevelopment, math.Min(maxDevelopment, v))
}
