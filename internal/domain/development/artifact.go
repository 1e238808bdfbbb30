package development

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Predictor maps a scaled feature vector to a development score.
type Predictor interface {
	Predict(x []float64) (float64, error)
}

// Scaler transforms a raw feature vector into model space.
type Scaler interface {
	Transform(x []float64) ([]float64, error)
}

// StandardScaler centres each column by Mean and divides by Scale.
type StandardScaler struct {
	Mean  []float64 `yaml:"mean"`
	Scale []float64 `yaml:"scale"`
}

// Transform implements Scaler. Zero scales leave the centred value as is.
func (s StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Mean) || len(x) != len(s.Scale) {
		return nil, fmt.Errorf("%w: scaler expects %d features, got %d", ErrFeatureMismatch, len(s.Mean), len(x))
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v - s.Mean[i]
		if s.Scale[i] != 0 {
			out[i] /= s.Scale[i]
		}
	}
	return out, nil
}

// LinearModel is a fitted linear regression head.
type LinearModel struct {
	Intercept    float64   `yaml:"intercept"`
	Coefficients []float64 `yaml:"coefficients"`
}

// Predict implements Predictor.
func (m LinearModel) Predict(x []float64) (float64, error) {
	if len(x) != len(m.Coefficients) {
		return 0, fmt.Errorf("%w: model expects %d features, got %d", ErrFeatureMismatch, len(m.Coefficients), len(x))
	}
	y := m.Intercept
	for i, c := range m.Coefficients {
		y += c * x[i]
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, ErrNonFinite
	}
	return y, nil
}

// Artifact is a trained development model as stored on disk.
type Artifact struct {
	Name     string         `yaml:"name"`
	Features []string       `yaml:"features"`
	Scaler   StandardScaler `yaml:"scaler"`
	Model    LinearModel    `yaml:"model"`
}

// LoadArtifact reads and validates a YAML model artifact.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return ParseArtifact(data)
}

// ParseArtifact decodes an artifact and checks it was trained on the same
// feature layout Features produces.
func ParseArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if len(a.Features) != len(FeatureNames) {
		return nil, fmt.Errorf("%w: %d features, want %d", ErrInvalidArtifact, len(a.Features), len(FeatureNames))
	}
	for i, name := range a.Features {
		if name != FeatureNames[i] {
			return nil, fmt.Errorf("%w: feature %d is %q, want %q", ErrInvalidArtifact, i, name, FeatureNames[i])
		}
	}
	n := len(FeatureNames)
	if len(a.Scaler.Mean) != n || len(a.Scaler.Scale) != n || len(a.Model.Coefficients) != n {
		return nil, fmt.Errorf("%w: scaler or coefficient length does not match %d features", ErrInvalidArtifact, n)
	}
	return &a, nil
}

// Predict implements Predictor using the artifact's linear head.
func (a *Artifact) Predict(x []float64) (float64, error) { return a.Model.Predict(x) }

// Transform implements Scaler using the artifact's scaler.
func (a *Artifact) Transform(x []float64) ([]float64, error) { return a.Scaler.Transform(x) }
