package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/Dan9191/credit-risk-service/internal/models"
)

// ErrMalformedArtifact is returned when an artifact cannot be decoded or fails validation
var ErrMalformedArtifact = errors.New("malformed model artifact")

// ScalerKind names the fitted transform stored in the artifact
type ScalerKind string

const (
	// ScalerMinMax applies x*scale + min per column
	ScalerMinMax ScalerKind = "minmax"
	// ScalerStandard applies (x - mean) / scale per column
	ScalerStandard ScalerKind = "standard"
)

// Model holds the fitted linear classifier parameters
type Model struct {
	Coefficients []float64 `json:"coefficients" yaml:"coefficients"`
	Intercept    float64   `json:"intercept" yaml:"intercept"`
}

// Scaler holds the fitted per-column scaling parameters
type Scaler struct {
	Kind    ScalerKind `json:"kind" yaml:"kind"`
	Columns []string   `json:"columns" yaml:"columns"`
	Scale   []float64  `json:"scale" yaml:"scale"`
	Min     []float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Mean    []float64  `json:"mean,omitempty" yaml:"mean,omitempty"`
}

// Bundle is the serialized form of a model artifact
type Bundle struct {
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Version     string   `json:"version,omitempty" yaml:"version,omitempty"`
	Model       Model    `json:"model" yaml:"model"`
	Scaler      Scaler   `json:"scaler" yaml:"scaler"`
	Features    []string `json:"features" yaml:"features"`
	ColsToScale []string `json:"cols_to_scale" yaml:"cols_to_scale"`
}

// ModelArtifact is the validated, immutable model bundle shared by all scoring calls.
// Fields are unexported and only reachable through read-only accessors.
type ModelArtifact struct {
	name         string
	version      string
	coefficients []float64
	intercept    float64
	features     []string
	scaler       Scaler
	fingerprint  string
}

// New validates b and returns an artifact holding private copies of its data
func New(b Bundle) (*ModelArtifact, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fingerprint: %v", ErrMalformedArtifact, err)
	}
	sum := sha256.Sum256(raw)

	return &ModelArtifact{
		name:         b.Name,
		version:      b.Version,
		coefficients: append([]float64(nil), b.Model.Coefficients...),
		intercept:    b.Model.Intercept,
		features:     append([]string(nil), b.Features...),
		scaler: Scaler{
			Kind:    b.Scaler.Kind,
			Columns: append([]string(nil), b.Scaler.Columns...),
			Scale:   append([]float64(nil), b.Scaler.Scale...),
			Min:     append([]float64(nil), b.Scaler.Min...),
			Mean:    append([]float64(nil), b.Scaler.Mean...),
		},
		fingerprint: hex.EncodeToString(sum[:]),
	}, nil
}

func (b *Bundle) validate() error {
	if len(b.Features) == 0 {
		return fmt.Errorf("%w: missing member features", ErrMalformedArtifact)
	}
	if len(b.Model.Coefficients) == 0 {
		return fmt.Errorf("%w: missing member model", ErrMalformedArtifact)
	}
	if len(b.Model.Coefficients) != len(b.Features) {
		return fmt.Errorf("%w: %d coefficients for %d features",
			ErrMalformedArtifact, len(b.Model.Coefficients), len(b.Features))
	}
	if err := uniqueNames("features", b.Features); err != nil {
		return err
	}
	if !finite(b.Model.Intercept) || !allFinite(b.Model.Coefficients) {
		return fmt.Errorf("%w: model parameters must be finite", ErrMalformedArtifact)
	}

	s := b.Scaler
	if len(s.Columns) == 0 {
		return fmt.Errorf("%w: missing member scaler", ErrMalformedArtifact)
	}
	if err := uniqueNames("scaler columns", s.Columns); err != nil {
		return err
	}
	if len(b.ColsToScale) == 0 {
		return fmt.Errorf("%w: missing member cols_to_scale", ErrMalformedArtifact)
	}
	if len(b.ColsToScale) != len(s.Columns) {
		return fmt.Errorf("%w: cols_to_scale has %d columns, scaler was fitted on %d",
			ErrMalformedArtifact, len(b.ColsToScale), len(s.Columns))
	}
	for i, c := range b.ColsToScale {
		if s.Columns[i] != c {
			return fmt.Errorf("%w: cols_to_scale[%d] is %q, scaler expects %q",
				ErrMalformedArtifact, i, c, s.Columns[i])
		}
	}
	if len(s.Scale) != len(s.Columns) || !allFinite(s.Scale) {
		return fmt.Errorf("%w: scaler needs %d finite scale values", ErrMalformedArtifact, len(s.Columns))
	}

	switch s.Kind {
	case ScalerMinMax:
		if len(s.Min) != len(s.Columns) || !allFinite(s.Min) {
			return fmt.Errorf("%w: minmax scaler needs %d finite min values", ErrMalformedArtifact, len(s.Columns))
		}
	case ScalerStandard:
		if len(s.Mean) != len(s.Columns) || !allFinite(s.Mean) {
			return fmt.Errorf("%w: standard scaler needs %d finite mean values", ErrMalformedArtifact, len(s.Columns))
		}
		for i, v := range s.Scale {
			if v == 0 {
				return fmt.Errorf("%w: standard scaler has zero scale for %q", ErrMalformedArtifact, s.Columns[i])
			}
		}
	default:
		return fmt.Errorf("%w: unknown scaler kind %q", ErrMalformedArtifact, s.Kind)
	}
	return nil
}

// NumFeatures returns the length of the ordered model feature list
func (a *ModelArtifact) NumFeatures() int { return len(a.features) }

// Feature returns the i-th model feature name
func (a *ModelArtifact) Feature(i int) string { return a.features[i] }

// Coefficient returns the coefficient aligned with Feature(i)
func (a *ModelArtifact) Coefficient(i int) float64 { return a.coefficients[i] }

// NumCoefficients returns the length of the coefficient vector
func (a *ModelArtifact) NumCoefficients() int { return len(a.coefficients) }

// Intercept returns the model intercept
func (a *ModelArtifact) Intercept() float64 { return a.intercept }

// NumScaled returns the number of columns the scaler was fitted on
func (a *ModelArtifact) NumScaled() int { return len(a.scaler.Columns) }

// ScaledFeature returns the i-th scaled column name
func (a *ModelArtifact) ScaledFeature(i int) string { return a.scaler.Columns[i] }

// ScaleValue applies the fitted transform of the i-th scaled column to x.
// The explicit conversion keeps the product rounded so results do not depend on FMA.
func (a *ModelArtifact) ScaleValue(i int, x float64) float64 {
	if a.scaler.Kind == ScalerStandard {
		return (x - a.scaler.Mean[i]) / a.scaler.Scale[i]
	}
	return float64(x*a.scaler.Scale[i]) + a.scaler.Min[i]
}

// Fingerprint returns a SHA-256 digest identifying the artifact contents
func (a *ModelArtifact) Fingerprint() string { return a.fingerprint }

// Describe returns a summary of the artifact
func (a *ModelArtifact) Describe() models.ModelInfo {
	return models.ModelInfo{
		Name:           a.name,
		Version:        a.version,
		ScalerKind:     string(a.scaler.Kind),
		Features:       append([]string(nil), a.features...),
		ScaledFeatures: append([]string(nil), a.scaler.Columns...),
		Fingerprint:    a.fingerprint,
	}
}

func uniqueNames(member string, names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			return fmt.Errorf("%w: empty name in %s", ErrMalformedArtifact, member)
		}
		if _, ok := seen[n]; ok {
			return fmt.Errorf("%w: duplicate %q in %s", ErrMalformedArtifact, n, member)
		}
		seen[n] = struct{}{}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(vs []float64) bool {
	for _, v := range vs {
		if !finite(v) {
			return false
		}
	}
	return true
}
