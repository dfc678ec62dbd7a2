package scoring

import (
	"math"

	"github.com/Dan9191/credit-risk-service/internal/artifact"
	"github.com/Dan9191/credit-risk-service/internal/models"
)

const (
	// BaseScore is the credit score of a certain defaulter
	BaseScore = 300
	// ScaleLength spreads the non-default probability over [BaseScore, BaseScore+ScaleLength]
	ScaleLength = 600
)

// Score evaluates the linear model on vec and derives probability, credit score and rating
func Score(vec FeatureVector, a *artifact.ModelArtifact) (models.ScoreResult, error) {
	z, err := LinearScore(vec, a)
	if err != nil {
		return models.ScoreResult{}, err
	}

	p := Logistic(z)
	cs := CreditScore(p)
	return models.ScoreResult{
		DefaultProbability: p,
		CreditScore:        cs,
		Rating:             RatingFor(cs),
	}, nil
}

// LinearScore returns dot(vec, coefficients) + intercept
func LinearScore(vec FeatureVector, a *artifact.ModelArtifact) (float64, error) {
	if vec.Len() != a.NumCoefficients() {
		return 0, &DimensionMismatchError{Features: vec.Len(), Coefficients: a.NumCoefficients()}
	}

	var dot float64
	for i, v := range vec.Values {
		dot += float64(v * a.Coefficient(i))
	}
	return dot + a.Intercept(), nil
}

// Logistic maps z to (0, 1) without overflowing exp for large |z|
func Logistic(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// CreditScore truncates BaseScore + (1-p)*ScaleLength toward zero
func CreditScore(defaultProbability float64) int {
	return int(BaseScore + float64((1-defaultProbability)*ScaleLength))
}

// RatingFor buckets a credit score. Bands are half-open except Excellent,
// which includes 900.
func RatingFor(score int) models.Rating {
	switch {
	case score >= 300 && score < 500:
		return models.RatingPoor
	case score >= 500 && score < 650:
		return models.RatingAverage
	case score >= 650 && score < 750:
		return models.RatingGood
	case score >= 750 && score <= 900:
		return models.RatingExcellent
	default:
		return models.RatingUndefined
	}
}
