package scoring

import (
	"errors"

	"github.com/Dan9191/credit-risk-service/internal/artifact"
	"github.com/Dan9191/credit-risk-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Pipeline scores applications against one immutable model artifact.
// It holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	artifact *artifact.ModelArtifact
	log      *logrus.Logger
}

// NewPipeline binds a loaded artifact to a pipeline. A nil log falls back to
// the logrus standard logger.
func NewPipeline(a *artifact.ModelArtifact, log *logrus.Logger) (*Pipeline, error) {
	if a == nil {
		return nil, errors.New("model artifact is required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Pipeline{artifact: a, log: log}, nil
}

// Score runs feature construction, scaling and model evaluation for app
func (p *Pipeline) Score(app models.RawApplication) (models.ScoreResult, error) {
	rec := BuildFeatures(app)

	vec, err := ScaleAndProject(rec, p.artifact)
	if err != nil {
		return models.ScoreResult{}, err
	}

	res, err := Score(vec, p.artifact)
	if err != nil {
		return models.ScoreResult{}, err
	}

	p.log.WithFields(logrus.Fields{
		"loan_to_income": rec.LoanToIncome,
		"probability":    res.DefaultProbability,
		"credit_score":   res.CreditScore,
		"rating":         res.Rating,
	}).Debug("Application scored")
	return res, nil
}

// Artifact returns the model artifact the pipeline was built with
func (p *Pipeline) Artifact() *artifact.ModelArtifact {
	return p.artifact
}
