package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/credit-risk-service/internal/config"
	"github.com/Dan9191/credit-risk-service/internal/models"
	"github.com/Dan9191/credit-risk-service/internal/repository"
	"github.com/Dan9191/credit-risk-service/internal/scoring"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// MaxBatchSize bounds the number of applications accepted by ScoreBatch
const MaxBatchSize = 100

// ErrPredictionFailed wraps every pipeline failure returned to callers
var ErrPredictionFailed = errors.New("prediction failed")

// Service handles scoring requests
type Service struct {
	pipeline    *scoring.Pipeline
	cache       repository.CacheRepository
	cacheTTL    time.Duration
	concurrency int
	log         *logrus.Logger
}

// NewService initializes a new service. cache may be nil to disable result caching.
func NewService(pipeline *scoring.Pipeline, cache repository.CacheRepository, log *logrus.Logger, cfg *config.Config) *Service {
	concurrency := cfg.BatchConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		pipeline:    pipeline,
		cache:       cache,
		cacheTTL:    cfg.CacheTTL,
		concurrency: concurrency,
		log:         log,
	}
}

// Score validates app and returns its default probability, credit score and rating
func (s *Service) Score(ctx context.Context, app models.RawApplication) (models.ScoreResult, error) {
	if err := Validate(app); err != nil {
		return models.ScoreResult{}, err
	}

	key, err := s.cacheKey(app)
	if err != nil {
		return models.ScoreResult{}, err
	}
	if res, ok := s.cached(ctx, key); ok {
		return res, nil
	}

	res, err := s.pipeline.Score(app)
	if err != nil {
		s.log.Errorf("Prediction failed: %v", err)
		return models.ScoreResult{}, fmt.Errorf("%w: %w", ErrPredictionFailed, err)
	}

	s.store(ctx, key, res)
	return res, nil
}

// ScoreBatch scores apps concurrently. Results keep input order; the first failure
// cancels the remaining work.
func (s *Service) ScoreBatch(ctx context.Context, apps []models.RawApplication) ([]models.ScoreResult, error) {
	if len(apps) == 0 {
		return nil, &ValidationError{Field: "applications", Reason: "at least one application is required"}
	}
	if len(apps) > MaxBatchSize {
		return nil, &ValidationError{Field: "applications", Reason: fmt.Sprintf("at most %d applications per batch", MaxBatchSize)}
	}

	results := make([]models.ScoreResult, len(apps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range apps {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.Score(gctx, apps[i])
			if err != nil {
				return fmt.Errorf("application %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.Infof("Scored batch of %d applications", len(apps))
	return results, nil
}

// Model describes the artifact used for scoring
func (s *Service) Model() models.ModelInfo {
	return s.pipeline.Artifact().Describe()
}

// cacheKey binds the application to the artifact so a new model never serves stale results
func (s *Service) cacheKey(app models.RawApplication) (string, error) {
	b, err := json.Marshal(app)
	if err != nil {
		return "", fmt.Errorf("failed to encode application: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(s.pipeline.Artifact().Fingerprint()))
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func (s *Service) cached(ctx context.Context, key string) (models.ScoreResult, bool) {
	var res models.ScoreResult
	if s.cache == nil {
		return res, false
	}
	val, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrCacheMiss) {
			s.log.Warnf("Cache read failed: %v", err)
		}
		return res, false
	}
	if err := json.Unmarshal([]byte(val), &res); err != nil {
		s.log.Warnf("Discarding unreadable cache entry: %v", err)
		return res, false
	}
	s.log.Debugf("Cache hit for %s", key[:12])
	return res, true
}

func (s *Service) store(ctx context.Context, key string, res models.ScoreResult) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(res)
	if err != nil {
		s.log.Warnf("Failed to encode score result: %v", err)
		return
	}
	// Not critical if caching fails
	if err := s.cache.Set(ctx, key, string(b), s.cacheTTL); err != nil {
		s.log.Warnf("Failed to cache score result: %v", err)
	}
}
