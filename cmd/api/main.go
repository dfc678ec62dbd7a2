package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/credit-risk-service/internal/artifact"
	"github.com/Dan9191/credit-risk-service/internal/config"
	"github.com/Dan9191/credit-risk-service/internal/handler"
	"github.com/Dan9191/credit-risk-service/internal/repository"
	"github.com/Dan9191/credit-risk-service/internal/scoring"
	"github.com/Dan9191/credit-risk-service/internal/service"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const (
	artifactLoadTimeout = 30 * time.Second
	shutdownTimeout     = 10 * time.Second
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Load the model artifact once; nothing is served without it
	src, closeSource, err := artifactSource(cfg)
	if err != nil {
		logger.Fatalf("Failed to open artifact store: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), artifactLoadTimeout)
	model, err := artifact.NewLoader(cfg.ArtifactHMACSecret, cfg.ArtifactHMAC, logger).Load(ctx, src)
	cancel()
	closeSource()
	if err != nil {
		logger.Fatalf("Failed to load model artifact: %v", err)
	}

	// Initialize layers
	pipeline, err := scoring.NewPipeline(model, logger)
	if err != nil {
		logger.Fatalf("Failed to build scoring pipeline: %v", err)
	}
	cache := scoreCache(cfg, logger)
	svc := service.NewService(pipeline, cache, logger, cfg)
	h := handler.NewHandler(svc, logger)
	r := handler.NewRouter(h, cfg)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Fatalf("Server failed: %v", err)
	case <-quit:
		logger.Info("Shutting down server")
	}

	ctx, cancel = context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	if rc, ok := cache.(*repository.RedisCache); ok {
		rc.Close()
	}
}

// artifactSource returns where to read the model from and a cleanup func
func artifactSource(cfg *config.Config) (artifact.Source, func(), error) {
	if cfg.ArtifactSource != config.SourcePostgres {
		return artifact.FileSource{Path: cfg.ArtifactPath}, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return repository.NewArtifactRepository(db, cfg.ArtifactName), func() { db.Close() }, nil
}

// scoreCache picks Redis when configured and reachable, an in-process cache otherwise
func scoreCache(cfg *config.Config, logger *logrus.Logger) repository.CacheRepository {
	if cfg.RedisAddr == "" {
		return repository.NewMemoryCache()
	}
	rc := repository.NewRedisCache(cfg.RedisAddr)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		logger.Warnf("Redis unavailable, using in-memory cache: %v", err)
		rc.Close()
		return repository.NewMemoryCache()
	}
	logger.Infof("Using redis score cache at %s", cfg.RedisAddr)
	return rc
}
