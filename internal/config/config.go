package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	Port               string
	LogLevel           string
	ArtifactSource     string
	ArtifactPath       string
	ArtifactName       string
	DBConn             string
	ArtifactHMACSecret string
	ArtifactHMAC       string
	JWTSecret          string
	RedisAddr          string
	CacheTTL           time.Duration
	BatchConcurrency   int
}

// NewConfig loads configuration from environment variables
func NewConfig() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "INFO"),
		ArtifactSource:     getEnv("ARTIFACT_SOURCE", SourceFile),
		ArtifactPath:       getEnv("ARTIFACT_PATH", "artifacts/model_data.json"),
		ArtifactName:       getEnv("ARTIFACT_NAME", "credit-risk-model"),
		DBConn:             getEnv("DB_CONN", ""),
		ArtifactHMACSecret: getEnv("ARTIFACT_HMAC_SECRET", ""),
		ArtifactHMAC:       getEnv("ARTIFACT_HMAC", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
	}

	ttl, err := time.ParseDuration(getEnv("CACHE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL: %w", err)
	}
	cfg.CacheTTL = ttl

	cfg.BatchConcurrency, err = strconv.Atoi(getEnv("BATCH_CONCURRENCY", "8"))
	if err != nil || cfg.BatchConcurrency < 1 {
		return nil, fmt.Errorf("BATCH_CONCURRENCY must be a positive integer")
	}

	switch cfg.ArtifactSource {
	case SourceFile:
		if cfg.ArtifactPath == "" {
			return nil, fmt.Errorf("ARTIFACT_PATH is required")
		}
	case SourcePostgres:
		if cfg.DBConn == "" {
			return nil, fmt.Errorf("DB_CONN is required for the postgres artifact source")
		}
		if cfg.ArtifactName == "" {
			return nil, fmt.Errorf("ARTIFACT_NAME is required")
		}
	default:
		return nil, fmt.Errorf("unknown ARTIFACT_SOURCE %q", cfg.ArtifactSource)
	}
	if cfg.ArtifactHMACSecret != "" && cfg.ArtifactHMAC == "" {
		return nil, fmt.Errorf("ARTIFACT_HMAC is required when ARTIFACT_HMAC_SECRET is set")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
