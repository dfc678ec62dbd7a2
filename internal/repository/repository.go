package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dan9191/credit-risk-service/internal/artifact"
)

// ArtifactRepository reads model artifacts stored in Postgres
type ArtifactRepository struct {
	db   *sql.DB
	name string
}

// NewArtifactRepository initializes a repository serving the named artifact
func NewArtifactRepository(db *sql.DB, name string) *ArtifactRepository {
	return &ArtifactRepository{db: db, name: name}
}

// Fetch returns the payload of the most recently stored artifact with the configured name
func (r *ArtifactRepository) Fetch(ctx context.Context) ([]byte, artifact.Format, error) {
	query := `
		SELECT payload
		FROM bank.model_artifacts
		WHERE name = $1
		ORDER BY created_at DESC
		LIMIT 1`
	var payload []byte
	err := r.db.QueryRowContext(ctx, query, r.name).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("model artifact %q not found", r.name)
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to find model artifact: %w", err)
	}
	return payload, artifact.FormatJSON, nil
}

// Save stores a new artifact version. The payload must be a JSON bundle.
func (r *ArtifactRepository) Save(ctx context.Context, version string, payload []byte) error {
	query := `
		INSERT INTO bank.model_artifacts (name, version, payload, created_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)`
	if _, err := r.db.ExecContext(ctx, query, r.name, version, payload); err != nil {
		return fmt.Errorf("failed to save model artifact: %w", err)
	}
	return nil
}

func (r *ArtifactRepository) String() string {
	return "postgres:" + r.name
}
