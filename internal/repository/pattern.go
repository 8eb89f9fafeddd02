package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"barberhub/internal/models"
)

type PatternRepository interface {
	Create(ctx context.Context, pattern *models.AlertPattern) error
	ListRecent(ctx context.Context, tenantID string, since time.Time) ([]*models.AlertPattern, error)
}

type patternRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPatternRepository(db *sqlx.DB, logger *zap.Logger) PatternRepository {
	return &patternRepository{db: db, logger: logger}
}

func (r *patternRepository) Create(ctx context.Context, pattern *models.AlertPattern) error {
	query := `INSERT INTO alert_patterns (id, tenant_id, kind, alert_ids, centroid, summary, size, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		pattern.ID, pattern.TenantID, pattern.Kind, pattern.AlertIDs,
		pattern.Centroid, pattern.Summary, pattern.Size, pattern.CreatedAt)
	return err
}

func (r *patternRepository) ListRecent(ctx context.Context, tenantID string, since time.Time) ([]*models.AlertPattern, error) {
	var patterns []*models.AlertPattern
	query := `SELECT id, tenant_id, kind, alert_ids, centroid, summary, size, created_at
		FROM alert_patterns WHERE tenant_id = $1 AND created_at >= $2 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &patterns, query, tenantID, since)
	if err != nil {
		return nil, err
	}
	return patterns, nil
}
