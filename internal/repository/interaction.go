package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"barberhub/internal/models"
)

// InteractionStat aggregates interactions of one type over a window.
type InteractionStat struct {
	Type               models.InteractionType `db:"interaction_type" json:"interaction_type"`
	Count              int                    `db:"count" json:"count"`
	AvgResponseSeconds float64                `db:"avg_response_seconds" json:"avg_response_seconds"`
}

// TenantCategoryRatio carries dismiss/acknowledge counts per
// tenant+category, feeding the feedback adjustment factor.
type TenantCategoryRatio struct {
	TenantID     string               `db:"tenant_id"`
	Category     models.AlertCategory `db:"category"`
	Dismissed    int                  `db:"dismissed"`
	Acknowledged int                  `db:"acknowledged"`
}

type InteractionRepository interface {
	Create(ctx context.Context, interaction *models.Interaction) error
	HasInteraction(ctx context.Context, alertID int64, userID string, typ models.InteractionType) (bool, error)
	StatsSince(ctx context.Context, tenantID string, since time.Time) ([]InteractionStat, error)
	DismissAckRatios(ctx context.Context, since time.Time) ([]TenantCategoryRatio, error)
}

type interactionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewInteractionRepository(db *sqlx.DB, logger *zap.Logger) InteractionRepository {
	return &interactionRepository{db: db, logger: logger}
}

func (r *interactionRepository) Create(ctx context.Context, interaction *models.Interaction) error {
	query := `INSERT INTO alert_interactions
			(id, alert_id, tenant_id, user_id, interaction_type, payload, response_time_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query,
		interaction.ID, interaction.AlertID, interaction.TenantID, interaction.UserID,
		interaction.Type, interaction.Payload, interaction.ResponseTimeSeconds, interaction.CreatedAt)
	return err
}

func (r *interactionRepository) HasInteraction(ctx context.Context, alertID int64, userID string, typ models.InteractionType) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM alert_interactions WHERE alert_id = $1 AND user_id = $2 AND interaction_type = $3`
	err := r.db.GetContext(ctx, &count, query, alertID, userID, typ)
	return count > 0, err
}

func (r *interactionRepository) StatsSince(ctx context.Context, tenantID string, since time.Time) ([]InteractionStat, error) {
	var stats []InteractionStat
	query := `SELECT interaction_type,
			COUNT(*) AS count,
			COALESCE(AVG(response_time_seconds), 0) AS avg_response_seconds
		FROM alert_interactions
		WHERE tenant_id = $1 AND created_at >= $2
		GROUP BY interaction_type`
	err := r.db.SelectContext(ctx, &stats, query, tenantID, since)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *interactionRepository) DismissAckRatios(ctx context.Context, since time.Time) ([]TenantCategoryRatio, error) {
	var ratios []TenantCategoryRatio
	query := `SELECT a.tenant_id, a.category,
			COUNT(*) FILTER (WHERE i.interaction_type = 'dismissed') AS dismissed,
			COUNT(*) FILTER (WHERE i.interaction_type = 'acknowledged') AS acknowledged
		FROM alert_interactions i
		JOIN alerts a ON a.id = i.alert_id
		WHERE i.created_at >= $1
		GROUP BY a.tenant_id, a.category`
	err := r.db.SelectContext(ctx, &ratios, query, since)
	if err != nil {
		return nil, err
	}
	return ratios, nil
}
