package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"barberhub/internal/models"
)

// feedbackAlpha is the weight of a new rating in the running average a
// rule keeps over user feedback.
const feedbackAlpha = 0.3

type RuleRepository interface {
	GetByTenantCategory(ctx context.Context, tenantID string, category models.AlertCategory) (*models.AlertRule, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*models.AlertRule, error)
	RecordTrigger(ctx context.Context, tenantID string, category models.AlertCategory) error
	FoldFeedback(ctx context.Context, tenantID string, category models.AlertCategory, score float64) error
}

type ruleRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewRuleRepository(db *sqlx.DB, logger *zap.Logger) RuleRepository {
	return &ruleRepository{db: db, logger: logger}
}

func (r *ruleRepository) GetByTenantCategory(ctx context.Context, tenantID string, category models.AlertCategory) (*models.AlertRule, error) {
	var rule models.AlertRule
	query := `SELECT id, tenant_id, category, conditions, thresholds, enabled,
			priority_weight, feedback_score, trigger_count, created_at, updated_at
		FROM alert_rules WHERE tenant_id = $1 AND category = $2`
	err := r.db.GetContext(ctx, &rule, query, tenantID, category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *ruleRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.AlertRule, error) {
	var rules []*models.AlertRule
	query := `SELECT id, tenant_id, category, conditions, thresholds, enabled,
			priority_weight, feedback_score, trigger_count, created_at, updated_at
		FROM alert_rules WHERE tenant_id = $1 ORDER BY category`
	err := r.db.SelectContext(ctx, &rules, query, tenantID)
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// RecordTrigger upserts the tenant+category rule and bumps its trigger
// count. New rules start with a neutral feedback score.
func (r *ruleRepository) RecordTrigger(ctx context.Context, tenantID string, category models.AlertCategory) error {
	query := `INSERT INTO alert_rules (tenant_id, category, enabled, priority_weight, feedback_score, trigger_count, created_at, updated_at)
		VALUES ($1, $2, TRUE, 1.0, 0.5, 1, NOW(), NOW())
		ON CONFLICT (tenant_id, category)
		DO UPDATE SET trigger_count = alert_rules.trigger_count + 1, updated_at = NOW()`
	_, err := r.db.ExecContext(ctx, query, tenantID, category)
	return err
}

// FoldFeedback moves the rule's running feedback score toward the new
// rating by feedbackAlpha.
func (r *ruleRepository) FoldFeedback(ctx context.Context, tenantID string, category models.AlertCategory, score float64) error {
	query := `INSERT INTO alert_rules (tenant_id, category, enabled, priority_weight, feedback_score, trigger_count, created_at, updated_at)
		VALUES ($1, $2, TRUE, 1.0, $3, 0, NOW(), NOW())
		ON CONFLICT (tenant_id, category)
		DO UPDATE SET feedback_score = alert_rules.feedback_score * (1 - $4) + $3 * $4, updated_at = NOW()`
	_, err := r.db.ExecContext(ctx, query, tenantID, category, score, feedbackAlpha)
	return err
}
