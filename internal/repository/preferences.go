package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"barberhub/internal/models"
)

type PreferencesRepository interface {
	Get(ctx context.Context, tenantID, userID string) (*models.UserAlertPreferences, error)
	Upsert(ctx context.Context, prefs *models.UserAlertPreferences) (*models.UserAlertPreferences, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*models.UserAlertPreferences, error)
}

type preferencesRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPreferencesRepository(db *sqlx.DB, logger *zap.Logger) PreferencesRepository {
	return &preferencesRepository{db: db, logger: logger}
}

const preferencesColumns = `id, tenant_id, user_id, email_enabled, sms_enabled, push_enabled,
	priority_threshold, quiet_hours_start, quiet_hours_end, category_enabled, daily_caps, updated_at`

func (r *preferencesRepository) Get(ctx context.Context, tenantID, userID string) (*models.UserAlertPreferences, error) {
	var prefs models.UserAlertPreferences
	query := `SELECT ` + preferencesColumns + ` FROM user_alert_preferences WHERE tenant_id = $1 AND user_id = $2`
	err := r.db.GetContext(ctx, &prefs, query, tenantID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &prefs, nil
}

// Upsert replaces the full preference object; partial merges are not
// supported by the API contract.
func (r *preferencesRepository) Upsert(ctx context.Context, prefs *models.UserAlertPreferences) (*models.UserAlertPreferences, error) {
	query := `INSERT INTO user_alert_preferences
			(tenant_id, user_id, email_enabled, sms_enabled, push_enabled,
			 priority_threshold, quiet_hours_start, quiet_hours_end, category_enabled, daily_caps, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (tenant_id, user_id) DO UPDATE SET
			email_enabled = EXCLUDED.email_enabled,
			sms_enabled = EXCLUDED.sms_enabled,
			push_enabled = EXCLUDED.push_enabled,
			priority_threshold = EXCLUDED.priority_threshold,
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end = EXCLUDED.quiet_hours_end,
			category_enabled = EXCLUDED.category_enabled,
			daily_caps = EXCLUDED.daily_caps,
			updated_at = NOW()
		RETURNING ` + preferencesColumns
	var stored models.UserAlertPreferences
	err := r.db.GetContext(ctx, &stored, query,
		prefs.TenantID, prefs.UserID, prefs.EmailEnabled, prefs.SMSEnabled, prefs.PushEnabled,
		prefs.PriorityThreshold, prefs.QuietHoursStart, prefs.QuietHoursEnd, prefs.CategoryEnabled, prefs.DailyCaps)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *preferencesRepository) ListByTenant(ctx context.Context, tenantID string) ([]*models.UserAlertPreferences, error) {
	var out []*models.UserAlertPreferences
	query := `SELECT ` + preferencesColumns + ` FROM user_alert_preferences WHERE tenant_id = $1 ORDER BY user_id`
	err := r.db.SelectContext(ctx, &out, query, tenantID)
	if err != nil {
		return nil, err
	}
	return out, nil
}
