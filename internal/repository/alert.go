package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"barberhub/internal/models"
)

// ErrDuplicateFingerprint is returned by Create when another active
// alert with the same tenant+fingerprint won the insert race.
var ErrDuplicateFingerprint = errors.New("active alert with this fingerprint already exists")

// pqUniqueViolation is the Postgres error code for unique_violation.
const pqUniqueViolation = "23505"

const alertColumns = `id, tenant_id, fingerprint, category, priority, status, status_reason,
	title, message, confidence, severity, urgency, business_impact,
	source_data, metadata, recommended_actions, ml_features,
	similar_alert_count, created_at, updated_at, expires_at`

// priorityRankSQL orders alerts critical-first without a rank column.
const priorityRankSQL = `CASE priority
	WHEN 'critical' THEN 5 WHEN 'high' THEN 4 WHEN 'medium' THEN 3
	WHEN 'low' THEN 2 ELSE 1 END`

type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, tenantID string, id int64) (*models.Alert, error)
	FindRecentByFingerprint(ctx context.Context, tenantID, fingerprint string, since time.Time) (*models.Alert, error)
	IncrementSimilarCount(ctx context.Context, id int64) (*models.Alert, error)
	UpdateStatus(ctx context.Context, id int64, status models.AlertStatus, reason *string, expiresAt *time.Time) error
	ListActive(ctx context.Context, tenantID string, minRank int, category *models.AlertCategory, limit int) ([]*models.Alert, error)
	ListCreatedSince(ctx context.Context, tenantID string, since time.Time, limit int) ([]*models.Alert, error)
	ListActiveWithFeatures(ctx context.Context, since time.Time, limit int) ([]*models.Alert, error)
	CountRecent(ctx context.Context, tenantID string, category models.AlertCategory, since time.Time) (int, error)
	CountRecentByTitle(ctx context.Context, tenantID, title string, since time.Time) (int, error)
	ExpireDue(ctx context.Context, now time.Time, reason string) (int64, error)
	WakeSnoozed(ctx context.Context, now time.Time, newExpiry time.Time) (int64, error)
	TenantsWithRecentAlerts(ctx context.Context, since time.Time) ([]string, error)
	RollupCounts(ctx context.Context, tenantID string, since time.Time) (map[string]int, error)
}

type alertRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAlertRepository(db *sqlx.DB, logger *zap.Logger) AlertRepository {
	return &alertRepository{db: db, logger: logger}
}

func (r *alertRepository) Create(ctx context.Context, alert *models.Alert) error {
	query := `INSERT INTO alerts (tenant_id, fingerprint, category, priority, status, status_reason,
			title, message, confidence, severity, urgency, business_impact,
			source_data, metadata, recommended_actions, ml_features,
			similar_alert_count, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id`
	err := r.db.QueryRowxContext(ctx, query,
		alert.TenantID, alert.Fingerprint, alert.Category, alert.Priority, alert.Status, alert.StatusReason,
		alert.Title, alert.Message, alert.Confidence, alert.Severity, alert.Urgency, alert.BusinessImpact,
		alert.SourceData, alert.Metadata, alert.RecommendedActions, alert.MLFeatures,
		alert.SimilarAlertCount, alert.CreatedAt, alert.UpdatedAt, alert.ExpiresAt,
	).Scan(&alert.ID)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return ErrDuplicateFingerprint
	}
	return err
}

func (r *alertRepository) GetByID(ctx context.Context, tenantID string, id int64) (*models.Alert, error) {
	var alert models.Alert
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE id = $1 AND tenant_id = $2`
	err := r.db.GetContext(ctx, &alert, query, id, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

// FindRecentByFingerprint returns the newest alert with the same
// fingerprint that is still active or was created after 'since'. Used by
// the dedup window check before scoring.
func (r *alertRepository) FindRecentByFingerprint(ctx context.Context, tenantID, fingerprint string, since time.Time) (*models.Alert, error) {
	var alert models.Alert
	query := `SELECT ` + alertColumns + ` FROM alerts
		WHERE tenant_id = $1 AND fingerprint = $2 AND (status = 'active' OR created_at > $3)
		ORDER BY created_at DESC LIMIT 1`
	err := r.db.GetContext(ctx, &alert, query, tenantID, fingerprint, since)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

// IncrementSimilarCount bumps similar_alert_count atomically and returns
// the updated row, so concurrent duplicate creations never double-count.
func (r *alertRepository) IncrementSimilarCount(ctx context.Context, id int64) (*models.Alert, error) {
	var alert models.Alert
	query := `UPDATE alerts
		SET similar_alert_count = similar_alert_count + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + alertColumns
	err := r.db.GetContext(ctx, &alert, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) UpdateStatus(ctx context.Context, id int64, status models.AlertStatus, reason *string, expiresAt *time.Time) error {
	query := `UPDATE alerts
		SET status = $1, status_reason = $2, updated_at = NOW(),
			expires_at = COALESCE($3, expires_at)
		WHERE id = $4`
	_, err := r.db.ExecContext(ctx, query, status, reason, expiresAt, id)
	return err
}

func (r *alertRepository) ListActive(ctx context.Context, tenantID string, minRank int, category *models.AlertCategory, limit int) ([]*models.Alert, error) {
	var alerts []*models.Alert
	query := `SELECT ` + alertColumns + ` FROM alerts
		WHERE tenant_id = $1 AND status = 'active' AND ` + priorityRankSQL + ` >= $2
		AND ($3::text IS NULL OR category = $3)
		ORDER BY ` + priorityRankSQL + ` DESC, urgency DESC, created_at DESC
		LIMIT $4`
	var cat interface{}
	if category != nil {
		cat = string(*category)
	}
	err := r.db.SelectContext(ctx, &alerts, query, tenantID, minRank, cat, limit)
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *alertRepository) ListCreatedSince(ctx context.Context, tenantID string, since time.Time, limit int) ([]*models.Alert, error) {
	var alerts []*models.Alert
	query := `SELECT ` + alertColumns + ` FROM alerts
		WHERE tenant_id = $1 AND created_at >= $2
		ORDER BY created_at DESC LIMIT $3`
	err := r.db.SelectContext(ctx, &alerts, query, tenantID, since, limit)
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// ListActiveWithFeatures feeds the background clustering pass; scans all
// tenants because the processor owns the whole store.
func (r *alertRepository) ListActiveWithFeatures(ctx context.Context, since time.Time, limit int) ([]*models.Alert, error) {
	var alerts []*models.Alert
	query := `SELECT ` + alertColumns + ` FROM alerts
		WHERE status = 'active' AND created_at >= $1 AND ml_features <> '{}'::jsonb
		ORDER BY created_at DESC LIMIT $2`
	err := r.db.SelectContext(ctx, &alerts, query, since, limit)
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

func (r *alertRepository) CountRecent(ctx context.Context, tenantID string, category models.AlertCategory, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM alerts WHERE tenant_id = $1 AND category = $2 AND created_at >= $3`
	err := r.db.GetContext(ctx, &count, query, tenantID, category, since)
	return count, err
}

// CountRecentByTitle counts near-duplicates: alerts with the same title
// whose payloads differ enough to carry distinct fingerprints.
func (r *alertRepository) CountRecentByTitle(ctx context.Context, tenantID, title string, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM alerts WHERE tenant_id = $1 AND title = $2 AND created_at >= $3`
	err := r.db.GetContext(ctx, &count, query, tenantID, title, since)
	return count, err
}

// ExpireDue dismisses every non-terminal, non-snoozed alert whose
// expires_at has passed.
func (r *alertRepository) ExpireDue(ctx context.Context, now time.Time, reason string) (int64, error) {
	query := `UPDATE alerts SET status = 'dismissed', status_reason = $1, updated_at = NOW()
		WHERE status IN ('active', 'acknowledged') AND expires_at IS NOT NULL AND expires_at <= $2`
	res, err := r.db.ExecContext(ctx, query, reason, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// WakeSnoozed reactivates snoozed alerts whose wake time (stored in
// expires_at) has elapsed, pushing expiry out to newExpiry.
func (r *alertRepository) WakeSnoozed(ctx context.Context, now time.Time, newExpiry time.Time) (int64, error) {
	query := `UPDATE alerts SET status = 'active', status_reason = NULL, expires_at = $1, updated_at = NOW()
		WHERE status = 'snoozed' AND expires_at IS NOT NULL AND expires_at <= $2`
	res, err := r.db.ExecContext(ctx, query, newExpiry, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *alertRepository) TenantsWithRecentAlerts(ctx context.Context, since time.Time) ([]string, error) {
	var tenants []string
	query := `SELECT DISTINCT tenant_id FROM alerts WHERE created_at >= $1`
	err := r.db.SelectContext(ctx, &tenants, query, since)
	return tenants, err
}

func (r *alertRepository) RollupCounts(ctx context.Context, tenantID string, since time.Time) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx,
		`SELECT category, priority, COUNT(*) FROM alerts
		 WHERE tenant_id = $1 AND created_at >= $2
		 GROUP BY category, priority`, tenantID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category, priority string
		var n int
		if err := rows.Scan(&category, &priority, &n); err != nil {
			r.logger.Error("Failed to scan rollup row", zap.Error(err))
			continue
		}
		counts[category+"/"+priority] = n
	}
	return counts, rows.Err()
}
