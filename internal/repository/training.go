package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"barberhub/internal/models"
)

type TrainingRepository interface {
	Create(ctx context.Context, sample *models.TrainingSample) error
	ListSince(ctx context.Context, since time.Time, limit int) ([]*models.TrainingSample, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type trainingRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewTrainingRepository(db *sqlx.DB, logger *zap.Logger) TrainingRepository {
	return &trainingRepository{db: db, logger: logger}
}

func (r *trainingRepository) Create(ctx context.Context, sample *models.TrainingSample) error {
	query := `INSERT INTO alert_training_samples
			(tenant_id, alert_id, category, features, user_response, feedback_score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return r.db.QueryRowxContext(ctx, query,
		sample.TenantID, sample.AlertID, sample.Category, sample.Features,
		sample.UserResponse, sample.FeedbackScore, sample.CreatedAt,
	).Scan(&sample.ID)
}

func (r *trainingRepository) ListSince(ctx context.Context, since time.Time, limit int) ([]*models.TrainingSample, error) {
	var samples []*models.TrainingSample
	query := `SELECT id, tenant_id, alert_id, category, features, user_response, feedback_score, created_at
		FROM alert_training_samples WHERE created_at > $1 ORDER BY created_at ASC LIMIT $2`
	err := r.db.SelectContext(ctx, &samples, query, since, limit)
	if err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *trainingRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM alert_training_samples WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
