package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"barberhub/internal/models"
	"barberhub/internal/repository"
)

// ErrAlertNotFound is returned when an operation targets an alert that
// does not exist for the tenant.
var ErrAlertNotFound = errors.New("alert not found")

// Feedback scores attached to training samples per interaction outcome.
const (
	ackFeedbackScore     = 0.7
	usefulFeedbackScore  = 0.6
	noiseFeedbackScore   = 0.1
	defaultFeedbackScore = 0.2
)

// Result reports the outcome of a lifecycle operation. Changed is false
// when the call was an idempotent no-op against an already-settled alert.
type Result struct {
	Alert   *models.Alert
	Changed bool
}

// Manager owns the alert state machine and records user interactions
// and the feedback they carry.
type Manager struct {
	alerts       repository.AlertRepository
	interactions repository.InteractionRepository
	training     repository.TrainingRepository
	rules        repository.RuleRepository
	logger       *zap.Logger
	now          func() time.Time
}

func NewManager(
	alerts repository.AlertRepository,
	interactions repository.InteractionRepository,
	training repository.TrainingRepository,
	rules repository.RuleRepository,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		alerts:       alerts,
		interactions: interactions,
		training:     training,
		rules:        rules,
		logger:       logger,
		now:          time.Now,
	}
}

// Acknowledge moves an active alert to acknowledged and records the
// interaction. Acknowledging an already-settled alert succeeds without
// mutating anything, so retried client calls stay safe.
func (m *Manager) Acknowledge(ctx context.Context, tenantID string, alertID int64, userID, notes string) (*Result, error) {
	alert, err := m.alerts.GetByID(ctx, tenantID, alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}
	if alert == nil {
		return nil, ErrAlertNotFound
	}
	if alert.Status.Terminal() || alert.Status == models.StatusAcknowledged {
		return &Result{Alert: alert, Changed: false}, nil
	}

	if err := m.alerts.UpdateStatus(ctx, alert.ID, models.StatusAcknowledged, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to update alert status: %w", err)
	}
	alert.Status = models.StatusAcknowledged
	alert.UpdatedAt = m.now()

	// An alert can return to active after a snooze wake; a repeat
	// acknowledgement by the same user must not double-count feedback.
	seen, err := m.interactions.HasInteraction(ctx, alert.ID, userID, models.InteractionAcknowledged)
	if err != nil {
		m.logger.Error("Failed to check for prior acknowledgement",
			zap.Int64("alert_id", alert.ID), zap.Error(err))
	}
	if !seen {
		payload := models.JSONMap{}
		if notes != "" {
			payload["notes"] = notes
		}
		m.recordInteraction(ctx, alert, userID, models.InteractionAcknowledged, payload)
		m.appendSample(ctx, alert, "acknowledged", ackFeedbackScore)
	}

	return &Result{Alert: alert, Changed: true}, nil
}

// Dismiss moves an alert to the dismissed terminal state, derives a
// feedback score from the feedback text, and folds it into the owning
// rule so future similar alerts score differently.
func (m *Manager) Dismiss(ctx context.Context, tenantID string, alertID int64, userID, feedback, reason string) (*Result, error) {
	alert, err := m.alerts.GetByID(ctx, tenantID, alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}
	if alert == nil {
		return nil, ErrAlertNotFound
	}
	if alert.Status.Terminal() {
		return &Result{Alert: alert, Changed: false}, nil
	}

	var statusReason *string
	if reason != "" {
		statusReason = &reason
	}
	if err := m.alerts.UpdateStatus(ctx, alert.ID, models.StatusDismissed, statusReason, nil); err != nil {
		return nil, fmt.Errorf("failed to update alert status: %w", err)
	}
	alert.Status = models.StatusDismissed
	alert.StatusReason = statusReason
	alert.UpdatedAt = m.now()

	payload := models.JSONMap{}
	if feedback != "" {
		payload["feedback"] = feedback
	}
	if reason != "" {
		payload["reason"] = reason
	}
	m.recordInteraction(ctx, alert, userID, models.InteractionDismissed, payload)

	score := FeedbackScore(feedback)
	m.appendSample(ctx, alert, feedback, score)
	if err := m.rules.FoldFeedback(ctx, alert.TenantID, alert.Category, score); err != nil {
		m.logger.Error("Failed to fold feedback into alert rule",
			zap.String("tenant_id", alert.TenantID),
			zap.String("category", string(alert.Category)),
			zap.Error(err))
	}

	return &Result{Alert: alert, Changed: true}, nil
}

// Resolve moves an active or acknowledged alert to the resolved
// terminal state.
func (m *Manager) Resolve(ctx context.Context, tenantID string, alertID int64, userID, notes string) (*Result, error) {
	alert, err := m.alerts.GetByID(ctx, tenantID, alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}
	if alert == nil {
		return nil, ErrAlertNotFound
	}
	if alert.Status.Terminal() {
		return &Result{Alert: alert, Changed: false}, nil
	}

	if err := m.alerts.UpdateStatus(ctx, alert.ID, models.StatusResolved, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to update alert status: %w", err)
	}
	alert.Status = models.StatusResolved
	alert.UpdatedAt = m.now()

	payload := models.JSONMap{}
	if notes != "" {
		payload["notes"] = notes
	}
	m.recordInteraction(ctx, alert, userID, models.InteractionResolved, payload)

	return &Result{Alert: alert, Changed: true}, nil
}

// Snooze parks an active alert until the wake time, stored in
// expires_at; the background sweep reactivates it once due.
func (m *Manager) Snooze(ctx context.Context, tenantID string, alertID int64, userID string, until time.Time) (*Result, error) {
	alert, err := m.alerts.GetByID(ctx, tenantID, alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}
	if alert == nil {
		return nil, ErrAlertNotFound
	}
	if alert.Status.Terminal() || alert.Status == models.StatusSnoozed {
		return &Result{Alert: alert, Changed: false}, nil
	}
	if until.Before(m.now()) {
		return nil, fmt.Errorf("snooze time %s is in the past", until.Format(time.RFC3339))
	}

	if err := m.alerts.UpdateStatus(ctx, alert.ID, models.StatusSnoozed, nil, &until); err != nil {
		return nil, fmt.Errorf("failed to update alert status: %w", err)
	}
	alert.Status = models.StatusSnoozed
	alert.ExpiresAt = &until
	alert.UpdatedAt = m.now()

	m.recordInteraction(ctx, alert, userID, models.InteractionSnoozed, models.JSONMap{
		"snoozed_until": until.Format(time.RFC3339),
	})

	return &Result{Alert: alert, Changed: true}, nil
}

// FeedbackScore derives a usefulness rating from dismissal feedback
// text. Negative signals are checked first so "not useful" is not read
// as praise.
func FeedbackScore(feedback string) float64 {
	text := strings.ToLower(feedback)
	for _, noise := range []string{"spam", "noise", "irrelevant", "not useful"} {
		if strings.Contains(text, noise) {
			return noiseFeedbackScore
		}
	}
	if strings.Contains(text, "useful") {
		return usefulFeedbackScore
	}
	return defaultFeedbackScore
}

func (m *Manager) recordInteraction(ctx context.Context, alert *models.Alert, userID string, typ models.InteractionType, payload models.JSONMap) {
	interaction := &models.Interaction{
		ID:                  uuid.NewString(),
		AlertID:             alert.ID,
		TenantID:            alert.TenantID,
		UserID:              userID,
		Type:                typ,
		Payload:             payload,
		ResponseTimeSeconds: m.now().Sub(alert.CreatedAt).Seconds(),
		CreatedAt:           m.now(),
	}
	if err := m.interactions.Create(ctx, interaction); err != nil {
		m.logger.Error("Failed to record interaction",
			zap.Int64("alert_id", alert.ID),
			zap.String("type", string(typ)),
			zap.Error(err))
	}
}

func (m *Manager) appendSample(ctx context.Context, alert *models.Alert, response string, score float64) {
	sample := &models.TrainingSample{
		TenantID:      alert.TenantID,
		AlertID:       alert.ID,
		Category:      alert.Category,
		Features:      alert.MLFeatures,
		UserResponse:  response,
		FeedbackScore: score,
		CreatedAt:     m.now(),
	}
	if err := m.training.Create(ctx, sample); err != nil {
		m.logger.Error("Failed to append training sample",
			zap.Int64("alert_id", alert.ID),
			zap.Error(err))
	}
}
