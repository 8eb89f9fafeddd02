package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"barberhub/internal/actions"
	"barberhub/internal/config"
	"barberhub/internal/dedup"
	"barberhub/internal/fatigue"
	"barberhub/internal/features"
	"barberhub/internal/lifecycle"
	"barberhub/internal/models"
	"barberhub/internal/notifier"
	"barberhub/internal/repository"
	"barberhub/internal/scoring"
)

// SuppressedReason marks alerts dismissed by the fatigue guard.
const SuppressedReason = "auto-suppressed: frequency limit"

// CreateRequest is the input for alert creation.
type CreateRequest struct {
	TenantID   string                 `json:"tenant_id"`
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Category   models.AlertCategory   `json:"category"`
	SourceData map[string]interface{} `json:"source_data"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// ListOptions narrow an active-alert listing.
type ListOptions struct {
	Priority models.AlertPriority
	Category models.AlertCategory
	Limit    int
}

// HistoryReport summarizes recent alert activity for a tenant,
// including the learned per-category rules and detected patterns.
type HistoryReport struct {
	Alerts           []*models.Alert              `json:"alerts"`
	InteractionStats []repository.InteractionStat `json:"interaction_stats"`
	Rules            []*models.AlertRule          `json:"rules"`
	Patterns         []*models.AlertPattern       `json:"patterns"`
	WindowDays       int                          `json:"window_days"`
	AlertsPerDay     float64                      `json:"alerts_per_day"`
	DismissRate      float64                      `json:"dismiss_rate"`
	FatigueRisk      bool                         `json:"fatigue_risk"`
}

// HealthStatus reports engine availability and throughput counters.
type HealthStatus struct {
	Status            string `json:"status"`
	LearnedClassifier bool   `json:"learned_classifier"`
	AlertsCreated     int64  `json:"alerts_created"`
	AlertsDeduped     int64  `json:"alerts_deduped"`
	AlertsSuppressed  int64  `json:"alerts_suppressed"`
	AlertsNotified    int64  `json:"alerts_notified"`
}

// Engine is the alert pipeline: extract, dedup, score, guard, recommend,
// persist, notify. One instance per process; all dependencies injected
// so tests can run isolated engines.
type Engine struct {
	cfg *config.Config

	alerts       repository.AlertRepository
	rules        repository.RuleRepository
	prefs        repository.PreferencesRepository
	interactions repository.InteractionRepository
	patterns     repository.PatternRepository

	extractor   *features.Extractor
	blender     *scoring.Blender
	guard       *fatigue.Guard
	recommender *actions.Recommender
	lifecycle   *lifecycle.Manager
	dedupCache  *dedup.Cache
	gateway     notifier.Gateway

	logger *zap.Logger
	now    func() time.Time

	created    atomic.Int64
	deduped    atomic.Int64
	suppressed atomic.Int64
	notified   atomic.Int64
}

func New(
	cfg *config.Config,
	alerts repository.AlertRepository,
	rules repository.RuleRepository,
	prefs repository.PreferencesRepository,
	interactions repository.InteractionRepository,
	patterns repository.PatternRepository,
	extractor *features.Extractor,
	blender *scoring.Blender,
	guard *fatigue.Guard,
	recommender *actions.Recommender,
	lifecycleManager *lifecycle.Manager,
	gateway notifier.Gateway,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		cfg:          cfg,
		alerts:       alerts,
		rules:        rules,
		prefs:        prefs,
		interactions: interactions,
		patterns:     patterns,
		extractor:    extractor,
		blender:      blender,
		guard:        guard,
		recommender:  recommender,
		lifecycle:    lifecycleManager,
		dedupCache:   dedup.NewCache(cfg.Engine.DedupWindow),
		gateway:      gateway,
		logger:       logger,
		now:          time.Now,
	}
}

// Lifecycle exposes the state-machine operations.
func (e *Engine) Lifecycle() *lifecycle.Manager {
	return e.lifecycle
}

// CreateAlert runs the ingestion pipeline for one event. Creation is
// idempotent per fingerprint inside the dedup window: a duplicate
// returns the existing alert with its similar count bumped by one.
func (e *Engine) CreateAlert(ctx context.Context, req CreateRequest) (*models.Alert, error) {
	if !req.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, req.Category)
	}

	now := e.now()
	windowStart := now.Add(-e.cfg.Engine.DedupWindow)
	fingerprint := dedup.Fingerprint(req.TenantID, req.Title, req.SourceData)

	// Dedup before any scoring work.
	if existing, err := e.findDuplicate(ctx, req.TenantID, fingerprint, windowStart); err != nil {
		return nil, fmt.Errorf("failed to check for duplicate alert: %w", err)
	} else if existing != nil {
		updated, err := e.alerts.IncrementSimilarCount(ctx, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to increment similar alert count: %w", err)
		}
		if updated != nil {
			e.deduped.Add(1)
			e.dedupCache.Remember(fingerprint, updated.ID, now)
			e.logger.Info("Duplicate alert folded into existing one",
				zap.String("tenant_id", req.TenantID),
				zap.Int64("alert_id", updated.ID),
				zap.Int("similar_alert_count", updated.SimilarAlertCount))
			return updated, nil
		}
		// The cached row vanished under us; fall through and create.
		e.dedupCache.Forget(fingerprint)
	}

	recentCount, err := e.alerts.CountRecent(ctx, req.TenantID, req.Category, windowStart)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent alerts: %w", err)
	}
	e.guard.Seed(req.TenantID, req.Category, recentCount, now)

	// Same-title alerts with differing payloads slip past the
	// fingerprint check; they still count as similar for scoring.
	similarCount, err := e.alerts.CountRecentByTitle(ctx, req.TenantID, req.Title, now.Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("failed to count similar alerts: %w", err)
	}

	feats := e.extractor.Extract(req.Category, req.SourceData, features.Context{
		Now:                 now,
		SimilarLast24h:      similarCount,
		TenantCategoryCount: recentCount,
	})

	scores, priority := e.blender.Evaluate(ctx, req.TenantID, req.Category, feats)

	// Fatigue check needs the computed priority/category, so it runs
	// after scoring.
	ownerPrefs := e.ownerPreferences(ctx, req.TenantID)
	cap := ownerPrefs.CapFor(req.Category, e.cfg.Engine.DefaultDailyCap)
	suppress := e.guard.Exceeds(req.TenantID, req.Category, now, cap)

	recommended := e.recommender.Recommend(ctx, req.Category, req.Title, req.Message, scores)

	expiry := now.Add(e.cfg.Engine.DefaultExpiry)
	if priority == models.PriorityCritical {
		expiry = now.Add(e.cfg.Engine.CriticalExpiry)
	}

	alert := &models.Alert{
		TenantID:           req.TenantID,
		Fingerprint:        fingerprint,
		Category:           req.Category,
		Priority:           priority,
		Status:             models.StatusActive,
		Title:              req.Title,
		Message:            req.Message,
		Confidence:         scores.Confidence,
		Severity:           scores.Severity,
		Urgency:            scores.Urgency,
		BusinessImpact:     scores.BusinessImpact,
		SourceData:         models.JSONMap(req.SourceData),
		Metadata:           models.JSONMap(req.Metadata),
		RecommendedActions: recommended,
		MLFeatures:         feats,
		CreatedAt:          now,
		UpdatedAt:          now,
		ExpiresAt:          &expiry,
	}
	if suppress {
		reason := SuppressedReason
		alert.Status = models.StatusDismissed
		alert.StatusReason = &reason
	}

	if err := e.alerts.Create(ctx, alert); err != nil {
		// A concurrent creation with the same fingerprint won the
		// insert race; fold this event into the surviving row.
		if errors.Is(err, repository.ErrDuplicateFingerprint) {
			return e.foldIntoWinner(ctx, req.TenantID, fingerprint, windowStart, now)
		}
		return nil, fmt.Errorf("failed to persist alert: %w", err)
	}
	e.created.Add(1)
	e.dedupCache.Remember(fingerprint, alert.ID, now)
	e.guard.Record(req.TenantID, req.Category, now)

	if err := e.rules.RecordTrigger(ctx, req.TenantID, req.Category); err != nil {
		e.logger.Error("Failed to record rule trigger",
			zap.String("tenant_id", req.TenantID), zap.Error(err))
	}

	if suppress {
		e.suppressed.Add(1)
		e.logger.Info("Alert auto-suppressed by fatigue guard",
			zap.String("tenant_id", req.TenantID),
			zap.String("category", string(req.Category)),
			zap.Int64("alert_id", alert.ID),
			zap.Int("daily_cap", cap))
		return alert, nil
	}

	// Notification strictly follows successful persistence.
	if e.shouldNotify(ownerPrefs, alert, now) {
		if err := e.gateway.Notify(ctx, alert); err != nil {
			e.logger.Error("Failed to deliver alert notification",
				zap.Int64("alert_id", alert.ID), zap.Error(err))
		} else {
			e.notified.Add(1)
		}
	}

	return alert, nil
}

// foldIntoWinner resolves a lost insert race by bumping the similar
// count on the row that made it in. The store is queried directly; the
// local cache cannot have seen a row inserted by another process.
func (e *Engine) foldIntoWinner(ctx context.Context, tenantID, fingerprint string, since, now time.Time) (*models.Alert, error) {
	winner, err := e.alerts.FindRecentByFingerprint(ctx, tenantID, fingerprint, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load winning duplicate alert: %w", err)
	}
	if winner == nil {
		return nil, fmt.Errorf("duplicate fingerprint conflict but no surviving alert for tenant %s", tenantID)
	}
	updated, err := e.alerts.IncrementSimilarCount(ctx, winner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to increment similar alert count: %w", err)
	}
	if updated == nil {
		updated = winner
	}
	e.deduped.Add(1)
	e.dedupCache.Remember(fingerprint, updated.ID, now)
	e.logger.Info("Concurrent duplicate folded into winning alert",
		zap.String("tenant_id", tenantID),
		zap.Int64("alert_id", updated.ID),
		zap.Int("similar_alert_count", updated.SimilarAlertCount))
	return updated, nil
}

func (e *Engine) findDuplicate(ctx context.Context, tenantID, fingerprint string, since time.Time) (*models.Alert, error) {
	if id, ok := e.dedupCache.Lookup(fingerprint, e.now()); ok {
		return &models.Alert{ID: id, TenantID: tenantID, Fingerprint: fingerprint}, nil
	}
	return e.alerts.FindRecentByFingerprint(ctx, tenantID, fingerprint, since)
}

// ownerPreferences returns the tenant owner's preference row; for a
// barbershop tenant that is the first (usually only) saved row. Absent
// rows yield defaults.
func (e *Engine) ownerPreferences(ctx context.Context, tenantID string) *models.UserAlertPreferences {
	rows, err := e.prefs.ListByTenant(ctx, tenantID)
	if err != nil {
		e.logger.Error("Failed to load tenant preferences",
			zap.String("tenant_id", tenantID), zap.Error(err))
		return nil
	}
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

func (e *Engine) shouldNotify(prefs *models.UserAlertPreferences, alert *models.Alert, now time.Time) bool {
	if e.gateway == nil {
		return false
	}
	if prefs == nil {
		return true
	}
	if enabled, ok := prefs.CategoryEnabled[string(alert.Category)]; ok && !enabled {
		return false
	}
	if prefs.InQuietHours(now.Hour()) && alert.Priority != models.PriorityCritical {
		return false
	}
	return true
}

// ListActive returns the caller's active alerts, filtered to their
// priority threshold or better and ordered by priority rank, urgency,
// then recency.
func (e *Engine) ListActive(ctx context.Context, tenantID, userID string, opts ListOptions) ([]*models.Alert, error) {
	minRank := models.PriorityInfo.Rank()

	prefs, err := e.prefs.Get(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if prefs != nil && prefs.PriorityThreshold.Valid() {
		minRank = prefs.PriorityThreshold.Rank()
	}

	if opts.Priority != "" {
		if !opts.Priority.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPriorityFilter, opts.Priority)
		}
		if opts.Priority.Rank() > minRank {
			minRank = opts.Priority.Rank()
		}
	}

	var category *models.AlertCategory
	if opts.Category != "" {
		if !opts.Category.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, opts.Category)
		}
		category = &opts.Category
	}

	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	return e.alerts.ListActive(ctx, tenantID, minRank, category, limit)
}

// History reports alerts created in the trailing window plus simple
// interaction and fatigue indicators.
func (e *Engine) History(ctx context.Context, tenantID, userID string, days, limit int) (*HistoryReport, error) {
	if days <= 0 {
		days = 7
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	since := e.now().AddDate(0, 0, -days)

	alerts, err := e.alerts.ListCreatedSince(ctx, tenantID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert history: %w", err)
	}
	stats, err := e.interactions.StatsSince(ctx, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load interaction stats: %w", err)
	}
	rules, err := e.rules.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert rules: %w", err)
	}
	patterns, err := e.patterns.ListRecent(ctx, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert patterns: %w", err)
	}

	var dismissed, totalInteractions int
	for _, s := range stats {
		totalInteractions += s.Count
		if s.Type == models.InteractionDismissed {
			dismissed = s.Count
		}
	}
	report := &HistoryReport{
		Alerts:           alerts,
		InteractionStats: stats,
		Rules:            rules,
		Patterns:         patterns,
		WindowDays:       days,
		AlertsPerDay:     float64(len(alerts)) / float64(days),
	}
	if totalInteractions > 0 {
		report.DismissRate = float64(dismissed) / float64(totalInteractions)
	}
	report.FatigueRisk = report.AlertsPerDay > float64(e.cfg.Engine.DefaultDailyCap) || report.DismissRate > 0.5
	return report, nil
}

// GetPreferences returns the stored preferences, or defaults when the
// user never saved any.
func (e *Engine) GetPreferences(ctx context.Context, tenantID, userID string) (*models.UserAlertPreferences, error) {
	prefs, err := e.prefs.Get(ctx, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if prefs == nil {
		return models.DefaultPreferences(tenantID, userID), nil
	}
	return prefs, nil
}

// UpdatePreferences replaces the full preference object and returns the
// stored copy.
func (e *Engine) UpdatePreferences(ctx context.Context, prefs *models.UserAlertPreferences) (*models.UserAlertPreferences, error) {
	if prefs.PriorityThreshold == "" {
		prefs.PriorityThreshold = models.PriorityInfo
	}
	if !prefs.PriorityThreshold.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriorityFilter, prefs.PriorityThreshold)
	}
	stored, err := e.prefs.Upsert(ctx, prefs)
	if err != nil {
		return nil, fmt.Errorf("failed to store preferences: %w", err)
	}
	return stored, nil
}

// Health reports engine availability and throughput counters.
func (e *Engine) Health() HealthStatus {
	return HealthStatus{
		Status:            "ok",
		LearnedClassifier: e.blender.LearnedReady(),
		AlertsCreated:     e.created.Load(),
		AlertsDeduped:     e.deduped.Load(),
		AlertsSuppressed:  e.suppressed.Load(),
		AlertsNotified:    e.notified.Load(),
	}
}
