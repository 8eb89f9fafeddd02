package processor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"barberhub/internal/config"
	"barberhub/internal/models"
	"barberhub/internal/repository"
	"barberhub/internal/scoring"
)

// trainingBatchLimit caps how many samples one tick folds into the
// learned model.
const trainingBatchLimit = 500

// clusterScanLimit caps how many recent alerts the clustering pass
// loads per tick.
const clusterScanLimit = 1000

// adjustmentWindow is how far back the feedback adjustment factors look.
const adjustmentWindow = 7 * 24 * time.Hour

// Processor is the engine's periodic maintenance loop: pattern
// clustering, adaptive learning, expiry/snooze sweep, and per-tenant
// rollups. Each step is fault-isolated; a failing step is logged and
// the rest of the tick still runs.
type Processor struct {
	alerts       repository.AlertRepository
	training     repository.TrainingRepository
	patterns     repository.PatternRepository
	interactions repository.InteractionRepository
	rules        repository.RuleRepository

	classifier *scoring.OnlineClassifier
	blender    *scoring.Blender
	remote     *scoring.RemoteScorer

	cfg    *config.Config
	logger *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	lastTrained time.Time
}

func NewProcessor(
	alerts repository.AlertRepository,
	training repository.TrainingRepository,
	patterns repository.PatternRepository,
	interactions repository.InteractionRepository,
	rules repository.RuleRepository,
	classifier *scoring.OnlineClassifier,
	blender *scoring.Blender,
	remote *scoring.RemoteScorer,
	cfg *config.Config,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		alerts:       alerts,
		training:     training,
		patterns:     patterns,
		interactions: interactions,
		rules:        rules,
		classifier:   classifier,
		blender:      blender,
		remote:       remote,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Run starts the periodic loop and blocks until ctx is cancelled. The
// current tick always completes before Run returns.
func (p *Processor) Run(ctx context.Context) {
	p.logger.Info("Alert processor started",
		zap.Duration("tick_interval", p.cfg.Engine.TickInterval))

	ticker := time.NewTicker(p.cfg.Engine.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Alert processor stopped")
			return
		case <-ticker.C:
			p.RunTick(ctx)
		}
	}
}

// RunTick executes one maintenance pass. Exported so tests and startup
// warmup can drive ticks directly.
func (p *Processor) RunTick(ctx context.Context) {
	if err := p.clusterPatterns(ctx); err != nil {
		p.logger.Error("Pattern clustering step failed", zap.Error(err))
	}
	if err := p.refreshLearning(ctx); err != nil {
		p.logger.Error("Adaptive learning step failed", zap.Error(err))
	}
	if err := p.expireAndWake(ctx); err != nil {
		p.logger.Error("Expiry sweep step failed", zap.Error(err))
	}
	if err := p.emitRollups(ctx); err != nil {
		p.logger.Error("Rollup step failed", zap.Error(err))
	}
	if err := p.pruneSamples(ctx); err != nil {
		p.logger.Error("Retention pruning step failed", zap.Error(err))
	}
}

// clusterPatterns groups recently-active alerts by feature proximity per
// tenant and records clusters as emerging patterns.
func (p *Processor) clusterPatterns(ctx context.Context) error {
	now := p.now()
	alerts, err := p.alerts.ListActiveWithFeatures(ctx, now.Add(-24*time.Hour), clusterScanLimit)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		return nil
	}

	byTenant := make(map[string][]*models.Alert)
	for _, alert := range alerts {
		byTenant[alert.TenantID] = append(byTenant[alert.TenantID], alert)
	}

	for tenantID, tenantAlerts := range byTenant {
		for _, c := range clusterByFeatures(tenantAlerts) {
			if len(c.alerts) < minClusterSize {
				continue
			}
			ids := make(models.Int64List, 0, len(c.alerts))
			categories := map[string]int{}
			for _, a := range c.alerts {
				ids = append(ids, a.ID)
				categories[string(a.Category)]++
			}
			pattern := &models.AlertPattern{
				ID:        uuid.NewString(),
				TenantID:  tenantID,
				Kind:      "cluster",
				AlertIDs:  ids,
				Centroid:  c.centroid,
				Summary:   models.JSONMap{"categories": categories},
				Size:      len(c.alerts),
				CreatedAt: now,
			}
			if err := p.patterns.Create(ctx, pattern); err != nil {
				p.logger.Error("Failed to record alert pattern",
					zap.String("tenant_id", tenantID), zap.Error(err))
				continue
			}
			p.logger.Info("Emerging alert pattern detected",
				zap.String("tenant_id", tenantID),
				zap.Int("size", len(c.alerts)))
		}
	}
	return nil
}

// refreshLearning folds new training samples into the learned model and
// recomputes the per tenant+category feedback adjustment factors.
func (p *Processor) refreshLearning(ctx context.Context) error {
	p.mu.Lock()
	since := p.lastTrained
	p.mu.Unlock()

	samples, err := p.training.ListSince(ctx, since, trainingBatchLimit)
	if err != nil {
		return err
	}
	if len(samples) > 0 {
		p.classifier.Train(samples)
		p.mu.Lock()
		p.lastTrained = samples[len(samples)-1].CreatedAt
		p.mu.Unlock()
		p.logger.Info("Folded training samples into learned scorer",
			zap.Int("samples", len(samples)),
			zap.Int("total_seen", p.classifier.SampleCount()),
			zap.Bool("ready", p.classifier.Ready()))
	}

	if p.remote != nil {
		if _, err := p.remote.HealthCheck(ctx); err != nil {
			p.logger.Debug("Remote scorer health check failed", zap.Error(err))
		}
	}

	ratios, err := p.interactions.DismissAckRatios(ctx, p.now().Add(-adjustmentWindow))
	if err != nil {
		return err
	}
	for _, r := range ratios {
		total := r.Dismissed + r.Acknowledged
		if total == 0 {
			continue
		}
		dismissRate := float64(r.Dismissed) / float64(total)
		// High dismissal dampens future scores, heavy acknowledgment
		// boosts them; the blender clamps into its allowed band.
		factor := 1.1 - 0.3*dismissRate

		// The rule's folded usefulness rating covers dismissal
		// feedback text that the raw counts cannot see; average the
		// two signals when a rule exists.
		rule, err := p.rules.GetByTenantCategory(ctx, r.TenantID, r.Category)
		if err != nil {
			p.logger.Error("Failed to load rule for feedback adjustment",
				zap.String("tenant_id", r.TenantID),
				zap.String("category", string(r.Category)),
				zap.Error(err))
		} else if rule != nil {
			factor = (factor + 0.8 + 0.3*rule.FeedbackScore) / 2
		}
		p.blender.SetAdjustment(r.TenantID, r.Category, factor)
	}
	return nil
}

// expireAndWake dismisses alerts past their expiry and reactivates
// snoozed alerts whose wake time has elapsed.
func (p *Processor) expireAndWake(ctx context.Context) error {
	now := p.now()

	woken, err := p.alerts.WakeSnoozed(ctx, now, now.Add(p.cfg.Engine.DefaultExpiry))
	if err != nil {
		return err
	}
	if woken > 0 {
		p.logger.Info("Reactivated snoozed alerts", zap.Int64("count", woken))
	}

	expired, err := p.alerts.ExpireDue(ctx, now, "expired")
	if err != nil {
		return err
	}
	if expired > 0 {
		p.logger.Info("Expired stale alerts", zap.Int64("count", expired))
	}
	return nil
}

// emitRollups writes a per-tenant activity summary for the trailing day.
func (p *Processor) emitRollups(ctx context.Context) error {
	now := p.now()
	since := now.Add(-24 * time.Hour)

	tenants, err := p.alerts.TenantsWithRecentAlerts(ctx, since)
	if err != nil {
		return err
	}
	for _, tenantID := range tenants {
		counts, err := p.alerts.RollupCounts(ctx, tenantID, since)
		if err != nil {
			p.logger.Error("Failed to compute rollup counts",
				zap.String("tenant_id", tenantID), zap.Error(err))
			continue
		}
		total := 0
		summary := models.JSONMap{}
		for k, n := range counts {
			summary[k] = n
			total += n
		}
		pattern := &models.AlertPattern{
			ID:        uuid.NewString(),
			TenantID:  tenantID,
			Kind:      "rollup",
			Summary:   summary,
			Size:      total,
			CreatedAt: now,
		}
		if err := p.patterns.Create(ctx, pattern); err != nil {
			p.logger.Error("Failed to record rollup insight",
				zap.String("tenant_id", tenantID), zap.Error(err))
			continue
		}
		p.logger.Info("Tenant alert rollup",
			zap.String("tenant_id", tenantID),
			zap.Int("alerts_last_24h", total))
	}
	return nil
}

// pruneSamples enforces the training sample retention policy.
func (p *Processor) pruneSamples(ctx context.Context) error {
	cutoff := p.now().Add(-p.cfg.Engine.SampleRetention)
	pruned, err := p.training.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return err
	}
	if pruned > 0 {
		p.logger.Info("Pruned expired training samples", zap.Int64("count", pruned))
	}
	return nil
}
