package scoring

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"barberhub/internal/models"
)

// Blend weights between the rule-based and learned strategies, and the
// composite-score cutoffs that derive priority.
const (
	confidenceRuleWeight = 0.7
	severityRuleWeight   = 0.6
	urgencyRuleWeight    = 0.6
	impactRuleWeight     = 0.5

	thresholdCritical = 0.8
	thresholdHigh     = 0.65
	thresholdMedium   = 0.4
	thresholdLow      = 0.2

	adjustmentMin = 0.8
	adjustmentMax = 1.1
)

// Blender combines the rule-based scorer with an optional learned
// strategy and applies the per-tenant/category feedback adjustment
// factor. When the learned strategy is absent, not ready, or errors, it
// degrades to rule-only scoring without surfacing the failure.
type Blender struct {
	rule    Strategy
	learned Strategy

	mu          sync.RWMutex
	adjustments map[string]float64

	logger *zap.Logger
}

// NewBlender creates a blender. learned may be nil.
func NewBlender(rule, learned Strategy, logger *zap.Logger) *Blender {
	return &Blender{
		rule:        rule,
		learned:     learned,
		adjustments: make(map[string]float64),
		logger:      logger,
	}
}

// LearnedReady reports whether the learned strategy would contribute to
// the next evaluation.
func (b *Blender) LearnedReady() bool {
	return b.learned != nil && b.learned.Ready()
}

// SetAdjustment stores the feedback adjustment factor for a
// tenant+category, clamped into [adjustmentMin, adjustmentMax].
func (b *Blender) SetAdjustment(tenantID string, category models.AlertCategory, factor float64) {
	if factor < adjustmentMin {
		factor = adjustmentMin
	}
	if factor > adjustmentMax {
		factor = adjustmentMax
	}
	b.mu.Lock()
	b.adjustments[tenantID+"|"+string(category)] = factor
	b.mu.Unlock()
}

// AdjustmentFor returns the stored factor, defaulting to 1.0.
func (b *Blender) AdjustmentFor(tenantID string, category models.AlertCategory) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if f, ok := b.adjustments[tenantID+"|"+string(category)]; ok {
		return f
	}
	return 1.0
}

// Evaluate scores the feature vector and derives the priority.
func (b *Blender) Evaluate(ctx context.Context, tenantID string, category models.AlertCategory, feats models.FloatMap) (Scores, models.AlertPriority) {
	ruleScores, err := b.rule.Score(ctx, category, feats)
	if err != nil {
		// The rule scorer is deterministic and should never fail; score
		// neutral rather than blocking the pipeline.
		b.logger.Error("Rule scorer failed", zap.Error(err))
		ruleScores = Scores{Confidence: 0.5, Severity: 0.5, Urgency: 0.5, BusinessImpact: 0.5}
	}

	blended := ruleScores
	if b.LearnedReady() {
		learnedScores, err := b.learned.Score(ctx, category, feats)
		if err != nil {
			b.logger.Warn("Learned scorer unavailable, falling back to rule-based scoring",
				zap.String("tenant_id", tenantID), zap.Error(err))
		} else {
			blended = Scores{
				Confidence:     confidenceRuleWeight*ruleScores.Confidence + (1-confidenceRuleWeight)*learnedScores.Confidence,
				Severity:       severityRuleWeight*ruleScores.Severity + (1-severityRuleWeight)*learnedScores.Severity,
				Urgency:        urgencyRuleWeight*ruleScores.Urgency + (1-urgencyRuleWeight)*learnedScores.Urgency,
				BusinessImpact: impactRuleWeight*ruleScores.BusinessImpact + (1-impactRuleWeight)*learnedScores.BusinessImpact,
			}
		}
	}

	factor := b.AdjustmentFor(tenantID, category)
	blended = Scores{
		Confidence:     clamp01(blended.Confidence * factor),
		Severity:       clamp01(blended.Severity * factor),
		Urgency:        clamp01(blended.Urgency * factor),
		BusinessImpact: clamp01(blended.BusinessImpact * factor),
	}

	return blended, PriorityFor(blended.Composite())
}

// PriorityFor maps a composite score to the derived priority.
func PriorityFor(composite float64) models.AlertPriority {
	switch {
	case composite >= thresholdCritical:
		return models.PriorityCritical
	case composite >= thresholdHigh:
		return models.PriorityHigh
	case composite >= thresholdMedium:
		return models.PriorityMedium
	case composite >= thresholdLow:
		return models.PriorityLow
	default:
		return models.PriorityInfo
	}
}
