package scoring

import (
	"context"

	"barberhub/internal/features"
	"barberhub/internal/models"
)

// Rule-based scoring constants. Kept as named values so the scoring
// contract stays auditable and testable outside the pipeline.
const (
	baseConfidence        = 0.7
	richPayloadBonus      = 0.2
	freshAlertBonus       = 0.1
	richPayloadFieldCount = 5
	businessHoursModifier = 1.2
	weekdayModifier       = 1.1
	impactRevenueWeight   = 0.4
	impactCustomerWeight  = 0.3
	impactDeviationWeight = 0.3
)

// categorySeverity is the base severity table per category.
var categorySeverity = map[models.AlertCategory]float64{
	models.CategorySecurity:         0.9,
	models.CategorySystemHealth:     0.85,
	models.CategoryRevenueAnomaly:   0.8,
	models.CategoryOperationalIssue: 0.7,
	models.CategoryCompliance:       0.6,
	models.CategoryCustomerBehavior: 0.55,
	models.CategoryBusinessMetric:   0.5,
	models.CategoryOpportunity:      0.3,
}

// RuleScorer is the deterministic, always-available scoring strategy.
type RuleScorer struct{}

func NewRuleScorer() *RuleScorer {
	return &RuleScorer{}
}

func (s *RuleScorer) Ready() bool {
	return true
}

func (s *RuleScorer) Score(_ context.Context, category models.AlertCategory, feats models.FloatMap) (Scores, error) {
	severity, ok := categorySeverity[category]
	if !ok {
		severity = 0.5
	}

	urgency := features.CategoryUrgency(category)
	if feats[features.FeatIsBusinessHours] > 0 {
		urgency *= businessHoursModifier
	} else if feats[features.FeatIsWeekend] == 0 {
		urgency *= weekdayModifier
	}

	confidence := baseConfidence
	if feats[features.FeatSourceFieldCount]*features.FieldCountNorm > richPayloadFieldCount {
		confidence += richPayloadBonus
	}
	if feats[features.FeatSimilarAlerts] == 0 {
		confidence += freshAlertBonus
	}

	impact := impactRevenueWeight*feats[features.FeatRevenueImpact] +
		impactCustomerWeight*feats[features.FeatCustomerImpact] +
		impactDeviationWeight*feats[features.FeatThresholdDev]

	return Scores{
		Confidence:     clamp01(confidence),
		Severity:       clamp01(severity),
		Urgency:        clamp01(urgency),
		BusinessImpact: clamp01(impact),
	}, nil
}
