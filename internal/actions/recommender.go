package actions

import (
	"context"
	"time"

	"go.uber.org/zap"

	"barberhub/internal/models"
	"barberhub/internal/scoring"
)

const (
	maxBaseActions      = 5
	maxAugmentedActions = 3
	urgentThreshold     = 0.7
	impactThreshold     = 0.6
	augmentTimeout      = 10 * time.Second
)

const immediateAction = "Take immediate action: review this alert now"
const financialAction = "Track the financial impact of this issue over the next billing cycle"

// categoryActions maps each category to its base recommendation
// templates, ordered most-useful-first.
var categoryActions = map[models.AlertCategory][]string{
	models.CategoryRevenueAnomaly: {
		"Review pricing and recent discount campaigns",
		"Compare booking volume against the same weekday last month",
		"Check for cancelled or no-show appointments in the period",
		"Review marketing channel performance for the affected service",
	},
	models.CategorySystemHealth: {
		"Check application logs for errors in the affected component",
		"Verify database and booking-system connectivity",
		"Confirm failover and backup jobs completed",
	},
	models.CategoryCustomerBehavior: {
		"Review recent customer feedback and ratings",
		"Check loyalty program engagement for the affected segment",
		"Reach out to customers with lapsed bookings",
	},
	models.CategoryBusinessMetric: {
		"Compare the metric against its 30-day baseline",
		"Review staffing levels for the affected time slots",
		"Check whether a seasonal pattern explains the change",
	},
	models.CategoryOperationalIssue: {
		"Confirm staff schedules cover the affected hours",
		"Check equipment and supply availability",
		"Review the appointment calendar for conflicts",
	},
	models.CategoryOpportunity: {
		"Review the opportunity details and estimated value",
		"Consider a targeted promotion for the affected segment",
		"Schedule a follow-up to evaluate uptake",
	},
	models.CategoryCompliance: {
		"Review the flagged records against policy requirements",
		"Document the finding and remediation steps",
		"Notify the responsible manager",
	},
	models.CategorySecurity: {
		"Review access logs for the affected account",
		"Rotate credentials and revoke suspicious sessions",
		"Verify no customer data was exposed",
	},
}

// Augmenter produces additional contextual actions, typically backed by
// a language model. It is an enhancement: failures degrade to the
// template-only list.
type Augmenter interface {
	Augment(ctx context.Context, category models.AlertCategory, title, message string, actions []string) ([]string, error)
}

// Recommender derives ranked next steps from category and scores.
type Recommender struct {
	augmenter Augmenter
	logger    *zap.Logger
}

// NewRecommender creates a recommender. augmenter may be nil.
func NewRecommender(augmenter Augmenter, logger *zap.Logger) *Recommender {
	return &Recommender{augmenter: augmenter, logger: logger}
}

// Recommend returns the ordered action list for an alert.
func (r *Recommender) Recommend(ctx context.Context, category models.AlertCategory, title, message string, scores scoring.Scores) []string {
	base := categoryActions[category]
	actions := make([]string, 0, len(base)+2)

	if scores.Urgency > urgentThreshold {
		actions = append(actions, immediateAction)
	}
	actions = append(actions, base...)
	if scores.BusinessImpact > impactThreshold {
		actions = append(actions, financialAction)
	}
	if len(actions) > maxBaseActions {
		actions = actions[:maxBaseActions]
	}

	if r.augmenter == nil {
		return actions
	}

	augCtx, cancel := context.WithTimeout(ctx, augmentTimeout)
	defer cancel()
	extra, err := r.augmenter.Augment(augCtx, category, title, message, actions)
	if err != nil {
		r.logger.Warn("Action augmentation unavailable, using template actions",
			zap.String("category", string(category)), zap.Error(err))
		return actions
	}
	if len(extra) > maxAugmentedActions {
		extra = extra[:maxAugmentedActions]
	}
	return append(actions, extra...)
}
