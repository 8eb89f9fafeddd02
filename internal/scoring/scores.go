package scoring

import (
	"context"

	"barberhub/internal/models"
)

// Scores is the four-dimensional score vector produced for an alert.
// All values live in [0,1].
type Scores struct {
	Confidence     float64 `json:"confidence"`
	Severity       float64 `json:"severity"`
	Urgency        float64 `json:"urgency"`
	BusinessImpact float64 `json:"business_impact"`
}

// Composite is the mean of the four scores; priority is derived from it.
func (s Scores) Composite() float64 {
	return (s.Confidence + s.Severity + s.Urgency + s.BusinessImpact) / 4.0
}

// Strategy computes a score vector from an extracted feature vector.
// Implementations may be unavailable (Ready() false), in which case the
// blender falls back to the rule-based scorer alone.
type Strategy interface {
	Score(ctx context.Context, category models.AlertCategory, feats models.FloatMap) (Scores, error)
	Ready() bool
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
