package scoring

import (
	"context"
	"errors"
	"math"
	"sync"

	"barberhub/internal/features"
	"barberhub/internal/models"
)

// ErrNotTrained is returned when the classifier is asked to score
// before it has seen enough training samples.
var ErrNotTrained = errors.New("classifier not trained")

const defaultLearningRate = 0.1

// usefulThreshold splits feedback scores into positive/negative labels.
const usefulThreshold = 0.5

// OnlineClassifier is an in-process logistic model over the extracted
// feature vector, updated incrementally from user feedback by the
// background processor. It becomes Ready once it has absorbed a minimum
// number of samples; until then the blender runs rule-only.
type OnlineClassifier struct {
	mu           sync.RWMutex
	weights      map[string]float64
	bias         float64
	seen         int
	minSamples   int
	learningRate float64
}

func NewOnlineClassifier(minSamples int) *OnlineClassifier {
	return &OnlineClassifier{
		weights:      make(map[string]float64),
		minSamples:   minSamples,
		learningRate: defaultLearningRate,
	}
}

func (c *OnlineClassifier) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seen >= c.minSamples
}

// SampleCount returns how many samples the model has absorbed.
func (c *OnlineClassifier) SampleCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seen
}

// Train folds samples into the model with one SGD step each. Samples
// with a feedback score at or above usefulThreshold are positive labels.
func (c *OnlineClassifier) Train(samples []*models.TrainingSample) {
	if len(samples) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sample := range samples {
		label := 0.0
		if sample.FeedbackScore >= usefulThreshold {
			label = 1.0
		}
		p := c.predictLocked(sample.Features)
		gradient := p - label
		for name, value := range sample.Features {
			c.weights[name] -= c.learningRate * gradient * value
		}
		c.bias -= c.learningRate * gradient
		c.seen++
	}
}

func (c *OnlineClassifier) predictLocked(feats models.FloatMap) float64 {
	z := c.bias
	for name, value := range feats {
		z += c.weights[name] * value
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

// Predict returns the usefulness probability for a feature vector.
func (c *OnlineClassifier) Predict(feats models.FloatMap) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.predictLocked(feats)
}

func (c *OnlineClassifier) Score(_ context.Context, category models.AlertCategory, feats models.FloatMap) (Scores, error) {
	if !c.Ready() {
		return Scores{}, ErrNotTrained
	}
	p := c.Predict(feats)

	magnitude := impactRevenueWeight*feats[features.FeatRevenueImpact] +
		impactCustomerWeight*feats[features.FeatCustomerImpact] +
		impactDeviationWeight*feats[features.FeatThresholdDev]

	return Scores{
		Confidence:     clamp01(p),
		Severity:       clamp01(p),
		Urgency:        clamp01((p + feats[features.FeatCategoryUrgency]) / 2.0),
		BusinessImpact: clamp01(p * magnitude * 2.0),
	}, nil
}
