package scoring

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"barberhub/internal/models"
)

// stubStrategy returns fixed scores, or an error, with a settable Ready.
type stubStrategy struct {
	scores Scores
	err    error
	ready  bool
}

func (s *stubStrategy) Score(context.Context, models.AlertCategory, models.FloatMap) (Scores, error) {
	return s.scores, s.err
}

func (s *stubStrategy) Ready() bool { return s.ready }

func TestBlenderMixesRuleAndLearnedScores(t *testing.T) {
	rule := &stubStrategy{ready: true, scores: Scores{Confidence: 1.0, Severity: 1.0, Urgency: 1.0, BusinessImpact: 1.0}}
	learned := &stubStrategy{ready: true, scores: Scores{}}
	b := NewBlender(rule, learned, zap.NewNop())

	scores, _ := b.Evaluate(context.Background(), "t1", models.CategorySecurity, models.FloatMap{})

	if math.Abs(scores.Confidence-0.7) > 1e-9 {
		t.Errorf("confidence = %f, want rule-weighted 0.7", scores.Confidence)
	}
	if math.Abs(scores.Severity-0.6) > 1e-9 {
		t.Errorf("severity = %f, want rule-weighted 0.6", scores.Severity)
	}
	if math.Abs(scores.Urgency-0.6) > 1e-9 {
		t.Errorf("urgency = %f, want rule-weighted 0.6", scores.Urgency)
	}
	if math.Abs(scores.BusinessImpact-0.5) > 1e-9 {
		t.Errorf("business impact = %f, want rule-weighted 0.5", scores.BusinessImpact)
	}
}

func TestBlenderFallsBackWhenLearnedErrors(t *testing.T) {
	ruleScores := Scores{Confidence: 0.8, Severity: 0.6, Urgency: 0.7, BusinessImpact: 0.4}
	rule := &stubStrategy{ready: true, scores: ruleScores}
	learned := &stubStrategy{ready: true, err: errors.New("model offline")}
	b := NewBlender(rule, learned, zap.NewNop())

	scores, _ := b.Evaluate(context.Background(), "t1", models.CategorySecurity, models.FloatMap{})
	if scores != ruleScores {
		t.Errorf("learned failure should fall back to rule scores, got %+v want %+v", scores, ruleScores)
	}
}

func TestBlenderSkipsLearnedWhenNotReady(t *testing.T) {
	ruleScores := Scores{Confidence: 0.8, Severity: 0.6, Urgency: 0.7, BusinessImpact: 0.4}
	rule := &stubStrategy{ready: true, scores: ruleScores}
	learned := &stubStrategy{ready: false, scores: Scores{Confidence: 1, Severity: 1, Urgency: 1, BusinessImpact: 1}}
	b := NewBlender(rule, learned, zap.NewNop())

	if b.LearnedReady() {
		t.Errorf("LearnedReady should be false for a not-ready strategy")
	}
	scores, _ := b.Evaluate(context.Background(), "t1", models.CategorySecurity, models.FloatMap{})
	if scores != ruleScores {
		t.Errorf("not-ready learned strategy should not contribute, got %+v", scores)
	}
}

func TestBlenderWorksWithoutLearnedStrategy(t *testing.T) {
	ruleScores := Scores{Confidence: 0.5, Severity: 0.5, Urgency: 0.5, BusinessImpact: 0.5}
	b := NewBlender(&stubStrategy{ready: true, scores: ruleScores}, nil, zap.NewNop())

	if b.LearnedReady() {
		t.Errorf("nil learned strategy should report not ready")
	}
	scores, _ := b.Evaluate(context.Background(), "t1", models.CategorySecurity, models.FloatMap{})
	if scores != ruleScores {
		t.Errorf("rule-only blend mismatch, got %+v", scores)
	}
}

func TestBlenderAdjustmentFactorClamped(t *testing.T) {
	b := NewBlender(&stubStrategy{ready: true}, nil, zap.NewNop())

	b.SetAdjustment("t1", models.CategorySecurity, 5.0)
	if got := b.AdjustmentFor("t1", models.CategorySecurity); got != adjustmentMax {
		t.Errorf("oversized factor should clamp to %f, got %f", adjustmentMax, got)
	}

	b.SetAdjustment("t1", models.CategorySecurity, 0.1)
	if got := b.AdjustmentFor("t1", models.CategorySecurity); got != adjustmentMin {
		t.Errorf("undersized factor should clamp to %f, got %f", adjustmentMin, got)
	}

	if got := b.AdjustmentFor("t2", models.CategorySecurity); got != 1.0 {
		t.Errorf("unset adjustment should default to 1.0, got %f", got)
	}
}

func TestBlenderAppliesAdjustmentFactor(t *testing.T) {
	ruleScores := Scores{Confidence: 0.5, Severity: 0.5, Urgency: 0.5, BusinessImpact: 0.5}
	b := NewBlender(&stubStrategy{ready: true, scores: ruleScores}, nil, zap.NewNop())
	b.SetAdjustment("t1", models.CategorySecurity, 0.8)

	scores, _ := b.Evaluate(context.Background(), "t1", models.CategorySecurity, models.FloatMap{})
	if math.Abs(scores.Confidence-0.4) > 1e-9 {
		t.Errorf("adjusted confidence = %f, want 0.4", scores.Confidence)
	}

	// A different tenant is untouched.
	scores, _ = b.Evaluate(context.Background(), "t2", models.CategorySecurity, models.FloatMap{})
	if scores.Confidence != 0.5 {
		t.Errorf("unadjusted tenant confidence = %f, want 0.5", scores.Confidence)
	}
}

func TestScoresComposite(t *testing.T) {
	s := Scores{Confidence: 1.0, Severity: 0.5, Urgency: 0.5, BusinessImpact: 0.0}
	if got := s.Composite(); got != 0.5 {
		t.Errorf("composite = %f, want 0.5", got)
	}
}
