package features

import (
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"barberhub/internal/models"
)

// Feature names produced by the extractor. Scoring strategies address
// the vector through these keys only.
const (
	FeatHourOfDay        = "hour_of_day"
	FeatDayOfWeek        = "day_of_week"
	FeatIsWeekend        = "is_weekend"
	FeatIsBusinessHours  = "is_business_hours"
	FeatCategoryUrgency  = "category_urgency"
	FeatRevenueImpact    = "revenue_impact"
	FeatCustomerImpact   = "customer_impact"
	FeatEventFrequency   = "event_frequency"
	FeatTrendDirection   = "trend_direction"
	FeatThresholdDev     = "threshold_deviation"
	FeatSourceFieldCount = "source_field_count"
	FeatSimilarAlerts    = "similar_alerts_24h"
	FeatTenantCatFreq    = "tenant_category_frequency"
)

// Normalization constants. Every feature is clamped to [0,1] before it
// leaves this package.
const (
	revenueNorm        = 1000.0
	customerNorm       = 100.0
	frequencyNorm      = 10.0
	FieldCountNorm     = 20.0
	similarAlertsNorm  = 10.0
	tenantFreqNorm     = 20.0
	businessHoursStart = 9
	businessHoursEnd   = 17
)

// categoryUrgency is the fixed per-category urgency weight table.
var categoryUrgency = map[models.AlertCategory]float64{
	models.CategorySecurity:         0.95,
	models.CategorySystemHealth:     0.9,
	models.CategoryRevenueAnomaly:   0.8,
	models.CategoryOperationalIssue: 0.7,
	models.CategoryCustomerBehavior: 0.6,
	models.CategoryBusinessMetric:   0.5,
	models.CategoryCompliance:       0.4,
	models.CategoryOpportunity:      0.3,
}

// CategoryUrgency returns the fixed urgency weight for a category.
func CategoryUrgency(category models.AlertCategory) float64 {
	if w, ok := categoryUrgency[category]; ok {
		return w
	}
	return 0.5
}

// Context carries the store-derived signals the extractor cannot compute
// from the payload alone.
type Context struct {
	Now                 time.Time
	SimilarLast24h      int
	TenantCategoryCount int
}

// Extractor turns a raw event payload into a normalized feature vector.
// Extraction never fails: an unparseable field degrades to a neutral
// default instead of aborting.
type Extractor struct {
	logger *zap.Logger
}

func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract builds the feature vector for an event. Every value is in [0,1].
func (e *Extractor) Extract(category models.AlertCategory, sourceData map[string]interface{}, fctx Context) models.FloatMap {
	now := fctx.Now
	feats := models.FloatMap{
		FeatHourOfDay:       float64(now.Hour()) / 24.0,
		FeatDayOfWeek:       float64(now.Weekday()) / 6.0,
		FeatIsWeekend:       boolFeature(now.Weekday() == time.Saturday || now.Weekday() == time.Sunday),
		FeatIsBusinessHours: boolFeature(now.Hour() >= businessHoursStart && now.Hour() < businessHoursEnd),
		FeatCategoryUrgency: CategoryUrgency(category),
	}

	feats[FeatRevenueImpact] = e.magnitude(sourceData, revenueNorm, "revenueImpact", "revenue_impact")
	feats[FeatCustomerImpact] = e.magnitude(sourceData, customerNorm, "customerImpact", "customer_impact", "customerCount", "customer_count")
	feats[FeatEventFrequency] = e.magnitude(sourceData, frequencyNorm, "eventFrequency", "event_frequency")
	feats[FeatThresholdDev] = e.magnitude(sourceData, 1.0, "thresholdDeviation", "threshold_deviation")
	feats[FeatTrendDirection] = e.trend(sourceData)

	feats[FeatSourceFieldCount] = clamp01(float64(len(sourceData)) / FieldCountNorm)
	feats[FeatSimilarAlerts] = clamp01(float64(fctx.SimilarLast24h) / similarAlertsNorm)
	feats[FeatTenantCatFreq] = clamp01(float64(fctx.TenantCategoryCount) / tenantFreqNorm)

	return feats
}

// magnitude reads the first present key, divides by norm and clamps.
// A missing key is 0; a present but unparseable value degrades to 0.5.
func (e *Extractor) magnitude(sourceData map[string]interface{}, norm float64, keys ...string) float64 {
	for _, key := range keys {
		raw, ok := sourceData[key]
		if !ok {
			continue
		}
		v, ok := asFloat(raw)
		if !ok {
			e.logger.Debug("Unparseable numeric feature, using neutral default",
				zap.String("key", key), zap.Any("value", raw))
			return 0.5
		}
		return clamp01(v / norm)
	}
	return 0.0
}

// trend maps the direction to -1/0/+1 and shifts into [0,1] for storage:
// decreasing=0.0, stable=0.5, increasing=1.0.
func (e *Extractor) trend(sourceData map[string]interface{}) float64 {
	raw, ok := sourceData["trendDirection"]
	if !ok {
		raw, ok = sourceData["trend_direction"]
	}
	if !ok {
		return 0.5
	}
	s, ok := raw.(string)
	if !ok {
		e.logger.Debug("Unparseable trend direction, using neutral default", zap.Any("value", raw))
		return 0.5
	}
	switch s {
	case "increasing":
		return 1.0
	case "decreasing":
		return 0.0
	case "stable":
		return 0.5
	default:
		return 0.5
	}
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case bool:
		if n {
			return 1.0, true
		}
		return 0.0, true
	default:
		return 0, false
	}
}

func boolFeature(b bool) float64 {
	if b {
		return 1.0
	}
	return 0.0
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
