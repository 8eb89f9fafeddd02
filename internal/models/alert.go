package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AlertCategory classifies the business meaning of an alert.
type AlertCategory string

const (
	CategoryBusinessMetric   AlertCategory = "business_metric"
	CategorySystemHealth     AlertCategory = "system_health"
	CategoryCustomerBehavior AlertCategory = "customer_behavior"
	CategoryRevenueAnomaly   AlertCategory = "revenue_anomaly"
	CategoryOperationalIssue AlertCategory = "operational_issue"
	CategoryOpportunity      AlertCategory = "opportunity"
	CategoryCompliance       AlertCategory = "compliance"
	CategorySecurity         AlertCategory = "security"
)

// AllCategories lists every valid category value.
var AllCategories = []AlertCategory{
	CategoryBusinessMetric,
	CategorySystemHealth,
	CategoryCustomerBehavior,
	CategoryRevenueAnomaly,
	CategoryOperationalIssue,
	CategoryOpportunity,
	CategoryCompliance,
	CategorySecurity,
}

// Valid reports whether c is one of the enumerated categories.
func (c AlertCategory) Valid() bool {
	for _, v := range AllCategories {
		if c == v {
			return true
		}
	}
	return false
}

// AlertPriority is derived from the composite score at creation time
// and never mutated afterwards.
type AlertPriority string

const (
	PriorityCritical AlertPriority = "critical"
	PriorityHigh     AlertPriority = "high"
	PriorityMedium   AlertPriority = "medium"
	PriorityLow      AlertPriority = "low"
	PriorityInfo     AlertPriority = "info"
)

var priorityRanks = map[AlertPriority]int{
	PriorityCritical: 5,
	PriorityHigh:     4,
	PriorityMedium:   3,
	PriorityLow:      2,
	PriorityInfo:     1,
}

// Rank returns the total-order rank of the priority (critical highest).
// Unknown values rank 0.
func (p AlertPriority) Rank() int {
	return priorityRanks[p]
}

// Valid reports whether p is one of the enumerated priorities.
func (p AlertPriority) Valid() bool {
	_, ok := priorityRanks[p]
	return ok
}

// AlertStatus is the lifecycle state of an alert.
type AlertStatus string

const (
	StatusActive       AlertStatus = "active"
	StatusAcknowledged AlertStatus = "acknowledged"
	StatusDismissed    AlertStatus = "dismissed"
	StatusResolved     AlertStatus = "resolved"
	StatusSnoozed      AlertStatus = "snoozed"
)

// Terminal reports whether s permits no further transition.
func (s AlertStatus) Terminal() bool {
	return s == StatusDismissed || s == StatusResolved
}

// JSONMap is a map stored as a jsonb column.
type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = JSONMap{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into JSONMap", src)
	}
	return json.Unmarshal(b, m)
}

// FloatMap is a named numeric feature vector stored as a jsonb column.
type FloatMap map[string]float64

func (m FloatMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *FloatMap) Scan(src interface{}) error {
	if src == nil {
		*m = FloatMap{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into FloatMap", src)
	}
	return json.Unmarshal(b, m)
}

// StringList is an ordered list of strings stored as a jsonb column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	return json.Unmarshal(b, l)
}

// Alert represents a row in the 'alerts' table.
type Alert struct {
	ID                 int64         `db:"id" json:"id"`
	TenantID           string        `db:"tenant_id" json:"tenant_id"`
	Fingerprint        string        `db:"fingerprint" json:"fingerprint"`
	Category           AlertCategory `db:"category" json:"category"`
	Priority           AlertPriority `db:"priority" json:"priority"`
	Status             AlertStatus   `db:"status" json:"status"`
	StatusReason       *string       `db:"status_reason" json:"status_reason,omitempty"`
	Title              string        `db:"title" json:"title"`
	Message            string        `db:"message" json:"message"`
	Confidence         float64       `db:"confidence" json:"confidence"`
	Severity           float64       `db:"severity" json:"severity"`
	Urgency            float64       `db:"urgency" json:"urgency"`
	BusinessImpact     float64       `db:"business_impact" json:"business_impact"`
	SourceData         JSONMap       `db:"source_data" json:"source_data"`
	Metadata           JSONMap       `db:"metadata" json:"metadata,omitempty"`
	RecommendedActions StringList    `db:"recommended_actions" json:"recommended_actions"`
	MLFeatures         FloatMap      `db:"ml_features" json:"ml_features,omitempty"`
	SimilarAlertCount  int           `db:"similar_alert_count" json:"similar_alert_count"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
	ExpiresAt          *time.Time    `db:"expires_at" json:"expires_at,omitempty"`
}
