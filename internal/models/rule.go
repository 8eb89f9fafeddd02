package models

import "time"

// AlertRule represents a row in the 'alert_rules' table. Rules are
// tenant-scoped per category; feedback_score is a running average of
// user usefulness ratings folded in when alerts get dismissed or rated.
type AlertRule struct {
	ID             int64         `db:"id" json:"id"`
	TenantID       string        `db:"tenant_id" json:"tenant_id"`
	Category       AlertCategory `db:"category" json:"category"`
	Conditions     JSONMap       `db:"conditions" json:"conditions,omitempty"`
	Thresholds     JSONMap       `db:"thresholds" json:"thresholds,omitempty"`
	Enabled        bool          `db:"enabled" json:"enabled"`
	PriorityWeight float64       `db:"priority_weight" json:"priority_weight"`
	FeedbackScore  float64       `db:"feedback_score" json:"feedback_score"`
	TriggerCount   int           `db:"trigger_count" json:"trigger_count"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}
