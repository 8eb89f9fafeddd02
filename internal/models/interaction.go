package models

import "time"

// InteractionType identifies what a user did with an alert.
type InteractionType string

const (
	InteractionViewed       InteractionType = "viewed"
	InteractionAcknowledged InteractionType = "acknowledged"
	InteractionDismissed    InteractionType = "dismissed"
	InteractionResolved     InteractionType = "resolved"
	InteractionSnoozed      InteractionType = "snoozed"
	InteractionRated        InteractionType = "rated"
)

// Interaction represents a row in the 'alert_interactions' table.
// Interactions are append-only; one row per user action.
type Interaction struct {
	ID                  string          `db:"id" json:"id"`
	AlertID             int64           `db:"alert_id" json:"alert_id"`
	TenantID            string          `db:"tenant_id" json:"tenant_id"`
	UserID              string          `db:"user_id" json:"user_id"`
	Type                InteractionType `db:"interaction_type" json:"interaction_type"`
	Payload             JSONMap         `db:"payload" json:"payload,omitempty"`
	ResponseTimeSeconds float64         `db:"response_time_seconds" json:"response_time_seconds"`
	CreatedAt           time.Time       `db:"created_at" json:"created_at"`
}
