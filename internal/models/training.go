package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Int64List is a list of row IDs stored as a jsonb column.
type Int64List []int64

func (l Int64List) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *Int64List) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into Int64List", src)
	}
	return json.Unmarshal(b, l)
}

// TrainingSample represents a row in the 'alert_training_samples' table.
// Samples are appended whenever an interaction carries feedback and are
// never mutated; the background processor folds them into the learned
// scorer and retention cleanup eventually prunes them.
type TrainingSample struct {
	ID            int64         `db:"id" json:"id"`
	TenantID      string        `db:"tenant_id" json:"tenant_id"`
	AlertID       int64         `db:"alert_id" json:"alert_id"`
	Category      AlertCategory `db:"category" json:"category"`
	Features      FloatMap      `db:"features" json:"features"`
	UserResponse  string        `db:"user_response" json:"user_response"`
	FeedbackScore float64       `db:"feedback_score" json:"feedback_score"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// AlertPattern represents a row in the 'alert_patterns' table: either a
// feature-proximity cluster detected by the background processor or a
// per-tenant rollup summary.
type AlertPattern struct {
	ID        string    `db:"id" json:"id"`
	TenantID  string    `db:"tenant_id" json:"tenant_id"`
	Kind      string    `db:"kind" json:"kind"` // "cluster" or "rollup"
	AlertIDs  Int64List `db:"alert_ids" json:"alert_ids,omitempty"`
	Centroid  FloatMap  `db:"centroid" json:"centroid,omitempty"`
	Summary   JSONMap   `db:"summary" json:"summary,omitempty"`
	Size      int       `db:"size" json:"size"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
