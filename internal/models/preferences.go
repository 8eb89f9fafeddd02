package models

import "time"

// IntMap is a per-category integer table stored as a jsonb column,
// e.g. daily alert caps keyed by category.
type IntMap map[string]int

func (m IntMap) Value() (interface{}, error) {
	return JSONMap(toIface(m)).Value()
}

func toIface(m IntMap) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (m *IntMap) Scan(src interface{}) error {
	var raw JSONMap
	if err := raw.Scan(src); err != nil {
		return err
	}
	out := make(IntMap, len(raw))
	for k, v := range raw {
		if f, ok := v.(float64); ok {
			out[k] = int(f)
		}
	}
	*m = out
	return nil
}

// BoolMap is a per-category enable table stored as a jsonb column.
type BoolMap map[string]bool

func (m BoolMap) Value() (interface{}, error) {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return JSONMap(out).Value()
}

func (m *BoolMap) Scan(src interface{}) error {
	var raw JSONMap
	if err := raw.Scan(src); err != nil {
		return err
	}
	out := make(BoolMap, len(raw))
	for k, v := range raw {
		if b, ok := v.(bool); ok {
			out[k] = b
		}
	}
	*m = out
	return nil
}

// UserAlertPreferences represents a row in the 'user_alert_preferences'
// table, one per (user, tenant). Updates replace the whole object.
type UserAlertPreferences struct {
	ID                int64         `db:"id" json:"id"`
	TenantID          string        `db:"tenant_id" json:"tenant_id"`
	UserID            string        `db:"user_id" json:"user_id"`
	EmailEnabled      bool          `db:"email_enabled" json:"email_enabled"`
	SMSEnabled        bool          `db:"sms_enabled" json:"sms_enabled"`
	PushEnabled       bool          `db:"push_enabled" json:"push_enabled"`
	PriorityThreshold AlertPriority `db:"priority_threshold" json:"priority_threshold"`
	QuietHoursStart   int           `db:"quiet_hours_start" json:"quiet_hours_start"`
	QuietHoursEnd     int           `db:"quiet_hours_end" json:"quiet_hours_end"`
	CategoryEnabled   BoolMap       `db:"category_enabled" json:"category_enabled"`
	DailyCaps         IntMap        `db:"daily_caps" json:"daily_caps"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
}

// DefaultPreferences returns the preferences applied when a user has
// never saved any: everything enabled, no quiet hours, info threshold.
func DefaultPreferences(tenantID, userID string) *UserAlertPreferences {
	enabled := make(BoolMap, len(AllCategories))
	for _, c := range AllCategories {
		enabled[string(c)] = true
	}
	return &UserAlertPreferences{
		TenantID:          tenantID,
		UserID:            userID,
		EmailEnabled:      true,
		PushEnabled:       true,
		PriorityThreshold: PriorityInfo,
		QuietHoursStart:   -1,
		QuietHoursEnd:     -1,
		CategoryEnabled:   enabled,
		DailyCaps:         IntMap{},
	}
}

// CapFor returns the daily cap configured for the category, or def when
// the user has not set one.
func (p *UserAlertPreferences) CapFor(category AlertCategory, def int) int {
	if p == nil {
		return def
	}
	if cap, ok := p.DailyCaps[string(category)]; ok && cap > 0 {
		return cap
	}
	return def
}

// InQuietHours reports whether hour falls inside the configured quiet
// window. A window may wrap past midnight (e.g. 22 to 7).
func (p *UserAlertPreferences) InQuietHours(hour int) bool {
	if p == nil || p.QuietHoursStart < 0 || p.QuietHoursEnd < 0 {
		return false
	}
	if p.QuietHoursStart <= p.QuietHoursEnd {
		return hour >= p.QuietHoursStart && hour < p.QuietHoursEnd
	}
	return hour >= p.QuietHoursStart || hour < p.QuietHoursEnd
}
