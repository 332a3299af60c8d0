package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Alert rule type constants
const (
	RuleTypePrice         = "PRICE"
	RuleTypePercentChange = "PERCENT_CHANGE"
	RuleTypeRSI           = "RSI"
)

// Comparison operator constants
const (
	OpGreaterOrEqual = ">="
	OpLessOrEqual    = "<="
	OpGreater        = ">"
	OpLess           = "<"
)

// Alert state constants
const (
	AlertStateActive    = "active"
	AlertStateTriggered = "triggered"
)

// Alert is a user-owned threshold on a symbol.
// State moves active -> triggered once per crossing and only goes back to
// active through an explicit reset.
type Alert struct {
	ID                 int             `json:"id"`
	Username           string          `json:"username"`
	Symbol             string          `json:"symbol"`
	RuleType           string          `json:"rule_type"`
	Comparison         string          `json:"comparison"`
	Threshold          decimal.Decimal `json:"threshold"`
	State              string          `json:"state"`
	NotifyEmail        string          `json:"notify_email,omitempty"`
	TriggeredCount     int             `json:"triggered_count"`
	LastTriggeredAt    *time.Time      `json:"last_triggered_at,omitempty"`
	LastTriggeredValue decimal.Decimal `json:"last_triggered_value,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// IsActive reports whether the alert is armed
func (a *Alert) IsActive() bool {
	return a.State == AlertStateActive
}

// Matches reports whether value satisfies the alert's comparison against its threshold
func (a *Alert) Matches(value decimal.Decimal) bool {
	switch a.Comparison {
	case OpGreaterOrEqual:
		return value.GreaterThanOrEqual(a.Threshold)
	case OpLessOrEqual:
		return value.LessThanOrEqual(a.Threshold)
	case OpGreater:
		return value.GreaterThan(a.Threshold)
	case OpLess:
		return value.LessThan(a.Threshold)
	}
	return false
}

// AlertHistory represents a triggered alert record
type AlertHistory struct {
	ID                int             `json:"id"`
	AlertID           int             `json:"alert_id,omitempty"`
	Username          string          `json:"username"`
	Symbol            string          `json:"symbol"`
	RuleType          string          `json:"rule_type"`
	Comparison        string          `json:"comparison"`
	Threshold         decimal.Decimal `json:"threshold"`
	TriggeredValue    decimal.Decimal `json:"triggered_value"`
	Message           string          `json:"message,omitempty"`
	NotificationSent  bool            `json:"notification_sent"`
	NotificationError string          `json:"notification_error,omitempty"`
	TriggeredAt       time.Time       `json:"triggered_at"`
}

// AlertStatistics summarises a user's alerts
type AlertStatistics struct {
	Active    int            `json:"active_alerts"`
	Triggered int            `json:"triggered_alerts"`
	Total     int            `json:"total_alerts"`
	ByType    map[string]int `json:"by_type"`
}
