package alerts

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-tracker/internal/models"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9^][A-Z0-9.\-=^]{0,19}$`)

var legacyTypes = map[string]struct{ ruleType, comparison string }{
	"price_above":    {models.RuleTypePrice, models.OpGreaterOrEqual},
	"price_below":    {models.RuleTypePrice, models.OpLessOrEqual},
	"percent_change": {models.RuleTypePercentChange, models.OpGreaterOrEqual},
}

var hundred = decimal.NewFromInt(100)

// Normalize upper-cases the symbol, maps the price_above / price_below /
// percent_change shorthands onto rule type plus operator, and validates the rule
func Normalize(a *models.Alert) error {
	a.Symbol = strings.ToUpper(strings.TrimSpace(a.Symbol))
	a.NotifyEmail = strings.TrimSpace(a.NotifyEmail)

	if legacy, ok := legacyTypes[strings.ToLower(a.RuleType)]; ok {
		a.RuleType = legacy.ruleType
		if a.Comparison == "" {
			a.Comparison = legacy.comparison
		}
	}
	a.RuleType = strings.ToUpper(a.RuleType)
	if a.Comparison == "" {
		a.Comparison = models.OpGreaterOrEqual
	}

	if strings.TrimSpace(a.Username) == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidAlert)
	}
	if !symbolPattern.MatchString(a.Symbol) {
		return fmt.Errorf("%w: invalid symbol %q", ErrInvalidAlert, a.Symbol)
	}
	switch a.RuleType {
	case models.RuleTypePrice, models.RuleTypePercentChange, models.RuleTypeRSI:
	default:
		return fmt.Errorf("%w: unknown rule type %q", ErrInvalidAlert, a.RuleType)
	}
	switch a.Comparison {
	case models.OpGreaterOrEqual, models.OpLessOrEqual, models.OpGreater, models.OpLess:
	default:
		return fmt.Errorf("%w: unknown comparison %q", ErrInvalidAlert, a.Comparison)
	}
	if !a.Threshold.IsPositive() {
		return fmt.Errorf("%w: threshold must be positive", ErrInvalidAlert)
	}
	if a.RuleType == models.RuleTypeRSI && a.Threshold.GreaterThan(hundred) {
		return fmt.Errorf("%w: rsi threshold must be at most 100", ErrInvalidAlert)
	}
	if a.NotifyEmail != "" {
		if _, err := mail.ParseAddress(a.NotifyEmail); err != nil {
			return fmt.Errorf("%w: invalid notify email %q", ErrInvalidAlert, a.NotifyEmail)
		}
	}
	return nil
}

// Create validates and stores a new active alert
func (e *Evaluator) Create(a *models.Alert) error {
	if err := Normalize(a); err != nil {
		return err
	}
	return e.store.CreateAlert(a)
}

// Get returns one of a user's alerts
func (e *Evaluator) Get(username string, id int) (*models.Alert, error) {
	return e.store.GetAlert(username, id)
}

// List returns all of a user's alerts
func (e *Evaluator) List(username string) ([]*models.Alert, error) {
	return e.store.GetAlerts(username)
}

// Update replaces the rule of an existing alert. The state and trigger
// history are unchanged; a triggered alert still needs Reset.
func (e *Evaluator) Update(a *models.Alert) (*models.Alert, error) {
	if err := Normalize(a); err != nil {
		return nil, err
	}
	if err := e.store.UpdateAlert(a); err != nil {
		return nil, err
	}
	return e.store.GetAlert(a.Username, a.ID)
}

// Reset re-arms a triggered alert so it can fire again
func (e *Evaluator) Reset(username string, id int) (*models.Alert, error) {
	if err := e.store.ResetAlert(username, id); err != nil {
		return nil, err
	}
	return e.store.GetAlert(username, id)
}

// Delete removes a user's alert; its history is kept
func (e *Evaluator) Delete(username string, id int) error {
	return e.store.DeleteAlert(username, id)
}

// History returns the user's most recent triggers, newest first
func (e *Evaluator) History(username string, limit int) ([]*models.AlertHistory, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return e.store.GetAlertHistory(username, limit)
}

// Statistics counts the user's alerts by state and rule type
func (e *Evaluator) Statistics(username string) (*models.AlertStatistics, error) {
	return e.store.GetAlertStatistics(username)
}
