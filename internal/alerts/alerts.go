// Package alerts evaluates user price alerts. Each alert fires once per
// crossing: active -> triggered, and back to active only by an explicit reset.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/stock-tracker/internal/indicators"
	"github.com/trogers1052/stock-tracker/internal/metrics"
	"github.com/trogers1052/stock-tracker/internal/models"
	"github.com/trogers1052/stock-tracker/internal/notifier"
)

// RSIPeriod is the lookback of RSI alerts
const RSIPeriod = 14

// DefaultHistoryLimit bounds History when no limit is given
const DefaultHistoryLimit = 50

// ErrInvalidAlert is returned by Create for a malformed rule
var ErrInvalidAlert = errors.New("invalid alert")

// Store persists alerts and their history
type Store interface {
	CreateAlert(a *models.Alert) error
	GetAlert(username string, id int) (*models.Alert, error)
	GetAlerts(username string) ([]*models.Alert, error)
	UpdateAlert(a *models.Alert) error
	GetActiveAlerts() ([]*models.Alert, error)
	GetActiveAlertsBySymbol(symbol string) ([]*models.Alert, error)
	TriggerAlert(a *models.Alert, value decimal.Decimal, message string) (*models.AlertHistory, bool, error)
	ResetAlert(username string, id int) error
	DeleteAlert(username string, id int) error
	GetAlertStatistics(username string) (*models.AlertStatistics, error)
	GetAlertHistory(username string, limit int) ([]*models.AlertHistory, error)
	SetAlertHistoryNotification(id int, sent bool, notifyErr string) error
}

// MarketData supplies quotes and daily history
type MarketData interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
	History(ctx context.Context, symbol, period string) (*models.PriceSeries, error)
}

// Notifier sends alert emails
type Notifier interface {
	notifier.Sender
	Configured() bool
}

// Publisher announces triggered alerts on the event bus
type Publisher interface {
	PublishAlertTriggered(ctx context.Context, alert *models.Alert) error
}

// Evaluator runs evaluation passes over active alerts. Passes are serialized;
// the store's conditional update keeps each transition once-only even across
// processes.
type Evaluator struct {
	store            Store
	market           MarketData
	notifier         Notifier
	publisher        Publisher
	metrics          *metrics.Metrics
	defaultRecipient string
	historyPeriod    string

	mu sync.Mutex
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithNotifier enables email; recipient is used for alerts without their own address
func WithNotifier(n Notifier, recipient string) Option {
	return func(e *Evaluator) {
		e.notifier = n
		e.defaultRecipient = recipient
	}
}

// WithPublisher enables ALERT_TRIGGERED events
func WithPublisher(p Publisher) Option {
	return func(e *Evaluator) { e.publisher = p }
}

// WithMetrics records evaluation counters
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Evaluator) { e.metrics = m }
}

// WithHistoryPeriod sets the history window used for RSI alerts
func WithHistoryPeriod(period string) Option {
	return func(e *Evaluator) {
		if period != "" {
			e.historyPeriod = period
		}
	}
}

// NewEvaluator creates an evaluator
func NewEvaluator(store Store, market MarketData, opts ...Option) *Evaluator {
	e := &Evaluator{
		store:         store,
		market:        market,
		historyPeriod: "3mo",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result summarises one evaluation pass
type Result struct {
	Checked       int                    `json:"checked"`
	Triggered     []*models.AlertHistory `json:"triggered"`
	FailedSymbols []string               `json:"failed_symbols,omitempty"`
}

// Evaluate checks every active alert once. Alerts are grouped by symbol so
// each symbol is quoted once; a symbol whose data cannot be fetched is skipped.
func (e *Evaluator) Evaluate(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.metrics.ObserveEvaluation()
	active, err := e.store.GetActiveAlerts()
	if err != nil {
		return nil, fmt.Errorf("failed to load active alerts: %w", err)
	}

	groups := make(map[string][]*models.Alert)
	for _, a := range active {
		groups[a.Symbol] = append(groups[a.Symbol], a)
	}
	symbols := make([]string, 0, len(groups))
	for symbol := range groups {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	res := &Result{}
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		alerts := groups[symbol]

		obs, err := e.observe(ctx, symbol, alerts, nil)
		if err != nil {
			slog.Warn("skipping alerts for symbol", "symbol", symbol, "alerts", len(alerts), "error", err)
			res.FailedSymbols = append(res.FailedSymbols, symbol)
			continue
		}
		if err := e.apply(ctx, alerts, obs, res); err != nil {
			return res, err
		}
	}

	slog.Info("alert evaluation finished",
		"checked", res.Checked, "triggered", len(res.Triggered), "failed_symbols", len(res.FailedSymbols))
	return res, nil
}

// EvaluateQuote checks the active alerts of one symbol against a quote
// supplied from outside, e.g. a live tick
func (e *Evaluator) EvaluateQuote(ctx context.Context, symbol string, price, previousClose decimal.Decimal) error {
	_, err := e.EvaluateSymbolQuote(ctx, symbol, price, previousClose)
	return err
}

// EvaluateSymbolQuote is EvaluateQuote returning the pass result
func (e *Evaluator) EvaluateSymbolQuote(ctx context.Context, symbol string, price, previousClose decimal.Decimal) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	alerts, err := e.store.GetActiveAlertsBySymbol(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to load alerts for %s: %w", symbol, err)
	}

	res := &Result{}
	if len(alerts) == 0 {
		return res, nil
	}

	obs, err := e.observe(ctx, symbol, alerts, &observation{price: price, prevClose: previousClose, hasQuote: true})
	if err != nil {
		slog.Warn("skipping alerts for symbol", "symbol", symbol, "error", err)
		res.FailedSymbols = append(res.FailedSymbols, symbol)
		return res, nil
	}
	return res, e.apply(ctx, alerts, obs, res)
}

func (e *Evaluator) apply(ctx context.Context, alerts []*models.Alert, obs *observation, res *Result) error {
	for _, a := range alerts {
		if !a.IsActive() {
			continue
		}
		value, ok := obs.value(a.RuleType)
		if !ok {
			continue
		}
		res.Checked++
		if !a.Matches(value) {
			continue
		}

		h, fired, err := e.store.TriggerAlert(a, value, describe(a, value))
		if err != nil {
			return fmt.Errorf("failed to trigger alert %d: %w", a.ID, err)
		}
		if !fired {
			// another pass got there first
			continue
		}

		slog.Info("alert triggered", "alert_id", a.ID, "username", a.Username, "symbol", a.Symbol,
			"rule_type", a.RuleType, "value", value.String(), "threshold", a.Threshold.String())
		e.metrics.ObserveTrigger(a.RuleType)
		e.notify(ctx, a, h)
		e.publish(ctx, a)
		res.Triggered = append(res.Triggered, h)
	}
	return nil
}

func (e *Evaluator) notify(ctx context.Context, a *models.Alert, h *models.AlertHistory) {
	if e.notifier == nil || !e.notifier.Configured() {
		return
	}
	recipient := a.NotifyEmail
	if recipient == "" {
		recipient = e.defaultRecipient
	}
	if recipient == "" {
		return
	}

	subject, body := notifier.AlertMessage(h)
	sendErr := e.notifier.Send(ctx, recipient, subject, body)

	errText := ""
	if sendErr != nil {
		errText = sendErr.Error()
		e.metrics.ObserveNotificationFailure()
		slog.Warn("failed to send alert email", "alert_id", a.ID, "to", recipient, "error", sendErr)
	}
	h.NotificationSent = sendErr == nil
	h.NotificationError = errText
	if err := e.store.SetAlertHistoryNotification(h.ID, h.NotificationSent, errText); err != nil {
		slog.Warn("failed to record notification outcome", "history_id", h.ID, "error", err)
	}
}

func (e *Evaluator) publish(ctx context.Context, a *models.Alert) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishAlertTriggered(ctx, a); err != nil {
		slog.Warn("failed to publish alert event", "alert_id", a.ID, "error", err)
	}
}

func describe(a *models.Alert, value decimal.Decimal) string {
	switch a.RuleType {
	case models.RuleTypePercentChange:
		return fmt.Sprintf("%s moved %s%% (%s %s%%)", a.Symbol, value.StringFixed(2), a.Comparison, a.Threshold.StringFixed(2))
	case models.RuleTypeRSI:
		return fmt.Sprintf("%s RSI(%d) %s %s %s", a.Symbol, RSIPeriod, value.StringFixed(2), a.Comparison, a.Threshold.StringFixed(2))
	}
	return fmt.Sprintf("%s price %s %s %s", a.Symbol, value.StringFixed(2), a.Comparison, a.Threshold.StringFixed(2))
}

// observation is what one symbol looks like right now
type observation struct {
	price     decimal.Decimal
	prevClose decimal.Decimal
	hasQuote  bool
	rsi       decimal.Decimal
	hasRSI    bool
}

func (o *observation) value(ruleType string) (decimal.Decimal, bool) {
	switch ruleType {
	case models.RuleTypePrice:
		return o.price, o.hasQuote
	case models.RuleTypePercentChange:
		if !o.hasQuote || o.prevClose.IsZero() {
			return decimal.Zero, false
		}
		return PercentChange(o.price, o.prevClose), true
	case models.RuleTypeRSI:
		return o.rsi, o.hasRSI
	}
	return decimal.Zero, false
}

// PercentChange returns |price - prev| / prev * 100
func PercentChange(price, prev decimal.Decimal) decimal.Decimal {
	return price.Sub(prev).Abs().Div(prev).Mul(decimal.NewFromInt(100))
}

func (e *Evaluator) observe(ctx context.Context, symbol string, alerts []*models.Alert, obs *observation) (*observation, error) {
	needQuote, needRSI := false, false
	for _, a := range alerts {
		switch a.RuleType {
		case models.RuleTypeRSI:
			needRSI = true
		default:
			needQuote = true
		}
	}

	if obs == nil {
		obs = &observation{}
	}
	if needQuote && !obs.hasQuote {
		q, err := e.market.Quote(ctx, symbol)
		if err != nil {
			return nil, err
		}
		obs.price = decimal.NewFromFloat(q.Price)
		obs.prevClose = decimal.NewFromFloat(q.PreviousClose)
		obs.hasQuote = true
	}

	if needRSI {
		series, err := e.market.History(ctx, symbol, e.historyPeriod)
		if err != nil {
			if !obs.hasQuote {
				return nil, err
			}
			slog.Warn("rsi alerts skipped, history unavailable", "symbol", symbol, "error", err)
			return obs, nil
		}
		if v, ok := indicators.RSI(series.Closes(), RSIPeriod).LastDefined(); ok {
			obs.rsi = decimal.NewFromFloat(v)
			obs.hasRSI = true
		}
	}
	return obs, nil
}
