// Package scheduler runs alert evaluation passes and cache pruning on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/trogers1052/stock-tracker/internal/alerts"
)

// RetentionCron is when the nightly retention task runs
const RetentionCron = "0 30 2 * * *"

// Retention holds how long each table keeps rows. Zero keeps rows forever.
type Retention struct {
	PriceData    time.Duration
	Indicators   time.Duration
	AlertHistory time.Duration
}

func (r Retention) empty() bool {
	return r.PriceData <= 0 && r.Indicators <= 0 && r.AlertHistory <= 0
}

// Evaluator runs one alert evaluation pass
type Evaluator interface {
	Evaluate(ctx context.Context) (*alerts.Result, error)
}

// Pruner deletes cached rows older than a cutoff
type Pruner interface {
	DeletePriceDataOlderThan(date time.Time) (int64, error)
	DeleteIndicatorsOlderThan(date time.Time) (int64, error)
	DeleteAlertHistoryOlderThan(date time.Time) (int64, error)
}

// Scheduler manages the cron tasks
type Scheduler struct {
	cron      *cron.Cron
	evaluator Evaluator
	pruner    Pruner
	retention Retention
	ctx       context.Context
	now       func() time.Time
}

// New creates a Scheduler whose tasks run with ctx. pruner may be nil.
func New(ctx context.Context, evaluator Evaluator, pruner Pruner, retention Retention) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		evaluator: evaluator,
		pruner:    pruner,
		retention: retention,
		ctx:       ctx,
		now:       time.Now,
	}
}

// RegisterAll registers the alert check on alertCron and, with a pruner and
// at least one retention window, the nightly retention task. An empty
// alertCron disables scheduled checks.
func (s *Scheduler) RegisterAll(alertCron string) error {
	if alertCron != "" {
		if _, err := s.cron.AddFunc(alertCron, s.checkAlerts); err != nil {
			return fmt.Errorf("register alert check: %w", err)
		}
	} else {
		slog.Info("alerts.cron is empty, scheduled alert checks disabled")
	}
	if s.pruner != nil && !s.retention.empty() {
		if _, err := s.cron.AddFunc(RetentionCron, s.prune); err != nil {
			return fmt.Errorf("register retention task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "entries", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for running tasks
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	slog.Info("scheduler stopped")
}

// RunNow executes an alert check immediately
func (s *Scheduler) RunNow() {
	s.checkAlerts()
}

func (s *Scheduler) checkAlerts() {
	start := s.now()
	res, err := s.evaluator.Evaluate(s.ctx)
	if err != nil {
		slog.Error("scheduled alert check failed", "error", err)
		return
	}
	slog.Info("scheduled alert check complete",
		"checked", res.Checked,
		"triggered", len(res.Triggered),
		"failed_symbols", len(res.FailedSymbols),
		"duration", time.Since(start))
}

func (s *Scheduler) prune() {
	now := s.now().UTC()
	tasks := []struct {
		name   string
		cutoff time.Duration
		fn     func(time.Time) (int64, error)
	}{
		{"price_data", s.retention.PriceData, s.pruner.DeletePriceDataOlderThan},
		{"technical_indicators", s.retention.Indicators, s.pruner.DeleteIndicatorsOlderThan},
		{"alert_history", s.retention.AlertHistory, s.pruner.DeleteAlertHistoryOlderThan},
	}
	for _, t := range tasks {
		if t.cutoff <= 0 {
			continue
		}
		n, err := t.fn(now.Add(-t.cutoff))
		if err != nil {
			slog.Error("retention task failed", "table", t.name, "error", err)
			continue
		}
		if n > 0 {
			slog.Info("pruned old rows", "table", t.name, "rows", n)
		}
	}
}
