// Package cli implements the stocktracker subcommands and the wiring they share.
package cli

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/trogers1052/stock-tracker/internal/alerts"
	"github.com/trogers1052/stock-tracker/internal/config"
	"github.com/trogers1052/stock-tracker/internal/database"
	"github.com/trogers1052/stock-tracker/internal/forecast"
	"github.com/trogers1052/stock-tracker/internal/kafka"
	"github.com/trogers1052/stock-tracker/internal/logger"
	"github.com/trogers1052/stock-tracker/internal/marketdata"
	"github.com/trogers1052/stock-tracker/internal/metrics"
	"github.com/trogers1052/stock-tracker/internal/notifier"
	"github.com/trogers1052/stock-tracker/internal/portfolio"
)

var configPath = flag.String("config", "", "path to the YAML config file (default $CONFIG_PATH or "+config.DefaultPath+")")

// Register adds every subcommand to c
func Register(c *subcommands.Commander) {
	c.Register(&serveCmd{}, "server")
	c.Register(&migrateCmd{}, "server")

	c.Register(&checkAlertsCmd{}, "alerts")

	c.Register(&indicatorsCmd{}, "analysis")
	c.Register(&forecastCmd{}, "analysis")

	c.Register(&exportHoldingsCmd{}, "portfolio")
	c.Register(&importHoldingsCmd{}, "portfolio")
}

// app is the set of services a command runs against
type app struct {
	cfg       *config.Config
	db        *database.DB
	metrics   *metrics.Metrics
	market    *marketdata.Service
	portfolio *portfolio.Service
	alerts    *alerts.Evaluator
	forecasts *forecast.Service
	producer  *kafka.Producer
	cache     *marketdata.RedisCache
	closers   []func() error
}

func loadConfig() (*config.Config, error) {
	path := *configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := logger.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

func openDatabase(cfg config.DatabaseConfig) (*database.DB, error) {
	switch cfg.Driver {
	case database.DriverSQLite:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		return database.New(database.DriverSQLite, database.SQLiteDSN(cfg.SQLitePath))
	case database.DriverPostgres:
		return database.New(database.DriverPostgres, cfg.ConnectionString())
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// newApp loads the config, opens and migrates the store and builds the
// services. Optional integrations are wired only when configured.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, db: db, metrics: metrics.New()}
	a.closers = append(a.closers, db.Close)

	if err := db.Migrate(); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	client := marketdata.NewClient(cfg.MarketData.BaseURL, cfg.MarketData.Timeout)
	if cfg.Redis.Enabled() {
		rdb := marketdata.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cache := marketdata.NewRedisCache(rdb, "stocktracker:chart:", cfg.Redis.TTL)
		if err := cache.Ping(ctx); err != nil {
			slog.Warn("redis unavailable, market data cache disabled", "addr", cfg.Redis.Addr, "error", err)
			rdb.Close()
		} else {
			client.WithCache(cache)
			a.cache = cache
			a.closers = append(a.closers, rdb.Close)
			slog.Info("market data cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL)
		}
	}
	a.market = marketdata.NewService(client, db, a.metrics)

	opts := []alerts.Option{
		alerts.WithMetrics(a.metrics),
		alerts.WithHistoryPeriod(cfg.Alerts.HistoryPeriod),
	}
	if cfg.SMTP.Configured() {
		opts = append(opts, alerts.WithNotifier(notifier.NewSMTP(notifier.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}), cfg.Alerts.DefaultRecipient))
	} else {
		slog.Info("smtp not configured, alert emails disabled")
	}

	if cfg.Kafka.Enabled() {
		a.producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.closers = append(a.closers, a.producer.Close)
		opts = append(opts, alerts.WithPublisher(a.producer))
		a.portfolio = portfolio.NewService(db, a.market, a.producer)
	} else {
		a.portfolio = portfolio.NewService(db, a.market, nil)
	}

	a.alerts = alerts.NewEvaluator(db, a.market, opts...)
	a.forecasts = forecast.NewService(a.market, db, forecast.Config{
		Seed:    cfg.Forecast.Seed,
		Period:  cfg.Forecast.Period,
		MaxDays: cfg.Forecast.MaxDays,
	})
	return a, nil
}

// Close releases everything newApp opened, last opened first
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}

func fail(format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	return subcommands.ExitFailure
}
