package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/trogers1052/stock-tracker/internal/api"
	"github.com/trogers1052/stock-tracker/internal/kafka"
	"github.com/trogers1052/stock-tracker/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

type serveCmd struct {
	noScheduler bool
	runNow      bool
	shutdown    time.Duration
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the HTTP API, alert scheduler and quote consumer" }
func (*serveCmd) Usage() string {
	return `stocktracker serve [-no-scheduler] [-run-now] [-shutdown-timeout <duration>]

  Serves the REST API. Alerts are evaluated on the configured cron schedule and,
  when Kafka is configured, on every quote read from the quote topic.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.noScheduler, "no-scheduler", false, "do not run scheduled alert checks or retention")
	f.BoolVar(&c.runNow, "run-now", false, "evaluate alerts once at startup")
	f.DurationVar(&c.shutdown, "shutdown-timeout", 30*time.Second, "grace period for in-flight requests")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	var workers []func(context.Context) error

	if !c.noScheduler {
		r := a.cfg.Retention
		sched := scheduler.New(ctx, a.alerts, a.db, scheduler.Retention{
			PriceData:    r.PriceData,
			Indicators:   r.Indicators,
			AlertHistory: r.AlertHistory,
		})
		if err := sched.RegisterAll(a.cfg.Alerts.Cron); err != nil {
			return fail("%v", err)
		}
		sched.Start()
		defer sched.Stop()
		if c.runNow {
			workers = append(workers, func(context.Context) error {
				sched.RunNow()
				return nil
			})
		}
	}

	if a.cfg.Kafka.Enabled() && a.cfg.Kafka.QuoteTopic != "" {
		consumer := kafka.NewConsumer(a.cfg.Kafka.Brokers, a.cfg.Kafka.QuoteTopic, a.cfg.Kafka.GroupID, a.alerts)
		workers = append(workers, func(ctx context.Context) error {
			if err := consumer.Start(ctx); err != nil {
				return fmt.Errorf("kafka consumer: %w", err)
			}
			return nil
		})
	}

	router := api.SetupRoutes(api.NewHandler(a.db, a.market, a.portfolio, a.alerts, a.forecasts, a.cfg.MarketData.DefaultPeriod), a.metrics)
	srv := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	slog.Info("starting server", "addr", srv.Addr, "driver", a.db.Driver())
	if err := runServer(ctx, srv, quit, c.shutdown, workers...); err != nil {
		slog.Error("server exited with error", "error", err)
		return subcommands.ExitFailure
	}
	slog.Info("server exited")
	return subcommands.ExitSuccess
}

// runServer serves srv alongside workers until a signal arrives on quit or
// any of them fails, then shuts srv down within grace and stops the rest.
func runServer(ctx context.Context, srv *http.Server, quit <-chan os.Signal, grace time.Duration, workers ...func(context.Context) error) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	for _, w := range workers {
		g.Go(func() error { return w(ctx) })
	}

	g.Go(func() error {
		select {
		case sig := <-quit:
			slog.Info("shutting down server", "signal", sig.String())
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down")
		}
		defer stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
