package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/trogers1052/stock-tracker/internal/forecast"
	"github.com/trogers1052/stock-tracker/internal/indicators"
	"github.com/trogers1052/stock-tracker/internal/marketdata"
	"github.com/trogers1052/stock-tracker/internal/models"
)

type indicatorsCmd struct {
	period string
	csv    bool
	output string
}

func (*indicatorsCmd) Name() string     { return "indicators" }
func (*indicatorsCmd) Synopsis() string { return "compute technical indicators for a symbol" }
func (*indicatorsCmd) Usage() string {
	return `stocktracker indicators [-period <range>] [-csv] [-o <file>] <symbol>

  Prints the latest value of every indicator and the derived trading signals,
  or with -csv the full per-day table. The latest values are saved to the store.
`
}

func (c *indicatorsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.period, "period", "1y", "history range (1mo, 3mo, 6mo, 1y, 2y, 5y, ...)")
	f.BoolVar(&c.csv, "csv", false, "write every bar as CSV instead of the latest values")
	f.StringVar(&c.output, "o", "", "output file (default stdout)")
}

func (c *indicatorsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}
	if !marketdata.ValidPeriod(c.period) {
		fmt.Fprintf(os.Stderr, "Error: unsupported period %q\n", c.period)
		return subcommands.ExitUsageError
	}

	a, err := newApp(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	series, err := a.market.History(ctx, marketdata.NormalizeSymbol(f.Arg(0)), c.period)
	if err != nil {
		return fail("%v", err)
	}
	analysis := indicators.Analyze(series)
	if snap := indicators.Snapshot(series, analysis); len(snap) > 0 {
		if err := a.db.CreateTechnicalIndicatorBatch(snap); err != nil {
			slog.Warn("failed to save indicators", "symbol", series.Symbol, "error", err)
		}
	}

	w, closeOut, err := openOutput(c.output)
	if err != nil {
		return fail("%v", err)
	}
	defer closeOut()

	if c.csv {
		err = indicators.WriteCSV(w, series, analysis)
	} else {
		err = printAnalysis(w, series, analysis)
	}
	if err != nil {
		return fail("%v", err)
	}
	return subcommands.ExitSuccess
}

func printAnalysis(w io.Writer, series *models.PriceSeries, analysis indicators.Analysis) error {
	last, _ := series.Last()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\tclose %.2f\n", series.Symbol, last.Time.Format(models.DateLayout), last.Close)
	latest := analysis.Latest()
	for _, name := range analysis.Names() {
		if v, ok := latest[name]; ok {
			fmt.Fprintf(tw, "%s\t%.4f\n", name, v)
		} else {
			fmt.Fprintf(tw, "%s\t-\n", name)
		}
	}
	for _, s := range indicators.Signals(analysis, series.Closes()) {
		fmt.Fprintf(tw, "signal\t%s\t%s\t%s\n", s.Indicator, s.Action, s.Reason)
	}
	return tw.Flush()
}

type forecastCmd struct {
	model    string
	days     int
	username string
	csv      bool
	output   string
}

func (*forecastCmd) Name() string     { return "forecast" }
func (*forecastCmd) Synopsis() string { return "predict future closing prices for a symbol" }
func (*forecastCmd) Usage() string {
	return `stocktracker forecast [-model <name>] [-days <n>] [-user <name>] [-csv] [-o <file>] <symbol>

  Trains the model on the configured history, reports MAE and RMSE on the
  held-out tail and predicts the next business days. With -user the run is saved.
  Models: linear_regression, random_forest, gradient_boosting.
`
}

func (c *forecastCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.model, "model", models.ModelRandomForest, "model name")
	f.IntVar(&c.days, "days", 30, "number of business days to predict")
	f.StringVar(&c.username, "user", "", "save the forecast under this user")
	f.BoolVar(&c.csv, "csv", false, "write predictions as CSV")
	f.StringVar(&c.output, "o", "", "output file (default stdout)")
}

func (c *forecastCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}

	a, err := newApp(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	fc, err := a.forecasts.Run(ctx, c.username, f.Arg(0), c.model, c.days)
	if err != nil {
		return fail("%v", err)
	}

	w, closeOut, err := openOutput(c.output)
	if err != nil {
		return fail("%v", err)
	}
	defer closeOut()

	if c.csv {
		err = forecast.WriteCSV(w, fc)
	} else {
		err = printForecast(w, fc)
	}
	if err != nil {
		return fail("%v", err)
	}
	return subcommands.ExitSuccess
}

func printForecast(w io.Writer, fc *models.Forecast) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\tMAE %.4f\tRMSE %.4f\n", fc.Symbol, fc.Model, fc.MAE, fc.RMSE)
	for _, p := range fc.Points {
		fmt.Fprintf(tw, "%s\t%.2f\n", p.Date.Format(models.DateLayout), p.Close)
	}
	return tw.Flush()
}

// openOutput returns stdout for an empty path
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return file, func() {
		if err := file.Close(); err != nil {
			slog.Warn("failed to close output", "path", path, "error", err)
		}
	}, nil
}
