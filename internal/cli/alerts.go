package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/trogers1052/stock-tracker/internal/alerts"
)

type checkAlertsCmd struct{}

func (*checkAlertsCmd) Name() string     { return "check-alerts" }
func (*checkAlertsCmd) Synopsis() string { return "evaluate every active alert once" }
func (*checkAlertsCmd) Usage() string {
	return `stocktracker check-alerts

  Runs one evaluation pass. Alerts that fire move to triggered and stay there
  until reset, so running this repeatedly never sends the same alert twice.
`
}

func (*checkAlertsCmd) SetFlags(*flag.FlagSet) {}

func (*checkAlertsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	res, err := a.alerts.Evaluate(ctx)
	if err != nil {
		return fail("%v", err)
	}
	printResult(os.Stdout, res)
	return subcommands.ExitSuccess
}

func printResult(w io.Writer, res *alerts.Result) {
	fmt.Fprintf(w, "checked %d alerts, %d triggered\n", res.Checked, len(res.Triggered))
	for _, h := range res.Triggered {
		status := "not sent"
		if h.NotificationSent {
			status = "sent"
		} else if h.NotificationError != "" {
			status = "failed: " + h.NotificationError
		}
		fmt.Fprintf(w, "  #%d %s %s: %s (email %s)\n", h.AlertID, h.Username, h.TriggeredAt.UTC().Format(time.RFC3339), h.Message, status)
	}
	for _, symbol := range res.FailedSymbols {
		fmt.Fprintf(w, "  no data for %s, its alerts were skipped\n", symbol)
	}
}
