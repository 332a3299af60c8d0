package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
)

type exportHoldingsCmd struct {
	output     string
	valuations bool
}

func (*exportHoldingsCmd) Name() string     { return "export-holdings" }
func (*exportHoldingsCmd) Synopsis() string { return "write a user's holdings as CSV" }
func (*exportHoldingsCmd) Usage() string {
	return `stocktracker export-holdings [-o <file>] [-valuations] <username>

  Writes symbol,quantity,purchase_price,purchase_date rows that import-holdings
  reads back unchanged. With -valuations the current value and gain columns are
  added (this fetches quotes and cannot be imported).
`
}

func (c *exportHoldingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "", "output file (default stdout)")
	f.BoolVar(&c.valuations, "valuations", false, "include current prices and gains")
}

func (c *exportHoldingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return subcommands.ExitUsageError
	}

	a, err := newApp(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	w, closeOut, err := openOutput(c.output)
	if err != nil {
		return fail("%v", err)
	}
	defer closeOut()

	if c.valuations {
		err = a.portfolio.ExportValuationsCSV(ctx, f.Arg(0), w)
	} else {
		err = a.portfolio.ExportCSV(f.Arg(0), w)
	}
	if err != nil {
		return fail("%v", err)
	}
	return subcommands.ExitSuccess
}

type importHoldingsCmd struct {
	replace bool
}

func (*importHoldingsCmd) Name() string     { return "import-holdings" }
func (*importHoldingsCmd) Synopsis() string { return "load a user's holdings from CSV" }
func (*importHoldingsCmd) Usage() string {
	return `stocktracker import-holdings [-replace] <username> [<file>]

  Reads holdings CSV from file, or stdin when no file is given. Every row is
  validated before anything is written. With -replace the user's existing
  holdings are removed first.
`
}

func (c *importHoldingsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.replace, "replace", false, "replace existing holdings instead of appending")
}

func (c *importHoldingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 || f.NArg() > 2 {
		return subcommands.ExitUsageError
	}

	var r io.Reader = os.Stdin
	if f.NArg() == 2 {
		file, err := os.Open(f.Arg(1))
		if err != nil {
			return fail("%v", err)
		}
		defer file.Close()
		r = file
	}

	a, err := newApp(ctx)
	if err != nil {
		return fail("%v", err)
	}
	defer a.Close()

	n, err := a.portfolio.ImportCSV(f.Arg(0), r, c.replace)
	if err != nil {
		return fail("%v", err)
	}
	fmt.Printf("imported %d holdings for %s\n", n, f.Arg(0))
	return subcommands.ExitSuccess
}
