package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"folio/internal/application/usecase/monitor"
)

type summaryCmd struct {
	json  bool
	color bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "print the current portfolio valuation" }
func (*summaryCmd) Usage() string {
	return `folio summary [-json] [-color]

  Replays the ledger, fetches current prices for every open position and
  prints one line per holding followed by the portfolio totals.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "print the summary as JSON")
	f.BoolVar(&c.color, "color", true, "colourise profit and loss")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sc, cleanup, err := bootstrap(ctx)
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	sum, err := sc.Container.PortfolioService().Summary(ctx)
	if err != nil {
		return fail(err)
	}

	if c.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sum); err != nil {
			return fail(err)
		}
		return subcommands.ExitSuccess
	}

	fmt.Println(monitor.NewFormatter(c.color).RenderSummary(sum))
	return subcommands.ExitSuccess
}
