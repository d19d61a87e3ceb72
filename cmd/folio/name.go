package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type nameCmd struct {
	market string
}

func (*nameCmd) Name() string     { return "name" }
func (*nameCmd) Synopsis() string { return "look up a stock's display name" }
func (*nameCmd) Usage() string {
	return `folio name [-market TWSE|TWO] <code>
`
}

func (c *nameCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.market, "market", "TWSE", "TWSE or TWO")
}

func (c *nameCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sc, cleanup, err := bootstrap(ctx)
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	res, err := sc.Container.NameService().Lookup(ctx, f.Arg(0), c.market)
	if err != nil {
		return fail(err)
	}
	fmt.Println(res.Name)
	return subcommands.ExitSuccess
}
