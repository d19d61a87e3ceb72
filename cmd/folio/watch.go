package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"

	"folio/internal/application/usecase/monitor"
)

type watchCmd struct {
	color bool
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "live terminal view of open positions" }
func (*watchCmd) Usage() string {
	return `folio watch [-color]

  Keeps one live line of prices for every open position and prints a full
  valuation snapshot every watch.snapshot_interval. Uses the streaming feed
  when stream.enabled is set, otherwise polls the quote sources.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.color, "color", true, "colourise prices")
}

func (c *watchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, cleanup, err := bootstrap(ctx)
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	svc := monitor.NewService(sc.BuildMonitorServiceDeps(c.color))
	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fail(err)
	}
	log.Info().Msg("watch stopped")
	return subcommands.ExitSuccess
}
