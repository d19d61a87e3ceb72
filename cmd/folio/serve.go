package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"

	"folio/internal/infrastructure/scheduler"
	"folio/internal/interfaces/httpapi"
)

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the portfolio HTTP API" }
func (*serveCmd) Usage() string {
	return `folio serve [-addr :8080]

  Serves the portfolio summary, the transaction ledger (list, add, import,
  export) and stock name lookup over HTTP. A background job refreshes the
  cached valuation on the configured cron schedule.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "listen address (overrides http.addr)")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, cleanup, err := bootstrap(ctx)
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	cfg := sc.Config
	addr := cfg.HTTP.Addr
	if c.addr != "" {
		addr = c.addr
	}

	sched := scheduler.New(log.Logger)
	if err := sched.AddJob("@every "+cfg.Prices.CacheTTL.String(), sc.QuoteMemo()); err != nil {
		return fail(err)
	}
	if cfg.Refresh.Enabled {
		if err := sched.AddJob(cfg.Refresh.Schedule, sc.Container.RefreshJob()); err != nil {
			return fail(err)
		}
	}
	sched.Start()
	defer sched.Stop()

	server := httpapi.New(httpapi.Config{
		Addr:         addr,
		CORSOrigins:  cfg.HTTP.CORSOrigins,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		MaxUploadMB:  cfg.HTTP.MaxUploadMB,
		Container:    sc.Container,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	log.Info().
		Str("config", *configPath).
		Str("addr", addr).
		Strs("sources", cfg.Prices.Sources).
		Bool("refresh", cfg.Refresh.Enabled).
		Msg("folio started")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fail(err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	return subcommands.ExitSuccess
}
