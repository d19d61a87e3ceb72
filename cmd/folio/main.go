package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"folio/internal/infrastructure/logger"
)

var configPath = flag.String("config", "configs/config.toml", "path to config.toml")

func main() {
	logger.Setup()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&serveCmd{}, "server")
	commander.Register(&watchCmd{}, "server")
	commander.Register(&summaryCmd{}, "portfolio")
	commander.Register(&addCmd{}, "ledger")
	commander.Register(&importCmd{}, "ledger")
	commander.Register(&exportCmd{}, "ledger")
	commander.Register(&nameCmd{}, "portfolio")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
