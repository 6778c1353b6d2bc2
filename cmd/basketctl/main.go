// Command basketctl operates a basket ledger file directly: seed config,
// baskets and balances, then deposit, withdraw and inspect.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/hxuan190/basket-engine/internal/common"
)

func main() {
	_ = godotenv.Load()
	common.SetupLogger(zerolog.WarnLevel, "dev")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range adminCommands {
		commander.Register(c, "admin")
	}
	for _, c := range userCommands {
		commander.Register(c, "user")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
