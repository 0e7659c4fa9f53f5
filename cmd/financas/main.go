package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "ledger")
	}
	commander.Register(&sheetsAuthCmd{}, "setup")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

var commands = []subcommands.Command{
	&addCmd{},
	&importCmd{shape: shapeBank},
	&importCmd{shape: shapeSheet},
	&recurringCmd{},
	&summaryCmd{},
	&editCmd{},
	&exportCmd{},
	&resetCmd{},
}
