package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type resetCmd struct {
	version string
	confirm bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "erase every row of the ledger" }
func (*resetCmd) Usage() string {
	return `financas reset -confirm [-version <v>]

  Replaces the ledger with an empty one. Export it first if you may need it.
  Without -version the current version is used.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.confirm, "confirm", false, "Required: confirm the ledger is to be erased.")
	f.StringVar(&c.version, "version", "", "Only reset if the ledger is still at this version.")
}

func (c *resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.confirm {
		fmt.Fprintln(stderr, "Error: reset erases the whole ledger; pass -confirm to proceed.")
		return subcommands.ExitUsageError
	}
	return withEnv(ctx, func(e *env) error {
		version := c.version
		if version == "" {
			l, err := e.ledger.Snapshot(ctx)
			if err != nil {
				return err
			}
			version = l.Version
		}
		newVersion, err := e.ledger.Reset(ctx, version)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Ledger reset. Version %s\n", newVersion)
		return nil
	})
}
