package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type exportCmd struct {
	out string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the whole ledger as canonical CSV" }
func (*exportCmd) Usage() string {
	return `financas export [-out <file>]

  Writes every row, unreadable stored rows included, with the header
  date,description,category,payer,kind,amount,origin,id.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "out", "", "Destination file. Defaults to stdout.")
}

func (c *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withEnv(ctx, func(e *env) error {
		if c.out == "" {
			return e.ledger.Export(ctx, stdout)
		}
		file, err := os.Create(c.out)
		if err != nil {
			return err
		}
		if err := e.ledger.Export(ctx, file); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Ledger exported to %s\n", c.out)
		return nil
	})
}
