package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"financas/internal/core"
	"financas/internal/ledger"
)

type editCmd struct {
	filterFlags
	in      string
	out     string
	version string
}

func (*editCmd) Name() string     { return "edit" }
func (*editCmd) Synopsis() string { return "edit a filtered slice of the ledger through a CSV file" }
func (*editCmd) Usage() string {
	return `financas edit [-month YYYY-MM] [-category <c>] [-origin <o>] [-q <text>] [-out <file>]
financas edit [same filters] -version <v> -in <file>

  Without -in, writes the rows matching the filters as CSV and prints the
  ledger version they were read at. Edit the file: change cells, delete rows,
  add rows with a blank id. Then run again with the same filters, -version
  and -in to replace exactly those rows with the file's content. Rows outside
  the filters are never touched. If the ledger changed in between nothing is
  written.
`
}

func (c *editCmd) SetFlags(f *flag.FlagSet) {
	c.filterFlags.register(f)
	f.StringVar(&c.in, "in", "", "Edited CSV to save ('-' reads stdin).")
	f.StringVar(&c.out, "out", "", "Where to write the working set. Defaults to stdout.")
	f.StringVar(&c.version, "version", "", "Ledger version printed when the working set was written.")
}

func (c *editCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	// An empty ledger has an empty version, so presence is what counts.
	versionSet := false
	f.Visit(func(fl *flag.Flag) {
		if fl.Name == "version" {
			versionSet = true
		}
	})
	if c.in != "" && !versionSet {
		fmt.Fprintln(stderr, "Error: -in requires the -version the working set was read at.")
		return subcommands.ExitUsageError
	}
	return withEnv(ctx, func(e *env) error {
		if c.in == "" {
			return c.dump(ctx, e)
		}
		return c.save(ctx, e)
	})
}

func (c *editCmd) dump(ctx context.Context, e *env) error {
	view, err := e.ledger.WorkingSet(ctx, c.filter())
	if err != nil {
		return err
	}

	w := stdout
	if c.out != "" {
		file, err := os.Create(c.out)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	if err := ledger.Encode(w, view.Rows); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "%d row(s) selected at version %q\n", len(view.Rows), view.Version)
	return nil
}

func (c *editCmd) save(ctx context.Context, e *env) error {
	edited, err := c.readEdited()
	if err != nil {
		return err
	}
	for _, r := range edited {
		if err := e.checkPayer(r.Payer); err != nil {
			return err
		}
	}

	// The same filters at the same version select the same rows.
	view, err := e.ledger.WorkingSet(ctx, c.filter())
	if err != nil {
		return err
	}
	out, err := e.ledger.SaveWorkingSet(ctx, c.version, view.IDs, edited)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Deleted %d, inserted %d, updated %d row(s). Ledger version %s\n",
		out.Deleted, out.Inserted, out.Updated, out.Version)
	return nil
}

func (c *editCmd) readEdited() ([]core.Transaction, error) {
	var in io.Reader = stdin
	if c.in != "-" {
		file, err := os.Open(c.in)
		if err != nil {
			return nil, err
		}
		defer file.Close()
		in = file
	}

	t, err := ledger.ReadCSV(in)
	if err != nil {
		return nil, err
	}
	if len(t.Header) == 0 {
		return []core.Transaction{}, nil
	}
	n := ledger.Normalize(t)
	if len(n.Quarantined) > 0 {
		lines := make([]string, 0, len(n.Quarantined))
		for _, q := range n.Quarantined {
			lines = append(lines, fmt.Sprintf("line %d: %s", q.Line, q.Reason))
		}
		return nil, fmt.Errorf("edited file has unreadable rows:\n  %s", strings.Join(lines, "\n  "))
	}
	return n.Rows, nil
}
