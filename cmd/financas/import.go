package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"financas/internal/core"
	"financas/internal/importer"
)

const (
	shapeBank  = importer.ShapeBank
	shapeSheet = importer.ShapeAnnualSheet
)

type importCmd struct {
	shape  importer.Shape
	payer  string
	dryRun bool
}

func (c *importCmd) Name() string {
	if c.shape == shapeSheet {
		return "import-sheet"
	}
	return "import-bank"
}

func (c *importCmd) Synopsis() string {
	if c.shape == shapeSheet {
		return "import an annual spreadsheet export (categories by months)"
	}
	return "import a bank statement CSV (date,title,amount[,category])"
}

func (c *importCmd) Usage() string {
	return fmt.Sprintf(`financas %s [-payer <p>] [-dry-run] <file.csv | ->

  Parses the file, prints the candidate rows and the skipped lines, then
  appends the candidates. Rows already in the ledger are not added twice.
  With -dry-run nothing is written.
`, c.Name())
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.payer, "payer", string(core.PayerCouple), "Who the imported rows belong to.")
	f.BoolVar(&c.dryRun, "dry-run", false, "Only show the preview.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one input file is required ('-' reads stdin).")
		return subcommands.ExitUsageError
	}
	return withEnv(ctx, func(e *env) error {
		payer := core.Payer(c.payer)
		if err := e.checkPayer(payer); err != nil {
			return err
		}

		preview, err := c.parse(f.Arg(0), payer)
		if err != nil {
			return err
		}
		printPreview(preview)

		if c.dryRun {
			fmt.Fprintln(stdout, "Dry run: ledger not modified.")
			return nil
		}
		if len(preview.Rows) == 0 {
			fmt.Fprintln(stdout, "Nothing to import.")
			return nil
		}
		out, err := e.ledger.ConfirmImport(ctx, preview.Rows, payer)
		if err != nil {
			return err
		}
		printAppend(out.Added, out.Duplicates, out.Version)
		return nil
	})
}

func (c *importCmd) parse(name string, payer core.Payer) (importer.Preview, error) {
	in := stdin
	if name != "-" {
		file, err := os.Open(name)
		if err != nil {
			return importer.Preview{}, err
		}
		defer file.Close()
		in = file
	}
	return importer.Parse(c.shape, in, importer.Options{Payer: payer})
}

func printPreview(p importer.Preview) {
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tDESCRIPTION\tCATEGORY\tKIND\tAMOUNT\tORIGIN")
	for _, r := range p.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Date, r.Description, r.Category, r.Kind, core.DisplayBRL(r.Amount), r.Origin)
	}
	tw.Flush()

	fmt.Fprintf(stdout, "%d candidate row(s), %d skipped line(s)\n", len(p.Rows), len(p.Skipped))
	for _, s := range p.Skipped {
		fmt.Fprintf(stdout, "  line %d: %s\n", s.Line, s.Reason)
	}
}
