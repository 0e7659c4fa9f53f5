package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/summary"
)

type summaryCmd struct {
	month  string
	income string
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show the monthly report" }
func (*summaryCmd) Usage() string {
	return `financas summary [-month YYYY-MM] [-income <value>]

  Prints totals, savings rate, spending per category against the configured
  budgets, income commitment and the month-by-month evolution. Without
  -month the most recent month in the ledger is shown.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "Month to report, as YYYY-MM.")
	f.StringVar(&c.income, "income", "", "Projected monthly income. Defaults to PROJECTED_INCOME.")
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withEnv(ctx, func(e *env) error {
		ceilings, err := e.cfg.Ceilings()
		if err != nil {
			return err
		}
		income, err := e.cfg.Income()
		if err != nil {
			return err
		}
		if c.income != "" {
			if income, err = core.ParseAmount(c.income); err != nil {
				return fmt.Errorf("%w: %q", err, c.income)
			}
		}

		report, _, err := e.ledger.Report(ctx, c.month, ceilings, income)
		if err != nil {
			return err
		}
		printReport(stdout, report)
		return nil
	})
}

func printReport(w io.Writer, r summary.Report) {
	if r.Month == "" {
		fmt.Fprintln(w, "The ledger is empty.")
		return
	}
	fmt.Fprintf(w, "Month %s\n\n", r.Month)
	fmt.Fprintf(w, "Income   %s\n", core.DisplayBRL(r.Totals.Income))
	fmt.Fprintf(w, "Expense  %s\n", core.DisplayBRL(r.Totals.Expense))
	fmt.Fprintf(w, "Balance  %s\n", core.DisplayBRL(r.Totals.Balance))
	fmt.Fprintf(w, "Savings  %s%%\n", r.SavingsRate.StringFixed(1))

	if r.Commitment != nil {
		fmt.Fprintf(w, "\nProjected income %s, balance %s, %s%% committed (%s)\n",
			core.DisplayBRL(r.ProjectedIncome),
			core.DisplayBRL(r.ProjectedBalance),
			percent(r.Commitment.Ratio),
			r.Commitment.Level)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if len(r.Categories) > 0 {
		fmt.Fprintln(tw, "\nCATEGORY\tSPENT\t")
		for _, c := range r.Categories {
			fmt.Fprintf(tw, "%s\t%s\t\n", c.Category, core.DisplayBRL(c.Amount))
		}
	}
	if len(r.Budget) > 0 {
		fmt.Fprintln(tw, "\nBUDGET\tSPENT\tCEILING\tREMAINING\tUSED\t")
		for _, b := range r.Budget {
			mark := ""
			if b.Over() {
				mark = "over"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s%%\t%s\n", b.Category,
				core.DisplayBRL(b.Spent), core.DisplayBRL(b.Ceiling),
				core.DisplayBRL(b.Remaining), percent(b.Ratio), mark)
		}
	}
	if len(r.Origins) > 0 {
		fmt.Fprintln(tw, "\nORIGIN\tINCOME\tEXPENSE\t")
		for _, o := range r.Origins {
			fmt.Fprintf(tw, "%s\t%s\t%s\t\n", o.Origin, core.DisplayBRL(o.Income), core.DisplayBRL(o.Expense))
		}
	}
	if len(r.Evolution) > 0 {
		fmt.Fprintln(tw, "\nMONTH\tINCOME\tEXPENSE\tBALANCE\t")
		for _, m := range r.Evolution {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", m.Month,
				core.DisplayBRL(m.Income), core.DisplayBRL(m.Expense), core.DisplayBRL(m.Balance))
		}
	}
	tw.Flush()
}

func percent(ratio decimal.Decimal) string {
	return ratio.Mul(decimal.NewFromInt(100)).StringFixed(0)
}
