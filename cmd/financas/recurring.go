package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"

	"financas/internal/core"
	"financas/internal/services"
)

type recurringCmd struct {
	description string
	amount      string
	day         int
	months      int
	category    string
	payer       string
	start       string
}

func (*recurringCmd) Name() string     { return "recurring" }
func (*recurringCmd) Synopsis() string { return "add a monthly income for the coming months" }
func (*recurringCmd) Usage() string {
	return `financas recurring -desc <text> -amount <value> -day <1-31> -months <n> [-start YYYY-MM] [-category <c>] [-payer <p>]

  Appends one income row per month, tagged with origin Previsão. A day the
  month does not have falls back to the 28th.
`
}

func (c *recurringCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.description, "desc", "", "Description, e.g. Salário.")
	f.StringVar(&c.amount, "amount", "", "Monthly amount.")
	f.IntVar(&c.day, "day", 5, "Day of month the income arrives.")
	f.IntVar(&c.months, "months", 12, "Number of months to generate.")
	f.StringVar(&c.start, "start", "", "First month, as YYYY-MM. Defaults to the current month.")
	f.StringVar(&c.category, "category", string(core.CategorySalary), categoryUsage())
	f.StringVar(&c.payer, "payer", string(core.PayerCouple), "Who the income belongs to.")
}

func (c *recurringCmd) request() (services.RecurringRequest, error) {
	amount, err := core.ParseAmount(c.amount)
	if err != nil {
		return services.RecurringRequest{}, fmt.Errorf("%w: %q", err, c.amount)
	}
	req := services.RecurringRequest{
		Description: strings.TrimSpace(c.description),
		Amount:      amount,
		Day:         c.day,
		Months:      c.months,
		Category:    core.Category(c.category),
		Payer:       core.Payer(c.payer),
	}
	if c.start != "" {
		d, err := core.ParseDate(c.start + "-01")
		if err != nil {
			return req, fmt.Errorf("invalid start month %q: want YYYY-MM", c.start)
		}
		req.Start = d
	}
	return req, req.Validate()
}

func (c *recurringCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	req, err := c.request()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	return withEnv(ctx, func(e *env) error {
		if err := e.checkPayer(req.Payer); err != nil {
			return err
		}
		out, err := e.ledger.AddRecurring(ctx, req)
		if err != nil {
			return err
		}
		printAppend(out.Added, out.Duplicates, out.Version)
		return nil
	})
}
