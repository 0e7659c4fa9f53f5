package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"financas/internal/core"
)

type addCmd struct {
	date        string
	description string
	category    string
	payer       string
	kind        string
	amount      string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add one transaction by hand" }
func (*addCmd) Usage() string {
	return `financas add -desc <text> -amount <value> [-kind SAIDA|ENTRADA] [-category <c>] [-payer <p>] [-date YYYY-MM-DD]

  Appends a manual transaction. Manual entries are never deduplicated.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Transaction date. Defaults to today.")
	f.StringVar(&c.description, "desc", "", "Description.")
	f.StringVar(&c.category, "category", string(core.CategoryOther), categoryUsage())
	f.StringVar(&c.payer, "payer", string(core.PayerCouple), "Who the transaction belongs to.")
	f.StringVar(&c.kind, "kind", string(core.Expense), "SAIDA for expenses, ENTRADA for income.")
	f.StringVar(&c.amount, "amount", "", "Amount, e.g. 12.50 or 12,50.")
}

func (c *addCmd) transaction() (core.Transaction, error) {
	tx := core.Transaction{
		Description: c.description,
		Category:    core.Category(c.category),
		Payer:       core.Payer(c.payer),
	}
	tx.Date = core.Today()
	if c.date != "" {
		d, err := core.ParseDate(c.date)
		if err != nil {
			return tx, err
		}
		tx.Date = d
	}
	kind, err := core.ParseKind(c.kind)
	if err != nil {
		return tx, err
	}
	tx.Kind = kind
	amount, err := core.ParseAmount(c.amount)
	if err != nil {
		return tx, fmt.Errorf("%w: %q", err, c.amount)
	}
	tx.Amount = amount
	return tx, nil
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	tx, err := c.transaction()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	return withEnv(ctx, func(e *env) error {
		if err := e.checkPayer(tx.Payer); err != nil {
			return err
		}
		out, err := e.ledger.AddManual(ctx, tx)
		if err != nil {
			return err
		}
		printAppend(out.Added, out.Duplicates, out.Version)
		return nil
	})
}

func printAppend(added, duplicates int, version string) {
	fmt.Fprintf(stdout, "Added %d row(s), skipped %d duplicate(s). Ledger version %s\n", added, duplicates, version)
}
