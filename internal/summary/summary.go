// Package summary computes the read-only figures shown on the dashboard.
// Every function is a fold over ledger rows and never mutates its input.
package summary

import (
	"sort"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

var hundred = decimal.NewFromInt(100)

type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

func (t *Totals) add(r core.Transaction) {
	switch r.Kind {
	case core.Income:
		t.Income = t.Income.Add(r.Amount)
	case core.Expense:
		t.Expense = t.Expense.Add(r.Amount)
	}
	t.Balance = t.Income.Sub(t.Expense)
}

// PeriodTotals sums income and expense; Balance is their difference.
func PeriodTotals(rows []core.Transaction) Totals {
	var t Totals
	for _, r := range rows {
		t.add(r)
	}
	return t
}

// SavingsRate is balance as a percentage of income, or zero without income.
func SavingsRate(income, balance decimal.Decimal) decimal.Decimal {
	if !income.IsPositive() {
		return decimal.Zero
	}
	return balance.Div(income).Mul(hundred)
}

// MonthKey is the YYYY-MM grouping key of a date.
func MonthKey(d core.Date) string {
	return d.MonthKey()
}

// InMonth keeps the rows of month; an empty month keeps everything.
func InMonth(rows []core.Transaction, month string) []core.Transaction {
	if month == "" {
		return rows
	}
	var out []core.Transaction
	for _, r := range rows {
		if r.Date.MonthKey() == month {
			out = append(out, r)
		}
	}
	return out
}

// Months lists the distinct month keys, most recent first.
func Months(rows []core.Transaction) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		k := r.Date.MonthKey()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out
}

type MonthTotals struct {
	Month string `json:"month"`
	Totals
}

// MonthlyEvolution returns per-month totals in ascending month order.
func MonthlyEvolution(rows []core.Transaction) []MonthTotals {
	byMonth := make(map[string]*Totals)
	for _, r := range rows {
		k := r.Date.MonthKey()
		t, ok := byMonth[k]
		if !ok {
			t = &Totals{}
			byMonth[k] = t
		}
		t.add(r)
	}
	out := make([]MonthTotals, 0, len(byMonth))
	for k, t := range byMonth {
		out = append(out, MonthTotals{Month: k, Totals: *t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
