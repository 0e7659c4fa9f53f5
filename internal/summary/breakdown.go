package summary

import (
	"github.com/shopspring/decimal"

	"financas/internal/core"
)

type CategoryAmount struct {
	Category core.Category   `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// CategoryBreakdown sums expenses per category, in order of first appearance.
func CategoryBreakdown(rows []core.Transaction) []CategoryAmount {
	pos := make(map[core.Category]int)
	var out []CategoryAmount
	for _, r := range rows {
		if r.Kind != core.Expense {
			continue
		}
		i, ok := pos[r.Category]
		if !ok {
			i = len(out)
			pos[r.Category] = i
			out = append(out, CategoryAmount{Category: r.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(r.Amount)
	}
	return out
}

// CategoryMap indexes a breakdown by category.
func CategoryMap(b []CategoryAmount) map[core.Category]decimal.Decimal {
	m := make(map[core.Category]decimal.Decimal, len(b))
	for _, c := range b {
		m[c.Category] = c.Amount
	}
	return m
}

// OriginAmount is the income and expense recorded under one origin.
type OriginAmount struct {
	Origin  string          `json:"origin"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// OriginBreakdown sums rows per origin, in order of first appearance.
func OriginBreakdown(rows []core.Transaction) []OriginAmount {
	pos := make(map[string]int)
	var out []OriginAmount
	for _, r := range rows {
		i, ok := pos[r.Origin]
		if !ok {
			i = len(out)
			pos[r.Origin] = i
			out = append(out, OriginAmount{Origin: r.Origin, Income: decimal.Zero, Expense: decimal.Zero})
		}
		switch r.Kind {
		case core.Income:
			out[i].Income = out[i].Income.Add(r.Amount)
		case core.Expense:
			out[i].Expense = out[i].Expense.Add(r.Amount)
		}
	}
	return out
}
