package summary

import (
	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// Report bundles every dashboard figure for one month.
type Report struct {
	Month       string           `json:"month"`
	Totals      Totals           `json:"totals"`
	SavingsRate decimal.Decimal  `json:"savings_rate"`
	Categories  []CategoryAmount `json:"categories"`
	Budget      []BudgetLine     `json:"budget"`
	Origins     []OriginAmount   `json:"origins"`
	// Evolution covers the whole ledger, not just Month.
	Evolution []MonthTotals `json:"evolution"`

	ProjectedIncome  decimal.Decimal `json:"projected_income"`
	ProjectedBalance decimal.Decimal `json:"projected_balance"`
	Commitment       *Commitment     `json:"commitment,omitempty"`
}

// Build computes the report of month. An empty month selects the most recent
// one present in rows.
func Build(rows []core.Transaction, month string, ceilings []Ceiling, projectedIncome decimal.Decimal) Report {
	if month == "" {
		if ms := Months(rows); len(ms) > 0 {
			month = ms[0]
		}
	}
	period := InMonth(rows, month)
	totals := PeriodTotals(period)
	categories := CategoryBreakdown(period)

	r := Report{
		Month:            month,
		Totals:           totals,
		SavingsRate:      SavingsRate(totals.Income, totals.Balance),
		Categories:       categories,
		Budget:           BudgetStatus(categories, ceilings),
		Origins:          OriginBreakdown(period),
		Evolution:        MonthlyEvolution(rows),
		ProjectedIncome:  projectedIncome,
		ProjectedBalance: projectedIncome.Sub(totals.Expense),
	}
	if c, ok := IncomeCommitment(totals.Expense, projectedIncome); ok {
		r.Commitment = &c
	}
	return r
}
