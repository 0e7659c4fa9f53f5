package summary

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

var one = decimal.NewFromInt(1)

// Ceiling is the monthly spending limit of a category.
type Ceiling struct {
	Category core.Category
	Amount   decimal.Decimal
}

// ParseCeilings reads "Mercado=1500;Lazer=400". Blank entries are ignored.
func ParseCeilings(s string) ([]Ceiling, error) {
	var out []Ceiling
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("budget %q: want Category=amount", part)
		}
		amount, err := core.ParseAmount(value)
		if err != nil || amount.IsNegative() {
			return nil, fmt.Errorf("budget %q: invalid amount", part)
		}
		out = append(out, Ceiling{Category: core.Category(strings.TrimSpace(name)), Amount: amount})
	}
	return out, nil
}

type BudgetLine struct {
	Category  core.Category   `json:"category"`
	Spent     decimal.Decimal `json:"spent"`
	Ceiling   decimal.Decimal `json:"ceiling"`
	Remaining decimal.Decimal `json:"remaining"` // negative when over budget
	Ratio     decimal.Decimal `json:"ratio"`     // Spent/Ceiling, unclamped
	Visual    decimal.Decimal `json:"visual"`    // Ratio clamped to [0, 1] for progress bars
}

// Over reports whether spending exceeded the ceiling.
func (b BudgetLine) Over() bool {
	return b.Remaining.IsNegative()
}

// BudgetStatus compares spending against each ceiling, in ceiling order.
func BudgetStatus(breakdown []CategoryAmount, ceilings []Ceiling) []BudgetLine {
	spent := CategoryMap(breakdown)
	out := make([]BudgetLine, 0, len(ceilings))
	for _, c := range ceilings {
		s, ok := spent[c.Category]
		if !ok {
			s = decimal.Zero
		}
		line := BudgetLine{
			Category:  c.Category,
			Spent:     s,
			Ceiling:   c.Amount,
			Remaining: c.Amount.Sub(s),
			Ratio:     decimal.Zero,
			Visual:    decimal.Zero,
		}
		if c.Amount.IsPositive() {
			line.Ratio = s.Div(c.Amount)
			line.Visual = decimal.Min(line.Ratio, one)
		}
		out = append(out, line)
	}
	return out
}

type Level string

const (
	LevelOK      Level = "ok"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

var (
	warnThreshold   = decimal.RequireFromString("0.70")
	dangerThreshold = decimal.RequireFromString("0.90")
)

// Commitment is how much of the projected income the month's spending uses.
type Commitment struct {
	Ratio  decimal.Decimal `json:"ratio"`
	Visual decimal.Decimal `json:"visual"`
	Level  Level           `json:"level"`
}

// IncomeCommitment rates expense against projected income. ok is false when
// no income was projected.
func IncomeCommitment(expense, projectedIncome decimal.Decimal) (c Commitment, ok bool) {
	if !projectedIncome.IsPositive() {
		return Commitment{}, false
	}
	c.Ratio = expense.Div(projectedIncome)
	c.Visual = decimal.Min(c.Ratio, one)
	switch {
	case c.Ratio.GreaterThan(dangerThreshold):
		c.Level = LevelDanger
	case c.Ratio.GreaterThan(warnThreshold):
		c.Level = LevelWarning
	default:
		c.Level = LevelOK
	}
	return c, true
}
