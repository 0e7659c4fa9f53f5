package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

// overflowDay replaces a day of month the target month does not have.
const overflowDay = 28

var ErrInvalidRecurring = errors.New("invalid recurring request")

// RecurringRequest describes a batch of future income rows.
type RecurringRequest struct {
	Description string
	Amount      decimal.Decimal
	Day         int
	Months      int
	Category    core.Category // defaults to Salário
	Payer       core.Payer    // defaults to Casal
	Start       core.Date     // only year and month are used; zero means today
}

func (r RecurringRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Description) == "":
		return fmt.Errorf("%w: %v", ErrInvalidRecurring, core.ErrEmptyDescription)
	case !r.Amount.IsPositive():
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRecurring)
	case r.Day < 1 || r.Day > 31:
		return fmt.Errorf("%w: day %d out of range 1-31", ErrInvalidRecurring, r.Day)
	case r.Months < 1:
		return fmt.Errorf("%w: months must be at least 1", ErrInvalidRecurring)
	}
	return nil
}

// GenerateRecurring produces one income row per month starting at the start
// month, each dated on Day. A day the month lacks falls back to the 28th.
func GenerateRecurring(req RecurringRequest) ([]core.Transaction, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := req.Start
	if start.IsZero() {
		start = core.Today()
	}
	category := req.Category
	if category == "" {
		category = core.CategorySalary
	}
	payer := req.Payer
	if payer == "" {
		payer = core.PayerCouple
	}

	rows := make([]core.Transaction, 0, req.Months)
	for i := 0; i < req.Months; i++ {
		first := time.Date(start.Year(), start.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		day := req.Day
		if day > daysIn(first) {
			day = overflowDay
		}
		rows = append(rows, core.Transaction{
			ID:          core.NewID(),
			Date:        core.NewDate(first.Year(), int(first.Month()), day),
			Description: strings.TrimSpace(req.Description),
			Category:    category,
			Payer:       payer,
			Kind:        core.Income,
			Amount:      req.Amount,
			Origin:      core.OriginRecurring,
		})
	}
	return rows, nil
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
