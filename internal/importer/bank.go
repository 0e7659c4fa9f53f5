package importer

import (
	"fmt"
	"io"
	"strings"

	"financas/internal/categorize"
	"financas/internal/core"
)

// ParseBankCSV reads a card statement export with the columns date, category
// (vendor category, optional), title and amount.
//
// Card bill payments ("Pagamento" and "Fatura" in the title or vendor
// category) are dropped: the merchants they pay for are already itemized.
// Amounts are stored as magnitudes and every row is an expense.
func ParseBankCSV(r io.Reader, opts Options) (Preview, error) {
	opts = opts.withDefaults()
	records, err := readAll(r)
	if err != nil {
		return Preview{}, err
	}

	idx := headerIndex(records[0])
	var missing []string
	for _, col := range []string{"date", "title", "amount"} {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return Preview{}, fmt.Errorf("%w: missing columns %s", ErrMalformedFile, strings.Join(missing, ", "))
	}
	vendorCol := -1
	if i, ok := idx["category"]; ok {
		vendorCol = i
	}

	var p Preview
	for i, rec := range records[1:] {
		line := i + 2
		title := categorize.Title(cell(rec, idx["title"]))
		vendor := categorize.Title(cell(rec, vendorCol))
		if title == "" && cell(rec, idx["amount"]) == "" {
			continue
		}
		if isBillPayment(title) || isBillPayment(vendor) {
			p.skip(line, "card bill payment")
			continue
		}

		amount, err := core.ParseAmount(cell(rec, idx["amount"]))
		if err != nil {
			p.skip(line, "invalid amount %q", cell(rec, idx["amount"]))
			continue
		}

		date, err := core.ParseDate(cell(rec, idx["date"]))
		if err != nil {
			date = opts.Today
		}

		p.Rows = append(p.Rows, core.Transaction{
			ID:          core.NewID(),
			Date:        date,
			Description: title,
			Category:    opts.Categorizer.Categorize(vendor, title),
			Payer:       opts.Payer,
			Kind:        core.Expense,
			Amount:      amount.Abs(),
			Origin:      core.OriginNubank,
		})
	}
	return p, nil
}

func isBillPayment(s string) bool {
	return strings.Contains(s, "Pagamento") && strings.Contains(s, "Fatura")
}
