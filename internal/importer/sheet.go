package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"financas/internal/core"
)

// sheetDay is the placeholder day of month: the annual sheet has no day
// granularity.
const sheetDay = 10

var monthNumbers = map[string]int{
	"JAN": 1, "FEV": 2, "MAR": 3, "ABR": 4, "MAI": 5, "JUN": 6,
	"JUL": 7, "AGO": 8, "SET": 9, "OUT": 10, "NOV": 11, "DEZ": 12,
}

// monthNumber maps a month column header; unknown headers fall back to
// January.
func monthNumber(header string) int {
	if m, ok := monthNumbers[strings.ToUpper(strings.TrimSpace(header))]; ok {
		return m
	}
	return 1
}

// ParseAnnualSheet reads a wide yearly spreadsheet: the first header is the
// year, each row is an expense label and each remaining column a month.
//
// The "TOTAL" row is dropped, blank or unreadable cells are skipped and only
// strictly positive values become rows, dated on the 10th of their month.
// Rows come out month by month.
func ParseAnnualSheet(r io.Reader, opts Options) (Preview, error) {
	opts = opts.withDefaults()
	records, err := readAll(r)
	if err != nil {
		return Preview{}, err
	}

	header := records[0]
	yearLabel := strings.TrimSpace(strings.TrimPrefix(header[0], "\ufeff"))
	year, err := strconv.Atoi(yearLabel)
	if err != nil || len(yearLabel) != 4 {
		return Preview{}, fmt.Errorf("%w: first column header %q is not a year", ErrMalformedFile, yearLabel)
	}
	origin := core.SheetOrigin(year)

	var p Preview
	for col := 1; col < len(header); col++ {
		month := monthNumber(header[col])
		for i, rec := range records[1:] {
			line := i + 2
			desc := cell(rec, 0)
			if desc == "" || desc == "TOTAL" {
				continue
			}
			raw := cell(rec, col)
			if raw == "" {
				continue
			}
			amount, err := core.ParseBRL(raw)
			if err != nil {
				p.skip(line, "invalid amount %q in column %s", raw, header[col])
				continue
			}
			if !amount.IsPositive() {
				continue
			}
			p.Rows = append(p.Rows, core.Transaction{
				ID:          core.NewID(),
				Date:        core.NewDate(year, month, sheetDay),
				Description: desc,
				Category:    core.CategoryFixedBills,
				Payer:       opts.Payer,
				Kind:        core.Expense,
				Amount:      amount,
				Origin:      origin,
			})
		}
	}
	return p, nil
}
