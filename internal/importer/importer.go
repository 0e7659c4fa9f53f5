// Package importer turns external statement files into candidate ledger rows
// for review before they are merged.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"financas/internal/categorize"
	"financas/internal/core"
)

// ErrMalformedFile aborts a whole import: the file lacks the expected columns
// or cannot be read as CSV.
var ErrMalformedFile = errors.New("malformed import file")

// Shape selects the statement layout. It is chosen by the caller, never
// detected.
type Shape string

const (
	ShapeBank        Shape = "bank"
	ShapeAnnualSheet Shape = "sheet"
)

// Options tunes a parse. Zero values fall back to sensible defaults.
type Options struct {
	// Today replaces bank dates that cannot be parsed.
	Today core.Date
	// Payer is stamped on every produced row.
	Payer core.Payer
	// Categorizer classifies bank rows.
	Categorizer *categorize.Categorizer
}

func (o Options) withDefaults() Options {
	if o.Today.IsZero() {
		o.Today = core.Today()
	}
	if o.Payer == "" {
		o.Payer = core.PayerCouple
	}
	if o.Categorizer == nil {
		o.Categorizer = categorize.Default()
	}
	return o
}

// SkippedRow records an input row that produced no candidate.
type SkippedRow struct {
	Line   int
	Reason string
}

// Preview is the parse result shown to the user before confirmation.
type Preview struct {
	Rows    []core.Transaction
	Skipped []SkippedRow
}

func (p *Preview) skip(line int, format string, args ...any) {
	p.Skipped = append(p.Skipped, SkippedRow{Line: line, Reason: fmt.Sprintf(format, args...)})
}

// Parse dispatches on shape.
func Parse(shape Shape, r io.Reader, opts Options) (Preview, error) {
	switch shape {
	case ShapeBank:
		return ParseBankCSV(r, opts)
	case ShapeAnnualSheet:
		return ParseAnnualSheet(r, opts)
	default:
		return Preview{}, fmt.Errorf("unknown import shape %q", shape)
	}
}

func readAll(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedFile)
	}
	return records, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, ok := idx[h]; !ok {
			idx[h] = i
		}
	}
	return idx
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
