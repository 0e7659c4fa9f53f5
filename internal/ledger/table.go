// Package ledger holds the canonical tabular form of the ledger and the schema
// normalizer that turns any stored revision of it into transactions.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"financas/internal/core"
)

// Canonical column names, in serialization order.
const (
	ColDate        = "date"
	ColDescription = "description"
	ColCategory    = "category"
	ColPayer       = "payer"
	ColKind        = "kind"
	ColAmount      = "amount"
	ColOrigin      = "origin"
	ColID          = "id"
)

// Columns is the canonical header.
var Columns = []string{ColDate, ColDescription, ColCategory, ColPayer, ColKind, ColAmount, ColOrigin, ColID}

// legacyNames maps the column names of the first ledger revisions.
var legacyNames = map[string]string{
	"data":      ColDate,
	"descricao": ColDescription,
	"descrição": ColDescription,
	"categoria": ColCategory,
	"quem":      ColPayer,
	"tipo":      ColKind,
	"valor":     ColAmount,
	"origem":    ColOrigin,
}

// Table is a raw ledger as read from a store: a header and string records.
// Lines, when set, holds the 1-based source line of each record.
type Table struct {
	Header  []string
	Records [][]string
	Lines   []int
}

// line returns the source line of record i. Without recorded lines the
// header is assumed on line 1 and every record on its own line.
func (t Table) line(i int) int {
	if len(t.Lines) == len(t.Records) {
		return t.Lines[i]
	}
	return i + 2
}

// Empty reports whether the table carries no rows.
func (t Table) Empty() bool {
	return len(t.Records) == 0
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	out := Table{Header: append([]string(nil), t.Header...), Lines: append([]int(nil), t.Lines...)}
	if t.Records != nil {
		out.Records = make([][]string, len(t.Records))
		for i, r := range t.Records {
			out.Records[i] = append([]string(nil), r...)
		}
	}
	return out
}

// EmptyTable is a canonical ledger with no rows.
func EmptyTable() Table {
	return Table{Header: append([]string(nil), Columns...)}
}

// canonicalName resolves a header cell to its canonical column name.
func canonicalName(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	if c, ok := legacyNames[h]; ok {
		return c
	}
	return h
}

// index maps canonical column names to their position in the header.
func (t Table) index() map[string]int {
	idx := make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		name := canonicalName(h)
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	return idx
}

// Canonical rearranges the table under the canonical header, resolving
// legacy column names. Unknown columns are dropped and missing ones are blank.
func (t Table) Canonical() Table {
	idx := t.index()
	out := Table{Header: append([]string(nil), Columns...), Lines: append([]int(nil), t.Lines...)}
	if t.Records != nil {
		out.Records = make([][]string, len(t.Records))
	}
	for i, rec := range t.Records {
		row := make([]string, len(Columns))
		for j, col := range Columns {
			if k, ok := idx[col]; ok && k < len(rec) {
				row[j] = rec[k]
			}
		}
		out.Records[i] = row
	}
	return out
}

// FromTransactions renders rows in the canonical serialization.
func FromTransactions(rows []core.Transaction) Table {
	t := EmptyTable()
	t.Records = make([][]string, 0, len(rows))
	for _, r := range rows {
		t.Records = append(t.Records, []string{
			r.Date.String(),
			r.Description,
			string(r.Category),
			string(r.Payer),
			string(r.Kind),
			core.FormatAmount(r.Amount),
			r.Origin,
			r.ID,
		})
	}
	return t
}

// ReadCSV decodes a CSV ledger. An empty input yields a table with no header.
// Blank rows are dropped; Lines keeps the line each kept record starts on.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var t Table
	for first := true; ; first = false {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read ledger csv: %w", err)
		}
		if first {
			t.Header = rec
			continue
		}
		if isBlank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)
		t.Records = append(t.Records, rec)
		t.Lines = append(t.Lines, line)
	}
	return t, nil
}

// WriteCSV encodes the table as CSV with a header row.
func WriteCSV(w io.Writer, t Table) error {
	if len(t.Header) == 0 {
		return errors.New("write ledger csv: table has no header")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}
	if err := cw.WriteAll(t.Records); err != nil {
		return fmt.Errorf("write ledger rows: %w", err)
	}
	return nil
}

// Encode writes transactions in the canonical serialization.
func Encode(w io.Writer, rows []core.Transaction) error {
	return WriteCSV(w, FromTransactions(rows))
}

func isBlank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
