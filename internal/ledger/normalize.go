package ledger

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"financas/internal/core"
)

// legacyNamespace seeds the ids derived for rows stored without one.
var legacyNamespace = uuid.MustParse("5b0f7c4e-2f7d-4d0e-9a57-0c1f3b6f8a21")

// Quarantined is a stored row the normalizer could not interpret.
type Quarantined struct {
	Line   int // 1-based source line, header included
	Record []string
	Reason string
}

// Normalized is the result of reading a raw table under the canonical schema.
type Normalized struct {
	Rows        []core.Transaction
	Quarantined []Quarantined
}

// Normalize reads a table from any schema revision.
//
// Missing origin becomes "Manual", missing payer "Casal", missing category
// "Outros", and rows without an id get one derived from their position and
// content so reloading the same ledger yields the same ids. Rows whose date,
// kind or amount cannot be read are reported in Quarantined instead of being
// returned. Normalize never fails.
func Normalize(t Table) Normalized {
	idx := t.index()
	get := func(rec []string, col string) (string, bool) {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return "", ok
		}
		return strings.TrimSpace(rec[i]), true
	}

	out := Normalized{Rows: make([]core.Transaction, 0, len(t.Records))}
	seen := make(map[string]struct{}, len(t.Records))

	for i, rec := range t.Records {
		line := t.line(i)
		quarantine := func(reason string) {
			out.Quarantined = append(out.Quarantined, Quarantined{
				Line:   line,
				Record: append([]string(nil), rec...),
				Reason: reason,
			})
		}

		rawDate, _ := get(rec, ColDate)
		date, err := core.ParseDate(rawDate)
		if err != nil {
			quarantine(err.Error())
			continue
		}

		rawKind, _ := get(rec, ColKind)
		kind, err := core.ParseKind(rawKind)
		if err != nil {
			quarantine(err.Error())
			continue
		}

		rawAmount, _ := get(rec, ColAmount)
		amount, err := core.ParseAmount(rawAmount)
		if err != nil {
			quarantine(fmt.Sprintf("%v: %q", err, rawAmount))
			continue
		}

		tx := core.Transaction{
			Date:   date,
			Kind:   kind,
			Amount: amount.Abs(),
		}
		tx.Description, _ = get(rec, ColDescription)

		if v, _ := get(rec, ColCategory); v != "" {
			tx.Category = core.Category(v)
		} else {
			tx.Category = core.CategoryOther
		}
		if v, _ := get(rec, ColPayer); v != "" {
			tx.Payer = core.Payer(v)
		} else {
			tx.Payer = core.PayerCouple
		}
		if v, _ := get(rec, ColOrigin); v != "" {
			tx.Origin = v
		} else {
			tx.Origin = core.OriginManual
		}

		id, _ := get(rec, ColID)
		if _, dup := seen[id]; id == "" || dup {
			id = derivedID(i, rec)
		}
		seen[id] = struct{}{}
		tx.ID = id

		out.Rows = append(out.Rows, tx)
	}
	return out
}

func derivedID(position int, rec []string) string {
	name := fmt.Sprintf("%d\x1f%s", position, strings.Join(rec, "\x1f"))
	return uuid.NewSHA1(legacyNamespace, []byte(name)).String()
}

// Rebuild renders rows in the canonical serialization followed by the
// quarantined records of a table read under header, so that rewriting a
// ledger never loses rows it could not interpret.
func Rebuild(rows []core.Transaction, header []string, quarantined []Quarantined) Table {
	t := FromTransactions(rows)
	if len(quarantined) == 0 {
		return t
	}
	raw := Table{Header: header, Records: make([][]string, len(quarantined))}
	for i, q := range quarantined {
		raw.Records[i] = q.Record
	}
	t.Records = append(t.Records, raw.Canonical().Records...)
	return t
}
