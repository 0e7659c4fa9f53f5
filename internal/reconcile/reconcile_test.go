package reconcile

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/core"
)

func tx(id, date, desc string, amount string, cat core.Category) core.Transaction {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Transaction{
		ID:          id,
		Date:        d,
		Description: desc,
		Category:    cat,
		Payer:       core.PayerCouple,
		Kind:        core.Expense,
		Amount:      decimal.RequireFromString(amount),
		Origin:      core.OriginManual,
	}
}

func ids(rows []core.Transaction) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestAppend(t *testing.T) {
	existing := []core.Transaction{
		tx("a", "2026-01-05", "Mercado", "100", core.CategoryMarket),
		tx("b", "2026-01-06", "Uber", "20", core.CategoryTransport),
	}
	candidates := []core.Transaction{
		tx("c", "2026-01-05", "Mercado", "100.00", core.CategoryOther),
		tx("d", "2026-01-07", "Farmacia", "35", core.CategoryHealth),
		tx("e", "2026-01-07", "Farmacia", "35", core.CategoryHealth),
	}

	res := Append(existing, candidates)
	assert.Equal(t, []string{"a", "b", "d"}, ids(res.Rows))
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 2, res.Duplicates)
	assert.Equal(t, core.CategoryMarket, res.Rows[0].Category, "stored row wins")
}

func TestAppendIsIdempotentUnderReimport(t *testing.T) {
	batch := []core.Transaction{
		tx("x1", "2026-01-05", "Assai", "120.5", core.CategoryMarket),
		tx("x2", "2026-01-06", "Netflix", "39.9", core.CategoryFixedBills),
	}
	once := Append(nil, batch)
	again := make([]core.Transaction, len(batch))
	for i, r := range batch {
		r.ID = r.ID + "-reimport"
		again[i] = r
	}
	twice := Append(once.Rows, again)

	assert.Equal(t, ids(once.Rows), ids(twice.Rows))
	assert.Zero(t, twice.Added)
	assert.Equal(t, 2, twice.Duplicates)
}

func TestUnionKeepsDuplicates(t *testing.T) {
	existing := []core.Transaction{
		tx("a", "2026-01-05", "Cafe", "5", core.CategoryLeisure),
		tx("b", "2026-01-05", "Cafe", "5", core.CategoryLeisure),
	}
	res := Union(existing, []core.Transaction{tx("c", "2026-01-05", "Cafe", "5.00", core.CategoryLeisure)})

	assert.Equal(t, []string{"a", "b", "c"}, ids(res.Rows))
	assert.Equal(t, 1, res.Added)
	assert.Zero(t, res.Duplicates)
	assert.Len(t, existing, 2)
}

func TestFilter(t *testing.T) {
	r := tx("a", "2026-03-10", "Conta de luz", "90", core.CategoryFixedBills)
	r.Origin = "Planilha 2026"

	cases := []struct {
		name string
		f    Filter
		want bool
	}{
		{"empty", Filter{}, true},
		{"month", Filter{Month: "2026-03"}, true},
		{"other month", Filter{Month: "2026-04"}, false},
		{"category", Filter{Category: core.CategoryFixedBills}, true},
		{"origin", Filter{Origin: "Manual"}, false},
		{"search description", Filter{Search: "LUZ"}, true},
		{"search origin", Filter{Search: "planilha"}, true},
		{"anded", Filter{Month: "2026-03", Category: core.CategoryMarket}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.f.Match(r))
		})
	}
}

func TestScopedEdit(t *testing.T) {
	ledger := []core.Transaction{
		tx("a", "2026-01-05", "Mercado", "100", core.CategoryMarket),
		tx("b", "2026-02-06", "Uber", "20", core.CategoryTransport),
		tx("c", "2026-01-07", "Farmacia", "35", core.CategoryHealth),
		tx("d", "2026-02-08", "Pizza", "60", core.CategoryLeisure),
	}
	rows, ws := Select(ledger, Filter{Month: "2026-01"})
	require.Equal(t, []string{"a", "c"}, ws.IDs)

	// Edit c, delete a, add a new row.
	edited := []core.Transaction{rows[1], tx("", "2026-01-20", "Padaria", "12", core.CategoryMarket)}
	edited[0].Amount = decimal.NewFromInt(40)

	res, err := ScopedEdit(ledger, ws, edited)
	require.NoError(t, err)

	assert.Equal(t, "b", res.Rows[0].ID)
	assert.Equal(t, "d", res.Rows[1].ID)
	assert.Equal(t, "c", res.Rows[2].ID)
	assert.NotEmpty(t, res.Rows[3].ID)
	assert.Len(t, res.Rows, 4)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	assert.True(t, decimal.NewFromInt(40).Equal(res.Rows[2].Amount))
}

func TestScopedEditCompleteness(t *testing.T) {
	ledger := []core.Transaction{
		tx("a", "2026-01-05", "Mercado", "100", core.CategoryMarket),
		tx("b", "2026-02-06", "Uber", "20", core.CategoryTransport),
		tx("c", "2026-01-07", "Farmacia", "35", core.CategoryHealth),
	}
	rows, ws := Select(ledger, Filter{Category: core.CategoryTransport})

	// Unchanged resubmission keeps every row and changes nothing.
	res, err := ScopedEdit(ledger, ws, rows)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids(ledger), ids(res.Rows))
	assert.Zero(t, res.Deleted+res.Inserted+res.Updated)

	// Emptying the working set deletes exactly its rows.
	res, err = ScopedEdit(ledger, ws, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(res.Rows))
	assert.Equal(t, 1, res.Deleted)
}

func TestScopedEditRejectsForeignRow(t *testing.T) {
	ledger := []core.Transaction{
		tx("a", "2026-01-05", "Mercado", "100", core.CategoryMarket),
		tx("b", "2026-02-06", "Uber", "20", core.CategoryTransport),
	}
	_, ws := Select(ledger, Filter{Month: "2026-01"})

	_, err := ScopedEdit(ledger, ws, []core.Transaction{ledger[1]})
	assert.ErrorIs(t, err, ErrForeignRow)
}

func TestScopedEditValidatesRows(t *testing.T) {
	ledger := []core.Transaction{tx("a", "2026-01-05", "Mercado", "100", core.CategoryMarket)}
	_, ws := Select(ledger, Filter{})

	bad := ledger[0]
	bad.Amount = decimal.NewFromInt(-1)
	_, err := ScopedEdit(ledger, ws, []core.Transaction{bad})
	assert.ErrorIs(t, err, core.ErrNegativeAmount)

	_, err = ScopedEdit(ledger, ws, []core.Transaction{ledger[0], ledger[0]})
	assert.Error(t, err)
}
