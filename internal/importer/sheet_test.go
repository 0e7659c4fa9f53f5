package importer

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/core"
)

func TestParseAnnualSheet(t *testing.T) {
	input := strings.Join([]string{
		`2026,JAN,FEV,mar,XYZ`,
		`Aluguel,"R$ 1.200,50","R$ 1.200,50",,`,
		`Luz,150,0,abc,80`,
		`TOTAL,"1.350,50","1.200,50",0,80`,
	}, "\n")

	p, err := ParseAnnualSheet(strings.NewReader(input), Options{})
	require.NoError(t, err)

	type row struct {
		date, desc, amount string
	}
	var got []row
	for _, r := range p.Rows {
		got = append(got, row{r.Date.String(), r.Description, r.Amount.StringFixed(2)})
		assert.Equal(t, core.CategoryFixedBills, r.Category)
		assert.Equal(t, core.Expense, r.Kind)
		assert.Equal(t, "Planilha 2026", r.Origin)
		assert.Equal(t, core.PayerCouple, r.Payer)
	}
	assert.Equal(t, []row{
		{"2026-01-10", "Aluguel", "1200.50"},
		{"2026-01-10", "Luz", "150.00"},
		{"2026-02-10", "Aluguel", "1200.50"},
		{"2026-01-10", "Luz", "80.00"},
	}, got)

	require.Len(t, p.Skipped, 1)
	assert.Equal(t, 3, p.Skipped[0].Line)
}

func TestParseAnnualSheetSingleCell(t *testing.T) {
	input := "2026,JAN\nAluguel,\"R$ 1.200,50\"\n"
	p, err := ParseAnnualSheet(strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, core.NewDate(2026, 1, 10), p.Rows[0].Date)
	assert.True(t, decimal.RequireFromString("1200.50").Equal(p.Rows[0].Amount))
}

func TestParseAnnualSheetRequiresYearHeader(t *testing.T) {
	for _, header := range []string{"Despesa,JAN", "26,JAN", "20266,JAN"} {
		_, err := ParseAnnualSheet(strings.NewReader(header+"\nAluguel,100\n"), Options{})
		assert.ErrorIs(t, err, ErrMalformedFile, header)
	}
}

func TestParseDispatch(t *testing.T) {
	_, err := Parse(ShapeAnnualSheet, strings.NewReader("2026,JAN\n"), Options{})
	assert.NoError(t, err)
	_, err = Parse(Shape("pdf"), strings.NewReader(""), Options{})
	assert.Error(t, err)
}

func TestMonthNumber(t *testing.T) {
	assert.Equal(t, 12, monthNumber("dez"))
	assert.Equal(t, 4, monthNumber(" ABR "))
	assert.Equal(t, 1, monthNumber("Total"))
}
