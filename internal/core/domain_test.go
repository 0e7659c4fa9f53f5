package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2026-01-05", "2026-01-05", true},
		{"2026-1-5", "2026-01-05", true},
		{"05/01/2026", "2026-01-05", true},
		{"2026-01-05 13:45:00", "2026-01-05", true},
		{"2026-01-05T13:45:00Z", "2026-01-05", true},
		{" 2026-02-28 ", "2026-02-28", true},
		{"2026-02-30", "", false},
		{"yesterday", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseDate(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.want {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.want, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrUnrecognizedDate) {
			t.Fatalf("%q expected ErrUnrecognizedDate, got %v", tc.in, err)
		}
	}
}

func TestDateMonthKey(t *testing.T) {
	if got := NewDate(2026, 3, 9).MonthKey(); got != "2026-03" {
		t.Fatalf("month key = %q", got)
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"ENTRADA": Income,
		"entrada": Income,
		"INCOME":  Income,
		"SAIDA":   Expense,
		"Saída":   Expense,
		"expense": Expense,
	} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("%q expected %s, got %s (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseKind("TRANSFER"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:        NewDate(2026, 1, 5),
		Description: "Uber",
		Category:    CategoryTransport,
		Payer:       PayerCouple,
		Kind:        Expense,
		Amount:      decimal.RequireFromString("23.50"),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zero := good
	zero.Amount = decimal.Zero
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be accepted, got %v", err)
	}

	bads := []struct {
		mutate func(*Transaction)
		want   error
	}{
		{func(tx *Transaction) { tx.Date = Date{} }, ErrZeroDate},
		{func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
		{func(tx *Transaction) { tx.Kind = "TRANSFER" }, ErrInvalidKind},
		{func(tx *Transaction) { tx.Amount = decimal.RequireFromString("-1") }, ErrNegativeAmount},
	}
	for i, b := range bads {
		tx := good
		b.mutate(&tx)
		if err := tx.Validate(); !errors.Is(err, b.want) {
			t.Fatalf("case %d expected %v, got %v", i, b.want, err)
		}
	}
}

func TestDedupKeyIgnoresTrailingZeros(t *testing.T) {
	a := Transaction{Date: NewDate(2026, 1, 5), Description: "Pizza", Amount: decimal.RequireFromString("40")}
	b := Transaction{Date: NewDate(2026, 1, 5), Description: "Pizza", Amount: decimal.RequireFromString("40.00"), Category: CategoryLeisure}
	if a.DedupKey() != b.DedupKey() {
		t.Fatalf("keys differ: %q vs %q", a.DedupKey(), b.DedupKey())
	}
	c := b
	c.Description = "pizza"
	if c.DedupKey() == b.DedupKey() {
		t.Fatalf("description must be part of the key")
	}
}

func TestWithDefaults(t *testing.T) {
	tx := Transaction{}.WithDefaults()
	if tx.ID == "" || tx.Payer != PayerCouple || tx.Origin != OriginManual {
		t.Fatalf("unexpected defaults: %+v", tx)
	}
	kept := Transaction{ID: "x", Payer: "Ana", Origin: OriginNubank}.WithDefaults()
	if kept.ID != "x" || kept.Payer != "Ana" || kept.Origin != OriginNubank {
		t.Fatalf("defaults overwrote values: %+v", kept)
	}
}
