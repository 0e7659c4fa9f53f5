package http

import (
	"errors"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "", false},
		{"2026-01", "2026-01", false},
		{" 2025-12 ", "2025-12", false},
		{"2026-13", "", true},
		{"2026-1", "", true},
		{"jan", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMonth(url.Values{"month": {tt.in}})
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseMonth(%q) = %q, %v", tt.in, got, err)
		}
		if err != nil && !errors.Is(err, errBadRequest) {
			t.Errorf("ParseMonth(%q) error %v is not a bad request", tt.in, err)
		}
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(url.Values{
		"month":    {"2026-02"},
		"category": {" Mercado "},
		"origin":   {"Nubank"},
		"q":        {"assai\x00"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if f.Month != "2026-02" || f.Category != core.CategoryMarket || f.Origin != "Nubank" || f.Search != "assai" {
		t.Errorf("ParseFilter() = %+v", f)
	}
}

func TestParseIncome(t *testing.T) {
	def := decimal.NewFromInt(100)
	got, err := ParseIncome(url.Values{}, def)
	if err != nil || !got.Equal(def) {
		t.Errorf("default income = %v, %v", got, err)
	}
	got, err = ParseIncome(url.Values{"income": {"2500,50"}}, def)
	if err != nil || got.String() != "2500.5" {
		t.Errorf("income = %v, %v", got, err)
	}
	if _, err := ParseIncome(url.Values{"income": {"-1"}}, def); err == nil {
		t.Error("negative income accepted")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Pa\x07daria\t "); got != "Padaria" {
		t.Errorf("sanitizeInput() = %q", got)
	}
}
