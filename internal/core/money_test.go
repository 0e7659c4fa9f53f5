package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"23.50", "23.5", true},
		{"23,50", "23.5", true},
		{"-42.10", "-42.1", true},
		{" 5000 ", "5000", true},
		{"abc", "", false},
		{"", "", false},
		{"1.2.3", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseBRL(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"R$ 1.200,50", "1200.50", true},
		{"R$1.200,50", "1200.50", true},
		{"350", "350", true},
		{"1.000", "1000", true},
		{"0,99", "0.99", true},
		{"R$ abc", "", false},
		{"", "", false},
		{"   ", "", false},
	}
	for _, tc := range cases {
		got, err := ParseBRL(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	for in, want := range map[string]string{
		"5000":    "5000.00",
		"23.5":    "23.50",
		"1200.50": "1200.50",
		"0.125":   "0.125",
		"0":       "0.00",
	} {
		if got := FormatAmount(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatAmount(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestDisplayBRL(t *testing.T) {
	got := DisplayBRL(decimal.RequireFromString("1200.50"))
	if !strings.Contains(got, "1.200,50") {
		t.Fatalf("unexpected display %q", got)
	}
}
