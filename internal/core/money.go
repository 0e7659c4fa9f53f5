// Package core provides money parsing and handling utilities.
//
// Amounts are decimals; the sign of a transaction lives in its Kind, so every
// parser here returns the magnitude the caller asked for and leaves
// normalization to the importer.
package core

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ParseAmount parses a plain decimal string as found in bank exports and the
// canonical ledger.
//
// A period is the decimal separator. A string with a comma and no period is
// read as a comma-decimal value, so both "12.34" and "12,34" yield 12.34.
// Signs are preserved.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmountFormat
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmountFormat
	}
	return d, nil
}

// ParseBRL parses a spreadsheet cell written in Brazilian format.
//
// Examples:
//
//	ParseBRL("R$ 1.200,50") -> 1200.50
//	ParseBRL("350")         -> 350
//	ParseBRL("1.000")       -> 1000
func ParseBRL(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Zero, ErrInvalidAmountFormat
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmountFormat
	}
	return d, nil
}

// FormatAmount renders an amount with at least two fraction digits, a period
// decimal point and no thousands separator.
func FormatAmount(d decimal.Decimal) string {
	if d.Exponent() < -2 {
		return d.String()
	}
	return d.StringFixed(2)
}

// DisplayBRL formats an amount for people, e.g. "R$1.200,50".
func DisplayBRL(d decimal.Decimal) string {
	return money.New(d.Shift(2).Round(0).IntPart(), money.BRL).Display()
}
