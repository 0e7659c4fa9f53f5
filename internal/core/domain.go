package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	Income  Kind = "ENTRADA"
	Expense Kind = "SAIDA"
)

// Household categories offered by the entry forms. The stored value is open:
// any string is accepted on load.
const (
	CategoryMarket     Category = "Mercado"
	CategoryLeisure    Category = "Lazer"
	CategoryHousehold  Category = "Casa"
	CategoryTransport  Category = "Transporte"
	CategoryHealth     Category = "Saúde"
	CategoryFixedBills Category = "Contas Fixas"
	CategoryOther      Category = "Outros"
	CategoryInvestment Category = "Investimento"
	CategorySalary     Category = "Salário"
)

const PayerCouple Payer = "Casal"

// Provenance tags.
const (
	OriginManual    = "Manual"
	OriginNubank    = "Nubank"
	OriginRecurring = "Previsão"
)

type (
	// Kind controls the sign of a transaction in every aggregation.
	Kind string

	Category string

	// Payer names who a transaction belongs to.
	Payer string

	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string
		Date        Date
		Description string
		Category    Category
		Payer       Payer
		Kind        Kind
		Amount      decimal.Decimal
		Origin      string
	}
)

var (
	ErrZeroDate            = errors.New("date cannot be zero")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrNegativeAmount      = errors.New("amount must not be negative")
	ErrInvalidKind         = errors.New("invalid kind")
	ErrUnrecognizedDate    = errors.New("unrecognized date format")
	ErrEmptyCategory       = errors.New("empty category")
	ErrInvalidAmountFormat = errors.New("invalid amount")
)

// Categories lists the categories presented to the user, in form order.
func Categories() []Category {
	return []Category{
		CategoryMarket, CategoryLeisure, CategoryHousehold, CategoryTransport,
		CategoryHealth, CategoryFixedBills, CategoryOther, CategoryInvestment,
		CategorySalary,
	}
}

// SheetOrigin is the origin tag of rows imported from an annual spreadsheet.
func SheetOrigin(year int) string {
	return fmt.Sprintf("Planilha %d", year)
}

// NewID returns a fresh row identifier.
func NewID() string {
	return uuid.NewString()
}

// ParseKind accepts the wire tokens and their English names, case-insensitive.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ENTRADA", "INCOME":
		return Income, nil
	case "SAIDA", "SAÍDA", "EXPENSE":
		return Expense, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

func (k Kind) Valid() bool {
	return k == Income || k == Expense
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date in UTC.
func Today() Date {
	y, m, d := time.Now().Date()
	return NewDate(y, int(m), d)
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"02/01/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseDate accepts the date layouts found in stored ledgers and bank exports.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t.Year(), int(t.Month()), t.Day()), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrUnrecognizedDate, s)
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MonthKey is the YYYY-MM grouping key.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// DedupKey identifies a row for duplicate suppression during imports.
func (t Transaction) DedupKey() string {
	return t.Date.String() + "\x1f" + t.Description + "\x1f" + t.Amount.StringFixed(2)
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	if strings.TrimSpace(string(t.Category)) == "" {
		return ErrEmptyCategory
	}
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidKind, t.Kind)
	}
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// WithDefaults fills the optional fields a form or importer may leave blank.
func (t Transaction) WithDefaults() Transaction {
	if t.ID == "" {
		t.ID = NewID()
	}
	if t.Payer == "" {
		t.Payer = PayerCouple
	}
	if t.Origin == "" {
		t.Origin = OriginManual
	}
	return t
}
