package http

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/importer"
	"financas/internal/services"
)

// TransactionDTO is the wire form of a ledger row. Amounts travel as
// strings so no precision is lost in JSON.
type TransactionDTO struct {
	ID          string `json:"id,omitempty"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Description string `json:"description" validate:"required,max=200"`
	Category    string `json:"category" validate:"required"`
	Payer       string `json:"payer,omitempty"`
	Kind        string `json:"kind" validate:"required,oneof=ENTRADA SAIDA"`
	Amount      string `json:"amount" validate:"required,numeric"`
	Origin      string `json:"origin,omitempty"`
}

func newTransactionDTO(t core.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          t.ID,
		Date:        t.Date.String(),
		Description: t.Description,
		Category:    string(t.Category),
		Payer:       string(t.Payer),
		Kind:        string(t.Kind),
		Amount:      core.FormatAmount(t.Amount),
		Origin:      t.Origin,
	}
}

func newTransactionDTOs(rows []core.Transaction) []TransactionDTO {
	out := make([]TransactionDTO, len(rows))
	for i, r := range rows {
		out[i] = newTransactionDTO(r)
	}
	return out
}

// Transaction converts the DTO. Fields are sanitized; missing payer and
// origin are left blank for the service defaults.
func (d TransactionDTO) Transaction() (core.Transaction, error) {
	date, err := core.ParseDate(d.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	kind, err := core.ParseKind(d.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(d.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          strings.TrimSpace(d.ID),
		Date:        date,
		Description: sanitizeInput(d.Description),
		Category:    core.Category(sanitizeInput(d.Category)),
		Payer:       core.Payer(sanitizeInput(d.Payer)),
		Kind:        kind,
		Amount:      amount,
		Origin:      sanitizeInput(d.Origin),
	}, nil
}

func transactions(dtos []TransactionDTO) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(dtos))
	for i, d := range dtos {
		t, err := d.Transaction()
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// ManualEntryRequest is a hand-entered row. A blank date means today.
type ManualEntryRequest struct {
	Date        string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Description string `json:"description" validate:"required,max=200"`
	Category    string `json:"category" validate:"required"`
	Payer       string `json:"payer"`
	Kind        string `json:"kind" validate:"required,oneof=ENTRADA SAIDA"`
	Amount      string `json:"amount" validate:"required,numeric"`
}

// EditRequest saves a working set captured at Version.
type EditRequest struct {
	Version string           `json:"version"`
	IDs     []string         `json:"ids" validate:"dive,required"`
	Rows    []TransactionDTO `json:"rows" validate:"dive"`
}

// ConfirmImportRequest appends reviewed import rows.
type ConfirmImportRequest struct {
	Rows  []TransactionDTO `json:"rows" validate:"required,min=1,dive"`
	Payer string           `json:"payer"`
}

// RecurringRequestDTO generates monthly income rows. Start is YYYY-MM.
type RecurringRequestDTO struct {
	Description string `json:"description" validate:"required,max=200"`
	Amount      string `json:"amount" validate:"required,numeric"`
	Day         int    `json:"day" validate:"min=1,max=31"`
	Months      int    `json:"months" validate:"min=1,max=120"`
	Category    string `json:"category"`
	Payer       string `json:"payer"`
	Start       string `json:"start" validate:"omitempty,datetime=2006-01"`
}

func (d RecurringRequestDTO) Request() (services.RecurringRequest, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(d.Amount))
	if err != nil {
		return services.RecurringRequest{}, core.ErrInvalidAmountFormat
	}
	req := services.RecurringRequest{
		Description: sanitizeInput(d.Description),
		Amount:      amount,
		Day:         d.Day,
		Months:      d.Months,
		Category:    core.Category(sanitizeInput(d.Category)),
		Payer:       core.Payer(sanitizeInput(d.Payer)),
	}
	if d.Start != "" {
		start, err := core.ParseDate(d.Start + "-01")
		if err != nil {
			return services.RecurringRequest{}, err
		}
		req.Start = start
	}
	return req, nil
}

type workingSetResponse struct {
	Version string           `json:"version"`
	IDs     []string         `json:"ids"`
	Rows    []TransactionDTO `json:"rows"`
}

type appendResponse struct {
	Version    string `json:"version"`
	Added      int    `json:"added"`
	Duplicates int    `json:"duplicates"`
}

type editResponse struct {
	Version  string `json:"version"`
	Deleted  int    `json:"deleted"`
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
}

type skippedDTO struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type previewResponse struct {
	Rows    []TransactionDTO `json:"rows"`
	Skipped []skippedDTO     `json:"skipped"`
}

func newPreviewResponse(p importer.Preview) previewResponse {
	out := previewResponse{Rows: newTransactionDTOs(p.Rows), Skipped: make([]skippedDTO, len(p.Skipped))}
	for i, s := range p.Skipped {
		out.Skipped[i] = skippedDTO{Line: s.Line, Reason: s.Reason}
	}
	return out
}
