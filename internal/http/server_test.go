package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/core"
	"financas/internal/ledger"
	"financas/internal/log"
	"financas/internal/services"
	"financas/internal/store"
	"financas/internal/summary"
)

var testToday = core.NewDate(2026, 1, 20)

func seedRows() []core.Transaction {
	return []core.Transaction{
		{ID: "a", Date: core.NewDate(2026, 1, 5), Description: "Salario", Category: core.CategorySalary, Payer: core.PayerCouple, Kind: core.Income, Amount: decimal.NewFromInt(5000), Origin: core.OriginManual},
		{ID: "b", Date: core.NewDate(2026, 1, 10), Description: "Assai", Category: core.CategoryMarket, Payer: core.PayerCouple, Kind: core.Expense, Amount: decimal.NewFromInt(1000), Origin: core.OriginNubank},
		{ID: "c", Date: core.NewDate(2026, 1, 12), Description: "Cinema", Category: core.CategoryLeisure, Payer: core.PayerCouple, Kind: core.Expense, Amount: decimal.NewFromInt(500), Origin: core.OriginManual},
		{ID: "d", Date: core.NewDate(2025, 12, 3), Description: "Luz", Category: core.CategoryFixedBills, Payer: core.PayerCouple, Kind: core.Expense, Amount: decimal.NewFromInt(200), Origin: core.SheetOrigin(2025)},
	}
}

func newTestServer(t *testing.T, st store.Store) *Server {
	t.Helper()
	ceilings, err := summary.ParseCeilings("Mercado=1500;Lazer=400")
	require.NoError(t, err)

	logger := log.New(log.Config{Output: &bytes.Buffer{}})
	s := NewServer(":0", services.NewLedgerService(st), logger, Options{
		Payers:   []core.Payer{core.PayerCouple, "Ana"},
		Ceilings: ceilings,
		Today:    func() core.Date { return testToday },
	})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, r)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, store.NewMemory())
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestReadyReportsStore(t *testing.T) {
	s := newTestServer(t, store.NewMemoryWith(ledger.FromTransactions(seedRows())))
	rec := do(t, s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rows":4`)

	s = newTestServer(t, failingStore{})
	rec = do(t, s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestManualEntryAndWorkingSetRoundTrip(t *testing.T) {
	s := newTestServer(t, store.NewMemory())

	rec := do(t, s, http.MethodPost, "/api/transactions",
		`{"description":"Padaria","category":"Mercado","kind":"SAIDA","amount":"12.50"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[appendResponse](t, rec)
	assert.Equal(t, 1, created.Added)

	rec = do(t, s, http.MethodGet, "/api/ledger?month=2026-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ws := decode[workingSetResponse](t, rec)
	require.Len(t, ws.Rows, 1)
	assert.Equal(t, created.Version, ws.Version)
	assert.Equal(t, created.Version, rec.Header().Get(HeaderLedgerVersion))
	row := ws.Rows[0]
	assert.Equal(t, "2026-01-20", row.Date)
	assert.Equal(t, core.OriginManual, row.Origin)
	assert.Equal(t, "Casal", row.Payer)
	assert.Equal(t, "12.50", row.Amount)

	row.Amount = "15.00"
	body, err := json.Marshal(EditRequest{Version: ws.Version, IDs: ws.IDs, Rows: []TransactionDTO{row}})
	require.NoError(t, err)

	rec = do(t, s, http.MethodPut, "/api/ledger", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edit := decode[editResponse](t, rec)
	assert.Equal(t, 1, edit.Updated)
	assert.Zero(t, edit.Deleted)

	// Saving again with the stale version is a conflict.
	rec = do(t, s, http.MethodPut, "/api/ledger", string(body))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSaveWorkingSetRejectsForeignRow(t *testing.T) {
	s := newTestServer(t, store.NewMemoryWith(ledger.FromTransactions(seedRows())))

	ws := decode[workingSetResponse](t, do(t, s, http.MethodGet, "/api/ledger?category=Lazer", ""))
	require.Equal(t, []string{"c"}, ws.IDs)

	foreign := newTransactionDTO(seedRows()[1])
	body, _ := json.Marshal(EditRequest{Version: ws.Version, IDs: ws.IDs, Rows: []TransactionDTO{foreign}})
	rec := do(t, s, http.MethodPut, "/api/ledger", string(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "outside the working set")
}

func TestManualEntryValidation(t *testing.T) {
	s := newTestServer(t, store.NewMemory())

	tests := []struct {
		name string
		body string
	}{
		{"bad kind", `{"description":"x","category":"Casa","kind":"OTHER","amount":"1"}`},
		{"negative amount", `{"description":"x","category":"Casa","kind":"SAIDA","amount":"-1"}`},
		{"missing description", `{"category":"Casa","kind":"SAIDA","amount":"1"}`},
		{"unknown payer", `{"description":"x","category":"Casa","kind":"SAIDA","amount":"1","payer":"Zé"}`},
		{"unknown field", `{"description":"x","category":"Casa","kind":"SAIDA","amount":"1","tip":true}`},
		{"bad date", `{"date":"20/01/2026","description":"x","category":"Casa","kind":"SAIDA","amount":"1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/transactions", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestBankImportPreviewAndConfirm(t *testing.T) {
	s := newTestServer(t, store.NewMemory())

	csv := strings.Join([]string{
		"date,title,amount",
		"2026-01-05,ASSAI ATACADISTA,-120.50",
		"2026-01-06,Pagamento de fatura,500",
		"2026-01-07,uber trip,25.00",
	}, "\n")
	rec := do(t, s, http.MethodPost, "/api/imports/bank?payer=Ana", csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decode[previewResponse](t, rec)
	require.Len(t, preview.Rows, 2)
	require.Len(t, preview.Skipped, 1)
	assert.Equal(t, 3, preview.Skipped[0].Line)
	assert.Equal(t, "120.50", preview.Rows[0].Amount)
	assert.Equal(t, "Ana", preview.Rows[0].Payer)

	body, _ := json.Marshal(ConfirmImportRequest{Rows: preview.Rows})
	rec = do(t, s, http.MethodPost, "/api/imports/confirm", string(body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[appendResponse](t, rec).Added)

	// Confirming the same statement again adds nothing.
	rec = do(t, s, http.MethodPost, "/api/imports/confirm", string(body))
	require.Equal(t, http.StatusCreated, rec.Code)
	again := decode[appendResponse](t, rec)
	assert.Zero(t, again.Added)
	assert.Equal(t, 2, again.Duplicates)
}

func TestImportRejectsMalformedFile(t *testing.T) {
	s := newTestServer(t, store.NewMemory())
	rec := do(t, s, http.MethodPost, "/api/imports/bank", "foo,bar\n1,2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/imports/sheet", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnnualSheetPreview(t *testing.T) {
	s := newTestServer(t, store.NewMemory())
	rec := do(t, s, http.MethodPost, "/api/imports/sheet", "2026,JAN,FEV\nAluguel,\"R$ 1.200,50\",\nTOTAL,1200,0\n")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	preview := decode[previewResponse](t, rec)
	require.Len(t, preview.Rows, 1)
	assert.Equal(t, "2026-01-10", preview.Rows[0].Date)
	assert.Equal(t, "1200.50", preview.Rows[0].Amount)
	assert.Equal(t, "Planilha 2026", preview.Rows[0].Origin)
}

func TestRecurring(t *testing.T) {
	s := newTestServer(t, store.NewMemory())
	rec := do(t, s, http.MethodPost, "/api/recurring",
		`{"description":"Salario","amount":"4000","day":31,"months":2,"start":"2026-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[appendResponse](t, rec).Added)

	ws := decode[workingSetResponse](t, do(t, s, http.MethodGet, "/api/ledger?month=2026-02", ""))
	require.Len(t, ws.Rows, 1)
	assert.Equal(t, "2026-02-28", ws.Rows[0].Date)
	assert.Equal(t, core.OriginRecurring, ws.Rows[0].Origin)

	rec = do(t, s, http.MethodPost, "/api/recurring", `{"description":"Salario","amount":"4000","day":0,"months":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSummaryIsCachedPerVersion(t *testing.T) {
	s := newTestServer(t, store.NewMemoryWith(ledger.FromTransactions(seedRows())))

	rec := do(t, s, http.MethodGet, "/api/summary?month=2026-01", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	r := decode[summary.Report](t, rec)
	assert.Equal(t, "2026-01", r.Month)
	assert.True(t, decimal.NewFromInt(5000).Equal(r.Totals.Income))
	assert.True(t, decimal.NewFromInt(1500).Equal(r.Totals.Expense))
	assert.True(t, decimal.NewFromInt(3500).Equal(r.Totals.Balance))
	assert.True(t, decimal.NewFromInt(70).Equal(r.SavingsRate), "savings rate %s", r.SavingsRate)
	require.Len(t, r.Budget, 2)
	assert.True(t, r.Budget[1].Over(), "Lazer 500 over 400")

	do(t, s, http.MethodGet, "/api/summary?month=2026-01", "")
	assert.Equal(t, uint64(1), s.summaries.Stats().Hits)

	// A write moves the version, so the next summary is recomputed.
	rec = do(t, s, http.MethodPost, "/api/transactions",
		`{"date":"2026-01-15","description":"Farmacia","category":"Saúde","kind":"SAIDA","amount":"100"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	r = decode[summary.Report](t, do(t, s, http.MethodGet, "/api/summary?month=2026-01", ""))
	assert.True(t, decimal.NewFromInt(1600).Equal(r.Totals.Expense))
}

func TestSummaryRejectsBadParameters(t *testing.T) {
	s := newTestServer(t, store.NewMemory())
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/summary?month=2026-13", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/summary?income=abc", "").Code)
}

func TestSummaryWithProjectedIncome(t *testing.T) {
	s := newTestServer(t, store.NewMemoryWith(ledger.FromTransactions(seedRows())))
	r := decode[summary.Report](t, do(t, s, http.MethodGet, "/api/summary?month=2026-01&income=2000", ""))
	require.NotNil(t, r.Commitment)
	assert.Equal(t, summary.LevelWarning, r.Commitment.Level)
}

func TestMonths(t *testing.T) {
	s := newTestServer(t, store.NewMemoryWith(ledger.FromTransactions(seedRows())))
	rec := do(t, s, http.MethodGet, "/api/months", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"months":["2026-01","2025-12"]}`, rec.Body.String())

	s = newTestServer(t, store.NewMemory())
	assert.JSONEq(t, `{"months":[]}`, do(t, s, http.MethodGet, "/api/months", "").Body.String())
}

func TestCategories(t *testing.T) {
	s := newTestServer(t, store.NewMemory())
	rec := do(t, s, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Categories []core.Category `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, core.Categories(), body.Categories)
	assert.Equal(t, core.CategoryMarket, body.Categories[0])
}

func TestExport(t *testing.T) {
	s := newTestServer(t, store.NewMemoryWith(ledger.FromTransactions(seedRows())))
	rec := do(t, s, http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "lancamentos-2026-01-20.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Equal(t, "date,description,category,payer,kind,amount,origin,id", lines[0])
	assert.Len(t, lines, 5)
}

func TestReset(t *testing.T) {
	st := store.NewMemoryWith(ledger.FromTransactions(seedRows()))
	s := newTestServer(t, st)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodDelete, "/api/ledger?version=1", "").Code)
	assert.Equal(t, http.StatusConflict, do(t, s, http.MethodDelete, "/api/ledger?version=0&confirm=true", "").Code)

	rec := do(t, s, http.MethodDelete, "/api/ledger?version=1&confirm=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Table.Empty())
}

func TestStoreFailureIsBadGateway(t *testing.T) {
	s := newTestServer(t, failingStore{})
	for _, target := range []string{"/api/ledger", "/api/summary", "/api/months", "/api/export"} {
		rec := do(t, s, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadGateway, rec.Code, target)
	}
}

func TestWritesAreRateLimited(t *testing.T) {
	s := newTestServer(t, store.NewMemory())
	var last int
	for i := 0; i < 31; i++ {
		body := fmt.Sprintf(`{"description":"item %d","category":"Casa","kind":"SAIDA","amount":"1"}`, i)
		last = do(t, s, http.MethodPost, "/api/transactions", body).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/api/months", "").Code)
}

func TestTrustedProxiesOption(t *testing.T) {
	logger := log.New(log.Config{Output: &bytes.Buffer{}})
	s := NewServer(":0", services.NewLedgerService(store.NewMemory()), logger, Options{
		TrustedProxies: []string{"203.0.113.0/24", "not-a-cidr"},
	})
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	var writes []int
	for i := 0; i < 31; i++ {
		r := httptest.NewRequest(http.MethodPost, "/api/transactions",
			strings.NewReader(`{"description":"pao","category":"Casa","kind":"SAIDA","amount":"1"}`))
		r.RemoteAddr = "203.0.113.5:4000"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, r)
		writes = append(writes, rec.Code)
	}
	for i, code := range writes {
		assert.Equal(t, http.StatusCreated, code, "client %d is keyed by its forwarded address", i+1)
	}
}

type failingStore struct{}

func (failingStore) Load(context.Context) (store.Snapshot, error) {
	return store.Snapshot{}, errors.New("dial tcp: connection refused")
}

func (failingStore) Replace(context.Context, ledger.Table, string) (string, error) {
	return "", errors.New("dial tcp: connection refused")
}
