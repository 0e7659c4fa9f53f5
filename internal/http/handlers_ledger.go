package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/reconcile"
)

// handleWorkingSet returns the filtered rows, their ids and the version they
// were read at. Clients send all three back on save.
func (s *Server) handleWorkingSet(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, log.OpLoad, err)
		return
	}
	l, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpLoad, err)
		return
	}
	rows, ws := reconcile.Select(l.Rows, f)
	NewJSONResponse().Version(l.Version).Body(workingSetResponse{
		Version: l.Version,
		IDs:     ws.IDs,
		Rows:    newTransactionDTOs(rows),
	}).Write(w)
}

func (s *Server) handleSaveWorkingSet(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpEdit, err)
		return
	}
	rows, err := transactions(req.Rows)
	if err != nil {
		s.writeError(w, r, log.OpEdit, err)
		return
	}
	for _, row := range rows {
		if err := s.checkPayer(row.Payer); err != nil {
			s.writeError(w, r, log.OpEdit, err)
			return
		}
	}
	if req.IDs == nil {
		req.IDs = []string{}
	}

	out, err := s.ledger.SaveWorkingSet(r.Context(), req.Version, req.IDs, rows)
	if err != nil {
		s.writeError(w, r, log.OpEdit, err)
		return
	}
	s.events.LogLedgerWrite(r.Context(), log.OpEdit, out.Version, nil)
	NewJSONResponse().Version(out.Version).Body(editResponse{
		Version:  out.Version,
		Deleted:  out.Deleted,
		Inserted: out.Inserted,
		Updated:  out.Updated,
	}).Write(w)
}

// handleReset empties the ledger. It requires confirm=true and the version
// the caller last saw.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if ok, _ := strconv.ParseBool(q.Get("confirm")); !ok {
		s.writeError(w, r, log.OpReset, fmt.Errorf("%w: reset requires confirm=true", errBadRequest))
		return
	}
	version, err := s.ledger.Reset(r.Context(), q.Get("version"))
	if err != nil {
		s.writeError(w, r, log.OpReset, err)
		return
	}
	s.events.LogLedgerWrite(r.Context(), log.OpReset, version, nil)
	NewJSONResponse().Version(version).Body(map[string]string{"version": version}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req ManualEntryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpAppend, err)
		return
	}
	dto := TransactionDTO{
		Date:        req.Date,
		Description: req.Description,
		Category:    req.Category,
		Payer:       req.Payer,
		Kind:        req.Kind,
		Amount:      req.Amount,
	}
	if dto.Date == "" {
		dto.Date = s.opts.Today().String()
	}
	tx, err := dto.Transaction()
	if err != nil {
		s.writeError(w, r, log.OpAppend, err)
		return
	}
	if err := s.checkPayer(tx.Payer); err != nil {
		s.writeError(w, r, log.OpAppend, err)
		return
	}

	out, err := s.ledger.AddManual(r.Context(), tx)
	if err != nil {
		s.writeError(w, r, log.OpAppend, err)
		return
	}
	s.events.LogLedgerWrite(r.Context(), log.OpAppend, out.Version,
		log.NewFields().WithAppend(out.Added, out.Duplicates))
	NewJSONResponse().Status(http.StatusCreated).Version(out.Version).Body(appendResponse{
		Version:    out.Version,
		Added:      out.Added,
		Duplicates: out.Duplicates,
	}).Write(w)
}

// handleExport streams the canonical CSV backup.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.ledger.Export(r.Context(), &buf); err != nil {
		s.writeError(w, r, log.OpExport, err)
		return
	}
	name := fmt.Sprintf("lancamentos-%s.csv", s.opts.Today().String())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// payerOrEmpty sanitizes an optional payer parameter.
func payerOrEmpty(v string) core.Payer {
	return core.Payer(sanitizeInput(v))
}
