package http

import (
	"net/http"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/summary"
)

// handleSummary returns the dashboard report of a month, computed once per
// ledger version.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	month, err := ParseMonth(q)
	if err != nil {
		s.writeError(w, r, log.OpSummary, err)
		return
	}
	income, err := ParseIncome(q, s.opts.ProjectedIncome)
	if err != nil {
		s.writeError(w, r, log.OpSummary, err)
		return
	}
	l, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpSummary, err)
		return
	}
	NewJSONResponse().Version(l.Version).Body(s.report(r.Context(), l, month, income)).Write(w)
}

// handleCategories lists the household categories in form order.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{"categories": core.Categories()}).Write(w)
}

// handleMonths lists the month keys present in the ledger, newest first.
func (s *Server) handleMonths(w http.ResponseWriter, r *http.Request) {
	l, err := s.snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, log.OpSummary, err)
		return
	}
	months := summary.Months(l.Rows)
	if months == nil {
		months = []string{}
	}
	NewJSONResponse().Version(l.Version).Body(map[string]any{"months": months}).Write(w)
}
