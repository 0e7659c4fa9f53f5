package http

import (
	"bytes"
	"net/http"

	"financas/internal/importer"
	"financas/internal/log"
)

// handleImportPreview parses an uploaded CSV statement without touching the
// ledger. The caller reviews the rows and posts them to /api/imports/confirm.
func (s *Server) handleImportPreview(shape importer.Shape) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payer := payerOrEmpty(r.URL.Query().Get("payer"))
		if err := s.checkPayer(payer); err != nil {
			s.writeError(w, r, log.OpImport, err)
			return
		}
		data, err := s.readBody(w, r)
		if err != nil {
			s.writeError(w, r, log.OpImport, err)
			return
		}

		preview, err := importer.Parse(shape, bytes.NewReader(data), importer.Options{
			Today:       s.opts.Today(),
			Payer:       payer,
			Categorizer: s.opts.Categorizer,
		})
		if err != nil {
			s.writeError(w, r, log.OpImport, err)
			return
		}
		log.FromContext(r.Context()).InfoContext(r.Context(), "Import previewed",
			"shape", string(shape),
			log.FieldRows, len(preview.Rows),
			log.FieldSkipped, len(preview.Skipped))
		NewJSONResponse().Body(newPreviewResponse(preview)).Write(w)
	}
}

func (s *Server) handleConfirmImport(w http.ResponseWriter, r *http.Request) {
	var req ConfirmImportRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, log.OpImport, err)
		return
	}
	payer := payerOrEmpty(req.Payer)
	if err := s.checkPayer(payer); err != nil {
		s.writeError(w, r, log.OpImport, err)
		return
	}
	rows, err := transactions(req.Rows)
	if err != nil {
		s.writeError(w, r, log.OpImport, err)
		return
	}

	out, err := s.ledger.ConfirmImport(r.Context(), rows, payer)
	if err != nil {
		s.writeError(w, r, log.OpImport, err)
		return
	}
	s.events.LogLedgerWrite(r.Context(), log.OpImport, out.Version,
		log.NewFields().WithAppend(out.Added, out.Duplicates))
	NewJSONResponse().Status(http.StatusCreated).Version(out.Version).Body(appendResponse{
		Version:    out.Version,
		Added:      out.Added,
		Duplicates: out.Duplicates,
	}).Write(w)
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	var dto RecurringRequestDTO
	if err := s.decodeJSON(w, r, &dto); err != nil {
		s.writeError(w, r, log.OpAppend, err)
		return
	}
	req, err := dto.Request()
	if err != nil {
		s.writeError(w, r, log.OpAppend, err)
		return
	}
	if err := s.checkPayer(req.Payer); err != nil {
		s.writeError(w, r, log.OpAppend, err)
		return
	}
	if req.Start.IsZero() {
		req.Start = s.opts.Today()
	}

	out, err := s.ledger.AddRecurring(r.Context(), req)
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
