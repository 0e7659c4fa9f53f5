package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/reconcile"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ParseMonth reads the optional month query parameter (YYYY-MM).
func ParseMonth(query url.Values) (string, error) {
	m := strings.TrimSpace(query.Get("month"))
	if m != "" && !monthPattern.MatchString(m) {
		return "", fmt.Errorf("%w: month %q is not YYYY-MM", errBadRequest, m)
	}
	return m, nil
}

// ParseFilter builds a working-set filter from query parameters.
func ParseFilter(query url.Values) (reconcile.Filter, error) {
	month, err := ParseMonth(query)
	if err != nil {
		return reconcile.Filter{}, err
	}
	return reconcile.Filter{
		Month:    month,
		Category: core.Category(sanitizeInput(query.Get("category"))),
		Origin:   sanitizeInput(query.Get("origin")),
		Search:   sanitizeInput(query.Get("q")),
	}, nil
}

// ParseIncome reads the income query parameter, falling back to def.
func ParseIncome(query url.Values, def decimal.Decimal) (decimal.Decimal, error) {
	v := strings.TrimSpace(query.Get("income"))
	if v == "" {
		return def, nil
	}
	d, err := core.ParseAmount(v)
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: income %q", errBadRequest, v)
	}
	return d, nil
}

// decodeJSON reads a size-limited JSON body into dst and validates it.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON body", errBadRequest)
	}
	return s.validate.Struct(dst)
}

// readBody reads a size-limited raw upload.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, fmt.Errorf("%w: upload exceeds %d bytes", errBadRequest, tooLarge.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return data, nil
}

// checkPayer rejects payers outside the configured household.
func (s *Server) checkPayer(p core.Payer) error {
	if p == "" || len(s.opts.Payers) == 0 || slices.Contains(s.opts.Payers, p) {
		return nil
	}
	return fmt.Errorf("%w: unknown payer %q", errBadRequest, p)
}

func validationDetail(errs validator.ValidationErrors) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, fmt.Sprintf("%s failed %s", e.Namespace(), e.Tag()))
	}
	return strings.Join(parts, "; ")
}
