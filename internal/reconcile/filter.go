package reconcile

import (
	"strings"

	"financas/internal/core"
)

// Filter selects a working set. Empty fields match everything; set fields are
// ANDed.
type Filter struct {
	Month    string // YYYY-MM
	Category core.Category
	Origin   string
	// Search is a case-insensitive substring of the description or origin.
	Search string
}

func (f Filter) Match(r core.Transaction) bool {
	if f.Month != "" && r.Date.MonthKey() != f.Month {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Origin != "" && r.Origin != f.Origin {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(r.Description), q) &&
			!strings.Contains(strings.ToLower(r.Origin), q) {
			return false
		}
	}
	return true
}

// WorkingSet is the captured selection: the ids of the rows shown for
// editing, in ledger order.
type WorkingSet struct {
	IDs []string
}

// Contains reports whether id was part of the selection.
func (w WorkingSet) Contains(id string) bool {
	for _, v := range w.IDs {
		if v == id {
			return true
		}
	}
	return false
}

func (w WorkingSet) set() map[string]struct{} {
	m := make(map[string]struct{}, len(w.IDs))
	for _, id := range w.IDs {
		m[id] = struct{}{}
	}
	return m
}

// Select applies f to rows and returns the matching rows with their working
// set.
func Select(rows []core.Transaction, f Filter) ([]core.Transaction, WorkingSet) {
	var (
		picked []core.Transaction
		ws     = WorkingSet{IDs: []string{}}
	)
	for _, r := range rows {
		if f.Match(r) {
			picked = append(picked, r)
			ws.IDs = append(ws.IDs, r.ID)
		}
	}
	return picked, ws
}
