package reconcile

import (
	"errors"
	"fmt"

	"financas/internal/core"
)

// ErrForeignRow rejects an edit that carries the id of a row outside the
// working set.
var ErrForeignRow = errors.New("edited row belongs outside the working set")

// ErrDuplicateID rejects an edit that carries the same id twice.
var ErrDuplicateID = errors.New("duplicate row id")

// EditResult is the reconciled ledger plus counts of what the edit did.
type EditResult struct {
	Rows     []core.Transaction
	Deleted  int
	Inserted int
	Updated  int
}

// ScopedEdit substitutes the working set w of ledger with edited.
//
// Rows outside w keep their relative order and come first, followed by
// edited in the order given. Rows of w missing from edited are deleted;
// edited rows without an id are inserted with a fresh one. Updated counts
// kept rows whose content changed. No deduplication is applied and every
// edited row must pass validation.
func ScopedEdit(ledger []core.Transaction, w WorkingSet, edited []core.Transaction) (EditResult, error) {
	inSet := w.set()
	before := make(map[string]core.Transaction, len(w.IDs))
	outside := make(map[string]struct{}, len(ledger))
	var out EditResult

	for _, r := range ledger {
		if _, ok := inSet[r.ID]; ok {
			before[r.ID] = r
			continue
		}
		outside[r.ID] = struct{}{}
		out.Rows = append(out.Rows, r)
	}

	kept := make(map[string]struct{}, len(edited))
	for i, r := range edited {
		switch {
		case r.ID == "":
			r.ID = core.NewID()
			out.Inserted++
		default:
			if _, foreign := outside[r.ID]; foreign {
				return EditResult{}, fmt.Errorf("%w: row %d id %s", ErrForeignRow, i+1, r.ID)
			}
			if _, dup := kept[r.ID]; dup {
				return EditResult{}, fmt.Errorf("%w: row %d id %s", ErrDuplicateID, i+1, r.ID)
			}
			if prev, ok := before[r.ID]; !ok {
				out.Inserted++
			} else if !sameRow(prev, r) {
				out.Updated++
			}
		}
		r = r.WithDefaults()
		if err := r.Validate(); err != nil {
			return EditResult{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		kept[r.ID] = struct{}{}
		out.Rows = append(out.Rows, r)
	}

	for id := range before {
		if _, ok := kept[id]; !ok {
			out.Deleted++
		}
	}
	return out, nil
}

func sameRow(a, b core.Transaction) bool {
	return a.Date.Equal(b.Date.Time) &&
		a.Description == b.Description &&
		a.Category == b.Category &&
		a.Payer == b.Payer &&
		a.Kind == b.Kind &&
		a.Amount.Equal(b.Amount) &&
		a.Origin == b.Origin
}
