// Package reconcile merges new and edited rows back into the full ledger.
//
// Append unions new rows into the ledger and drops duplicates; Union only
// concatenates. ScopedEdit substitutes a filtered working set with its edited
// version and leaves everything else untouched.
package reconcile

import "financas/internal/core"

// AppendResult is the merged ledger and what happened to the candidates.
type AppendResult struct {
	Rows       []core.Transaction
	Added      int
	Duplicates int
}

// Append returns existing followed by candidates, deduplicated on
// (date, description, amount). The first occurrence wins, so stored rows are
// never replaced by an import and re-importing the same file adds nothing.
//
// Duplicates already present in existing are collapsed as well.
func Append(existing, candidates []core.Transaction) AppendResult {
	out := AppendResult{Rows: make([]core.Transaction, 0, len(existing)+len(candidates))}
	seen := make(map[string]struct{}, len(existing)+len(candidates))

	for _, r := range existing {
		k := r.DedupKey()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out.Rows = append(out.Rows, r)
	}
	for _, r := range candidates {
		k := r.DedupKey()
		if _, dup := seen[k]; dup {
			out.Duplicates++
			continue
		}
		seen[k] = struct{}{}
		out.Rows = append(out.Rows, r)
		out.Added++
	}
	return out
}

// Union returns existing followed by candidates without any deduplication.
// Manual entries go through it: two identical purchases on one day are two
// rows.
func Union(existing, candidates []core.Transaction) AppendResult {
	out := AppendResult{Rows: make([]core.Transaction, 0, len(existing)+len(candidates))}
	out.Rows = append(out.Rows, existing...)
	out.Rows = append(out.Rows, candidates...)
	out.Added = len(candidates)
	return out
}
