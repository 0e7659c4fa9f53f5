package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
	"financas/internal/ledger"
	"financas/internal/reconcile"
	"financas/internal/store"
	"financas/internal/summary"
)

// Operation names carried by replace notifications.
const (
	OpManual    = "manual"
	OpImport    = "import"
	OpRecurring = "recurring"
	OpEdit      = "edit"
	OpReset     = "reset"
)

// LedgerReplaced describes a successful write.
type LedgerReplaced struct {
	Version   string
	Rows      int
	Operation string
	At        time.Time
}

// Notifier is told about every successful write.
type Notifier interface {
	LedgerReplaced(ctx context.Context, ev LedgerReplaced) error
}

// Ledger is a normalized snapshot of the store.
type Ledger struct {
	Rows        []core.Transaction
	Version     string // empty when nothing is stored yet
	Header      []string
	Quarantined []ledger.Quarantined
}

// AppendOutcome reports an Append-mode interaction.
type AppendOutcome struct {
	Version    string
	Added      int
	Duplicates int
}

// EditOutcome reports a scoped edit.
type EditOutcome struct {
	Version  string
	Deleted  int
	Inserted int
	Updated  int
}

// WorkingSetView is what the editing view shows: the filtered rows, the ids
// that define the working set and the version they were read at.
type WorkingSetView struct {
	Rows    []core.Transaction
	IDs     []string
	Version string
}

// LedgerService runs each interaction as one load, compute and replace cycle
// against a Store.
type LedgerService struct {
	store    store.Store
	notifier Notifier
	now      func() time.Time
}

type Option func(*LedgerService)

func WithNotifier(n Notifier) Option {
	return func(s *LedgerService) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func NewLedgerService(st store.Store, opts ...Option) *LedgerService {
	s := &LedgerService{store: st, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot loads and normalizes the ledger. A missing ledger is empty.
func (s *LedgerService) Snapshot(ctx context.Context) (Ledger, error) {
	snap, err := s.store.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return Ledger{Rows: []core.Transaction{}, Header: ledger.Columns}, nil
	}
	if err != nil {
		return Ledger{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	n := ledger.Normalize(snap.Table)
	if len(n.Quarantined) > 0 {
		slog.WarnContext(ctx, "Ledger rows quarantined",
			"version", snap.Version,
			"count", len(n.Quarantined),
			"first_line", n.Quarantined[0].Line,
			"reason", n.Quarantined[0].Reason)
	}
	return Ledger{
		Rows:        n.Rows,
		Version:     snap.Version,
		Header:      snap.Table.Header,
		Quarantined: n.Quarantined,
	}, nil
}

// AddManual appends one hand-entered row tagged with origin Manual. Manual
// entry never deduplicates.
func (s *LedgerService) AddManual(ctx context.Context, tx core.Transaction) (AppendOutcome, error) {
	tx.Origin = core.OriginManual
	tx.ID = ""
	tx = tx.WithDefaults()
	if err := tx.Validate(); err != nil {
		return AppendOutcome{}, err
	}
	return s.appendRows(ctx, OpManual, reconcile.Union, []core.Transaction{tx})
}

// ConfirmImport appends reviewed import candidates. A non-empty payer
// overrides the one on every row.
func (s *LedgerService) ConfirmImport(ctx context.Context, rows []core.Transaction, payer core.Payer) (AppendOutcome, error) {
	candidates := make([]core.Transaction, 0, len(rows))
	for i, r := range rows {
		if payer != "" {
			r.Payer = payer
		}
		r = r.WithDefaults()
		if err := r.Validate(); err != nil {
			return AppendOutcome{}, fmt.Errorf("row %d: %w", i+1, err)
		}
		candidates = append(candidates, r)
	}
	return s.appendRows(ctx, OpImport, reconcile.Append, candidates)
}

// AddRecurring generates and appends a batch of income rows.
func (s *LedgerService) AddRecurring(ctx context.Context, req RecurringRequest) (AppendOutcome, error) {
	rows, err := GenerateRecurring(req)
	if err != nil {
		return AppendOutcome{}, err
	}
	return s.appendRows(ctx, OpRecurring, reconcile.Append, rows)
}

func (s *LedgerService) appendRows(ctx context.Context, op string, merge func(existing, candidates []core.Transaction) reconcile.AppendResult, candidates []core.Transaction) (AppendOutcome, error) {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return AppendOutcome{}, err
	}
	res := merge(l.Rows, candidates)
	version, err := s.persist(ctx, op, l, res.Rows)
	if err != nil {
		return AppendOutcome{}, err
	}
	slog.InfoContext(ctx, "Rows appended",
		"operation", op,
		"added", res.Added,
		"duplicates", res.Duplicates,
		"version", version)
	return AppendOutcome{Version: version, Added: res.Added, Duplicates: res.Duplicates}, nil
}

// WorkingSet selects the rows matching f for editing.
func (s *LedgerService) WorkingSet(ctx context.Context, f reconcile.Filter) (WorkingSetView, error) {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return WorkingSetView{}, err
	}
	rows, ws := reconcile.Select(l.Rows, f)
	return WorkingSetView{Rows: rows, IDs: ws.IDs, Version: l.Version}, nil
}

// SaveWorkingSet replaces the working set ids, captured at version, with
// edited. It fails with store.ErrVersionConflict when the ledger moved on.
func (s *LedgerService) SaveWorkingSet(ctx context.Context, version string, ids []string, edited []core.Transaction) (EditOutcome, error) {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return EditOutcome{}, err
	}
	if l.Version != version {
		return EditOutcome{}, store.ErrVersionConflict
	}
	res, err := reconcile.ScopedEdit(l.Rows, reconcile.WorkingSet{IDs: ids}, edited)
	if err != nil {
		return EditOutcome{}, err
	}
	newVersion, err := s.persist(ctx, OpEdit, l, res.Rows)
	if err != nil {
		return EditOutcome{}, err
	}
	slog.InfoContext(ctx, "Working set saved",
		"deleted", res.Deleted,
		"inserted", res.Inserted,
		"updated", res.Updated,
		"version", newVersion)
	return EditOutcome{Version: newVersion, Deleted: res.Deleted, Inserted: res.Inserted, Updated: res.Updated}, nil
}

// Reset replaces the ledger, quarantined rows included, with an empty one.
func (s *LedgerService) Reset(ctx context.Context, version string) (string, error) {
	newVersion, err := s.replace(ctx, OpReset, ledger.EmptyTable(), version)
	if err != nil {
		return "", err
	}
	slog.WarnContext(ctx, "Ledger reset", "previous_version", version, "version", newVersion)
	return newVersion, nil
}

// Export writes the ledger as canonical CSV.
func (s *LedgerService) Export(ctx context.Context, w io.Writer) error {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	return ledger.WriteCSV(w, ledger.Rebuild(l.Rows, l.Header, l.Quarantined))
}

// Report computes the dashboard figures of month at the current version.
func (s *LedgerService) Report(ctx context.Context, month string, ceilings []summary.Ceiling, projectedIncome decimal.Decimal) (summary.Report, string, error) {
	l, err := s.Snapshot(ctx)
	if err != nil {
		return summary.Report{}, "", err
	}
	return summary.Build(l.Rows, month, ceilings, projectedIncome), l.Version, nil
}

func (s *LedgerService) persist(ctx context.Context, op string, l Ledger, rows []core.Transaction) (string, error) {
	return s.replace(ctx, op, ledger.Rebuild(rows, l.Header, l.Quarantined), l.Version)
}

func (s *LedgerService) replace(ctx context.Context, op string, t ledger.Table, expected string) (string, error) {
	version, err := s.store.Replace(ctx, t, expected)
	if errors.Is(err, store.ErrVersionConflict) {
		slog.WarnContext(ctx, "Ledger version conflict", "operation", op, "expected_version", expected)
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if s.notifier != nil {
		ev := LedgerReplaced{Version: version, Rows: len(t.Records), Operation: op, At: s.now()}
		if err := s.notifier.LedgerReplaced(ctx, ev); err != nil {
			slog.ErrorContext(ctx, "Failed to publish ledger notification",
				"operation", op,
				"version", version,
				"error", err)
		}
	}
	return version, nil
}
