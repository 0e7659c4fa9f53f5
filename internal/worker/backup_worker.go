package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"financas/internal/amqp"
	"financas/internal/store"
)

// BackupWorker mirrors the primary ledger into a backup store. It reacts to
// replace notifications and also polls, in case a message was lost.
type BackupWorker struct {
	source store.Store
	target store.Store

	mu           sync.Mutex
	lastMirrored string
}

func NewBackupWorker(source, target store.Store) *BackupWorker {
	return &BackupWorker{source: source, target: target}
}

// HandleLedgerReplaced processes one notification from AMQP.
func (w *BackupWorker) HandleLedgerReplaced(ctx context.Context, msg *amqp.LedgerReplacedMessage) error {
	slog.InfoContext(ctx, "Processing ledger notification",
		"version", msg.Version,
		"operation", msg.Operation,
		"rows", msg.Rows)

	_, err := w.Mirror(ctx)
	return err
}

// Mirror copies the current primary ledger into the backup store unless that
// version was already copied. It reports whether a copy was written.
func (w *BackupWorker) Mirror(ctx context.Context) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap, err := w.source.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load primary ledger: %w", err)
	}
	if snap.Version == w.lastMirrored {
		return false, nil
	}

	// The backup is a plain copy: whatever it holds is overwritten.
	for attempt := 0; attempt < 2; attempt++ {
		current := ""
		backup, err := w.target.Load(ctx)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return false, fmt.Errorf("load backup ledger: %w", err)
		default:
			current = backup.Version
		}

		_, err = w.target.Replace(ctx, snap.Table, current)
		if errors.Is(err, store.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("write backup ledger: %w", err)
		}

		w.lastMirrored = snap.Version
		slog.InfoContext(ctx, "Ledger mirrored to backup",
			"version", snap.Version,
			"rows", len(snap.Table.Records))
		return true, nil
	}
	return false, fmt.Errorf("write backup ledger: %w", store.ErrVersionConflict)
}

// Poll mirrors every interval until ctx is done.
func (w *BackupWorker) Poll(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Mirror(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic backup failed", "error", err)
			}
		}
	}
}
