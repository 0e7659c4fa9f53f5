package worker

import (
	"context"
	"errors"
	"testing"

	"financas/internal/amqp"
	"financas/internal/ledger"
	"financas/internal/store"
)

type failingStore struct{ store.Store }

func (failingStore) Load(context.Context) (store.Snapshot, error) {
	return store.Snapshot{}, errors.New("disk unplugged")
}

func table(desc string) ledger.Table {
	t := ledger.EmptyTable()
	t.Records = [][]string{{"2026-01-05", desc, "Mercado", "Casal", "SAIDA", "10.00", "Manual", "id-" + desc}}
	return t
}

func TestBackupWorker_Mirror(t *testing.T) {
	ctx := context.Background()
	primary := store.NewMemory()
	backup := store.NewMemory()
	w := NewBackupWorker(primary, backup)

	copied, err := w.Mirror(ctx)
	if err != nil || copied {
		t.Fatalf("Mirror() on empty primary = %v, %v; want false, nil", copied, err)
	}

	v1, err := primary.Replace(ctx, table("a"), "")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.HandleLedgerReplaced(ctx, &amqp.LedgerReplacedMessage{Version: v1}); err != nil {
		t.Fatalf("HandleLedgerReplaced() error = %v", err)
	}

	snap, err := backup.Load(ctx)
	if err != nil {
		t.Fatalf("backup Load() error = %v", err)
	}
	if got := snap.Table.Records[0][1]; got != "a" {
		t.Errorf("backup row = %q, want a", got)
	}

	copied, err = w.Mirror(ctx)
	if err != nil || copied {
		t.Errorf("second Mirror() of same version = %v, %v; want false, nil", copied, err)
	}

	if _, err := primary.Replace(ctx, table("b"), v1); err != nil {
		t.Fatal(err)
	}
	copied, err = w.Mirror(ctx)
	if err != nil || !copied {
		t.Fatalf("Mirror() after change = %v, %v; want true, nil", copied, err)
	}
	snap, _ = backup.Load(ctx)
	if got := snap.Table.Records[0][1]; got != "b" {
		t.Errorf("backup row = %q, want b", got)
	}
}

func TestBackupWorker_PrimaryFailure(t *testing.T) {
	w := NewBackupWorker(failingStore{}, store.NewMemory())
	if _, err := w.Mirror(context.Background()); err == nil {
		t.Error("Mirror() should fail when the primary cannot be read")
	}
}

func TestBackupWorker_BackupFailure(t *testing.T) {
	ctx := context.Background()
	primary := store.NewMemoryWith(table("a"))
	w := NewBackupWorker(primary, failingStore{})
	if _, err := w.Mirror(ctx); err == nil {
		t.Error("Mirror() should fail when the backup cannot be read")
	}
}
