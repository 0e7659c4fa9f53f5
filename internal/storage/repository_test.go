package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financas/internal/ledger"
	"financas/internal/store"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "financas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func table(descs ...string) ledger.Table {
	t := ledger.EmptyTable()
	for _, d := range descs {
		t.Records = append(t.Records, []string{"2026-01-05", d, "Mercado", "Casal", "SAIDA", "10.00", "Manual", d + "-id"})
	}
	return t
}

func TestSQLiteRepositoryVersioning(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	v1, err := repo.Replace(ctx, table("a", "b"), "")
	require.NoError(t, err)
	assert.Equal(t, "1", v1)

	_, err = repo.Replace(ctx, table("c"), "")
	require.ErrorIs(t, err, store.ErrVersionConflict)

	v2, err := repo.Replace(ctx, table("b", "a", "c"), v1)
	require.NoError(t, err)
	assert.Equal(t, "2", v2)

	_, err = repo.Replace(ctx, table(), v1)
	require.ErrorIs(t, err, store.ErrVersionConflict)

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, v2, snap.Version)
	assert.Equal(t, ledger.Columns, snap.Table.Header)
	require.Len(t, snap.Table.Records, 3)
	assert.Equal(t, "b", snap.Table.Records[0][1], "row order is preserved")
	assert.Equal(t, "c-id", snap.Table.Records[2][7])
}

func TestSQLiteRepositoryEmptyLedgerExists(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	v, err := repo.Replace(ctx, ledger.EmptyTable(), "")
	require.NoError(t, err)

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, v, snap.Version)
	assert.True(t, snap.Table.Empty())
}

func TestSQLiteRepositoryStoresLegacyTablesCanonically(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	legacy := ledger.Table{
		Header:  []string{"data", "descricao", "valor", "tipo"},
		Records: [][]string{{"2026-01-02", "Pão", "7.5", "SAIDA"}},
	}
	_, err := repo.Replace(ctx, legacy, "")
	require.NoError(t, err)

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-01-02", "Pão", "", "", "SAIDA", "7.5", "", ""}, snap.Table.Records[0])
}

func TestSQLiteRepositoryMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "financas.db")
	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}
