package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"financas/internal/ledger"
)

func sample(desc string) ledger.Table {
	t := ledger.EmptyTable()
	t.Records = [][]string{{"2026-01-05", desc, "Mercado", "Casal", "SAIDA", "10.00", "Manual", "id-1"}}
	return t
}

// exerciseStore checks the contract every adapter must honor.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.Replace(ctx, sample("a"), "stale")
	require.ErrorIs(t, err, ErrVersionConflict)

	v1, err := s.Replace(ctx, sample("a"), "")
	require.NoError(t, err)
	require.NotEmpty(t, v1)

	_, err = s.Replace(ctx, sample("b"), "")
	require.ErrorIs(t, err, ErrVersionConflict, "create-only must fail once a ledger exists")

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1, snap.Version)
	assert.Equal(t, "a", snap.Table.Records[0][1])
	assert.Equal(t, ledger.Columns, snap.Table.Header)

	v2, err := s.Replace(ctx, sample("b"), v1)
	require.NoError(t, err)
	assert.NotEqual(t, v1, v2)

	_, err = s.Replace(ctx, sample("c"), v1)
	require.ErrorIs(t, err, ErrVersionConflict)

	snap, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", snap.Table.Records[0][1], "rejected write must leave the ledger intact")

	v3, err := s.Replace(ctx, ledger.EmptyTable(), v2)
	require.NoError(t, err)
	snap, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, v3, snap.Version)
	assert.True(t, snap.Table.Empty())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	s := NewMemoryWith(sample("a"))
	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	snap.Table.Records[0][1] = "mutated"

	again, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a", again.Table.Records[0][1])
}

func TestFileStore(t *testing.T) {
	s, err := NewFile(filepath.Join(t.TempDir(), "data", "ledger.csv"))
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStoreDetectsOutsideEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	s, err := NewFile(path)
	require.NoError(t, err)
	ctx := context.Background()

	v1, err := s.Replace(ctx, sample("a"), "")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("data,descricao,valor\n2026-01-01,x,1\n"), 0o644))
	_, err = s.Replace(ctx, sample("b"), v1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"data", "descricao", "valor"}, snap.Table.Header)
}

func TestChecksumIsContentAddressed(t *testing.T) {
	a, err := Encode(sample("a"))
	require.NoError(t, err)
	b, err := Encode(sample("a"))
	require.NoError(t, err)
	assert.Equal(t, Checksum(a), Checksum(b))
	assert.Len(t, Checksum(a), 64)
}

func TestEncodeDefaultsHeader(t *testing.T) {
	data, err := Encode(ledger.Table{})
	require.NoError(t, err)
	assert.Equal(t, "date,description,category,payer,kind,amount,origin,id\n", string(data))
}

func TestGCSWriteConditions(t *testing.T) {
	c, err := writeConditions("")
	require.NoError(t, err)
	assert.Equal(t, storage.Conditions{DoesNotExist: true}, c)

	c, err = writeConditions("1712345")
	require.NoError(t, err)
	assert.Equal(t, int64(1712345), c.GenerationMatch)

	_, err = writeConditions("3f2a")
	assert.ErrorIs(t, err, ErrVersionConflict)
}

func TestGCSMapWriteError(t *testing.T) {
	g := &GCS{bucket: "b", object: "ledger.csv"}

	err := mapWriteError(g, fmt.Errorf("upload: %w", &googleapi.Error{Code: 412}))
	assert.ErrorIs(t, err, ErrVersionConflict)

	err = mapWriteError(g, &googleapi.Error{Code: 500})
	assert.False(t, errors.Is(err, ErrVersionConflict))
	assert.Contains(t, err.Error(), "gs://b/ledger.csv")
}
