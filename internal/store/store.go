// Package store defines the ledger persistence port and its simple adapters.
//
// A ledger is always read and written as one unit. Every Replace carries the
// version the caller loaded; a store whose version moved on rejects the write
// with ErrVersionConflict instead of overwriting someone else's change.
package store

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"financas/internal/ledger"
)

var (
	// ErrNotFound reports that no ledger has been stored yet.
	ErrNotFound = errors.New("ledger not found")
	// ErrVersionConflict reports that the stored ledger changed since it was
	// loaded.
	ErrVersionConflict = errors.New("ledger changed since it was loaded")
)

// Snapshot is a loaded ledger and the version it was read at.
type Snapshot struct {
	Table   ledger.Table
	Version string
}

// Store persists the ledger.
type Store interface {
	// Load returns the current ledger, or ErrNotFound when none exists.
	Load(ctx context.Context) (Snapshot, error)
	// Replace overwrites the whole ledger if its version still equals
	// expectedVersion. An empty expectedVersion only succeeds when no ledger
	// exists yet.
	Replace(ctx context.Context, t ledger.Table, expectedVersion string) (newVersion string, err error)
}

// Checksum is the content version used by stores without a native one.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Encode serializes t as canonical CSV bytes.
func Encode(t ledger.Table) ([]byte, error) {
	var buf bytes.Buffer
	if len(t.Header) == 0 {
		t.Header = ledger.EmptyTable().Header
	}
	if err := ledger.WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses CSV bytes written by Encode or by any older revision.
func Decode(data []byte) (ledger.Table, error) {
	return ledger.ReadCSV(bytes.NewReader(data))
}
