package store

import (
	"context"
	"strconv"
	"sync"

	"financas/internal/ledger"
)

// Memory keeps the ledger in process. Versions are a write counter.
type Memory struct {
	mu      sync.Mutex
	table   ledger.Table
	version int
	exists  bool
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryWith seeds the store with t at version "1".
func NewMemoryWith(t ledger.Table) *Memory {
	return &Memory{table: t.Clone(), version: 1, exists: true}
}

func (m *Memory) Load(_ context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.exists {
		return Snapshot{}, ErrNotFound
	}
	return Snapshot{Table: m.table.Clone(), Version: strconv.Itoa(m.version)}, nil
}

func (m *Memory) Replace(_ context.Context, t ledger.Table, expected string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := ""
	if m.exists {
		current = strconv.Itoa(m.version)
	}
	if expected != current {
		return "", ErrVersionConflict
	}
	m.table = t.Clone()
	m.version++
	m.exists = true
	return strconv.Itoa(m.version), nil
}
