package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"financas/internal/ledger"
)

// File stores the ledger as a CSV file. The version is the SHA-256 of the
// file bytes, so edits made by hand are detected as well.
type File struct {
	mu   sync.Mutex
	path string
}

var _ Store = (*File)(nil)

func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("ledger file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	return &File{path: path}, nil
}

func (f *File) Path() string { return f.path }

func (f *File) Load(ctx context.Context) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, version, err := f.read()
	if err != nil {
		return Snapshot{}, err
	}
	t, err := Decode(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return Snapshot{Table: t, Version: version}, nil
}

func (f *File) Replace(ctx context.Context, t ledger.Table, expected string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	_, current, err := f.read()
	switch {
	case errors.Is(err, ErrNotFound):
		current = ""
	case err != nil:
		return "", err
	}
	if current != expected {
		return "", ErrVersionConflict
	}

	data, err := Encode(t)
	if err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".ledger-*.csv")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return "", fmt.Errorf("replace %s: %w", f.path, err)
	}
	return Checksum(data), nil
}

func (f *File) read() ([]byte, string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", f.path, err)
	}
	return data, Checksum(data), nil
}
