package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"financas/internal/ledger"
	"financas/internal/store"
)

// SQLiteRepository keeps the ledger in a single transactions table. The row
// order is the position column; the version lives in ledger_meta.
type SQLiteRepository struct {
	db *sql.DB
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection serializes writers inside the process.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements store.Store.
func (r *SQLiteRepository) Load(ctx context.Context) (store.Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("begin read: %w", err)
	}
	defer tx.Rollback()

	version, err := currentVersion(ctx, tx)
	if err != nil {
		return store.Snapshot{}, err
	}
	if version == "" {
		return store.Snapshot{}, store.ErrNotFound
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT date, description, category, payer, kind, amount, origin, id
		FROM transactions ORDER BY position`)
	if err != nil {
		return store.Snapshot{}, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	t := ledger.EmptyTable()
	t.Records = [][]string{}
	for rows.Next() {
		rec := make([]string, len(ledger.Columns))
		if err := rows.Scan(&rec[0], &rec[1], &rec[2], &rec[3], &rec[4], &rec[5], &rec[6], &rec[7]); err != nil {
			return store.Snapshot{}, fmt.Errorf("scan transaction: %w", err)
		}
		t.Records = append(t.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return store.Snapshot{}, fmt.Errorf("iterate transactions: %w", err)
	}
	return store.Snapshot{Table: t, Version: version}, nil
}

// Replace implements store.Store. The delete, inserts and version bump run in
// one transaction, so a failed write leaves the previous ledger in place.
func (r *SQLiteRepository) Replace(ctx context.Context, t ledger.Table, expected string) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	current, err := currentVersion(ctx, tx)
	if err != nil {
		return "", err
	}
	if current != expected {
		return "", store.ErrVersionConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return "", fmt.Errorf("clear transactions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transactions (position, date, description, category, payer, kind, amount, origin, id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	canon := t.Canonical()
	for i, rec := range canon.Records {
		if _, err := stmt.ExecContext(ctx, i, rec[0], rec[1], rec[2], rec[3], rec[4], rec[5], rec[6], rec[7]); err != nil {
			return "", fmt.Errorf("insert row %d: %w", i+1, err)
		}
	}

	next := int64(1)
	if current != "" {
		n, _ := strconv.ParseInt(current, 10, 64)
		next = n + 1
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_meta (singleton, version, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET version = excluded.version, updated_at = excluded.updated_at`,
		next, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return "", fmt.Errorf("bump version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit replace: %w", err)
	}

	slog.InfoContext(ctx, "Ledger saved to SQLite",
		"rows", len(canon.Records),
		"version", next)

	return strconv.FormatInt(next, 10), nil
}

func currentVersion(ctx context.Context, tx *sql.Tx) (string, error) {
	var v int64
	err := tx.QueryRowContext(ctx, `SELECT version FROM ledger_meta WHERE singleton = 1`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read ledger version: %w", err)
	}
	return strconv.FormatInt(v, 10), nil
}
