// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/hostel/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite serializes writers anyway; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WithinTx runs fn inside a single transaction.
func (s *SQLiteStore) WithinTx(ctx context.Context, fn func(tx storage.LineItemTx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&lineItemTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// lineItemTx implements storage.LineItemTx on an open transaction.
type lineItemTx struct {
	tx *sql.Tx
}

func (t *lineItemTx) AddLineItem(ctx context.Context, purchaseID, productID, price int64) error {
	return insertLineItem(ctx, t.tx, purchaseID, productID, price)
}

func (t *lineItemTx) DeleteLineItem(ctx context.Context, purchaseID, productID, price int64) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`DELETE FROM product_purchases WHERE id = (
			SELECT id FROM product_purchases
			WHERE purchase_id = ? AND product_id = ? AND price = ?
			ORDER BY id LIMIT 1
		)`,
		purchaseID, productID, price,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete line item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to count deleted line items: %w", err)
	}
	return n > 0, nil
}

func insertLineItem(ctx context.Context, q querier, purchaseID, productID, price int64) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO product_purchases (purchase_id, product_id, price) VALUES (?, ?, ?)",
		purchaseID, productID, price,
	)
	if err != nil {
		return fmt.Errorf("failed to insert line item: %w", err)
	}
	return nil
}

// deleteByID deletes one row from table and maps "no rows" to storage.ErrNotFound.
func (s *SQLiteStore) deleteByID(ctx context.Context, table string, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return expectOneRow(res, table, id)
}

func expectOneRow(res sql.Result, table string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows in %s: %w", table, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", table, id, storage.ErrNotFound)
	}
	return nil
}

func count(ctx context.Context, q querier, query string, args ...any) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

// limitClause renders LIMIT/OFFSET for a page. SQLite needs a LIMIT before OFFSET.
func limitClause(page storage.Page) string {
	if page.Limit <= 0 {
		if page.Offset > 0 {
			return fmt.Sprintf(" LIMIT -1 OFFSET %d", page.Offset)
		}
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", page.Limit, page.Offset)
}

// uniqueViolation converts a UNIQUE constraint failure into a *storage.ConflictError.
// The driver reports the column as "table.column".
func uniqueViolation(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) || se.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return nil
	}
	msg := se.Error()
	field := "value"
	if i := strings.LastIndex(msg, "."); i >= 0 {
		field = strings.TrimRight(strings.Fields(msg[i+1:])[0], ")")
	}
	return &storage.ConflictError{Field: field}
}

func unixOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timeFromNull(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func int64OrNull(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func int64FromNull(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return "?" + strings.Repeat(", ?", n-1)
}
