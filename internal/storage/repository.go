package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"lendx/internal/core"
	"lendx/internal/ledger"

	_ "modernc.org/sqlite"
)

const timestampLayout = time.RFC3339Nano

// SQLiteRepository is the durable ledger.Store.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY under load.
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

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetBorrower implements ledger.Store
func (r *SQLiteRepository) GetBorrower(ctx context.Context, id string) (core.Borrower, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, interest_rate, interest_method, created_at, updated_at
		FROM borrowers WHERE id = ?`, id)

	b, err := scanBorrower(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Borrower{}, fmt.Errorf("%w: %s", ledger.ErrNotFound, id)
	}
	if err != nil {
		return core.Borrower{}, fmt.Errorf("get borrower %s: %w", id, err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT borrower_id, id, date, type, amount
		FROM transactions WHERE borrower_id = ? ORDER BY position`, id)
	if err != nil {
		return core.Borrower{}, fmt.Errorf("get transactions for %s: %w", id, err)
	}
	byBorrower, err := scanTransactions(rows)
	if err != nil {
		return core.Borrower{}, err
	}
	b.Transactions = byBorrower[id]
	if b.Transactions == nil {
		b.Transactions = []core.Transaction{}
	}
	return b, nil
}

// ListBorrowers implements ledger.Store
func (r *SQLiteRepository) ListBorrowers(ctx context.Context) ([]core.Borrower, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, interest_rate, interest_method, created_at, updated_at
		FROM borrowers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list borrowers: %w", err)
	}
	defer rows.Close()

	var out []core.Borrower
	for rows.Next() {
		b, err := scanBorrower(rows)
		if err != nil {
			return nil, fmt.Errorf("scan borrower: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list borrowers: %w", err)
	}

	txRows, err := r.db.QueryContext(ctx, `
		SELECT borrower_id, id, date, type, amount
		FROM transactions ORDER BY borrower_id, position`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	byBorrower, err := scanTransactions(txRows)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Transactions = byBorrower[out[i].ID]
		if out[i].Transactions == nil {
			out[i].Transactions = []core.Transaction{}
		}
	}
	return out, nil
}

// SaveBorrower implements ledger.Store. The borrower row is upserted and its
// transaction list replaced in a single database transaction.
func (r *SQLiteRepository) SaveBorrower(ctx context.Context, b core.Borrower) error {
	if b.ID == "" {
		return errors.New("save borrower: empty id")
	}
	txs := core.SortedByDate(b.Transactions)

	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback() //nolint:errcheck

	_, err = dbtx.ExecContext(ctx, `
		INSERT INTO borrowers (id, name, interest_rate, interest_method, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			interest_rate = excluded.interest_rate,
			interest_method = excluded.interest_method,
			updated_at = excluded.updated_at`,
		b.ID, b.Name, b.InterestRate.String(), string(b.InterestMethod),
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("upsert borrower %s: %w", b.ID, err)
	}

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM transactions WHERE borrower_id = ?`, b.ID); err != nil {
		return fmt.Errorf("clear transactions for %s: %w", b.ID, err)
	}

	stmt, err := dbtx.PrepareContext(ctx, `
		INSERT INTO transactions (borrower_id, id, position, date, type, amount)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare transaction insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range txs {
		if _, err := stmt.ExecContext(ctx, b.ID, t.ID, i, t.Date.String(), string(t.Type), t.Amount.String()); err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit borrower %s: %w", b.ID, err)
	}

	slog.DebugContext(ctx, "Borrower saved to SQLite",
		"borrower_id", b.ID,
		"transactions", len(txs))
	return nil
}

// DeleteBorrower implements ledger.Store
func (r *SQLiteRepository) DeleteBorrower(ctx context.Context, id string) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer dbtx.Rollback() //nolint:errcheck

	if _, err := dbtx.ExecContext(ctx, `DELETE FROM transactions WHERE borrower_id = ?`, id); err != nil {
		return fmt.Errorf("delete transactions for %s: %w", id, err)
	}
	res, err := dbtx.ExecContext(ctx, `DELETE FROM borrowers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete borrower %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete borrower %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ledger.ErrNotFound, id)
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit delete %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Borrower deleted from SQLite", "borrower_id", id)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBorrower(s scanner) (core.Borrower, error) {
	var (
		b                    core.Borrower
		rate, method         string
		createdAt, updatedAt string
	)
	if err := s.Scan(&b.ID, &b.Name, &rate, &method, &createdAt, &updatedAt); err != nil {
		return core.Borrower{}, err
	}

	var err error
	if b.InterestRate, err = decimal.NewFromString(rate); err != nil {
		return core.Borrower{}, fmt.Errorf("borrower %s rate %q: %w", b.ID, rate, err)
	}
	b.InterestMethod = core.InterestMethod(method)
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Borrower{}, fmt.Errorf("borrower %s created_at: %w", b.ID, err)
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return core.Borrower{}, fmt.Errorf("borrower %s updated_at: %w", b.ID, err)
	}
	return b, nil
}

// scanTransactions drains rows, grouping transactions by borrower id.
func scanTransactions(rows *sql.Rows) (map[string][]core.Transaction, error) {
	defer rows.Close()

	out := make(map[string][]core.Transaction)
	for rows.Next() {
		var (
			borrowerID, date, typ, amount string
			t                             core.Transaction
		)
		if err := rows.Scan(&borrowerID, &t.ID, &date, &typ, &amount); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		d, err := core.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", t.ID, err)
		}
		t.Date = d
		t.Type = core.TransactionType(typ)
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("transaction %s amount %q: %w", t.ID, amount, err)
		}
		out[borrowerID] = append(out[borrowerID], t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read transactions: %w", err)
	}
	return out, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}
