package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lendx/internal/core"
	"lendx/internal/ledger"
)

var _ ledger.Store = (*SQLiteRepository)(nil)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "lendx.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	created := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	b := core.Borrower{
		ID:             "b1",
		Name:           "Ana",
		InterestRate:   decimal.RequireFromString("12.5"),
		InterestMethod: core.MethodCompound,
		CreatedAt:      created,
		UpdatedAt:      created,
		Transactions: []core.Transaction{
			{ID: "t2", Date: core.NewDate(2024, 1, 9), Type: core.Returned, Amount: decimal.RequireFromString("200.50")},
			{ID: "t1", Date: core.NewDate(2024, 1, 1), Type: core.Taken, Amount: decimal.RequireFromString("1000")},
		},
	}
	if err := repo.SaveBorrower(ctx, b); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.GetBorrower(ctx, "b1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Ana" || got.InterestMethod != core.MethodCompound {
		t.Fatalf("unexpected borrower: %+v", got)
	}
	if !got.InterestRate.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("rate not preserved: %s", got.InterestRate)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at not preserved: %v", got.CreatedAt)
	}
	if len(got.Transactions) != 2 || got.Transactions[0].ID != "t1" {
		t.Fatalf("expected date-ordered transactions, got %+v", got.Transactions)
	}
	if !got.Transactions[1].Amount.Equal(decimal.RequireFromString("200.5")) {
		t.Fatalf("amount not preserved: %s", got.Transactions[1].Amount)
	}
	if got.Transactions[1].Date.String() != "2024-01-09" {
		t.Fatalf("date not preserved: %s", got.Transactions[1].Date)
	}
}

func TestSaveReplacesTransactions(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	b := core.Borrower{ID: "b1", Name: "Ana", InterestRate: decimal.NewFromInt(10), InterestMethod: core.MethodSimple,
		Transactions: []core.Transaction{
			{ID: "t1", Date: core.NewDate(2024, 1, 1), Type: core.Taken, Amount: decimal.NewFromInt(10)},
			{ID: "t2", Date: core.NewDate(2024, 1, 2), Type: core.Taken, Amount: decimal.NewFromInt(20)},
		}}
	if err := repo.SaveBorrower(ctx, b); err != nil {
		t.Fatalf("save: %v", err)
	}

	b.Name = "Ana Maria"
	b.Transactions = b.Transactions[1:]
	if err := repo.SaveBorrower(ctx, b); err != nil {
		t.Fatalf("resave: %v", err)
	}

	got, err := repo.GetBorrower(ctx, "b1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Ana Maria" || len(got.Transactions) != 1 || got.Transactions[0].ID != "t2" {
		t.Fatalf("unexpected borrower after resave: %+v", got)
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	for _, b := range []core.Borrower{
		{ID: "z", Name: "Zoe", InterestRate: decimal.NewFromInt(1), InterestMethod: core.MethodSimple},
		{ID: "a", Name: "Bruno", InterestRate: decimal.NewFromInt(2), InterestMethod: core.MethodSimpleWithRepay,
			Transactions: []core.Transaction{{ID: "t", Date: core.NewDate(2024, 5, 1), Type: core.Taken, Amount: decimal.NewFromInt(5)}}},
	} {
		if err := repo.SaveBorrower(ctx, b); err != nil {
			t.Fatalf("save %s: %v", b.ID, err)
		}
	}

	list, err := repo.ListBorrowers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Bruno" || list[1].Name != "Zoe" {
		t.Fatalf("unexpected list: %+v", list)
	}
	if len(list[0].Transactions) != 1 || list[1].Transactions == nil {
		t.Fatalf("transactions not attached: %+v", list)
	}

	if err := repo.DeleteBorrower(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetBorrower(ctx, "a"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteBorrower(ctx, "a"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lendx.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
