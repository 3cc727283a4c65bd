package ledger

import (
	"context"
	"errors"

	"lendx/internal/core"
)

// ErrNotFound is returned when a borrower id is unknown to the store.
var ErrNotFound = errors.New("borrower not found")

// Ports for the ledger backends.
type (
	// Store durably holds borrowers together with their transactions.
	// Implementations return copies; callers never share slices with the store.
	Store interface {
		GetBorrower(ctx context.Context, id string) (core.Borrower, error)
		// ListBorrowers returns every borrower ordered by name.
		ListBorrowers(ctx context.Context) ([]core.Borrower, error)
		// SaveBorrower inserts or replaces the borrower and its transaction list.
		SaveBorrower(ctx context.Context, b core.Borrower) error
		DeleteBorrower(ctx context.Context, id string) error
	}

	// Pinger is implemented by stores that can report their own readiness.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
