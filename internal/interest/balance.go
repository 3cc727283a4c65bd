// Package interest implements the loan calculation engine: running balances,
// the three interest models and the per-borrower summary.
//
// Every function here is pure. Inputs are never mutated; callers that share a
// borrower with other goroutines pass a snapshot (core.Borrower.Clone).
package interest

import (
	"github.com/shopspring/decimal"

	"lendx/internal/core"
)

// StatementLine is a transaction annotated with the balance owed after it.
type StatementLine struct {
	core.Transaction
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// RunningBalance returns takens minus returns over txs in the order given.
// A positive result means the borrower owes the lender.
func RunningBalance(txs []core.Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, t := range txs {
		balance = balance.Add(t.Signed())
	}
	return balance
}

// Statement sorts txs by date and annotates the transactions inside f with
// their running balance. When f has a start date, the balance is seeded with
// the net of every transaction strictly before it, so a windowed statement
// still shows the true amount owed.
func Statement(txs []core.Transaction, f Filter) []StatementLine {
	sorted := core.SortedByDate(txs)

	balance := decimal.Zero
	if f.HasStart() {
		for _, t := range sorted {
			if dayNumber(t.Date) < dayNumber(f.Start) {
				balance = balance.Add(t.Signed())
			}
		}
	}

	window := f.Apply(sorted)
	lines := make([]StatementLine, 0, len(window))
	for _, t := range window {
		balance = balance.Add(t.Signed())
		lines = append(lines, StatementLine{Transaction: t, RunningBalance: balance})
	}
	return lines
}
