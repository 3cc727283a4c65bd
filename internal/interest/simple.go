package interest

import (
	"github.com/shopspring/decimal"

	"lendx/internal/core"
)

// Simple charges the weekly rate on the final balance for every whole week
// since the first transaction, ignoring when repayments happened.
// Principal is the sum of every amount taken up to asOf.
func Simple(b core.Borrower, txs []core.Transaction, asOf core.Date) Result {
	sorted := core.SortedByDate(txs)

	var (
		balance   = decimal.Zero
		principal = decimal.Zero
		first     core.Date
		kept      int
	)
	for _, t := range sorted {
		if !onOrBefore(t.Date, asOf) {
			break
		}
		if kept == 0 {
			first = t.Date
		}
		kept++

		balance = balance.Add(t.Signed())
		if t.Type == core.Taken {
			principal = principal.Add(t.Amount)
		}
	}

	totalInterest := decimal.Zero
	if kept > 0 {
		weeks := decimal.NewFromInt(wholeWeeksBetween(asOf, first))
		totalInterest = balance.Mul(weeklyFraction(b.InterestRate)).Mul(weeks)
	}

	return Result{
		Method:        core.MethodSimple,
		Principal:     principal,
		TotalInterest: totalInterest,
		TotalAmount:   balance.Add(totalInterest),
	}
}
