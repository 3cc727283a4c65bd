package interest

import (
	"github.com/shopspring/decimal"

	"lendx/internal/core"
)

// SimpleWithRepayment charges the weekly rate period by period on the balance
// that actually prevailed between transactions. Periods in which the balance
// was zero or negative accrue nothing.
func SimpleWithRepayment(b core.Borrower, txs []core.Transaction, asOf core.Date) Result {
	sorted := core.SortedByDate(txs)
	if len(sorted) == 0 {
		return Result{
			Method:        core.MethodSimpleWithRepay,
			Principal:     decimal.Zero,
			TotalInterest: decimal.Zero,
			TotalAmount:   decimal.Zero,
		}
	}

	rate := weeklyFraction(b.InterestRate)
	accrue := func(balance decimal.Decimal, weeks int64) decimal.Decimal {
		if weeks <= 0 || !balance.IsPositive() {
			return decimal.Zero
		}
		return balance.Mul(rate).Mul(decimal.NewFromInt(weeks))
	}

	balance := decimal.Zero
	totalInterest := decimal.Zero
	previous := sorted[0].Date
	for _, t := range sorted {
		if !onOrBefore(t.Date, asOf) {
			break
		}
		// Interest for the period since the last transaction uses the
		// balance before this one is applied.
		totalInterest = totalInterest.Add(accrue(balance, wholeWeeksBetween(t.Date, previous)))
		balance = balance.Add(t.Signed())
		previous = t.Date
	}
	totalInterest = totalInterest.Add(accrue(balance, wholeWeeksBetween(asOf, previous)))

	return Result{
		Method:        core.MethodSimpleWithRepay,
		Principal:     clampZero(netUpTo(sorted, asOf)),
		TotalInterest: totalInterest,
		TotalAmount:   balance.Add(totalInterest),
	}
}
