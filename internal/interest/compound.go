package interest

import (
	"github.com/shopspring/decimal"

	"lendx/internal/core"
)

// Compound walks Monday-aligned calendar weeks from the week of the first
// transaction to the week containing asOf. Each week first applies the
// transactions dated up to its Sunday (and not after asOf), then adds one
// week of interest to the running balance.
//
// TotalInterest is derived as final balance minus the clamped principal, so
// an over-repaid ledger reports the clamped part as interest.
func Compound(b core.Borrower, txs []core.Transaction, asOf core.Date) Result {
	sorted := core.SortedByDate(txs)
	if len(sorted) == 0 {
		return Result{
			Method:        core.MethodCompound,
			Principal:     decimal.Zero,
			TotalInterest: decimal.Zero,
			TotalAmount:   decimal.Zero,
			Breakdown:     []WeekBreakdown{},
		}
	}

	firstWeekStart := startOfWeek(sorted[0].Date)
	totalWeeks := wholeWeeksBetween(startOfWeek(asOf), firstWeekStart) + 1
	rate := weeklyFraction(b.InterestRate)

	breakdown := make([]WeekBreakdown, 0, max(totalWeeks, 0))
	balance := decimal.Zero
	next := 0
	for week := int64(0); week < totalWeeks; week++ {
		weekStart := firstWeekStart.AddDays(int(week) * daysPerWeek)
		weekEnd := endOfWeek(weekStart)

		for next < len(sorted) && onOrBefore(sorted[next].Date, weekEnd) && onOrBefore(sorted[next].Date, asOf) {
			balance = balance.Add(sorted[next].Signed())
			next++
		}

		// Unreachable while totalWeeks ends at the as-of week; kept so the
		// loop bound and the accrual rule stay independent.
		if !onOrBefore(weekStart, asOf) {
			continue
		}

		opening := balance
		accrued := balance.Mul(rate).Round(accrualPlaces)
		balance = balance.Add(accrued)

		breakdown = append(breakdown, WeekBreakdown{
			Week:      int(week) + 1,
			StartDate: weekStart,
			EndDate:   weekEnd,
			Principal: opening,
			Interest:  accrued,
			Balance:   balance,
		})
	}

	principal := clampZero(netUpTo(sorted, asOf))
	finalBalance := decimal.Zero
	if n := len(breakdown); n > 0 {
		finalBalance = breakdown[n-1].Balance
	}

	return Result{
		Method:        core.MethodCompound,
		Principal:     principal,
		TotalInterest: finalBalance.Sub(principal),
		TotalAmount:   finalBalance,
		Breakdown:     breakdown,
	}
}
