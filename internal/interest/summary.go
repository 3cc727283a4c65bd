package interest

import (
	"github.com/shopspring/decimal"

	"lendx/internal/core"
)

// Calculations holds the three interest models side by side.
type Calculations struct {
	Simple          Result `json:"simple"`
	SimpleWithRepay Result `json:"simpleWithRepay"`
	Compound        Result `json:"compound"`
}

// Summary is the reporting view of one borrower over a date window.
type Summary struct {
	BorrowerID        string              `json:"borrowerId"`
	Method            core.InterestMethod `json:"interestMethod"`
	AsOf              core.Date           `json:"asOf"`
	TotalTaken        decimal.Decimal     `json:"totalTaken"`
	TotalReturned     decimal.Decimal     `json:"totalReturned"`
	CurrentBalance    decimal.Decimal     `json:"currentBalance"`
	DailyInterestRate float64             `json:"dailyInterestRate"`
	Interest          Calculations        `json:"interestCalculations"`
}

// Preferred returns the result for the borrower's own interest method.
func (s Summary) Preferred() Result {
	switch s.Method {
	case core.MethodSimpleWithRepay:
		return s.Interest.SimpleWithRepay
	case core.MethodCompound:
		return s.Interest.Compound
	default:
		return s.Interest.Simple
	}
}

// Summarize filters txs to f and runs every model over the result.
// The balance is summed in stored order; the sum does not depend on it.
func Summarize(b core.Borrower, txs []core.Transaction, f Filter, asOf core.Date) Summary {
	filtered := f.Apply(txs)

	taken, returned := decimal.Zero, decimal.Zero
	for _, t := range filtered {
		switch t.Type {
		case core.Taken:
			taken = taken.Add(t.Amount)
		case core.Returned:
			returned = returned.Add(t.Amount)
		}
	}

	return Summary{
		BorrowerID:        b.ID,
		Method:            b.InterestMethod,
		AsOf:              asOf,
		TotalTaken:        taken,
		TotalReturned:     returned,
		CurrentBalance:    RunningBalance(filtered),
		DailyInterestRate: DailyRate(b.InterestRate),
		Interest: Calculations{
			Simple:          Simple(b, filtered, asOf),
			SimpleWithRepay: SimpleWithRepayment(b, filtered, asOf),
			Compound:        Compound(b, filtered, asOf),
		},
	}
}
