package interest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"lendx/internal/core"
)

// accrualPlaces bounds the precision of compounded interest so that long
// schedules do not grow unbounded decimal expansions.
const accrualPlaces = 10

// Result is the outcome of one interest model for one borrower.
type Result struct {
	Method        core.InterestMethod `json:"method"`
	Principal     decimal.Decimal     `json:"principal"`
	TotalInterest decimal.Decimal     `json:"totalInterest"`
	TotalAmount   decimal.Decimal     `json:"totalAmount"`
	Breakdown     []WeekBreakdown     `json:"breakdown,omitempty"`
}

// WeekBreakdown is one Monday-to-Sunday row of the compound schedule.
type WeekBreakdown struct {
	Week      int             `json:"week"`
	StartDate core.Date       `json:"startDate"`
	EndDate   core.Date       `json:"endDate"`
	Principal decimal.Decimal `json:"principal"` // balance before this week's interest
	Interest  decimal.Decimal `json:"interest"`
	Balance   decimal.Decimal `json:"balance"`
}

// Calculator is the common shape of the three interest models.
type Calculator func(b core.Borrower, txs []core.Transaction, asOf core.Date) Result

var calculators = map[core.InterestMethod]Calculator{
	core.MethodSimple:          Simple,
	core.MethodSimpleWithRepay: SimpleWithRepayment,
	core.MethodCompound:        Compound,
}

// CalculatorFor returns the calculator implementing method.
func CalculatorFor(method core.InterestMethod) (Calculator, error) {
	calc, ok := calculators[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidMethod, method)
	}
	return calc, nil
}

// Calculate runs the borrower's preferred interest model.
func Calculate(b core.Borrower, txs []core.Transaction, asOf core.Date) (Result, error) {
	calc, err := CalculatorFor(b.InterestMethod)
	if err != nil {
		return Result{}, err
	}
	return calc(b, txs, asOf), nil
}

// weeklyFraction turns a percentage rate into a fraction (10 -> 0.10).
func weeklyFraction(rate decimal.Decimal) decimal.Decimal {
	return rate.Shift(-2)
}

// netUpTo is takens minus returns over the transactions dated on or before asOf.
func netUpTo(txs []core.Transaction, asOf core.Date) decimal.Decimal {
	net := decimal.Zero
	for _, t := range txs {
		if onOrBefore(t.Date, asOf) {
			net = net.Add(t.Signed())
		}
	}
	return net
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	return decimal.Max(d, decimal.Zero)
}
