package interest

import (
	"math"

	"github.com/shopspring/decimal"
)

// DailyRate converts a weekly percentage into the compound-equivalent daily
// percentage. The value is informational only.
func DailyRate(weekly decimal.Decimal) float64 {
	r := weekly.InexactFloat64()
	return (math.Pow(1+r/100, 1.0/daysPerWeek) - 1) * 100
}
