package interest

import (
	"lendx/internal/core"
)

// Filter is an inclusive date window. A zero Start or End leaves that side open.
type Filter struct {
	Start core.Date
	End   core.Date
}

func (f Filter) HasStart() bool { return !f.Start.IsZero() }
func (f Filter) HasEnd() bool   { return !f.End.IsZero() }

// Contains compares calendar dates, not their text.
func (f Filter) Contains(d core.Date) bool {
	if f.HasStart() && dayNumber(d) < dayNumber(f.Start) {
		return false
	}
	if f.HasEnd() && dayNumber(d) > dayNumber(f.End) {
		return false
	}
	return true
}

// Apply returns the transactions inside the window, preserving their order.
func (f Filter) Apply(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}
