package sheets

import (
	"strconv"

	"lendx/internal/core"
	"lendx/internal/interest"
)

// SummaryHeader names the columns written by SummaryRow.
var SummaryHeader = []string{
	"Borrower ID", "Name", "Method", "Weekly Rate %", "As Of",
	"Total Taken", "Total Returned", "Balance",
	"Simple", "Simple With Repay", "Compound", "Interest Due",
}

// BreakdownHeader names the columns written by BreakdownRows.
var BreakdownHeader = []string{"Week", "Start", "End", "Principal", "Interest", "Balance"}

// SummaryRow flattens a summary into one sheet row. The borrower id always
// comes first; exporters use it as the row key.
func SummaryRow(b core.Borrower, s interest.Summary) []string {
	return []string{
		b.ID,
		b.Name,
		string(b.InterestMethod),
		b.InterestRate.String(),
		s.AsOf.String(),
		s.TotalTaken.StringFixed(2),
		s.TotalReturned.StringFixed(2),
		s.CurrentBalance.StringFixed(2),
		s.Interest.Simple.TotalAmount.StringFixed(2),
		s.Interest.SimpleWithRepay.TotalAmount.StringFixed(2),
		s.Interest.Compound.TotalAmount.StringFixed(2),
		s.Preferred().TotalInterest.StringFixed(2),
	}
}

// BreakdownRows renders the compound weekly breakdown, one row per week.
func BreakdownRows(s interest.Summary) [][]string {
	weeks := s.Interest.Compound.Breakdown
	rows := make([][]string, 0, len(weeks))
	for _, w := range weeks {
		rows = append(rows, []string{
			strconv.Itoa(w.Week),
			w.StartDate.String(),
			w.EndDate.String(),
			w.Principal.StringFixed(2),
			w.Interest.StringFixed(2),
			w.Balance.StringFixed(2),
		})
	}
	return rows
}

// BreakdownSheetName is the tab holding a borrower's weekly breakdown.
func BreakdownSheetName(borrowerID string) string {
	id := borrowerID
	if len(id) > 8 {
		id = id[:8]
	}
	return "Breakdown " + id
}
