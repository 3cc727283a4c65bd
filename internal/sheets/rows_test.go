package sheets

import (
	"testing"

	"github.com/shopspring/decimal"

	"lendx/internal/core"
	"lendx/internal/interest"
)

func testBorrower() core.Borrower {
	return core.Borrower{
		ID:             "0f3c2a9e-1111-2222-3333-444455556666",
		Name:           "Ana",
		InterestRate:   decimal.NewFromInt(10),
		InterestMethod: core.MethodCompound,
		Transactions: []core.Transaction{
			{ID: "t1", Date: core.NewDate(2024, 1, 1), Type: core.Taken, Amount: decimal.NewFromInt(1000)},
		},
	}
}

func TestSummaryRow(t *testing.T) {
	b := testBorrower()
	s := interest.Summarize(b, b.Transactions, interest.Filter{}, core.NewDate(2024, 1, 15))

	row := SummaryRow(b, s)
	if len(row) != len(SummaryHeader) {
		t.Fatalf("row has %d columns, header has %d", len(row), len(SummaryHeader))
	}

	want := map[int]string{
		0:  b.ID,
		2:  "compound",
		4:  "2024-01-15",
		5:  "1000.00",
		7:  "1000.00",
		8:  "1200.00",
		10: "1331.00",
		11: "331.00",
	}
	for col, v := range want {
		if row[col] != v {
			t.Errorf("column %d (%s) = %q, want %q", col, SummaryHeader[col], row[col], v)
		}
	}
}

func TestBreakdownRows(t *testing.T) {
	b := testBorrower()
	s := interest.Summarize(b, b.Transactions, interest.Filter{}, core.NewDate(2024, 1, 15))

	rows := BreakdownRows(s)
	if len(rows) != 3 {
		t.Fatalf("expected 3 weeks, got %d", len(rows))
	}
	last := rows[2]
	if last[0] != "3" || last[1] != "2024-01-15" || last[2] != "2024-01-21" || last[5] != "1331.00" {
		t.Fatalf("unexpected last row: %v", last)
	}
}

func TestBreakdownSheetName(t *testing.T) {
	if got := BreakdownSheetName("0f3c2a9e-1111"); got != "Breakdown 0f3c2a9e" {
		t.Fatalf("got %q", got)
	}
	if got := BreakdownSheetName("b1"); got != "Breakdown b1" {
		t.Fatalf("got %q", got)
	}
}
