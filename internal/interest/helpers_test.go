package interest

import (
	"testing"

	"github.com/shopspring/decimal"

	"lendx/internal/core"
)

func d(y, m, day int) core.Date { return core.NewDate(y, m, day) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func taken(id string, date core.Date, amount string) core.Transaction {
	return core.Transaction{ID: id, Date: date, Type: core.Taken, Amount: dec(amount)}
}

func returned(id string, date core.Date, amount string) core.Transaction {
	return core.Transaction{ID: id, Date: date, Type: core.Returned, Amount: dec(amount)}
}

func borrower(rate string, method core.InterestMethod) core.Borrower {
	return core.Borrower{ID: "b1", Name: "Ana", InterestRate: dec(rate), InterestMethod: method}
}

func assertDec(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s: expected %s, got %s", name, want, got.String())
	}
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	out, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return out
}
