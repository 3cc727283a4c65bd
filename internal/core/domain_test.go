package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseDate(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"2024-01-01", true},
		{"2024-12-31", true},
		{" 2024-02-29 ", true},
		{"2023-02-29", false},
		{"2024-1-5", false}, // not zero-padded
		{"05/01/2024", false},
		{"", false},
	}
	for _, tc := range cases {
		_, err := ParseDate(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("%q expected ok, got %v", tc.in, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", tc.in, err)
		}
	}
}

func TestDateOfDropsTimeOfDay(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	d := DateOf(time.Date(2024, 3, 10, 23, 30, 0, 0, loc))
	if d.String() != "2024-03-10" {
		t.Fatalf("unexpected date %s", d)
	}
	if d.Location() != time.UTC || d.Hour() != 0 {
		t.Fatalf("date not normalised to UTC midnight: %v", d.Time)
	}
}

func TestDateJSON(t *testing.T) {
	var tx Transaction
	if err := json.Unmarshal([]byte(`{"id":"a","date":"2024-01-15","type":"taken","amount":"12.50"}`), &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !tx.Date.Equal(NewDate(2024, 1, 15).Time) {
		t.Fatalf("unexpected date %v", tx.Date)
	}
	out, err := json.Marshal(tx.Date)
	if err != nil || string(out) != `"2024-01-15"` {
		t.Fatalf("unexpected marshal %s (err=%v)", out, err)
	}
	if err := json.Unmarshal([]byte(`{"date":"2024-1-15"}`), &tx); err == nil {
		t.Fatalf("expected error for non zero-padded date")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{ID: "1", Date: NewDate(2024, 1, 1), Type: Taken, Amount: decimal.NewFromInt(10)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zero := good
	zero.Amount = decimal.Zero
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be accepted, got %v", err)
	}

	bads := []Transaction{
		{ID: "1", Date: Date{}, Type: Taken, Amount: decimal.NewFromInt(1)},
		{ID: "1", Date: NewDate(2024, 1, 1), Type: "lent", Amount: decimal.NewFromInt(1)},
		{ID: "1", Date: NewDate(2024, 1, 1), Type: Returned, Amount: decimal.NewFromInt(-1)},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBorrowerValidate(t *testing.T) {
	good := Borrower{Name: "Ravi", InterestRate: decimal.NewFromInt(10), InterestMethod: MethodCompound}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name string
		b    Borrower
		want error
	}{
		{"empty name", Borrower{Name: "  ", InterestMethod: MethodSimple}, ErrEmptyName},
		{"negative rate", Borrower{Name: "a", InterestRate: decimal.NewFromInt(-1), InterestMethod: MethodSimple}, ErrInvalidRate},
		{"unknown method", Borrower{Name: "a", InterestMethod: "daily"}, ErrInvalidMethod},
		{"bad transaction", Borrower{Name: "a", InterestMethod: MethodSimple, Transactions: []Transaction{{ID: "x", Type: Taken}}}, ErrInvalidDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.b.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSortedByDateIsStableAndCopies(t *testing.T) {
	txs := []Transaction{
		{ID: "c", Date: NewDate(2024, 1, 3)},
		{ID: "a1", Date: NewDate(2024, 1, 1)},
		{ID: "a2", Date: NewDate(2024, 1, 1)},
	}
	sorted := SortedByDate(txs)
	want := []string{"a1", "a2", "c"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Fatalf("position %d: want %s got %s", i, id, sorted[i].ID)
		}
	}
	if txs[0].ID != "c" {
		t.Fatalf("input was mutated")
	}
}

func TestBorrowerClone(t *testing.T) {
	b := Borrower{Transactions: []Transaction{{ID: "1"}}}
	c := b.Clone()
	c.Transactions[0].ID = "2"
	if b.Transactions[0].ID != "1" {
		t.Fatalf("clone shares transactions with original")
	}
	if b.FindTransaction("1") != 0 || b.FindTransaction("2") != -1 {
		t.Fatalf("FindTransaction returned wrong index")
	}
}
