package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the only accepted textual form of a calendar date.
const DateLayout = "2006-01-02"

const (
	Taken    TransactionType = "taken"
	Returned TransactionType = "returned"
)

const (
	MethodSimple          InterestMethod = "simple"
	MethodSimpleWithRepay InterestMethod = "simple_with_repay"
	MethodCompound        InterestMethod = "compound"
)

type (
	TransactionType string
	InterestMethod  string

	// Date is a calendar date stored as UTC midnight.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID     string          `json:"id"`
		Date   Date            `json:"date"`
		Type   TransactionType `json:"type"`
		Amount decimal.Decimal `json:"amount"`
	}

	Borrower struct {
		ID             string          `json:"id"`
		Name           string          `json:"name"`
		InterestRate   decimal.Decimal `json:"interestRate"` // percent per week
		InterestMethod InterestMethod  `json:"interestMethod"`
		Transactions   []Transaction   `json:"transactions"`
		CreatedAt      time.Time       `json:"createdAt"`
		UpdatedAt      time.Time       `json:"updatedAt"`
	}
)

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid transaction type")
	ErrInvalidMethod = errors.New("invalid interest method")
	ErrInvalidRate   = errors.New("invalid interest rate")
	ErrEmptyName     = errors.New("empty borrower name")
	ErrNameTooLong   = errors.New("borrower name too long (max 100 characters)")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a zero-padded YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// AddDays returns the date n calendar days later (or earlier when n < 0).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t TransactionType) IsValid() bool {
	return t == Taken || t == Returned
}

func (m InterestMethod) IsValid() bool {
	switch m {
	case MethodSimple, MethodSimpleWithRepay, MethodCompound:
		return true
	default:
		return false
	}
}

// Signed returns the amount as it affects the balance owed by the borrower.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Taken {
		return t.Amount
	}
	return t.Amount.Neg()
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (b Borrower) Validate() error {
	name := strings.TrimSpace(b.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return ErrNameTooLong
	}
	if b.InterestRate.IsNegative() {
		return ErrInvalidRate
	}
	if !b.InterestMethod.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, b.InterestMethod)
	}
	for _, t := range b.Transactions {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("transaction %s: %w", t.ID, err)
		}
	}
	return nil
}

// Clone returns a copy of the borrower that shares no slices with b.
func (b Borrower) Clone() Borrower {
	out := b
	out.Transactions = append([]Transaction(nil), b.Transactions...)
	return out
}

// FindTransaction returns the index of the transaction with the given id, or -1.
func (b Borrower) FindTransaction(id string) int {
	for i, t := range b.Transactions {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// SortByDate stably sorts txs in place by ascending date.
func SortByDate(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date.Time)
	})
}

// SortedByDate returns a date-sorted copy of txs, leaving txs untouched.
func SortedByDate(txs []Transaction) []Transaction {
	out := append([]Transaction(nil), txs...)
	SortByDate(out)
	return out
}
