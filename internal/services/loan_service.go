package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"lendx/internal/cache"
	"lendx/internal/core"
	"lendx/internal/interest"
	"lendx/internal/ledger"
	"lendx/internal/log"
	"lendx/internal/metrics"
)

// ErrTransactionNotFound is returned when a transaction id is not part of the
// borrower's ledger.
var ErrTransactionNotFound = errors.New("transaction not found")

// Publisher announces ledger changes to downstream consumers.
type Publisher interface {
	PublishBorrowerChanged(ctx context.Context, borrowerID string, updatedAt time.Time, deleted bool) error
}

type (
	BorrowerInput struct {
		Name           string
		InterestRate   decimal.Decimal
		InterestMethod core.InterestMethod
	}

	// BorrowerPatch changes only the non-nil fields.
	BorrowerPatch struct {
		Name           *string
		InterestRate   *decimal.Decimal
		InterestMethod *core.InterestMethod
	}

	TransactionInput struct {
		Date   core.Date
		Type   core.TransactionType
		Amount decimal.Decimal
	}

	// TransactionPatch changes only the non-nil fields.
	TransactionPatch struct {
		Date   *core.Date
		Type   *core.TransactionType
		Amount *decimal.Decimal
	}

	// BorrowerView is a borrower with its net balance, as listed on the dashboard.
	BorrowerView struct {
		core.Borrower
		Balance decimal.Decimal `json:"balance"`
		Status  string          `json:"status"`
	}

	Portfolio struct {
		AsOf             core.Date       `json:"asOf"`
		Borrowers        int             `json:"borrowers"`
		ActiveLoans      int             `json:"activeLoans"`
		TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
	}
)

// Option configures a LoanService.
type Option func(*LoanService)

func WithPublisher(p Publisher) Option { return func(s *LoanService) { s.publisher = p } }

func WithSummaryCache(c cache.Cache[interest.Summary]) Option {
	return func(s *LoanService) { s.summaries = c }
}

func WithMetrics(m *metrics.Metrics) Option { return func(s *LoanService) { s.metrics = m } }

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option { return func(s *LoanService) { s.now = now } }

func WithLogger(l *log.Logger) Option {
	return func(s *LoanService) { s.logger = log.NewStructuredLogger(l) }
}

// LoanService validates and applies ledger changes and serves summaries.
type LoanService struct {
	store     ledger.Store
	publisher Publisher
	summaries cache.Cache[interest.Summary]
	metrics   *metrics.Metrics
	now       func() time.Time
	logger    *log.StructuredLogger
}

func NewLoanService(store ledger.Store, opts ...Option) *LoanService {
	s := &LoanService{
		store:  store,
		now:    time.Now,
		logger: log.NewStructuredLogger(log.FromContext(context.Background()).WithComponent(log.ComponentLedger)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the default as-of date.
func (s *LoanService) Today() core.Date {
	return core.DateOf(s.now())
}

func (s *LoanService) CreateBorrower(ctx context.Context, in BorrowerInput) (core.Borrower, error) {
	now := s.now().UTC()
	b := core.Borrower{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(in.Name),
		InterestRate:   in.InterestRate,
		InterestMethod: in.InterestMethod,
		Transactions:   []core.Transaction{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if b.InterestMethod == "" {
		b.InterestMethod = core.MethodSimple
	}
	if err := b.Validate(); err != nil {
		return core.Borrower{}, err
	}

	if err := s.store.SaveBorrower(ctx, b); err != nil {
		return core.Borrower{}, fmt.Errorf("save borrower: %w", err)
	}
	s.afterMutation(ctx, "create_borrower", b, "", false)
	return b, nil
}

func (s *LoanService) UpdateBorrower(ctx context.Context, id string, patch BorrowerPatch) (core.Borrower, error) {
	return s.mutate(ctx, id, "update_borrower", "", func(b *core.Borrower) error {
		if patch.Name != nil {
			b.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.InterestRate != nil {
			b.InterestRate = *patch.InterestRate
		}
		if patch.InterestMethod != nil {
			b.InterestMethod = *patch.InterestMethod
		}
		return nil
	})
}

func (s *LoanService) DeleteBorrower(ctx context.Context, id string) error {
	if err := s.store.DeleteBorrower(ctx, id); err != nil {
		return err
	}
	s.afterMutation(ctx, "delete_borrower", core.Borrower{ID: id, UpdatedAt: s.now().UTC()}, "", true)
	return nil
}

func (s *LoanService) GetBorrower(ctx context.Context, id string) (core.Borrower, error) {
	return s.store.GetBorrower(ctx, id)
}

// ListBorrowers returns every borrower with its balance over all transactions.
func (s *LoanService) ListBorrowers(ctx context.Context) ([]BorrowerView, error) {
	borrowers, err := s.store.ListBorrowers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list borrowers: %w", err)
	}
	out := make([]BorrowerView, 0, len(borrowers))
	for _, b := range borrowers {
		balance := interest.RunningBalance(b.Transactions)
		out = append(out, BorrowerView{Borrower: b, Balance: balance, Status: balanceStatus(balance)})
	}
	return out, nil
}

func (s *LoanService) AddTransaction(ctx context.Context, borrowerID string, in TransactionInput) (core.Transaction, error) {
	tx := core.Transaction{
		ID:     uuid.NewString(),
		Date:   in.Date,
		Type:   in.Type,
		Amount: in.Amount,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	_, err := s.mutate(ctx, borrowerID, "add_transaction", tx.ID, func(b *core.Borrower) error {
		b.Transactions = append(b.Transactions, tx)
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func (s *LoanService) UpdateTransaction(ctx context.Context, borrowerID, txID string, patch TransactionPatch) (core.Transaction, error) {
	var updated core.Transaction
	_, err := s.mutate(ctx, borrowerID, "update_transaction", txID, func(b *core.Borrower) error {
		i := b.FindTransaction(txID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrTransactionNotFound, txID)
		}
		t := b.Transactions[i]
		if patch.Date != nil {
			t.Date = *patch.Date
		}
		if patch.Type != nil {
			t.Type = *patch.Type
		}
		if patch.Amount != nil {
			t.Amount = *patch.Amount
		}
		b.Transactions[i] = t
		updated = t
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	return updated, nil
}

func (s *LoanService) DeleteTransaction(ctx context.Context, borrowerID, txID string) error {
	_, err := s.mutate(ctx, borrowerID, "delete_transaction", txID, func(b *core.Borrower) error {
		i := b.FindTransaction(txID)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrTransactionNotFound, txID)
		}
		b.Transactions = append(b.Transactions[:i], b.Transactions[i+1:]...)
		return nil
	})
	return err
}

// mutate loads the borrower, applies fn, re-sorts, validates, bumps UpdatedAt
// and saves. Nothing is saved when fn or validation fails.
func (s *LoanService) mutate(ctx context.Context, id, op, txID string, fn func(*core.Borrower) error) (core.Borrower, error) {
	b, err := s.store.GetBorrower(ctx, id)
	if err != nil {
		return core.Borrower{}, err
	}
	if err := fn(&b); err != nil {
		return core.Borrower{}, err
	}

	core.SortByDate(b.Transactions)
	if err := b.Validate(); err != nil {
		return core.Borrower{}, err
	}

	updated := s.now().UTC()
	if !updated.After(b.UpdatedAt) {
		// Keeps the cache key moving even when the clock is coarse.
		updated = b.UpdatedAt.Add(time.Nanosecond)
	}
	b.UpdatedAt = updated

	if err := s.store.SaveBorrower(ctx, b); err != nil {
		return core.Borrower{}, fmt.Errorf("save borrower %s: %w", id, err)
	}
	s.afterMutation(ctx, op, b, txID, false)
	return b, nil
}

func (s *LoanService) afterMutation(ctx context.Context, op string, b core.Borrower, txID string, deleted bool) {
	s.metrics.Mutation(op)
	if s.summaries != nil {
		s.summaries.DeletePrefix(b.ID + "|")
	}
	s.logger.LogLedgerMutation(ctx, op, b.ID, txID)

	if s.publisher == nil {
		return
	}
	// The change is already durable; a failed notification is only logged.
	if err := s.publisher.PublishBorrowerChanged(ctx, b.ID, b.UpdatedAt, deleted); err != nil {
		s.logger.LogError(ctx, "Failed to publish borrower change", err,
			log.ComponentAMQP, op, log.NewFields().WithBorrower(b.ID, txID))
	}
}

// Summary computes the borrower's summary over f as of asOf (today when zero).
func (s *LoanService) Summary(ctx context.Context, id string, f interest.Filter, asOf core.Date) (interest.Summary, error) {
	b, err := s.store.GetBorrower(ctx, id)
	if err != nil {
		return interest.Summary{}, err
	}
	return s.SummaryFor(b, f, asOf), nil
}

// SummaryFor is Summary for an already loaded borrower.
func (s *LoanService) SummaryFor(b core.Borrower, f interest.Filter, asOf core.Date) interest.Summary {
	if asOf.IsZero() {
		asOf = s.Today()
	}

	key := summaryKey(b, f, asOf)
	if s.summaries != nil {
		if cached, ok := s.summaries.Get(key); ok {
			s.metrics.SummaryServed(true)
			return cached
		}
	}

	start := time.Now()
	summary := interest.Summarize(b, b.Transactions, f, asOf)
	s.metrics.ObserveSummary(time.Since(start))
	s.metrics.SummaryServed(false)

	if s.summaries != nil {
		s.summaries.Set(key, summary)
	}
	return summary
}

// Statement returns the borrower's running-balance statement over f.
func (s *LoanService) Statement(ctx context.Context, id string, f interest.Filter) ([]interest.StatementLine, error) {
	b, err := s.store.GetBorrower(ctx, id)
	if err != nil {
		return nil, err
	}
	return interest.Statement(b.Transactions, f), nil
}

// Portfolio aggregates net balances over every borrower. Transactions after
// asOf are ignored; a zero asOf means today.
func (s *LoanService) Portfolio(ctx context.Context, asOf core.Date) (Portfolio, error) {
	if asOf.IsZero() {
		asOf = s.Today()
	}
	borrowers, err := s.store.ListBorrowers(ctx)
	if err != nil {
		return Portfolio{}, fmt.Errorf("list borrowers: %w", err)
	}

	p := Portfolio{AsOf: asOf, Borrowers: len(borrowers), TotalOutstanding: decimal.Zero}
	upTo := interest.Filter{End: asOf}
	for _, b := range borrowers {
		balance := interest.RunningBalance(upTo.Apply(b.Transactions))
		p.TotalOutstanding = p.TotalOutstanding.Add(balance)
		if balance.IsPositive() {
			p.ActiveLoans++
		}
	}
	return p, nil
}

func summaryKey(b core.Borrower, f interest.Filter, asOf core.Date) string {
	return fmt.Sprintf("%s|%d|%s|%s|%s", b.ID, b.UpdatedAt.UnixNano(), f.Start, f.End, asOf)
}

func balanceStatus(balance decimal.Decimal) string {
	switch {
	case balance.IsPositive():
		return "outstanding"
	case balance.IsNegative():
		return "credit"
	default:
		return "settled"
	}
}
