package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"lendx/internal/amqp"
	"lendx/internal/core"
	"lendx/internal/interest"
	"lendx/internal/ledger/memory"
	"lendx/internal/metrics"
	memexport "lendx/internal/sheets/memory"
)

var asOf = core.NewDate(2024, 1, 15)

type fixedSummarizer struct{}

func (fixedSummarizer) SummaryFor(b core.Borrower, f interest.Filter, _ core.Date) interest.Summary {
	return interest.Summarize(b, b.Transactions, f, asOf)
}

// flakyExporter fails for the listed borrower ids.
type flakyExporter struct {
	*memexport.Exporter
	mu     sync.Mutex
	failID map[string]bool
}

func (f *flakyExporter) ExportSummary(ctx context.Context, b core.Borrower, s interest.Summary) error {
	f.mu.Lock()
	fail := f.failID[b.ID]
	f.mu.Unlock()
	if fail {
		return errors.New("sheet unavailable")
	}
	return f.Exporter.ExportSummary(ctx, b, s)
}

func borrower(id string, amount int64) core.Borrower {
	return core.Borrower{
		ID:             id,
		Name:           "Borrower " + id,
		InterestRate:   decimal.NewFromInt(10),
		InterestMethod: core.MethodSimple,
		Transactions: []core.Transaction{
			{ID: id + "-t1", Date: core.NewDate(2024, 1, 1), Type: core.Taken, Amount: decimal.NewFromInt(amount)},
		},
	}
}

func TestHandleBorrowerChanged(t *testing.T) {
	ctx := context.Background()
	store := memory.New(borrower("b1", 1000))
	exp := memexport.New()
	w := NewExportWorker(store, fixedSummarizer{}, exp, metrics.New(), 2)

	if err := w.HandleBorrowerChanged(ctx, amqp.NewBorrowerChangedMessage("b1", time.Now(), false)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	row, ok := exp.Row("b1")
	if !ok {
		t.Fatal("borrower should be exported")
	}
	if row[8] != "1200.00" {
		t.Fatalf("unexpected simple total %q", row[8])
	}

	if err := w.HandleBorrowerChanged(ctx, amqp.NewBorrowerChangedMessage("b1", time.Now(), true)); err != nil {
		t.Fatalf("handle delete: %v", err)
	}
	if _, ok := exp.Row("b1"); ok {
		t.Fatal("deleted borrower should be removed from the export")
	}
}

func TestHandleBorrowerChangedMissingBorrower(t *testing.T) {
	ctx := context.Background()
	exp := memexport.New()
	_ = exp.ExportSummary(ctx, borrower("gone", 1), interest.Summary{})
	w := NewExportWorker(memory.New(), fixedSummarizer{}, exp, nil, 1)

	if err := w.HandleBorrowerChanged(ctx, amqp.NewBorrowerChangedMessage("gone", time.Now(), false)); err != nil {
		t.Fatalf("missing borrower should not be retried: %v", err)
	}
	if _, ok := exp.Row("gone"); ok {
		t.Fatal("stale export should be removed")
	}
}

func TestHandleBorrowerChangedExportError(t *testing.T) {
	exp := &flakyExporter{Exporter: memexport.New(), failID: map[string]bool{"b1": true}}
	w := NewExportWorker(memory.New(borrower("b1", 10)), fixedSummarizer{}, exp, nil, 1)

	err := w.HandleBorrowerChanged(context.Background(), amqp.NewBorrowerChangedMessage("b1", time.Now(), false))
	if err == nil || !strings.Contains(err.Error(), "sheet unavailable") {
		t.Fatalf("expected export error, got %v", err)
	}
}

func TestExportAll(t *testing.T) {
	ctx := context.Background()
	store := memory.New(borrower("a", 100), borrower("b", 200), borrower("c", 300), borrower("d", 400))

	t.Run("all succeed", func(t *testing.T) {
		exp := memexport.New()
		w := NewExportWorker(store, fixedSummarizer{}, exp, metrics.New(), 2)
		if err := w.ExportAll(ctx); err != nil {
			t.Fatalf("export all: %v", err)
		}
		if got := exp.IDs(); len(got) != 4 {
			t.Fatalf("expected 4 exports, got %v", got)
		}
	})

	t.Run("one failure does not stop the rest", func(t *testing.T) {
		exp := &flakyExporter{Exporter: memexport.New(), failID: map[string]bool{"b": true}}
		w := NewExportWorker(store, fixedSummarizer{}, exp, nil, 3)
		err := w.ExportAll(ctx)
		if err == nil || !strings.Contains(err.Error(), "1 of 4") {
			t.Fatalf("expected partial failure, got %v", err)
		}
		if got := exp.IDs(); len(got) != 3 {
			t.Fatalf("expected 3 successful exports, got %v", got)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		w := NewExportWorker(store, fixedSummarizer{}, memexport.New(), nil, 1)
		if err := w.ExportAll(cctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestStartStop(t *testing.T) {
	ctx := context.Background()
	exp := memexport.New()
	w := NewExportWorker(memory.New(borrower("a", 1)), fixedSummarizer{}, exp, nil, 1)

	if err := w.Start(ctx, time.Hour); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := w.Start(ctx, time.Hour); err == nil {
		t.Fatal("second start should fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for exp.Exports() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if exp.Exports() == 0 {
		t.Fatal("startup export did not run")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("second stop should be a no-op: %v", err)
	}
}
