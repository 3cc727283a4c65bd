package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"lendx/internal/amqp"
	"lendx/internal/core"
	"lendx/internal/interest"
	"lendx/internal/ledger"
	"lendx/internal/metrics"
	"lendx/internal/sheets"
)

// Summarizer computes a borrower summary; *services.LoanService satisfies it.
type Summarizer interface {
	SummaryFor(b core.Borrower, f interest.Filter, asOf core.Date) interest.Summary
}

// ExportWorker keeps the external sheet in step with the ledger. It reacts to
// borrower change messages and periodically re-exports everything.
type ExportWorker struct {
	store       ledger.Store
	summaries   Summarizer
	exporter    sheets.SummaryExporter
	metrics     *metrics.Metrics
	concurrency int

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewExportWorker(store ledger.Store, summaries Summarizer, exporter sheets.SummaryExporter, m *metrics.Metrics, concurrency int) *ExportWorker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ExportWorker{
		store:       store,
		summaries:   summaries,
		exporter:    exporter,
		metrics:     m,
		concurrency: concurrency,
	}
}

// HandleBorrowerChanged processes a single borrower change message from AMQP.
// A returned error makes the consumer requeue the message unless it wraps an
// open circuit breaker.
func (w *ExportWorker) HandleBorrowerChanged(ctx context.Context, msg *amqp.BorrowerChangedMessage) error {
	slog.InfoContext(ctx, "Processing borrower change",
		"borrower_id", msg.BorrowerID,
		"deleted", msg.Deleted)

	if msg.Deleted {
		return w.remove(ctx, msg.BorrowerID)
	}

	b, err := w.store.GetBorrower(ctx, msg.BorrowerID)
	if errors.Is(err, ledger.ErrNotFound) {
		// Deleted after the message was sent; the deletion message follows.
		slog.WarnContext(ctx, "Borrower no longer exists, removing export", "borrower_id", msg.BorrowerID)
		return w.remove(ctx, msg.BorrowerID)
	}
	if err != nil {
		return fmt.Errorf("get borrower %s: %w", msg.BorrowerID, err)
	}
	return w.export(ctx, b)
}

// ExportAll exports every borrower with bounded concurrency. One failing
// borrower does not stop the others.
func (w *ExportWorker) ExportAll(ctx context.Context) error {
	borrowers, err := w.store.ListBorrowers(ctx)
	if err != nil {
		return fmt.Errorf("list borrowers: %w", err)
	}

	start := time.Now()
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, b := range borrowers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := w.export(gctx, b); err != nil {
				failed.Add(1)
				slog.ErrorContext(gctx, "Failed to export borrower", "borrower_id", b.ID, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Full export completed",
		"total", len(borrowers),
		"failed", failed.Load(),
		"duration", time.Since(start).Round(time.Millisecond))

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d borrower exports failed", n, len(borrowers))
	}
	return nil
}

func (w *ExportWorker) export(ctx context.Context, b core.Borrower) error {
	summary := w.summaries.SummaryFor(b, interest.Filter{}, core.Date{})
	err := w.exporter.ExportSummary(ctx, b, summary)
	w.metrics.Export(err)
	if err != nil {
		return fmt.Errorf("export borrower %s: %w", b.ID, err)
	}
	slog.DebugContext(ctx, "Exported borrower summary", "borrower_id", b.ID, "as_of", summary.AsOf.String())
	return nil
}

func (w *ExportWorker) remove(ctx context.Context, borrowerID string) error {
	if err := w.exporter.RemoveBorrower(ctx, borrowerID); err != nil {
		return fmt.Errorf("remove borrower %s: %w", borrowerID, err)
	}
	return nil
}

// Start runs ExportAll immediately and then every interval until Stop.
func (w *ExportWorker) Start(ctx context.Context, interval time.Duration) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("export worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	stop, done := w.stopCh, w.doneCh
	w.mu.Unlock()

	go w.runLoop(ctx, interval, stop, done)

	slog.InfoContext(ctx, "Export worker started",
		"interval", interval,
		"concurrency", w.concurrency)
	return nil
}

// Stop signals the loop and waits for the current export to finish.
func (w *ExportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	done := w.doneCh
	w.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Export worker stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export worker stop timed out")
		return ctx.Err()
	}
}

func (w *ExportWorker) runLoop(ctx context.Context, interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.runOnce(ctx)
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ExportWorker) runOnce(ctx context.Context) {
	if err := w.ExportAll(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Periodic export failed", "error", err)
	}
}
