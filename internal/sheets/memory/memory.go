package memory

import (
	"context"
	"sort"
	"sync"

	"lendx/internal/core"
	"lendx/internal/interest"
	ports "lendx/internal/sheets"
)

// Exporter keeps the latest exported rows in memory. It stands in for Google
// Sheets when no spreadsheet is configured.
type Exporter struct {
	mu        sync.Mutex
	rows      map[string][]string
	breakdown map[string][][]string
	exports   int
}

var _ ports.SummaryExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{
		rows:      map[string][]string{},
		breakdown: map[string][][]string{},
	}
}

func (e *Exporter) ExportSummary(_ context.Context, b core.Borrower, s interest.Summary) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows[b.ID] = ports.SummaryRow(b, s)
	e.breakdown[b.ID] = ports.BreakdownRows(s)
	e.exports++
	return nil
}

func (e *Exporter) RemoveBorrower(_ context.Context, borrowerID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.rows, borrowerID)
	delete(e.breakdown, borrowerID)
	return nil
}

// Row returns the exported summary row for a borrower.
func (e *Exporter) Row(borrowerID string) ([]string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	row, ok := e.rows[borrowerID]
	return append([]string(nil), row...), ok
}

// Breakdown returns the exported weekly rows for a borrower.
func (e *Exporter) Breakdown(borrowerID string) [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]string(nil), e.breakdown[borrowerID]...)
}

// IDs lists exported borrowers in id order.
func (e *Exporter) IDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.rows))
	for id := range e.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Exports counts successful ExportSummary calls.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
