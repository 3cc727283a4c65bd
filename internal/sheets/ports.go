package sheets

import (
	"context"

	"lendx/internal/core"
	"lendx/internal/interest"
)

// Ports for outbound adapters.
type (
	// SummaryExporter publishes borrower summaries to an external sheet.
	SummaryExporter interface {
		// ExportSummary writes or replaces the borrower's summary row and its
		// weekly breakdown.
		ExportSummary(ctx context.Context, b core.Borrower, s interest.Summary) error
		// RemoveBorrower clears whatever was exported for the borrower.
		RemoveBorrower(ctx context.Context, borrowerID string) error
	}
)
