package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"lendx/internal/core"
	"lendx/internal/interest"
	ports "lendx/internal/sheets"
)

const (
	maxFailures = 5
	openTimeout = time.Minute
)

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

// Exporter writes borrower summaries to Google Sheets. Every API round trip
// goes through a circuit breaker so a failing Sheets API does not stall the
// export worker. Summary row lookups and writes are serialized: rows are
// addressed by position, so two concurrent inserts would claim the same row.
type Exporter struct {
	mu            sync.Mutex
	svc           *gsheet.Service
	spreadsheetID string
	summarySheet  string
	breaker       *gobreaker.CircuitBreaker
}

// Ensure interface conformance
var _ ports.SummaryExporter = (*Exporter)(nil)

// New creates an exporter authenticated with a service account.
func New(ctx context.Context, cfg Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Exporter {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Summary"
	}
	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		summarySheet:  sheetName,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "google-sheets",
			MaxRequests: 1,
			Timeout:     openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("Sheets circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Inline JSON wins over a file; GOOGLE_APPLICATION_CREDENTIALS is the last resort.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(cfg.CredentialsFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentials goption.ClientOption
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentials = goption.WithCredentialsJSON([]byte(serviceAccountJSON))
	case serviceAccountFile != "":
		if _, err := os.Stat(serviceAccountFile); err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		credentials = goption.WithCredentialsFile(serviceAccountFile)
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx, credentials, goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ExportSummary implements ports.SummaryExporter.
func (e *Exporter) ExportSummary(ctx context.Context, b core.Borrower, s interest.Summary) error {
	return e.guard(func() error {
		e.mu.Lock()
		defer e.mu.Unlock()
		if err := e.upsertSummaryRow(ctx, b, s); err != nil {
			return err
		}
		return e.writeBreakdown(ctx, b.ID, s)
	})
}

// RemoveBorrower implements ports.SummaryExporter. The summary row is cleared
// in place; the breakdown tab is left for manual cleanup.
func (e *Exporter) RemoveBorrower(ctx context.Context, borrowerID string) error {
	return e.guard(func() error {
		e.mu.Lock()
		defer e.mu.Unlock()
		ids, err := e.readIDs(ctx)
		if err != nil {
			return err
		}
		row := findRow(ids, borrowerID)
		if row == 0 {
			return nil
		}
		rng := fmt.Sprintf("%s!A%d:%s%d", e.summarySheet, row, lastColumn(), row)
		_, err = e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("clear %s: %w", rng, err)
		}
		return nil
	})
}

func (e *Exporter) guard(fn func() error) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}
	_, err := e.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("sheets export unavailable: %w", err)
	}
	return err
}

func (e *Exporter) upsertSummaryRow(ctx context.Context, b core.Borrower, s interest.Summary) error {
	ids, err := e.readIDs(ctx)
	if err != nil {
		return err
	}

	values := [][]any{toRow(ports.SummaryRow(b, s))}
	row := findRow(ids, b.ID)
	if row == 0 {
		if len(ids) == 0 {
			values = append([][]any{toRow(ports.SummaryHeader)}, values...)
		}
		row = len(ids) + 1
	}

	rng := fmt.Sprintf("%s!A%d", e.summarySheet, row)
	_, err = e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", rng, err)
	}
	return nil
}

func (e *Exporter) writeBreakdown(ctx context.Context, borrowerID string, s interest.Summary) error {
	sheet := ports.BreakdownSheetName(borrowerID)
	if err := e.ensureSheet(ctx, sheet); err != nil {
		return err
	}

	clearRange := fmt.Sprintf("%s!A:F", sheet)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	values := [][]any{toRow(ports.BreakdownHeader)}
	for _, r := range ports.BreakdownRows(s) {
		values = append(values, toRow(r))
	}
	rng := fmt.Sprintf("%s!A1", sheet)
	_, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", rng, err)
	}
	return nil
}

func (e *Exporter) ensureSheet(ctx context.Context, title string) error {
	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	slog.InfoContext(ctx, "Created breakdown sheet", "sheet", title)
	return nil
}

func (e *Exporter) readIDs(ctx context.Context) ([]string, error) {
	rng := fmt.Sprintf("%s!A:A", e.summarySheet)
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	ids := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) > 0 {
			ids[i] = strings.TrimSpace(fmt.Sprint(row[0]))
		}
	}
	return ids, nil
}

// findRow returns the 1-based sheet row holding id, or 0.
func findRow(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i + 1
		}
	}
	return 0
}

func lastColumn() string {
	return string(rune('A' + len(ports.SummaryHeader) - 1))
}

func toRow(cols []string) []any {
	out := make([]any, len(cols))
	for i, v := range cols {
		out[i] = v
	}
	return out
}
