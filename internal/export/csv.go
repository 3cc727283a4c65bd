// Package export writes ledger statements in interchange formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"lendx/internal/interest"
)

// StatementHeader is the first CSV record written by WriteStatementCSV.
var StatementHeader = []string{"id", "date", "type", "amount", "running_balance"}

// WriteStatementCSV writes one record per statement line. Amounts are plain
// decimals with two places so spreadsheets parse them as numbers.
func WriteStatementCSV(w io.Writer, lines []interest.StatementLine) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(StatementHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, l := range lines {
		record := []string{
			l.ID,
			l.Date.String(),
			string(l.Type),
			l.Amount.StringFixed(2),
			l.RunningBalance.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record %s: %w", l.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
