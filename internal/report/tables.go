// Package report renders borrower summaries for the terminal and as charts.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"lendx/internal/core"
	"lendx/internal/interest"
	"lendx/internal/services"
)

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

// SummaryTable compares the three interest models side by side. The
// borrower's configured method is marked with an asterisk.
func SummaryTable(w io.Writer, b core.Borrower, s interest.Summary) {
	fmt.Fprintf(w, "%s (%s) as of %s\n", b.Name, b.ID, s.AsOf)
	fmt.Fprintf(w, "Taken %s  Returned %s  Balance %s  Weekly rate %s%%  Daily rate %.4f%%\n",
		money(s.TotalTaken), money(s.TotalReturned), money(s.CurrentBalance),
		b.InterestRate.String(), s.DailyInterestRate)

	table := newTable(w, []string{"Method", "Principal", "Interest", "Total"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})
	for _, r := range []interest.Result{s.Interest.Simple, s.Interest.SimpleWithRepay, s.Interest.Compound} {
		name := string(r.Method)
		if r.Method == s.Method {
			name += " *"
		}
		table.Append([]string{name, money(r.Principal), money(r.TotalInterest), money(r.TotalAmount)})
	}
	table.Render()
}

// BreakdownTable prints the compound weekly breakdown.
func BreakdownTable(w io.Writer, s interest.Summary) {
	table := newTable(w, []string{"Week", "Start", "End", "Principal", "Interest", "Balance"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})
	for _, wk := range s.Interest.Compound.Breakdown {
		table.Append([]string{
			strconv.Itoa(wk.Week),
			wk.StartDate.String(),
			wk.EndDate.String(),
			money(wk.Principal),
			money(wk.Interest),
			money(wk.Balance),
		})
	}
	table.Render()
}

// StatementTable prints transactions with their running balance.
func StatementTable(w io.Writer, lines []interest.StatementLine) {
	table := newTable(w, []string{"Date", "Type", "Amount", "Balance"})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})
	for _, l := range lines {
		table.Append([]string{l.Date.String(), string(l.Type), money(l.Amount), money(l.RunningBalance)})
	}
	table.Render()
}

// MarkdownSummary renders the comparison table in Markdown, for pasting into
// notes or issues.
func MarkdownSummary(w io.Writer, s interest.Summary) {
	table := newTable(w, []string{"Method", "Principal", "Interest", "Total"})
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	for _, r := range []interest.Result{s.Interest.Simple, s.Interest.SimpleWithRepay, s.Interest.Compound} {
		table.Append([]string{string(r.Method), money(r.Principal), money(r.TotalInterest), money(r.TotalAmount)})
	}
	table.Render()
}

// PortfolioTable lists every borrower with its balance, followed by the
// portfolio totals.
func PortfolioTable(w io.Writer, p services.Portfolio, views []services.BorrowerView) {
	table := newTable(w, []string{"ID", "Name", "Method", "Rate", "Balance", "Status"})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
	})
	for _, v := range views {
		table.Append([]string{
			v.ID,
			v.Name,
			string(v.InterestMethod),
			v.InterestRate.String() + "%",
			money(v.Balance),
			v.Status,
		})
	}
	table.SetFooter([]string{"", "", "", "Outstanding", money(p.TotalOutstanding), fmt.Sprintf("%d active", p.ActiveLoans)})
	table.Render()
	fmt.Fprintf(w, "%d borrowers as of %s\n", p.Borrowers, p.AsOf)
}
