package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"lendx/internal/cli"
	"lendx/internal/core"
	"lendx/internal/export"
	"lendx/internal/interest"
	"lendx/internal/ledger"
	"lendx/internal/ledger/memory"
	"lendx/internal/log"
	"lendx/internal/report"
	"lendx/internal/services"
)

var (
	borrowerID = flag.String("id", "", "Borrower id; omit to list every borrower")
	ledgerFile = flag.String("file", "", "JSON ledger file; defaults to the configured backend")
	asOfFlag   = flag.String("asof", "", "As-of date YYYY-MM-DD (default today)")
	startFlag  = flag.String("start", "", "Only include transactions on or after this date")
	endFlag    = flag.String("end", "", "Only include transactions on or before this date")
	chartPath  = flag.String("chart", "", "Write a PNG balance chart to this path")
	csvPath    = flag.String("csv", "", "Write the statement as CSV to this path")
	markdown   = flag.Bool("markdown", false, "Print the method comparison as a Markdown table")
)

type options struct {
	borrowerID       string
	asOf, start, end string
	chartPath        string
	csvPath          string
	markdown         bool
}

func main() {
	flag.Parse()
	ctx := context.Background()

	var store ledger.Store
	if *ledgerFile != "" {
		s, err := memory.NewFromFile(*ledgerFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lendx-report: %v\n", err)
			os.Exit(1)
		}
		store = s
	} else {
		cfg, logger := cli.LoadAndValidateConfig(log.ComponentReport)
		backend := cli.OpenBackend(ctx, logger, cfg)
		defer backend.Close()
		store = backend.Store
	}

	opts := options{
		borrowerID: strings.TrimSpace(*borrowerID),
		asOf:       *asOfFlag,
		start:      *startFlag,
		end:        *endFlag,
		chartPath:  *chartPath,
		csvPath:    *csvPath,
		markdown:   *markdown,
	}
	if err := run(ctx, store, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "lendx-report: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, store ledger.Store, opts options, out io.Writer) error {
	asOf, err := optionalDate("asof", opts.asOf)
	if err != nil {
		return err
	}
	var f interest.Filter
	if f.Start, err = optionalDate("start", opts.start); err != nil {
		return err
	}
	if f.End, err = optionalDate("end", opts.end); err != nil {
		return err
	}

	svc := services.NewLoanService(store)

	if opts.borrowerID == "" {
		views, err := svc.ListBorrowers(ctx)
		if err != nil {
			return err
		}
		p, err := svc.Portfolio(ctx, asOf)
		if err != nil {
			return err
		}
		report.PortfolioTable(out, p, views)
		return nil
	}

	b, err := svc.GetBorrower(ctx, opts.borrowerID)
	if err != nil {
		return err
	}
	summary := svc.SummaryFor(b, f, asOf)
	lines := interest.Statement(b.Transactions, f)

	if opts.markdown {
		report.MarkdownSummary(out, summary)
	} else {
		report.SummaryTable(out, b, summary)
	}
	if len(summary.Interest.Compound.Breakdown) > 0 {
		fmt.Fprintln(out, "\nCompound breakdown")
		report.BreakdownTable(out, summary)
	}
	fmt.Fprintln(out, "\nStatement")
	report.StatementTable(out, lines)

	if opts.csvPath != "" {
		if err := writeFile(opts.csvPath, func(w io.Writer) error {
			return export.WriteStatementCSV(w, lines)
		}); err != nil {
			return fmt.Errorf("write statement csv: %w", err)
		}
		fmt.Fprintf(out, "Statement written to %s\n", opts.csvPath)
	}

	if opts.chartPath != "" {
		err := writeFile(opts.chartPath, func(w io.Writer) error {
			return report.BalanceChart(w, b, summary, lines)
		})
		switch {
		case errors.Is(err, report.ErrNotEnoughData):
			fmt.Fprintln(out, "No transactions to chart")
		case err != nil:
			return fmt.Errorf("write chart: %w", err)
		default:
			fmt.Fprintf(out, "Chart written to %s\n", opts.chartPath)
		}
	}
	return nil
}

func optionalDate(name, value string) (core.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(value)
	if err != nil {
		return core.Date{}, fmt.Errorf("-%s: %w", name, err)
	}
	return d, nil
}

// writeFile removes the file again when render fails.
func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
